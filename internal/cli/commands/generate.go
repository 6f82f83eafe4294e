package commands

import (
	"context"
	stderrors "errors"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"

	"github.com/nino-go/nino/internal/compiler/cache"
	"github.com/nino-go/nino/internal/compiler/codegen"
	"github.com/nino-go/nino/internal/compiler/errors"
	"github.com/nino-go/nino/internal/compiler/extract"
	"github.com/nino-go/nino/internal/compiler/graph"
	"github.com/nino-go/nino/internal/compiler/metadata"
)

// engineImportPrefixes mark packages that depend on a game engine;
// their artifacts register the scene-load hook.
var engineImportPrefixes = []string{
	"github.com/hajimehoshi/ebiten",
	"github.com/g3n/engine",
}

// GenerateOptions collects everything the generation pipeline needs.
type GenerateOptions struct {
	Patterns             []string
	Dir                  string
	WeakVersionTolerance bool
	EngineHooks          bool
	CacheFile            string
	NoCache              bool
	Verbose              bool
}

// NewGenerateCommand creates the generate command
func NewGenerateCommand() *cobra.Command {
	var opts GenerateOptions

	cmd := &cobra.Command{
		Use:   "generate [packages]",
		Short: "Generate serialization code for annotated types",
		Long: `Scan the given package patterns for types carrying the //nino:type
directive and emit a nino.gen.go artifact into each package.

Configuration is read from nino.yaml in the working directory when
present; flags override file values.

Examples:
  # Generate for the current module
  nino generate ./...

  # Enable weak version tolerance
  nino generate --weak-version-tolerance ./...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.Patterns = args
			}
			applyConfigFile(&opts)
			summary, err := RunGeneration(cmd.Context(), &opts)
			if err != nil {
				return err
			}
			printSummary(summary)
			if summary.Diagnostics.HasErrors() {
				return fmt.Errorf("generation completed with errors")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.WeakVersionTolerance, "weak-version-tolerance", false, "frame managed member writes for version-tolerant decoding")
	cmd.Flags().BoolVar(&opts.EngineHooks, "engine-hooks", false, "register serializers on engine scene load as well as process start")
	cmd.Flags().StringVar(&opts.CacheFile, "cache", ".nino-cache.json", "generation cache file")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "regenerate everything, ignoring the cache")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging")
	return cmd
}

// applyConfigFile layers nino.yaml under the explicitly set options.
func applyConfigFile(opts *GenerateOptions) {
	v := viper.New()
	v.SetConfigName("nino")
	v.SetConfigType("yaml")
	if opts.Dir != "" {
		v.AddConfigPath(opts.Dir)
	} else {
		v.AddConfigPath(".")
	}
	v.SetDefault("packages", []string{"./..."})
	v.SetDefault("weak_version_tolerance", false)
	v.SetDefault("engine_hooks", false)
	v.SetDefault("cache_file", ".nino-cache.json")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "warning: ignoring malformed nino.yaml: %v\n", err)
		}
	}

	if len(opts.Patterns) == 0 {
		opts.Patterns = v.GetStringSlice("packages")
	}
	if !opts.WeakVersionTolerance {
		opts.WeakVersionTolerance = v.GetBool("weak_version_tolerance")
	}
	if !opts.EngineHooks {
		opts.EngineHooks = v.GetBool("engine_hooks")
	}
	if opts.CacheFile == "" || opts.CacheFile == ".nino-cache.json" {
		opts.CacheFile = v.GetString("cache_file")
	}
}

// Summary is the outcome of one generation run.
type Summary struct {
	Diagnostics *errors.Collector
	Metrics     *cache.GenerationMetrics
	Written     []string
	Skipped     []string
}

// RunGeneration executes the full pipeline: load, extract, graph,
// cache check, emit, write.
func RunGeneration(ctx context.Context, opts *GenerateOptions) (*Summary, error) {
	logger := newLogger(opts.Verbose)
	defer logger.Sync() //nolint:errcheck

	mode := packages.NeedName | packages.NeedFiles | packages.NeedImports |
		packages.NeedDeps | packages.NeedTypes | packages.NeedSyntax | packages.NeedTypesInfo
	loadCfg := &packages.Config{Mode: mode, Context: ctx, Dir: opts.Dir}
	pkgs, err := packages.Load(loadCfg, opts.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		return nil, fmt.Errorf("packages contain errors; fix them before generating")
	}

	diags := &errors.Collector{}
	projector := metadata.NewProjector(tokenFileSet(pkgs))
	extractor := extract.NewExtractor(projector)
	result, err := extractor.Extract(ctx, pkgs)
	if err != nil {
		return nil, fmt.Errorf("extraction: %w", err)
	}
	for _, d := range result.Diagnostics {
		diags.Add(d)
	}

	g := graph.Build(result.Types, diags)

	genCache := cache.NewGenerationCache()
	if !opts.NoCache && opts.CacheFile != "" {
		genCache = cache.LoadGenerationCache(opts.CacheFile)
	}
	hasher := cache.NewHasher()

	byPkg := make(map[string][]*metadata.NinoType)
	for _, t := range g.Types {
		byPkg[t.Info.PkgPath] = append(byPkg[t.Info.PkgPath], t)
	}

	summary := &Summary{Diagnostics: diags}
	var metas []codegen.PackageMeta
	for _, pkg := range pkgs {
		types := byPkg[pkg.PkgPath]
		if len(types) == 0 || len(pkg.GoFiles) == 0 {
			continue
		}
		batchHash := hasher.HashBatch(types) + configFingerprint(opts)
		if !opts.NoCache && genCache.Fresh(pkg.PkgPath, batchHash) {
			summary.Skipped = append(summary.Skipped, pkg.PkgPath)
			continue
		}
		metas = append(metas, codegen.PackageMeta{
			Path:     pkg.PkgPath,
			Name:     pkg.Name,
			Dir:      filepath.Dir(pkg.GoFiles[0]),
			IsEngine: dependsOnEngine(pkg),
		})
	}

	gen := codegen.New(codegen.Config{
		WeakVersionTolerance: opts.WeakVersionTolerance,
		EngineHooks:          opts.EngineHooks,
	}, logger)
	artifacts, metrics, err := gen.Generate(ctx, g, metas, diags)
	if err != nil {
		return nil, err
	}
	metrics.CacheHits = len(summary.Skipped)
	metrics.CacheMisses = len(metas)
	metrics.TotalPackages = metrics.CacheHits + metrics.CacheMisses
	summary.Metrics = metrics

	for _, a := range artifacts {
		path := filepath.Join(a.Dir, a.FileName)
		if err := os.WriteFile(path, []byte(a.Content), 0o644); err != nil {
			genCache.Invalidate(a.PkgPath)
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
		summary.Written = append(summary.Written, path)
	}
	if err := genCache.Save(); err != nil {
		logger.Warn("could not persist generation cache", zap.Error(err))
	}
	return summary, nil
}

// configFingerprint folds the wire-affecting switches into the cache
// key so toggling them forces regeneration.
func configFingerprint(opts *GenerateOptions) string {
	return fmt.Sprintf("|wvt=%v|engine=%v", opts.WeakVersionTolerance, opts.EngineHooks)
}

func dependsOnEngine(pkg *packages.Package) bool {
	for imp := range pkg.Imports {
		for _, prefix := range engineImportPrefixes {
			if strings.HasPrefix(imp, prefix) {
				return true
			}
		}
	}
	return false
}

func tokenFileSet(pkgs []*packages.Package) *token.FileSet {
	for _, p := range pkgs {
		if p.Fset != nil {
			return p.Fset
		}
	}
	return token.NewFileSet()
}

func newLogger(verbose bool) *zap.Logger {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func printSummary(s *Summary) {
	for _, d := range s.Diagnostics.All() {
		switch d.Severity {
		case errors.SeverityError:
			color.Red(d.Format())
		case errors.SeverityWarning:
			color.Yellow(d.Format())
		default:
			fmt.Println(d.Format())
		}
	}

	green := color.New(color.FgGreen)
	for _, w := range s.Written {
		green.Printf("  wrote %s\n", w)
	}
	if len(s.Skipped) > 0 {
		fmt.Printf("  %d package(s) unchanged, skipped\n", len(s.Skipped))
	}
	if s.Metrics != nil {
		fmt.Printf("  %d type(s) in %s\n", s.Metrics.TypesEmitted, s.Metrics.TotalDuration.Round(time.Millisecond))
	}
}
