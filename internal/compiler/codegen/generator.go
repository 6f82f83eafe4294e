package codegen

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nino-go/nino/internal/compiler/cache"
	"github.com/nino-go/nino/internal/compiler/errors"
	"github.com/nino-go/nino/internal/compiler/graph"
	"github.com/nino-go/nino/internal/compiler/metadata"
)

// Config carries the compile-time switches.
type Config struct {
	// WeakVersionTolerance frames every managed member write with a
	// 4-byte length so old readers tolerate new payloads and vice
	// versa.
	WeakVersionTolerance bool
	// EngineHooks wires registration into the host engine's scene-load
	// lifecycle in addition to process start.
	EngineHooks bool
}

// PackageMeta identifies one package selected for generation.
type PackageMeta struct {
	Path string
	Name string
	// Dir is where the artifact lands on disk.
	Dir string
	// IsEngine marks packages that depend on the host game engine;
	// their artifacts get the scene-load hook regardless of the global
	// switch.
	IsEngine bool
}

// Artifact is one generated file.
type Artifact struct {
	PkgPath  string
	Dir      string
	FileName string
	Content  string
}

// Generator drives emission: it partitions the graph by package, runs
// the user-type and builtin emitters, and assembles one artifact per
// package. Per-type failures degrade to diagnostics and stub blocks;
// they never abort the batch.
type Generator struct {
	cfg Config
	log *zap.Logger
}

// New creates a generator. A nil logger disables logging.
func New(cfg Config, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{cfg: cfg, log: log}
}

// Generate emits artifacts for every package in pkgs that has types in
// the graph. Packages emit in parallel; the artifact slice comes back
// sorted by package path.
func (g *Generator) Generate(ctx context.Context, gr *graph.Graph, pkgs []PackageMeta, diags *errors.Collector) ([]Artifact, *cache.GenerationMetrics, error) {
	runID := uuid.NewString()
	metrics := &cache.GenerationMetrics{StartTime: time.Now(), TotalPackages: len(pkgs)}
	log := g.log.With(zap.String("run_id", runID))
	log.Info("generation started",
		zap.Int("types", len(gr.Types)),
		zap.Int("packages", len(pkgs)),
		zap.Bool("weak_version_tolerance", g.cfg.WeakVersionTolerance))

	byPkg := make(map[string][]*metadata.NinoType)
	for _, t := range gr.Types {
		byPkg[t.Info.PkgPath] = append(byPkg[t.Info.PkgPath], t)
	}

	genSet := make(map[string]bool, len(pkgs))
	for _, pkg := range pkgs {
		genSet[pkg.Path] = true
	}

	var (
		mu        sync.Mutex
		artifacts []Artifact
	)

	eg, ctx := errgroup.WithContext(ctx)
	for _, pkg := range pkgs {
		types := byPkg[pkg.Path]
		if len(types) == 0 {
			continue
		}
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cfg := g.cfg
			if pkg.IsEngine {
				cfg.EngineHooks = true
			}
			content, pkgDiags := g.emitPackage(pkg, gr, types, cfg, genSet)

			mu.Lock()
			defer mu.Unlock()
			for _, d := range pkgDiags {
				diags.Add(d)
			}
			artifacts = append(artifacts, Artifact{
				PkgPath:  pkg.Path,
				Dir:      pkg.Dir,
				FileName: "nino.gen.go",
				Content:  content,
			})
			metrics.TypesEmitted += len(types)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, metrics, err
	}

	sort.Slice(artifacts, func(i, j int) bool { return artifacts[i].PkgPath < artifacts[j].PkgPath })
	metrics.EndTime = time.Now()
	metrics.TotalDuration = metrics.EndTime.Sub(metrics.StartTime)
	log.Info("generation finished",
		zap.Int("artifacts", len(artifacts)),
		zap.Int("types_emitted", metrics.TypesEmitted),
		zap.Duration("elapsed", metrics.TotalDuration))
	return artifacts, metrics, nil
}

// emitPackage assembles one package's artifact. Types emit into
// separate buffers so one failure cannot corrupt its neighbors.
func (g *Generator) emitPackage(pkg PackageMeta, gr *graph.Graph, types []*metadata.NinoType, cfg Config, genSet map[string]bool) (string, []*errors.Diagnostic) {
	c := newFileContext(pkg.Path, gr, cfg, genSet)
	var diags []*errors.Diagnostic

	sorted := append([]*metadata.NinoType(nil), types...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Info.Name < sorted[j].Info.Name })

	var blocks []string
	var emitted []*metadata.NinoType
	for _, t := range sorted {
		block, diag := g.emitTypeGuarded(c, t)
		if diag != nil {
			diags = append(diags, diag)
			g.log.Warn("type emission degraded",
				zap.String("type", t.Info.DisplayName),
				zap.String("code", string(diag.Code)))
		}
		if block != "" {
			blocks = append(blocks, block)
		}
		if diag == nil {
			emitted = append(emitted, t)
		}
	}

	builtins := newEmitter()
	if err := c.emitBuiltins(builtins); err != nil {
		diags = append(diags, errors.NewEmissionFailed(pkg.Path, metadata.SourceLocation{}, err.Error()))
	}

	consts := newEmitter()
	c.emitTypeIDConsts(consts, emitted)

	reg := newEmitter()
	if len(emitted) > 0 {
		c.emitRegistration(reg, emitted)
	} else {
		// Nothing survived emission; anchor the eagerly tracked
		// runtime import so the stub artifact still compiles.
		reg.writeLine("// No serializers were emitted for this package; see diagnostics.")
		reg.writeLine("var _ runtime.Reader")
		reg.writeLine("")
	}

	out := newEmitter()
	out.writeLine("// Code generated by nino. DO NOT EDIT.")
	out.writeLine("")
	out.writeLine("package %s", pkg.Name)
	out.writeLine("")
	c.imports.render(out)

	final := out.String() + consts.String()
	for _, b := range blocks {
		final += b
	}
	final += builtins.String() + reg.String()
	return final, diags
}

// emitTypeGuarded emits one type, converting missing-member failures
// and panics into diagnostics. A panic yields a comment-only stub block
// carrying the stack trace.
func (g *Generator) emitTypeGuarded(c *fileContext, t *metadata.NinoType) (block string, diag *errors.Diagnostic) {
	e := newEmitter()
	defer func() {
		if r := recover(); r != nil {
			diag = errors.NewEmissionFailed(t.Info.DisplayName, t.Info.Loc,
				fmt.Sprintf("panic: %v\n%s", r, debug.Stack()))
			stub := newEmitter()
			stub.writeLine("// Emission failed for %s: %v", t.Info.DisplayName, r)
			stub.writeLine("// The type is not registered; see generator diagnostics.")
			stub.writeLine("//")
			for _, line := range strings.Split(strings.TrimRight(string(debug.Stack()), "\n"), "\n") {
				stub.writeLine("// %s", line)
			}
			stub.writeLine("")
			block = stub.String()
		}
	}()

	if err := c.emitUserType(e, t); err != nil {
		if mm, ok := err.(*missingMemberError); ok {
			return "", errors.NewMissingMember(
				t.Info.DisplayName, mm.member.Name, mm.shape.DisplayName, mm.member.Loc)
		}
		return "", errors.NewEmissionFailed(t.Info.DisplayName, t.Info.Loc, err.Error())
	}
	return e.String(), nil
}
