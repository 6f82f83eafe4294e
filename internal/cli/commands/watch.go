package commands

import (
	"context"
	"fmt"
	"go/token"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/tools/go/packages"

	"github.com/nino-go/nino/internal/watch"
)

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	var opts GenerateOptions

	cmd := &cobra.Command{
		Use:   "watch [packages]",
		Short: "Regenerate serialization code on source changes",
		Long: `Watch the given packages and rerun generation whenever a Go source
file changes. Generated artifacts are excluded from watching so a
rebuild does not retrigger itself.

Examples:
  nino watch ./...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.Patterns = args
			}
			applyConfigFile(&opts)
			return runWatch(cmd.Context(), &opts)
		},
	}

	cmd.Flags().BoolVar(&opts.WeakVersionTolerance, "weak-version-tolerance", false, "frame managed member writes for version-tolerant decoding")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging")
	return cmd
}

func runWatch(ctx context.Context, opts *GenerateOptions) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dirs, err := packageDirs(opts)
	if err != nil {
		return err
	}

	color.Cyan("Watching %d directories; press Ctrl-C to stop", len(dirs))

	logger := newLogger(opts.Verbose)
	defer logger.Sync() //nolint:errcheck

	w := watch.New(dirs, func(ctx context.Context) error {
		summary, err := RunGeneration(ctx, opts)
		if err != nil {
			color.Red("generation failed: %v", err)
			return err
		}
		printSummary(summary)
		return nil
	}, logger)

	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// packageDirs resolves the watch roots from the package patterns.
func packageDirs(opts *GenerateOptions) ([]string, error) {
	loadCfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles,
		Dir:  opts.Dir,
		Fset: token.NewFileSet(),
	}
	pkgs, err := packages.Load(loadCfg, opts.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("resolving watch roots: %w", err)
	}

	seen := make(map[string]bool)
	var dirs []string
	for _, p := range pkgs {
		if len(p.GoFiles) == 0 {
			continue
		}
		dir := filepath.Dir(p.GoFiles[0])
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("no Go packages match %v", opts.Patterns)
	}
	return dirs, nil
}
