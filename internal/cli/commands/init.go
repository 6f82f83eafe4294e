package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const configTemplate = `# nino code generator configuration
# Flags passed to "nino generate" override these values.

# Package patterns to scan for //nino:type directives.
packages:
  - ./...

# Frame managed member writes with 4-byte lengths so old readers
# tolerate payloads from newer types and vice versa.
weak_version_tolerance: false

# Also fire registration on engine scene load.
engine_hooks: false

# Where to remember what was generated last run.
cache_file: .nino-cache.json
`

// NewInitCommand creates the init command
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter nino.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(".", "nino.yaml")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", path)
			}
			if err := os.WriteFile(path, []byte(configTemplate), 0o644); err != nil {
				return err
			}
			color.Green("wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing nino.yaml")
	return cmd
}
