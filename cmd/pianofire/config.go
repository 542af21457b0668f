package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/piano-fire/internal/config"
)

var (
	flagConfigWrite bool
	flagConfigForce bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print or install the default tiles config",
	Long: `Print the built-in tiles.yaml, or install it where the game looks for it.

Configs are searched in this order:
  --config <path>
  ~/.pianofire/configs/tiles.yaml
  ./configs/tiles.yaml
  built-in defaults

Examples:
  pianofire config > my-tiles.yaml
  pianofire config --write
  pianofire config --write --force`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&flagConfigWrite, "write", false, "Write to ~/.pianofire/configs/tiles.yaml")
	configCmd.Flags().BoolVar(&flagConfigForce, "force", false, "Overwrite an existing config with --write")
}

func runConfig(_ *cobra.Command, _ []string) error {
	if !flagConfigWrite {
		_, err := os.Stdout.Write(config.DefaultYAML())
		return err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("cannot get home directory: %w", err)
	}
	path := filepath.Join(home, config.ConfigDir, "configs", "tiles.yaml")

	if _, err := os.Stat(path); err == nil && !flagConfigForce {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, config.DefaultYAML(), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
