package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/piano-fire/internal/config"
	"github.com/vovakirdan/piano-fire/internal/platform/web"
	"github.com/vovakirdan/piano-fire/internal/storage"
)

var flagWebAddr string

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Serve the game to browsers",
	Long: `Start an HTTP server with a browser version of the game.

Every browser tab runs its own round on the server; the page draws the
tiles and plays the melody. Add ?player=<name> to the URL to record scores
under a name, and ?mode=rush for the rush mode.

Examples:
  pianofire web
  pianofire web --addr :9000
  pianofire web --difficulty hard

Then open:
  http://localhost:8080/?player=ann`,
	Args: cobra.NoArgs,
	RunE: runWeb,
}

func init() {
	webCmd.Flags().StringVar(&flagWebAddr, "addr", ":8080", "HTTP server address (host:port)")
	webCmd.Flags().StringVar(&flagConfig, "config", "", "Path to custom tiles config YAML")
	webCmd.Flags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard, fixed")
}

func runWeb(_ *cobra.Command, _ []string) error {
	logger := newLogger(os.Stderr, "pianofire-web")

	preset, ok := config.ParsePreset(flagDifficulty)
	if !ok {
		return fmt.Errorf("unknown difficulty %q (want easy, normal, hard or fixed)", flagDifficulty)
	}

	store, err := storage.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("opening scores database: %w", err)
	}
	defer store.Close()

	cfg := web.ServerConfig{
		Address:    flagWebAddr,
		ConfigPath: flagConfig,
		Difficulty: preset,
	}
	server, err := web.NewServer(cfg, store, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	fmt.Printf("Starting Piano Fire web server on %s\n", cfg.Address)
	fmt.Println("Press Ctrl+C to stop")

	return server.ListenAndServe()
}
