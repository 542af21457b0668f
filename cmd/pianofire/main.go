// pianofire is a falling-tile rhythm game for the terminal, SSH and the browser.
//
// Usage:
//
//	pianofire list             - List game modes
//	pianofire play [mode]      - Play a mode (default: classic)
//	pianofire menu             - Pick modes interactively
//	pianofire scores [mode]    - Show high scores
//	pianofire serve            - Start SSH server for remote play
//	pianofire web              - Start the browser frontend
//	pianofire config           - Print or install the default config
//
// Global flags:
//
//	--fps <rate>    - Frame rate for modes without a fixed tick (default: 60)
//	--seed <value>  - Set RNG seed for reproducible tile columns
//	--db <path>     - Set database path (default: ~/.pianofire/scores.db)
//	--debug         - Log debug events
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/piano-fire/internal/config"
	// Import modes to register them
	_ "github.com/vovakirdan/piano-fire/internal/games/pianofire"
)

var (
	// Global flags
	flagFPS    int
	flagSeed   int64
	flagDBPath string
	flagDebug  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pianofire",
	Short: "Piano Fire - tap the falling tiles before they hit the bottom",
	Long: `Piano Fire is a falling-tile rhythm game. Tiles drop down four lanes
to a looping melody; tap each one before it leaves the board.

Available commands:
  list     - Show the game modes
  play     - Play a mode directly
  menu     - Interactive mode picker
  scores   - View high scores
  serve    - Start SSH server for remote play
  web      - Serve the game to browsers
  config   - Print or install the default config

Examples:
  pianofire play
  pianofire play rush --difficulty hard
  pianofire menu
  pianofire serve --ssh :2222
  pianofire web --addr :8080
  pianofire scores rush`,
	SilenceUsage: true,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 60, "Frame rate for modes without a fixed tick")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/"+config.ConfigDir+"/scores.db", "Path to scores database")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Log debug events")

	// Add subcommands
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(webCmd)
	rootCmd.AddCommand(configCmd)
}

// newLogger returns a logger writing to w with the level set by --debug.
func newLogger(w io.Writer, prefix string) *log.Logger {
	level := log.InfoLevel
	if flagDebug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
		Level:           level,
	})
}

// fileLogger logs to ~/.pianofire/pianofire.log, since stderr is covered by
// the game screen. Logging is discarded if the file cannot be opened.
func fileLogger() (*log.Logger, func()) {
	home, err := os.UserHomeDir()
	if err != nil {
		return log.New(io.Discard), func() {}
	}
	dir := filepath.Join(home, config.ConfigDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return log.New(io.Discard), func() {}
	}
	f, err := os.OpenFile(filepath.Join(dir, "pianofire.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return log.New(io.Discard), func() {}
	}
	//nolint:errcheck // Best-effort close on exit
	return newLogger(f, "pianofire"), func() { f.Close() }
}
