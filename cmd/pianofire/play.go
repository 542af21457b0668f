package main

import (
	"fmt"
	"os"
	"os/user"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/piano-fire/internal/audio"
	"github.com/vovakirdan/piano-fire/internal/config"
	"github.com/vovakirdan/piano-fire/internal/core"
	"github.com/vovakirdan/piano-fire/internal/games/pianofire"
	"github.com/vovakirdan/piano-fire/internal/platform/tui"
	"github.com/vovakirdan/piano-fire/internal/registry"
	"github.com/vovakirdan/piano-fire/internal/storage"
)

var (
	flagConfig     string
	flagDifficulty string
	flagMusic      string
	flagMute       bool
	flagPlayer     string
)

var playCmd = &cobra.Command{
	Use:   "play [mode]",
	Short: "Play a mode",
	Long: `Start playing the given mode (classic if omitted).

Modes:
  classic - Tiles fall at a constant speed
  rush    - Tiles fall faster as the score grows

Controls:
  Enter/Space  - Start a round
  D F J K      - Tap the lowest tile in a lane (also 1-4)
  Mouse        - Click a tile to tap it
  P            - Pause
  M            - Mute/unmute the music
  R            - Restart (after game over)
  Esc/B        - Leave (when no round is running)
  Q/Ctrl+C     - Quit

Difficulty options:
  easy   - Slower spawns, rush starts at the lowest speed
  normal - Rush starts at 30% of its speed range
  hard   - Faster spawns, rush starts at 70% of its speed range
  fixed  - Rush never speeds up

Examples:
  pianofire play
  pianofire play rush --difficulty hard
  pianofire play --music ./song.wav
  pianofire play --mute --player ann
  pianofire play --config ./my-tiles.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	addGameFlags(playCmd)
}

// addGameFlags registers the flags shared by play and menu.
func addGameFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagConfig, "config", "", "Path to custom tiles config YAML")
	cmd.Flags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard, fixed")
	cmd.Flags().StringVar(&flagMusic, "music", "", "WAV file to loop instead of the built-in melody")
	cmd.Flags().BoolVar(&flagMute, "mute", false, "Play without music")
	cmd.Flags().StringVar(&flagPlayer, "player", "", "Name recorded with scores (default: current user)")
}

// setupGames applies the game flags to every mode created afterwards.
// The returned func releases the audio device.
func setupGames(logger *log.Logger) (func(), error) {
	if _, ok := config.ParsePreset(flagDifficulty); !ok {
		return nil, fmt.Errorf("unknown difficulty %q (want easy, normal, hard or fixed)", flagDifficulty)
	}
	pianofire.SetConfigPath(flagConfig)
	pianofire.SetDifficultyPreset(flagDifficulty)
	pianofire.SetLogger(logger)

	if flagMute {
		pianofire.SetAudio(nil)
		return func() {}, nil
	}
	player := audio.NewPlayer(flagMusic)
	pianofire.SetAudio(player)
	return player.Close, nil
}

// playerName returns --player or the login name.
func playerName() string {
	if flagPlayer != "" {
		return flagPlayer
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return storage.AnonymousPlayer
}

// terminalConfig builds the runtime config from the terminal size and flags.
func terminalConfig() core.RuntimeConfig {
	width, height := 80, 24 // Defaults
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
		height = h
	}
	return core.RuntimeConfig{
		ScreenW:  width,
		ScreenH:  height,
		TickRate: flagFPS,
		Seed:     flagSeed,
	}
}

// openStore opens the scores database; games still run without it.
func openStore(logger *log.Logger) *storage.Store {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open scores database: %v\n", err)
		logger.Warn("scores disabled", "db", flagDBPath, "error", err)
		return nil
	}
	return store
}

func runPlay(_ *cobra.Command, args []string) error {
	mode := "classic"
	if len(args) > 0 {
		mode = args[0]
	}
	if !registry.Exists(mode) {
		return fmt.Errorf("unknown mode %q, run 'pianofire list' to see the modes", mode)
	}

	logger, closeLog := fileLogger()
	defer closeLog()

	release, err := setupGames(logger)
	if err != nil {
		return err
	}
	defer release()

	game, err := registry.Create(mode)
	if err != nil {
		return fmt.Errorf("creating mode: %w", err)
	}

	store := openStore(logger)
	if store != nil {
		defer store.Close()
	}

	logger.Info("playing", "mode", mode, "player", playerName())
	if err := tui.Run(game, store, terminalConfig(), playerName()); err != nil {
		return fmt.Errorf("running game: %w", err)
	}
	return nil
}
