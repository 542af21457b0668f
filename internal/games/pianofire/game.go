// Package pianofire implements the falling-tile rhythm game on top of the
// tile loop engine. Tiles drop down four lanes; tap each one before it
// leaves the field.
package pianofire

import (
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/piano-fire/internal/config"
	"github.com/vovakirdan/piano-fire/internal/core"
	"github.com/vovakirdan/piano-fire/internal/registry"
	"github.com/vovakirdan/piano-fire/internal/tiles"
)

// Mode selects how the fall speed evolves during a round.
type Mode int

const (
	ModeClassic Mode = iota // Constant fall step
	ModeRush                // Fall step grows with the score
)

// ringFrames is how long the hit ring stays on a tapped tile.
const ringFrames = 12

// Game adapts a tiles.Engine to the frame-stepped registry.Game interface.
// Each Step advances a virtual clock by one tick interval, so the engine's
// timers run in lockstep with the platform's frames.
type Game struct {
	mode    Mode
	runtime core.RuntimeConfig
	cfg     config.TilesConfig

	engine *tiles.Engine
	sched  *tiles.VirtualScheduler
	music  tiles.Audio

	state  tiles.State
	muted  bool
	paused bool
	layout Layout
	rings  map[tiles.TileID]int // Remaining frames of the hit ring
}

// Package-level settings applied on Reset, set from the CLI.
var (
	configPath       string
	difficultyPreset config.DifficultyPreset
	sharedAudio      tiles.Audio
	logger           *log.Logger
)

// SetConfigPath sets the custom config path for loading.
func SetConfigPath(path string) {
	configPath = path
}

// SetDifficultyPreset sets the difficulty preset. Unknown names fall back to
// the config file's settings.
func SetDifficultyPreset(preset string) {
	p, ok := config.ParsePreset(preset)
	if !ok {
		p = ""
	}
	difficultyPreset = p
}

// SetAudio sets the music player used by games created afterwards.
// Nil disables music.
func SetAudio(a tiles.Audio) {
	sharedAudio = a
}

// SetLogger sets the logger passed to the engine.
func SetLogger(l *log.Logger) {
	logger = l
}

// New creates a game in the given mode.
func New(mode Mode) *Game {
	return &Game{mode: mode}
}

// ID returns the unique identifier for this game.
func (g *Game) ID() string {
	if g.mode == ModeRush {
		return "rush"
	}
	return "classic"
}

// Title returns the display name for this game.
func (g *Game) Title() string {
	if g.mode == ModeRush {
		return "Piano Fire: Rush"
	}
	return "Piano Fire"
}

// Reset loads the configuration and builds a fresh engine. The round itself
// starts when the player confirms.
func (g *Game) Reset(runtime core.RuntimeConfig) {
	g.runtime = runtime

	cfg, err := config.LoadTiles(configPath)
	if err != nil {
		if logger != nil {
			logger.Warn("using default tile config", "error", err)
		}
		cfg = config.DefaultTilesConfig()
	}
	config.ApplyTilesPreset(&cfg, difficultyPreset)
	g.cfg = cfg

	if g.engine != nil {
		g.engine.Close()
	}

	g.music = sharedAudio
	g.sched = tiles.NewVirtualScheduler()
	opts := []tiles.Option{
		tiles.WithScheduler(g.sched),
		tiles.WithRand(rand.New(rand.NewSource(runtime.Seed))),
		tiles.WithAudio(g.music),
		tiles.WithLogger(logger),
	}
	if g.mode == ModeRush {
		difficulty := config.NewDifficultyManager(cfg.Difficulty)
		opts = append(opts, tiles.WithPace(difficulty.Pace(cfg.Field.FallStep)))
	}
	g.engine = tiles.New(cfg.Engine(), opts...)

	g.state = g.engine.Snapshot()
	g.muted = false
	g.paused = false
	g.rings = make(map[tiles.TileID]int)
	g.layout = NewLayout(runtime.ScreenW, runtime.ScreenH, cfg.Engine().Field)
}

// Step applies one frame of input and advances the engine by one tick.
func (g *Game) Step(in core.InputFrame) core.StepResult {
	if g.engine == nil {
		g.Reset(g.runtime)
	}

	if in.Has(core.ActionMute) {
		g.muted = g.engine.ToggleMute()
	}

	switch {
	case g.state.GameOver:
		if in.Has(core.ActionRestart) || in.Has(core.ActionConfirm) {
			g.start()
		}
	case !g.state.Playing:
		if in.Has(core.ActionConfirm) {
			g.start()
		}
	default:
		if in.Has(core.ActionPause) {
			g.paused = !g.paused
		}
		if !g.paused {
			g.play(in)
		}
	}

	g.fadeRings()
	g.state = g.engine.Snapshot()
	return core.StepResult{State: g.State()}
}

func (g *Game) start() {
	g.paused = false
	clear(g.rings)
	g.engine.Start()
}

// play handles taps and then runs one engine tick.
func (g *Game) play(in core.InputFrame) {
	before := g.engine.Snapshot().Score

	for col := range tiles.Columns {
		if in.Has(core.LaneAction(col)) {
			if id, ok := g.engine.TapLane(col); ok {
				g.rings[id] = ringFrames
			}
		}
	}

	if len(in.Clicks) > 0 {
		snap := g.engine.Snapshot()
		for _, p := range in.Clicks {
			if id, ok := g.layout.TileAt(snap, p.X, p.Y); ok && g.engine.Tap(id) {
				g.rings[id] = ringFrames
			}
		}
	}

	if b, ok := g.music.(interface{ Blip() }); ok && !g.muted {
		if g.engine.Snapshot().Score > before {
			b.Blip()
		}
	}

	g.sched.Advance(g.cfg.Engine().TickInterval)
}

func (g *Game) fadeRings() {
	for id, n := range g.rings {
		if n <= 1 {
			delete(g.rings, id)
			continue
		}
		g.rings[id] = n - 1
	}
}

// State returns the current game state.
func (g *Game) State() core.GameState {
	return core.GameState{
		Score:    g.state.Score,
		Playing:  g.state.Playing,
		GameOver: g.state.GameOver,
		Paused:   g.paused,
	}
}

// Snapshot returns the engine state as of the last Step.
func (g *Game) Snapshot() tiles.State {
	return g.state.Clone()
}

// Muted reports whether the music is muted.
func (g *Game) Muted() bool {
	return g.muted
}

// TickInterval returns the engine tick; platforms step the game at this rate.
func (g *Game) TickInterval() time.Duration {
	return g.cfg.Engine().TickInterval
}

// Resize recomputes the lane layout without interrupting the round.
func (g *Game) Resize(w, h int) {
	g.runtime.ScreenW = w
	g.runtime.ScreenH = h
	g.layout = NewLayout(w, h, g.cfg.Engine().Field)
}

// Close stops the engine and its music.
func (g *Game) Close() {
	if g.engine != nil {
		g.engine.Close()
	}
}

func init() {
	registry.Register("classic", func() registry.Game {
		return New(ModeClassic)
	})
	registry.Register("rush", func() registry.Game {
		return New(ModeRush)
	})
}
