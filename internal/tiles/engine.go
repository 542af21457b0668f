package tiles

import (
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Config holds the timing and geometry of the tile loop.
type Config struct {
	TickInterval  time.Duration // Fall tick period
	SpawnInterval time.Duration // Periodic spawn period
	ReplaceDelay  time.Duration // Delay before a hit tile is replaced
	FallStep      float64       // Position advance per tick at base speed
	Field         Field
}

// DefaultConfig returns the standard timing: a 16ms tick advancing tiles by
// one percent, a spawn every two seconds and replacements after 100ms.
func DefaultConfig() Config {
	return Config{
		TickInterval:  16 * time.Millisecond,
		SpawnInterval: 2 * time.Second,
		ReplaceDelay:  100 * time.Millisecond,
		FallStep:      1,
		Field:         DefaultField(),
	}
}

// Rand is the source of tile columns. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// Pace returns the fall step for the current score and tick count.
type Pace func(score, ticks int) float64

// Option configures an Engine.
type Option func(*Engine)

// WithScheduler sets the scheduler driving the engine's tasks.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.sched = s }
}

// WithRand sets the column source.
func WithRand(r Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithAudio sets the music collaborator.
func WithAudio(a Audio) Option {
	return func(e *Engine) {
		if a != nil {
			e.audio = a
		}
	}
}

// WithLogger sets the logger used for audio failures and round events.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithPace overrides the fixed fall step.
func WithPace(p Pace) Option {
	return func(e *Engine) { e.pace = p }
}

// WithOnChange registers a callback receiving a copy of the state after
// every change. It runs outside the engine lock; snapshots from concurrent
// tasks may arrive out of order, use State.Version to drop stale ones.
func WithOnChange(fn func(State)) Option {
	return func(e *Engine) { e.onChange = fn }
}

// Engine owns a State and the tasks that mutate it: the fall tick, the
// periodic spawn and delayed replacement spawns. Every callback applies its
// change under one lock, so concurrent tasks never lose updates.
type Engine struct {
	mu       sync.Mutex
	cfg      Config
	sched    Scheduler
	rng      Rand
	audio    Audio
	logger   *log.Logger
	pace     Pace
	onChange func(State)

	state State
	muted bool

	// gen identifies the current round; tasks from older rounds are ignored.
	gen       uint64
	tickTask  Task
	spawnTask Task
	pending   map[uint64]Task
	pendingID uint64
}

// New creates an idle engine. Call Start to begin a round.
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:     cfg,
		audio:   NopAudio{},
		logger:  log.New(io.Discard),
		pending: make(map[uint64]Task),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sched == nil {
		e.sched = NewRealtimeScheduler()
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.pace == nil {
		step := cfg.FallStep
		e.pace = func(int, int) float64 { return step }
	}
	return e
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Muted reports whether background music is muted.
func (e *Engine) Muted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

// Start begins a new round: the state is reset, one tile is spawned and the
// tick and spawn tasks start. Tasks of a previous round are cancelled first.
func (e *Engine) Start() {
	e.mu.Lock()
	e.stopTasks()
	e.gen++
	gen := e.gen

	e.state = Start(e.state)
	e.spawnLocked()

	e.tickTask = e.sched.Every(e.cfg.TickInterval, func() { e.onTick(gen) })
	e.spawnTask = e.sched.Every(e.cfg.SpawnInterval, func() { e.onSpawn(gen) })

	if !e.muted {
		e.playAudio()
	}
	e.logger.Debug("round started", "round", gen)

	snap := e.state.Clone()
	e.mu.Unlock()
	e.emit(snap)
}

// SpawnTile adds a tile in a random column. No-op unless a round is in progress.
func (e *Engine) SpawnTile() {
	e.mu.Lock()
	if !e.state.Playing {
		e.mu.Unlock()
		return
	}
	e.spawnLocked()
	snap := e.state.Clone()
	e.mu.Unlock()
	e.emit(snap)
}

// Tick runs one fall step immediately, outside the tick schedule.
func (e *Engine) Tick() {
	e.mu.Lock()
	if !e.state.Playing {
		e.mu.Unlock()
		return
	}
	e.tickLocked()
	snap := e.state.Clone()
	e.mu.Unlock()
	e.emit(snap)
}

// Tap scores a hit on the given tile and schedules one replacement spawn.
// It reports false and changes nothing when no round is in progress or the
// tile is unknown, already hit or missed.
func (e *Engine) Tap(id TileID) bool {
	e.mu.Lock()
	next, ok := Hit(e.state, id)
	if !ok {
		e.mu.Unlock()
		return false
	}
	e.state = next
	e.scheduleReplacement()

	snap := e.state.Clone()
	e.mu.Unlock()
	e.emit(snap)
	return true
}

// TapLane taps the lowest visible tile of a column, if any.
func (e *Engine) TapLane(column int) (TileID, bool) {
	e.mu.Lock()
	t, found := e.state.Lowest(column, e.cfg.Field)
	e.mu.Unlock()
	if !found {
		return 0, false
	}
	return t.ID, e.Tap(t.ID)
}

// ToggleMute flips the mute flag. Muting pauses the music at once;
// unmuting resumes it only while a round is in progress.
func (e *Engine) ToggleMute() bool {
	e.mu.Lock()
	e.muted = !e.muted
	if e.muted {
		e.audio.Pause()
	} else if e.state.Playing {
		e.playAudio()
	}
	muted := e.muted
	e.state.Version++
	snap := e.state.Clone()
	e.mu.Unlock()
	e.emit(snap)
	return muted
}

// Close cancels every task and stops the music. The engine can be started
// again afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTasks()
	e.gen++
	e.audio.Pause()
}

func (e *Engine) onTick(gen uint64) {
	e.mu.Lock()
	if gen != e.gen || !e.state.Playing {
		e.mu.Unlock()
		return
	}
	e.tickLocked()
	snap := e.state.Clone()
	e.mu.Unlock()
	e.emit(snap)
}

func (e *Engine) onSpawn(gen uint64) {
	e.mu.Lock()
	if gen != e.gen || !e.state.Playing {
		e.mu.Unlock()
		return
	}
	e.spawnLocked()
	snap := e.state.Clone()
	e.mu.Unlock()
	e.emit(snap)
}

func (e *Engine) tickLocked() {
	step := e.pace(e.state.Score, e.state.Ticks)
	next, over := Advance(e.state, step, e.cfg.Field)
	e.state = next
	if !over {
		return
	}

	e.stopTasks()
	e.audio.Pause()
	e.logger.Debug("round over", "round", e.gen, "score", e.state.Score, "ticks", e.state.Ticks)
}

func (e *Engine) spawnLocked() {
	e.state = Spawn(e.state, e.rng.Intn(Columns), e.cfg.Field)
}

func (e *Engine) scheduleReplacement() {
	gen := e.gen
	e.pendingID++
	id := e.pendingID

	e.pending[id] = e.sched.After(e.cfg.ReplaceDelay, func() {
		e.mu.Lock()
		delete(e.pending, id)
		// The round may have ended or restarted during the delay
		if gen != e.gen || !e.state.Playing {
			e.mu.Unlock()
			return
		}
		e.spawnLocked()
		snap := e.state.Clone()
		e.mu.Unlock()
		e.emit(snap)
	})
}

func (e *Engine) stopTasks() {
	if e.tickTask != nil {
		e.tickTask.Stop()
		e.tickTask = nil
	}
	if e.spawnTask != nil {
		e.spawnTask.Stop()
		e.spawnTask = nil
	}
	for id, t := range e.pending {
		t.Stop()
		delete(e.pending, id)
	}
}

func (e *Engine) playAudio() {
	if err := e.audio.Play(); err != nil {
		e.logger.Warn("audio playback failed", "error", err)
	}
}

func (e *Engine) emit(s State) {
	if e.onChange != nil {
		e.onChange(s)
	}
}
