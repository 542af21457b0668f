package tiles

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"
)

// laneSequence returns the given columns in order, repeating.
type laneSequence struct {
	cols []int
	i    int
}

func (r *laneSequence) Intn(n int) int {
	c := r.cols[r.i%len(r.cols)] % n
	r.i++
	return c
}

type recordingAudio struct {
	mu     sync.Mutex
	plays  int
	pauses int
	err    error
}

func (a *recordingAudio) Play() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.plays++
	return a.err
}

func (a *recordingAudio) Pause() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pauses++
}

func (a *recordingAudio) counts() (int, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.plays, a.pauses
}

func newTestEngine(opts ...Option) (*Engine, *VirtualScheduler) {
	sched := NewVirtualScheduler()
	base := []Option{
		WithScheduler(sched),
		WithRand(&laneSequence{cols: []int{2, 0, 3, 1}}),
	}
	return New(DefaultConfig(), append(base, opts...)...), sched
}

func ticks(n int) time.Duration {
	return time.Duration(n) * DefaultConfig().TickInterval
}

func TestEngineStart(t *testing.T) {
	e, sched := newTestEngine()
	e.Start()

	s := e.Snapshot()
	if !s.Playing || s.GameOver || s.Score != 0 {
		t.Fatalf("unexpected state after Start: %+v", s)
	}
	if len(s.Tiles) != 1 {
		t.Fatalf("Start should spawn one tile, got %d", len(s.Tiles))
	}
	tile := s.Tiles[0]
	if tile.Position != -25 || tile.Column != 2 || tile.Hit || tile.Missed {
		t.Errorf("unexpected initial tile %+v", tile)
	}
	if sched.Pending() != 2 {
		t.Errorf("Start should schedule tick and spawn tasks, pending = %d", sched.Pending())
	}
}

func TestEngineMissScenario(t *testing.T) {
	e, sched := newTestEngine()
	e.Start()

	sched.Advance(ticks(124))
	s := e.Snapshot()
	if !s.Playing || s.Tiles[0].Position != 99 {
		t.Fatalf("after 124 ticks expected position 99 and playing, got %+v", s)
	}

	sched.Advance(ticks(1))
	s = e.Snapshot()
	if s.Playing || !s.GameOver {
		t.Fatalf("expected game over after 125 ticks, got playing=%v gameOver=%v", s.Playing, s.GameOver)
	}
	if !s.Tiles[0].Missed || s.Tiles[0].Position != 100 {
		t.Errorf("tile should be missed at 100, got %+v", s.Tiles[0])
	}
	// The spawn due at the same instant is cancelled by the game over
	if len(s.Tiles) != 1 {
		t.Errorf("no spawn should follow game over, got %d tiles", len(s.Tiles))
	}
	if sched.Pending() != 0 {
		t.Errorf("all tasks should be cancelled, pending = %d", sched.Pending())
	}

	sched.Advance(10 * time.Second)
	if after := e.Snapshot(); after.Version != s.Version {
		t.Error("state changed after game over")
	}
}

func TestEngineTapScenario(t *testing.T) {
	e, sched := newTestEngine()
	e.Start()
	id := e.Snapshot().Tiles[0].ID

	if !e.Tap(id) {
		t.Fatal("tap on live tile should succeed")
	}
	s := e.Snapshot()
	if s.Score != 1 || !s.Tiles[0].Hit || !s.Playing {
		t.Fatalf("unexpected state after tap: %+v", s)
	}

	sched.Advance(99 * time.Millisecond)
	if n := len(e.Snapshot().Tiles); n != 1 {
		t.Fatalf("replacement should wait for the delay, got %d tiles", n)
	}

	sched.Advance(time.Millisecond)
	s = e.Snapshot()
	if len(s.Tiles) != 2 {
		t.Fatalf("replacement should spawn after 100ms, got %d tiles", len(s.Tiles))
	}
	if s.Tiles[1].Position != -25 || !s.Playing {
		t.Errorf("unexpected replacement %+v", s.Tiles[1])
	}
}

func TestEngineTapOnlyOnce(t *testing.T) {
	e, sched := newTestEngine()
	e.Start()
	id := e.Snapshot().Tiles[0].ID

	e.Tap(id)
	if e.Tap(id) {
		t.Error("second tap on the same tile should be ignored")
	}
	if e.Snapshot().Score != 1 {
		t.Errorf("score = %d, expected 1", e.Snapshot().Score)
	}
	// tick + spawn + exactly one replacement
	if sched.Pending() != 3 {
		t.Errorf("pending = %d, expected 3", sched.Pending())
	}
}

func TestEngineTapIgnoredWhenIdle(t *testing.T) {
	e, _ := newTestEngine()

	if e.Tap(1) {
		t.Error("tap before Start should be ignored")
	}
	e.SpawnTile()
	if len(e.Snapshot().Tiles) != 0 {
		t.Error("SpawnTile before Start should be ignored")
	}
}

func TestEngineMissedTileCannotBeHit(t *testing.T) {
	e, sched := newTestEngine()
	e.Start()
	sched.Advance(ticks(125))

	s := e.Snapshot()
	if !s.GameOver {
		t.Fatal("expected game over")
	}
	if e.Tap(s.Tiles[0].ID) {
		t.Error("missed tile should not be tappable")
	}
	if e.Snapshot().Score != 0 {
		t.Error("score must stay 0 without a successful tap")
	}
}

func TestEngineRestartCancelsReplacement(t *testing.T) {
	e, sched := newTestEngine()
	e.Start()
	e.Tap(e.Snapshot().Tiles[0].ID)

	e.Start()
	sched.Advance(150 * time.Millisecond)

	s := e.Snapshot()
	if len(s.Tiles) != 1 {
		t.Errorf("replacement from the previous round leaked, %d tiles", len(s.Tiles))
	}
	if s.Score != 0 {
		t.Errorf("restart should reset score, got %d", s.Score)
	}
	if sched.Pending() != 2 {
		t.Errorf("pending = %d, expected only the new round's tasks", sched.Pending())
	}
}

func TestEngineCloseCancelsEverything(t *testing.T) {
	audio := &recordingAudio{}
	e, sched := newTestEngine(WithAudio(audio))
	e.Start()
	e.Tap(e.Snapshot().Tiles[0].ID)

	e.Close()
	before := e.Snapshot()
	sched.Advance(5 * time.Second)

	if sched.Pending() != 0 {
		t.Errorf("Close should cancel all tasks, pending = %d", sched.Pending())
	}
	if e.Snapshot().Version != before.Version {
		t.Error("state changed after Close")
	}
	if _, pauses := audio.counts(); pauses == 0 {
		t.Error("Close should pause the music")
	}
}

func TestEnginePeriodicSpawn(t *testing.T) {
	e, sched := newTestEngine()
	e.Start()
	first := e.Snapshot().Tiles[0].ID
	e.Tap(first)

	sched.Advance(2 * time.Second)

	s := e.Snapshot()
	// initial (hit) + replacement + periodic spawn
	if len(s.Tiles) != 3 {
		t.Fatalf("expected 3 tiles after 2s, got %d", len(s.Tiles))
	}
	for i := 1; i < len(s.Tiles); i++ {
		if s.Tiles[i].ID <= s.Tiles[i-1].ID {
			t.Errorf("tiles out of spawn order: %v", s.Tiles)
		}
	}
}

func TestEngineTapLane(t *testing.T) {
	e, sched := newTestEngine()
	e.Start()
	col := e.Snapshot().Tiles[0].Column

	if _, ok := e.TapLane(col); ok {
		t.Error("tile above the field should not be tappable by lane")
	}

	sched.Advance(ticks(1))
	if _, ok := e.TapLane((col + 1) % Columns); ok {
		t.Error("tapping an empty lane should do nothing")
	}
	id, ok := e.TapLane(col)
	if !ok || id != e.Snapshot().Tiles[0].ID {
		t.Errorf("TapLane(%d) = %d, %v", col, id, ok)
	}
	if e.Snapshot().Score != 1 {
		t.Errorf("score = %d, expected 1", e.Snapshot().Score)
	}
}

func TestEnginePace(t *testing.T) {
	e, sched := newTestEngine(WithPace(func(score, ticks int) float64 {
		return 5
	}))
	e.Start()
	sched.Advance(ticks(1))

	if pos := e.Snapshot().Tiles[0].Position; pos != -20 {
		t.Errorf("position = %v, expected -20 with pace 5", pos)
	}
}

func TestEngineAudio(t *testing.T) {
	audio := &recordingAudio{}
	e, sched := newTestEngine(WithAudio(audio))

	e.Start()
	if plays, _ := audio.counts(); plays != 1 {
		t.Errorf("Start should play music once, plays = %d", plays)
	}

	if !e.ToggleMute() {
		t.Fatal("first toggle should mute")
	}
	if _, pauses := audio.counts(); pauses != 1 {
		t.Errorf("muting should pause, pauses = %d", pauses)
	}

	if e.ToggleMute() {
		t.Fatal("second toggle should unmute")
	}
	if plays, _ := audio.counts(); plays != 2 {
		t.Errorf("unmuting while playing should resume, plays = %d", plays)
	}

	sched.Advance(ticks(125))
	_, pauses := audio.counts()
	if pauses != 2 {
		t.Errorf("game over should pause music, pauses = %d", pauses)
	}

	e.ToggleMute()
	e.ToggleMute()
	if plays, _ := audio.counts(); plays != 2 {
		t.Errorf("unmuting after game over should not play, plays = %d", plays)
	}

	e.ToggleMute() // muted
	e.Start()
	if plays, _ := audio.counts(); plays != 2 {
		t.Errorf("muted start should not play, plays = %d", plays)
	}
}

func TestEngineAudioFailureIgnored(t *testing.T) {
	audio := &recordingAudio{err: errors.New("autoplay blocked")}
	e, sched := newTestEngine(WithAudio(audio))

	e.Start()
	sched.Advance(ticks(1))

	s := e.Snapshot()
	if !s.Playing || len(s.Tiles) != 1 {
		t.Errorf("audio failure must not affect the game, got %+v", s)
	}
}

func TestEngineOnChange(t *testing.T) {
	var versions []uint64
	e, sched := newTestEngine(WithOnChange(func(s State) {
		versions = append(versions, s.Version)
	}))

	e.Start()
	sched.Advance(ticks(3))

	if len(versions) != 4 {
		t.Fatalf("expected 4 notifications (start + 3 ticks), got %d", len(versions))
	}
	for i := 1; i < len(versions); i++ {
		if versions[i] <= versions[i-1] {
			t.Errorf("versions should increase: %v", versions)
		}
	}
}

// TestEngineInvariants drives random taps and time steps and checks the
// state invariants after every operation.
func TestEngineInvariants(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		e, sched := newTestEngine(WithRand(rand.New(rand.NewSource(seed))))
		e.Start()

		prev := e.Snapshot()
		hitSeen := make(map[TileID]bool)

		for step := 0; step < 2000; step++ {
			s := e.Snapshot()
			if rng.Intn(3) == 0 && len(s.Tiles) > 0 {
				tile := s.Tiles[rng.Intn(len(s.Tiles))]
				before := e.Snapshot().Score
				ok := e.Tap(tile.ID)
				after := e.Snapshot().Score
				if ok && after != before+1 {
					t.Fatalf("seed %d: successful tap changed score by %d", seed, after-before)
				}
				if !ok && after != before {
					t.Fatalf("seed %d: ignored tap changed score", seed)
				}
				if ok && (tile.Hit || tile.Missed) {
					t.Fatalf("seed %d: tile %d scored twice or after miss", seed, tile.ID)
				}
			} else {
				sched.Advance(time.Duration(rng.Intn(40)) * time.Millisecond)
			}

			cur := e.Snapshot()
			if cur.Playing && cur.GameOver {
				t.Fatalf("seed %d: playing and game over at once", seed)
			}
			if cur.Score < prev.Score {
				t.Fatalf("seed %d: score decreased %d -> %d", seed, prev.Score, cur.Score)
			}
			for _, tile := range cur.Tiles {
				if hitSeen[tile.ID] && !tile.Hit {
					t.Fatalf("seed %d: tile %d lost its hit flag", seed, tile.ID)
				}
				if tile.Hit {
					hitSeen[tile.ID] = true
				}
				if tile.Hit && tile.Missed {
					t.Fatalf("seed %d: tile %d both hit and missed", seed, tile.ID)
				}
			}
			if cur.GameOver {
				if sched.Pending() != 0 {
					t.Fatalf("seed %d: tasks still pending after game over", seed)
				}
				break
			}
			prev = cur
		}
	}
}

func TestEngineRealtime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickInterval = time.Millisecond
	cfg.SpawnInterval = 20 * time.Millisecond
	cfg.ReplaceDelay = 2 * time.Millisecond
	cfg.FallStep = 5

	e := New(cfg, WithRand(rand.New(rand.NewSource(7))))
	defer e.Close()
	e.Start()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		s := e.Snapshot()
		if s.Playing && s.GameOver {
			t.Fatal("playing and game over at once")
		}
		if s.GameOver {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("untouched tiles should end the round")
}
