package pianofire

import (
	"strings"
	"testing"

	"github.com/vovakirdan/piano-fire/internal/core"
	"github.com/vovakirdan/piano-fire/internal/registry"
	"github.com/vovakirdan/piano-fire/internal/tiles"
)

type fakeAudio struct {
	plays, pauses, blips int
}

func (a *fakeAudio) Play() error { a.plays++; return nil }
func (a *fakeAudio) Pause()      { a.pauses++ }
func (a *fakeAudio) Blip()       { a.blips++ }

func testRuntime() core.RuntimeConfig {
	return core.RuntimeConfig{ScreenW: 60, ScreenH: 30, TickRate: 60, Seed: 42}
}

// newTestGame isolates the game from any user config on the machine.
func newTestGame(t *testing.T, mode Mode) *Game {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	SetConfigPath("")
	SetDifficultyPreset("")
	t.Cleanup(func() {
		SetAudio(nil)
		SetDifficultyPreset("")
	})

	g := New(mode)
	g.Reset(testRuntime())
	t.Cleanup(g.Close)
	return g
}

func frame(actions ...core.Action) core.InputFrame {
	in := core.NewInputFrame()
	for _, a := range actions {
		in.Set(a)
	}
	return in
}

// stepUntil steps with empty input until cond holds, up to limit frames.
func stepUntil(g *Game, limit int, cond func(tiles.State) bool) int {
	for i := 1; i <= limit; i++ {
		g.Step(frame())
		if cond(g.Snapshot()) {
			return i
		}
	}
	return -1
}

func TestModesRegistered(t *testing.T) {
	for _, id := range []string{"classic", "rush"} {
		g, err := registry.Create(id)
		if err != nil {
			t.Fatalf("Create(%q): %v", id, err)
		}
		if g.ID() != id {
			t.Errorf("ID() = %q, expected %q", g.ID(), id)
		}
	}
}

func TestWaitsForConfirm(t *testing.T) {
	g := newTestGame(t, ModeClassic)

	for range 10 {
		g.Step(frame())
	}
	if st := g.State(); st.Playing || st.GameOver {
		t.Fatalf("round should not start without confirm, got %+v", st)
	}

	g.Step(frame(core.ActionConfirm))
	s := g.Snapshot()
	if !s.Playing || len(s.Tiles) != 1 {
		t.Fatalf("confirm should start a round with one tile, got playing=%v tiles=%d", s.Playing, len(s.Tiles))
	}
}

func TestUntappedTileEndsRound(t *testing.T) {
	g := newTestGame(t, ModeClassic)
	g.Step(frame(core.ActionConfirm))

	n := stepUntil(g, 300, func(s tiles.State) bool { return s.GameOver })
	if n != 125 {
		t.Fatalf("first tile should be missed after 125 frames, got %d", n)
	}
	st := g.State()
	if st.Playing || !st.GameOver || st.Score != 0 {
		t.Errorf("unexpected state after miss: %+v", st)
	}
}

func TestLaneTapScores(t *testing.T) {
	g := newTestGame(t, ModeClassic)
	g.Step(frame(core.ActionConfirm))

	// Let the first tile enter the field
	stepUntil(g, 50, func(s tiles.State) bool { return s.Tiles[0].Position > 0 })
	col := g.Snapshot().Tiles[0].Column

	res := g.Step(frame(core.LaneAction(col)))
	if res.State.Score != 1 {
		t.Fatalf("lane tap should score, score = %d", res.State.Score)
	}
	if _, ok := g.rings[g.Snapshot().Tiles[0].ID]; !ok {
		t.Error("hit tile should show a ring")
	}

	// Wrong lanes do nothing
	other := (col + 1) % tiles.Columns
	if res := g.Step(frame(core.LaneAction(other))); res.State.Score != 1 {
		t.Errorf("tap on an empty lane changed score to %d", res.State.Score)
	}
}

func TestClickScores(t *testing.T) {
	g := newTestGame(t, ModeClassic)
	g.Step(frame(core.ActionConfirm))
	stepUntil(g, 80, func(s tiles.State) bool { return s.Tiles[0].Position > 20 })

	r := g.layout.TileRect(g.Snapshot().Tiles[0])
	if r.W == 0 {
		t.Fatal("tile should be on screen")
	}
	x, y := r.Center()

	in := core.NewInputFrame()
	in.Click(x, y)
	if res := g.Step(in); res.State.Score != 1 {
		t.Errorf("click on a tile should score, score = %d", res.State.Score)
	}

	miss := core.NewInputFrame()
	miss.Click(0, 0)
	if res := g.Step(miss); res.State.Score != 1 {
		t.Errorf("click off the field changed score to %d", res.State.Score)
	}
}

func TestRestartAfterGameOver(t *testing.T) {
	g := newTestGame(t, ModeClassic)
	g.Step(frame(core.ActionConfirm))
	stepUntil(g, 300, func(s tiles.State) bool { return s.GameOver })
	over := g.Snapshot()

	g.Step(frame(core.ActionRestart))
	s := g.Snapshot()
	if !s.Playing || s.GameOver || s.Score != 0 || len(s.Tiles) != 1 {
		t.Fatalf("restart should begin a clean round, got %+v", s)
	}
	if s.Tiles[0].ID <= over.Tiles[len(over.Tiles)-1].ID {
		t.Error("tile ids should keep counting across restarts")
	}
}

func TestPauseFreezesTiles(t *testing.T) {
	g := newTestGame(t, ModeClassic)
	g.Step(frame(core.ActionConfirm))
	g.Step(frame())

	g.Step(frame(core.ActionPause))
	pos := g.Snapshot().Tiles[0].Position
	for range 20 {
		g.Step(frame())
	}
	if got := g.Snapshot().Tiles[0].Position; got != pos {
		t.Errorf("tile moved while paused: %v -> %v", pos, got)
	}
	if !g.State().Paused {
		t.Error("State should report paused")
	}

	g.Step(frame(core.ActionPause))
	g.Step(frame())
	if got := g.Snapshot().Tiles[0].Position; got <= pos {
		t.Error("tiles should fall again after resuming")
	}
}

func TestMuteAndMusic(t *testing.T) {
	a := &fakeAudio{}
	SetAudio(a)
	g := newTestGame(t, ModeClassic)

	g.Step(frame(core.ActionConfirm))
	if a.plays != 1 {
		t.Fatalf("music should start with the round, plays = %d", a.plays)
	}

	g.Step(frame(core.ActionMute))
	if !g.Muted() || a.pauses == 0 {
		t.Error("mute should pause the music")
	}

	stepUntil(g, 50, func(s tiles.State) bool { return s.Tiles[0].Position > 0 })
	g.Step(frame(core.LaneAction(g.Snapshot().Tiles[0].Column)))
	if a.blips != 0 {
		t.Error("no hit sound while muted")
	}

	g.Step(frame(core.ActionMute))
	if g.Muted() || a.plays != 2 {
		t.Errorf("unmute during a round should resume music, plays = %d", a.plays)
	}
}

func TestRushFallsFasterOnHard(t *testing.T) {
	classic := newTestGame(t, ModeClassic)
	classic.Step(frame(core.ActionConfirm))
	classicFrames := stepUntil(classic, 300, func(s tiles.State) bool { return s.GameOver })

	SetDifficultyPreset("hard")
	rush := New(ModeRush)
	rush.Reset(testRuntime())
	t.Cleanup(rush.Close)
	rush.Step(frame(core.ActionConfirm))
	rushFrames := stepUntil(rush, 300, func(s tiles.State) bool { return s.GameOver })

	if rushFrames <= 0 || rushFrames >= classicFrames {
		t.Errorf("rush on hard should miss sooner: rush=%d classic=%d", rushFrames, classicFrames)
	}
}

func TestDeterministicColumns(t *testing.T) {
	columns := func() []int {
		g := newTestGame(t, ModeClassic)
		g.Step(frame(core.ActionConfirm))
		var cols []int
		for range 3 {
			stepUntil(g, 50, func(s tiles.State) bool { return s.Tiles[len(s.Tiles)-1].Position > 0 })
			s := g.Snapshot()
			last := s.Tiles[len(s.Tiles)-1]
			cols = append(cols, last.Column)
			g.Step(frame(core.LaneAction(last.Column)))
			// Replacement spawn after 100ms
			stepUntil(g, 20, func(s tiles.State) bool { return s.Tiles[len(s.Tiles)-1].ID != last.ID })
		}
		return cols
	}

	a, b := columns(), columns()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different columns: %v vs %v", a, b)
		}
	}
}

func TestRenderOverlays(t *testing.T) {
	g := newTestGame(t, ModeClassic)
	rt := testRuntime()
	screen := core.NewScreen(rt.ScreenW, rt.ScreenH)

	g.Render(screen)
	if !strings.Contains(screen.String(), "Press Enter to start") {
		t.Error("start overlay missing")
	}

	g.Step(frame(core.ActionConfirm))
	stepUntil(g, 80, func(s tiles.State) bool { return s.Tiles[0].Position > 30 })
	g.Render(screen)
	out := screen.String()
	if !strings.ContainsRune(out, TileChar) {
		t.Error("falling tile should be drawn")
	}
	if !strings.Contains(out, "Score: 0") {
		t.Error("HUD should show the score")
	}

	stepUntil(g, 300, func(s tiles.State) bool { return s.GameOver })
	g.Render(screen)
	out = screen.String()
	if !strings.Contains(out, "GAME OVER") || !strings.ContainsRune(out, MissTileChar) {
		t.Error("game over should show the overlay and the missed tile")
	}
}

func TestLayoutTileRect(t *testing.T) {
	l := NewLayout(60, 23, tiles.DefaultField())
	if l.FieldH != 20 {
		t.Fatalf("FieldH = %d, expected 20", l.FieldH)
	}

	tests := []struct {
		name    string
		pos     float64
		wantY   int
		wantH   int
		visible bool
	}{
		{"above field", -25, 0, 0, false},
		{"entering", -10, 1, 3, true},
		{"middle", 50, 11, 5, true},
		{"leaving", 90, 19, 2, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := l.TileRect(tiles.Tile{Column: 2, Position: tc.pos})
			if (r.W > 0) != tc.visible {
				t.Fatalf("visible = %v, expected %v", r.W > 0, tc.visible)
			}
			if !tc.visible {
				return
			}
			if r.Y != tc.wantY || r.H != tc.wantH {
				t.Errorf("rect = %+v, expected y=%d h=%d", r, tc.wantY, tc.wantH)
			}
			if r.X != l.LaneX(2) || r.W != l.LaneW {
				t.Errorf("rect x/w = %d/%d, expected %d/%d", r.X, r.W, l.LaneX(2), l.LaneW)
			}
		})
	}
}
