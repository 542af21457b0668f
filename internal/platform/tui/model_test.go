package tui

import (
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/piano-fire/internal/core"
	"github.com/vovakirdan/piano-fire/internal/storage"
)

// scriptedGame ends its round after a fixed number of frames.
type scriptedGame struct {
	state     core.GameState
	frames    int
	endAfter  int
	lastInput core.InputFrame
	closed    bool
	resized   [2]int
}

func (g *scriptedGame) ID() string    { return "scripted" }
func (g *scriptedGame) Title() string { return "Scripted" }

func (g *scriptedGame) Reset(cfg core.RuntimeConfig) {
	g.state = core.GameState{}
	g.frames = 0
}

func (g *scriptedGame) Step(in core.InputFrame) core.StepResult {
	g.lastInput = core.InputFrame{Actions: map[core.Action]bool{}}
	for a, v := range in.Actions {
		g.lastInput.Actions[a] = v
	}
	g.lastInput.Clicks = append(g.lastInput.Clicks, in.Clicks...)

	if in.Has(core.ActionConfirm) && !g.state.Playing {
		g.state = core.GameState{Playing: true}
		g.frames = 0
	}
	if g.state.Playing {
		g.frames++
		g.state.Score = g.frames
		if g.frames >= g.endAfter {
			g.state.Playing = false
			g.state.GameOver = true
		}
	}
	return core.StepResult{State: g.state}
}

func (g *scriptedGame) Render(dst *core.Screen) {
	dst.Clear()
	dst.DrawText(0, 0, "scripted")
}

func (g *scriptedGame) State() core.GameState { return g.state }
func (g *scriptedGame) Close()                { g.closed = true }
func (g *scriptedGame) Resize(w, h int)       { g.resized = [2]int{w, h} }

func testConfig() core.RuntimeConfig {
	return core.RuntimeConfig{ScreenW: 40, ScreenH: 12, TickRate: 60, Seed: 1}
}

func step(t *testing.T, m GameModel, msg tea.Msg) GameModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(GameModel)
}

func TestGameModelForwardsInput(t *testing.T) {
	game := &scriptedGame{endAfter: 100}
	m := NewGameModel(game, nil, testConfig(), "ann")

	m = step(t, m, runeKey('j'))
	m = step(t, m, tea.MouseMsg{X: 4, Y: 6, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m = step(t, m, TickMsg{})

	if !game.lastInput.Has(core.ActionLane2) {
		t.Error("lane action was not forwarded")
	}
	if len(game.lastInput.Clicks) != 1 {
		t.Errorf("got %d clicks, want 1", len(game.lastInput.Clicks))
	}

	// Input is consumed by the frame
	m = step(t, m, TickMsg{})
	if game.lastInput.Has(core.ActionLane2) || len(game.lastInput.Clicks) != 0 {
		t.Error("input leaked into the next frame")
	}
	if !strings.Contains(m.View(), "scripted") {
		t.Error("View() did not render the game")
	}
}

func TestGameModelSavesScoreOncePerRound(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "scores.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	game := &scriptedGame{endAfter: 3}
	m := NewGameModel(game, store, testConfig(), "ann")

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	for range 6 {
		m = step(t, m, TickMsg{})
	}
	if !m.GameState().GameOver {
		t.Fatal("round should be over")
	}

	// Second round
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	for range 6 {
		m = step(t, m, TickMsg{})
	}

	scores, err := store.TopScores("scripted", 10)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("got %d saved rounds, want 2", len(scores))
	}
	for _, s := range scores {
		if s.Player != "ann" || s.Score != 3 {
			t.Errorf("saved %+v, want player ann with score 3", s)
		}
	}
}

func TestGameModelBackOnlyWhenIdle(t *testing.T) {
	game := &scriptedGame{endAfter: 100}
	m := NewGameModel(game, nil, testConfig(), "ann")

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = step(t, m, TickMsg{})
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.BackToMenu() {
		t.Fatal("back should be ignored while tiles are falling")
	}

	game.state = core.GameState{GameOver: true}
	m = step(t, m, TickMsg{})
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if !m.BackToMenu() {
		t.Fatal("back should leave after game over")
	}
	if !game.closed {
		t.Error("leaving should close the game")
	}
}

func TestGameModelQuitAndResize(t *testing.T) {
	game := &scriptedGame{endAfter: 100}
	m := NewGameModel(game, nil, testConfig(), "ann")

	m = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	if game.resized != [2]int{80, 30} {
		t.Errorf("game resized to %v, want [80 30]", game.resized)
	}

	next, cmd := m.Update(runeKey('q'))
	m = next.(GameModel)
	if !m.IsQuitting() || cmd == nil {
		t.Fatal("q should quit")
	}
	if !game.closed {
		t.Error("quitting should close the game")
	}
	if m.View() != "" {
		t.Error("View() should be empty after quit")
	}
}

func TestFrameInterval(t *testing.T) {
	if got := frameInterval(&scriptedGame{}, 50); got.Milliseconds() != 20 {
		t.Errorf("frameInterval(50 fps) = %v, want 20ms", got)
	}
	if got := frameInterval(&scriptedGame{}, 0); got.Milliseconds() != 16 {
		t.Errorf("frameInterval(0) = %v, want 60 fps", got)
	}
}
