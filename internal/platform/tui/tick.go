// Package tui provides the Bubble Tea frontends: the local terminal game,
// the mode menu, the scoreboard and the SSH server.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg is sent to trigger one game frame.
type TickMsg time.Time

// tickCmd returns a Bubble Tea command that sends a tick after interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// frameInterval returns the real-time length of one frame. Games that
// declare a tick interval run at it, so one frame is one engine tick;
// otherwise the frame rate decides.
func frameInterval(game any, fps int) time.Duration {
	if g, ok := game.(interface{ TickInterval() time.Duration }); ok {
		if d := g.TickInterval(); d > 0 {
			return d
		}
	}
	if fps <= 0 {
		fps = 60
	}
	return time.Second / time.Duration(fps)
}
