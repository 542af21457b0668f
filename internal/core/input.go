package core

// Action represents a semantic game action, abstracted from physical key presses.
type Action int

const (
	ActionNone    Action = iota
	ActionLane0          // D, 1 - tap the first column
	ActionLane1          // F, 2
	ActionLane2          // J, 3
	ActionLane3          // K, 4
	ActionConfirm        // Enter - start a round
	ActionBack           // B, Escape - go back to menu
	ActionRestart        // R - play again after game over
	ActionQuit           // Q, Ctrl+C - exit
	ActionPause          // P - pause/unpause
	ActionMute           // M - toggle background music
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionLane0, ActionLane1, ActionLane2, ActionLane3:
		return "Lane" + string(rune('0'+int(a-ActionLane0)))
	case ActionConfirm:
		return "Confirm"
	case ActionBack:
		return "Back"
	case ActionRestart:
		return "Restart"
	case ActionQuit:
		return "Quit"
	case ActionPause:
		return "Pause"
	case ActionMute:
		return "Mute"
	default:
		return "Unknown"
	}
}

// LaneAction returns the lane action for a column, or ActionNone if out of range.
func LaneAction(column int) Action {
	if column < 0 || column > 3 {
		return ActionNone
	}
	return ActionLane0 + Action(column)
}

// Lane returns the column targeted by a lane action.
func (a Action) Lane() (int, bool) {
	if a < ActionLane0 || a > ActionLane3 {
		return 0, false
	}
	return int(a - ActionLane0), true
}

// InputFrame collects the input of one simulation tick.
type InputFrame struct {
	// Actions maps action types to whether they were triggered this frame.
	Actions map[Action]bool

	// Clicks holds mouse presses in screen cells, in arrival order.
	Clicks []Point
}

// NewInputFrame creates an empty input frame.
func NewInputFrame() InputFrame {
	return InputFrame{
		Actions: make(map[Action]bool),
	}
}

// Set marks an action as triggered for this frame.
func (f *InputFrame) Set(a Action) {
	if f.Actions == nil {
		f.Actions = make(map[Action]bool)
	}
	f.Actions[a] = true
}

// Click records a mouse press at the given cell.
func (f *InputFrame) Click(x, y int) {
	f.Clicks = append(f.Clicks, Point{X: x, Y: y})
}

// Has returns true if the given action was triggered this frame.
func (f InputFrame) Has(a Action) bool {
	if f.Actions == nil {
		return false
	}
	return f.Actions[a]
}

// Clear resets all actions for the next frame.
func (f *InputFrame) Clear() {
	for k := range f.Actions {
		delete(f.Actions, k)
	}
	f.Clicks = f.Clicks[:0]
}
