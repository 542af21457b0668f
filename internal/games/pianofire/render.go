package pianofire

import (
	"fmt"
	"math"

	"github.com/vovakirdan/piano-fire/internal/core"
	"github.com/vovakirdan/piano-fire/internal/tiles"
)

// Visual characters for rendering
const (
	TileChar     = '█'
	HitTileChar  = '░'
	MissTileChar = '▓'
	RingChar     = '◯'
	LaneSepChar  = '│'
	BaseChar     = '═'
)

// LaneKeys labels the lanes under the field.
var LaneKeys = [tiles.Columns]string{"D", "F", "J", "K"}

const (
	minLaneW = 3
	maxLaneW = 10
)

// Layout maps field percentages to screen cells. Row 0 holds the HUD and the
// last row the lane keys; the field fills the rows between.
type Layout struct {
	X, Y   int // Top-left cell of the field
	LaneW  int // Width of one lane, separators excluded
	FieldH int // Field height in rows
	field  tiles.Field
}

// NewLayout centres the four lanes on a w x h screen.
func NewLayout(w, h int, field tiles.Field) Layout {
	laneW := core.Clamp((w-(tiles.Columns+1))/tiles.Columns, minLaneW, maxLaneW)
	fieldW := laneW*tiles.Columns + tiles.Columns + 1
	return Layout{
		X:      max((w-fieldW)/2, 0),
		Y:      1,
		LaneW:  laneW,
		FieldH: max(h-3, 1),
		field:  field,
	}
}

// Width returns the field width including separators.
func (l Layout) Width() int {
	return l.LaneW*tiles.Columns + tiles.Columns + 1
}

// LaneX returns the first cell of a lane.
func (l Layout) LaneX(column int) int {
	return l.X + 1 + column*(l.LaneW+1)
}

// row converts a field position to a screen row.
func (l Layout) row(position float64) int {
	return l.Y + int(math.Floor(position*float64(l.FieldH)/100))
}

// TileRect returns the screen cells a tile covers, clipped to the field.
// The rect is empty when the tile is outside the field.
func (l Layout) TileRect(t tiles.Tile) core.Rect {
	top := l.row(t.Position)
	bottom := l.row(t.Position + l.field.TileHeight)
	if bottom <= top {
		bottom = top + 1
	}
	top = max(top, l.Y)
	bottom = min(bottom, l.Y+l.FieldH)
	if bottom <= top {
		return core.Rect{}
	}
	return core.NewRect(l.LaneX(t.Column), top, l.LaneW, bottom-top)
}

// TileAt returns the tappable tile drawn at a screen cell.
func (l Layout) TileAt(s tiles.State, x, y int) (tiles.TileID, bool) {
	for _, t := range s.Tiles {
		if t.Hit || t.Missed {
			continue
		}
		if l.TileRect(t).Contains(x, y) {
			return t.ID, true
		}
	}
	return 0, false
}

// Render draws the lanes, tiles, HUD and overlays.
func (g *Game) Render(dst *core.Screen) {
	dst.Clear()
	w, h := dst.Width(), dst.Height()

	if w < 20 || h < 10 {
		dst.DrawTextCentered(h/2, "Terminal too small")
		return
	}
	if w != g.runtime.ScreenW || h != g.runtime.ScreenH {
		g.Resize(w, h)
	}
	l := g.layout

	// Lane separators and base line
	for col := 0; col <= tiles.Columns; col++ {
		dst.DrawVLine(l.X+col*(l.LaneW+1), l.Y, l.FieldH, LaneSepChar, core.ColorGray)
	}
	dst.DrawHLine(l.X, l.Y+l.FieldH, l.Width(), BaseChar, core.ColorGray)
	for col := range tiles.Columns {
		x := l.LaneX(col) + (l.LaneW-1)/2
		dst.DrawTextColored(x, l.Y+l.FieldH+1, LaneKeys[col], core.LaneColors[col])
	}

	for _, t := range g.state.Tiles {
		g.drawTile(dst, t)
	}

	g.drawHUD(dst)

	switch {
	case g.state.GameOver:
		drawCenteredMessage(dst, "GAME OVER", fmt.Sprintf("Score: %d  |  R to play again", g.state.Score))
	case !g.state.Playing:
		drawCenteredMessage(dst, g.Title(), "Press Enter to start")
	case g.paused:
		drawCenteredMessage(dst, "PAUSED", "Press P to resume")
	}
}

func (g *Game) drawTile(dst *core.Screen, t tiles.Tile) {
	if t.Missed {
		// Keep the missed tile on screen, resting on the base line
		f := g.layout.field
		t.Position = min(t.Position, f.HitWindow-f.TileHeight)
	}
	r := g.layout.TileRect(t)
	if r.W == 0 {
		return
	}

	switch {
	case t.Missed:
		dst.DrawRect(r, MissTileChar, core.ColorBrightRed)
	case t.Hit:
		dst.DrawRect(r, HitTileChar, core.ColorGray)
		if _, ok := g.rings[t.ID]; ok {
			cx, cy := r.Center()
			dst.SetColored(cx, cy, RingChar, core.ColorBrightYellow)
		}
	default:
		dst.DrawRect(r, TileChar, core.LaneColors[t.Column])
	}
}

func (g *Game) drawHUD(dst *core.Screen) {
	dst.DrawText(1, 0, fmt.Sprintf(" Score: %d ", g.state.Score))

	music := "♪"
	if g.muted {
		music = "muted (M)"
	}
	dst.DrawTextColored(dst.Width()-len([]rune(music))-1, 0, music, core.ColorCyan)
}

// drawCenteredMessage draws a message box in the center of the screen.
func drawCenteredMessage(dst *core.Screen, title, subtitle string) {
	w := dst.Width()
	h := dst.Height()

	boxW := max(len([]rune(title)), len([]rune(subtitle))) + 4
	boxH := 5
	boxX := (w - boxW) / 2
	boxY := (h - boxH) / 2

	dst.DrawRect(core.NewRect(boxX, boxY, boxW, boxH), ' ', core.ColorDefault)
	dst.DrawBox(core.NewRect(boxX, boxY, boxW, boxH))

	titleX := boxX + (boxW-len([]rune(title)))/2
	dst.DrawTextColored(titleX, boxY+1, title, core.ColorBrightYellow)

	subtitleX := boxX + (boxW-len([]rune(subtitle)))/2
	dst.DrawText(subtitleX, boxY+3, subtitle)
}
