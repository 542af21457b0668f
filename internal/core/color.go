package core

// Color represents a foreground color for a screen cell.
// Uses ANSI 256-color codes for terminal compatibility.
type Color uint8

// Predefined colors for game elements.
const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorBrightRed
	ColorBrightYellow
	ColorBrightMagenta
	ColorSkyBlue  // Column 0
	ColorNavy     // Column 1
	ColorPink     // Column 2
	ColorPurple   // Column 3
	ColorGray
)

// LaneColors holds the tile color of each column, left to right.
var LaneColors = [4]Color{ColorSkyBlue, ColorNavy, ColorPink, ColorPurple}
