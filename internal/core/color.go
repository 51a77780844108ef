package core

// Color is the foreground colour of a screen cell.
// The platform layer maps each value to an ANSI 256-colour style.
type Color uint8

// Palette used by the world renderer and the status widgets.
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
	ColorBrightGreen
	ColorBrightYellow
	ColorBrightBlue
	ColorBrightCyan
	ColorBrightWhite
	ColorOrange
	ColorGray
	ColorBrown
	ColorDim
)
