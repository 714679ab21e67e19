// Package vt implements a minimal VT100/ANSI virtual terminal: a styled
// cell grid driven by a streaming byte-oriented parser, with cursor
// tracking, scrolling and resize.
package vt

// ColorKind distinguishes the four forms a terminal color can take.
type ColorKind int

const (
	ColorDefault ColorKind = iota
	ColorNamed
	ColorIndexed
	ColorRGB
)

// Color is a sum type over the four SGR color forms: the terminal default,
// one of the 16 basic/bright named colors, an indexed (256-color) value, or
// a direct RGB triple.
type Color struct {
	Kind    ColorKind
	Named   uint8 // 0-15 when Kind == ColorNamed
	Index   uint8 // 0-255 when Kind == ColorIndexed
	R, G, B uint8 // when Kind == ColorRGB
}

// DefaultColor is the terminal's default foreground/background.
var DefaultColor = Color{Kind: ColorDefault}

func namedColor(n uint8) Color   { return Color{Kind: ColorNamed, Named: n} }
func indexedColor(n uint8) Color { return Color{Kind: ColorIndexed, Index: n} }
func rgbColor(r, g, b uint8) Color {
	return Color{Kind: ColorRGB, R: r, G: g, B: b}
}

// Style is the SGR state applied to a printed cell.
type Style struct {
	Fg        Color
	Bg        Color
	Bold      bool
	Dim       bool
	Italic    bool
	Underline bool
}

// DefaultStyle is the reset SGR state.
var DefaultStyle = Style{Fg: DefaultColor, Bg: DefaultColor}

// Cell is a single grid position: a character and the style it was printed
// with.
type Cell struct {
	Char  rune
	Style Style
}

// blankCell is what erase operations and freshly scrolled-in rows are
// filled with.
func blankCell() Cell {
	return Cell{Char: ' ', Style: DefaultStyle}
}

// IsBlank reports whether the cell is a default-styled space, i.e. it
// carries no visible content.
func (c Cell) IsBlank() bool {
	return c.Char == ' ' && c.Style == DefaultStyle
}
