package vt

import "strings"

// parserState tracks where Process is within an escape sequence, mirroring
// the state machine vibetunnel's AnsiParser drives over a byte stream.
type parserState int

const (
	stateNormal parserState = iota
	stateEscape
	stateCsi
	stateOsc
	stateOscEscape
)

// TerminalBuffer is a fixed-size grid of styled cells driven by a streaming
// ANSI parser: the subset of CSI/SGR/OSC/ESC behavior a recorded terminal
// session actually exercises.
type TerminalBuffer struct {
	width, height int
	grid          [][]Cell
	cursorRow     int
	cursorCol     int
	style         Style

	state      parserState
	csiParams  []int
	csiCur     string
	csiPrivate bool
}

// NewTerminalBuffer allocates a blank width x height buffer.
func NewTerminalBuffer(width, height int) *TerminalBuffer {
	tb := &TerminalBuffer{width: width, height: height}
	tb.grid = make([][]Cell, height)
	for i := range tb.grid {
		tb.grid[i] = blankRow(width)
	}
	return tb
}

func blankRow(width int) []Cell {
	row := make([]Cell, width)
	for i := range row {
		row[i] = blankCell()
	}
	return row
}

func (tb *TerminalBuffer) Width() int     { return tb.width }
func (tb *TerminalBuffer) Height() int    { return tb.height }
func (tb *TerminalBuffer) CursorRow() int { return tb.cursorRow }
func (tb *TerminalBuffer) CursorCol() int { return tb.cursorCol }

// Line returns a copy of row n's cells.
func (tb *TerminalBuffer) Line(n int) []Cell {
	out := make([]Cell, tb.width)
	copy(out, tb.grid[n])
	return out
}

// Process feeds data through the parser, updating the grid, cursor and
// style. scrollCB, if non-nil, is called once per scrolled-off row with
// that row's cells, in the order they scroll out.
func (tb *TerminalBuffer) Process(data string, scrollCB func([]Cell)) {
	for _, r := range data {
		tb.processRune(r, scrollCB)
	}
}

func (tb *TerminalBuffer) processRune(r rune, scrollCB func([]Cell)) {
	switch tb.state {
	case stateNormal:
		switch {
		case r == 0x1b:
			tb.state = stateEscape
		case r < 0x20 || r == 0x7f:
			tb.handleExecute(r, scrollCB)
		default:
			tb.handlePrint(r, scrollCB)
		}
	case stateEscape:
		switch r {
		case '[':
			tb.state = stateCsi
			tb.csiParams = nil
			tb.csiCur = ""
			tb.csiPrivate = false
		case ']':
			tb.state = stateOsc
		default:
			// Other single-character escape sequences (cursor save/restore,
			// charset selection, etc.) are consumed without effect.
			tb.state = stateNormal
		}
	case stateCsi:
		tb.feedCsi(r, scrollCB)
	case stateOsc:
		switch r {
		case 0x07: // BEL terminates OSC
			tb.state = stateNormal
		case 0x1b:
			tb.state = stateOscEscape
		}
	case stateOscEscape:
		if r == '\\' {
			tb.state = stateNormal
		} else {
			tb.state = stateOsc
		}
	}
}

func (tb *TerminalBuffer) feedCsi(r rune, scrollCB func([]Cell)) {
	switch {
	case r == '?' && tb.csiCur == "" && len(tb.csiParams) == 0:
		tb.csiPrivate = true
	case r >= '0' && r <= '9':
		tb.csiCur += string(r)
	case r == ';':
		tb.csiParams = append(tb.csiParams, parseCsiInt(tb.csiCur))
		tb.csiCur = ""
	case r >= 0x40 && r <= 0x7e:
		tb.csiParams = append(tb.csiParams, parseCsiInt(tb.csiCur))
		tb.csiCur = ""
		tb.handleCsi(r, tb.csiParams, scrollCB)
		tb.state = stateNormal
	default:
		// Intermediate bytes (e.g. space) are ignored.
	}
}

func parseCsiInt(s string) int {
	if s == "" {
		return 0
	}
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

// handlePrint places a printable rune at the cursor and advances it,
// wrapping and scrolling when it runs off the right edge.
func (tb *TerminalBuffer) handlePrint(r rune, scrollCB func([]Cell)) {
	if tb.cursorCol >= tb.width {
		tb.cursorCol = 0
		tb.newline(scrollCB)
	}
	tb.grid[tb.cursorRow][tb.cursorCol] = Cell{Char: r, Style: tb.style}
	tb.cursorCol++
}

func (tb *TerminalBuffer) handleExecute(r rune, scrollCB func([]Cell)) {
	switch r {
	case '\r':
		tb.cursorCol = 0
	case '\n':
		tb.newline(scrollCB)
	case '\b':
		if tb.cursorCol > 0 {
			tb.cursorCol--
		}
	case '\t':
		next := (tb.cursorCol/8 + 1) * 8
		if next >= tb.width {
			next = tb.width - 1
		}
		tb.cursorCol = next
	}
}

// newline advances the cursor to the next row, scrolling when it is
// already on the last row.
func (tb *TerminalBuffer) newline(scrollCB func([]Cell)) {
	if tb.cursorRow == tb.height-1 {
		tb.scrollUp(scrollCB)
		return
	}
	tb.cursorRow++
}

// scrollUp shifts every row up by one, reusing the evicted top row's
// backing array as the newly blanked bottom row instead of allocating a
// fresh grid on every scroll.
func (tb *TerminalBuffer) scrollUp(scrollCB func([]Cell)) {
	top := tb.grid[0]
	if scrollCB != nil {
		cp := make([]Cell, len(top))
		copy(cp, top)
		scrollCB(cp)
	}
	copy(tb.grid, tb.grid[1:])
	for i := range top {
		top[i] = blankCell()
	}
	tb.grid[tb.height-1] = top
}

func (tb *TerminalBuffer) handleCsi(final rune, params []int, scrollCB func([]Cell)) {
	param := func(i, def int) int {
		if i < len(params) && params[i] > 0 {
			return params[i]
		}
		return def
	}

	switch final {
	case 'A': // cursor up
		n := param(0, 1)
		tb.cursorRow -= n
		if tb.cursorRow < 0 {
			tb.cursorRow = 0
		}
	case 'B': // cursor down
		n := param(0, 1)
		tb.cursorRow += n
		if tb.cursorRow > tb.height-1 {
			tb.cursorRow = tb.height - 1
		}
	case 'C': // cursor forward
		n := param(0, 1)
		tb.cursorCol += n
		if tb.cursorCol > tb.width-1 {
			tb.cursorCol = tb.width - 1
		}
	case 'D': // cursor back
		n := param(0, 1)
		tb.cursorCol -= n
		if tb.cursorCol < 0 {
			tb.cursorCol = 0
		}
	case 'H', 'f': // cursor position, 1-based
		row := param(0, 1) - 1
		col := param(1, 1) - 1
		tb.cursorRow = clamp(row, 0, tb.height-1)
		tb.cursorCol = clamp(col, 0, tb.width-1)
	case 'J': // erase in display
		tb.eraseDisplay(param(0, 0))
	case 'K': // erase in line
		tb.eraseLine(param(0, 0))
	case 'm':
		tb.handleSGR(params)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (tb *TerminalBuffer) eraseDisplay(mode int) {
	switch mode {
	case 0:
		tb.eraseLine(0)
		for r := tb.cursorRow + 1; r < tb.height; r++ {
			tb.grid[r] = blankRow(tb.width)
		}
	case 1:
		tb.eraseLine(1)
		for r := 0; r < tb.cursorRow; r++ {
			tb.grid[r] = blankRow(tb.width)
		}
	case 2, 3:
		for r := range tb.grid {
			tb.grid[r] = blankRow(tb.width)
		}
	}
}

func (tb *TerminalBuffer) eraseLine(mode int) {
	row := tb.grid[tb.cursorRow]
	switch mode {
	case 0:
		for c := tb.cursorCol; c < tb.width; c++ {
			row[c] = blankCell()
		}
	case 1:
		for c := 0; c <= tb.cursorCol && c < tb.width; c++ {
			row[c] = blankCell()
		}
	case 2:
		for c := range row {
			row[c] = blankCell()
		}
	}
}

// handleSGR applies Select Graphic Rendition codes, including both the
// 256-color indexed form (38/48;5;n) and 24-bit truecolor (38/48;2;r;g;b).
func (tb *TerminalBuffer) handleSGR(params []int) {
	if len(params) == 0 {
		params = []int{0}
	}
	for i := 0; i < len(params); i++ {
		p := params[i]
		switch {
		case p == 0:
			tb.style = DefaultStyle
		case p == 1:
			tb.style.Bold = true
		case p == 2:
			tb.style.Dim = true
		case p == 3:
			tb.style.Italic = true
		case p == 4:
			tb.style.Underline = true
		case p == 22:
			tb.style.Bold = false
			tb.style.Dim = false
		case p == 23:
			tb.style.Italic = false
		case p == 24:
			tb.style.Underline = false
		case p >= 30 && p <= 37:
			tb.style.Fg = namedColor(uint8(p - 30))
		case p == 38:
			color, consumed := parseExtendedColor(params[i+1:])
			tb.style.Fg = color
			i += consumed
		case p == 39:
			tb.style.Fg = DefaultColor
		case p >= 40 && p <= 47:
			tb.style.Bg = namedColor(uint8(p - 40))
		case p == 48:
			color, consumed := parseExtendedColor(params[i+1:])
			tb.style.Bg = color
			i += consumed
		case p == 49:
			tb.style.Bg = DefaultColor
		case p >= 90 && p <= 97:
			tb.style.Fg = namedColor(uint8(p - 90 + 8))
		case p >= 100 && p <= 107:
			tb.style.Bg = namedColor(uint8(p - 100 + 8))
		}
	}
}

// parseExtendedColor reads the parameters following a 38 or 48 SGR code:
// either "5;n" (indexed) or "2;r;g;b" (RGB). It returns the resulting
// color and how many extra parameters were consumed.
func parseExtendedColor(rest []int) (Color, int) {
	if len(rest) == 0 {
		return DefaultColor, 0
	}
	switch rest[0] {
	case 5:
		if len(rest) < 2 {
			return DefaultColor, 1
		}
		return indexedColor(uint8(rest[1])), 2
	case 2:
		if len(rest) < 4 {
			return DefaultColor, len(rest)
		}
		return rgbColor(uint8(rest[1]), uint8(rest[2]), uint8(rest[3])), 4
	}
	return DefaultColor, 1
}

// Resize changes the grid dimensions, preserving as much existing content
// as fits and clamping the cursor to stay in bounds.
func (tb *TerminalBuffer) Resize(width, height int) {
	newGrid := make([][]Cell, height)
	for r := 0; r < height; r++ {
		row := blankRow(width)
		if r < len(tb.grid) {
			copy(row, tb.grid[r])
		}
		newGrid[r] = row
	}
	tb.grid = newGrid
	tb.width = width
	tb.height = height
	tb.cursorRow = clamp(tb.cursorRow, 0, height-1)
	tb.cursorCol = clamp(tb.cursorCol, 0, width-1)
}

// String renders the buffer as plain text: trailing whitespace trimmed
// from every line and trailing empty lines dropped.
func (tb *TerminalBuffer) String() string {
	lines := make([]string, tb.height)
	for r, row := range tb.grid {
		var sb strings.Builder
		for _, c := range row {
			sb.WriteRune(c.Char)
		}
		lines[r] = strings.TrimRight(sb.String(), " \t")
	}
	last := len(lines)
	for last > 0 && lines[last-1] == "" {
		last--
	}
	return strings.Join(lines[:last], "\n")
}

// StyledLines returns each row's cells with trailing default-styled blank
// cells trimmed.
func (tb *TerminalBuffer) StyledLines() [][]Cell {
	out := make([][]Cell, tb.height)
	for r, row := range tb.grid {
		end := len(row)
		for end > 0 && row[end-1].IsBlank() {
			end--
		}
		line := make([]Cell, end)
		copy(line, row[:end])
		out[r] = line
	}
	return out
}
