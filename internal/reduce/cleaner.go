package reduce

import (
	"strings"

	"github.com/joestump/agr/internal/asciicast"
)

type ansiParseState int

const (
	ansiNormal ansiParseState = iota
	ansiEscape
	ansiCsi
	ansiCsiParams
	ansiOsc
	ansiOscEscape
)

// semanticChars are never stripped regardless of config: they help a
// downstream reader identify outcomes (checkmarks, warnings, etc).
var semanticChars = map[rune]struct{}{
	'✓': {}, // ✓
	'✔': {}, // ✔
	'✕': {}, // ✕
	'⚠': {}, // ⚠
	'ℹ': {}, // ℹ
	'☐': {}, // ☐
	'☑': {}, // ☑
}

// ContentCleaner is a single-pass byte-stream state machine that strips
// ANSI escape sequences, control characters and visual-only Unicode
// decoration from output event data, while always preserving the
// semantic-character allowlist.
type ContentCleaner struct {
	state      ansiParseState
	stripChars map[rune]struct{}

	AnsiStripped    int
	ControlStripped int
}

// NewContentCleaner builds a cleaner from the given extraction config.
func NewContentCleaner(cfg ExtractionConfig) *ContentCleaner {
	strip := make(map[rune]struct{})

	if cfg.StripBoxDrawing {
		for c := rune(0x2500); c <= 0x257F; c++ {
			if _, semantic := semanticChars[c]; !semantic {
				strip[c] = struct{}{}
			}
		}
		for c := rune(0x2580); c <= 0x259F; c++ {
			if _, semantic := semanticChars[c]; !semantic {
				strip[c] = struct{}{}
			}
		}
	}

	if cfg.StripSpinnerChars {
		for _, c := range []rune{0x273B, 0x2733, 0x2722, 0x2736, 0x273D} { // ✻ ✳ ✢ ✶ ✽
			strip[c] = struct{}{}
		}
		for _, c := range []rune{0x280B, 0x2819, 0x2839, 0x2838, 0x283C, 0x2834, 0x2826, 0x2827, 0x2807, 0x280F} { // ⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏
			strip[c] = struct{}{}
		}
		for _, c := range []rune{0x2022, 0x203A, 0x25E6, 0x22EE} { // • › ◦ ⋮
			strip[c] = struct{}{}
		}
	}

	if cfg.StripProgressBlocks {
		for _, c := range []rune{0x2588, 0x2591, 0x2592, 0x2593, 0x25BC, 0x25B2, 0x25CF, 0x25CB} { // █ ░ ▒ ▓ ▼ ▲ ● ○
			strip[c] = struct{}{}
		}
	}

	return &ContentCleaner{stripChars: strip}
}

// Clean strips ANSI/control/visual-noise from data and returns the result.
func (c *ContentCleaner) Clean(data string) string {
	var buf strings.Builder
	buf.Grow(len(data))

	for _, r := range data {
		switch c.state {
		case ansiNormal:
			if r == '\x1b' {
				c.state = ansiEscape
				c.AnsiStripped++
				continue
			}
			c.processNormalChar(&buf, r)

		case ansiEscape:
			switch {
			case r == '[':
				c.state = ansiCsi
			case r == ']':
				c.state = ansiOsc
			case isAsciiAlpha(r) || r == '(' || r == ')':
				c.state = ansiNormal
			default:
				c.state = ansiNormal
			}

		case ansiCsi, ansiCsiParams:
			switch {
			case isAsciiDigit(r) || r == ';' || r == '?' || r == '>' || r == '!':
				c.state = ansiCsiParams
			case isAsciiAlpha(r) || r == '@' || r == '`':
				c.state = ansiNormal
			default:
				c.state = ansiNormal
			}

		case ansiOsc:
			switch r {
			case '\x07':
				c.state = ansiNormal
			case '\x1b':
				c.state = ansiOscEscape
			}

		case ansiOscEscape:
			if r == '\\' {
				c.state = ansiNormal
			} else {
				c.state = ansiOsc
			}
		}
	}

	// An unterminated escape sequence at end-of-data doesn't carry state
	// into the next event.
	c.state = ansiNormal

	return buf.String()
}

func (c *ContentCleaner) processNormalChar(buf *strings.Builder, r rune) {
	if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
		c.ControlStripped++
		return
	}
	if r == 0x7f {
		c.ControlStripped++
		return
	}
	if r >= 0x80 && r <= 0x9F {
		c.ControlStripped++
		return
	}
	if _, semantic := semanticChars[r]; semantic {
		buf.WriteRune(r)
		return
	}
	if _, strip := c.stripChars[r]; strip {
		return
	}
	buf.WriteRune(r)
}

func isAsciiAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isAsciiDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// ResetStats zeroes the stripped-character counters.
func (c *ContentCleaner) ResetStats() {
	c.AnsiStripped = 0
	c.ControlStripped = 0
}

// Apply implements asciicast.Transform: every output event's data is run
// through Clean; all other events pass through unchanged.
func (c *ContentCleaner) Apply(events []asciicast.Event) []asciicast.Event {
	out := make([]asciicast.Event, len(events))
	for i, e := range events {
		if e.IsOutput() {
			e.Data = c.Clean(e.Data)
		}
		out[i] = e
	}
	return out
}
