package reduce

import (
	"strings"

	"github.com/joestump/agr/internal/asciicast"
)

// NormalizeWhitespace collapses runs of spaces/tabs to a single space and
// caps consecutive newlines at a configurable maximum.
type NormalizeWhitespace struct {
	maxConsecutiveNewlines int
}

// NewNormalizeWhitespace builds a normalizer with the given newline cap.
func NewNormalizeWhitespace(maxConsecutiveNewlines int) *NormalizeWhitespace {
	return &NormalizeWhitespace{maxConsecutiveNewlines: maxConsecutiveNewlines}
}

// Apply implements asciicast.Transform.
func (n *NormalizeWhitespace) Apply(events []asciicast.Event) []asciicast.Event {
	out := make([]asciicast.Event, len(events))
	for i, e := range events {
		if e.IsOutput() {
			e.Data = n.normalize(e.Data)
		}
		out[i] = e
	}
	return out
}

func (n *NormalizeWhitespace) normalize(data string) string {
	var result strings.Builder
	result.Grow(len(data))
	prevSpace := false
	newlineCount := 0

	for _, c := range data {
		switch {
		case c == '\n':
			newlineCount++
			if newlineCount <= n.maxConsecutiveNewlines {
				result.WriteRune(c)
			}
			prevSpace = false
		case c == ' ' || c == '\t':
			newlineCount = 0
			if !prevSpace {
				result.WriteByte(' ')
				prevSpace = true
			}
		default:
			newlineCount = 0
			prevSpace = false
			result.WriteRune(c)
		}
	}
	return result.String()
}

// FilterEmptyEvents drops output events whose data is whitespace-only,
// carrying the dropped interval forward onto the next retained event.
type FilterEmptyEvents struct{}

// Apply implements asciicast.Transform.
func (FilterEmptyEvents) Apply(events []asciicast.Event) []asciicast.Event {
	output := make([]asciicast.Event, 0, len(events))
	var accumulated float64

	for _, e := range events {
		if !e.IsOutput() {
			e.Time += accumulated
			accumulated = 0
			output = append(output, e)
			continue
		}
		if strings.TrimSpace(e.Data) != "" {
			e.Time += accumulated
			accumulated = 0
			output = append(output, e)
		} else {
			accumulated += e.Time
		}
	}
	return output
}
