package reduce

import (
	"strings"

	"github.com/joestump/agr/internal/asciicast"
)

// WindowedLineDeduplicator keeps a sliding window over the last N distinct
// lines emitted. When an identical (trimmed) line reappears within the
// window, the earlier occurrence is superseded: its content is cleared
// (time conserved, carried forward per the cleaner/filter convention) and
// the new occurrence is kept. Newer overrides older, tuned for
// live-updating status lines that get reprinted verbatim at different
// points in the stream.
type WindowedLineDeduplicator struct {
	windowSize int

	// TotalDeduped counts superseded (emptied) earlier occurrences.
	TotalDeduped int
}

// NewWindowedLineDeduplicator builds a deduplicator with the given window
// size (number of distinct lines tracked before the oldest falls out).
func NewWindowedLineDeduplicator(windowSize int) *WindowedLineDeduplicator {
	return &WindowedLineDeduplicator{windowSize: windowSize}
}

// Apply implements asciicast.Transform.
func (w *WindowedLineDeduplicator) Apply(events []asciicast.Event) []asciicast.Event {
	output := make([]asciicast.Event, 0, len(events))
	indexOf := make(map[string]int)
	var windowOrder []string

	for _, e := range events {
		if !e.IsOutput() {
			output = append(output, e)
			continue
		}

		lines := splitInclusiveNewline(e.Data)
		if len(lines) == 0 {
			output = append(output, e)
			continue
		}
		for i, line := range lines {
			var t float64
			if i == len(lines)-1 {
				t = e.Time
			}

			key := strings.TrimSpace(line)
			if key == "" {
				output = append(output, asciicast.NewOutput(t, line))
				continue
			}

			if prevIdx, seen := indexOf[key]; seen {
				// Supersede the earlier occurrence: drop its content but keep
				// its time slot, so total duration is unaffected.
				output[prevIdx].Data = ""
				w.TotalDeduped++
			} else {
				windowOrder = append(windowOrder, key)
				if len(windowOrder) > w.windowSize {
					oldest := windowOrder[0]
					windowOrder = windowOrder[1:]
					delete(indexOf, oldest)
				}
			}

			output = append(output, asciicast.NewOutput(t, line))
			indexOf[key] = len(output) - 1
		}
	}

	return output
}
