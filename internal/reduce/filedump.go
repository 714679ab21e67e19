package reduce

import (
	"fmt"
	"strings"

	"github.com/joestump/agr/internal/asciicast"
)

// FileDumpFilter detects runs of more than maxBurstLines consecutive
// mostly-uniform output lines (the telltale shape of a `cat`/build-log
// dump) and replaces the middle of the run with a single placeholder,
// keeping the first and last line of the run as anchors.
type FileDumpFilter struct {
	maxBurstLines   int
	BurstsCollapsed int
}

// NewFileDumpFilter builds a filter collapsing uniform runs longer than
// maxBurstLines lines.
func NewFileDumpFilter(maxBurstLines int) *FileDumpFilter {
	return &FileDumpFilter{maxBurstLines: maxBurstLines}
}

// isUniformLine reports whether a line looks like dump content rather than
// narrative text: mostly the same handful of structural characters
// repeated (e.g. table borders, hex dumps, identical log prefixes).
func isUniformLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 4 {
		return false
	}
	counts := make(map[rune]int)
	for _, r := range trimmed {
		counts[r]++
	}
	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	return float64(maxCount)/float64(len(trimmed)) >= 0.4
}

func (f *FileDumpFilter) collapseBurst(data string) string {
	lines := splitInclusiveNewline(data)

	var out strings.Builder
	i := 0
	for i < len(lines) {
		if !isUniformLine(lines[i]) {
			out.WriteString(lines[i])
			i++
			continue
		}

		j := i
		for j < len(lines) && isUniformLine(lines[j]) {
			j++
		}
		runLen := j - i

		if runLen > f.maxBurstLines {
			f.BurstsCollapsed++
			out.WriteString(lines[i])
			out.WriteString(fmt.Sprintf("[... %d similar lines omitted ...]\n", runLen-2))
			out.WriteString(lines[j-1])
		} else {
			for k := i; k < j; k++ {
				out.WriteString(lines[k])
			}
		}
		i = j
	}

	return out.String()
}

// Apply implements asciicast.Transform.
func (f *FileDumpFilter) Apply(events []asciicast.Event) []asciicast.Event {
	out := make([]asciicast.Event, len(events))
	for i, e := range events {
		if e.IsOutput() {
			e.Data = f.collapseBurst(e.Data)
		}
		out[i] = e
	}
	return out
}
