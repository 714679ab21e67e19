package reduce

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/joestump/agr/internal/asciicast"
)

// splitInclusiveNewline splits s into pieces that each retain their
// trailing '\n', mirroring Rust's str::split_inclusive('\n').
func splitInclusiveNewline(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// calculateSimilarity scores two strings: 1.0 if identical, 0.0 if either
// is empty, else a blend of Jaccard similarity over their character sets
// (70%) and the ratio of their byte lengths (30%).
func calculateSimilarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}
	if s1 == "" || s2 == "" {
		return 0.0
	}

	set1 := make(map[rune]struct{})
	for _, r := range s1 {
		set1[r] = struct{}{}
	}
	set2 := make(map[rune]struct{})
	for _, r := range s2 {
		set2[r] = struct{}{}
	}

	intersection := 0
	for r := range set1 {
		if _, ok := set2[r]; ok {
			intersection++
		}
	}
	union := len(set1)
	for r := range set2 {
		if _, ok := set1[r]; !ok {
			union++
		}
	}
	if union == 0 {
		return 0.0
	}
	jaccard := float64(intersection) / float64(union)

	len1, len2 := len(s1), len(s2)
	minLen, maxLen := len1, len2
	if len2 < len1 {
		minLen, maxLen = len2, len1
	}
	lenRatio := float64(minLen) / float64(maxLen)

	return jaccard*0.7 + lenRatio*0.3
}

// SimilarityFilter collapses consecutive lines that are highly similar to
// the last kept line, replacing each collapsed run with a single
// placeholder when it ends.
type SimilarityFilter struct {
	threshold      float64
	lastLine       string
	hasLastLine    bool
	skipCount      int
	TotalCollapsed int
}

// NewSimilarityFilter builds a filter collapsing lines whose similarity to
// the previous kept line is at or above threshold.
func NewSimilarityFilter(threshold float64) *SimilarityFilter {
	return &SimilarityFilter{threshold: threshold}
}

func (s *SimilarityFilter) flushSkips() (string, bool) {
	if s.skipCount == 0 {
		return "", false
	}
	msg := fmt.Sprintf("\n[... collapsed %d similar lines ...]\n", s.skipCount)
	s.TotalCollapsed += s.skipCount
	s.skipCount = 0
	return msg, true
}

// Apply implements asciicast.Transform.
func (s *SimilarityFilter) Apply(events []asciicast.Event) []asciicast.Event {
	output := make([]asciicast.Event, 0, len(events))
	var accumulated float64

	for _, event := range events {
		if !event.IsOutput() {
			if msg, ok := s.flushSkips(); ok {
				output = append(output, asciicast.NewOutput(0.0, msg))
			}
			event.Time += accumulated
			accumulated = 0
			output = append(output, event)
			continue
		}

		var newData strings.Builder
		for _, line := range splitInclusiveNewline(event.Data) {
			trimmed := strings.TrimSpace(line)
			if len(trimmed) < 4 {
				newData.WriteString(line)
				continue
			}

			similarity := 0.0
			if s.hasLastLine {
				similarity = calculateSimilarity(s.lastLine, trimmed)
			}

			if similarity >= s.threshold {
				s.skipCount++
			} else {
				if msg, ok := s.flushSkips(); ok {
					newData.WriteString(msg)
				}
				newData.WriteString(line)
				s.lastLine = trimmed
				s.hasLastLine = true
			}
		}

		event.Data = newData.String()
		if event.Data != "" {
			event.Time += accumulated
			accumulated = 0
			output = append(output, event)
		} else {
			accumulated += event.Time
		}
	}

	if msg, ok := s.flushSkips(); ok {
		output = append(output, asciicast.NewOutput(accumulated, msg))
	} else if accumulated > 0 && len(output) > 0 {
		output[len(output)-1].Time += accumulated
	}
	return output
}

// BlockTruncator shrinks output events whose data exceeds a byte-size
// threshold, keeping context lines at the head and tail.
type BlockTruncator struct {
	maxSize        int
	contextLines   int
	TotalTruncated int
}

// NewBlockTruncator builds a truncator with the given max block size (in
// bytes) and lines of context to preserve at each end.
func NewBlockTruncator(maxSize, contextLines int) *BlockTruncator {
	return &BlockTruncator{maxSize: maxSize, contextLines: contextLines}
}

func (b *BlockTruncator) truncate(data string) string {
	if len(data) <= b.maxSize {
		return data
	}
	b.TotalTruncated++

	lines := splitInclusiveNewline(data)
	if len(lines) <= b.contextLines*2 {
		headLen := b.maxSize / 2
		runes := []rune(data)
		head := string(runes[:min(headLen, len(runes))])
		tailStart := len(runes) - min(headLen, len(runes))
		if tailStart < 0 {
			tailStart = 0
		}
		tail := string(runes[tailStart:])
		return fmt.Sprintf("%s\n\n[... truncated %d bytes ...]\n\n%s",
			head, len(data)-(len(head)+len(tail)), tail)
	}

	head := strings.Join(lines[:b.contextLines], "")
	tail := strings.Join(lines[len(lines)-b.contextLines:], "")
	return fmt.Sprintf("%s\n[... truncated %d lines ...]\n%s",
		head, len(lines)-(b.contextLines*2), tail)
}

// Apply implements asciicast.Transform.
func (b *BlockTruncator) Apply(events []asciicast.Event) []asciicast.Event {
	out := make([]asciicast.Event, len(events))
	for i, e := range events {
		if e.IsOutput() {
			e.Data = b.truncate(e.Data)
		}
		out[i] = e
	}
	return out
}

// EventCoalescer merges consecutive output events whose data is similar
// enough AND whose interval is small enough into a single event, summing
// their intervals. Used to absorb redraw frames that TerminalTransform
// didn't already collapse.
type EventCoalescer struct {
	threshold     float64
	timeThreshold float64
	lastEvent     *asciicast.Event
	Coalesced     int
}

// NewEventCoalescer builds a coalescer gated by a similarity threshold and
// a maximum interval for the later event.
func NewEventCoalescer(threshold, timeThreshold float64) *EventCoalescer {
	return &EventCoalescer{threshold: threshold, timeThreshold: timeThreshold}
}

// Apply implements asciicast.Transform.
func (c *EventCoalescer) Apply(events []asciicast.Event) []asciicast.Event {
	output := make([]asciicast.Event, 0, len(events))

	for _, event := range events {
		if !event.IsOutput() {
			if c.lastEvent != nil {
				output = append(output, *c.lastEvent)
				c.lastEvent = nil
			}
			output = append(output, event)
			continue
		}

		if c.lastEvent != nil {
			similarity := calculateSimilarity(c.lastEvent.Data, event.Data)
			if similarity >= c.threshold && event.Time <= c.timeThreshold {
				c.Coalesced++
				c.lastEvent.Data = event.Data
				c.lastEvent.Time += event.Time
			} else {
				output = append(output, *c.lastEvent)
				le := event
				c.lastEvent = &le
			}
		} else {
			le := event
			c.lastEvent = &le
		}
	}

	if c.lastEvent != nil {
		output = append(output, *c.lastEvent)
		c.lastEvent = nil
	}
	return output
}

// GlobalDeduplicator drops whole events that repeat a hash seen within a
// recent window (absorbing identical TUI redraw frames) and caps how many
// times any exact trimmed line may appear across the entire stream.
type GlobalDeduplicator struct {
	lineCounts         map[string]int
	maxLineRepeats     int
	eventHashes        []uint64
	windowSize         int
	TotalDedupedLines  int
	TotalDedupedEvents int
}

// NewGlobalDeduplicator builds a deduplicator with the given per-line
// repeat cap and event-hash window size.
func NewGlobalDeduplicator(maxLineRepeats, windowSize int) *GlobalDeduplicator {
	return &GlobalDeduplicator{
		lineCounts:     make(map[string]int),
		maxLineRepeats: maxLineRepeats,
		windowSize:     windowSize,
	}
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

func (g *GlobalDeduplicator) seenRecently(h uint64) bool {
	for _, existing := range g.eventHashes {
		if existing == h {
			return true
		}
	}
	return false
}

// Apply implements asciicast.Transform.
func (g *GlobalDeduplicator) Apply(events []asciicast.Event) []asciicast.Event {
	output := make([]asciicast.Event, 0, len(events))
	var accumulated float64

	for _, event := range events {
		if !event.IsOutput() {
			event.Time += accumulated
			accumulated = 0
			output = append(output, event)
			continue
		}

		h := hashString(event.Data)
		if g.seenRecently(h) {
			g.TotalDedupedEvents++
			accumulated += event.Time
			continue
		}
		g.eventHashes = append(g.eventHashes, h)
		if len(g.eventHashes) > g.windowSize {
			g.eventHashes = g.eventHashes[1:]
		}

		var newData strings.Builder
		for _, line := range splitInclusiveNewline(event.Data) {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				newData.WriteString(line)
				continue
			}
			count := g.lineCounts[trimmed]
			if count >= g.maxLineRepeats {
				g.TotalDedupedLines++
				continue
			}
			g.lineCounts[trimmed] = count + 1
			newData.WriteString(line)
		}

		if newData.Len() > 0 {
			event.Data = newData.String()
			event.Time += accumulated
			accumulated = 0
			output = append(output, event)
		} else {
			accumulated += event.Time
		}
	}

	if accumulated > 0 && len(output) > 0 {
		output[len(output)-1].Time += accumulated
	}
	return output
}
