package reduce

import (
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/joestump/agr/internal/asciicast"
	"github.com/joestump/agr/internal/vt"
)

// maxStoryHashes bounds the story-hash set: each entry is an 8-byte hash,
// so the cap keeps memory for long sessions around 400KB.
const maxStoryHashes = 50_000

// noiseRewriteThreshold is the minimum number of writes to a terminal row
// before its content is classified as noise (spinners, progress bars,
// status lines that rewrite the same row repeatedly).
const noiseRewriteThreshold = 3

// TerminalTransform renders events through a virtual terminal and extracts
// a clean, deduplicated chronological "story" of the session: one output
// event per stable row, noisy rewrites and one-shot banners dropped.
type TerminalTransform struct {
	buffer *vt.TerminalBuffer

	stableLinesCount int
	lastCursorRow    int
	lastCursorCol    int

	storyHashes    map[uint64]struct{}
	storyHashOrder []uint64
	rowWriteCounts []int
}

// NewTerminalTransform creates a transform backed by a width x height
// virtual terminal.
func NewTerminalTransform(width, height int) *TerminalTransform {
	return &TerminalTransform{
		buffer:         vt.NewTerminalBuffer(width, height),
		storyHashes:    make(map[uint64]struct{}, maxStoryHashes),
		rowWriteCounts: make([]int, height),
	}
}

func (t *TerminalTransform) isNoisyRow(row int) bool {
	if row < 0 || row >= len(t.rowWriteCounts) {
		return false
	}
	return t.rowWriteCounts[row] >= noiseRewriteThreshold
}

// shiftRowCounts drops the first n row counters after n lines scroll off
// the top, then pads/truncates back to the buffer's current height.
func (t *TerminalTransform) shiftRowCounts(n int) {
	if n > len(t.rowWriteCounts) {
		n = len(t.rowWriteCounts)
	}
	t.rowWriteCounts = t.rowWriteCounts[n:]
	height := t.buffer.Height()
	for len(t.rowWriteCounts) < height {
		t.rowWriteCounts = append(t.rowWriteCounts, 0)
	}
	if len(t.rowWriteCounts) > height {
		t.rowWriteCounts = t.rowWriteCounts[:height]
	}
}

func hashLine(line string) uint64 {
	h := fnv.New64a()
	// Trim trailing whitespace so redraws with different padding hash
	// identically; leading whitespace (indentation) is preserved.
	h.Write([]byte(strings.TrimRight(line, " \t")))
	return h.Sum64()
}

// insertHash adds h to the bounded FIFO story-hash set, evicting the
// oldest entry once over capacity. Returns false if h was already present.
func (t *TerminalTransform) insertHash(h uint64) bool {
	if _, ok := t.storyHashes[h]; ok {
		return false
	}
	t.storyHashes[h] = struct{}{}
	t.storyHashOrder = append(t.storyHashOrder, h)
	for len(t.storyHashes) > maxStoryHashes {
		old := t.storyHashOrder[0]
		t.storyHashOrder = t.storyHashOrder[1:]
		delete(t.storyHashes, old)
	}
	return true
}

type taggedLine struct {
	line  string
	noisy bool
}

// filterNewLines applies both noise layers and hash dedup, returning the
// lines that survive.
func (t *TerminalTransform) filterNewLines(lines []taggedLine) []string {
	var result []string
	for _, tl := range lines {
		if tl.noisy {
			continue
		}
		if IsNoise(tl.line) {
			continue
		}
		if t.insertHash(hashLine(tl.line)) {
			result = append(result, tl.line)
		}
	}
	return result
}

// Apply implements asciicast.Transform.
func (t *TerminalTransform) Apply(events []asciicast.Event) []asciicast.Event {
	output := make([]asciicast.Event, 0, len(events))
	var accumulated float64

	for _, event := range events {
		switch event.Type {
		case asciicast.Output:
			var scrolledLines []string
			t.buffer.Process(event.Data, func(cells []vt.Cell) {
				var sb strings.Builder
				for _, c := range cells {
					sb.WriteRune(c.Char)
				}
				scrolledLines = append(scrolledLines, strings.TrimRight(sb.String(), " \t"))
			})
			accumulated += event.Time

			cursorRow := t.buffer.CursorRow()
			if cursorRow < len(t.rowWriteCounts) {
				t.rowWriteCounts[cursorRow]++
			}

			hadScroll := len(scrolledLines) > 0
			if hadScroll {
				tagged := make([]taggedLine, len(scrolledLines))
				for i, line := range scrolledLines {
					tagged[i] = taggedLine{line: line, noisy: t.isNoisyRow(i)}
				}
				t.shiftRowCounts(len(scrolledLines))

				if newLines := t.filterNewLines(tagged); len(newLines) > 0 {
					output = append(output, asciicast.NewOutput(accumulated, strings.Join(newLines, "\n")))
					accumulated = 0
				}
			}

			curRow, curCol := t.buffer.CursorRow(), t.buffer.CursorCol()
			cursorMoved := curRow != t.lastCursorRow || curCol != t.lastCursorCol
			hasNewline := strings.Contains(event.Data, "\n")
			longPause := event.Time > 2.0

			if cursorMoved || hadScroll || hasNewline || longPause {
				display := t.buffer.String()
				var currentLines []string
				if display != "" {
					currentLines = strings.Split(display, "\n")
				}

				var toEmit []taggedLine
				for t.stableLinesCount < curRow && t.stableLinesCount < len(currentLines) {
					row := t.stableLinesCount
					toEmit = append(toEmit, taggedLine{line: currentLines[row], noisy: t.isNoisyRow(row)})
					t.stableLinesCount++
				}

				isStable := hasNewline || curRow < t.lastCursorRow || longPause
				if isStable && curRow < len(currentLines) && t.stableLinesCount <= curRow {
					toEmit = append(toEmit, taggedLine{line: currentLines[curRow], noisy: t.isNoisyRow(curRow)})
					if hasNewline {
						t.stableLinesCount = curRow + 1
					}
				}

				if len(toEmit) > 0 {
					if newLines := t.filterNewLines(toEmit); len(newLines) > 0 {
						output = append(output, asciicast.NewOutput(accumulated, strings.Join(newLines, "\n")))
						accumulated = 0
					}
				}
			}

			t.lastCursorRow, t.lastCursorCol = curRow, curCol

		case asciicast.Resize:
			if w, h, ok := parseResize(event.Data); ok {
				t.buffer.Resize(w, h)
				for len(t.rowWriteCounts) < h {
					t.rowWriteCounts = append(t.rowWriteCounts, 0)
				}
				if len(t.rowWriteCounts) > h {
					t.rowWriteCounts = t.rowWriteCounts[:h]
				}
			}
			e := event
			e.Time += accumulated
			accumulated = 0
			output = append(output, e)

		default:
			e := event
			e.Time += accumulated
			accumulated = 0
			output = append(output, e)
		}
	}

	// Final flush: emit every remaining stable row.
	display := t.buffer.String()
	var currentLines []string
	if display != "" {
		currentLines = strings.Split(display, "\n")
	}
	var final []taggedLine
	for t.stableLinesCount < len(currentLines) {
		row := t.stableLinesCount
		final = append(final, taggedLine{
			line:  strings.TrimRight(currentLines[row], " \t"),
			noisy: t.isNoisyRow(row),
		})
		t.stableLinesCount++
	}
	if newLines := t.filterNewLines(final); len(newLines) > 0 {
		output = append(output, asciicast.NewOutput(accumulated, strings.Join(newLines, "\n")))
	} else if accumulated > 0 {
		// Nothing survived the filter but time still has to land somewhere.
		if len(output) > 0 {
			output[len(output)-1].Time += accumulated
		} else {
			output = append(output, asciicast.NewOutput(accumulated, ""))
		}
	}

	return output
}

// parseResize parses a "COLSxROWS" resize event payload.
func parseResize(data string) (width, height int, ok bool) {
	parts := strings.SplitN(data, "x", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return w, h, true
}
