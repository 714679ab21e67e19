// Package aggregate resolves per-chunk marker results into a single
// timeline: relative timestamps become absolute, invalid markers are
// dropped, and overlap-induced duplicates are collapsed.
package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joestump/agr/internal/backend"
	"github.com/joestump/agr/internal/chunk"
	"github.com/joestump/agr/internal/executor"
)

// dedupWindowPercent is the fraction of total recording duration markers of
// the same category must be apart to both survive deduplication.
const dedupWindowPercent = 0.02

// dedupWindowMinSecs floors the dedup window for short recordings.
const dedupWindowMinSecs = 5.0

// dedupWindowMaxSecs caps the dedup window for very long recordings.
const dedupWindowMaxSecs = 60.0

// ValidatedMarker is a marker after timestamp resolution and validation:
// an absolute timestamp and a label already carrying its category prefix.
type ValidatedMarker struct {
	Timestamp float64
	Label     string
	Category  backend.MarkerCategory
}

// FormatLabel renders a marker label in "[CATEGORY] description" form.
func FormatLabel(category backend.MarkerCategory, description string) string {
	return fmt.Sprintf("[%s] %s", category.Display(), description)
}

// FailedChunkInfo records why one chunk's analysis did not contribute
// markers.
type FailedChunkInfo struct {
	ChunkID chunk.AnalysisChunk
	Error   string
}

// Report summarizes what Aggregate did.
type Report struct {
	TotalCollected     int
	InvalidFiltered    int
	DuplicatesRemoved  int
	FinalCount         int
	FailedChunkDetails []FailedChunkInfo
}

// Aggregator collects chunk results into a deduplicated, validated,
// absolute-time marker timeline.
type Aggregator struct {
	dedupWindow  float64
	maxTimestamp float64
}

// New builds an Aggregator whose dedup window is derived from maxTimestamp
// (the recording's total duration): 2% of duration, floored at 5s and
// capped at 60s.
func New(maxTimestamp float64) *Aggregator {
	window := maxTimestamp * dedupWindowPercent
	if window < dedupWindowMinSecs {
		window = dedupWindowMinSecs
	}
	if window > dedupWindowMaxSecs {
		window = dedupWindowMaxSecs
	}
	return &Aggregator{dedupWindow: window, maxTimestamp: maxTimestamp}
}

// WithDedupWindow overrides the computed dedup window and returns the
// aggregator for chaining.
func (a *Aggregator) WithDedupWindow(window float64) *Aggregator {
	a.dedupWindow = window
	return a
}

// Aggregate resolves, validates, sorts and deduplicates every marker from
// results, returning the final timeline plus a report of what happened
// along the way.
func (a *Aggregator) Aggregate(results []executor.ChunkResult) ([]ValidatedMarker, Report) {
	var report Report
	var all []ValidatedMarker

	for _, result := range results {
		if result.IsFailure() {
			report.FailedChunkDetails = append(report.FailedChunkDetails, FailedChunkInfo{
				ChunkID: result.ChunkID,
				Error:   result.Err.Error(),
			})
			continue
		}

		for _, raw := range result.Markers {
			report.TotalCollected++

			absoluteTS := ResolveTimestamp(result.ChunkID.TimeRange, raw.Timestamp)
			if !a.isValid(raw, absoluteTS) {
				report.InvalidFiltered++
				continue
			}

			label := FormatLabel(raw.Category, raw.Label)
			all = append(all, ValidatedMarker{Timestamp: absoluteTS, Label: label, Category: raw.Category})
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Timestamp < all[j].Timestamp })

	beforeDedup := len(all)
	deduped := a.deduplicate(all)
	report.DuplicatesRemoved = beforeDedup - len(deduped)
	report.FinalCount = len(deduped)

	return deduped, report
}

// isValid rejects markers with a blank label or a timestamp outside
// [0, maxTimestamp].
func (a *Aggregator) isValid(raw backend.RawMarker, absoluteTS float64) bool {
	if strings.TrimSpace(raw.Label) == "" {
		return false
	}
	if absoluteTS < 0.0 {
		return false
	}
	if absoluteTS > a.maxTimestamp {
		return false
	}
	return true
}

// deduplicate assumes markers is sorted by timestamp. Walking forward, a
// marker is dropped when it falls within the dedup window of the
// most-recently-kept marker AND shares its category; the earlier
// (first-occurring) marker always wins.
func (a *Aggregator) deduplicate(markers []ValidatedMarker) []ValidatedMarker {
	if len(markers) == 0 {
		return markers
	}

	result := make([]ValidatedMarker, 0, len(markers))
	result = append(result, markers[0])

	for _, marker := range markers[1:] {
		last := result[len(result)-1]
		diff := marker.Timestamp - last.Timestamp
		if diff < 0 {
			diff = -diff
		}
		if diff < a.dedupWindow && marker.Category == last.Category {
			continue
		}
		result = append(result, marker)
	}

	return result
}

// ResolveTimestamp converts a marker's chunk-relative timestamp to an
// absolute recording timestamp.
func ResolveTimestamp(timeRange chunk.TimeRange, relative float64) float64 {
	return timeRange.Start + relative
}
