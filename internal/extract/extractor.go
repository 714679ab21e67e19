package extract

import (
	"github.com/joestump/agr/internal/asciicast"
	"github.com/joestump/agr/internal/reduce"
)

// ContentExtractor coordinates the reduce transform pipeline and turns the
// cleaned event stream into AnalysisSegments.
type ContentExtractor struct {
	config reduce.ExtractionConfig
}

// NewContentExtractor builds an extractor from the given config.
func NewContentExtractor(config reduce.ExtractionConfig) *ContentExtractor {
	return &ContentExtractor{config: config}
}

// Extract applies the transform pipeline to events (in place, via
// reassignment) and produces analysis segments sized for a cols x rows
// terminal.
func (x *ContentExtractor) Extract(events []asciicast.Event, cols, rows int) AnalysisContent {
	originalBytes := 0
	for _, e := range events {
		originalBytes += len(e.Data)
	}
	originalCount := len(events)

	events, stats := x.applyTransforms(events, cols, rows, originalBytes, originalCount)

	redistributeTime(events, x.config.SegmentTimeGap)

	return x.createSegments(events, stats)
}

// applyTransforms runs the fixed pipeline order, skipping stages gated
// off by config.
func (x *ContentExtractor) applyTransforms(events []asciicast.Event, cols, rows, originalBytes, originalCount int) ([]asciicast.Event, ExtractionStats) {
	termTransform := reduce.NewTerminalTransform(cols, rows)
	events = termTransform.Apply(events)

	windowed := reduce.NewWindowedLineDeduplicator(x.config.WindowSize)
	events = windowed.Apply(events)

	cleaner := reduce.NewContentCleaner(x.config)
	events = cleaner.Apply(events)

	events = (reduce.FilterEmptyEvents{}).Apply(events)

	eventsCoalesced := 0
	if x.config.CoalesceEvents {
		coalescer := reduce.NewEventCoalescer(x.config.SimilarityThreshold, x.config.CoalesceTimeThreshold)
		events = coalescer.Apply(events)
		eventsCoalesced = coalescer.Coalesced
	}

	globalDeduper := reduce.NewGlobalDeduplicator(x.config.MaxLineRepeats, x.config.WindowSize)
	events = globalDeduper.Apply(events)

	fileDumpFilter := reduce.NewFileDumpFilter(x.config.MaxBurstLines)
	events = fileDumpFilter.Apply(events)

	linesCollapsed := 0
	if x.config.CollapseSimilarLines {
		simFilter := reduce.NewSimilarityFilter(x.config.SimilarityThreshold)
		events = simFilter.Apply(events)
		linesCollapsed = simFilter.TotalCollapsed
	}

	blocksTruncated := 0
	if x.config.TruncateLargeBlocks {
		truncator := reduce.NewBlockTruncator(x.config.MaxBlockSize, x.config.ContextLines)
		events = truncator.Apply(events)
		blocksTruncated = truncator.TotalTruncated
	}

	if x.config.NormalizeWhitespace {
		normalizer := reduce.NewNormalizeWhitespace(x.config.MaxConsecutiveNewlines)
		events = normalizer.Apply(events)
	}
	events = (reduce.FilterEmptyEvents{}).Apply(events)

	extractedBytes := 0
	for _, e := range events {
		extractedBytes += len(e.Data)
	}

	stats := ExtractionStats{
		OriginalBytes:        originalBytes,
		ExtractedBytes:       extractedBytes,
		AnsiStripped:         cleaner.AnsiStripped,
		ControlStripped:      cleaner.ControlStripped,
		EventsCoalesced:      eventsCoalesced,
		GlobalLinesDeduped:   globalDeduper.TotalDedupedLines,
		WindowEventsDeduped:  globalDeduper.TotalDedupedEvents,
		WindowedLinesDeduped: windowed.TotalDeduped,
		LinesCollapsed:       linesCollapsed,
		BlocksTruncated:      blocksTruncated,
		BurstsCollapsed:      fileDumpFilter.BurstsCollapsed,
		EventsProcessed:      originalCount,
		EventsRetained:       len(events),
	}
	return events, stats
}

// redistributeTime compensates for the accumulator-on-drop behaviour of
// upstream transforms: caps each output event's interval at maxGap and
// spreads the excess across the remaining, uncapped output events so a
// handful of filtered-out bursts don't collapse into one huge synthetic
// gap that distorts segmentation.
func redistributeTime(events []asciicast.Event, maxGap float64) {
	var excess float64
	normalOutputCount := 0

	for i := range events {
		if !events[i].IsOutput() {
			continue
		}
		if events[i].Time > maxGap {
			excess += events[i].Time - maxGap
		} else {
			normalOutputCount++
		}
	}

	if excess <= 0 {
		return
	}

	var bonus float64
	if normalOutputCount > 0 {
		bonus = excess / float64(normalOutputCount)
	}

	for i := range events {
		if !events[i].IsOutput() {
			continue
		}
		if events[i].Time > maxGap {
			events[i].Time = maxGap
		} else {
			events[i].Time += bonus
		}
	}

	if normalOutputCount == 0 && len(events) > 0 {
		events[len(events)-1].Time += excess
	}
}

// createSegments walks the cleaned events accumulating interval time and
// starts a new segment whenever the gap since the last event exceeds the
// configured threshold and the in-progress segment already has content.
func (x *ContentExtractor) createSegments(events []asciicast.Event, stats ExtractionStats) AnalysisContent {
	estimator := TokenEstimator{}

	var segments []AnalysisSegment
	currentStart := 0
	var currentContent string
	var cumulativeTime, segmentStartTime float64

	for i, e := range events {
		gap := e.Time
		cumulativeTime += e.Time

		if gap > x.config.SegmentTimeGap && currentContent != "" {
			segments = append(segments, AnalysisSegment{
				StartTime:       segmentStartTime,
				EndTime:         cumulativeTime - gap,
				Content:         currentContent,
				EstimatedTokens: estimator.Estimate(currentContent),
				EventRange:      [2]int{currentStart, i},
			})
			currentContent = ""
			currentStart = i
			segmentStartTime = cumulativeTime
		}

		if e.IsOutput() {
			if currentContent == "" {
				segmentStartTime = cumulativeTime
			}
			currentContent += e.Data
		}
	}

	if currentContent != "" {
		segments = append(segments, AnalysisSegment{
			StartTime:       segmentStartTime,
			EndTime:         cumulativeTime,
			Content:         currentContent,
			EstimatedTokens: estimator.Estimate(currentContent),
			EventRange:      [2]int{currentStart, len(events)},
		})
	}

	totalTokens := 0
	for _, s := range segments {
		totalTokens += s.EstimatedTokens
	}

	return AnalysisContent{
		Segments:      segments,
		TotalDuration: cumulativeTime,
		TotalTokens:   totalTokens,
		Stats:         stats,
	}
}
