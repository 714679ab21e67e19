// Package chunk partitions extracted analysis content into token-bounded,
// time-overlapping units of work for the parallel executor (internal/executor).
package chunk

import (
	"github.com/google/uuid"

	"github.com/joestump/agr/internal/extract"
)

// TimeRange is an inclusive [Start, End] span of absolute recording time.
type TimeRange struct {
	Start float64
	End   float64
}

// NewTimeRange builds a TimeRange.
func NewTimeRange(start, end float64) TimeRange {
	return TimeRange{Start: start, End: end}
}

// Duration returns the span's length in seconds.
func (t TimeRange) Duration() float64 {
	return t.End - t.Start
}

// TokenBudget bounds how much content one backend invocation may receive.
// Values are static per agent, not per-recording.
type TokenBudget struct {
	MaxInputTokens       int
	TargetTokensPerChunk int
	OverheadTokens       int
}

// ClaudeTokenBudget is the token budget used for the Claude backend.
func ClaudeTokenBudget() TokenBudget {
	return TokenBudget{MaxInputTokens: 180_000, TargetTokensPerChunk: 50_000, OverheadTokens: 4_000}
}

// CodexTokenBudget is the token budget used for the Codex backend.
func CodexTokenBudget() TokenBudget {
	return TokenBudget{MaxInputTokens: 120_000, TargetTokensPerChunk: 40_000, OverheadTokens: 4_000}
}

// GeminiTokenBudget is the token budget used for the Gemini backend.
func GeminiTokenBudget() TokenBudget {
	return TokenBudget{MaxInputTokens: 900_000, TargetTokensPerChunk: 100_000, OverheadTokens: 6_000}
}

// effectiveMax returns the largest a chunk's estimated tokens may be.
func (b TokenBudget) effectiveMax() int {
	m := b.MaxInputTokens - b.OverheadTokens
	if m < 1 {
		m = 1
	}
	return m
}

// AnalysisChunk is one unit of work handed to the parallel executor: a
// contiguous (possibly overlap-extended) run of segments, the time range
// they cover, and their content materialised into a single prompt-ready
// string.
type AnalysisChunk struct {
	ID              uuid.UUID
	TimeRange       TimeRange
	Segments        []extract.AnalysisSegment
	EstimatedTokens int
	Content         string
}

// DefaultOverlapPercent is the fraction of total recording duration used as
// the overlap window (or the next chunk's first segment duration, if
// shorter). Trailing segments of the previous chunk that end within that
// window of the boundary are prepended whole to the next chunk, so the
// actual overlap can be longer than the window. The overlap lets the
// aggregator catch markers two chunks both detect near a boundary.
const DefaultOverlapPercent = 0.02

// Planner partitions AnalysisContent into AnalysisChunks under a
// TokenBudget.
type Planner struct {
	budget         TokenBudget
	overlapPercent float64
}

// NewPlanner builds a planner using the default overlap percentage.
func NewPlanner(budget TokenBudget) *Planner {
	return &Planner{budget: budget, overlapPercent: DefaultOverlapPercent}
}

// WithOverlapPercent overrides the default overlap percentage and returns
// the planner for chaining.
func (p *Planner) WithOverlapPercent(pct float64) *Planner {
	p.overlapPercent = pct
	return p
}

// Plan partitions content's segments into token-bounded chunks, then
// extends each chunk (after the first) backward to overlap the tail of its
// predecessor so the aggregator can dedupe markers the two chunks both
// detect.
func (p *Planner) Plan(content extract.AnalysisContent) []AnalysisChunk {
	groups := p.packSegments(content.Segments)
	if len(groups) == 0 {
		return nil
	}
	if len(groups) > 1 {
		p.applyOverlap(groups, content.TotalDuration)
	}

	chunks := make([]AnalysisChunk, len(groups))
	for i, g := range groups {
		chunks[i] = p.materialize(g)
	}
	return chunks
}

// packSegments greedily groups segments so each group's estimated tokens
// stay under the budget's effective max, aiming for (not capped below) the
// per-chunk target. Every segment lands in exactly one base group; overlap
// extension happens afterward.
func (p *Planner) packSegments(segments []extract.AnalysisSegment) [][]extract.AnalysisSegment {
	var groups [][]extract.AnalysisSegment
	effectiveMax := p.budget.effectiveMax()

	var current []extract.AnalysisSegment
	var currentTokens int
	for _, seg := range segments {
		if len(current) > 0 && currentTokens+seg.EstimatedTokens > effectiveMax {
			groups = append(groups, current)
			current = nil
			currentTokens = 0
		}
		current = append(current, seg)
		currentTokens += seg.EstimatedTokens
		if currentTokens >= p.budget.TargetTokensPerChunk {
			groups = append(groups, current)
			current = nil
			currentTokens = 0
		}
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// applyOverlap prepends trailing segments of each group's predecessor that
// fall within the overlap window, so analysis of the new chunk can
// rediscover markers near the seam.
func (p *Planner) applyOverlap(groups [][]extract.AnalysisSegment, totalDuration float64) {
	for i := 1; i < len(groups); i++ {
		if len(groups[i]) == 0 || len(groups[i-1]) == 0 {
			continue
		}
		boundary := groups[i][0].StartTime
		window := totalDuration * p.overlapPercent
		firstSegDuration := groups[i][0].EndTime - groups[i][0].StartTime
		if firstSegDuration < window {
			window = firstSegDuration
		}
		if window <= 0 {
			continue
		}

		prev := groups[i-1]
		var prepend []extract.AnalysisSegment
		for k := len(prev) - 1; k >= 0; k-- {
			s := prev[k]
			if boundary-s.EndTime > window {
				break
			}
			prepend = append([]extract.AnalysisSegment{s}, prepend...)
		}
		groups[i] = append(prepend, groups[i]...)
	}
}

// materialize builds an AnalysisChunk from a group of segments: union time
// range, summed token estimate and a prompt-ready content string (segments
// joined in order, each separated by a blank line).
func (p *Planner) materialize(segments []extract.AnalysisSegment) AnalysisChunk {
	var content string
	var tokens int
	start := segments[0].StartTime
	end := segments[0].EndTime
	for i, s := range segments {
		if i > 0 {
			content += "\n\n"
		}
		content += s.Content
		tokens += s.EstimatedTokens
		if s.StartTime < start {
			start = s.StartTime
		}
		if s.EndTime > end {
			end = s.EndTime
		}
	}
	return AnalysisChunk{
		ID:              uuid.New(),
		TimeRange:       NewTimeRange(start, end),
		Segments:        segments,
		EstimatedTokens: tokens,
		Content:         content,
	}
}
