package executor

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joestump/agr/internal/backend"
	"github.com/joestump/agr/internal/chunk"
)

// ChunkResult is the outcome of analyzing one chunk: either its markers or
// the backend error that stopped it.
type ChunkResult struct {
	ChunkID   chunk.AnalysisChunk // carries ID and TimeRange for the aggregator
	Markers   []backend.RawMarker
	Err       error
	succeeded bool
}

// NewSuccessResult builds a successful ChunkResult.
func NewSuccessResult(c chunk.AnalysisChunk, markers []backend.RawMarker) ChunkResult {
	return ChunkResult{ChunkID: c, Markers: markers, succeeded: true}
}

// NewFailureResult builds a failed ChunkResult.
func NewFailureResult(c chunk.AnalysisChunk, err error) ChunkResult {
	return ChunkResult{ChunkID: c, Err: err}
}

// IsSuccess reports whether this chunk's analysis succeeded.
func (r ChunkResult) IsSuccess() bool { return r.succeeded }

// IsFailure reports whether this chunk's analysis failed.
func (r ChunkResult) IsFailure() bool { return !r.succeeded }

// PromptBuilder renders a chunk into the prompt text sent to the backend.
type PromptBuilder func(c chunk.AnalysisChunk) string

// ParallelExecutor dispatches chunk analysis across a worker pool sized at
// construction time.
type ParallelExecutor struct {
	backend     backend.AgentBackend
	timeout     time.Duration
	workerCount int
	useSchema   bool
}

// NewParallelExecutor builds a ParallelExecutor.
func NewParallelExecutor(b backend.AgentBackend, timeout time.Duration, workerCount int, useSchema bool) *ParallelExecutor {
	return &ParallelExecutor{backend: b, timeout: timeout, workerCount: workerCount, useSchema: useSchema}
}

// Execute analyzes chunks, reporting progress as each completes.
//
// An empty chunk list returns no results. A single chunk is analyzed inline,
// skipping pool setup entirely for fast-path latency. Multiple chunks are
// fanned out across a work-stealing pool capped at workerCount via
// errgroup.SetLimit.
func (e *ParallelExecutor) Execute(chunks []chunk.AnalysisChunk, progress *ProgressReporter, buildPrompt PromptBuilder) []ChunkResult {
	if len(chunks) == 0 {
		return nil
	}
	if len(chunks) == 1 {
		result := e.analyzeChunk(chunks[0], buildPrompt)
		progress.ReportProgress()
		results := []ChunkResult{result}
		observeResults(1, results)
		return results
	}
	results := e.executeParallel(chunks, progress, buildPrompt)
	observeResults(e.workerCount, results)
	return results
}

func (e *ParallelExecutor) executeParallel(chunks []chunk.AnalysisChunk, progress *ProgressReporter, buildPrompt PromptBuilder) []ChunkResult {
	results := make([]ChunkResult, len(chunks))

	g, _ := errgroup.WithContext(context.Background())
	limit := e.workerCount
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, c := range chunks {
		i, c := i, c
		g.Go(func() error {
			results[i] = e.analyzeChunk(c, buildPrompt)
			progress.ReportProgress()
			return nil
		})
	}
	_ = g.Wait() // analyzeChunk never returns an error from this func; failures live in ChunkResult

	return results
}

func (e *ParallelExecutor) analyzeChunk(c chunk.AnalysisChunk, buildPrompt PromptBuilder) ChunkResult {
	prompt := buildPrompt(c)

	raw, err := e.backend.Invoke(prompt, e.timeout, e.useSchema)
	if err != nil {
		return NewFailureResult(c, err)
	}
	markers, err := e.backend.ParseResponse(raw)
	if err != nil {
		return NewFailureResult(c, err)
	}
	return NewSuccessResult(c, markers)
}

// ExecuteWithTracking runs Execute and records the resulting token usage
// into a fresh TokenTracker, returning both for the caller's visibility and
// fallback decision.
func (e *ParallelExecutor) ExecuteWithTracking(chunks []chunk.AnalysisChunk, progress *ProgressReporter, buildPrompt PromptBuilder) ([]ChunkResult, *TokenTracker) {
	tracker := NewTokenTracker()
	results := e.Execute(chunks, progress, buildPrompt)
	RecordResults(tracker, results)
	return results, tracker
}

// ShouldFallbackToSequential reports whether the caller should retry
// sequentially: every chunk failed AND at least one failure was a rate
// limit. The executor itself never retries; the decision and the retry
// loop live with the caller.
func ShouldFallbackToSequential(results []ChunkResult) bool {
	if len(results) == 0 {
		return false
	}
	hasRateLimit := false
	for _, r := range results {
		if r.IsSuccess() {
			return false
		}
		if be, ok := r.Err.(*backend.BackendError); ok && be.Kind == backend.ErrRateLimited {
			hasRateLimit = true
		}
	}
	return hasRateLimit
}
