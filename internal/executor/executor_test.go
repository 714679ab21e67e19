package executor

import (
	"sync"
	"testing"
	"time"

	"github.com/joestump/agr/internal/backend"
	"github.com/joestump/agr/internal/chunk"
	"github.com/joestump/agr/internal/extract"
)

// mockBackend is a test double for backend.AgentBackend: queued responses
// (or errors), consumed in order, with invocation tracking under a mutex
// for concurrent callers.
type mockBackend struct {
	mu          sync.Mutex
	responses   []mockResponse
	invocations []string
}

type mockResponse struct {
	raw string
	err error
}

func newMockBackend(responses ...mockResponse) *mockBackend {
	return &mockBackend{responses: responses}
}

func (m *mockBackend) Name() string      { return "mock" }
func (m *mockBackend) IsAvailable() bool { return true }
func (m *mockBackend) TokenBudget() chunk.TokenBudget {
	return chunk.ClaudeTokenBudget()
}

func (m *mockBackend) Invoke(prompt string, _ time.Duration, _ bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invocations = append(m.invocations, prompt)
	if len(m.responses) == 0 {
		return `{"markers": []}`, nil
	}
	r := m.responses[0]
	m.responses = m.responses[1:]
	if r.err != nil {
		return "", r.err
	}
	return r.raw, nil
}

func (m *mockBackend) ParseResponse(raw string) ([]backend.RawMarker, error) {
	resp, err := backend.ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	return resp.Markers, nil
}

func (m *mockBackend) invocationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.invocations)
}

func testChunk(start, end float64) chunk.AnalysisChunk {
	return chunk.NewPlanner(chunk.ClaudeTokenBudget()).Plan(extract.AnalysisContent{
		Segments: []extract.AnalysisSegment{
			{StartTime: start, EndTime: end, Content: "some output", EstimatedTokens: 100},
		},
		TotalDuration: end - start,
	})[0]
}

func TestExecuteSingleChunkInline(t *testing.T) {
	b := newMockBackend(mockResponse{raw: `{"markers":[{"timestamp":5.0,"label":"Test","category":"success"}]}`})
	exec := NewParallelExecutor(b, time.Minute, 4, true)
	chunks := []chunk.AnalysisChunk{testChunk(0, 100)}
	progress := NewProgressReporter(1)

	results := exec.Execute(chunks, progress, func(c chunk.AnalysisChunk) string { return "test prompt" })

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if !results[0].IsSuccess() {
		t.Fatalf("expected success, got error %v", results[0].Err)
	}
	if b.invocationCount() != 1 {
		t.Errorf("invocation count = %d, want 1", b.invocationCount())
	}
	completed, _ := progress.Progress()
	if completed != 1 {
		t.Errorf("completed = %d, want 1", completed)
	}
}

func TestExecuteMultipleChunksProcessed(t *testing.T) {
	b := newMockBackend(
		mockResponse{raw: `{"markers": []}`},
		mockResponse{raw: `{"markers": []}`},
		mockResponse{raw: `{"markers": []}`},
	)
	exec := NewParallelExecutor(b, time.Minute, 4, true)
	chunks := []chunk.AnalysisChunk{testChunk(0, 100), testChunk(100, 200), testChunk(200, 300)}
	progress := NewProgressReporter(3)

	results := exec.Execute(chunks, progress, func(c chunk.AnalysisChunk) string { return "p" })

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, r := range results {
		if !r.IsSuccess() {
			t.Errorf("result %d: expected success, got %v", i, r.Err)
		}
	}
	if b.invocationCount() != 3 {
		t.Errorf("invocation count = %d, want 3", b.invocationCount())
	}
}

func TestExecuteEmptyChunksReturnsEmpty(t *testing.T) {
	b := newMockBackend()
	exec := NewParallelExecutor(b, time.Minute, 4, false)
	results := exec.Execute(nil, NewProgressReporter(0), func(c chunk.AnalysisChunk) string { return "" })
	if results != nil {
		t.Errorf("expected nil results for empty input, got %v", results)
	}
}

func TestExecuteChunkFailurePropagates(t *testing.T) {
	retryAfter := 30 * time.Second
	b := newMockBackend(mockResponse{err: &backend.BackendError{
		Kind:      backend.ErrRateLimited,
		RateLimit: backend.RateLimitInfo{RetryAfter: &retryAfter, Message: "Rate limited"},
	}})
	exec := NewParallelExecutor(b, time.Minute, 2, false)
	results := exec.Execute([]chunk.AnalysisChunk{testChunk(0, 100)}, NewProgressReporter(1), func(c chunk.AnalysisChunk) string { return "p" })

	if len(results) != 1 || !results[0].IsFailure() {
		t.Fatalf("expected single failure result, got %+v", results)
	}
}

// TestShouldFallbackToSequential: fall back only when every chunk failed
// AND at least one failure was a rate limit.
func TestShouldFallbackToSequential(t *testing.T) {
	rateLimitErr := &backend.BackendError{Kind: backend.ErrRateLimited}
	otherErr := &backend.BackendError{Kind: backend.ErrTimeout}

	allRateLimited := []ChunkResult{
		NewFailureResult(testChunk(0, 100), rateLimitErr),
		NewFailureResult(testChunk(100, 200), rateLimitErr),
	}
	if !ShouldFallbackToSequential(allRateLimited) {
		t.Error("expected fallback when all chunks rate limited")
	}

	mixedSuccess := []ChunkResult{
		NewSuccessResult(testChunk(0, 100), nil),
		NewFailureResult(testChunk(100, 200), rateLimitErr),
	}
	if ShouldFallbackToSequential(mixedSuccess) {
		t.Error("did not expect fallback when some chunks succeeded")
	}

	allFailedNoRateLimit := []ChunkResult{
		NewFailureResult(testChunk(0, 100), otherErr),
	}
	if ShouldFallbackToSequential(allFailedNoRateLimit) {
		t.Error("did not expect fallback without a rate-limited failure")
	}

	if ShouldFallbackToSequential(nil) {
		t.Error("did not expect fallback for empty results")
	}
}

func TestExecuteWithTrackingRecordsUsage(t *testing.T) {
	b := newMockBackend(mockResponse{raw: `{"markers": []}`})
	exec := NewParallelExecutor(b, time.Minute, 2, false)
	results, tracker := exec.ExecuteWithTracking([]chunk.AnalysisChunk{testChunk(0, 100)}, NewProgressReporter(1), func(c chunk.AnalysisChunk) string { return "p" })

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	summary := tracker.Summary()
	if summary.ChunksProcessed != 1 || summary.SuccessfulChunks != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if summary.SuccessRate != 1.0 {
		t.Errorf("success rate = %v, want 1.0", summary.SuccessRate)
	}
}
