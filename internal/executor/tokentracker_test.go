package executor

import (
	"testing"
	"time"
)

func TestTokenTrackerSummary(t *testing.T) {
	tracker := NewTokenTracker()
	tracker.RecordSuccess(1000, 2*time.Second, 1)
	tracker.RecordSuccess(2000, 4*time.Second, 2)
	tracker.RecordFailure(500, 1*time.Second, 3)

	summary := tracker.Summary()
	if summary.ChunksProcessed != 3 {
		t.Errorf("ChunksProcessed = %d, want 3", summary.ChunksProcessed)
	}
	if summary.SuccessfulChunks != 2 {
		t.Errorf("SuccessfulChunks = %d, want 2", summary.SuccessfulChunks)
	}
	if summary.FailedChunks != 1 {
		t.Errorf("FailedChunks = %d, want 1", summary.FailedChunks)
	}
	if summary.TotalEstimatedTokens != 3500 {
		t.Errorf("TotalEstimatedTokens = %d, want 3500", summary.TotalEstimatedTokens)
	}
	wantRetries := (1 - 1) + (2 - 1) + (3 - 1)
	if summary.TotalRetries != wantRetries {
		t.Errorf("TotalRetries = %d, want %d", summary.TotalRetries, wantRetries)
	}
	wantRate := 2.0 / 3.0
	if summary.SuccessRate != wantRate {
		t.Errorf("SuccessRate = %v, want %v", summary.SuccessRate, wantRate)
	}
}

func TestTokenTrackerEmptySummary(t *testing.T) {
	summary := NewTokenTracker().Summary()
	if summary.ChunksProcessed != 0 || summary.SuccessRate != 0 {
		t.Errorf("expected zero-value summary, got %+v", summary)
	}
}
