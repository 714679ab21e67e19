package executor

import "sync/atomic"

// ProgressCallback is invoked as (completed, total) after each chunk
// finishes.
type ProgressCallback func(completed, total int)

// ProgressReporter tracks how many chunks have completed using a shared
// atomic counter, since chunks complete from arbitrary worker goroutines.
type ProgressReporter struct {
	completed atomic.Int64
	total     int
	callback  ProgressCallback
}

// NewProgressReporter builds a reporter with no callback.
func NewProgressReporter(total int) *ProgressReporter {
	return &ProgressReporter{total: total}
}

// NewProgressReporterWithCallback builds a reporter that invokes callback on
// every completion.
func NewProgressReporterWithCallback(total int, callback ProgressCallback) *ProgressReporter {
	return &ProgressReporter{total: total, callback: callback}
}

// ReportProgress records one more completion and returns the new completed
// count. Safe for concurrent use.
func (r *ProgressReporter) ReportProgress() int {
	completed := int(r.completed.Add(1))
	if r.callback != nil {
		r.callback(completed, r.total)
	}
	return completed
}

// Progress returns the (completed, total) snapshot.
func (r *ProgressReporter) Progress() (int, int) {
	return int(r.completed.Load()), r.total
}
