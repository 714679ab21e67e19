// Package backend implements the LLM backend protocol:
// invoking an agent CLI as a subprocess, extracting structured markers from
// its response, and classifying rate-limit failures.
package backend

import (
	"fmt"
	"time"

	"github.com/joestump/agr/internal/chunk"
)

// MarkerCategory is the engineering-workflow category an LLM assigns a
// marker.
type MarkerCategory int

const (
	Planning MarkerCategory = iota
	Design
	Implementation
	Success
	Failure
)

// categoryNames maps MarkerCategory to its canonical (wire) and display
// forms.
var categoryNames = [...]struct {
	canonical string
	display   string
}{
	Planning:       {"planning", "PLAN"},
	Design:         {"design", "DESIGN"},
	Implementation: {"implementation", "IMPL"},
	Success:        {"success", "SUCCESS"},
	Failure:        {"failure", "FAILURE"},
}

// ParseMarkerCategory parses the canonical wire form ("planning", ...).
func ParseMarkerCategory(s string) (MarkerCategory, bool) {
	for i, n := range categoryNames {
		if n.canonical == s {
			return MarkerCategory(i), true
		}
	}
	return 0, false
}

// String returns the canonical wire form.
func (c MarkerCategory) String() string {
	if int(c) < 0 || int(c) >= len(categoryNames) {
		return "unknown"
	}
	return categoryNames[c].canonical
}

// Display returns the upper-case display name (e.g. "IMPL") that marker
// labels carry inside their "[...]" prefix.
func (c MarkerCategory) Display() string {
	if int(c) < 0 || int(c) >= len(categoryNames) {
		return "UNKNOWN"
	}
	return categoryNames[c].display
}

// RawMarker is a marker as returned by an LLM backend, before timestamp
// resolution: its timestamp is relative to the chunk's start.
type RawMarker struct {
	Timestamp float64        `json:"timestamp"`
	Label     string         `json:"label"`
	Category  MarkerCategory `json:"-"`
}

// AnalysisResponse is the top-level marker schema every backend's response
// must ultimately extract to.
type AnalysisResponse struct {
	Markers []RawMarker
}

// AgentType names a supported backend implementation.
type AgentType int

const (
	Claude AgentType = iota
	Codex
	Gemini
)

// CommandName returns the CLI binary name for this agent type.
func (a AgentType) CommandName() string {
	switch a {
	case Claude:
		return "claude"
	case Codex:
		return "codex"
	case Gemini:
		return "gemini"
	default:
		return "unknown"
	}
}

// String returns the display name for this agent type.
func (a AgentType) String() string {
	switch a {
	case Claude:
		return "Claude"
	case Codex:
		return "Codex"
	case Gemini:
		return "Gemini"
	default:
		return "Unknown"
	}
}

// TokenBudget returns the static per-agent token budget.
func (a AgentType) TokenBudget() chunk.TokenBudget {
	switch a {
	case Claude:
		return chunk.ClaudeTokenBudget()
	case Codex:
		return chunk.CodexTokenBudget()
	case Gemini:
		return chunk.GeminiTokenBudget()
	default:
		return chunk.ClaudeTokenBudget()
	}
}

// CreateBackend builds the concrete AgentBackend for this agent type.
func (a AgentType) CreateBackend() AgentBackend {
	switch a {
	case Claude:
		return NewClaudeBackend()
	case Codex:
		return NewCodexBackend()
	case Gemini:
		return NewGeminiBackend()
	default:
		return NewClaudeBackend()
	}
}

// AgentBackend is the capability set every LLM backend must expose. Backends
// must be safe for concurrent use from multiple goroutines: the executor
// dispatches chunk analysis across a worker pool sharing one backend value.
type AgentBackend interface {
	Name() string
	IsAvailable() bool
	Invoke(prompt string, timeout time.Duration, useSchema bool) (string, error)
	ParseResponse(raw string) ([]RawMarker, error)
	TokenBudget() chunk.TokenBudget
}

// RateLimitInfo describes a detected rate-limit failure.
type RateLimitInfo struct {
	RetryAfter *time.Duration
	Message    string
}

func (r RateLimitInfo) String() string {
	if r.RetryAfter != nil {
		return fmt.Sprintf("%s (retry after %s)", r.Message, r.RetryAfter)
	}
	return r.Message
}

// ErrorKind discriminates the BackendError variants.
type ErrorKind int

const (
	ErrNotAvailable ErrorKind = iota
	ErrTimeout
	ErrExitCode
	ErrRateLimited
	ErrJSONParse
	ErrJSONExtraction
	ErrIO
)

// BackendError is the error type every AgentBackend method returns.
type BackendError struct {
	Kind      ErrorKind
	Name      string // NotAvailable: CLI name
	Timeout   time.Duration
	Code      int    // ExitCode
	Stderr    string // ExitCode
	RateLimit RateLimitInfo
	Raw       string // JsonExtraction: the raw response that failed to parse
	Err       error  // JsonParse, Io: wrapped underlying error
}

func (e *BackendError) Error() string {
	switch e.Kind {
	case ErrNotAvailable:
		return fmt.Sprintf("agent CLI not found: %s", e.Name)
	case ErrTimeout:
		return fmt.Sprintf("agent timed out after %s", e.Timeout)
	case ErrExitCode:
		return fmt.Sprintf("exit code %d: %s", e.Code, truncateStderr(e.Stderr))
	case ErrRateLimited:
		return fmt.Sprintf("rate limited: %s", e.RateLimit)
	case ErrJSONParse:
		return fmt.Sprintf("failed to parse response as JSON: %v", e.Err)
	case ErrJSONExtraction:
		return "failed to extract JSON from response"
	case ErrIO:
		return fmt.Sprintf("io error: %v", e.Err)
	default:
		return "unknown backend error"
	}
}

func (e *BackendError) Unwrap() error { return e.Err }

// WaitDuration returns the rate-limit's advertised retry-after, or fallback
// if the error isn't a rate limit or carries no retry-after hint.
func (e *BackendError) WaitDuration(fallback time.Duration) time.Duration {
	if e.Kind == ErrRateLimited && e.RateLimit.RetryAfter != nil {
		return *e.RateLimit.RetryAfter
	}
	return fallback
}

func newNotAvailable(name string) *BackendError {
	return &BackendError{Kind: ErrNotAvailable, Name: name}
}

func newTimeout(d time.Duration) *BackendError {
	return &BackendError{Kind: ErrTimeout, Timeout: d}
}

func newExitCode(code int, stderr string) *BackendError {
	return &BackendError{Kind: ErrExitCode, Code: code, Stderr: stderr}
}

func newRateLimited(info RateLimitInfo) *BackendError {
	return &BackendError{Kind: ErrRateLimited, RateLimit: info}
}

func newJSONExtraction(raw string) *BackendError {
	return &BackendError{Kind: ErrJSONExtraction, Raw: raw}
}

func newIO(err error) *BackendError {
	return &BackendError{Kind: ErrIO, Err: err}
}
