package backend

import (
	"testing"
	"time"
)

func TestMarkerCategoryRoundTrip(t *testing.T) {
	for _, c := range []MarkerCategory{Planning, Design, Implementation, Success, Failure} {
		parsed, ok := ParseMarkerCategory(c.String())
		if !ok {
			t.Fatalf("ParseMarkerCategory(%q) failed", c.String())
		}
		if parsed != c {
			t.Errorf("round trip: got %v, want %v", parsed, c)
		}
	}
}

func TestMarkerCategoryDisplay(t *testing.T) {
	if got := Implementation.Display(); got != "IMPL" {
		t.Errorf("Display() = %q, want IMPL", got)
	}
}

func TestParseMarkerCategoryUnknown(t *testing.T) {
	if _, ok := ParseMarkerCategory("nonsense"); ok {
		t.Error("expected unknown category to fail parsing")
	}
}

func TestAgentTypeCreateBackend(t *testing.T) {
	cases := []struct {
		agent AgentType
		name  string
	}{
		{Claude, "claude"},
		{Codex, "codex"},
		{Gemini, "gemini"},
	}
	for _, tc := range cases {
		b := tc.agent.CreateBackend()
		if b.Name() != tc.name {
			t.Errorf("agent %v: backend name = %q, want %q", tc.agent, b.Name(), tc.name)
		}
		if b.TokenBudget() != tc.agent.TokenBudget() {
			t.Errorf("agent %v: backend token budget mismatch", tc.agent)
		}
	}
}

func TestBackendErrorWaitDuration(t *testing.T) {
	retry := 15 * time.Second
	err := &BackendError{Kind: ErrRateLimited, RateLimit: RateLimitInfo{RetryAfter: &retry}}
	if got := err.WaitDuration(5 * time.Second); got != retry {
		t.Errorf("WaitDuration = %v, want %v", got, retry)
	}

	noRetry := &BackendError{Kind: ErrRateLimited, RateLimit: RateLimitInfo{}}
	if got := noRetry.WaitDuration(5 * time.Second); got != 5*time.Second {
		t.Errorf("WaitDuration fallback = %v, want 5s", got)
	}

	notRateLimited := &BackendError{Kind: ErrTimeout}
	if got := notRateLimited.WaitDuration(5 * time.Second); got != 5*time.Second {
		t.Errorf("WaitDuration for non-rate-limit = %v, want fallback 5s", got)
	}
}

func TestBackendErrorUnwrap(t *testing.T) {
	inner := errUnknownCategory("bogus")
	err := &BackendError{Kind: ErrJSONParse, Err: inner}
	if err.Unwrap() != inner {
		t.Error("Unwrap did not return wrapped error")
	}
}

func TestCommandExistsFalseForMissingCLI(t *testing.T) {
	// "definitely-not-a-real-cli-xyz" is never on PATH in a test sandbox.
	if commandExists("definitely-not-a-real-cli-xyz") {
		t.Error("commandExists reported a CLI that is not installed")
	}
}
