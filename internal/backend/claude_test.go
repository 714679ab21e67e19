package backend

import "testing"

func TestClaudeBackendIdentity(t *testing.T) {
	b := NewClaudeBackend()
	if b.Name() != "claude" {
		t.Errorf("Name() = %q, want claude", b.Name())
	}
	if b.TokenBudget().MaxInputTokens != 180_000 {
		t.Errorf("unexpected token budget: %+v", b.TokenBudget())
	}
}

func TestClaudeBackendInvokeWhenUnavailable(t *testing.T) {
	if commandExists("claude") {
		t.Skip("claude CLI present on PATH; availability-gated test only runs in sandboxes without it")
	}
	b := NewClaudeBackend()
	_, err := b.Invoke("analyze this", 0, false)
	be, ok := err.(*BackendError)
	if !ok {
		t.Fatalf("expected *BackendError, got %T (%v)", err, err)
	}
	if be.Kind != ErrNotAvailable {
		t.Errorf("Kind = %v, want ErrNotAvailable", be.Kind)
	}
}
