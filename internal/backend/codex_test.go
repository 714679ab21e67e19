package backend

import "testing"

func TestCodexBackendIdentity(t *testing.T) {
	b := NewCodexBackend()
	if b.Name() != "codex" {
		t.Errorf("Name() = %q, want codex", b.Name())
	}
	if b.TokenBudget().MaxInputTokens != 120_000 {
		t.Errorf("unexpected token budget: %+v", b.TokenBudget())
	}
}

func TestCodexBackendInvokeWhenUnavailable(t *testing.T) {
	if commandExists("codex") {
		t.Skip("codex CLI present on PATH; availability-gated test only runs in sandboxes without it")
	}
	b := NewCodexBackend()
	_, err := b.Invoke("analyze this", 0, true)
	be, ok := err.(*BackendError)
	if !ok {
		t.Fatalf("expected *BackendError, got %T (%v)", err, err)
	}
	if be.Kind != ErrNotAvailable {
		t.Errorf("Kind = %v, want ErrNotAvailable", be.Kind)
	}
}
