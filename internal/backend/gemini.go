package backend

import (
	"os/exec"
	"time"

	"github.com/joestump/agr/internal/chunk"
)

// GeminiBackend invokes the `gemini` CLI in plan-approval, JSON-output mode.
type GeminiBackend struct{}

// NewGeminiBackend builds a GeminiBackend.
func NewGeminiBackend() *GeminiBackend { return &GeminiBackend{} }

func (b *GeminiBackend) Name() string { return "gemini" }

func (b *GeminiBackend) IsAvailable() bool { return commandExists("gemini") }

func (b *GeminiBackend) TokenBudget() chunk.TokenBudget { return chunk.GeminiTokenBudget() }

// Invoke runs `gemini --output-format json --approval-mode plan` with the
// prompt on stdin. The gemini CLI has no schema flag, so useSchema is
// accepted but has no effect here.
func (b *GeminiBackend) Invoke(prompt string, timeout time.Duration, useSchema bool) (string, error) {
	if !b.IsAvailable() {
		return "", newNotAvailable(b.Name())
	}

	args := []string{"--output-format", "json", "--approval-mode", "plan"}

	cmd := exec.Command("gemini", args...)
	result, err := runCommand(cmd, prompt, timeout)
	if err != nil {
		return "", err
	}
	if result.ExitCode != 0 {
		if info := ParseRateLimitInfo(result.Stderr); info != nil {
			return "", newRateLimited(*info)
		}
		return "", newExitCode(result.ExitCode, result.Stderr)
	}
	return result.Stdout, nil
}

// ParseResponse extracts markers from Gemini's response via the generic
// extractor.
func (b *GeminiBackend) ParseResponse(raw string) ([]RawMarker, error) {
	resp, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	return resp.Markers, nil
}
