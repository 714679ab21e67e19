package backend

import (
	"os/exec"
	"time"

	"github.com/joestump/agr/internal/chunk"
)

// CodexBackend invokes the `codex exec` CLI, which takes a schema file path
// rather than an inline schema string.
type CodexBackend struct{}

// NewCodexBackend builds a CodexBackend.
func NewCodexBackend() *CodexBackend { return &CodexBackend{} }

func (b *CodexBackend) Name() string { return "codex" }

func (b *CodexBackend) IsAvailable() bool { return commandExists("codex") }

func (b *CodexBackend) TokenBudget() chunk.TokenBudget { return chunk.CodexTokenBudget() }

// Invoke runs `codex exec [--output-schema <path>]` with the prompt on
// stdin.
func (b *CodexBackend) Invoke(prompt string, timeout time.Duration, useSchema bool) (string, error) {
	if !b.IsAvailable() {
		return "", newNotAvailable(b.Name())
	}

	args := []string{"exec"}
	if useSchema {
		schemaPath, err := GetSchemaFilePath()
		if err != nil {
			return "", err
		}
		args = append(args, "--output-schema", schemaPath)
	}

	cmd := exec.Command("codex", args...)
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

// ParseResponse extracts markers from Codex's response. Codex has no
// native structured-output envelope, so responses go straight through the
// generic extractor (direct JSON, code fence, or embedded-in-prose).
func (b *CodexBackend) ParseResponse(raw string) ([]RawMarker, error) {
	resp, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	return resp.Markers, nil
}
