package backend

import (
	"os/exec"
	"time"

	"github.com/joestump/agr/internal/chunk"
)

// ClaudeBackend invokes the `claude` CLI in non-interactive print mode.
type ClaudeBackend struct{}

// NewClaudeBackend builds a ClaudeBackend.
func NewClaudeBackend() *ClaudeBackend { return &ClaudeBackend{} }

func (b *ClaudeBackend) Name() string { return "claude" }

func (b *ClaudeBackend) IsAvailable() bool { return commandExists("claude") }

func (b *ClaudeBackend) TokenBudget() chunk.TokenBudget { return chunk.ClaudeTokenBudget() }

// Invoke runs `claude --print --output-format json [--json-schema <inline>]
// --tools ""` with the prompt on stdin.
func (b *ClaudeBackend) Invoke(prompt string, timeout time.Duration, useSchema bool) (string, error) {
	if !b.IsAvailable() {
		return "", newNotAvailable(b.Name())
	}

	args := []string{"--print", "--output-format", "json", "--tools", ""}
	if useSchema {
		schema, err := MinifiedMarkerJSONSchema()
		if err != nil {
			return "", newIO(err)
		}
		args = append(args, "--json-schema", string(schema))
	}

	cmd := exec.Command("claude", args...)
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

// ParseResponse extracts markers from Claude's response envelope.
func (b *ClaudeBackend) ParseResponse(raw string) ([]RawMarker, error) {
	resp, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	return resp.Markers, nil
}
