package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
)

const (
	defaultAPIBaseURL = "https://api.anthropic.com"
	defaultAPIModel   = "claude-sonnet-4-20250514"
	apiVersionHeader  = "2023-06-01"
)

// APIAdapter streams completions directly from the Anthropic Messages API
// by shelling out to curl and extracting text deltas from the server-sent
// event stream with a grep/sed pipeline, so that externally it behaves like
// any other child-process backend.
type APIAdapter struct {
	// APIKey overrides ANTHROPIC_API_KEY when set.
	APIKey string
	// BaseURL overrides ANTHROPIC_BASE_URL / the default endpoint when set.
	BaseURL string
}

func (a APIAdapter) Name() string { return "api" }

func (a APIAdapter) apiKey() string {
	if a.APIKey != "" {
		return a.APIKey
	}
	return os.Getenv("ANTHROPIC_API_KEY")
}

func (a APIAdapter) baseURL() string {
	if a.BaseURL != "" {
		return a.BaseURL
	}
	if v := os.Getenv("ANTHROPIC_BASE_URL"); v != "" {
		return v
	}
	return defaultAPIBaseURL
}

func (a APIAdapter) IsAvailable(ctx context.Context) bool {
	return which(ctx, "curl") && a.apiKey() != ""
}

// Spawn writes the request body to a temp file and shells a curl | grep |
// sed pipeline that streams SSE `data:` lines and extracts each
// `content_block_delta` event's `text_delta.text` field.
func (a APIAdapter) Spawn(ctx context.Context, prompt, workdir, model string) (*Child, error) {
	if model == "" {
		model = defaultAPIModel
	}

	body, err := json.Marshal(map[string]any{
		"model":      model,
		"max_tokens": 8192,
		"stream":     true,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	bodyFile, err := os.CreateTemp("", "ralph-api-body-*.json")
	if err != nil {
		return nil, err
	}
	if _, err := bodyFile.Write(body); err != nil {
		bodyFile.Close()
		os.Remove(bodyFile.Name())
		return nil, err
	}
	bodyFile.Close()

	script := fmt.Sprintf(
		`curl -sS -N -H "x-api-key: $ANTHROPIC_API_KEY" -H "anthropic-version: %s" -H "content-type: application/json" --data @%q "$ANTHROPIC_BASE_URL/v1/messages" | grep -o '"type":"text_delta"[^}]*"text":"[^"]*"' | sed -E 's/.*"text":"(.*)"/\1/'`,
		apiVersionHeader, bodyFile.Name(),
	)

	cmd := exec.CommandContext(ctx, "sh", "-c", script)
	cmd.Dir = workdir
	cmd.Env = append(os.Environ(),
		"ANTHROPIC_API_KEY="+a.apiKey(),
		"ANTHROPIC_BASE_URL="+a.baseURL(),
	)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &Child{
		cmd: cmd, Stdin: stdin, Stdout: stdout, Stderr: stderr,
		cleanup: func() { os.Remove(bodyFile.Name()) },
	}, nil
}
