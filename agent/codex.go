package agent

import "context"

// CodexAdapter wraps the `codex` CLI's non-interactive exec mode.
type CodexAdapter struct{}

func (CodexAdapter) Name() string { return "codex" }

func (CodexAdapter) IsAvailable(ctx context.Context) bool {
	return which(ctx, "codex")
}

func (CodexAdapter) Spawn(ctx context.Context, prompt, workdir, model string) (*Child, error) {
	args := []string{"exec", "--full-auto"}
	if model != "" {
		args = append(args, "--model", model)
	}
	args = append(args, prompt)
	return spawnPiped(ctx, workdir, "codex", args...)
}
