package agent

import "context"

// OpencodeAdapter wraps the `opencode` CLI's one-shot `run` subcommand.
type OpencodeAdapter struct{}

func (OpencodeAdapter) Name() string { return "opencode" }

func (OpencodeAdapter) IsAvailable(ctx context.Context) bool {
	return which(ctx, "opencode")
}

func (OpencodeAdapter) Spawn(ctx context.Context, prompt, workdir, model string) (*Child, error) {
	args := []string{"run"}
	if model != "" {
		args = append(args, "--model", model)
	}
	args = append(args, prompt)
	return spawnPiped(ctx, workdir, "opencode", args...)
}
