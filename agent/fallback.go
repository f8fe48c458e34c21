package agent

import "context"

// FallbackOrder is the fixed ordered list of candidate backend names tried
// after a failure or not-done outcome, and by the task parser's own
// fallback chain.
var FallbackOrder = []string{"codex", "gemini", "claude", "opencode"}

// NextFallback selects the first candidate in FallbackOrder that differs
// from current and is available, per the orchestrator's fallback policy.
// Reports false if no such candidate exists.
func NextFallback(ctx context.Context, reg *Registry, current string) (string, bool) {
	for _, candidate := range FallbackOrder {
		if candidate == current {
			continue
		}
		a, err := reg.Get(candidate)
		if err != nil {
			continue
		}
		if a.IsAvailable(ctx) {
			return candidate, true
		}
	}
	return "", false
}
