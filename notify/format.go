package notify

import "fmt"

var emoji = map[Kind]string{
	KindTaskComplete:   "✅",
	KindTaskFailed:     "❌",
	KindAllComplete:    "🎉",
	KindCircuitBreaker: "⚠️",
	KindMaxIterations:  "⚠️",
}

// formatMessage renders an Event as the emoji-prefixed chat text.
func formatMessage(ev Event) string {
	prefix := emoji[ev.Kind]

	switch ev.Kind {
	case KindTaskComplete:
		return fmt.Sprintf("%s Task %s complete: %s (%d/%d done)", prefix, ev.TaskID, ev.TaskName, ev.Progress.Completed, ev.Progress.Total)
	case KindTaskFailed:
		return fmt.Sprintf("%s Task %s failed: %s", prefix, ev.TaskID, ev.Detail)
	case KindAllComplete:
		return fmt.Sprintf("%s All tasks complete (%d/%d)", prefix, ev.Progress.Completed, ev.Progress.Total)
	case KindCircuitBreaker:
		return fmt.Sprintf("%s Circuit breaker tripped: %s", prefix, ev.Detail)
	case KindMaxIterations:
		return fmt.Sprintf("%s Max iterations reached: %s", prefix, ev.Detail)
	default:
		return fmt.Sprintf("%s %s", prefix, ev.Detail)
	}
}

// truncate trims s to at most n runes without splitting a multi-byte rune,
// appending an ellipsis when truncated.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
