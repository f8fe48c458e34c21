// Package notify implements the fire-and-forget notification publisher:
// two optional sinks (a generic webhook and a chat-gateway endpoint), both
// delivered by shelling out to curl rather than linking an HTTP client.
// Sink failures are logged and never propagated to the loop.
package notify

import (
	"context"
	"time"

	"github.com/relay-loop/ralph/observability"
)

// Kind identifies the variant of a Hook Event.
type Kind string

const (
	KindTaskComplete   Kind = "task_complete"
	KindTaskFailed     Kind = "task_failed"
	KindAllComplete    Kind = "all_complete"
	KindCircuitBreaker Kind = "circuit_breaker"
	KindMaxIterations  Kind = "max_iterations"
)

// Progress is the snapshot of task counters carried by every Hook Event.
type Progress struct {
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Remaining int `json:"remaining"`
	Total     int `json:"total"`
}

// Event is a Hook Event: a kind, a progress snapshot, and kind-specific
// detail text (task id/title for task events, error text for failures).
type Event struct {
	Kind     Kind
	Progress Progress
	TaskID   string
	TaskName string
	Detail   string
	Duration time.Duration
}

// Notifier publishes Events to the configured sinks.
type Notifier struct {
	cfg      Config
	observer observability.Observer
}

// New returns a Notifier for the given sink configuration.
func New(cfg Config, observer observability.Observer) *Notifier {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	return &Notifier{cfg: cfg, observer: observer}
}

// Notify fires every configured sink concurrently and fire-and-forget.
// Sink failures are logged through the observer and never returned to the
// caller: the orchestrator loop must never stall or abort on a notification
// failure.
func (n *Notifier) Notify(ctx context.Context, ev Event) {
	if n.cfg.WebhookURL != "" {
		go n.deliverWebhook(ctx, ev)
	}
	if n.cfg.GatewayURL != "" {
		go n.deliverGateway(ctx, ev)
	}
}

func (n *Notifier) logFailure(ctx context.Context, sink string, err error) {
	n.observer.OnEvent(ctx, observability.Event{
		Type:      "notify.delivery_failed",
		Level:     observability.LevelWarning,
		Timestamp: time.Now(),
		Source:    "notify.Notifier",
		Data:      map[string]any{"sink": sink, "error": err.Error()},
	})
}
