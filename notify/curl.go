package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// deliverWebhook POSTs {"event": "<kind>", ...} to the webhook sink via
// curl.
func (n *Notifier) deliverWebhook(ctx context.Context, ev Event) {
	body, err := json.Marshal(map[string]any{
		"event":     string(ev.Kind),
		"task_id":   ev.TaskID,
		"task_name": ev.TaskName,
		"detail":    ev.Detail,
		"progress":  ev.Progress,
	})
	if err != nil {
		n.logFailure(ctx, "webhook", err)
		return
	}

	if err := postJSON(ctx, n.cfg.WebhookURL, n.cfg.WebhookToken, body, n.cfg.Timeout); err != nil {
		n.logFailure(ctx, "webhook", err)
	}
}

// deliverGateway POSTs a formatted chat message to the gateway's tool-invoke
// endpoint.
func (n *Notifier) deliverGateway(ctx context.Context, ev Event) {
	body, err := json.Marshal(map[string]any{
		"tool": "message",
		"args": map[string]any{
			"action":  "send",
			"channel": n.cfg.Channel,
			"message": formatMessage(ev),
		},
	})
	if err != nil {
		n.logFailure(ctx, "gateway", err)
		return
	}

	url := strings.TrimRight(n.cfg.GatewayURL, "/") + "/tools/invoke"
	if err := postJSON(ctx, url, n.cfg.GatewayToken, body, n.cfg.Timeout); err != nil {
		n.logFailure(ctx, "gateway", err)
	}
}

// postJSON shells out to curl to deliver a JSON POST with a bearer token and
// a hard timeout, checking only that the command exits zero; delivery is
// fire-and-forget by design, so the response body is not inspected.
func postJSON(ctx context.Context, url, token string, body []byte, timeout time.Duration) error {
	args := []string{
		"-sS", "-X", "POST",
		"-H", "Content-Type: application/json",
	}
	if token != "" {
		args = append(args, "-H", "Authorization: Bearer "+token)
	}
	args = append(args,
		"-m", strconv.Itoa(int(timeout.Seconds())),
		"-d", string(body),
		url,
	)

	cmd := exec.CommandContext(ctx, "curl", args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("curl delivery failed: %w", err)
	}
	return nil
}
