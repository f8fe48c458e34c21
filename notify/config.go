package notify

import (
	"os"
	"time"
)

const defaultGatewayURL = "http://127.0.0.1:18789"

// Config holds the optional sink endpoints and credentials. Both sinks are
// optional; a zero-value URL disables that sink.
type Config struct {
	WebhookURL   string        `json:"webhook_url,omitempty" yaml:"webhook_url,omitempty"`
	WebhookToken string        `json:"webhook_token,omitempty" yaml:"webhook_token,omitempty"`
	GatewayURL   string        `json:"gateway_url,omitempty" yaml:"gateway_url,omitempty"`
	GatewayToken string        `json:"gateway_token,omitempty" yaml:"gateway_token,omitempty"`
	Channel      string        `json:"channel,omitempty" yaml:"channel,omitempty"`
	Timeout      time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// DefaultConfig returns a Config with no sinks configured and the
// documented 10-second delivery timeout.
func DefaultConfig() Config {
	return Config{Timeout: 10 * time.Second}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.WebhookURL != "" {
		c.WebhookURL = source.WebhookURL
	}
	if source.WebhookToken != "" {
		c.WebhookToken = source.WebhookToken
	}
	if source.GatewayURL != "" {
		c.GatewayURL = source.GatewayURL
	}
	if source.GatewayToken != "" {
		c.GatewayToken = source.GatewayToken
	}
	if source.Channel != "" {
		c.Channel = source.Channel
	}
	if source.Timeout > 0 {
		c.Timeout = source.Timeout
	}
}

// FromEnv populates the chat-gateway sink from the environment, following
// the token fallback chain OPENCLAW_GATEWAY_TOKEN -> OPENCLAW_TOKEN ->
// OPENCLAW_HOOKS_TOKEN, and OPENCLAW_URL for the gateway base (defaulting to
// http://127.0.0.1:18789).
func FromEnv() Config {
	cfg := DefaultConfig()

	token := firstNonEmpty(
		os.Getenv("OPENCLAW_GATEWAY_TOKEN"),
		os.Getenv("OPENCLAW_TOKEN"),
		os.Getenv("OPENCLAW_HOOKS_TOKEN"),
	)
	if token == "" {
		return cfg
	}

	cfg.GatewayToken = token
	cfg.GatewayURL = firstNonEmpty(os.Getenv("OPENCLAW_URL"), defaultGatewayURL)
	return cfg
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
