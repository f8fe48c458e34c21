package notify

import "testing"

func TestFormatMessageEmojiPrefixes(t *testing.T) {
	cases := []struct {
		kind   Kind
		prefix string
	}{
		{KindTaskComplete, "✅"},
		{KindTaskFailed, "❌"},
		{KindAllComplete, "🎉"},
		{KindCircuitBreaker, "⚠️"},
		{KindMaxIterations, "⚠️"},
	}

	for _, c := range cases {
		msg := formatMessage(Event{Kind: c.kind})
		if len(msg) == 0 || msg[:len(c.prefix)] != c.prefix {
			t.Errorf("kind %s: message %q does not start with %q", c.kind, msg, c.prefix)
		}
	}
}

func TestTruncatePreservesShortStrings(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Errorf("want unchanged, got %q", got)
	}
}

func TestTruncateCutsLongStrings(t *testing.T) {
	got := truncate("hello world", 5)
	if got != "hello…" {
		t.Errorf("got %q", got)
	}
}

func TestFromEnvTokenFallbackChain(t *testing.T) {
	t.Setenv("OPENCLAW_GATEWAY_TOKEN", "")
	t.Setenv("OPENCLAW_TOKEN", "")
	t.Setenv("OPENCLAW_HOOKS_TOKEN", "legacy-token")

	cfg := FromEnv()
	if cfg.GatewayToken != "legacy-token" {
		t.Fatalf("want legacy-token, got %q", cfg.GatewayToken)
	}
	if cfg.GatewayURL != defaultGatewayURL {
		t.Fatalf("want default gateway url, got %q", cfg.GatewayURL)
	}
}
