package agent

import (
	"context"
	"testing"
)

func TestRegistryListIncludesBuiltins(t *testing.T) {
	r := NewRegistry()
	names := r.List()

	want := map[string]bool{"claude": false, "codex": false, "gemini": false, "opencode": false, "api": false}
	for _, n := range names {
		want[n] = true
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected built-in backend %q to be registered", name)
		}
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get("nonexistent"); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

type fakeAdapter struct {
	name      string
	available bool
}

func (f fakeAdapter) Name() string                    { return f.name }
func (f fakeAdapter) IsAvailable(context.Context) bool { return f.available }
func (f fakeAdapter) Spawn(context.Context, string, string, string) (*Child, error) {
	return nil, nil
}

func TestNextFallbackSkipsCurrentAndUnavailable(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeAdapter{name: "codex", available: false})
	r.Register(fakeAdapter{name: "gemini", available: true})
	r.Register(fakeAdapter{name: "claude", available: true})

	next, ok := NextFallback(context.Background(), r, "claude")
	if !ok || next != "gemini" {
		t.Fatalf("want gemini, got %q ok=%v", next, ok)
	}
}

func TestNextFallbackExhausted(t *testing.T) {
	r := NewRegistry()
	for _, name := range FallbackOrder {
		r.Register(fakeAdapter{name: name, available: false})
	}

	if _, ok := NextFallback(context.Background(), r, "claude"); ok {
		t.Fatal("expected no fallback available")
	}
}
