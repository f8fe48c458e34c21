package coordinator

import (
	"reflect"
	"testing"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/tmp/My Feature.md", "my-feature"},
		{"plain.md", "plain"},
		{"/a/b/UPPER_case  stuff!.md", "upper-case-stuff"},
		{"--weird--.md", "weird"},
	}
	for _, tc := range cases {
		if got := slugify(tc.path); got != tc.want {
			t.Errorf("slugify(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestUniqueSlugsAppendsCounters(t *testing.T) {
	got := uniqueSlugs([]string{
		"/a/feature.md",
		"/b/feature.md",
		"/c/feature.md",
		"/d/other.md",
	})
	want := []string{"feature", "feature-2", "feature-3", "other"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
