package task

import (
	"testing"
	"time"
)

func TestPickNextRespectsDependencyOrdering(t *testing.T) {
	l := New("prd.md", time.Now())
	l.Tasks = []Task{
		{ID: "A", Status: StatusPending, Priority: 1, DependsOn: []string{"B"}},
		{ID: "B", Status: StatusPending, Priority: 2},
	}

	got, ok := PickNext(l)
	if !ok {
		t.Fatal("expected a task to be picked")
	}
	if got.ID != "B" {
		t.Fatalf("want B (its dependency A is unmet), got %s", got.ID)
	}
}

func TestPickNextMinimizesPriority(t *testing.T) {
	l := New("prd.md", time.Now())
	l.Tasks = []Task{
		{ID: "A", Status: StatusPending, Priority: 5},
		{ID: "B", Status: StatusPending, Priority: 1},
		{ID: "C", Status: StatusPending, Priority: 3},
	}

	got, ok := PickNext(l)
	if !ok || got.ID != "B" {
		t.Fatalf("want B, got %v ok=%v", got, ok)
	}
}

func TestPickNextNoneEligible(t *testing.T) {
	l := New("prd.md", time.Now())
	l.Tasks = []Task{
		{ID: "A", Status: StatusComplete},
		{ID: "B", Status: StatusFailed},
	}

	if _, ok := PickNext(l); ok {
		t.Fatal("expected no eligible task")
	}
}

func TestPickNextIgnoresNonPending(t *testing.T) {
	l := New("prd.md", time.Now())
	l.Tasks = []Task{
		{ID: "A", Status: StatusInProgress, Priority: 0},
		{ID: "B", Status: StatusPending, Priority: 9},
	}

	got, ok := PickNext(l)
	if !ok || got.ID != "B" {
		t.Fatalf("want B, got %v ok=%v", got, ok)
	}
}
