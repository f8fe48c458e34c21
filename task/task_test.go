package task

import (
	"testing"
	"time"
)

func TestResetInProgress(t *testing.T) {
	l := New("prd.md", time.Now())
	l.Tasks = []Task{
		{ID: "A", Status: StatusInProgress},
		{ID: "B", Status: StatusComplete},
	}

	if !l.ResetInProgress() {
		t.Fatal("expected a change")
	}
	if l.Tasks[0].Status != StatusPending {
		t.Fatalf("want pending, got %s", l.Tasks[0].Status)
	}
	if l.ResetInProgress() {
		t.Fatal("second call should be a no-op")
	}
}

func TestAllCompleteAndCounts(t *testing.T) {
	l := New("prd.md", time.Now())
	l.Tasks = []Task{
		{ID: "A", Status: StatusComplete},
		{ID: "B", Status: StatusFailed},
	}

	if l.AllComplete() {
		t.Fatal("expected not all complete")
	}
	completed, failed, total := l.Counts()
	if completed != 1 || failed != 1 || total != 2 {
		t.Fatalf("got completed=%d failed=%d total=%d", completed, failed, total)
	}
}
