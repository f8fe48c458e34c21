package status

import (
	"fmt"
	"testing"
)

func TestPushLogEvictsOldestBeyondCapacity(t *testing.T) {
	s := New("prd", "prd.md", "claude")

	for i := 0; i < recentLogCapacity+10; i++ {
		s.PushLog(fmt.Sprintf("line-%d", i))
	}

	snap := s.Snapshot()
	if len(snap.RecentLogs) != recentLogCapacity {
		t.Fatalf("want %d lines, got %d", recentLogCapacity, len(snap.RecentLogs))
	}
	if snap.RecentLogs[0] != "line-10" {
		t.Fatalf("want oldest-surviving line-10, got %q", snap.RecentLogs[0])
	}
}

func TestStateTransitions(t *testing.T) {
	s := New("prd", "prd.md", "claude")
	s.SetState(StateRunning, "")
	s.SetTotal(3)
	s.IncrementCompleted()
	s.SetIteration(2)

	snap := s.Snapshot()
	if snap.State != StateRunning || snap.Total != 3 || snap.Completed != 1 || snap.Iteration != 2 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}
