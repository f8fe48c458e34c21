package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/relay-loop/ralph/task"
)

func TestNewCreatesScopedRoot(t *testing.T) {
	dir := t.TempDir()

	s, err := New(dir, "myprd")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(s.Root()) != ".ralph-myprd" {
		t.Fatalf("want .ralph-myprd, got %s", s.Root())
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "logs")); err != nil {
		t.Fatalf("logs dir not created: %v", err)
	}
}

func TestSaveLoadTasksRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, "")
	if err != nil {
		t.Fatal(err)
	}

	list := task.New("prd.md", time.Now())
	list.Tasks = []task.Task{{ID: "T1", Status: task.StatusPending}}

	ctx := context.Background()
	if err := s.SaveTasks(ctx, list); err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadTasks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got.Tasks) != 1 || got.Tasks[0].ID != "T1" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestLoadTasksMissingIsNotError(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, "")
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadTasks(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatal("expected nil list for missing file")
	}
}

func TestLockLifecycle(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, ok := s.ReadLock(); ok {
		t.Fatal("expected no lock initially")
	}

	rec := LockRecord{PID: 123, CurrentTask: "T1", PRDPath: "prd.md", Agent: "claude"}
	if err := s.WriteLock(ctx, rec); err != nil {
		t.Fatal(err)
	}

	got, ok := s.ReadLock()
	if !ok || got.PID != 123 {
		t.Fatalf("lock round trip failed: %+v ok=%v", got, ok)
	}

	if err := s.RemoveLock(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.ReadLock(); ok {
		t.Fatal("expected lock absent after removal")
	}
}

func TestAppendProgressPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := s.AppendProgress(ctx, "first entry"); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendProgress(ctx, "second entry"); err != nil {
		t.Fatal(err)
	}

	content, err := s.ReadProgress()
	if err != nil {
		t.Fatal(err)
	}
	firstIdx := strings.Index(content, "first entry")
	secondIdx := strings.Index(content, "second entry")
	if firstIdx == -1 || secondIdx == -1 || firstIdx > secondIdx {
		t.Fatalf("entries out of order: %q", content)
	}
}

func TestSaveTasksAtomicFailurePreservesPriorContent(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	good := task.New("prd.md", time.Now())
	good.Tasks = []task.Task{{ID: "T1", Status: task.StatusPending}}
	if err := s.SaveTasks(ctx, good); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(filepath.Join(s.Root(), tasksFileName))
	if err != nil {
		t.Fatal(err)
	}

	bad := task.New("prd.md", time.Now())
	bad.Tasks = []task.Task{
		{ID: "A", Status: task.StatusPending, DependsOn: []string{"ghost"}},
	}
	if err := s.SaveTasks(ctx, bad); err == nil {
		t.Fatal("expected validation failure before any write")
	}

	after, err := os.ReadFile(filepath.Join(s.Root(), tasksFileName))
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Fatal("prior file contents were not preserved")
	}
}
