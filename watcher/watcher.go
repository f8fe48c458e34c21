// Package watcher implements the background health watcher: a ticker-driven
// goroutine that reports output-stall, low-disk, and merge-conflict
// conditions while an iteration is running. The free-space probe shells df,
// the conflict scan reads porcelain status, and shutdown takes priority
// over tick processing.
package watcher

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/relay-loop/ralph/observability"
	"github.com/relay-loop/ralph/vcs"
)

// Kind identifies the variant of a Watcher Event.
type Kind string

const (
	KindStall        Kind = "stall_detected"
	KindDiskWarning  Kind = "disk_space_warning"
	KindGitConflicts Kind = "git_conflicts_detected"
)

// Event is one emission from the watcher.
type Event struct {
	Kind            Kind
	NoOutputSeconds int64
	FreeBytes       uint64
}

// Config controls the watcher's check cadence and thresholds.
type Config struct {
	CheckInterval     time.Duration
	StallTimeout      time.Duration
	DiskWarnThreshold uint64 // bytes
}

// DefaultConfig returns a 5s check interval and a 1 GiB disk warning
// threshold. StallTimeout has no sensible default and must be set by the
// caller from the loop's configured stall timeout.
func DefaultConfig() Config {
	return Config{
		CheckInterval:     5 * time.Second,
		DiskWarnThreshold: 1 << 30,
	}
}

const eventChannelCapacity = 16

// LastOutput is a shared, lock-free "last output observed" clock, initialized
// to the current time and advanced by the iteration's stream readers on
// every line read.
type LastOutput struct {
	unixSeconds atomic.Int64
}

// NewLastOutput returns a clock initialized to now.
func NewLastOutput() *LastOutput {
	lo := &LastOutput{}
	lo.Touch()
	return lo
}

// Touch records output as having just been observed.
func (lo *LastOutput) Touch() {
	lo.unixSeconds.Store(time.Now().Unix())
}

func (lo *LastOutput) get() int64 {
	return lo.unixSeconds.Load()
}

// Handle controls a running watcher.
type Handle struct {
	stop   chan struct{}
	closed atomic.Bool
}

// Stop signals the watcher to exit; it will do so within one tick.
func (h *Handle) Stop() {
	if h.closed.CompareAndSwap(false, true) {
		close(h.stop)
	}
}

// Start launches the watcher goroutine and returns a shutdown handle, a
// bounded event channel, and the shared last-output clock.
func Start(ctx context.Context, workdir string, cfg Config, observer observability.Observer) (*Handle, <-chan Event, *LastOutput) {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}

	h := &Handle{stop: make(chan struct{})}
	events := make(chan Event, eventChannelCapacity)
	lastOutput := NewLastOutput()

	go run(ctx, workdir, cfg, h, events, lastOutput, observer)

	return h, events, lastOutput
}

func run(ctx context.Context, workdir string, cfg Config, h *Handle, events chan<- Event, lastOutput *LastOutput, observer observability.Observer) {
	defer close(events)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	stalled := false

	for {
		// Biased: always prefer a pending shutdown over starting another tick.
		select {
		case <-h.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		select {
		case <-h.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			stalled = checkStall(cfg, lastOutput, stalled, events)
			checkDisk(ctx, workdir, cfg, events, observer)
			checkGitConflicts(ctx, workdir, events, observer)
		}
	}
}

func checkStall(cfg Config, lastOutput *LastOutput, wasStalled bool, events chan<- Event) bool {
	if cfg.StallTimeout <= 0 {
		return false
	}

	now := time.Now().Unix()
	elapsed := now - lastOutput.get()

	if elapsed >= int64(cfg.StallTimeout.Seconds()) {
		if !wasStalled {
			emit(events, Event{Kind: KindStall, NoOutputSeconds: elapsed})
		}
		return true
	}
	return false
}

func checkDisk(ctx context.Context, workdir string, cfg Config, events chan<- Event, observer observability.Observer) {
	free, err := freeDiskBytes(ctx, workdir)
	if err != nil {
		observer.OnEvent(ctx, observability.Event{
			Type:      "watcher.disk.probe_failed",
			Level:     observability.LevelWarning,
			Timestamp: time.Now(),
			Source:    "watcher.checkDisk",
			Data:      map[string]any{"error": err.Error()},
		})
		return
	}
	if free < cfg.DiskWarnThreshold {
		emit(events, Event{Kind: KindDiskWarning, FreeBytes: free})
	}
}

// freeDiskBytes shells out to `df -k <path>` and parses the "Available"
// column (the fourth whitespace-separated field) of the data line.
func freeDiskBytes(ctx context.Context, path string) (uint64, error) {
	cmd := exec.CommandContext(ctx, "df", "-k", path)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return 0, err
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) < 2 {
		return 0, nil
	}
	fields := strings.Fields(lines[1])
	if len(fields) < 4 {
		return 0, nil
	}

	kb, err := strconv.ParseUint(fields[3], 10, 64)
	if err != nil {
		return 0, err
	}
	return kb * 1024, nil
}

func checkGitConflicts(ctx context.Context, workdir string, events chan<- Event, observer observability.Observer) {
	lines, err := vcs.New(workdir).PorcelainStatusLines(ctx)
	if err != nil {
		// Not a repo, or git unavailable: silently skip, matching the "best
		// effort" tone of the other checks.
		return
	}
	for _, line := range lines {
		if strings.HasPrefix(line, "UU") || strings.HasPrefix(line, "AA") || strings.HasPrefix(line, "DD") {
			emit(events, Event{Kind: KindGitConflicts})
			return
		}
	}
}

// emit is best-effort: a full channel drops the event rather than blocking
// the watcher's tick cadence.
func emit(events chan<- Event, e Event) {
	select {
	case events <- e:
	default:
	}
}
