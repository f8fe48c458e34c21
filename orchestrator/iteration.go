package orchestrator

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/relay-loop/ralph/observability"
	"github.com/relay-loop/ralph/watcher"
)

// iterationOutcome is the structured result of one supervised child-process
// run: its exit code and captured standard streams, plus a non-nil
// supervisory error when the iteration itself failed (timeout, stall, or a
// non-success exit with empty stdout).
type iterationOutcome struct {
	exitCode int
	stdout   string
	stderr   string
	err      error
}

// runIteration spawns the adapter's child process with the rendered prompt
// and supervises it: a hard wall-clock deadline, a background health
// watcher bound to the stall timeout, and concurrent readers on stdout and
// stderr that keep the watcher's last-output clock alive and mirror lines
// into the shared status. The two stream readers always run in parallel
// with the waiter to avoid pipe-buffer deadlock, and are always drained
// before this function returns, satisfying the supervisor's "always drain"
// invariant independent of which branch (exit, timeout, stall) wins.
func (l *Loop) runIteration(prompt string) iterationOutcome {
	adapter, err := l.registry.Get(l.activeAgent)
	if err != nil {
		return iterationOutcome{err: fmt.Errorf("resolve agent %q: %w", l.activeAgent, err)}
	}

	// Child processes are spawned on an unattached context: cancellation of
	// the loop's outer context must never reach mid-iteration, only the
	// hard-deadline and stall kill paths below are allowed to end a child.
	child, err := adapter.Spawn(context.Background(), prompt, l.cfg.Workdir, l.cfg.Model)
	if err != nil {
		return iterationOutcome{err: fmt.Errorf("spawn agent: %w", err)}
	}

	watchCfg := watcher.DefaultConfig()
	watchCfg.StallTimeout = l.cfg.StallTimeout
	wHandle, watchEvents, lastOutput := watcher.Start(context.Background(), l.cfg.Workdir, watchCfg, l.observer)
	defer wHandle.Stop()

	var stdoutBuf, stderrBuf strings.Builder
	var wg sync.WaitGroup
	wg.Add(2)
	go l.readStream(child.Stdout, &stdoutBuf, lastOutput, false, &wg)
	go l.readStream(child.Stderr, &stderrBuf, lastOutput, true, &wg)

	// Wait closes the pipes once the child exits, so it runs only after both
	// readers reach EOF; otherwise output still buffered in a pipe is lost.
	waitCh := make(chan error, 1)
	go func() {
		wg.Wait()
		waitCh <- child.Wait()
	}()

	// kill ends the child and closes the read ends, releasing the readers
	// even if a grandchild still holds the pipes open.
	kill := func() {
		child.Kill()
		child.Stdout.Close()
		child.Stderr.Close()
		<-waitCh
	}

	timer := time.NewTimer(l.cfg.IterationTimeout)
	defer timer.Stop()

	var supervisorErr error
loop:
	for {
		select {
		case <-waitCh:
			break loop
		case <-timer.C:
			kill()
			supervisorErr = fmt.Errorf("Agent timed out after %ds", int(l.cfg.IterationTimeout.Seconds()))
			break loop
		case ev, ok := <-watchEvents:
			if !ok {
				watchEvents = nil
				continue
			}
			switch ev.Kind {
			case watcher.KindStall:
				kill()
				supervisorErr = fmt.Errorf("Agent stalled — no output for %ds", ev.NoOutputSeconds)
				break loop
			case watcher.KindDiskWarning, watcher.KindGitConflicts:
				l.observer.OnEvent(context.Background(), observability.Event{
					Type:      EventWatcherNonFatal,
					Level:     observability.LevelWarning,
					Timestamp: time.Now(),
					Source:    "orchestrator.runIteration",
					Data:      map[string]any{"kind": string(ev.Kind)},
				})
			}
		}
	}

	wg.Wait()

	out := iterationOutcome{
		exitCode: child.ExitCode(),
		stdout:   stdoutBuf.String(),
		stderr:   stderrBuf.String(),
	}

	if supervisorErr != nil {
		out.err = supervisorErr
		return out
	}

	if out.exitCode != 0 && strings.TrimSpace(out.stdout) == "" {
		out.err = fmt.Errorf("Agent exited with code %d: %s", out.exitCode, firstLine(out.stderr))
	}
	return out
}

// readStream scans a child stream line by line. Each line touches the
// watcher's last-output clock, optionally mirrors to the terminal when
// verbose, and is appended to the shared status's recent-log ring (stderr
// lines are tagged with a "[stderr] " prefix).
func (l *Loop) readStream(r io.Reader, buf *strings.Builder, lastOutput *watcher.LastOutput, isStderr bool, wg *sync.WaitGroup) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		buf.WriteString(line)
		buf.WriteByte('\n')

		lastOutput.Touch()

		display := line
		if isStderr {
			display = "[stderr] " + line
		}
		if l.cfg.Verbose {
			fmt.Println(display)
		}
		if l.status != nil {
			l.status.PushLog(display)
		}
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func containsCompletionMarker(stdout string) bool {
	return strings.Contains(stdout, completionMarker)
}
