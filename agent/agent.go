// Package agent provides a polymorphic interface to a family of
// coding-assistant child-process backends, each wrapping a specific external
// binary invocation, plus the fallback policy used when one backend fails.
package agent

import (
	"context"
	"io"
	"os/exec"
)

// Child is a live child process with its three standard streams piped.
type Child struct {
	cmd     *exec.Cmd
	Stdin   io.WriteCloser
	Stdout  io.ReadCloser
	Stderr  io.ReadCloser
	cleanup func()
}

// Wait blocks until the child exits and returns its *exec.ExitError (or nil
// on success).
func (c *Child) Wait() error {
	err := c.cmd.Wait()
	if c.cleanup != nil {
		c.cleanup()
	}
	return err
}

// Kill sends the process a kill signal. Safe to call on an already-exited
// process.
func (c *Child) Kill() error {
	if c.cmd.Process == nil {
		return nil
	}
	return c.cmd.Process.Kill()
}

// ExitCode returns the child's exit code; valid only after Wait returns.
func (c *Child) ExitCode() int {
	if c.cmd.ProcessState == nil {
		return -1
	}
	return c.cmd.ProcessState.ExitCode()
}

// Adapter wraps one external coding-assistant binary.
type Adapter interface {
	// Name is the backend identifier used in configuration and fallback lists.
	Name() string
	// IsAvailable probes whether this backend's binary can be invoked on the
	// current host.
	IsAvailable(ctx context.Context) bool
	// Spawn starts the backend as a child process with the rendered prompt,
	// rooted at workdir, and returns it with piped standard streams.
	Spawn(ctx context.Context, prompt, workdir string, model string) (*Child, error)
}

// spawnPiped starts name with args rooted at workdir and pipes all three
// standard streams, mirroring the setup every adapter needs before handing
// control to the iteration supervisor.
func spawnPiped(ctx context.Context, workdir, name string, args ...string) (*Child, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = workdir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &Child{cmd: cmd, Stdin: stdin, Stdout: stdout, Stderr: stderr}, nil
}

// SpawnCommand starts an arbitrary command rooted at workdir with all three
// standard streams piped. Custom Adapter implementations (and test
// harnesses) use it to get the same spawn setup the built-in backends get.
func SpawnCommand(ctx context.Context, workdir, name string, args ...string) (*Child, error) {
	return spawnPiped(ctx, workdir, name, args...)
}

// which probes binary availability by shelling out to `which` rather than
// resolving PATH in-process, so the check observes exactly what a spawned
// shell would see.
func which(ctx context.Context, name string) bool {
	cmd := exec.CommandContext(ctx, "which", name)
	return cmd.Run() == nil
}
