// Package vcs is a narrow shim over the system git binary: repo detection,
// branch create/switch, change detection, and stage-all-and-commit. It
// shells out rather than linking a VCS library; the loop only needs these
// five operations.
package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Git wraps the system git binary rooted at a working directory.
type Git struct {
	workdir string
	bin     string
}

// New returns a Git shim rooted at workdir, invoking the "git" binary on PATH.
func New(workdir string) *Git {
	return &Git{workdir: workdir, bin: "git"}
}

func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, g.bin, args...)
	cmd.Dir = g.workdir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// IsRepo reports whether workdir is inside a git working tree.
func (g *Git) IsRepo(ctx context.Context) bool {
	_, err := g.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil
}

// CurrentBranch returns the current branch name.
func (g *Git) CurrentBranch(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// branchExists reports whether a local branch with the given name exists.
func (g *Git) branchExists(ctx context.Context, name string) bool {
	out, err := g.run(ctx, "branch", "--list", name)
	return err == nil && strings.TrimSpace(out) != ""
}

// CreateOrCheckoutBranch switches to the named branch, creating it from the
// current HEAD if it does not yet exist.
func (g *Git) CreateOrCheckoutBranch(ctx context.Context, name string) error {
	if g.branchExists(ctx, name) {
		_, err := g.run(ctx, "checkout", name)
		return err
	}
	_, err := g.run(ctx, "checkout", "-b", name)
	return err
}

// HasChanges reports whether the working tree has uncommitted changes.
func (g *Git) HasChanges(ctx context.Context) (bool, error) {
	out, err := g.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// CommitAll stages every change and commits it with the given message.
func (g *Git) CommitAll(ctx context.Context, message string) error {
	if _, err := g.run(ctx, "add", "-A"); err != nil {
		return err
	}
	_, err := g.run(ctx, "commit", "-m", message)
	return err
}

// PorcelainStatusLines returns the raw lines of `git status --porcelain`,
// used by the health watcher's merge-conflict check.
func (g *Git) PorcelainStatusLines(ctx context.Context) ([]string, error) {
	out, err := g.run(ctx, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(out) == "" {
		return nil, nil
	}
	return strings.Split(strings.TrimRight(out, "\n"), "\n"), nil
}
