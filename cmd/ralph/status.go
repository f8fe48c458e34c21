package main

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/relay-loop/ralph/store"
)

func newStatusCmd() *cobra.Command {
	var (
		workdir   string
		stateName string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the task list and any active loop for a workdir",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.New(workdir, stateName)
			if err != nil {
				return err
			}

			if rec, ok := s.ReadLock(); ok {
				if processAlive(rec.PID) {
					fmt.Printf("Loop running (pid %d, agent %s) since %s\n", rec.PID, rec.Agent, rec.StartedAt.Format(time.RFC3339))
					if rec.CurrentTask != "" {
						fmt.Printf("Current task: %s (%s)\n", rec.CurrentTask, rec.Progress)
					}
				} else {
					fmt.Printf("Stale lock (pid %d is dead); removing.\n", rec.PID)
					s.RemoveLock(cmd.Context())
				}
				fmt.Println()
			}

			return printTaskTable(cmd.Context(), s)
		},
	}

	cmd.Flags().StringVar(&workdir, "workdir", ".", "repository working directory")
	cmd.Flags().StringVar(&stateName, "name", "", "state-root name override (.ralph-<name>)")

	return cmd
}

// processAlive probes a pid with signal 0. Orphaned lock records whose
// writer has died read as stale and may be cleaned up.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
