package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/relay-loop/ralph/store"
)

func newStopCmd() *cobra.Command {
	var (
		workdir   string
		stateName string
	)

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Signal the loop owning this workdir's lock to stop",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.New(workdir, stateName)
			if err != nil {
				return err
			}

			rec, ok := s.ReadLock()
			if !ok {
				fmt.Println("No loop is running here.")
				return nil
			}

			if !processAlive(rec.PID) {
				fmt.Printf("Stale lock (pid %d is dead); removing.\n", rec.PID)
				return s.RemoveLock(cmd.Context())
			}

			// SIGTERM is observed at the loop's next iteration boundary; the
			// in-flight child finishes (or hits its own timeout) first.
			proc, err := os.FindProcess(rec.PID)
			if err != nil {
				return err
			}
			if err := proc.Signal(syscall.SIGTERM); err != nil {
				return fmt.Errorf("signal pid %d: %w", rec.PID, err)
			}
			fmt.Printf("Sent SIGTERM to pid %d; the loop stops at its next iteration boundary.\n", rec.PID)
			return nil
		},
	}

	cmd.Flags().StringVar(&workdir, "workdir", ".", "repository working directory")
	cmd.Flags().StringVar(&stateName, "name", "", "state-root name override (.ralph-<name>)")

	return cmd
}
