package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/relay-loop/ralph/store"
)

func newWatchCmd() *cobra.Command {
	var (
		workdir   string
		stateName string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a running loop's state, re-rendering on every change",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.New(workdir, stateName)
			if err != nil {
				return err
			}

			w, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer w.Close()
			if err := w.Add(s.Root()); err != nil {
				return err
			}

			ctx, stop := rootSignalContext()
			defer stop()

			render := func() {
				fmt.Print("\033[2J\033[H")
				fmt.Printf("Watching %s — %s\n\n", s.Root(), time.Now().Format("15:04:05"))
				printTaskTable(ctx, s)
			}
			render()

			// Atomic task-list replaces surface as Create events for
			// tasks.json; journal appends surface as Write events. Both
			// trigger a re-render, anything else (lock churn, log files) is
			// ignored to keep the view quiet.
			for {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-w.Events:
					if !ok {
						return nil
					}
					name := filepath.Base(ev.Name)
					if name == "tasks.json" || strings.HasPrefix(name, "progress") {
						render()
					}
				case err, ok := <-w.Errors:
					if !ok {
						return nil
					}
					fmt.Printf("watch error: %v\n", err)
				}
			}
		},
	}

	cmd.Flags().StringVar(&workdir, "workdir", ".", "repository working directory")
	cmd.Flags().StringVar(&stateName, "name", "", "state-root name override (.ralph-<name>)")

	return cmd
}
