package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/relay-loop/ralph/agent"
	"github.com/relay-loop/ralph/config"
	"github.com/relay-loop/ralph/observability"
	"github.com/relay-loop/ralph/parser"
	"github.com/relay-loop/ralph/store"
)

func newParseCmd(verbose *bool) *cobra.Command {
	var (
		prd       string
		agentName string
		model     string
		workdir   string
		stateName string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse a PRD into a task list without starting the loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			if prd == "" {
				return fmt.Errorf("--prd is required")
			}

			logger := newLogger(*verbose)
			observer := observability.NewSlogObserver(logger)

			ctx, stop := rootSignalContext()
			defer stop()

			reg := agent.NewRegistry()
			list, err := parser.Parse(ctx, reg, agentName, model, prd, timeout, observer)
			if err != nil {
				return err
			}

			s, err := store.New(workdir, stateName, store.WithObserver(observer))
			if err != nil {
				return err
			}
			if err := s.SaveTasks(ctx, list); err != nil {
				return err
			}

			fmt.Printf("Parsed %d tasks into %s\n\n", len(list.Tasks), s.Root())
			printTaskTable(cmd.Context(), s)
			return nil
		},
	}

	cmd.Flags().StringVar(&prd, "prd", "", "path to the PRD markdown file")
	cmd.Flags().StringVar(&agentName, "agent", config.DefaultLoopConfig().Agent, "agent backend to prefer")
	cmd.Flags().StringVar(&model, "model", "", "model override passed to the agent backend")
	cmd.Flags().StringVar(&workdir, "workdir", ".", "repository working directory")
	cmd.Flags().StringVar(&stateName, "name", "", "state-root name override (.ralph-<name>)")
	cmd.Flags().DurationVar(&timeout, "timeout", config.DefaultLoopConfig().ParseTimeout, "per-backend parse timeout")

	return cmd
}

func printTaskTable(ctx context.Context, s *store.Store) error {
	list, err := s.LoadTasks(ctx)
	if err != nil {
		return err
	}
	if list == nil {
		fmt.Println("No task list found. Run `ralph parse` first.")
		return nil
	}

	fmt.Printf("%-8s %-12s %-4s %s\n", "ID", "STATUS", "PRI", "TITLE")
	for _, t := range list.Tasks {
		fmt.Printf("%-8s %-12s %-4d %s\n", t.ID, t.Status, t.Priority, t.Title)
	}
	completed, failed, total := list.Counts()
	fmt.Printf("\n%d/%d complete, %d failed\n", completed, total, failed)
	return nil
}
