package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/relay-loop/ralph/store"
)

func newLogsCmd() *cobra.Command {
	var (
		workdir   string
		stateName string
		iteration int
		taskID    string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print iteration logs (the most recent one by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.New(workdir, stateName)
			if err != nil {
				return err
			}

			if iteration > 0 && taskID != "" {
				return catFile(s.LogPath(iteration, taskID))
			}

			logsDir := filepath.Join(s.Root(), "logs")
			entries, err := os.ReadDir(logsDir)
			if err != nil {
				return fmt.Errorf("read logs dir: %w", err)
			}
			if len(entries) == 0 {
				fmt.Println("No iteration logs yet.")
				return nil
			}

			names := make([]string, 0, len(entries))
			for _, e := range entries {
				if !e.IsDir() {
					names = append(names, e.Name())
				}
			}
			sort.Strings(names)

			if iteration == 0 && taskID == "" {
				latest, latestN := names[len(names)-1], -1
				for _, name := range names {
					var n int
					if _, err := fmt.Sscanf(name, "iteration-%d-", &n); err == nil && n > latestN {
						latest, latestN = name, n
					}
				}
				return catFile(filepath.Join(logsDir, latest))
			}

			// Only one of --iteration / --task given: list the matches.
			for _, name := range names {
				if iteration > 0 && !strings.HasPrefix(name, fmt.Sprintf("iteration-%d-", iteration)) {
					continue
				}
				if taskID != "" && !strings.HasSuffix(name, "-"+taskID+".log") {
					continue
				}
				fmt.Println(name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&workdir, "workdir", ".", "repository working directory")
	cmd.Flags().StringVar(&stateName, "name", "", "state-root name override (.ralph-<name>)")
	cmd.Flags().IntVar(&iteration, "iteration", 0, "iteration number to print")
	cmd.Flags().StringVar(&taskID, "task", "", "task id to print")

	return cmd
}

func catFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}
