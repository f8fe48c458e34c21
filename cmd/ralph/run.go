package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relay-loop/ralph/config"
	"github.com/relay-loop/ralph/coordinator"
	"github.com/relay-loop/ralph/dashboard"
	"github.com/relay-loop/ralph/notify"
	"github.com/relay-loop/ralph/observability"
	"github.com/relay-loop/ralph/orchestrator"
)

func newRunCmd(verbose *bool) *cobra.Command {
	var (
		prds         []string
		agentName    string
		model        string
		workdir      string
		branch       string
		noVCS        bool
		iterationCap int
		parallelism  int
		live         bool
		webhookURL   string
		gatewayURL   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive one or more PRDs to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(prds) == 0 {
				return fmt.Errorf("at least one --prd is required")
			}

			logger := newLogger(*verbose)
			observer := observability.NewSlogObserver(logger)

			// Flags beat the config-file/env overlay, which beats defaults.
			v := viperFrom(cmd.Context())
			cfg := config.DefaultLoopConfig()
			if s := v.GetString("agent"); s != "" && !cmd.Flags().Changed("agent") {
				agentName = s
			}
			if s := v.GetString("model"); s != "" && !cmd.Flags().Changed("model") {
				model = s
			}
			if s := v.GetString("workdir"); s != "" && !cmd.Flags().Changed("workdir") {
				workdir = s
			}
			cfg.Workdir = workdir
			cfg.Agent = agentName
			cfg.Model = model
			cfg.Branch = branch
			cfg.Notify.WebhookURL = webhookURL
			cfg.Notify.GatewayURL = gatewayURL
			if iterationCap > 0 {
				cfg.IterationCap = iterationCap
			}
			if noVCS {
				off := false
				cfg.VCS = &off
			}

			ctx, stop := rootSignalContext()
			defer stop()

			if len(prds) == 1 {
				cfg.PRDPath = prds[0]
				l, err := orchestrator.New(cfg,
					orchestrator.WithObserver(observer),
					orchestrator.WithNotifier(notify.New(cfg.Notify, observer)),
				)
				if err != nil {
					return err
				}
				return l.Run(ctx)
			}

			coordCfg := config.DefaultCoordinatorConfig()
			if parallelism > 0 {
				coordCfg.Parallelism = parallelism
			}

			opts := []coordinator.Option{coordinator.WithObserver(observer)}
			if live {
				opts = append(opts, coordinator.WithDashboard(dashboard.Run))
			}

			co := coordinator.New(coordCfg, opts...)
			results, err := co.Run(ctx, prds, cfg)
			if err != nil {
				return err
			}

			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
					fmt.Printf("FAILED %s: %v\n", r.Slug, r.Err)
				} else {
					fmt.Printf("OK     %s\n", r.Slug)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d PRDs failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&prds, "prd", nil, "path to a PRD markdown file (repeatable for parallel runs)")
	cmd.Flags().StringVar(&agentName, "agent", "claude", "agent backend to prefer (claude, codex, gemini, opencode)")
	cmd.Flags().StringVar(&model, "model", "", "model override passed to the agent backend")
	cmd.Flags().StringVar(&workdir, "workdir", ".", "repository working directory")
	cmd.Flags().StringVar(&branch, "branch", "", "branch name override (derived from the PRD path by default)")
	cmd.Flags().BoolVar(&noVCS, "no-vcs", false, "disable git branch/commit integration")
	cmd.Flags().IntVar(&iterationCap, "iteration-cap", 0, "override the max-iterations safety cap")
	cmd.Flags().IntVar(&parallelism, "parallelism", 0, "max concurrent loops when multiple --prd flags are given")
	cmd.Flags().BoolVar(&live, "dashboard", false, "render a live terminal dashboard while multiple loops run")
	cmd.Flags().StringVar(&webhookURL, "webhook-url", "", "generic JSON webhook endpoint for hook events")
	cmd.Flags().StringVar(&gatewayURL, "gateway-url", "", "chat-gateway endpoint for hook events")

	return cmd
}
