// Command ralph is the thin CLI boundary over the orchestrator, coordinator,
// and store packages: flag/env/YAML parsing via cobra + viper, structured
// logging via slog, everything else delegated to the library packages.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// viperKey is the context key the root command stashes the resolved
// *viper.Viper under for subcommands to read configuration overrides from.
type viperKey struct{}

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		verbose bool
	)

	root := &cobra.Command{
		Use:           "ralph",
		Short:         "Drive one or more PRDs to completion with a supervised coding-agent loop",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			v.SetEnvPrefix("RALPH")
			v.AutomaticEnv()
			if cfgFile != "" {
				v.SetConfigFile(cfgFile)
				v.SetConfigType("yaml")
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("read config file: %w", err)
				}
			}
			cmd.SetContext(context.WithValue(cmd.Context(), viperKey{}, v))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newRunCmd(&verbose),
		newParseCmd(&verbose),
		newStatusCmd(),
		newWatchCmd(),
		newLogsCmd(),
		newStopCmd(),
	)
	return root
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func rootSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// viperFrom recovers the config-overlay Viper instance the root command
// stashed on the command context, falling back to an empty one when a
// subcommand is invoked directly (e.g. from a test harness).
func viperFrom(ctx context.Context) *viper.Viper {
	if v, ok := ctx.Value(viperKey{}).(*viper.Viper); ok {
		return v
	}
	return viper.New()
}
