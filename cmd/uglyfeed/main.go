package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "uglyfeed",
		Short:         "Group similar news articles and write each group as JSON",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "config.yaml", "Path to the configuration file")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("env-file", ".env", "File with UGLYFEED_* variables to export")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return loadEnvFile(cmd)
	}

	root.AddCommand(newRunCmd(), newConfigCmd(), newHistoryCmd())
	return root
}
