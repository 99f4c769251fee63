package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs recorded in the ledger",
		RunE:  showHistory,
	}
	cmd.Flags().Int("limit", 20, "Number of runs to show")
	cmd.Flags().String("run", "", "Show the groups written by one run")
	return cmd
}

func showHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, os.LookupEnv)
	if err != nil {
		return err
	}
	if cfg.Storage.LedgerPath == "" {
		return errors.New("no ledger configured: set storage.ledger_path")
	}

	ledger, err := openLedger(cmd, cfg)
	if err != nil {
		return err
	}
	defer ledger.Close()

	ctx := cmd.Context()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer w.Flush()

	if runID, _ := cmd.Flags().GetString("run"); runID != "" {
		if _, err := ledger.GetRun(ctx, runID); err != nil {
			return err
		}
		groups, err := ledger.GroupsForRun(ctx, runID)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "GROUP\tSIZE\tSIMILARITY\tLABEL\tPATH")
		for _, g := range groups {
			fmt.Fprintf(w, "%s\t%d\t%.2f\t%s\t%s\n", g.GroupID, g.Size, g.Similarity, g.Label, g.Path)
		}
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := ledger.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "RUN\tSTARTED\tSTATUS\tARTICLES\tGROUPS\tFILES\tMETHOD")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Status,
			r.ArticlesUnique, r.ArticlesIn, r.GroupsFound, r.FilesWritten, r.Method)
	}
	return nil
}
