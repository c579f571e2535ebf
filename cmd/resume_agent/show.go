package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-pivot/internal/types"
)

var showCommand = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var showDraftOnly bool

var historyCommand = &cobra.Command{
	Use:   "history",
	Short: "List your most recent runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var historyLimit int

func init() {
	showCommand.Flags().BoolVar(&showDraftOnly, "draft", false, "Print only the draft text")
	historyCommand.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of runs to list (at most 20)")

	rootCmd.AddCommand(showCommand)
	rootCmd.AddCommand(historyCommand)
}

func runShow(cmd *cobra.Command, args []string) error {
	return withApp(cmd, false, func(ctx context.Context, a *app, userID string) error {
		run, err := a.svc.GetRun(ctx, userID, args[0])
		if err != nil {
			return err
		}

		if showDraftOnly {
			var draft types.Draft
			ok, err := run.Phase(types.PhaseDraft, &draft)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("run %s has no draft yet (status %s)", run.ID, run.Status)
			}
			a.printer.PrintDraft(&draft)
			return nil
		}

		if run.Status == types.StatusRoleSelection {
			return a.output(run, func() {
				a.printer.PrintRun(run)
				var roles types.RoleDiscovery
				if ok, _ := run.Phase(types.PhaseRoleDiscovery, &roles); ok {
					a.printer.PrintRoles(&roles)
				}
			})
		}
		return printTailored(a, run)
	})
}

func runHistory(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, false, func(ctx context.Context, a *app, userID string) error {
		history, err := a.svc.ListHistory(ctx, userID, historyLimit)
		if err != nil {
			return err
		}
		return a.output(history, func() {
			a.printer.PrintHistory(history)
		})
	})
}
