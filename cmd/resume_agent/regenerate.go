package main

import (
	"context"

	"github.com/spf13/cobra"
)

var regenerateCommand = &cobra.Command{
	Use:   "regenerate <run-id>",
	Short: "Rerun tailoring from scratch for the selected role",
	Long:  "Discards the tailoring output and chat edits of the run and tailors it again for the same role.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, true, func(ctx context.Context, a *app, userID string) error {
			run, err := a.svc.Regenerate(ctx, userID, args[0])
			if err != nil {
				return err
			}
			return printTailored(a, run)
		})
	},
}

var resumeCommand = &cobra.Command{
	Use:   "resume <run-id>",
	Short: "Continue an interrupted tailoring run from its first missing step",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, true, func(ctx context.Context, a *app, userID string) error {
			run, err := a.svc.ResumeTailoring(ctx, userID, args[0])
			if err != nil {
				return err
			}
			return printTailored(a, run)
		})
	},
}

func init() {
	rootCmd.AddCommand(regenerateCommand)
	rootCmd.AddCommand(resumeCommand)
}
