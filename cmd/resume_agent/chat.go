package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
)

var chatCommand = &cobra.Command{
	Use:   "chat <run-id> <message...>",
	Short: "Edit the tailored bullets with a plain-language message",
	Long: `Resolves a message such as "shorten bullet 2", "make the second job more technical" or
"ATS all bullets" into a bullet rewrite and applies it. "undo" restores the previous version.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := strings.Join(args[1:], " ")
		return withApp(cmd, true, func(ctx context.Context, a *app, userID string) error {
			res, err := a.svc.ApplyChatEdit(ctx, userID, args[0], message)
			if err != nil {
				return err
			}
			return a.output(res, func() {
				a.printer.PrintReply(res.Reply, res.Intent)
				if res.Intent != nil {
					if groups, err := bulletGroups(res.Run); err == nil {
						a.printer.PrintBullets(groups)
					}
				}
			})
		})
	},
}

var undoCommand = &cobra.Command{
	Use:   "undo <run-id>",
	Short: "Restore the bullets as they were before the last edit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, false, func(ctx context.Context, a *app, userID string) error {
			run, err := a.svc.UndoEdit(ctx, userID, args[0])
			if err != nil {
				return err
			}
			return a.output(run, func() {
				if groups, err := bulletGroups(run); err == nil {
					a.printer.PrintBullets(groups)
				}
			})
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCommand)
	rootCmd.AddCommand(undoCommand)
}
