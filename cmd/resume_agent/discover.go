package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-pivot/internal/ingestion"
	"github.com/jonathan/resume-pivot/internal/types"
)

var discoverCommand = &cobra.Command{
	Use:   "discover",
	Short: "Create a run from a resume and propose target roles",
	Long: `Reads a resume (plain text or HTML, "-" for stdin), normalizes it and proposes target roles.
The new run waits for "select".`,
	RunE: runDiscover,
}

var (
	discoverResume     string
	discoverBackground string
)

func init() {
	discoverCommand.Flags().StringVarP(&discoverResume, "resume", "r", "", "Path to the resume file, or - for stdin")
	discoverCommand.Flags().StringVarP(&discoverBackground, "background", "b", "", "Short description of your background and goals")
	_ = discoverCommand.MarkFlagRequired("resume")

	rootCmd.AddCommand(discoverCommand)
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	resumeText, err := ingestion.ReadResume(discoverResume, os.Stdin)
	if err != nil {
		return err
	}

	return withApp(cmd, true, func(ctx context.Context, a *app, userID string) error {
		run, err := a.svc.CreateAndDiscover(ctx, userID, discoverBackground, resumeText)
		if err != nil {
			return err
		}
		return a.output(run, func() {
			a.printer.PrintRun(run)
			var roles types.RoleDiscovery
			if ok, _ := run.Phase(types.PhaseRoleDiscovery, &roles); ok {
				a.printer.PrintRoles(&roles)
			}
			fmt.Printf("\nNext: resume_agent select %s --role <id>\n", run.ID)
		})
	})
}
