package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-pivot/internal/ingestion"
	"github.com/jonathan/resume-pivot/internal/jobpost"
	"github.com/jonathan/resume-pivot/internal/types"
)

var selectCommand = &cobra.Command{
	Use:   "select <run-id>",
	Short: "Select a proposed role (or a custom title) and tailor the resume to it",
	Args:  cobra.ExactArgs(1),
	RunE:  runSelect,
}

var (
	selectRole    string
	selectTitle   string
	selectJDFile  string
	selectJDURL   string
	selectBrowser bool
)

func init() {
	selectCommand.Flags().StringVar(&selectRole, "role", "", "Id of a proposed role, e.g. role-1")
	selectCommand.Flags().StringVar(&selectTitle, "title", "", "Custom role title (instead of, or renaming, --role)")
	selectCommand.Flags().StringVar(&selectJDFile, "jd", "", "Path to a job description to tailor against, or - for stdin")
	selectCommand.Flags().StringVar(&selectJDURL, "jd-url", "", "URL of a job posting to tailor against")
	selectCommand.Flags().BoolVar(&selectBrowser, "browser", false, "Render --jd-url in headless Chrome when the page needs JavaScript")
	selectCommand.MarkFlagsMutuallyExclusive("jd", "jd-url")

	rootCmd.AddCommand(selectCommand)
}

func runSelect(cmd *cobra.Command, args []string) error {
	in := types.SelectRoleInput{RoleID: selectRole, CustomTitle: selectTitle}
	if selectJDFile != "" {
		jd, err := ingestion.ReadResume(selectJDFile, os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read job description: %w", err)
		}
		in.JobDescription = jd
	}

	return withApp(cmd, true, func(ctx context.Context, a *app, userID string) error {
		if selectJDURL != "" {
			opts := jobpost.Options{Logger: a.logger}
			if selectBrowser {
				opts.Render = jobpost.ChromeRenderer(jobpost.DefaultTimeout, a.logger)
			}
			posting, err := jobpost.NewFetcher(opts).Fetch(ctx, selectJDURL)
			if err != nil {
				return fmt.Errorf("failed to fetch job posting: %w", err)
			}
			in.JobDescription = posting.Text
		}

		run, err := a.svc.SelectRole(ctx, userID, args[0], in)
		if err != nil {
			return err
		}
		return printTailored(a, run)
	})
}

// printTailored shows the outcome of a tailoring pass
func printTailored(a *app, run *types.Run) error {
	return a.output(run, func() {
		a.printer.PrintRun(run)

		var scoring types.SkillScoring
		if ok, _ := run.Phase(types.PhaseScoring, &scoring); ok {
			a.printer.PrintScoring(&scoring)
		}
		if groups, err := bulletGroups(run); err == nil {
			a.printer.PrintBullets(groups)
		}
		var draft types.Draft
		if ok, _ := run.Phase(types.PhaseDraft, &draft); ok {
			fmt.Println()
			a.printer.PrintDraft(&draft)
		}
	})
}

// bulletGroups returns what chat edits operate on: per-job bullets, or the tailored list
func bulletGroups(run *types.Run) ([]types.BulletGroup, error) {
	var exp types.ExperiencePhase
	if _, err := run.Phase(types.PhaseExperience, &exp); err != nil {
		return nil, err
	}
	if len(exp.Jobs) > 0 {
		return exp.Jobs, nil
	}
	var tailored types.TailoredBullets
	if _, err := run.Phase(types.PhaseBullets, &tailored); err != nil {
		return nil, err
	}
	if len(tailored.Bullets) == 0 {
		return nil, nil
	}
	return []types.BulletGroup{{Title: run.TargetRole, Bullets: tailored.Bullets}}, nil
}
