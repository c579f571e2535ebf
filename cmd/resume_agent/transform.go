package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-pivot/internal/types"
)

var transformCommand = &cobra.Command{
	Use:   "transform <run-id>",
	Short: "Rewrite bullets in a given style",
	Long: `Rewrites bullets directly, without interpreting a chat message.
Styles: short, leadership, ats, plain, impact, technical. Jobs and bullets are numbered from 1,
as shown by "show".`,
	Args: cobra.ExactArgs(1),
	RunE: runTransform,
}

var (
	transformStyle   string
	transformJob     int
	transformBullets string
)

func init() {
	transformCommand.Flags().StringVarP(&transformStyle, "style", "s", "", "Rewrite style")
	transformCommand.Flags().IntVarP(&transformJob, "job", "j", 0, "Job number (default: every job)")
	transformCommand.Flags().StringVarP(&transformBullets, "bullets", "b", "", "Comma separated bullet numbers, e.g. 1,3 (default: every bullet)")
	_ = transformCommand.MarkFlagRequired("style")

	rootCmd.AddCommand(transformCommand)
}

func runTransform(cmd *cobra.Command, args []string) error {
	in := types.TransformInput{Style: types.EditStyle(strings.ToLower(transformStyle))}
	if cmd.Flags().Changed("job") {
		if transformJob < 1 {
			return fmt.Errorf("--job must be 1 or more")
		}
		job := transformJob - 1
		in.JobIndex = &job
	}
	indices, err := parseBulletList(transformBullets)
	if err != nil {
		return err
	}
	in.BulletIndices = indices

	return withApp(cmd, true, func(ctx context.Context, a *app, userID string) error {
		out, err := a.svc.TransformBullets(ctx, userID, args[0], in)
		if err != nil {
			return err
		}
		return a.output(out, func() {
			for _, b := range out {
				fmt.Printf("- %s\n", b)
			}
		})
	})
}

// parseBulletList turns "1, 3" into zero-based indices [0 2]
func parseBulletList(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid bullet number %q", part)
		}
		out = append(out, n-1)
	}
	return out, nil
}
