package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-pivot/internal/store"
)

var migrateCommand = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		a, err := newApp(ctx, cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := store.Migrate(ctx, a.pool, a.logger); err != nil {
			return err
		}
		fmt.Println("Database is up to date.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCommand)
}
