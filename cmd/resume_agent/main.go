// Package main provides the resume_agent CLI: discover target roles for a resume, tailor it to
// a selected role and refine the result through chat edits.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "resume_agent",
	Short: "Resume Pivot CLI",
	Long: `Resume Pivot proposes target roles for a free-text resume, tailors the resume to the selected
role and lets you refine the tailored bullets with plain-language chat edits.

Runs are stored per user in PostgreSQL. Configuration is read from the environment (and .env),
then from the optional --config JSON file.`,
	SilenceUsage: true,
}

var (
	flagConfigPath  string
	flagUser        string
	flagVerbose     bool
	flagJSONLogs    bool
	flagJSONOutput  bool
	flagAPIKey      string
	flagDatabaseURL string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Path to config.json file (environment values take priority)")
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "User id owning the runs (defaults to RESUME_USER)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Print debug logs and pipeline progress")
	rootCmd.PersistentFlags().BoolVar(&flagJSONLogs, "json-logs", false, "Write logs as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagJSONOutput, "json", false, "Print results as JSON instead of formatted boxes")

	// Both default to their environment variables through the config layer
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "Gemini API key (defaults to GEMINI_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&flagDatabaseURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
