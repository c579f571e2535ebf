package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-pivot/internal/config"
	"github.com/jonathan/resume-pivot/internal/llm"
	"github.com/jonathan/resume-pivot/internal/logging"
	"github.com/jonathan/resume-pivot/internal/observability"
	"github.com/jonathan/resume-pivot/internal/pipeline"
	"github.com/jonathan/resume-pivot/internal/store"
	"github.com/jonathan/resume-pivot/internal/tailoring"
)

// app holds the wired dependencies of one CLI invocation
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	pool    *pgxpool.Pool
	client  llm.Client
	svc     *pipeline.Service
	printer *observability.Printer
}

// loadConfig merges the config layers and applies explicitly set flags on top
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("api-key") {
		cfg.APIKey = flagAPIKey
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = flagDatabaseURL
	}
	if flags.Changed("user") {
		cfg.UserID = flagUser
	}
	if flagVerbose {
		cfg.LogDebug = true
	}
	if flagJSONLogs {
		cfg.LogJSON = true
	}
	return cfg, nil
}

// newApp connects to the database and, when needModel is set, to the model. Commands that only
// read or restore stored state run without a model client.
func newApp(ctx context.Context, cmd *cobra.Command, needModel bool) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if needModel {
		err = cfg.Validate()
	} else {
		err = cfg.ValidateStorage()
	}
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, printer: observability.NewPrinter(os.Stdout)}

	a.pool, err = store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		a.Close()
		return nil, err
	}

	if needModel {
		a.client, err = llm.NewClient(ctx, cfg.LLMConfig(), cfg.APIKey)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create model client: %w", err)
		}
	}

	opts := pipeline.Options{EnrichConcurrency: cfg.EnrichConcurrency}
	if flagVerbose {
		opts.OnProgress = func(e tailoring.ProgressEvent) {
			_, _ = fmt.Fprintf(os.Stderr, "  [%s] %s\n", e.Step, e.Message)
		}
	}
	a.svc = pipeline.NewService(store.NewPostgresRegistry(a.pool), llm.NewExecutor(a.client, logger), opts)
	return a, nil
}

// user returns the configured user id
func (a *app) user() (string, error) {
	if a.cfg.UserID == "" {
		return "", fmt.Errorf("--user is required (or set RESUME_USER)")
	}
	return a.cfg.UserID, nil
}

// output prints v as JSON under --json, otherwise calls pretty
func (a *app) output(v any, pretty func()) error {
	if !flagJSONOutput {
		pretty()
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Close releases the model client and database pool
func (a *app) Close() {
	if a.client != nil {
		_ = a.client.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	_ = a.logger.Sync()
}

// withApp wires an app for the duration of fn
func withApp(cmd *cobra.Command, needModel bool, fn func(ctx context.Context, a *app, userID string) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, cmd, needModel)
	if err != nil {
		return err
	}
	defer a.Close()

	userID, err := a.user()
	if err != nil {
		return err
	}
	return fn(ctx, a, userID)
}
