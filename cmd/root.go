package cmd

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"abr-search/abr"
	"abr-search/config"
	"abr-search/services"
	"abr-search/storage"
	"abr-search/utils"
)

var (
	cfg    *config.Config
	logger *utils.Logger
)

var rootCmd = &cobra.Command{
	Use:          "abrsearch",
	Short:        "Search the Australian Business Register and export results as CSV",
	Long:         "Queries the ABR XML name search, keeps the raw payload and flattens each search result record into a CSV row.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()

		l, err := utils.NewLoggerWithLevel(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return eris.Wrap(err, "init logger")
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// env bundles everything a search needs. Close releases the database connection.
type env struct {
	Pipeline *services.Pipeline
	Store    *storage.FileStore
	Postgres *storage.PostgresWriter
	closers  []func() error
}

func (e *env) Close() {
	for _, c := range e.closers {
		if err := c(); err != nil {
			logger.Warn("close: %v", err)
		}
	}
}

func initPipeline(ctx context.Context) (*env, error) {
	store, err := storage.NewFileStore(cfg.DownloadDir)
	if err != nil {
		return nil, err
	}

	client := abr.NewClient(cfg.ClientConfig(), nil, logger)

	e := &env{Store: store}
	var recorder storage.SearchRecorder
	if cfg.PostgresEnabled() {
		pw, err := storage.NewPostgresWriter(ctx, cfg.DSN(), &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		})
		if err != nil {
			return nil, eris.Wrap(err, "connect to PostgreSQL")
		}
		recorder = pw
		e.Postgres = pw
		e.closers = append(e.closers, pw.Close)
		logger.Info("Recording searches in PostgreSQL (%s)", cfg.PostgresDB)
	}

	e.Pipeline = services.NewPipeline(client, store, recorder, logger)
	return e, nil
}
