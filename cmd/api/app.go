package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/afero"
	"sitevoice-go/internal/audio"
	"sitevoice-go/internal/config"
	"sitevoice-go/internal/dataset"
	"sitevoice-go/internal/logger"
	"sitevoice-go/internal/pipeline"
	"sitevoice-go/internal/processor"
	"sitevoice-go/internal/provider"
	"sitevoice-go/internal/retryhttp"
	"sitevoice-go/internal/store"
)

// app is the wired object graph shared by every subcommand that runs the
// pipeline.
type app struct {
	cfg   config.Config
	log   *logger.Logger
	store *store.Store
	proc  *processor.Processor
}

func openStore(cfg config.Config, log *logger.Logger) (*store.Store, error) {
	st, err := store.Open(cfg.DatabasePath, log)
	if err != nil {
		return nil, err
	}
	log.WithField("database", cfg.DatabasePath).Info("database opened")
	return st, nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}

	st, err := openStore(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}

	examples, err := dataset.LoadExamples(cfg.ExamplesPath)
	if err != nil {
		log.WithError(err).WithField("examples_path", cfg.ExamplesPath).Warn("failed to load examples, using built-in set")
		examples = dataset.DefaultExamples
	}
	summary := dataset.Summarize(examples, log)
	log.WithField("total_examples", summary.TotalExamples).Info("few-shot examples loaded")

	client := retryhttp.New(&http.Client{}, retryhttp.Options{
		FirstAttemptTimeout: cfg.HTTP.FirstAttemptTimeout,
		RetryTimeout:        cfg.HTTP.RetryTimeout,
		Delay:               cfg.HTTP.RetryDelay,
		MaxAttempts:         cfg.HTTP.MaxAttempts,
	}, log)

	router := &audio.Router{
		HTTP: audio.NewHTTPSource(client),
		File: audio.NewFileSource(afero.NewOsFs()),
	}
	if cfg.Audio.S3Region != "" {
		s3src, err := audio.NewS3Source(ctx, cfg.Audio.S3Region)
		if err != nil {
			log.WithError(err).Warn("s3 audio source unavailable")
		} else {
			router.S3 = s3src
		}
	}

	orch := pipeline.New(st, provider.NewRegistry(cfg, client), router, pipeline.Options{
		DefaultProvider: cfg.DefaultProvider,
		ContextHint:     cfg.ContextHint,
		Examples:        examples,
	}, log)

	return &app{
		cfg:   cfg,
		log:   log,
		store: st,
		proc:  processor.New(orch, log),
	}, nil
}

func (a *app) Close() error {
	if err := a.store.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
