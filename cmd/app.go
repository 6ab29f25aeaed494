package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"readsum/internal/config"
	"readsum/internal/database"
	"readsum/internal/domain"
	"readsum/internal/logger"
	"readsum/internal/pipeline"
	"readsum/internal/reader"
	"readsum/internal/summarizer"
)

// app holds the wired components shared by all commands.
type app struct {
	cfg          config.Config
	log          *slog.Logger
	db           *database.Database
	orchestrator *pipeline.Orchestrator
	closers      []func() error
}

type appOptions struct {
	logOut      io.Writer
	withHistory bool
	provider    string
}

func newApp(ctx context.Context, opts appOptions) (_ *app, err error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if opts.provider != "" {
		cfg.Provider = domain.Provider(opts.provider)
		if cfg.Provider != domain.ProviderOpenAI && cfg.Provider != domain.ProviderGemini {
			return nil, fmt.Errorf("unknown provider: %s", opts.provider)
		}
	}

	log, logCloser, err := logger.New(opts.logOut, cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(log)

	a := &app{
		cfg:     cfg,
		log:     log,
		closers: []func() error{logCloser.Close},
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, a.Close())
		}
	}()

	retriever, err := reader.New(cfg.ReaderMode, cfg.ReaderBaseURL, &http.Client{Timeout: cfg.FetchTimeout}, log)
	if err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "Reader is initialized",
		"mode", cfg.ReaderMode,
		"fetchTimeout", cfg.FetchTimeout.String())

	sum, err := a.initSummarizer(ctx)
	if err != nil {
		return nil, err
	}

	var pipelineOpts []pipeline.Option

	if opts.withHistory && cfg.HistoryEnabled() {
		db, dbErr := database.New(ctx, cfg.DBPath, log)
		if dbErr != nil {
			return nil, fmt.Errorf("initialize db: %w", dbErr)
		}
		a.db = db
		a.closers = append(a.closers, db.Close)
		pipelineOpts = append(pipelineOpts, pipeline.WithRecorder(db))

		log.InfoContext(ctx, "DB is initialized",
			"dbPath", cfg.DBPath)
	}

	a.orchestrator = pipeline.New(retriever, sum, cfg.APIKey(), log, pipelineOpts...)

	return a, nil
}

func (a *app) initSummarizer(ctx context.Context) (summarizer.Summarizer, error) {
	apiKey := a.cfg.APIKey()
	if apiKey == "" {
		a.log.WarnContext(ctx, "API key is missing so every run will be rejected",
			"provider", a.cfg.Provider)

		return nil, nil
	}

	switch a.cfg.Provider {
	case domain.ProviderGemini:
		s, err := summarizer.NewGeminiSummarizer(ctx, apiKey, a.cfg.Model(), a.log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)

		a.log.InfoContext(ctx, "Gemini summarizer is initialized",
			"model", a.cfg.Model())

		return s, nil
	default:
		s := summarizer.NewOpenAISummarizer(apiKey, a.cfg.Model(), a.log)

		a.log.InfoContext(ctx, "OpenAI summarizer is initialized",
			"model", s.Model())

		return s, nil
	}
}

// Close releases resources in reverse order of creation.
func (a *app) Close() error {
	var errs []error

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
