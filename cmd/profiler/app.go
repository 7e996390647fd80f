package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jonathan/profiler/internal/config"
	"github.com/jonathan/profiler/internal/db"
	"github.com/jonathan/profiler/internal/documents"
	"github.com/jonathan/profiler/internal/extraction"
	"github.com/jonathan/profiler/internal/fetch"
	"github.com/jonathan/profiler/internal/ingestion"
	"github.com/jonathan/profiler/internal/llm"
	"github.com/jonathan/profiler/internal/notification"
	"github.com/jonathan/profiler/internal/observability"
	"github.com/jonathan/profiler/internal/profile"
	"github.com/jonathan/profiler/internal/qa"
	"github.com/jonathan/profiler/internal/recommendation"
	"github.com/jonathan/profiler/internal/scoring"
	"github.com/jonathan/profiler/internal/server"
)

// app holds the configuration, logger and services shared by commands
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	database *db.DB
	watcher  *profile.TemplateWatcher
	closers  []io.Closer

	scorer          *scoring.ProfileScorer
	profiles        *profile.Service
	documents       *documents.Service
	answers         *qa.Service
	notifications   *notification.Service
	recommendations *recommendation.Service
}

// loadApp loads configuration and builds the logger. Call connect before
// using any database-backed service.
func loadApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, closer, err := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		closers: []io.Closer{closer},
		scorer:  scoring.NewProfileScorer(cfg.Scoring),
	}, nil
}

// connect opens the database, optionally migrates it and wires every service
func (a *app) connect(ctx context.Context, migrate bool) error {
	if a.cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL not set (set DATABASE_URL environment variable or database_url in the config file)")
	}

	database, err := db.Connect(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.database = database

	if migrate {
		applied, err := database.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		if len(applied) > 0 {
			a.logger.Info("migrations applied", "versions", applied)
		}
	}

	templates, err := a.templateSource()
	if err != nil {
		return err
	}

	pipeline, err := a.extractionPipeline(ctx)
	if err != nil {
		return err
	}

	var pusher notification.Pusher
	if a.cfg.Webhook.URL != "" {
		pusher = notification.NewWebhookPusher(a.cfg.Webhook.URL, a.cfg.WebhookTimeout())
	}

	policy, err := a.cfg.Policy()
	if err != nil {
		return err
	}

	a.profiles = profile.NewService(database, templates, a.scorer, a.logger)
	a.documents = documents.NewService(database, a.ingester(), pipeline, a.logger)
	a.answers = qa.NewService(database, a.logger)
	a.notifications = notification.NewService(database, pusher, a.logger)
	a.recommendations = recommendation.NewService(database, a.profiles, a.answers, a.documents, a.notifications, recommendation.Options{
		PeerLimit:   a.cfg.Recommendations.PeerLimit,
		AnswerLimit: a.cfg.Recommendations.AnswerLimit,
		Policy:      policy,
	}, a.logger)
	return nil
}

// services returns the REST API dependencies
func (a *app) services() server.Services {
	return server.Services{
		Profiles:        a.profiles,
		Documents:       a.documents,
		QA:              a.answers,
		Recommendations: a.recommendations,
		Notifications:   a.notifications,
		Store:           a.database,
	}
}

// templateSource returns the profile template, watching the file for edits
// when configured
func (a *app) templateSource() (profile.TemplateSource, error) {
	path := a.cfg.Template.Path
	if path == "" {
		return profile.StaticTemplate(profile.DefaultTemplate()), nil
	}
	if !a.cfg.Template.Watch {
		tmpl, err := profile.LoadTemplate(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load profile template: %w", err)
		}
		return profile.StaticTemplate(tmpl), nil
	}

	watcher, err := profile.NewTemplateWatcher(path, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile template: %w", err)
	}
	a.watcher = watcher
	return watcher, nil
}

// ingester builds the document ingester, rendering JS-heavy pages in a
// headless browser when enabled
func (a *app) ingester() *ingestion.Ingester {
	if !a.cfg.Fetch.UseBrowser {
		return ingestion.NewIngester(a.logger)
	}
	return ingestion.NewIngester(a.logger, ingestion.WithBrowser(fetch.NewBrowser(a.cfg.BrowserTimeout(), a.logger)))
}

// extractionPipeline uses the LLM extractor when an API key is configured and
// regex extraction only otherwise
func (a *app) extractionPipeline(ctx context.Context) (*extraction.Pipeline, error) {
	if a.cfg.APIKey == "" {
		a.logger.Info("GEMINI_API_KEY not set, using regex extraction only")
		return extraction.NewPipeline(nil, a.logger), nil
	}

	llmConfig := llm.DefaultConfig()
	if a.cfg.LLMModel != "" {
		llmConfig = llmConfig.WithModel(llm.TierLite, a.cfg.LLMModel)
	}
	client, err := llm.NewClient(ctx, llmConfig, a.cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	a.closers = append(a.closers, client)
	return extraction.NewPipeline(extraction.NewLLMExtractor(client), a.logger), nil
}

// Close releases the database, template watcher, LLM client and log file
func (a *app) Close() {
	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			a.logger.Warn("failed to stop template watcher", "error", err)
		}
	}
	if a.database != nil {
		a.database.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
}
