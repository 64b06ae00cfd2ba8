package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobhunter/internal/ai"
	"github.com/amishk599/jobhunter/internal/config"
	"github.com/amishk599/jobhunter/internal/feed"
	"github.com/amishk599/jobhunter/internal/filter"
	"github.com/amishk599/jobhunter/internal/lifecycle"
	"github.com/amishk599/jobhunter/internal/model"
	"github.com/amishk599/jobhunter/internal/notifier"
	"github.com/amishk599/jobhunter/internal/poller"
	"github.com/amishk599/jobhunter/internal/ratelimit"
	"github.com/amishk599/jobhunter/internal/retry"
	"github.com/amishk599/jobhunter/internal/scheduler"
	"github.com/amishk599/jobhunter/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobhunter",
	Short: "Entry-level job feed and application tracker",
	Long: "jobhunter collects scored job postings from your feeds, keeps the entry-level ones,\n" +
		"and tracks the applications you send from a local queue.",
	SilenceUsage: true,
	// With no subcommand, run the feed daemon.
	RunE: runStart,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBHUNTER_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBHUNTER_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBHUNTER_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

func setupLetterWriter(cfg *config.Config, logger *slog.Logger) ai.LetterWriter {
	fallback := ai.NewTemplateLetterWriter(cfg.User.Name)
	if !cfg.AI.Enabled {
		return fallback
	}
	logger.Debug("using openai letter writer", "model", cfg.AI.Model)
	provider := ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, &http.Client{Timeout: cfg.AI.Timeout})
	return ai.NewLLMLetterWriter(provider, ai.ApplicationLetterTemplate, fallback, logger)
}

// setupScorer returns nil when AI is off or the user has no profile, in
// which case postings keep their feed score.
func setupScorer(cfg *config.Config, logger *slog.Logger) poller.MatchScorer {
	profile := ai.Profile{Summary: cfg.User.Summary, Skills: cfg.User.Skills, Tools: cfg.User.Tools}
	if !cfg.AI.Enabled || profile.Empty() {
		return nil
	}
	logger.Debug("using openai match scorer", "model", cfg.AI.Model)
	provider := ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, &http.Client{Timeout: cfg.AI.Timeout}).
		WithChat(ai.ScoringChat)
	return ai.NewLLMMatchScorer(provider, ai.MatchScoreTemplate, profile, logger)
}

func newNormalizer(cfg *config.Config) *feed.Normalizer {
	return feed.NewNormalizer(filter.NewEntryLevelFilter(cfg.Filters.IncludeKeywords, cfg.Filters.ExcludeKeywords))
}

func createSource(fc config.FeedConfig, httpClient *http.Client) (model.FeedSource, bool) {
	switch fc.Type {
	case config.FeedFile:
		return feed.NewFileSource(fc.Name, fc.Path), true
	case config.FeedGreenhouse:
		return feed.NewGreenhouseSource(fc.BoardToken, fc.Company, fc.DefaultScore, httpClient), true
	case config.FeedLever:
		return feed.NewLeverSource(fc.BoardToken, fc.Company, fc.DefaultScore, httpClient), true
	default:
		return nil, false
	}
}

func buildPollers(cfg *config.Config, postings model.PostingStore, n model.Notifier, httpClient *http.Client, logger *slog.Logger) []*poller.FeedPoller {
	normalizer := newNormalizer(cfg)
	limiter := ratelimit.NewBackendLimiter(cfg.RateLimit.MinDelay)
	logger.Info("feed rate limit", "min_delay", cfg.RateLimit.MinDelay.String())
	scorer := setupScorer(cfg, logger)

	var pollers []*poller.FeedPoller
	for _, fc := range cfg.EnabledFeeds() {
		source, ok := createSource(fc, httpClient)
		if !ok {
			logger.Warn("unsupported feed type, skipping", "feed", fc.Name, "type", fc.Type)
			continue
		}

		if fc.Type != config.FeedFile {
			source = ratelimit.NewRateLimitedSource(source, limiter, fc.Type)
		}
		source = retry.NewRetrySource(source, fc.MaxRetries, 2*time.Second, logger)
		fp := poller.NewFeedPoller(fc.Name, source, normalizer, postings, n, logger)
		// Local files carry their own scores.
		if fc.Type != config.FeedFile && scorer != nil {
			fp.WithScorer(scorer)
		}
		pollers = append(pollers, fp)
		logger.Info("registered feed", "name", fc.Name, "type", fc.Type)
	}
	return pollers
}

// app bundles what the user-facing commands share.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.SQLiteStore
	runner *scheduler.DelayedRunner
	engine *lifecycle.Engine
}

func openApp(ctx context.Context) (*app, error) {
	return openAppWithLogger(ctx, nil)
}

// openAppWithLogger is openApp with a separate logger for the engine and its
// delayed runner, whose goroutines may log while another view owns the
// terminal. A nil bgLogger shares the command logger.
func openAppWithLogger(ctx context.Context, bgLogger *slog.Logger) (*app, error) {
	logger := setupLogger(debug)
	if bgLogger == nil {
		bgLogger = logger
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	runner := scheduler.NewDelayedRunner(ctx, bgLogger)
	engine := lifecycle.NewEngine(db, runner, lifecycle.Options{
		ResponseDelay:   cfg.Lifecycle.ResponseDelay,
		InterviewWindow: cfg.Lifecycle.InterviewWindow,
		RecruiterDomain: cfg.Lifecycle.RecruiterDomain,
		ApplicantEmail:  cfg.Lifecycle.ApplicantEmail,
	}, bgLogger)

	return &app{cfg: cfg, logger: logger, store: db, runner: runner, engine: engine}, nil
}

// waitForResponses blocks until scheduled employer responses have been
// written, or abandons them when ctx ends.
func (a *app) waitForResponses(ctx context.Context) {
	if a.runner.Pending() == 0 {
		return
	}
	a.logger.Info("waiting for employer responses", "delay", a.cfg.Lifecycle.ResponseDelay.String())

	done := make(chan struct{})
	go func() {
		a.runner.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.logger.Warn("interrupted, pending responses will resume next time")
	}
}

func (a *app) Close() {
	a.runner.Stop()
	if err := a.store.Close(); err != nil {
		a.logger.Error("close store", "error", err)
	}
}

// candidatePool returns the stored postings the user has not hidden, queued
// or applied to, best match first.
func (a *app) candidatePool(ctx context.Context) ([]model.JobPosting, error) {
	postings, err := a.store.ListPostings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}

	hidden, err := a.engine.QueuedJobIDs(ctx, a.cfg.User.ID)
	if err != nil {
		return nil, err
	}
	disliked, err := a.store.ListPreferences(ctx, a.cfg.User.ID, model.PreferenceDisliked)
	if err != nil {
		return nil, fmt.Errorf("list disliked: %w", err)
	}
	for _, id := range disliked {
		hidden[id] = true
	}

	normalized := newNormalizer(a.cfg).Normalize(feed.SortByScore(postings))
	return feed.Pool(normalized, feed.PoolOptions{
		MinMatchScore: a.cfg.Filters.MinMatchScore,
		Hidden:        hidden,
	}), nil
}
