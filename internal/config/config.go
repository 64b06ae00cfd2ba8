package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for jobhunter.
type Config struct {
	User            UserConfig
	Database        DatabaseConfig
	PollingInterval time.Duration
	Feeds           []FeedConfig
	Filters         FilterConfig
	RateLimit       RateLimitConfig
	Lifecycle       LifecycleConfig
	Notification    NotificationConfig
	AI              AIConfig
}

// RateLimitConfig spaces out requests to the same feed backend.
type RateLimitConfig struct {
	MinDelay time.Duration // zero disables limiting
}

// UserConfig identifies the single local user. Summary, Skills and Tools
// form the profile postings are match-scored against when AI is enabled.
type UserConfig struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Email   string   `yaml:"email"`
	Summary string   `yaml:"summary"`
	Skills  []string `yaml:"skills"`
	Tools   []string `yaml:"tools"`
}

// DatabaseConfig locates the SQLite file and how long unreferenced postings are kept.
type DatabaseConfig struct {
	Path      string
	Retention time.Duration
}

// Feed source types.
const (
	FeedFile       = "file"
	FeedGreenhouse = "greenhouse"
	FeedLever      = "lever"
)

// FeedConfig describes one posting source.
type FeedConfig struct {
	Name         string `yaml:"name"`
	Type         string `yaml:"type"`          // "file", "greenhouse" or "lever"
	Path         string `yaml:"path"`          // file feeds
	BoardToken   string `yaml:"board_token"`   // greenhouse board token or lever site slug
	Company      string `yaml:"company"`       // display name for remote boards
	DefaultScore int    `yaml:"default_score"` // remote boards carry no score
	MaxRetries   int    `yaml:"max_retries"`
	Enabled      bool   `yaml:"enabled"`
}

// FilterConfig holds the eligibility keywords. A nil list means the built-in
// defaults; an explicit empty list disables that side.
type FilterConfig struct {
	IncludeKeywords []string `yaml:"include_keywords"`
	ExcludeKeywords []string `yaml:"exclude_keywords"`
	MinMatchScore   int      `yaml:"min_match_score"`
}

// LifecycleConfig tunes the simulated employer side.
type LifecycleConfig struct {
	ResponseDelay   time.Duration
	InterviewWindow time.Duration
	RecruiterDomain string
	ApplicantEmail  string
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// AIConfig controls the optional OpenAI letter writer.
type AIConfig struct {
	Enabled bool
	BaseURL string // defaults to https://api.openai.com/v1
	Model   string // OpenAI model identifier, e.g. "gpt-4o-mini"
	APIKey  string // expanded from env var by Load
	Timeout time.Duration
}

const (
	defaultOpenAIBaseURL   = "https://api.openai.com/v1"
	defaultUserID          = "local"
	defaultDatabasePath    = "jobhunter.db"
	defaultRecruiterDomain = "example.com"
	defaultMaxRetries      = 3
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	User            UserConfig         `yaml:"user"`
	Database        rawDatabaseConfig  `yaml:"database"`
	PollingInterval string             `yaml:"polling_interval"`
	Feeds           []FeedConfig       `yaml:"feeds"`
	Filters         FilterConfig       `yaml:"filters"`
	RateLimit       rawRateLimitConfig `yaml:"rate_limit"`
	Lifecycle       rawLifecycleConfig `yaml:"lifecycle"`
	Notification    NotificationConfig `yaml:"notification"`
	AI              rawAIConfig        `yaml:"ai"`
}

type rawDatabaseConfig struct {
	Path      string `yaml:"path"`
	Retention string `yaml:"retention"`
}

type rawRateLimitConfig struct {
	MinDelay string `yaml:"min_delay"`
}

type rawLifecycleConfig struct {
	ResponseDelay   string `yaml:"response_delay"`
	InterviewWindow string `yaml:"interview_window"`
	RecruiterDomain string `yaml:"recruiter_domain"`
	ApplicantEmail  string `yaml:"applicant_email"`
}

type rawAIConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
	Timeout string `yaml:"timeout"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse expands environment variables in data and decodes it.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	interval, err := durationOr(raw.PollingInterval, "polling_interval", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	retention, err := durationOr(raw.Database.Retention, "database.retention", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}
	minDelay, err := durationOr(raw.RateLimit.MinDelay, "rate_limit.min_delay", time.Second)
	if err != nil {
		return nil, err
	}
	responseDelay, err := durationOr(raw.Lifecycle.ResponseDelay, "lifecycle.response_delay", 10*time.Second)
	if err != nil {
		return nil, err
	}
	window, err := durationOr(raw.Lifecycle.InterviewWindow, "lifecycle.interview_window", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}
	aiTimeout, err := durationOr(raw.AI.Timeout, "ai.timeout", 30*time.Second)
	if err != nil {
		return nil, err
	}

	user := raw.User
	if user.ID == "" {
		user.ID = defaultUserID
	}

	dbPath := raw.Database.Path
	if dbPath == "" {
		dbPath = defaultDatabasePath
	}

	feeds := make([]FeedConfig, len(raw.Feeds))
	for i, f := range raw.Feeds {
		if f.MaxRetries == 0 {
			f.MaxRetries = defaultMaxRetries
		}
		if (f.Type == FeedGreenhouse || f.Type == FeedLever) && f.Company == "" {
			f.Company = f.Name
		}
		feeds[i] = f
	}

	lc := LifecycleConfig{
		ResponseDelay:   responseDelay,
		InterviewWindow: window,
		RecruiterDomain: raw.Lifecycle.RecruiterDomain,
		ApplicantEmail:  raw.Lifecycle.ApplicantEmail,
	}
	if lc.RecruiterDomain == "" {
		lc.RecruiterDomain = defaultRecruiterDomain
	}
	if lc.ApplicantEmail == "" {
		lc.ApplicantEmail = user.Email
	}

	notification := raw.Notification
	if notification.Type == "" {
		notification.Type = "log"
	}

	aiBaseURL := raw.AI.BaseURL
	if aiBaseURL == "" {
		aiBaseURL = defaultOpenAIBaseURL
	}

	cfg := &Config{
		User:            user,
		Database:        DatabaseConfig{Path: dbPath, Retention: retention},
		PollingInterval: interval,
		Feeds:           feeds,
		Filters:         raw.Filters,
		RateLimit:       RateLimitConfig{MinDelay: minDelay},
		Lifecycle:       lc,
		Notification:    notification,
		AI: AIConfig{
			Enabled: raw.AI.Enabled,
			BaseURL: aiBaseURL,
			Model:   raw.AI.Model,
			APIKey:  raw.AI.APIKey,
			Timeout: aiTimeout,
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// EnabledFeeds returns the feeds with enabled set.
func (c *Config) EnabledFeeds() []FeedConfig {
	var out []FeedConfig
	for _, f := range c.Feeds {
		if f.Enabled {
			out = append(out, f)
		}
	}
	return out
}

func durationOr(s, field string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return d, nil
}

func validate(cfg *Config) error {
	if cfg.PollingInterval <= 0 {
		return fmt.Errorf("polling_interval must be positive, got %v", cfg.PollingInterval)
	}
	if cfg.Database.Retention <= 0 {
		return fmt.Errorf("database.retention must be positive, got %v", cfg.Database.Retention)
	}

	enabled := 0
	for i, f := range cfg.Feeds {
		switch f.Type {
		case FeedFile:
			if f.Path == "" {
				return fmt.Errorf("feeds[%d] (%s): path is required for file feeds", i, f.Name)
			}
		case FeedGreenhouse, FeedLever:
			if f.BoardToken == "" {
				return fmt.Errorf("feeds[%d] (%s): board_token is required for %s feeds", i, f.Name, f.Type)
			}
		default:
			return fmt.Errorf("feeds[%d] (%s): unknown type %q", i, f.Name, f.Type)
		}
		if f.Name == "" {
			return fmt.Errorf("feeds[%d]: name is required", i)
		}
		if f.DefaultScore < 0 || f.DefaultScore > 100 {
			return fmt.Errorf("feeds[%d] (%s): default_score must be between 0 and 100", i, f.Name)
		}
		if f.MaxRetries < 0 {
			return fmt.Errorf("feeds[%d] (%s): max_retries must not be negative", i, f.Name)
		}
		if f.Enabled {
			enabled++
		}
	}
	if len(cfg.Feeds) > 0 && enabled == 0 {
		return fmt.Errorf("at least one feed must be enabled")
	}

	if cfg.Filters.MinMatchScore < 0 || cfg.Filters.MinMatchScore > 100 {
		return fmt.Errorf("filters.min_match_score must be between 0 and 100, got %d", cfg.Filters.MinMatchScore)
	}

	if cfg.RateLimit.MinDelay < 0 {
		return fmt.Errorf("rate_limit.min_delay must not be negative, got %v", cfg.RateLimit.MinDelay)
	}

	if cfg.Lifecycle.ResponseDelay <= 0 {
		return fmt.Errorf("lifecycle.response_delay must be positive, got %v", cfg.Lifecycle.ResponseDelay)
	}
	if cfg.Lifecycle.InterviewWindow < 24*time.Hour {
		return fmt.Errorf("lifecycle.interview_window must be at least 24h, got %v", cfg.Lifecycle.InterviewWindow)
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}

	if cfg.AI.Enabled {
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required when ai.enabled is true")
		}
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model is required when ai.enabled is true")
		}
	}

	return nil
}
