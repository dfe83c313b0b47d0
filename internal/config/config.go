package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"AEOAuditor/internal/domain"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "AEO_AUDITOR_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	llmAPIKeyEnv      = "LLM_API_KEY"
	mistralAPIKeyEnv  = "MISTRAL_API_KEY"
	llmModelEnv       = "LLM_MODEL"
	nerAPIKeyEnv      = "NER_API_KEY"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	s3BucketEnv       = "S3_BUCKET"
	s3AccessKeyEnv    = "S3_ACCESS_KEY_ID"
	s3SecretKeyEnv    = "S3_SECRET_ACCESS_KEY"
	logLevelEnv       = "LOG_LEVEL"
	wpSiteURLEnv      = "WP_SITE_URL"
	wpUsernameEnv     = "WP_USERNAME"
	wpAppPasswordEnv  = "WP_APP_PASSWORD"
	dfsLoginEnv       = "DATAFORSEO_LOGIN"
	dfsPasswordEnv    = "DATAFORSEO_PASSWORD"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Ingest        IngestConfig       `yaml:"ingest"`
	Scoring       ScoringConfig      `yaml:"scoring"`
	LLM           LLMConfig          `yaml:"llm"`
	NER           NERConfig          `yaml:"ner"`
	Storage       StorageConfig      `yaml:"storage"`
	Notifications NotificationConfig `yaml:"notifications"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Server        ServerConfig       `yaml:"server"`
	Deploy        DeployConfig       `yaml:"deploy"`
	Mentions      MentionsConfig     `yaml:"mentions"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// IngestConfig tunes the single-page fetcher.
type IngestConfig struct {
	Timeout           time.Duration `yaml:"timeout"`
	MinTextLength     int           `yaml:"minTextLength"`
	JitterMin         time.Duration `yaml:"jitterMin"`
	JitterMax         time.Duration `yaml:"jitterMax"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
	UserAgents        []string      `yaml:"userAgents"`
	Referers          []string      `yaml:"referers"`
}

// ScoringConfig controls the semantic scorer.
type ScoringConfig struct {
	MinTextLength int    `yaml:"minTextLength"`
	TopEntities   int    `yaml:"topEntities"`
	Enhanced      bool   `yaml:"enhanced"`
	LexiconPath   string `yaml:"lexiconPath"`
}

// LLMConfig defines how to contact the OpenAI-compatible chat API.
type LLMConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	Model          string        `yaml:"model"`
	APIKey         string        `yaml:"apiKey"`
	SystemPrompt   string        `yaml:"systemPrompt"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxAttempts    int           `yaml:"maxAttempts"`
	RetryDelay     time.Duration `yaml:"retryDelay"`
	MaxSourceChars int           `yaml:"maxSourceChars"`
}

// NERConfig describes the optional remote entity-recognition service.
type NERConfig struct {
	InferenceURL string `yaml:"inferenceUrl"`
	APIKey       string `yaml:"apiKey"`
}

// StorageConfig picks the record store backend.
type StorageConfig struct {
	Backend      string    `yaml:"backend"` // file, sql, s3
	Dir          string    `yaml:"dir"`
	LatestFile   string    `yaml:"latestFile"`
	HistoryFile  string    `yaml:"historyFile"`
	HistoryLimit int       `yaml:"historyLimit"`
	SQL          SQLConfig `yaml:"sql"`
	S3           S3Config  `yaml:"s3"`
}

// SQLConfig describes the SQL backend (sqlite or postgres).
type SQLConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// S3Config describes an S3-compatible bucket holding the record documents.
type S3Config struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"accessKeyId"`
	SecretAccessKey string `yaml:"secretAccessKey"`
	UsePathStyle    bool   `yaml:"usePathStyle"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// SchedulerConfig defines when watched targets are re-audited.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	Targets        []string       `yaml:"targets"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DeployConfig describes where remediation schema gets published.
type DeployConfig struct {
	WordPress WordPressConfig `yaml:"wordpress"`
}

// WordPressConfig authenticates against the WP REST API with an application password.
type WordPressConfig struct {
	SiteURL     string        `yaml:"siteUrl"`
	Username    string        `yaml:"username"`
	AppPassword string        `yaml:"appPassword"`
	Timeout     time.Duration `yaml:"timeout"`
}

// MentionsConfig selects the live AI-engine mention provider.
type MentionsConfig struct {
	DataForSEO DataForSEOConfig `yaml:"dataforseo"`
}

// DataForSEOConfig holds the LLM-mentions endpoint and credentials.
type DataForSEOConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Login        string        `yaml:"login"`
	Password     string        `yaml:"password"`
	Platform     string        `yaml:"platform"`
	LocationName string        `yaml:"locationName"`
	LanguageName string        `yaml:"languageName"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := Default()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			fileCfg, err := Parse(raw)
			if err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// Parse decodes a YAML document without merging defaults.
func Parse(raw []byte) (Config, error) {
	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return Config{}, err
	}
	return fileCfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Storage.SQL.DSN = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(mistralAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}

	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}

	if v := os.Getenv(nerAPIKeyEnv); v != "" {
		c.NER.APIKey = v
	}

	if v := os.Getenv(wpSiteURLEnv); v != "" {
		c.Deploy.WordPress.SiteURL = v
	}
	if v := os.Getenv(wpUsernameEnv); v != "" {
		c.Deploy.WordPress.Username = v
	}
	if v := os.Getenv(wpAppPasswordEnv); v != "" {
		c.Deploy.WordPress.AppPassword = v
	}

	if v := os.Getenv(dfsLoginEnv); v != "" {
		c.Mentions.DataForSEO.Login = v
	}
	if v := os.Getenv(dfsPasswordEnv); v != "" {
		c.Mentions.DataForSEO.Password = v
	}

	if v := os.Getenv(s3BucketEnv); v != "" {
		c.Storage.S3.Bucket = v
	}
	if v := os.Getenv(s3AccessKeyEnv); v != "" {
		c.Storage.S3.AccessKeyID = v
	}
	if v := os.Getenv(s3SecretKeyEnv); v != "" {
		c.Storage.S3.SecretAccessKey = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Ingest.Timeout > 0 {
		base.Ingest.Timeout = override.Ingest.Timeout
	}
	if override.Ingest.MinTextLength > 0 {
		base.Ingest.MinTextLength = override.Ingest.MinTextLength
	}
	if override.Ingest.JitterMin > 0 {
		base.Ingest.JitterMin = override.Ingest.JitterMin
	}
	if override.Ingest.JitterMax > 0 {
		base.Ingest.JitterMax = override.Ingest.JitterMax
	}
	if override.Ingest.RequestsPerSecond > 0 {
		base.Ingest.RequestsPerSecond = override.Ingest.RequestsPerSecond
	}
	if len(override.Ingest.UserAgents) > 0 {
		base.Ingest.UserAgents = override.Ingest.UserAgents
	}
	if len(override.Ingest.Referers) > 0 {
		base.Ingest.Referers = override.Ingest.Referers
	}

	if override.Scoring.MinTextLength > 0 {
		base.Scoring.MinTextLength = override.Scoring.MinTextLength
	}
	if override.Scoring.TopEntities > 0 {
		base.Scoring.TopEntities = override.Scoring.TopEntities
	}
	if override.Scoring.Enhanced {
		base.Scoring.Enhanced = true
	}
	if override.Scoring.LexiconPath != "" {
		base.Scoring.LexiconPath = override.Scoring.LexiconPath
	}

	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.SystemPrompt != "" {
		base.LLM.SystemPrompt = override.LLM.SystemPrompt
	}
	if override.LLM.Timeout > 0 {
		base.LLM.Timeout = override.LLM.Timeout
	}
	if override.LLM.MaxAttempts > 0 {
		base.LLM.MaxAttempts = override.LLM.MaxAttempts
	}
	if override.LLM.RetryDelay > 0 {
		base.LLM.RetryDelay = override.LLM.RetryDelay
	}
	if override.LLM.MaxSourceChars > 0 {
		base.LLM.MaxSourceChars = override.LLM.MaxSourceChars
	}

	if override.NER.InferenceURL != "" {
		base.NER.InferenceURL = override.NER.InferenceURL
	}
	if override.NER.APIKey != "" {
		base.NER.APIKey = override.NER.APIKey
	}

	if override.Storage.Backend != "" {
		base.Storage.Backend = override.Storage.Backend
	}
	if override.Storage.Dir != "" {
		base.Storage.Dir = override.Storage.Dir
	}
	if override.Storage.LatestFile != "" {
		base.Storage.LatestFile = override.Storage.LatestFile
	}
	if override.Storage.HistoryFile != "" {
		base.Storage.HistoryFile = override.Storage.HistoryFile
	}
	if override.Storage.HistoryLimit > 0 {
		base.Storage.HistoryLimit = min(override.Storage.HistoryLimit, domain.HistoryLimit)
	}
	if override.Storage.SQL.Driver != "" {
		base.Storage.SQL.Driver = override.Storage.SQL.Driver
	}
	if override.Storage.SQL.DSN != "" {
		base.Storage.SQL.DSN = override.Storage.SQL.DSN
	}
	if override.Storage.S3.Bucket != "" {
		base.Storage.S3 = override.Storage.S3
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	if len(override.Scheduler.Targets) > 0 {
		base.Scheduler.Targets = override.Scheduler.Targets
	}

	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}

	if wp := override.Deploy.WordPress; wp.SiteURL != "" {
		base.Deploy.WordPress.SiteURL = wp.SiteURL
		base.Deploy.WordPress.Username = wp.Username
		base.Deploy.WordPress.AppPassword = wp.AppPassword
	}
	if override.Deploy.WordPress.Timeout > 0 {
		base.Deploy.WordPress.Timeout = override.Deploy.WordPress.Timeout
	}

	dfs := override.Mentions.DataForSEO
	if dfs.Endpoint != "" {
		base.Mentions.DataForSEO.Endpoint = dfs.Endpoint
	}
	if dfs.Login != "" {
		base.Mentions.DataForSEO.Login = dfs.Login
	}
	if dfs.Password != "" {
		base.Mentions.DataForSEO.Password = dfs.Password
	}
	if dfs.Platform != "" {
		base.Mentions.DataForSEO.Platform = dfs.Platform
	}
	if dfs.LocationName != "" {
		base.Mentions.DataForSEO.LocationName = dfs.LocationName
	}
	if dfs.LanguageName != "" {
		base.Mentions.DataForSEO.LanguageName = dfs.LanguageName
	}
	if dfs.Timeout > 0 {
		base.Mentions.DataForSEO.Timeout = dfs.Timeout
	}

	return base
}

// Default returns the built-in configuration.
func Default() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Ingest: IngestConfig{
			Timeout:       20 * time.Second,
			MinTextLength: 100,
			JitterMin:     500 * time.Millisecond,
			JitterMax:     2 * time.Second,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:122.0) Gecko/20100101 Firefox/122.0",
			},
			Referers: []string{
				"https://www.google.com/",
				"https://www.bing.com/",
				"https://duckduckgo.com/",
			},
		},
		Scoring: ScoringConfig{MinTextLength: 80, TopEntities: 20},
		LLM: LLMConfig{
			Endpoint:       "https://api.mistral.ai/v1/chat/completions",
			Model:          "mistral-large-latest",
			Timeout:        30 * time.Second,
			MaxAttempts:    3,
			RetryDelay:     2 * time.Second,
			MaxSourceChars: 2000,
		},
		Storage: StorageConfig{
			Backend:      "file",
			Dir:          ".",
			LatestFile:   "last_fix.json",
			HistoryFile:  "audit_history.json",
			HistoryLimit: domain.HistoryLimit,
			SQL:          SQLConfig{Driver: "sqlite", DSN: "file:aeo_audits.db"},
			S3:           S3Config{Region: "us-east-1", Prefix: "aeo/"},
		},
		Scheduler: SchedulerConfig{CronExpression: "0 6 * * *", Timezone: defaultTimezone, location: tz},
		Server:    ServerConfig{Addr: ":8080"},
		Deploy:    DeployConfig{WordPress: WordPressConfig{Timeout: 20 * time.Second}},
		Mentions: MentionsConfig{DataForSEO: DataForSEOConfig{
			Endpoint:     "https://api.dataforseo.com/v3/ai_optimization/llm_mentions/search/live",
			Platform:     "google",
			LocationName: "United States",
			LanguageName: "English",
			Timeout:      30 * time.Second,
		}},
	}
}
