// Package config defines the top-level configuration for the arbitrage seeker
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ARBSEEKER_* environment variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Kalshi     KalshiConfig     `toml:"kalshi"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Matcher    MatcherConfig    `toml:"matcher"`
	Scanner    ScannerConfig    `toml:"scanner"`
	Archive    ArchiveConfig    `toml:"archive"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds the Polymarket API endpoint, fee model, and rate
// limit for outbound quote requests.
type PolymarketConfig struct {
	GammaHost    string   `toml:"gamma_host"`
	FeePercent   float64  `toml:"fee_percent"`
	FixedGasCost float64  `toml:"fixed_gas_cost"`
	RateLimit    int      `toml:"rate_limit"`
	RateWindow   duration `toml:"rate_window"`
}

// KalshiConfig holds Kalshi exchange credentials, endpoints, fee model, and
// rate limit.
type KalshiConfig struct {
	BaseURL           string   `toml:"base_url"`
	WsURL             string   `toml:"ws_url"`
	ApiKey            string   `toml:"api_key"`
	RsaPrivateKeyPath string   `toml:"rsa_private_key_path"`
	FeePercent        float64  `toml:"fee_percent"`
	FixedGasCost      float64  `toml:"fixed_gas_cost"`
	RateLimit         int      `toml:"rate_limit"`
	RateWindow        duration `toml:"rate_window"`
}

// EmbeddingConfig holds parameters for the embeddings API used by the matcher.
type EmbeddingConfig struct {
	BaseURL   string `toml:"base_url"`
	ApiKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	BatchSize int    `toml:"batch_size"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for the archiver.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// MatcherConfig holds parameters for the semantic market matcher.
type MatcherConfig struct {
	// SimilarityThreshold is the inclusive cosine-similarity cutoff for
	// accepting a candidate pair.
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	// ChunkSize caps how many Polymarket markets are scored against the full
	// Kalshi set at once, bounding peak memory on large listings.
	ChunkSize int `toml:"chunk_size"`
	// MaxQuestionLen drops unembeddable texts; markets whose question exceeds
	// it are skipped with a warning.
	MaxQuestionLen int `toml:"max_question_len"`
}

// ScannerConfig holds parameters for the evaluation tick loop.
type ScannerConfig struct {
	ScanInterval     duration `toml:"scan_interval"`
	TickTimeout      duration `toml:"tick_timeout"`
	MaxInFlight      int      `toml:"max_in_flight"`
	MinProfitMargin  float64  `toml:"min_profit_margin"`
	QuoteMaxAge      duration `toml:"quote_max_age"`
	DebounceEpsilon  float64  `toml:"debounce_epsilon"`
	DebounceCooldown duration `toml:"debounce_cooldown"`
	FetchRetries     int      `toml:"fetch_retries"`
	RetryBackoff     duration `toml:"retry_backoff"`
	// MatchInterval re-runs the matching pass on a long cadence while in
	// monitor mode. Zero disables re-matching.
	MatchInterval duration `toml:"match_interval"`
	// UseFeed enables the Kalshi WebSocket feed that keeps the quote cache
	// warm in monitor mode.
	UseFeed bool `toml:"use_feed"`
}

// ArchiveConfig holds parameters for cold-storage export of opportunity
// history.
type ArchiveConfig struct {
	Enabled       bool     `toml:"enabled"`
	RetentionDays int      `toml:"retention_days"`
	Interval      duration `toml:"interval"`
	BatchLimit    int      `toml:"batch_limit"`
}

// NotifyConfig holds notification channel credentials. Senders are selected
// once at startup from whichever credentials are present.
type NotifyConfig struct {
	Console           bool     `toml:"console"`
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost:    "https://gamma-api.polymarket.com",
			FeePercent:   0.0,
			FixedGasCost: 0.001,
			RateLimit:    10,
			RateWindow:   duration{time.Second},
		},
		Kalshi: KalshiConfig{
			BaseURL:      "https://api.elections.kalshi.com/trade-api/v2",
			WsURL:        "wss://api.elections.kalshi.com/trade-api/ws/v2",
			FeePercent:   0.007,
			FixedGasCost: 0.0,
			RateLimit:    10,
			RateWindow:   duration{time.Second},
		},
		Embedding: EmbeddingConfig{
			BaseURL:   "https://api.openai.com/v1",
			Model:     "text-embedding-3-small",
			BatchSize: 100,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "postgres",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "arbseeker-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Matcher: MatcherConfig{
			SimilarityThreshold: 0.85,
			ChunkSize:           256,
			MaxQuestionLen:      2000,
		},
		Scanner: ScannerConfig{
			ScanInterval:     duration{5 * time.Minute},
			TickTimeout:      duration{2 * time.Minute},
			MaxInFlight:      8,
			MinProfitMargin:  0.02,
			QuoteMaxAge:      duration{30 * time.Second},
			DebounceEpsilon:  0.005,
			DebounceCooldown: duration{30 * time.Minute},
			FetchRetries:     3,
			RetryBackoff:     duration{500 * time.Millisecond},
			MatchInterval:    duration{0},
			UseFeed:          false,
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			RetentionDays: 90,
			Interval:      duration{24 * time.Hour},
			BatchLimit:    5000,
		},
		Notify: NotifyConfig{
			Console: true,
			Events:  []string{"opportunity", "error"},
		},
		Mode:     "monitor",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"match":   true,
	"scan":    true,
	"monitor": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found. It must pass before any tick
// runs.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: match, scan, monitor)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Venues
	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if c.Polymarket.FeePercent < 0 || c.Polymarket.FeePercent >= 1 {
		errs = append(errs, fmt.Sprintf("polymarket: fee_percent must be in [0,1), got %g", c.Polymarket.FeePercent))
	}
	if c.Polymarket.FixedGasCost < 0 {
		errs = append(errs, "polymarket: fixed_gas_cost must be >= 0")
	}
	if c.Polymarket.RateLimit < 1 {
		errs = append(errs, "polymarket: rate_limit must be >= 1")
	}
	if c.Polymarket.RateWindow.Duration <= 0 {
		errs = append(errs, "polymarket: rate_window must be positive")
	}
	if c.Kalshi.BaseURL == "" {
		errs = append(errs, "kalshi: base_url must not be empty")
	}
	if c.Kalshi.ApiKey == "" {
		errs = append(errs, "kalshi: api_key is required")
	}
	if c.Kalshi.FeePercent < 0 || c.Kalshi.FeePercent >= 1 {
		errs = append(errs, fmt.Sprintf("kalshi: fee_percent must be in [0,1), got %g", c.Kalshi.FeePercent))
	}
	if c.Kalshi.FixedGasCost < 0 {
		errs = append(errs, "kalshi: fixed_gas_cost must be >= 0")
	}
	if c.Kalshi.RateLimit < 1 {
		errs = append(errs, "kalshi: rate_limit must be >= 1")
	}
	if c.Kalshi.RateWindow.Duration <= 0 {
		errs = append(errs, "kalshi: rate_window must be positive")
	}

	// Embedding is required only for modes that run a matching pass.
	needsEmbedding := c.Mode == "match" || (c.Mode == "monitor" && c.Scanner.MatchInterval.Duration > 0)
	if needsEmbedding {
		if c.Embedding.BaseURL == "" {
			errs = append(errs, "embedding: base_url must not be empty for mode "+c.Mode)
		}
		if c.Embedding.Model == "" {
			errs = append(errs, "embedding: model must not be empty for mode "+c.Mode)
		}
	}
	if c.Embedding.BatchSize < 1 {
		errs = append(errs, "embedding: batch_size must be >= 1")
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// Matcher
	if c.Matcher.SimilarityThreshold <= 0 || c.Matcher.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Sprintf("matcher: similarity_threshold must be in (0,1], got %g", c.Matcher.SimilarityThreshold))
	}
	if c.Matcher.ChunkSize < 1 {
		errs = append(errs, "matcher: chunk_size must be >= 1")
	}
	if c.Matcher.MaxQuestionLen < 1 {
		errs = append(errs, "matcher: max_question_len must be >= 1")
	}

	// Scanner
	if c.Scanner.ScanInterval.Duration <= 0 {
		errs = append(errs, "scanner: scan_interval must be positive")
	}
	if c.Scanner.TickTimeout.Duration <= 0 {
		errs = append(errs, "scanner: tick_timeout must be positive")
	}
	if c.Scanner.TickTimeout.Duration > c.Scanner.ScanInterval.Duration {
		errs = append(errs, "scanner: tick_timeout must not exceed scan_interval")
	}
	if c.Scanner.MaxInFlight < 1 {
		errs = append(errs, "scanner: max_in_flight must be >= 1")
	}
	if c.Scanner.MinProfitMargin < 0 || c.Scanner.MinProfitMargin >= 1 {
		errs = append(errs, fmt.Sprintf("scanner: min_profit_margin must be in [0,1), got %g", c.Scanner.MinProfitMargin))
	}
	if c.Scanner.QuoteMaxAge.Duration <= 0 {
		errs = append(errs, "scanner: quote_max_age must be positive")
	}
	if c.Scanner.DebounceEpsilon < 0 {
		errs = append(errs, "scanner: debounce_epsilon must be >= 0")
	}
	if c.Scanner.DebounceCooldown.Duration < 0 {
		errs = append(errs, "scanner: debounce_cooldown must be >= 0")
	}
	if c.Scanner.FetchRetries < 0 {
		errs = append(errs, "scanner: fetch_retries must be >= 0")
	}

	// Archive
	if c.Archive.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when archive is enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when archive is enabled")
		}
		if c.Archive.RetentionDays < 1 {
			errs = append(errs, "archive: retention_days must be >= 1")
		}
		if c.Archive.Interval.Duration <= 0 {
			errs = append(errs, "archive: interval must be positive")
		}
		if c.Archive.BatchLimit < 1 {
			errs = append(errs, "archive: batch_limit must be >= 1")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
