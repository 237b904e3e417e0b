package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBSEEKER_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARBSEEKER_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "ARBSEEKER_POLYMARKET_GAMMA_HOST")
	setFloat64(&cfg.Polymarket.FeePercent, "ARBSEEKER_POLYMARKET_FEE_PERCENT")
	setFloat64(&cfg.Polymarket.FixedGasCost, "ARBSEEKER_POLYMARKET_FIXED_GAS_COST")
	setInt(&cfg.Polymarket.RateLimit, "ARBSEEKER_POLYMARKET_RATE_LIMIT")
	setDuration(&cfg.Polymarket.RateWindow, "ARBSEEKER_POLYMARKET_RATE_WINDOW")

	// ── Kalshi ──
	setStr(&cfg.Kalshi.BaseURL, "ARBSEEKER_KALSHI_BASE_URL")
	setStr(&cfg.Kalshi.WsURL, "ARBSEEKER_KALSHI_WS_URL")
	setStr(&cfg.Kalshi.ApiKey, "ARBSEEKER_KALSHI_API_KEY")
	setStr(&cfg.Kalshi.RsaPrivateKeyPath, "ARBSEEKER_KALSHI_RSA_PRIVATE_KEY_PATH")
	setFloat64(&cfg.Kalshi.FeePercent, "ARBSEEKER_KALSHI_FEE_PERCENT")
	setFloat64(&cfg.Kalshi.FixedGasCost, "ARBSEEKER_KALSHI_FIXED_GAS_COST")
	setInt(&cfg.Kalshi.RateLimit, "ARBSEEKER_KALSHI_RATE_LIMIT")
	setDuration(&cfg.Kalshi.RateWindow, "ARBSEEKER_KALSHI_RATE_WINDOW")

	// ── Embedding ──
	setStr(&cfg.Embedding.BaseURL, "ARBSEEKER_EMBEDDING_BASE_URL")
	setStr(&cfg.Embedding.ApiKey, "ARBSEEKER_EMBEDDING_API_KEY")
	setStr(&cfg.Embedding.Model, "ARBSEEKER_EMBEDDING_MODEL")
	setInt(&cfg.Embedding.BatchSize, "ARBSEEKER_EMBEDDING_BATCH_SIZE")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "ARBSEEKER_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "ARBSEEKER_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ARBSEEKER_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ARBSEEKER_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ARBSEEKER_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ARBSEEKER_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ARBSEEKER_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ARBSEEKER_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ARBSEEKER_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "ARBSEEKER_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ARBSEEKER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBSEEKER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBSEEKER_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBSEEKER_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARBSEEKER_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARBSEEKER_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "ARBSEEKER_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ARBSEEKER_S3_REGION")
	setStr(&cfg.S3.Bucket, "ARBSEEKER_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ARBSEEKER_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ARBSEEKER_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ARBSEEKER_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ARBSEEKER_S3_FORCE_PATH_STYLE")

	// ── Matcher ──
	setFloat64(&cfg.Matcher.SimilarityThreshold, "ARBSEEKER_MATCHER_SIMILARITY_THRESHOLD")
	setInt(&cfg.Matcher.ChunkSize, "ARBSEEKER_MATCHER_CHUNK_SIZE")
	setInt(&cfg.Matcher.MaxQuestionLen, "ARBSEEKER_MATCHER_MAX_QUESTION_LEN")

	// ── Scanner ──
	setDuration(&cfg.Scanner.ScanInterval, "ARBSEEKER_SCANNER_SCAN_INTERVAL")
	setDuration(&cfg.Scanner.TickTimeout, "ARBSEEKER_SCANNER_TICK_TIMEOUT")
	setInt(&cfg.Scanner.MaxInFlight, "ARBSEEKER_SCANNER_MAX_IN_FLIGHT")
	setFloat64(&cfg.Scanner.MinProfitMargin, "ARBSEEKER_SCANNER_MIN_PROFIT_MARGIN")
	setDuration(&cfg.Scanner.QuoteMaxAge, "ARBSEEKER_SCANNER_QUOTE_MAX_AGE")
	setFloat64(&cfg.Scanner.DebounceEpsilon, "ARBSEEKER_SCANNER_DEBOUNCE_EPSILON")
	setDuration(&cfg.Scanner.DebounceCooldown, "ARBSEEKER_SCANNER_DEBOUNCE_COOLDOWN")
	setInt(&cfg.Scanner.FetchRetries, "ARBSEEKER_SCANNER_FETCH_RETRIES")
	setDuration(&cfg.Scanner.RetryBackoff, "ARBSEEKER_SCANNER_RETRY_BACKOFF")
	setDuration(&cfg.Scanner.MatchInterval, "ARBSEEKER_SCANNER_MATCH_INTERVAL")
	setBool(&cfg.Scanner.UseFeed, "ARBSEEKER_SCANNER_USE_FEED")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "ARBSEEKER_ARCHIVE_ENABLED")
	setInt(&cfg.Archive.RetentionDays, "ARBSEEKER_ARCHIVE_RETENTION_DAYS")
	setDuration(&cfg.Archive.Interval, "ARBSEEKER_ARCHIVE_INTERVAL")
	setInt(&cfg.Archive.BatchLimit, "ARBSEEKER_ARCHIVE_BATCH_LIMIT")

	// ── Notify ──
	setBool(&cfg.Notify.Console, "ARBSEEKER_NOTIFY_CONSOLE")
	setStr(&cfg.Notify.TelegramToken, "ARBSEEKER_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARBSEEKER_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARBSEEKER_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ARBSEEKER_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "ARBSEEKER_MODE")
	setStr(&cfg.LogLevel, "ARBSEEKER_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
