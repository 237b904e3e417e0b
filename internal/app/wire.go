package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finnmackay/arbitrageSeeker/internal/arbitrage"
	s3blob "github.com/finnmackay/arbitrageSeeker/internal/blob/s3"
	"github.com/finnmackay/arbitrageSeeker/internal/cache/redis"
	"github.com/finnmackay/arbitrageSeeker/internal/config"
	"github.com/finnmackay/arbitrageSeeker/internal/domain"
	"github.com/finnmackay/arbitrageSeeker/internal/matcher"
	"github.com/finnmackay/arbitrageSeeker/internal/notify"
	"github.com/finnmackay/arbitrageSeeker/internal/platform/embedding"
	"github.com/finnmackay/arbitrageSeeker/internal/platform/kalshi"
	"github.com/finnmackay/arbitrageSeeker/internal/platform/polymarket"
	"github.com/finnmackay/arbitrageSeeker/internal/scanner"
	"github.com/finnmackay/arbitrageSeeker/internal/service"
	"github.com/finnmackay/arbitrageSeeker/internal/store/postgres"
)

// Dependencies bundles every dependency the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Stores
	PairStore        domain.PairStore
	OpportunityStore domain.OpportunityStore
	TickReportStore  domain.TickReportStore

	// Caches
	QuoteCache  domain.QuoteCache
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager

	// Venue clients
	PolySource   domain.MarketSource
	KalshiSource domain.MarketSource

	// Blob storage (only when archiving is enabled)
	BlobWriter domain.BlobWriter

	// Notifications
	Notifier *notify.Notifier

	// Services
	MatchService *service.MatchService
	Archiver     *service.Archiver
	Scanner      *scanner.Scanner
}

// needsMatching returns true for modes that run a matching pass and therefore
// need the embeddings client.
func needsMatching(cfg *config.Config) bool {
	return cfg.Mode == "match" || cfg.Scanner.MatchInterval.Duration > 0
}

// needsScanning returns true for modes that run evaluation ticks.
func needsScanning(cfg *config.Config) bool {
	return cfg.Mode == "scan" || cfg.Mode == "monitor"
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.PairStore = postgres.NewPairStore(pool)
	deps.OpportunityStore = postgres.NewOpportunityStore(pool)
	deps.TickReportStore = postgres.NewTickReportStore(pool)

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.QuoteCache = redis.NewQuoteCache(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)

	// --- Venue clients ---
	deps.PolySource = polymarket.NewGammaClient(cfg.Polymarket.GammaHost)

	kalshiClient := kalshi.NewClient(cfg.Kalshi.BaseURL, cfg.Kalshi.ApiKey)
	if cfg.Kalshi.RsaPrivateKeyPath == "" {
		cleanup()
		return nil, nil, fmt.Errorf("wire: kalshi: rsa_private_key_path is required")
	}
	if err := kalshiClient.LoadRSAPrivateKeyFile(cfg.Kalshi.RsaPrivateKeyPath); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: kalshi: %w", err)
	}
	deps.KalshiSource = kalshiClient

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.Console {
		senders = append(senders, notify.NewConsoleSender(logger))
	}
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Matching ---
	if needsMatching(cfg) {
		embedder := embedding.NewClient(
			cfg.Embedding.BaseURL,
			cfg.Embedding.ApiKey,
			cfg.Embedding.Model,
			cfg.Embedding.BatchSize,
		)
		m := matcher.New(embedder, matcher.Config{
			Threshold:      cfg.Matcher.SimilarityThreshold,
			ChunkSize:      cfg.Matcher.ChunkSize,
			MaxQuestionLen: cfg.Matcher.MaxQuestionLen,
		}, logger)

		deps.MatchService = service.NewMatchService(
			deps.PolySource,
			deps.KalshiSource,
			m,
			deps.PairStore,
			deps.LockManager,
			logger,
		)
	}

	// --- S3 blob storage + archiver ---
	if cfg.Archive.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.Archiver = service.NewArchiver(
			deps.OpportunityStore,
			deps.BlobWriter,
			service.ArchiverConfig{
				Retention:  time.Duration(cfg.Archive.RetentionDays) * 24 * time.Hour,
				Interval:   cfg.Archive.Interval.Duration,
				BatchLimit: cfg.Archive.BatchLimit,
			},
			logger,
		)
	}

	// --- Scanner ---
	if needsScanning(cfg) {
		eval := arbitrage.NewEvaluator(arbitrage.EvaluatorConfig{
			MinProfitMargin: cfg.Scanner.MinProfitMargin,
			QuoteMaxAge:     cfg.Scanner.QuoteMaxAge.Duration,
			Fees: map[domain.Platform]arbitrage.FeeSchedule{
				domain.PlatformPolymarket: {
					FeePercent:   cfg.Polymarket.FeePercent,
					FixedGasCost: cfg.Polymarket.FixedGasCost,
				},
				domain.PlatformKalshi: {
					FeePercent:   cfg.Kalshi.FeePercent,
					FixedGasCost: cfg.Kalshi.FixedGasCost,
				},
			},
		}, logger)

		debounce := arbitrage.NewDebouncer(
			cfg.Scanner.DebounceEpsilon,
			cfg.Scanner.DebounceCooldown.Duration,
		)

		deps.Scanner = scanner.New(
			scanner.Config{
				ScanInterval: cfg.Scanner.ScanInterval.Duration,
				TickTimeout:  cfg.Scanner.TickTimeout.Duration,
				MaxInFlight:  cfg.Scanner.MaxInFlight,
				FetchRetries: cfg.Scanner.FetchRetries,
				RetryBackoff: cfg.Scanner.RetryBackoff.Duration,
				QuoteMaxAge:  cfg.Scanner.QuoteMaxAge.Duration,
				RateLimits: map[domain.Platform]scanner.RateLimit{
					domain.PlatformPolymarket: {
						Limit:  cfg.Polymarket.RateLimit,
						Window: cfg.Polymarket.RateWindow.Duration,
					},
					domain.PlatformKalshi: {
						Limit:  cfg.Kalshi.RateLimit,
						Window: cfg.Kalshi.RateWindow.Duration,
					},
				},
			},
			map[domain.Platform]domain.MarketSource{
				domain.PlatformPolymarket: deps.PolySource,
				domain.PlatformKalshi:     deps.KalshiSource,
			},
			deps.PairStore,
			deps.OpportunityStore,
			deps.TickReportStore,
			deps.QuoteCache,
			deps.RateLimiter,
			deps.LockManager,
			eval,
			debounce,
			deps.Notifier,
			logger,
		)
	}

	return deps, cleanup, nil
}
