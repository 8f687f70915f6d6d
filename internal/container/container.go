package container

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/FACorreiaa/go-trip-planner/app/cache"
	database "github.com/FACorreiaa/go-trip-planner/app/db"
	"github.com/FACorreiaa/go-trip-planner/app/ratelimit"
	"github.com/FACorreiaa/go-trip-planner/app/secure"
	"github.com/FACorreiaa/go-trip-planner/config"
	"github.com/FACorreiaa/go-trip-planner/internal/api/chat"
	"github.com/FACorreiaa/go-trip-planner/internal/api/external"
	generativeAI "github.com/FACorreiaa/go-trip-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-trip-planner/internal/api/geo"
	"github.com/FACorreiaa/go-trip-planner/internal/api/images"
	"github.com/FACorreiaa/go-trip-planner/internal/api/share"
	"github.com/FACorreiaa/go-trip-planner/internal/api/trip"
	"github.com/FACorreiaa/go-trip-planner/internal/api/weather"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *slog.Logger
	Pool         *pgxpool.Pool
	Redis        *redis.Client
	NATS         *nats.Conn
	TripHandler  *trip.HandlerImpl
	ChatHandler  *chat.HandlerImpl
	ShareHandler *share.HandlerImpl
}

// NewContainer opens the database pool and the optional Redis and NATS
// connections, then builds every service and handler on top of them.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}
	pool, err := database.Init(ctx, dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	c := &Container{Config: cfg, Logger: logger, Pool: pool}

	redisCfg := cfg.Repositories.Redis
	c.Redis = cache.ConnectRedis(redisCfg.Addr, redisCfg.Password, redisCfg.DB)
	if c.Redis != nil {
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable, using in-process cache", slog.Any("error", err))
			_ = c.Redis.Close()
			c.Redis = nil
		}
	}
	ttl := redisCfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	store := cache.New(c.Redis, ttl)

	llm := newCompleter(ctx, cfg, logger)

	cities := geo.NewCachedGeocoder(
		geo.NewOpenMeteoGeocoder(cfg.Geocoding.BaseURL, httpClient(cfg.Geocoding), logger),
		store, "city:", ttl, logger)
	places := geo.NewCachedGeocoder(
		geo.NewNominatimGeocoder(cfg.Nominatim.BaseURL, cfg.Nominatim.UserAgent, httpClient(cfg.Nominatim), logger),
		store, "place:", ttl, logger)
	forecaster := weather.NewOpenMeteoForecaster(cfg.Weather.BaseURL, httpClient(cfg.Weather), store, 3*time.Hour, logger)

	var imgs images.Searcher = images.NoopSearcher{}
	if cfg.Unsplash.APIKey != "" {
		imgs = images.NewUnsplashSearcher(cfg.Unsplash.BaseURL, cfg.Unsplash.APIKey, httpClient(cfg.Unsplash), logger)
	}
	enricher := trip.NewActivityEnricher(places, imgs, cfg.Enrichment.Concurrency, logger)

	tripRepo := trip.NewPostgresTripRepo(pool, logger)
	tripService := trip.NewServiceImpl(tripRepo, llm, cities, forecaster, enricher, trip.PipelineConfig{
		StageTimeout:   cfg.Pipeline.StageTimeout,
		EnrichTimeout:  cfg.Pipeline.EnrichTimeout,
		PersistTimeout: cfg.Pipeline.PersistTimeout,

		RejectPastStartDates: cfg.Pipeline.RejectPastStartDates,
	}, logger)
	c.TripHandler = trip.NewHandler(tripService, logger)

	cipher, err := secure.NewCipher(cfg.Crypto.ChatSecret)
	if err != nil {
		pool.Close()
		return nil, err
	}
	chatRepo := chat.NewPostgresChatRepo(pool, logger)
	chatService := chat.NewServiceImpl(chatRepo, tripService, llm, cipher, chat.Config{
		MaxTurns:      cfg.Chat.MaxTurns,
		ContextWindow: cfg.Chat.ContextWindow,
	}, logger)
	c.ChatHandler = chat.NewHandler(chatService, logger)

	var notifier share.Notifier = share.NewLogNotifier(logger)
	if cfg.NATS.URL != "" {
		conn, err := nats.Connect(cfg.NATS.URL,
			nats.Name("go-trip-planner"),
			nats.MaxReconnects(-1),
			nats.RetryOnFailedConnect(true),
		)
		if err != nil {
			logger.Warn("NATS unavailable, share notifications go to the log", slog.Any("error", err))
		} else {
			c.NATS = conn
			notifier = share.NewNATSNotifier(conn, cfg.NATS.Subject, logger)
		}
	}
	shareRepo := share.NewPostgresShareRepo(pool, logger)
	shareService := share.NewServiceImpl(shareRepo, tripRepo, notifier, logger)
	c.ShareHandler = share.NewHandler(shareService, logger)

	return c, nil
}

func newCompleter(ctx context.Context, cfg *config.Config, logger *slog.Logger) generativeAI.Completer {
	aiCfg := generativeAI.Config{APIKey: cfg.LLM.APIKey, Model: cfg.LLM.Model}
	if cfg.LLM.Timeout > 0 {
		aiCfg.HTTPClient = &http.Client{Timeout: cfg.LLM.Timeout}
	}
	client, err := generativeAI.NewAIClient(ctx, aiCfg, logger)
	if err != nil {
		if errors.Is(err, generativeAI.ErrUnavailable) {
			logger.Warn("No LLM API key configured, every generation stage will use its fallback")
		} else {
			logger.Error("Failed to create LLM client", slog.Any("error", err))
		}
		return generativeAI.UnavailableCompleter{}
	}
	return client
}

func httpClient(svc config.ExternalService) *http.Client {
	return external.NewClient(svc.Timeout, ratelimit.Quota{PerSecond: svc.PerSecond, Burst: svc.Burst})
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.NATS != nil {
		if err := c.NATS.Drain(); err != nil {
			c.Logger.Warn("NATS drain failed", slog.Any("error", err))
		}
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}
