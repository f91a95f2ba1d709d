package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/clarityworks/reflectd/internal/billing"
	"github.com/clarityworks/reflectd/internal/events"
	"github.com/clarityworks/reflectd/internal/health"
	"github.com/clarityworks/reflectd/internal/httpapi"
	"github.com/clarityworks/reflectd/internal/idempotency"
	"github.com/clarityworks/reflectd/internal/limits"
	"github.com/clarityworks/reflectd/internal/logging"
	"github.com/clarityworks/reflectd/internal/metrics"
	"github.com/clarityworks/reflectd/internal/orchestrator"
	"github.com/clarityworks/reflectd/internal/providers/anthropic"
	"github.com/clarityworks/reflectd/internal/providers/gemini"
	"github.com/clarityworks/reflectd/internal/providers/ollama"
	"github.com/clarityworks/reflectd/internal/providers/openai"
	"github.com/clarityworks/reflectd/internal/ratelimit"
	"github.com/clarityworks/reflectd/internal/store"
	"github.com/clarityworks/reflectd/internal/tracing"
)

type Server struct {
	cfg Config

	r *chi.Mux

	engine *orchestrator.Engine
	store  store.Store
	rdb    *redis.Client
	rate   *ratelimit.Limiter
	replay *idempotency.ReplayCache
	logger *slog.Logger

	tracingShutdown func(context.Context) error
}

func NewServer(cfg Config) (*Server, error) {
	logger := logging.Setup(cfg.LogLevel)

	var tracingShutdown func(context.Context) error
	if cfg.TracingEnabled {
		shutdown, err := tracing.Setup(tracing.Config{
			Enabled:     true,
			Endpoint:    cfg.TracingEndpoint,
			ServiceName: "reflectd",
		})
		if err != nil {
			return nil, err
		}
		tracingShutdown = shutdown
	}

	corsOrigins := cfg.CORSOrigins
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	m := metrics.New()
	rate := ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst, time.Second,
		ratelimit.WithCounter(m.RateLimitDenials))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if cfg.TracingEnabled {
		r.Use(tracing.Middleware())
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(rate.Middleware)

	db, err := store.NewSQLite(cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("database initialized", slog.String("dsn", cfg.DBDSN))

	ht := health.NewTracker(health.DefaultConfig())
	eng := orchestrator.NewEngine(
		orchestrator.WithLogger(logger),
		orchestrator.WithMetrics(m),
		orchestrator.WithHealth(ht),
	)

	timeout := time.Duration(cfg.ProviderTimeoutSecs) * time.Second
	registerProviders(eng, cfg, timeout, logger)
	if len(eng.Providers()) == 0 {
		logger.Warn("no provider credentials configured; all requests will be served the static template")
	}

	var rdb *redis.Client
	var limiter *limits.Limiter
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		limiter = limits.New(rdb, cfg.SummaryDailyLimit, 24*time.Hour)
		logger.Info("summary limit enabled",
			slog.String("redis", cfg.RedisAddr),
			slog.Int("daily_limit", cfg.SummaryDailyLimit))
	} else {
		logger.Warn("REFLECTD_REDIS_ADDR not set; summary limits are not enforced")
	}

	var bill *billing.Service
	if cfg.StripeSecretKey != "" {
		bill = billing.New(cfg.StripeSecretKey,
			billing.WithStore(db),
			billing.WithLogger(logger))
		logger.Info("billing enabled")
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set; billing endpoints disabled")
	}

	bus := events.NewBus()
	replay := idempotency.New(5*time.Minute, 2048)

	s := &Server{
		cfg:             cfg,
		r:               r,
		engine:          eng,
		store:           db,
		rdb:             rdb,
		rate:            rate,
		replay:          replay,
		logger:          logger,
		tracingShutdown: tracingShutdown,
	}

	httpapi.MountRoutes(r, httpapi.Dependencies{
		Engine:        eng,
		Metrics:       m,
		Store:         db,
		Health:        ht,
		Limiter:       limiter,
		Billing:       bill,
		EventBus:      bus,
		Idempotency:   replay,
		DefaultOrigin: cfg.SiteOrigin,
		AdminToken:    cfg.AdminToken,
	})

	return s, nil
}

func (s *Server) Router() http.Handler { return s.r }

// Reload applies runtime-adjustable settings from a freshly loaded config.
// Provider registration, storage, and routes are fixed at startup; changing
// those requires a restart.
func (s *Server) Reload(cfg Config) {
	s.cfg = cfg
	logging.SetLevel(cfg.LogLevel)
	s.logger.Info("configuration reloaded", slog.String("log_level", cfg.LogLevel))
}

func (s *Server) Close() error {
	if s.rate != nil {
		s.rate.Stop()
	}
	if s.replay != nil {
		s.replay.Stop()
	}
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
	if s.tracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.tracingShutdown(ctx)
	}
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// registerProviders builds the fallback chain in fixed order: each configured
// Gemini model, then OpenAI, Anthropic, and a self-hosted OpenAI-compatible
// endpoint. Backends without a credential are skipped.
func registerProviders(eng *orchestrator.Engine, cfg Config, timeout time.Duration, logger *slog.Logger) {
	client := &http.Client{Transport: tracing.HTTPTransport(http.DefaultTransport)}

	if cfg.GeminiAPIKey != "" {
		for _, model := range cfg.GeminiModels {
			id := "gemini-" + model
			eng.Register(gemini.New(id, model, cfg.GeminiAPIKey, gemini.WithHTTPClient(client)), timeout)
			logger.Info("registered provider", slog.String("provider", id))
		}
	}

	if cfg.OpenAIAPIKey != "" {
		eng.Register(openai.New("openai", cfg.OpenAIModel, cfg.OpenAIAPIKey, openai.WithHTTPClient(client)), timeout)
		logger.Info("registered provider", slog.String("provider", "openai"))
	}

	if cfg.AnthropicAPIKey != "" {
		eng.Register(anthropic.New("anthropic", cfg.AnthropicModel, cfg.AnthropicAPIKey, anthropic.WithHTTPClient(client)), timeout)
		logger.Info("registered provider", slog.String("provider", "anthropic"))
	}

	if cfg.OllamaEndpoint != "" {
		eng.Register(ollama.New("ollama", cfg.OllamaModel, cfg.OllamaEndpoint, ollama.WithHTTPClient(client)), timeout)
		logger.Info("registered provider",
			slog.String("provider", "ollama"),
			slog.String("endpoint", cfg.OllamaEndpoint))
	}
}
