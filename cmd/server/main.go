package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"codecollab/internal/api"
	"codecollab/internal/assist"
	"codecollab/internal/assist/llm"
	_ "codecollab/internal/assist/llm/gemini"
	"codecollab/internal/assist/prompts"
	"codecollab/internal/assist/speech"
	"codecollab/internal/config"
	"codecollab/internal/events"
	"codecollab/internal/history"
	"codecollab/internal/jobs"
	"codecollab/internal/routers"
	"codecollab/internal/session"
	"codecollab/internal/utils"
)

const shutdownTimeout = 30 * time.Second

var (
	listenAndServe = func(srv *http.Server) error { return srv.ListenAndServe() }
	exitFunc       = func(err error) { log.Printf("collab-svc: %v", err); os.Exit(1) }
)

// app owns everything that needs closing on shutdown.
type app struct {
	handler   http.Handler
	hub       *session.Hub
	publisher events.Publisher
	sweeper   *jobs.SessionSweeper
	logger    *zap.Logger
}

func (a *app) close() {
	a.sweeper.Stop()
	a.hub.Shutdown()
	if err := a.publisher.Close(); err != nil {
		a.logger.Warn("failed to close event publisher", zap.Error(err))
	}
}

func newPublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) events.Publisher {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, lifecycle events disabled")
		return events.NopPublisher{}
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, lifecycle events disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = rdb.Close()
		return events.NopPublisher{}
	}
	pub := events.NewRedisPublisher(rdb, cfg.RedisEventsChannel, logger)
	logger.Info("publishing lifecycle events",
		zap.String("addr", cfg.RedisAddr),
		zap.String("channel", cfg.RedisEventsChannel),
		zap.String("instance_id", pub.InstanceID()))
	return pub
}

func newProvider(cfg *config.Config, logger *zap.Logger) llm.Provider {
	if cfg.Provider != "gemini" {
		logger.Info("using heuristic analysis only")
		return nil
	}
	provider, err := llm.NewProvider(cfg.Provider)
	if err != nil {
		logger.Warn("failed to initialize LLM provider, using heuristic analysis",
			zap.String("provider", cfg.Provider), zap.Error(err))
		return nil
	}
	logger.Info("LLM provider initialized", zap.String("provider", provider.GetProviderName()))
	return provider
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	hub := session.NewHub(logger, session.RandomColor)
	registry := session.NewRegistry(hub.Exists)
	publisher := newPublisher(ctx, cfg, logger)
	dispatcher := session.NewDispatcher(hub, registry, publisher, logger)

	sweeper := jobs.NewSessionSweeper(hub, publisher, jobs.SweeperConfig{
		Schedule: cfg.SessionSweepSchedule,
		IdleTTL:  cfg.SessionIdleTTL,
	}, logger)
	if err := sweeper.Start(); err != nil {
		hub.Shutdown()
		_ = publisher.Close()
		return nil, err
	}

	promptManager, err := prompts.NewPromptManager()
	if err != nil {
		sweeper.Stop()
		hub.Shutdown()
		_ = publisher.Close()
		return nil, err
	}
	assistService := assist.NewService(newProvider(cfg, logger), promptManager, logger)

	deps := api.Deps{
		Config:     cfg,
		Hub:        hub,
		Dispatcher: dispatcher,
		Assist:     assistService,
		Speech: speech.NewService(speech.Config{
			BaseURL: cfg.TTSBaseURL,
			APIKey:  cfg.TTSAPIKey,
			Model:   cfg.TTSModel,
		}, logger),
		WebRTC: utils.ClientWebRTCConfig(utils.GetWebRTCConfig()),
	}

	db, err := history.Open(cfg.HistoryDriver, cfg.HistoryDSN)
	if err != nil {
		logger.Warn("analysis history disabled", zap.String("driver", cfg.HistoryDriver), zap.Error(err))
	} else if db != nil {
		repo := history.NewRepository(db)
		assistService.SetHistory(repo)
		deps.History = repo
		logger.Info("analysis history enabled", zap.String("driver", cfg.HistoryDriver))
	}

	return &app{
		handler:   routers.New(cfg, api.NewHandlers(logger, deps)),
		hub:       hub,
		publisher: publisher,
		sweeper:   sweeper,
		logger:    logger,
	}, nil
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger, err := utils.NewLogger(cfg.Env)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("collab service starting", zap.String("addr", server.Addr), zap.String("ws_path", cfg.WSPath))
		errCh <- listenAndServe(server)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("collab service shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("collab service exited")
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		exitFunc(err)
	}
}
