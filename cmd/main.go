package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"dinein/internal/access"
	"dinein/internal/auth"
	"dinein/internal/config"
	"dinein/internal/domain"
	httpapi "dinein/internal/http"
	"dinein/internal/payment"
	"dinein/internal/realtime"
	"dinein/internal/repository"
	"dinein/internal/service"

	_ "dinein/docs"
)

const (
	hubQueueSize    = 64
	gatewayTimeout  = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("server exited gracefully")
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func openStore(cfg *config.Config, logger *slog.Logger) (repository.Set, func(), error) {
	if cfg.StoreDriver == config.StorePostgres {
		store, err := repository.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return repository.Set{}, nil, err
		}
		logger.Info("using postgres store")
		return store.Set(), func() {
			if err := store.Close(); err != nil {
				logger.Warn("close store", "error", err)
			}
		}, nil
	}
	logger.Warn("using in-memory store, data is lost on restart")
	return repository.NewMemorySet(), func() {}, nil
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	hub := realtime.NewHub(logger, hubQueueSize)
	var bus realtime.EventBus = hub
	if cfg.AMQPURL != "" {
		mirror, err := realtime.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return err
		}
		defer mirror.Close()
		bus = realtime.MultiBus{hub, mirror}
		logger.Info("mirroring events to amqp", "exchange", cfg.AMQPExchange)
	}

	policy := domain.PermissiveTransitions
	if cfg.StrictTransitions {
		policy = domain.StrictTransitions
	}

	gate := access.NewGate(repos.Permissions)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	gateway := payment.NewRazorpayClient(cfg.RazorpayAPIURL, gatewayTimeout)
	platform := payment.Credentials{KeyID: cfg.RazorpayKeyID, KeySecret: cfg.RazorpayKeySecret}
	if !platform.Configured() {
		logger.Warn("platform gateway keys not set, platform online payments are disabled")
	}

	orders := service.NewOrderService(repos, gate, bus, policy, logger)
	authSvc := service.NewAuthService(repos, gate, tokens, logger)
	svc := httpapi.Services{
		Orders:      orders,
		Payments:    service.NewPaymentService(orders, repos, gateway, platform, cfg.Currency, logger),
		Menu:        service.NewMenuService(repos.Dishes, repos.Restaurants, gate),
		Restaurants: service.NewRestaurantService(repos),
		Auth:        authSvc,
		Reports:     service.NewReportService(repos.Orders, gate),
	}
	if err := authSvc.EnsureSuperadmin(ctx, cfg.SuperadminEmail, cfg.SuperadminPassword); err != nil {
		return err
	}

	srv := httpapi.NewServer(svc, httpapi.Options{
		Tokens:      tokens,
		Realtime: realtime.NewWSHandler(hub, realtime.WSOptions{
			Tokens:         tokens,
			Gate:           gate,
			Logger:         logger,
			AllowedOrigins: cfg.CORSOrigins,
		}),
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	})
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", httpServer.Addr, "store", cfg.StoreDriver, "strict_transitions", cfg.StrictTransitions)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
