package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"rideshare/internal/general/config"
	"rideshare/internal/general/jwt"
	"rideshare/internal/general/logger"
	"rideshare/internal/general/postgres"
	"rideshare/internal/general/rabbitmq"
	"rideshare/internal/relay"
	"rideshare/internal/software/users/handler"
	"rideshare/internal/software/users/service"
)

// Run wires the user service and blocks until ctx is cancelled.
func Run(ctx context.Context, maxConcurrent int) error {
	log := logger.New("user-service")
	ctx = log.WithRequestID(ctx, "startup-001")

	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		log.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}

	pool, err := postgres.NewPool(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err, nil)
		return err
	}
	defer pool.Close()

	rmq, err := rabbitmq.Connect(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
		return err
	}
	defer rmq.Close()

	jwtManager := jwt.NewManager(cfg.JWT.SecretKey, time.Duration(cfg.JWT.TTLHours)*time.Hour)

	uow := postgres.NewUnitOfWork(pool)
	userRepo := postgres.NewUserRepo()
	blacklistRepo := postgres.NewTokenBlacklistRepo(pool)

	updateCache := relay.NewUpdateCache(cfg.CacheTTL())
	rideRelay := relay.New(log, updateCache, cfg.Relay.MaxWaiters)

	svc := service.NewUserService(
		log, uow, userRepo, blacklistRepo, jwtManager, rmq, rideRelay,
		cfg.WaitTimeout(), cfg.CacheTTL(), time.Duration(cfg.JWT.TTLHours)*time.Hour,
	)
	svc.RunBackgroundConsumers(ctx)

	mux := http.NewServeMux()
	httpHandler := handler.NewUserHTTPHandler(svc, log, jwtManager, blacklistRepo)
	httpHandler.RegisterRoutes(mux)

	limitedHandler := withConcurrencyLimit(maxConcurrent, mux)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Services.UserServicePort),
		Handler:           limitedHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Long polls hold the response open for the relay wait timeout.
		WriteTimeout: cfg.WaitTimeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	log.Info(ctx, "service_started",
		fmt.Sprintf("User Service started on port %d", cfg.Services.UserServicePort),
		map[string]any{"port": cfg.Services.UserServicePort, "max_concurrent": maxConcurrent},
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info(ctx, "shutdown_started", "User Service shutting down", nil)
		if err := srv.Shutdown(shCtx); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "http_shutdown_failed", "Failed to gracefully shut down HTTP server", err, nil)
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "http_server_error", "HTTP server terminated with error", err,
				map[string]any{"port": cfg.Services.UserServicePort})
			return err
		}
	}

	return nil
}

// withConcurrencyLimit wraps an http.Handler with a semaphore-based limiter.
// It controls how many HTTP requests can be in-progress at the same time.
func withConcurrencyLimit(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}: // acquire
			defer func() { <-sem }() // release
			next.ServeHTTP(w, r)
		case <-r.Context().Done():
			// client canceled or server is shutting down
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	})
}
