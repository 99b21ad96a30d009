package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"rideshare/internal/general/config"
	"rideshare/internal/general/logger"
	"rideshare/internal/software/gateway"
)

// Run wires the gateway and blocks until ctx is cancelled.
func Run(ctx context.Context, maxConcurrent int) error {
	log := logger.New("gateway")
	ctx = log.WithRequestID(ctx, "startup-001")

	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		log.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}

	targets, err := upstreamTargets(cfg)
	if err != nil {
		log.Error(ctx, "gateway_targets_invalid", "Failed to build upstream targets", err, nil)
		return err
	}

	gw := gateway.New(log, targets)
	limitedHandler := withConcurrencyLimit(maxConcurrent, gw)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Services.GatewayPort),
		Handler:           limitedHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Proxied long polls hold the response open for the relay wait timeout.
		WriteTimeout: cfg.WaitTimeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	log.Info(ctx, "service_started",
		fmt.Sprintf("Gateway started on port %d", cfg.Services.GatewayPort),
		map[string]any{"port": cfg.Services.GatewayPort, "max_concurrent": maxConcurrent},
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
		log.Info(ctx, "shutdown_started", "Gateway shutting down", nil)
		if err := srv.Shutdown(shCtx); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "http_shutdown_failed", "Failed to gracefully shut down HTTP server", err, nil)
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "http_server_error", "HTTP server terminated with error", err,
				map[string]any{"port": cfg.Services.GatewayPort})
			return err
		}
	}

	return nil
}

// upstreamTargets maps path prefixes to service base URLs. The host defaults
// to localhost and can be overridden with UPSTREAM_HOST for containerized
// deployments.
func upstreamTargets(cfg *config.Config) (map[string]*url.URL, error) {
	host := os.Getenv("UPSTREAM_HOST")
	if host == "" {
		host = "localhost"
	}

	targets := make(map[string]*url.URL, 3)
	for prefix, port := range map[string]int{
		"/users":    cfg.Services.UserServicePort,
		"/captains": cfg.Services.CaptainServicePort,
		"/rides":    cfg.Services.RideServicePort,
	} {
		u, err := url.Parse(fmt.Sprintf("http://%s:%d", host, port))
		if err != nil {
			return nil, fmt.Errorf("upstream for %s: %w", prefix, err)
		}
		targets[prefix] = u
	}
	return targets, nil
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
