package gateway

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"rideshare/internal/general/logger"
)

// Gateway is the single public entry point. It forwards each request to the
// service owning the path prefix and leaves authentication to the services.
type Gateway struct {
	logger  *logger.Logger
	proxies map[string]*httputil.ReverseProxy // prefix -> proxy
}

// New builds a gateway routing each path prefix to its upstream base URL.
func New(log *logger.Logger, targets map[string]*url.URL) *Gateway {
	g := &Gateway{
		logger:  log,
		proxies: make(map[string]*httputil.ReverseProxy, len(targets)),
	}

	for prefix, target := range targets {
		proxy := httputil.NewSingleHostReverseProxy(target)
		proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			log.Error(r.Context(), "proxy_upstream_failed", "Upstream request failed", err,
				map[string]any{"path": r.URL.Path, "upstream": target.String()})
			http.Error(w, `{"error":"upstream unavailable"}`, http.StatusBadGateway)
		}
		// Long-poll endpoints hold the connection for up to the relay wait
		// timeout, so the transport must not cut responses off early.
		proxy.Transport = &http.Transport{
			ResponseHeaderTimeout: 60 * time.Second,
			IdleConnTimeout:       90 * time.Second,
		}
		g.proxies[prefix] = proxy
	}

	return g
}

// ServeHTTP routes the request by its first path segment.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := g.withReqID(r.Context(), r)
	r = r.WithContext(ctx)

	if r.URL.Path == "/health" {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
		return
	}

	for prefix, proxy := range g.proxies {
		if strings.HasPrefix(r.URL.Path, prefix) {
			g.logger.Debug(ctx, "proxy_forward", "Forwarding request",
				map[string]any{"path": r.URL.Path, "prefix": prefix})
			proxy.ServeHTTP(w, r)
			return
		}
	}

	g.logger.Info(ctx, "proxy_no_route", "No upstream for path",
		map[string]any{"path": r.URL.Path})
	http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
}

// withReqID propagates or mints a request ID so upstream logs correlate.
func (g *Gateway) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		var b [12]byte
		_, _ = rand.Read(b[:])
		reqID = hex.EncodeToString(b[:])
		r.Header.Set("X-Request-ID", reqID)
	}
	return g.logger.WithRequestID(ctx, reqID)
}
