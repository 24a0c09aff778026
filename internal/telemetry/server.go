package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerConfig configures the optional /metrics HTTP endpoint.
type ServerConfig struct {
	Addr string // e.g. "127.0.0.1:9273"; empty disables the server
	Path string // default "/metrics"
}

// NewServer builds an *http.Server exposing reg on cfg.Path. Callers run
// it via Serve/ListenAndServe in their own supervised goroutine.
func NewServer(cfg ServerConfig, reg *prometheus.Registry) *http.Server {
	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Serve listens on srv.Addr and serves until ctx is done or srv.Shutdown
// is called elsewhere; a clean shutdown is not treated as an error.
func Serve(ctx context.Context, srv *http.Server) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("telemetry: listen on %s: %w", srv.Addr, err)
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("telemetry: serve on %s: %w", srv.Addr, err)
	}
	return nil
}
