// Package server implements the HTTP API, middleware, and request handlers for the application.
package server

import (
	"context"
	"net/http"

	"github.com/woozymasta/a2s/pkg/a2s"
	"github.com/woozymasta/squery/internal/config"
	"github.com/woozymasta/squery/internal/game"
	"github.com/woozymasta/squery/pkg/ssq"
)

// New creates a new Server instance with the provided storage and configuration.
func New(store Store, cfg *config.Config) *Server {
	a2sOpts := cfg.A2S

	return &Server{
		storage: store,
		queryPlayers: func(ctx context.Context, address string) ([]ssq.Player, error) {
			return game.QueryPlayers(ctx, address, a2sOpts)
		},
		queryInfo: func(address string) (*a2s.Info, error) {
			return game.QueryInfo(address, a2sOpts)
		},
		authToken:      cfg.Server.AuthToken,
		trustProxy:     cfg.Server.TrustProxy,
		hardLimitCount: cfg.Server.HardLimitCount,
		hardLimitWin:   cfg.Server.HardLimitWin,
		shutdown:       make(chan struct{}),
	}
}

// Close stops background goroutines started by the middleware.
func (s *Server) Close() {
	select {
	case <-s.shutdown:
	default:
		close(s.shutdown)
	}
}

// Run configures the HTTP routes and returns the main handler.
func (s *Server) Run() http.Handler {
	mux := http.NewServeMux()

	auth := func(h http.HandlerFunc) http.Handler {
		return AdminAuthMiddleware(s.authToken, h)
	}

	mux.Handle("GET /api/version", http.HandlerFunc(s.handleVersion))
	mux.Handle("GET /api/players", auth(s.handlePlayers))
	mux.Handle("GET /api/info", auth(s.handleInfo))
	mux.Handle("GET /api/servers", auth(s.handleServers))
	mux.Handle("GET /api/server", auth(s.handleServer))
	mux.Handle("DELETE /api/server", auth(s.handleDeleteServer))
	mux.Handle("GET /api/snapshots", auth(s.handleSnapshots))

	return s.LoggingMiddleware(s.RateLimitMiddleware(mux))
}
