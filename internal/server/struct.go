package server

import (
	"context"
	"time"

	"github.com/woozymasta/a2s/pkg/a2s"
	"github.com/woozymasta/squery/internal/models"
	"github.com/woozymasta/squery/pkg/ssq"
)

// Store is the snapshot storage used by the API.
type Store interface {
	GetServers() ([]models.Server, error)
	GetServer(address string) (*models.Server, error)
	GetSnapshots(address string, limit int) ([]models.Snapshot, error)
	DeleteServer(address string) (bool, error)
}

// Server holds the dependencies, configuration, and runtime state required
// to handle HTTP requests.
type Server struct {
	// storage provides read access to polled servers and player snapshots.
	storage Store

	// queryPlayers performs a live A2S_PLAYER query.
	queryPlayers func(ctx context.Context, address string) ([]ssq.Player, error)

	// queryInfo performs a live A2S_INFO query.
	queryInfo func(address string) (*a2s.Info, error)

	// shutdown is closed by Close to stop background cleanup goroutines.
	shutdown chan struct{}

	// authToken is the secret token required to access administrative API endpoints.
	authToken string

	// hardLimitCount is the maximum number of requests allowed per IP address
	// within the hardLimitWin duration.
	hardLimitCount int

	// hardLimitWin is the time window duration for the per IP rate limiter.
	hardLimitWin time.Duration

	// trustProxy indicates whether the server should trust headers like X-Forwarded-For
	// or CF-Connecting-IP when determining the client's real IP address.
	trustProxy bool
}
