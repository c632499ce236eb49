// Package monitor periodically queries a list of game servers and records their player lists.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
	"github.com/woozymasta/squery/internal/config"
	"github.com/woozymasta/squery/internal/game"
	"github.com/woozymasta/squery/internal/logger"
	"github.com/woozymasta/squery/internal/models"
	"github.com/woozymasta/squery/pkg/ssq"
	"golang.org/x/time/rate"
)

// Store persists poll results.
type Store interface {
	UpsertServer(s models.Server) error
	InsertSnapshot(snap models.Snapshot) (int64, error)
	DeleteSnapshotsBefore(t time.Time) (int64, error)
}

// Publisher receives every stored snapshot.
type Publisher interface {
	PublishSnapshot(snap models.Snapshot)
}

// CountryResolver maps a server address to an ISO country code.
type CountryResolver interface {
	CountryCode(address string) string
}

// Info is the subset of A2S_INFO kept for a server.
type Info struct {
	Name       string
	Map        string
	Game       string
	Players    byte
	MaxPlayers byte
}

// PlayersFunc runs an A2S_PLAYER query.
type PlayersFunc func(ctx context.Context, address string) ([]ssq.Player, error)

// InfoFunc runs an A2S_INFO query.
type InfoFunc func(address string) (*Info, error)

// Stats summarizes one polling round.
type Stats struct {
	Polled int64
	Failed int64
}

// Monitor polls targets with a bounded worker pool. Each query uses its own connection.
type Monitor struct {
	store     Store
	geo       CountryResolver
	publisher Publisher
	players   PlayersFunc
	info      InfoFunc
	limiter   *rate.Limiter
	logger    zerolog.Logger
	targets   []string
	interval  time.Duration
	retention time.Duration
	workers   int
}

// New builds a Monitor from configuration. Targets are normalized and de-duplicated.
func New(cfg *config.Config, store Store, geo CountryResolver) (*Monitor, error) {
	targets, err := Targets(cfg.Monitor.Targets)
	if err != nil {
		return nil, err
	}

	a2sOpts := cfg.A2S
	limit := rate.Inf
	if cfg.Monitor.Rate > 0 {
		limit = rate.Limit(cfg.Monitor.Rate)
	}

	return &Monitor{
		store:   store,
		geo:     geo,
		targets: targets,
		players: func(ctx context.Context, address string) ([]ssq.Player, error) {
			return game.QueryPlayers(ctx, address, a2sOpts)
		},
		info: func(address string) (*Info, error) {
			i, err := game.QueryInfo(address, a2sOpts)
			if err != nil {
				return nil, err
			}
			return &Info{Name: i.Name, Map: i.Map, Game: i.Game, Players: i.Players, MaxPlayers: i.MaxPlayers}, nil
		},
		limiter:   rate.NewLimiter(limit, max(1, cfg.Monitor.Workers)),
		logger:    logger.Component("monitor"),
		interval:  cfg.Monitor.Interval,
		retention: cfg.Storage.Retention,
		workers:   max(1, cfg.Monitor.Workers),
	}, nil
}

// SetPublisher attaches a snapshot publisher.
func (m *Monitor) SetPublisher(p Publisher) {
	m.publisher = p
}

// Targets normalizes addresses to "host:port" and drops duplicates, keeping order.
func Targets(addresses []string) ([]string, error) {
	seen := make(map[uint64]struct{}, len(addresses))
	out := make([]string, 0, len(addresses))

	for _, a := range addresses {
		addr, err := game.NormalizeAddress(a)
		if err != nil {
			return nil, fmt.Errorf("invalid monitor target: %w", err)
		}

		hash := xxhash.Sum64String(addr)
		if _, dup := seen[hash]; dup {
			continue
		}
		seen[hash] = struct{}{}
		out = append(out, addr)
	}

	return out, nil
}

// Run polls immediately and then on every interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	if len(m.targets) == 0 {
		m.logger.Warn().Msg("No monitor targets configured, poller disabled")
		return
	}

	interval := m.interval
	if interval <= 0 {
		interval = time.Minute
	}

	m.logger.Info().
		Int("targets", len(m.targets)).
		Dur("interval", interval).
		Int("workers", m.workers).
		Msg("Monitor started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		stats := m.Poll(ctx)
		m.logger.Debug().
			Int64("polled", stats.Polled).
			Int64("failed", stats.Failed).
			Msg("Polling round finished")

		select {
		case <-ctx.Done():
			m.logger.Info().Msg("Monitor stopped")
			return
		case <-ticker.C:
		}
	}
}

// Poll queries every target once and waits for all workers.
func (m *Monitor) Poll(ctx context.Context) Stats {
	var (
		stats Stats
		wg    sync.WaitGroup
		jobs  = make(chan string)
	)

	for i := 0; i < m.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for addr := range jobs {
				if err := m.pollOne(ctx, addr); err != nil {
					atomic.AddInt64(&stats.Failed, 1)
				}
				atomic.AddInt64(&stats.Polled, 1)
			}
		}()
	}

send:
	for _, addr := range m.targets {
		if err := m.limiter.Wait(ctx); err != nil {
			break
		}
		select {
		case jobs <- addr:
		case <-ctx.Done():
			break send
		}
	}
	close(jobs)
	wg.Wait()

	if m.retention > 0 {
		if n, err := m.store.DeleteSnapshotsBefore(time.Now().Add(-m.retention)); err != nil {
			m.logger.Error().Err(err).Msg("Failed to apply snapshot retention")
		} else if n > 0 {
			m.logger.Debug().Int64("deleted", n).Msg("Old snapshots removed")
		}
	}

	return stats
}

// pollOne queries one server and stores the result.
func (m *Monitor) pollOne(ctx context.Context, addr string) error {
	logCtx := m.logger.With().Str("target", addr).Logger()

	players, err := m.players(ctx, addr)
	if err != nil {
		logCtx.Debug().Err(err).Msg("A2S_PLAYER query failed")
		return err
	}

	now := time.Now()
	server := models.Server{
		Address:   addr,
		Players:   byte(min(len(players), 255)),
		FirstSeen: now,
		LastSeen:  now,
	}

	if m.geo != nil {
		server.CountryCode = m.geo.CountryCode(addr)
	}

	if info, err := m.info(addr); err != nil {
		logCtx.Debug().Err(err).Msg("A2S_INFO query failed")
	} else {
		server.ServerName = info.Name
		server.MapName = info.Map
		server.GameName = info.Game
		server.MaxPlayers = info.MaxPlayers
	}

	if err := m.store.UpsertServer(server); err != nil {
		logCtx.Error().Err(err).Msg("Failed to save server")
		return err
	}

	snap := models.Snapshot{Address: addr, TakenAt: now, Players: players}
	if snap.ID, err = m.store.InsertSnapshot(snap); err != nil {
		logCtx.Error().Err(err).Msg("Failed to save snapshot")
		return err
	}

	if m.publisher != nil {
		m.publisher.PublishSnapshot(snap)
	}

	logCtx.Trace().Int("players", len(players)).Msg("Snapshot saved")

	return nil
}
