// Package maintenance provide tools for clean and update database
package maintenance

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/squery/internal/config"
)

// Store is the subset of storage used by maintenance tasks.
type Store interface {
	DeleteSnapshotsBefore(t time.Time) (int64, error)
	DeleteServersBefore(t time.Time) (int64, error)
}

// Run checks if any maintenance flags are set and executes the corresponding tasks.
// Returns true if a maintenance task was executed (indicating the program should exit).
func Run(cfg *config.Config, store Store) bool {
	if cfg.Storage.PruneOlder <= 0 {
		return false
	}

	cutoff := time.Now().Add(-cfg.Storage.PruneOlder)
	log.Info().Time("cutoff", cutoff).Msg("Pruning snapshots and servers...")

	snaps, err := store.DeleteSnapshotsBefore(cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Failed to prune snapshots")
		return true
	}

	servers, err := store.DeleteServersBefore(cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Failed to prune servers")
		return true
	}

	log.Info().
		Int64("snapshots", snaps).
		Int64("servers", servers).
		Msg("Prune finished")

	return true
}
