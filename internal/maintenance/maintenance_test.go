package maintenance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/woozymasta/squery/internal/config"
)

type pruneStore struct {
	snapCutoff   time.Time
	serverCutoff time.Time
}

func (p *pruneStore) DeleteSnapshotsBefore(t time.Time) (int64, error) {
	p.snapCutoff = t
	return 3, nil
}

func (p *pruneStore) DeleteServersBefore(t time.Time) (int64, error) {
	p.serverCutoff = t
	return 1, nil
}

func TestRunDisabled(t *testing.T) {
	store := &pruneStore{}
	assert.False(t, Run(&config.Config{}, store))
	assert.True(t, store.snapCutoff.IsZero())
}

func TestRunPrune(t *testing.T) {
	store := &pruneStore{}
	cfg := &config.Config{}
	cfg.Storage.PruneOlder = 24 * time.Hour

	assert.True(t, Run(cfg, store))
	assert.WithinDuration(t, time.Now().Add(-24*time.Hour), store.snapCutoff, time.Minute)
	assert.Equal(t, store.snapCutoff, store.serverCutoff)
}
