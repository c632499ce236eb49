package fake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/woozymasta/squery/internal/models"
)

type countingStore struct {
	servers   map[string]int
	snapshots int
}

func (c *countingStore) UpsertServer(s models.Server) error {
	c.servers[s.Address]++
	return nil
}

func (c *countingStore) InsertSnapshot(models.Snapshot) (int64, error) {
	c.snapshots++
	return int64(c.snapshots), nil
}

func TestGenerateData(t *testing.T) {
	store := &countingStore{servers: map[string]int{}}

	GenerateData(store, 2)
	assert.Equal(t, 48, store.snapshots)
	assert.LessOrEqual(t, len(store.servers), 2)
}

func TestPlayers(t *testing.T) {
	players := Players(5)
	assert.Len(t, players, 5)
	for i, p := range players {
		assert.Equal(t, uint8(i), p.Index)
		assert.NotEmpty(t, p.Name)
	}
}
