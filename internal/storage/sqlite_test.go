package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/squery/internal/models"
	"github.com/woozymasta/squery/pkg/ssq"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	repo, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")

	repo, err := New(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = New(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())
}

func TestUpsertServer(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.UpsertServer(models.Server{
		Address:     "10.0.0.1:27015",
		CountryCode: "DE",
		ServerName:  "First",
		MapName:     "chernarusplus",
		Players:     3,
		MaxPlayers:  60,
		FirstSeen:   now,
		LastSeen:    now,
	}))

	// info query failed: keep name and map, update players
	require.NoError(t, repo.UpsertServer(models.Server{
		Address:   "10.0.0.1:27015",
		Players:   5,
		FirstSeen: now.Add(time.Minute),
		LastSeen:  now.Add(time.Minute),
	}))

	s, err := repo.GetServer("10.0.0.1:27015")
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, "First", s.ServerName)
	assert.Equal(t, "chernarusplus", s.MapName)
	assert.Equal(t, "DE", s.CountryCode)
	assert.Equal(t, byte(5), s.Players)
	assert.Equal(t, byte(60), s.MaxPlayers)
	assert.Equal(t, int64(2), s.Count)
	assert.True(t, s.FirstSeen.Equal(now))
	assert.True(t, s.LastSeen.Equal(now.Add(time.Minute)))

	missing, err := repo.GetServer("10.0.0.2:27015")
	require.NoError(t, err)
	assert.Nil(t, missing)

	servers, err := repo.GetServers()
	require.NoError(t, err)
	assert.Len(t, servers, 1)
}

func TestSnapshots(t *testing.T) {
	repo := newTestRepo(t)
	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)

	for i := 0; i < 3; i++ {
		_, err := repo.InsertSnapshot(models.Snapshot{
			Address: "10.0.0.1:27015",
			TakenAt: base.Add(time.Duration(i) * time.Minute),
			Players: []ssq.Player{
				{Index: 0, Name: "alice", Score: int32(i), Duration: 10.5},
				{Index: 1, Name: "bob", Score: -1, Duration: 2},
			},
		})
		require.NoError(t, err)
	}

	_, err := repo.InsertSnapshot(models.Snapshot{Address: "10.0.0.1:27015", TakenAt: base.Add(10 * time.Minute)})
	require.NoError(t, err)

	snaps, err := repo.GetSnapshots("10.0.0.1:27015", 2)
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	assert.Empty(t, snaps[0].Players, "latest snapshot is an empty server")
	require.Len(t, snaps[1].Players, 2)
	assert.Equal(t, ssq.Player{Index: 0, Name: "alice", Score: 2, Duration: 10.5}, snaps[1].Players[0])
	assert.Equal(t, "bob", snaps[1].Players[1].Name)

	deleted, err := repo.DeleteSnapshotsBefore(base.Add(90 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	snaps, err = repo.GetSnapshots("10.0.0.1:27015", 10)
	require.NoError(t, err)
	assert.Len(t, snaps, 2)
}

func TestDeleteServersBefore(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now().UTC()

	require.NoError(t, repo.UpsertServer(models.Server{Address: "old:1", FirstSeen: now.Add(-48 * time.Hour), LastSeen: now.Add(-48 * time.Hour)}))
	require.NoError(t, repo.UpsertServer(models.Server{Address: "new:1", FirstSeen: now, LastSeen: now}))

	n, err := repo.DeleteServersBefore(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	servers, err := repo.GetServers()
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, "new:1", servers[0].Address)
}

func TestDeleteServer(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now().UTC()

	for _, addr := range []string{"a:1", "b:1"} {
		require.NoError(t, repo.UpsertServer(models.Server{Address: addr, FirstSeen: now, LastSeen: now}))
		_, err := repo.InsertSnapshot(models.Snapshot{
			Address: addr,
			TakenAt: now,
			Players: []ssq.Player{{Index: 0, Name: "alice", Score: 1, Duration: 2}},
		})
		require.NoError(t, err)
	}

	found, err := repo.DeleteServer("a:1")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.DeleteServer("a:1")
	require.NoError(t, err)
	assert.False(t, found)

	server, err := repo.GetServer("a:1")
	require.NoError(t, err)
	assert.Nil(t, server)

	snaps, err := repo.GetSnapshots("a:1", 10)
	require.NoError(t, err)
	assert.Empty(t, snaps)

	var orphans int
	require.NoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM snapshot_players p LEFT JOIN snapshots s ON s.id = p.snapshot_id WHERE s.id IS NULL`).Scan(&orphans))
	assert.Zero(t, orphans)

	snaps, err = repo.GetSnapshots("b:1", 10)
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}
