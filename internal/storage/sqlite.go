// Package storage handles database connections, schema migrations, and data operations using SQLite.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/woozymasta/squery/internal/models"
	"github.com/woozymasta/squery/pkg/ssq"
	_ "modernc.org/sqlite" // Driver sqlite
)

// Repository manages the SQLite database connection.
type Repository struct {
	db *sql.DB
}

// New initializes a new SQLite connection, sets connection pool parameters, and runs migrations.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)&_time_format=sqlite"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// UpsertServer inserts a server or updates an existing one by address.
// Info fields are only overwritten when the new record carries a server name,
// so a failed A2S_INFO query keeps the last known values.
func (r *Repository) UpsertServer(s models.Server) error {
	query := `
	INSERT INTO servers (
		address, country_code, server_name, map_name, game_name,
		players, max_players, count, first_seen, last_seen
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	ON CONFLICT(address) DO UPDATE SET
		count = count + 1,
		last_seen = excluded.last_seen,

		country_code = CASE WHEN excluded.country_code != '' THEN excluded.country_code ELSE servers.country_code END,

		server_name = CASE WHEN excluded.server_name != '' THEN excluded.server_name ELSE servers.server_name END,
		map_name    = CASE WHEN excluded.server_name != '' THEN excluded.map_name ELSE servers.map_name END,
		game_name   = CASE WHEN excluded.server_name != '' THEN excluded.game_name ELSE servers.game_name END,
		max_players = CASE WHEN excluded.server_name != '' THEN excluded.max_players ELSE servers.max_players END,
		players     = excluded.players;
	`

	_, err := r.db.Exec(query,
		s.Address, s.CountryCode, s.ServerName, s.MapName, s.GameName,
		s.Players, s.MaxPlayers, s.FirstSeen.UTC(), s.LastSeen.UTC(),
	)

	return err
}

const serverColumns = `
	address, country_code, server_name, map_name, game_name,
	players, max_players, count, first_seen, last_seen`

func scanServer(row interface{ Scan(...any) error }) (models.Server, error) {
	var s models.Server
	err := row.Scan(
		&s.Address, &s.CountryCode, &s.ServerName, &s.MapName, &s.GameName,
		&s.Players, &s.MaxPlayers, &s.Count, &s.FirstSeen, &s.LastSeen,
	)

	return s, err
}

// GetServers retrieves all servers sorted by the last seen timestamp in descending order.
func (r *Repository) GetServers() ([]models.Server, error) {
	rows, err := r.db.Query(`SELECT ` + serverColumns + ` FROM servers ORDER BY last_seen DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var servers []models.Server
	for rows.Next() {
		s, err := scanServer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan server: %w", err)
		}
		servers = append(servers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return servers, nil
}

// GetServer retrieves one server by address, nil when unknown.
func (r *Repository) GetServer(address string) (*models.Server, error) {
	row := r.db.QueryRow(`SELECT `+serverColumns+` FROM servers WHERE address = ?`, address)

	s, err := scanServer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// InsertSnapshot stores a player list and returns its id.
func (r *Repository) InsertSnapshot(snap models.Snapshot) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`INSERT INTO snapshots (address, taken_at) VALUES (?, ?)`, snap.Address, snap.TakenAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`INSERT INTO snapshot_players (snapshot_id, idx, name, score, duration) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	for _, p := range snap.Players {
		if _, err := stmt.Exec(id, p.Index, p.Name, p.Score, p.Duration); err != nil {
			return 0, fmt.Errorf("failed to insert player %q: %w", p.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return id, nil
}

// GetSnapshots returns up to limit most recent snapshots of a server, newest first.
func (r *Repository) GetSnapshots(address string, limit int) ([]models.Snapshot, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(`
		SELECT id, address, taken_at
		FROM snapshots
		WHERE address = ?
		ORDER BY taken_at DESC, id DESC
		LIMIT ?
	`, address, limit)
	if err != nil {
		return nil, err
	}

	var snaps []models.Snapshot
	for rows.Next() {
		var s models.Snapshot
		if err := rows.Scan(&s.ID, &s.Address, &s.TakenAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, s)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range snaps {
		if snaps[i].Players, err = r.snapshotPlayers(snaps[i].ID); err != nil {
			return nil, err
		}
	}

	return snaps, nil
}

func (r *Repository) snapshotPlayers(id int64) ([]ssq.Player, error) {
	rows, err := r.db.Query(`
		SELECT idx, name, score, duration
		FROM snapshot_players
		WHERE snapshot_id = ?
		ORDER BY rowid
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	players := []ssq.Player{}
	for rows.Next() {
		var p ssq.Player
		if err := rows.Scan(&p.Index, &p.Name, &p.Score, &p.Duration); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}

	return players, rows.Err()
}

// DeleteSnapshotsBefore removes snapshots taken before t together with their players.
func (r *Repository) DeleteSnapshotsBefore(t time.Time) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		DELETE FROM snapshot_players
		WHERE snapshot_id IN (SELECT id FROM snapshots WHERE taken_at < ?)
	`, t.UTC()); err != nil {
		return 0, err
	}

	res, err := tx.Exec(`DELETE FROM snapshots WHERE taken_at < ?`, t.UTC())
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return n, tx.Commit()
}

// DeleteServersBefore removes servers not seen since t.
func (r *Repository) DeleteServersBefore(t time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM servers WHERE last_seen < ?`, t.UTC())
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

// DeleteServer removes a server with its snapshots and players.
// It reports whether the server existed.
func (r *Repository) DeleteServer(address string) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		DELETE FROM snapshot_players
		WHERE snapshot_id IN (SELECT id FROM snapshots WHERE address = ?)
	`, address); err != nil {
		return false, err
	}

	if _, err := tx.Exec(`DELETE FROM snapshots WHERE address = ?`, address); err != nil {
		return false, err
	}

	res, err := tx.Exec(`DELETE FROM servers WHERE address = ?`, address)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, tx.Commit()
}
