// Package models defines the data structures used for API responses and database persistence.
package models

import (
	"time"

	"github.com/woozymasta/squery/pkg/ssq"
)

// Server is a polled game server stored in the database.
type Server struct {
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
	Address     string    `json:"address"`
	CountryCode string    `json:"country_code"`
	ServerName  string    `json:"server_name"`
	MapName     string    `json:"map_name"`
	GameName    string    `json:"game_name"`
	Count       int64     `json:"count"`
	Players     byte      `json:"players"`
	MaxPlayers  byte      `json:"max_players"`
}

// Snapshot is the player list of one server at one point in time.
type Snapshot struct {
	TakenAt time.Time    `json:"taken_at"`
	Address string       `json:"address"`
	Players []ssq.Player `json:"players"`
	ID      int64        `json:"id"`
}
