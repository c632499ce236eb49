// Package fake provides utilities for generating random snapshot data for testing and development purposes.
package fake

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/squery/internal/models"
	"github.com/woozymasta/squery/pkg/ssq"
)

// Store is the subset of storage populated by the generator.
type Store interface {
	UpsertServer(s models.Server) error
	InsertSnapshot(snap models.Snapshot) (int64, error)
}

var (
	maps      = []string{"chernarusplus", "livonia", "namalsk", "takistan", "enoch", "sakhal", "deerisle"}
	countries = []string{"US", "DE", "RU", "CN", "BR", "FR", "GB", "PL", "CZ", "KZ", "UA"}
	nicknames = []string{"Survivor", "Bambi", "Fresh", "Raider", "Medic", "Hunter", "Nomad", "Sniper"}
)

// GenerateData populates the storage with count randomized servers, each with
// a day of hourly player snapshots.
func GenerateData(store Store, count int) {
	for i := 0; i < count; i++ {
		address := fmt.Sprintf("%d.%d.%d.%d:%d", rand.Intn(220)+1, rand.Intn(255), rand.Intn(255), rand.Intn(255), 27015+rand.Intn(100))
		now := time.Now()

		for h := 23; h >= 0; h-- {
			taken := now.Add(-time.Duration(h) * time.Hour)
			players := Players(rand.Intn(60))

			server := models.Server{
				Address:     address,
				CountryCode: countries[rand.Intn(len(countries))],
				ServerName:  fmt.Sprintf("DayZ Server #%d [PvP]", i),
				MapName:     maps[rand.Intn(len(maps))],
				GameName:    "DayZ",
				Players:     byte(len(players)),
				MaxPlayers:  60,
				FirstSeen:   taken,
				LastSeen:    taken,
			}

			if err := store.UpsertServer(server); err != nil {
				log.Warn().Err(err).Msg("Failed to generate fake server")
				continue
			}

			if _, err := store.InsertSnapshot(models.Snapshot{Address: address, TakenAt: taken, Players: players}); err != nil {
				log.Warn().Err(err).Msg("Failed to generate fake snapshot")
			}
		}
	}
}

// Players returns n random players with sequential indexes.
func Players(n int) []ssq.Player {
	players := make([]ssq.Player, n)
	for i := range players {
		players[i] = ssq.Player{
			Index:    uint8(i),
			Name:     fmt.Sprintf("%s%d", nicknames[rand.Intn(len(nicknames))], rand.Intn(1000)),
			Score:    int32(rand.Intn(50)),
			Duration: rand.Float32() * 7200,
		}
	}

	return players
}
