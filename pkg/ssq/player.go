package ssq

import (
	"fmt"
	"time"
)

const (
	// TagPlayerRequest is the A2S_PLAYER request tag.
	TagPlayerRequest = 0x55

	// TagPlayerResponse is the A2S_PLAYER response tag.
	TagPlayerResponse = 0x44
)

// Player is one entry of an A2S_PLAYER response.
type Player struct {
	Name     string  `json:"name"`
	Score    int32   `json:"score"`
	Duration float32 `json:"duration"`
	Index    uint8   `json:"index"`
}

// Played returns the connection time as a time.Duration.
func (p Player) Played() time.Duration {
	return time.Duration(float64(p.Duration) * float64(time.Second))
}

// PlayerRequest returns a fresh A2S_PLAYER payload carrying NoChallenge.
func PlayerRequest() []byte {
	payload := []byte{0xFF, 0xFF, 0xFF, 0xFF, TagPlayerRequest, 0, 0, 0, 0}
	SetChallenge(payload, NoChallenge)

	return payload
}

// DecodePlayers decodes a reassembled A2S_PLAYER response.
// An empty server yields an empty slice and no error; a decode failure yields no players.
func DecodePlayers(resp []byte) ([]Player, error) {
	cur := NewCursor(stripSingleHeader(resp))

	tag, err := cur.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("failed to read response tag: %w", err)
	}
	if tag != TagPlayerResponse {
		return nil, fmt.Errorf("%w: A2S_PLAYER response tag 0x%02X", ErrInvalidResponse, tag)
	}

	count, err := cur.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("failed to read player count: %w", err)
	}

	players := make([]Player, count)
	for i := range players {
		if players[i], err = readPlayer(cur); err != nil {
			return nil, fmt.Errorf("failed to read player %d of %d: %w", i, count, err)
		}
	}

	return players, nil
}

func readPlayer(cur *Cursor) (Player, error) {
	var (
		p   Player
		err error
	)

	if p.Index, err = cur.ReadUint8(); err != nil {
		return Player{}, err
	}
	if p.Name, err = cur.ReadCString(); err != nil {
		return Player{}, err
	}
	if p.Score, err = cur.ReadInt32(); err != nil {
		return Player{}, err
	}
	if p.Duration, err = cur.ReadFloat32(); err != nil {
		return Player{}, err
	}

	return p, nil
}
