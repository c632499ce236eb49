package game

import (
	"context"
	"encoding/binary"
	"math"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/squery/internal/config"
)

func TestSplitAddress(t *testing.T) {
	tests := []struct {
		address string
		host    string
		port    int
		wantErr bool
	}{
		{address: "10.0.0.1:2303", host: "10.0.0.1", port: 2303},
		{address: "10.0.0.1", host: "10.0.0.1", port: DefaultPort},
		{address: "dayz.example.com", host: "dayz.example.com", port: DefaultPort},
		{address: "[::1]:27016", host: "::1", port: 27016},
		{address: "::1", host: "::1", port: DefaultPort},
		{address: "host:0", wantErr: true},
		{address: "host:99999", wantErr: true},
		{address: "host:abc", wantErr: true},
		{address: ":27015", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			host, port, err := SplitAddress(tt.address)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.host, host)
			assert.Equal(t, tt.port, port)
		})
	}
}

func TestNormalizeAddress(t *testing.T) {
	addr, err := NormalizeAddress("127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:27015", addr)
}

func TestQueryPlayers(t *testing.T) {
	pc, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = pc.Close() }()

	go func() {
		buf := make([]byte, 1400)
		for {
			n, from, err := pc.ReadFrom(buf)
			if err != nil {
				return
			}
			if n < 9 || buf[4] != 0x55 {
				continue
			}

			// challenge first, then answer
			if binary.LittleEndian.Uint32(buf[5:9]) == 0xFFFFFFFF {
				_, _ = pc.WriteTo([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x41, 1, 2, 3, 4}, from)
				continue
			}

			resp := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x44, 1, 0}
			resp = append(resp, "Survivor\x00"...)
			resp = binary.LittleEndian.AppendUint32(resp, 7)
			resp = binary.LittleEndian.AppendUint32(resp, math.Float32bits(30))
			_, _ = pc.WriteTo(resp, from)
		}
	}()

	players, err := QueryPlayers(context.Background(), pc.LocalAddr().String(), config.A2S{
		SendTimeout:   time.Second,
		RecvTimeout:   time.Second,
		BufferSize:    1400,
		MaxChallenges: 2,
	})
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "Survivor", players[0].Name)
	assert.Equal(t, int32(7), players[0].Score)
	assert.Equal(t, float32(30), players[0].Duration)
}
