package ssq

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serveUDP answers every datagram on a local UDP socket with reply(request).
func serveUDP(t *testing.T, reply func([]byte) [][]byte) string {
	t.Helper()

	pc, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pc.Close() })

	go func() {
		buf := make([]byte, 2048)
		for {
			n, addr, err := pc.ReadFrom(buf)
			if err != nil {
				return
			}
			for _, d := range reply(buf[:n]) {
				_, _ = pc.WriteTo(d, addr)
			}
		}
	}()

	return pc.LocalAddr().String()
}

func TestUDPPlayersRoundTrip(t *testing.T) {
	const challenge int32 = 0x11223344

	addr := serveUDP(t, func(req []byte) [][]byte {
		if req[len(req)-1] == 0xFF {
			return [][]byte{challengeDatagram(challenge)}
		}
		body := playersBody(Player{Index: 0, Name: "bob", Score: 9, Duration: 60})
		return [][]byte{
			multiDatagram(3, 2, 1, -1, body[4:]),
			multiDatagram(3, 2, 0, -1, body[:4]),
		}
	})

	opts := DefaultOptions()
	opts.RecvTimeout = 2 * time.Second

	players, err := New([]string{addr}, opts).Players(context.Background())
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, Player{Index: 0, Name: "bob", Score: 9, Duration: 60}, players[0])
}

func TestUDPRecvTimeout(t *testing.T) {
	addr := serveUDP(t, func([]byte) [][]byte { return nil })

	opts := DefaultOptions()
	opts.RecvTimeout = 50 * time.Millisecond

	conn, err := DialUDP(context.Background(), []string{addr}, opts)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.NoError(t, conn.Send(PlayerRequest()))

	_, err = conn.Recv()
	require.ErrorIs(t, err, ErrTimeout)
}

func TestDialUDPNoEndpoint(t *testing.T) {
	_, err := DialUDP(context.Background(), nil, DefaultOptions())
	require.ErrorIs(t, err, ErrNoEndpoint)

	_, err = DialUDP(context.Background(), []string{"not-an-address"}, DefaultOptions())
	require.ErrorIs(t, err, ErrNoEndpoint)
}

func TestResolveLiteral(t *testing.T) {
	addrs, err := Resolve(context.Background(), "127.0.0.1", 27015)
	require.NoError(t, err)
	assert.Equal(t, []string{"127.0.0.1:27015"}, addrs)
}
