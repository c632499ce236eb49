package ssq

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Options configures a Client.
type Options struct {
	// Logger receives debug and trace events, defaults to a disabled logger.
	Logger zerolog.Logger

	// Dial opens the connection, defaults to DialUDP.
	Dial DialFunc

	// SendTimeout bounds each send.
	SendTimeout time.Duration

	// RecvTimeout bounds each receive.
	RecvTimeout time.Duration

	// BufferSize is the receive buffer size in bytes.
	BufferSize int

	// MaxChallenges bounds the challenge re-sends per query.
	MaxChallenges int
}

// DefaultOptions returns the options used by New when none are given.
func DefaultOptions() Options {
	return Options{
		Logger:        zerolog.Nop(),
		Dial:          DialUDP,
		SendTimeout:   3 * time.Second,
		RecvTimeout:   3 * time.Second,
		BufferSize:    DefaultBufferSize,
		MaxChallenges: DefaultMaxChallenges,
	}
}

// Client queries one server. Each query opens and closes its own connection,
// so a Client may be shared as long as calls are not made concurrently.
type Client struct {
	opts       Options
	candidates []string
}

// New returns a Client for the given "host:port" candidates, tried in order.
func New(candidates []string, opts Options) *Client {
	if opts.Dial == nil {
		opts.Dial = DialUDP
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}

	return &Client{
		candidates: candidates,
		opts:       opts,
	}
}

// Query sends payload and returns the reassembled response, resolving challenges.
func (c *Client) Query(ctx context.Context, payload []byte) ([]byte, error) {
	conn, err := c.opts.Dial(ctx, c.candidates, c.opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	return NewEngine(conn, c.opts.MaxChallenges, c.opts.Logger).Query(payload)
}

// Players runs an A2S_PLAYER query.
func (c *Client) Players(ctx context.Context) ([]Player, error) {
	resp, err := c.Query(ctx, PlayerRequest())
	if err != nil {
		return nil, fmt.Errorf("A2S_PLAYER query failed: %w", err)
	}

	return DecodePlayers(resp)
}
