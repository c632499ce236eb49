// Package game provides functionality to query game servers using the Source Engine Query (A2S) protocol.
package game

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/woozymasta/a2s/pkg/a2s"
	"github.com/woozymasta/squery/internal/config"
	"github.com/woozymasta/squery/internal/logger"
	"github.com/woozymasta/squery/pkg/ssq"
)

// DefaultPort is the standard Source query port.
const DefaultPort = 27015

// SplitAddress parses "host[:port]", defaulting the port to DefaultPort.
func SplitAddress(address string) (string, int, error) {
	if address == "" {
		return "", 0, fmt.Errorf("empty address")
	}

	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		// no port present
		if ip := net.ParseIP(address); ip != nil || !strings.Contains(address, ":") {
			return address, DefaultPort, nil
		}
		return "", 0, fmt.Errorf("invalid address %q: %w", address, err)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port in address %q", address)
	}
	if host == "" {
		return "", 0, fmt.Errorf("missing host in address %q", address)
	}

	return host, port, nil
}

// NormalizeAddress returns address as "host:port".
func NormalizeAddress(address string) (string, error) {
	host, port, err := SplitAddress(address)
	if err != nil {
		return "", err
	}

	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}

// QueryInfo connects to a game server via UDP and requests A2S_INFO.
// It returns server details (such as name, map, players) or an error if the server is unreachable.
func QueryInfo(address string, options config.A2S) (*a2s.Info, error) {
	host, port, err := SplitAddress(address)
	if err != nil {
		return nil, err
	}

	client, err := a2s.New(host, port)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Close() }()

	client.BufferSize = options.BufferSize
	client.Timeout = options.RecvTimeout

	return client.GetInfo()
}

// QueryPlayers resolves address and requests A2S_PLAYER, handling split responses and challenges.
func QueryPlayers(ctx context.Context, address string, options config.A2S) ([]ssq.Player, error) {
	host, port, err := SplitAddress(address)
	if err != nil {
		return nil, err
	}

	candidates, err := ssq.Resolve(ctx, host, port)
	if err != nil {
		return nil, err
	}

	return ssq.New(candidates, ClientOptions(address, options)).Players(ctx)
}

// ClientOptions maps the A2S configuration onto protocol client options.
func ClientOptions(address string, options config.A2S) ssq.Options {
	opts := ssq.DefaultOptions()
	opts.SendTimeout = options.SendTimeout
	opts.RecvTimeout = options.RecvTimeout
	opts.MaxChallenges = options.MaxChallenges
	opts.Logger = logger.Component("ssq").With().Str("target", address).Logger()
	if options.BufferSize > 0 {
		opts.BufferSize = int(options.BufferSize)
	}

	return opts
}
