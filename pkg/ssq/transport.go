package ssq

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

// DefaultBufferSize is the receive buffer size; Source servers split responses above ~1400 bytes.
const DefaultBufferSize = 1400

// Conn is one connected datagram endpoint. It is not safe for concurrent use.
type Conn interface {
	// Send transmits one datagram.
	Send(payload []byte) error

	// Recv blocks until one datagram arrives or the receive timeout expires.
	Recv() ([]byte, error)

	// Close releases the endpoint.
	Close() error
}

// DialFunc connects to the first reachable candidate address.
type DialFunc func(ctx context.Context, candidates []string, opts Options) (Conn, error)

// UDPConn is a Conn over a connected UDP socket with per-operation deadlines.
type UDPConn struct {
	conn        net.Conn
	buf         []byte
	sendTimeout time.Duration
	recvTimeout time.Duration
}

// DialUDP connects to the first candidate that accepts a UDP association.
// Candidates are "host:port" strings; it returns ErrNoEndpoint when none connects.
func DialUDP(ctx context.Context, candidates []string, opts Options) (Conn, error) {
	var (
		dialer  net.Dialer
		lastErr error
	)

	for _, addr := range candidates {
		conn, err := dialer.DialContext(ctx, "udp", addr)
		if err != nil {
			lastErr = err
			continue
		}

		size := opts.BufferSize
		if size <= 0 {
			size = DefaultBufferSize
		}

		return &UDPConn{
			conn:        conn,
			buf:         make([]byte, size),
			sendTimeout: opts.SendTimeout,
			recvTimeout: opts.RecvTimeout,
		}, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoEndpoint, lastErr)
	}

	return nil, ErrNoEndpoint
}

// Send writes one datagram, bounded by the send timeout.
func (c *UDPConn) Send(payload []byte) error {
	if err := c.conn.SetWriteDeadline(deadline(c.sendTimeout)); err != nil {
		return fmt.Errorf("%w: %w", ErrSystem, err)
	}

	if _, err := c.conn.Write(payload); err != nil {
		return wrapNetErr(err)
	}

	return nil
}

// Recv reads one datagram, bounded by the receive timeout.
// The returned slice is only valid until the next Recv.
func (c *UDPConn) Recv() ([]byte, error) {
	if err := c.conn.SetReadDeadline(deadline(c.recvTimeout)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSystem, err)
	}

	n, err := c.conn.Read(c.buf)
	if err != nil {
		return nil, wrapNetErr(err)
	}

	return c.buf[:n], nil
}

// Close closes the socket.
func (c *UDPConn) Close() error {
	return c.conn.Close()
}

// Resolve looks up host and returns "ip:port" candidates, IPv4 addresses first.
func Resolve(ctx context.Context, host string, port int) ([]string, error) {
	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", host, err)
	}

	var v4, v6 []string
	for _, ip := range ips {
		addr := net.JoinHostPort(ip.IP.String(), strconv.Itoa(port))
		if ip.IP.To4() != nil {
			v4 = append(v4, addr)
		} else {
			v6 = append(v6, addr)
		}
	}

	return append(v4, v6...), nil
}

func deadline(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}

	return time.Now().Add(d)
}

func wrapNetErr(err error) error {
	var netErr net.Error
	if errors.Is(err, os.ErrDeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %w", ErrSystem, err)
}
