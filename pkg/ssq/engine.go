package ssq

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/rs/zerolog"
)

const (
	// TagChallenge is the response tag of a challenge request (S2C_CHALLENGE).
	TagChallenge = 0x41

	// NoChallenge is the challenge value sent before the server issued one.
	NoChallenge int32 = -1

	// DefaultMaxChallenges bounds how many times a query is re-sent with a new challenge.
	DefaultMaxChallenges = 5

	challengeLen = 4
)

// Engine runs the send, reassemble and challenge loop over one connection.
// It is not safe for concurrent use.
type Engine struct {
	conn          Conn
	logger        zerolog.Logger
	maxChallenges int
}

// NewEngine returns an Engine that re-sends at most maxChallenges times.
// A negative maxChallenges selects DefaultMaxChallenges.
func NewEngine(conn Conn, maxChallenges int, logger zerolog.Logger) *Engine {
	if maxChallenges < 0 {
		maxChallenges = DefaultMaxChallenges
	}

	return &Engine{
		conn:          conn,
		maxChallenges: maxChallenges,
		logger:        logger,
	}
}

// Query sends payload and returns the reassembled response.
//
// The last four bytes of payload are the challenge field. When the server
// answers with a challenge it is patched into a copy of the payload and the
// query is re-sent, at most maxChallenges times before ErrChallengeLoop.
func (e *Engine) Query(payload []byte) ([]byte, error) {
	if len(payload) < HeaderLen+1+challengeLen {
		return nil, fmt.Errorf("%w: query payload of %d bytes has no challenge field", ErrTruncated, len(payload))
	}

	req := bytes.Clone(payload)

	for attempt := 0; ; attempt++ {
		e.logger.Trace().
			Int("attempt", attempt).
			Hex("payload", req).
			Msg("Sending query")

		if err := e.conn.Send(req); err != nil {
			return nil, fmt.Errorf("failed to send query: %w", err)
		}

		resp, err := e.receive()
		if err != nil {
			return nil, err
		}

		challenge, ok := ParseChallenge(resp)
		if !ok {
			e.logger.Debug().
				Int("attempt", attempt).
				Int("size", len(resp)).
				Msg("Query answered")
			return resp, nil
		}

		if attempt >= e.maxChallenges {
			return nil, fmt.Errorf("%w: %d challenges received", ErrChallengeLoop, attempt+1)
		}

		e.logger.Debug().
			Int("attempt", attempt).
			Int32("challenge", challenge).
			Msg("Server requested challenge, re-sending")

		SetChallenge(req, challenge)
	}
}

// receive reads datagrams until one response is fully reassembled.
// Duplicate fragments are tolerated up to twice the declared fragment count.
func (e *Engine) receive() ([]byte, error) {
	var r Reassembler

	for received := 0; ; received++ {
		if r.Total() > 0 && received > 2*int(r.Total()) {
			return nil, fmt.Errorf("%w: %d datagrams without completing %d fragments", ErrBadResponse, received, r.Total())
		}

		datagram, err := e.conn.Recv()
		if err != nil {
			return nil, fmt.Errorf("failed to receive response: %w", err)
		}

		packet, err := DecodePacket(datagram)
		if err != nil {
			return nil, err
		}

		e.logger.Trace().
			Stringer("kind", packet.Kind).
			Int32("id", packet.ID).
			Uint8("number", packet.Number).
			Uint8("total", packet.Total).
			Int("size", len(packet.Payload)).
			Msg("Packet received")

		done, err := r.Add(packet)
		if err != nil {
			return nil, err
		}
		if done {
			return r.Bytes()
		}
	}
}

// ParseChallenge reports whether resp is a challenge request and returns its value.
// A leading single-packet header is ignored.
func ParseChallenge(resp []byte) (int32, bool) {
	b := stripSingleHeader(resp)
	if len(b) < 1+challengeLen || b[0] != TagChallenge {
		return 0, false
	}

	return int32(binary.LittleEndian.Uint32(b[1 : 1+challengeLen])), true
}

// SetChallenge writes challenge into the trailing four bytes of payload.
func SetChallenge(payload []byte, challenge int32) {
	binary.LittleEndian.PutUint32(payload[len(payload)-challengeLen:], uint32(challenge))
}

// stripSingleHeader drops a leading FF FF FF FF some servers keep in the body.
func stripSingleHeader(b []byte) []byte {
	if len(b) >= HeaderLen && int32(binary.LittleEndian.Uint32(b)) == HeaderSingle {
		return b[HeaderLen:]
	}

	return b
}
