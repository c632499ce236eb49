package ssq

import "fmt"

const (
	// HeaderSingle marks a response carried by one datagram (FF FF FF FF).
	HeaderSingle int32 = -1

	// HeaderMulti marks one fragment of a split response (FE FF FF FF).
	HeaderMulti int32 = -2

	// HeaderLen is the size of the leading packet header.
	HeaderLen = 4

	// compressionFlag is the top bit of a multi-packet id.
	compressionFlag = -1 << 31
)

// Kind distinguishes single datagram responses from fragments.
type Kind uint8

// Packet kinds.
const (
	Single Kind = iota
	Multi
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Single:
		return "single"
	case Multi:
		return "multi"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Packet is one decoded datagram.
type Packet struct {
	// Payload is the data carried by this datagram, owned by the packet.
	Payload []byte

	// ID identifies the response a fragment belongs to. Zero for Single.
	ID int32

	// Kind of the datagram.
	Kind Kind

	// Total is the declared fragment count, 1 for Single.
	Total uint8

	// Number is the zero-based fragment index, 0 for Single.
	Number uint8
}

// Compressed reports whether the server flagged the response as compressed.
func (p Packet) Compressed() bool {
	return p.ID&compressionFlag != 0
}

// DecodePacket turns one raw datagram into a Packet.
// The payload is copied so the caller may reuse its receive buffer.
func DecodePacket(datagram []byte) (Packet, error) {
	cur := NewCursor(datagram)

	header, err := cur.ReadInt32()
	if err != nil {
		return Packet{}, fmt.Errorf("failed to read packet header: %w", err)
	}

	switch header {
	case HeaderSingle:
		return Packet{
			Kind:    Single,
			Total:   1,
			Number:  0,
			Payload: copyPayload(cur, cur.Remaining()),
		}, nil

	case HeaderMulti:
		return decodeMulti(cur)

	default:
		return Packet{}, fmt.Errorf("%w: unknown packet header 0x%08X", ErrInvalidResponse, uint32(header))
	}
}

func decodeMulti(cur *Cursor) (Packet, error) {
	var (
		p   = Packet{Kind: Multi}
		err error
	)

	if p.ID, err = cur.ReadInt32(); err != nil {
		return Packet{}, fmt.Errorf("failed to read fragment id: %w", err)
	}
	if p.Total, err = cur.ReadUint8(); err != nil {
		return Packet{}, fmt.Errorf("failed to read fragment total: %w", err)
	}
	if p.Number, err = cur.ReadUint8(); err != nil {
		return Packet{}, fmt.Errorf("failed to read fragment number: %w", err)
	}

	size, err := cur.ReadUint16()
	if err != nil {
		return Packet{}, fmt.Errorf("failed to read fragment size: %w", err)
	}

	if p.Compressed() {
		return Packet{}, fmt.Errorf("%w: compressed response (id 0x%08X)", ErrUnsupported, uint32(p.ID))
	}

	p.Payload = copyPayload(cur, min(int(size), cur.Remaining()))

	return p, nil
}

// copyPayload copies n bytes, n never exceeds cur.Remaining().
func copyPayload(cur *Cursor, n int) []byte {
	b, _ := cur.ReadBytes(n)
	out := make([]byte, len(b))
	copy(out, b)

	return out
}
