package ssq

import "fmt"

// Reassembler collects the fragments of one logical response.
//
// The first packet fixes the response id and the fragment count; slots are sized
// by that count and every later packet is validated against it before it is stored.
// A repeated fragment number replaces the earlier payload.
type Reassembler struct {
	slots   [][]byte
	filled  []bool
	missing int
	id      int32
	total   uint8
	started bool
}

// Add stores one packet. It returns true once every fragment has arrived.
// Any inconsistency aborts reassembly with ErrBadResponse.
func (r *Reassembler) Add(p Packet) (bool, error) {
	if !r.started {
		if p.Total == 0 {
			return false, fmt.Errorf("%w: fragment declares zero total", ErrBadResponse)
		}

		r.started = true
		r.id = p.ID
		r.total = p.Total
		r.slots = make([][]byte, p.Total)
		r.filled = make([]bool, p.Total)
		r.missing = int(p.Total)
	}

	switch {
	case p.ID != r.id:
		return false, fmt.Errorf("%w: fragment id %d does not match %d", ErrBadResponse, p.ID, r.id)
	case p.Total != r.total:
		return false, fmt.Errorf("%w: fragment declares total %d, expected %d", ErrBadResponse, p.Total, r.total)
	case p.Number >= r.total:
		return false, fmt.Errorf("%w: fragment number %d out of range [0, %d)", ErrBadResponse, p.Number, r.total)
	}

	if !r.filled[p.Number] {
		r.filled[p.Number] = true
		r.missing--
	}
	r.slots[p.Number] = p.Payload

	return r.Done(), nil
}

// Done reports whether every fragment has been received.
func (r *Reassembler) Done() bool {
	return r.started && r.missing == 0
}

// Total returns the fragment count fixed by the first packet, or 0 before any packet.
func (r *Reassembler) Total() uint8 {
	return r.total
}

// ID returns the response id fixed by the first packet.
func (r *Reassembler) ID() int32 {
	return r.id
}

// Bytes concatenates the fragment payloads in fragment order.
// It fails with ErrBadResponse while fragments are still missing.
func (r *Reassembler) Bytes() ([]byte, error) {
	if !r.Done() {
		return nil, fmt.Errorf("%w: %d of %d fragments missing", ErrBadResponse, r.missing, r.total)
	}

	size := 0
	for _, s := range r.slots {
		size += len(s)
	}

	out := make([]byte, 0, size)
	for _, s := range r.slots {
		out = append(out, s...)
	}

	return out, nil
}
