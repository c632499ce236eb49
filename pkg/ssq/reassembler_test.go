package ssq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fragment(id int32, total, number uint8, payload string) Packet {
	return Packet{Kind: Multi, ID: id, Total: total, Number: number, Payload: []byte(payload)}
}

func TestReassemblerOutOfOrder(t *testing.T) {
	var r Reassembler

	for i, p := range []Packet{
		fragment(7, 3, 2, "third"),
		fragment(7, 3, 0, "first-"),
		fragment(7, 3, 1, "second-"),
	} {
		done, err := r.Add(p)
		require.NoError(t, err)
		assert.Equal(t, i == 2, done)
	}

	b, err := r.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "first-second-third", string(b))
	assert.Equal(t, int32(7), r.ID())
}

func TestReassemblerSingle(t *testing.T) {
	var r Reassembler

	done, err := r.Add(Packet{Kind: Single, Total: 1, Payload: []byte{0x44, 0x00}})
	require.NoError(t, err)
	require.True(t, done)

	b, err := r.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x44, 0x00}, b)
}

func TestReassemblerRejects(t *testing.T) {
	tests := []struct {
		name   string
		second Packet
	}{
		{"id mismatch", fragment(8, 3, 1, "x")},
		{"number out of range", fragment(7, 3, 3, "x")},
		{"total disagrees", fragment(7, 4, 1, "x")},
		{"single after multi", Packet{Kind: Single, Total: 1, Payload: []byte("x")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Reassembler

			_, err := r.Add(fragment(7, 3, 0, "a"))
			require.NoError(t, err)

			done, err := r.Add(tt.second)
			require.ErrorIs(t, err, ErrBadResponse)
			assert.False(t, done)

			_, err = r.Bytes()
			require.ErrorIs(t, err, ErrBadResponse)
		})
	}
}

func TestReassemblerFirstFragmentOutOfRange(t *testing.T) {
	var r Reassembler

	_, err := r.Add(fragment(1, 2, 5, "x"))
	require.ErrorIs(t, err, ErrBadResponse)
}

func TestReassemblerZeroTotal(t *testing.T) {
	var r Reassembler

	_, err := r.Add(fragment(1, 0, 0, "x"))
	require.ErrorIs(t, err, ErrBadResponse)
	assert.False(t, r.Done())
}

func TestReassemblerDuplicateLastWins(t *testing.T) {
	var r Reassembler

	done, err := r.Add(fragment(3, 2, 0, "old"))
	require.NoError(t, err)
	require.False(t, done)

	done, err = r.Add(fragment(3, 2, 0, "new"))
	require.NoError(t, err)
	require.False(t, done, "duplicate must not count as a new fragment")

	done, err = r.Add(fragment(3, 2, 1, "-tail"))
	require.NoError(t, err)
	require.True(t, done)

	b, err := r.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "new-tail", string(b))
}

func TestReassemblerIncomplete(t *testing.T) {
	var r Reassembler

	_, err := r.Bytes()
	require.ErrorIs(t, err, ErrBadResponse)

	_, err = r.Add(fragment(1, 2, 1, "b"))
	require.NoError(t, err)

	_, err = r.Bytes()
	require.ErrorIs(t, err, ErrBadResponse)
}
