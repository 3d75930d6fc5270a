package rw

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	w := NewNavMeshBinWriter()
	w.WriteUInt8(7)
	w.WriteUInt16(0xbeef)
	w.WriteInt32(-42)
	w.WriteUInt32(0xdeadbeef)
	w.WriteUInt64(1 << 40)
	w.WriteFloat64(math.Pi)
	w.WriteInt32s([]int32{1, -2, 3})
	w.WriteFloat64s([]float64{0.5, -1.5})
	assert.Equal(t, 1+2+4+4+8+8+12+16, w.Size())

	r := NewNavMeshBinReader(w.GetWriteBytes())
	assert.Equal(t, uint8(7), r.ReadUInt8())
	assert.Equal(t, uint16(0xbeef), r.ReadUInt16())
	assert.Equal(t, int32(-42), r.ReadInt32())
	assert.Equal(t, uint32(0xdeadbeef), r.ReadUInt32())
	assert.Equal(t, uint64(1<<40), r.ReadUInt64())
	assert.Equal(t, math.Pi, r.ReadFloat64())

	i32s := make([]int32, 3)
	r.ReadInt32s(i32s)
	assert.Equal(t, []int32{1, -2, 3}, i32s)

	f64s := make([]float64, 2)
	r.ReadFloat64s(f64s)
	assert.Equal(t, []float64{0.5, -1.5}, f64s)

	require.NoError(t, r.Err())
}

func TestShortDataIsSticky(t *testing.T) {
	w := NewNavMeshBinWriter()
	w.WriteUInt32(1)

	r := NewNavMeshBinReader(w.GetWriteBytes())
	assert.Equal(t, uint32(1), r.ReadUInt32())
	assert.Equal(t, uint64(0), r.ReadUInt64())
	assert.ErrorIs(t, r.Err(), ErrShortData)

	// Once failed, every further read stays zero.
	assert.Equal(t, int32(0), r.ReadInt32())
	assert.Equal(t, 0.0, r.ReadFloat64())
	assert.ErrorIs(t, r.Err(), ErrShortData)
}

func TestLittleEndianLayout(t *testing.T) {
	w := NewNavMeshBinWriter()
	w.WriteUInt32(0x04030201)
	assert.Equal(t, []byte{1, 2, 3, 4}, w.GetWriteBytes())
}
