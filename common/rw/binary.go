package rw

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
)

// ErrShortData is reported when a reader runs out of input.
var ErrShortData = errors.New("short data")

// ReaderWriter is a little-endian binary codec for the navmesh persisted
// form. Read errors are sticky: after the first failure every further read
// returns zero values and Err() reports the failure.
type ReaderWriter struct {
	order   binary.ByteOrder
	dataBuf []byte
	rw      bytes.Buffer
	err     error
}

func NewNavMeshBinWriter() *ReaderWriter {
	return &ReaderWriter{order: binary.LittleEndian, dataBuf: make([]byte, 8)}
}

func NewNavMeshBinReader(data []byte) *ReaderWriter {
	d := &ReaderWriter{order: binary.LittleEndian, dataBuf: make([]byte, 8)}
	d.rw.Write(data)
	return d
}

// Err returns the first read error, if any.
func (w *ReaderWriter) Err() error {
	return w.err
}

func (w *ReaderWriter) read(n int) []byte {
	if w.err != nil {
		return nil
	}
	got, err := w.rw.Read(w.dataBuf[:n])
	if err != nil || got != n {
		w.err = ErrShortData
		return nil
	}
	return w.dataBuf[:n]
}

func (w *ReaderWriter) ReadUInt8() uint8 {
	b := w.read(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (w *ReaderWriter) ReadUInt16() uint16 {
	b := w.read(2)
	if b == nil {
		return 0
	}
	return w.order.Uint16(b)
}

func (w *ReaderWriter) ReadInt32() int32 {
	return int32(w.ReadUInt32())
}

func (w *ReaderWriter) ReadUInt32() uint32 {
	b := w.read(4)
	if b == nil {
		return 0
	}
	return w.order.Uint32(b)
}

func (w *ReaderWriter) ReadUInt64() uint64 {
	b := w.read(8)
	if b == nil {
		return 0
	}
	return w.order.Uint64(b)
}

func (w *ReaderWriter) ReadFloat64() float64 {
	return math.Float64frombits(w.ReadUInt64())
}

func (w *ReaderWriter) ReadInt32s(value []int32) {
	for i := range value {
		value[i] = w.ReadInt32()
	}
}

func (w *ReaderWriter) ReadFloat64s(value []float64) {
	for i := range value {
		value[i] = w.ReadFloat64()
	}
}

func (w *ReaderWriter) WriteUInt8(v uint8) {
	w.rw.WriteByte(v)
}

func (w *ReaderWriter) WriteUInt16(v uint16) {
	w.order.PutUint16(w.dataBuf, v)
	w.rw.Write(w.dataBuf[:2])
}

func (w *ReaderWriter) WriteInt32(v int32) {
	w.order.PutUint32(w.dataBuf, uint32(v))
	w.rw.Write(w.dataBuf[:4])
}

func (w *ReaderWriter) WriteUInt32(v uint32) {
	w.order.PutUint32(w.dataBuf, v)
	w.rw.Write(w.dataBuf[:4])
}

func (w *ReaderWriter) WriteUInt64(v uint64) {
	w.order.PutUint64(w.dataBuf, v)
	w.rw.Write(w.dataBuf[:8])
}

func (w *ReaderWriter) WriteFloat64(v float64) {
	w.WriteUInt64(math.Float64bits(v))
}

func (w *ReaderWriter) WriteInt32s(value []int32) {
	for _, v := range value {
		w.WriteInt32(v)
	}
}

func (w *ReaderWriter) WriteFloat64s(value []float64) {
	for _, v := range value {
		w.WriteFloat64(v)
	}
}

func (w *ReaderWriter) GetWriteBytes() []byte {
	return w.rw.Bytes()
}

func (w *ReaderWriter) Size() int {
	return w.rw.Len()
}
