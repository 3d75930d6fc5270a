package navmesh

import (
	"errors"
	"fmt"

	"dynavmesh/common/rw"
	"dynavmesh/geometry"
)

// Persisted form: a flat, versioned little-endian record for round-trip
// testing and at-rest storage. No wire protocol is implied.

const (
	binMagic   uint32 = 'D'<<24 | 'N'<<16 | 'A'<<8 | 'V'
	binVersion uint16 = 1
)

var ErrBadMeshData = errors.New("bad navmesh data")

// ToBin serializes the mesh.
func (m *NavMesh) ToBin() []byte {
	w := rw.NewNavMeshBinWriter()
	w.WriteUInt32(binMagic)
	w.WriteUInt16(binVersion)
	w.WriteUInt64(m.Generation)
	w.WriteInt32(int32(len(m.Verts)))
	w.WriteInt32(int32(len(m.Polys)))
	w.WriteInt32(int32(len(m.Layers)))
	w.WriteInt32(int32(len(m.Links)))
	for _, v := range m.Verts {
		w.WriteFloat64(v.X())
		w.WriteFloat64(v.Y())
	}
	for _, p := range m.Polys {
		w.WriteInt32(int32(len(p.Verts)))
		w.WriteInt32s(p.Verts)
		w.WriteInt32s(p.Neis)
	}
	for _, l := range m.Layers {
		w.WriteFloat64(l.Height)
		w.WriteInt32(l.FirstPoly)
		w.WriteInt32(l.PolyCount)
	}
	for _, l := range m.Links {
		w.WriteInt32(l.From)
		w.WriteInt32(l.To)
	}
	return w.GetWriteBytes()
}

// FromBin deserializes a mesh previously produced by ToBin.
func (m *NavMesh) FromBin(data []byte) error {
	r := rw.NewNavMeshBinReader(data)
	if magic := r.ReadUInt32(); magic != binMagic {
		return fmt.Errorf("%w: magic %#x", ErrBadMeshData, magic)
	}
	if version := r.ReadUInt16(); version != binVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrBadMeshData, version)
	}
	m.Generation = r.ReadUInt64()
	nVerts := r.ReadInt32()
	nPolys := r.ReadInt32()
	nLayers := r.ReadInt32()
	nLinks := r.ReadInt32()
	if nVerts < 0 || nPolys < 0 || nLayers < 0 || nLinks < 0 {
		return fmt.Errorf("%w: negative counts", ErrBadMeshData)
	}

	m.Verts = make([]geometry.Point2, nVerts)
	for i := range m.Verts {
		x := r.ReadFloat64()
		y := r.ReadFloat64()
		m.Verts[i] = geometry.Point2{x, y}
	}
	m.Polys = make([]Poly, nPolys)
	for i := range m.Polys {
		n := r.ReadInt32()
		if n < 3 || n > int32(nVerts) {
			return fmt.Errorf("%w: polygon with %d vertices", ErrBadMeshData, n)
		}
		p := Poly{Verts: make([]int32, n), Neis: make([]int32, n)}
		r.ReadInt32s(p.Verts)
		r.ReadInt32s(p.Neis)
		m.Polys[i] = p
	}
	m.Layers = make([]Layer, nLayers)
	for i := range m.Layers {
		m.Layers[i] = Layer{
			Height:    r.ReadFloat64(),
			FirstPoly: r.ReadInt32(),
			PolyCount: r.ReadInt32(),
		}
	}
	m.Links = make([]Link, nLinks)
	for i := range m.Links {
		m.Links[i] = Link{From: r.ReadInt32(), To: r.ReadInt32()}
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBadMeshData, err)
	}
	return nil
}
