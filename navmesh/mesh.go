package navmesh

import (
	"errors"

	"dynavmesh/geometry"
)

var (
	// ErrMeshNotReady is reported for queries made before the first
	// successful build has been published.
	ErrMeshNotReady = errors.New("navmesh not ready")
	// ErrNoPath is reported when no path connects the two query points.
	ErrNoPath = errors.New("no path")
)

// Poly is one convex polygon of the navmesh graph. Verts index the mesh
// vertex buffer; Neis[i] is the polygon across the edge
// Verts[i]->Verts[i+1], or -1 for a boundary or obstacle edge (matching
// layer links are carried separately).
type Poly struct {
	Verts []int32
	Neis  []int32
}

// Layer is one height band of the mesh: a contiguous span of the polygon
// buffer plus the height its vertices live at.
type Layer struct {
	Height    float64
	FirstPoly int32
	PolyCount int32
}

// Link is an explicit vertical connection between two polygons of
// different layers whose footprints coincide within the configured height
// tolerance.
type Link struct {
	From, To int32
}

// NavMesh is one published build artifact. It is immutable once published:
// any number of queriers may read it concurrently, and a newer build
// replaces it rather than mutating it. Generation numbers of published
// meshes are strictly increasing.
type NavMesh struct {
	Generation uint64
	Verts      []geometry.Point2
	Polys      []Poly
	Layers     []Layer
	Links      []Link
}

// Empty reports whether the mesh has no navigable polygons. An empty mesh
// is a valid artifact: it results from obstacles consuming the entire
// boundary, and queries against it deterministically find no path.
func (m *NavMesh) Empty() bool {
	return len(m.Polys) == 0
}

// LayerOf returns the layer index owning polygon p, or -1.
func (m *NavMesh) LayerOf(p int32) int {
	for i, l := range m.Layers {
		if p >= l.FirstPoly && p < l.FirstPoly+l.PolyCount {
			return i
		}
	}
	return -1
}

// PolyContains reports whether pt lies inside polygon p (boundary
// inclusive within eps).
func (m *NavMesh) PolyContains(p int32, pt geometry.Point2, eps float64) bool {
	poly := m.Polys[p]
	n := len(poly.Verts)
	for i := 0; i < n; i++ {
		a := m.Verts[poly.Verts[i]]
		b := m.Verts[poly.Verts[(i+1)%n]]
		if geometry.TriArea2(a, b, pt) < -eps {
			return false
		}
	}
	return true
}

// PolyCentroid returns the vertex mean of polygon p.
func (m *NavMesh) PolyCentroid(p int32) geometry.Point2 {
	poly := m.Polys[p]
	var s geometry.Point2
	for _, v := range poly.Verts {
		s = s.Add(m.Verts[v])
	}
	return s.Mul(1 / float64(len(poly.Verts)))
}

// portal returns the midpoint of the shared edge between polygon p and its
// neighbor across edge e.
func (m *NavMesh) portal(p int32, e int) geometry.Point2 {
	poly := m.Polys[p]
	a := m.Verts[poly.Verts[e]]
	b := m.Verts[poly.Verts[(e+1)%len(poly.Verts)]]
	return a.Add(b).Mul(0.5)
}
