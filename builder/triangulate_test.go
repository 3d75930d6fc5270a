package builder

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dynavmesh/geometry"
)

func triArea(tr *Triangulation, tri [3]int32) float64 {
	return geometry.TriArea2(tr.Verts[tri[0]], tr.Verts[tri[1]], tr.Verts[tri[2]]) / 2
}

func triangulationArea(tr *Triangulation) float64 {
	var a float64
	for _, tri := range tr.Tris {
		a += triArea(tr, tri)
	}
	return a
}

// triEdges collects the undirected edges of every triangle, keyed by vertex
// positions so tests stay independent of index assignment.
func triEdges(tr *Triangulation) map[[4]float64]bool {
	out := map[[4]float64]bool{}
	for _, tri := range tr.Tris {
		for e := 0; e < 3; e++ {
			a := tr.Verts[tri[e]]
			b := tr.Verts[tri[(e+1)%3]]
			out[[4]float64{a.X(), a.Y(), b.X(), b.Y()}] = true
			out[[4]float64{b.X(), b.Y(), a.X(), a.Y()}] = true
		}
	}
	return out
}

func requireEdge(t *testing.T, edges map[[4]float64]bool, a, b geometry.Point2) {
	t.Helper()
	require.True(t, edges[[4]float64{a.X(), a.Y(), b.X(), b.Y()}],
		"edge %v-%v missing from triangulation", a, b)
}

func TestTriangulateSquare(t *testing.T) {
	sq := geometry.Polygon{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	tr, err := Triangulate(sq, nil, testEps)
	require.NoError(t, err)

	require.Len(t, tr.Tris, 2)
	assert.InDelta(t, 100, triangulationArea(tr), 1e-9)
	for _, tri := range tr.Tris {
		assert.Greater(t, triArea(tr, tri), 0.0, "triangles must be counter-clockwise")
	}

	edges := triEdges(tr)
	for i := range sq {
		requireEdge(t, edges, sq[i], sq[(i+1)%len(sq)])
	}
}

func TestTriangulateSquareWithHole(t *testing.T) {
	outer := geometry.Polygon{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	hole := geometry.Polygon{{4, 4}, {4, 6}, {6, 6}, {6, 4}} // clockwise
	tr, err := Triangulate(outer, []geometry.Polygon{hole}, testEps)
	require.NoError(t, err)

	assert.InDelta(t, 100-4, triangulationArea(tr), 1e-9)

	edges := triEdges(tr)
	for i := range outer {
		requireEdge(t, edges, outer[i], outer[(i+1)%len(outer)])
	}
	for i := range hole {
		requireEdge(t, edges, hole[i], hole[(i+1)%len(hole)])
	}

	// Nothing covers the hole interior.
	center := geometry.Point2{5, 5}
	for _, tri := range tr.Tris {
		a, b, c := tr.Verts[tri[0]], tr.Verts[tri[1]], tr.Verts[tri[2]]
		assert.False(t,
			geometry.TriArea2(a, b, center) > testEps &&
				geometry.TriArea2(b, c, center) > testEps &&
				geometry.TriArea2(c, a, center) > testEps,
			"triangle covers hole interior")
	}
}

func TestTriangulateConcave(t *testing.T) {
	l := geometry.Polygon{{0, 0}, {6, 0}, {6, 2}, {2, 2}, {2, 6}, {0, 6}}
	tr, err := Triangulate(l, nil, testEps)
	require.NoError(t, err)
	assert.InDelta(t, 20, triangulationArea(tr), 1e-9)
}

func TestTriangulateDelaunayFlips(t *testing.T) {
	// A wide strip of points: after improvement no interior edge should
	// have an opposite vertex inside its triangle's circumcircle, except
	// across constraint edges.
	p := geometry.Polygon{{0, 0}, {4, 0.5}, {8, 0}, {8, 2}, {4, 1.5}, {0, 2}}
	tr, err := Triangulate(p, nil, testEps)
	require.NoError(t, err)
	assert.InDelta(t, math.Abs(geometry.SignedArea(p)), triangulationArea(tr), 1e-9)

	shared := map[edgeKey][]int{}
	for ti, tri := range tr.Tris {
		for e := 0; e < 3; e++ {
			shared[edgeOf(tri[e], tri[(e+1)%3])] = append(shared[edgeOf(tri[e], tri[(e+1)%3])], ti)
		}
	}
	for k, owners := range shared {
		if len(owners) != 2 || tr.IsConstrained(k[0], k[1]) {
			continue
		}
		t0, t1 := tr.Tris[owners[0]], tr.Tris[owners[1]]
		va, vb := tr.Verts[k[0]], tr.Verts[k[1]]
		vc := tr.Verts[opposite(t0, k)]
		vd := tr.Verts[opposite(t1, k)]
		if !inCircumcircle(va, vb, vc, vd) {
			continue
		}
		// The incircle test may still trip on a flip the improver could not
		// perform because the surrounding quad is not convex.
		assert.GreaterOrEqual(t,
			geometry.TriArea2(vc, vd, va)*geometry.TriArea2(vc, vd, vb), -testEps,
			"flippable interior edge %v fails the Delaunay condition", k)
	}
}

func opposite(tri [3]int32, k edgeKey) int32 {
	for _, v := range tri {
		if v != k[0] && v != k[1] {
			return v
		}
	}
	return -1
}

func TestTriangulateRejectsSelfIntersectingBoundary(t *testing.T) {
	bowtie := geometry.Polygon{{0, 0}, {4, 4}, {4, 0}, {0, 2}}
	_, err := Triangulate(bowtie, nil, testEps)
	assert.ErrorIs(t, err, ErrSelfIntersectingConstraint)
}

func TestTriangulateRejectsOverlappingHoles(t *testing.T) {
	outer := geometry.Polygon{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	h1 := geometry.Polygon{{2, 2}, {2, 6}, {6, 6}, {6, 2}}
	h2 := geometry.Polygon{{4, 4}, {4, 8}, {8, 8}, {8, 4}}
	_, err := Triangulate(outer, []geometry.Polygon{h1, h2}, testEps)
	assert.ErrorIs(t, err, ErrSelfIntersectingConstraint)
}

func TestTriangulateIgnoresHoleOutsideBoundary(t *testing.T) {
	outer := geometry.Polygon{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	far := geometry.Polygon{{20, 20}, {20, 22}, {22, 22}, {22, 20}}
	tr, err := Triangulate(outer, []geometry.Polygon{far}, testEps)
	require.NoError(t, err)
	assert.InDelta(t, 100, triangulationArea(tr), 1e-9)
}
