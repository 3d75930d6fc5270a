package builder

import (
	"math"

	"dynavmesh/geometry"
)

// MergePolygons greedily merges adjacent triangles of a triangulation into
// larger convex polygons. A pair merges only when the shared edge is not a
// constraint edge and the merged ring stays convex. Among all candidates
// the one producing the largest polygon wins, ties going to the lowest
// polygon index, so the result is deterministic. Merging repeats until no
// pair qualifies.
func MergePolygons(t *Triangulation, eps float64) [][]int32 {
	polys := make([][]int32, 0, len(t.Tris))
	for _, tri := range t.Tris {
		polys = append(polys, []int32{tri[0], tri[1], tri[2]})
	}

	for {
		bestA, bestB := -1, -1
		var bestRing []int32
		bestArea := 0.0
		for i := 0; i < len(polys); i++ {
			for j := i + 1; j < len(polys); j++ {
				ring, ok := tryMerge(t, polys[i], polys[j], eps)
				if !ok {
					continue
				}
				area := math.Abs(ringArea(t.Verts, ring))
				if area > bestArea+eps || bestA < 0 {
					bestArea = area
					bestA, bestB = i, j
					bestRing = ring
				}
			}
		}
		if bestA < 0 {
			break
		}
		polys[bestA] = bestRing
		polys = append(polys[:bestB], polys[bestB+1:]...)
	}
	return polys
}

// tryMerge returns the merged ring of a and b when they share exactly one
// non-constraint edge and the merge stays convex.
func tryMerge(t *Triangulation, a, b []int32, eps float64) ([]int32, bool) {
	na, nb := len(a), len(b)
	ea, eb := -1, -1
	for i := 0; i < na; i++ {
		a0, a1 := a[i], a[(i+1)%na]
		for j := 0; j < nb; j++ {
			if b[j] == a1 && b[(j+1)%nb] == a0 {
				if ea >= 0 {
					// More than one shared edge would pinch the ring.
					return nil, false
				}
				ea, eb = i, j
			}
		}
	}
	if ea < 0 {
		return nil, false
	}
	if t.IsConstrained(a[ea], a[(ea+1)%na]) {
		return nil, false
	}

	// Walk a from after the shared edge, then b likewise.
	ring := make([]int32, 0, na+nb-2)
	for i := 0; i < na-1; i++ {
		ring = append(ring, a[(ea+1+i)%na])
	}
	for i := 0; i < nb-1; i++ {
		ring = append(ring, b[(eb+1+i)%nb])
	}

	seen := map[int32]struct{}{}
	for _, v := range ring {
		if _, dup := seen[v]; dup {
			return nil, false
		}
		seen[v] = struct{}{}
	}
	if !ringConvex(t.Verts, ring, eps) {
		return nil, false
	}
	return ring, true
}

func ringArea(verts []geometry.Point2, ring []int32) float64 {
	var area float64
	n := len(ring)
	for i := 0; i < n; i++ {
		area += geometry.PerpDot(verts[ring[i]], verts[ring[(i+1)%n]])
	}
	return area / 2
}

// ringConvex reports whether the counter-clockwise ring turns left (or
// stays collinear) at every vertex.
func ringConvex(verts []geometry.Point2, ring []int32, eps float64) bool {
	n := len(ring)
	for i := 0; i < n; i++ {
		a := verts[ring[(i-1+n)%n]]
		b := verts[ring[i]]
		c := verts[ring[(i+1)%n]]
		if geometry.TriArea2(a, b, c) < -eps {
			return false
		}
	}
	return true
}

// BuildAdjacency computes, for each polygon edge, the index of the polygon
// across it, or -1 for a boundary or obstacle edge. The result is parallel
// to polys: neis[p][e] pairs with the edge polys[p][e] -> polys[p][e+1].
func BuildAdjacency(polys [][]int32) [][]int32 {
	type edgeUse struct {
		poly, edge int32
	}
	uses := map[edgeKey][]edgeUse{}
	neis := make([][]int32, len(polys))
	for pi, p := range polys {
		neis[pi] = make([]int32, len(p))
		for e := range p {
			neis[pi][e] = -1
			key := edgeOf(p[e], p[(e+1)%len(p)])
			uses[key] = append(uses[key], edgeUse{int32(pi), int32(e)})
		}
	}
	for _, us := range uses {
		if len(us) == 2 {
			neis[us[0].poly][us[0].edge] = us[1].poly
			neis[us[1].poly][us[1].edge] = us[0].poly
		}
	}
	return neis
}
