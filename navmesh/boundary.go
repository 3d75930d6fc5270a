package navmesh

import (
	"fmt"
	"math"

	"dynavmesh/geometry"
)

// FromSourceMesh derives boundary contours from an authored source mesh
// (vertex positions plus index triples), the shape an asset importer hands
// over. Vertices are projected onto the XZ plane, edges used by exactly
// one triangle are chained into loops, and the largest loop becomes the
// outer boundary (counter-clockwise); the remaining loops are fixed holes
// (clockwise). The mesh itself is never read from a file here.
func FromSourceMesh(verts []geometry.Point3, indices []int32) (geometry.Polygon, []geometry.Polygon, error) {
	if len(indices)%3 != 0 {
		return nil, nil, fmt.Errorf("%w: index count %d not a multiple of 3", geometry.ErrDegenerateGeometry, len(indices))
	}
	if len(indices) == 0 {
		return nil, nil, fmt.Errorf("%w: empty source mesh", geometry.ErrDegenerateGeometry)
	}

	// Weld positionally identical vertices so shared edges match up even
	// when the importer duplicated vertices per triangle.
	weld := map[[2]int64]int32{}
	remap := make([]int32, len(verts))
	flat := make([]geometry.Point2, 0, len(verts))
	const snap = 1e-7
	for i, v := range verts {
		p := geometry.Point2{v.X(), v.Z()}
		key := [2]int64{int64(math.Round(p.X() / snap)), int64(math.Round(p.Y() / snap))}
		if id, ok := weld[key]; ok {
			remap[i] = id
			continue
		}
		id := int32(len(flat))
		weld[key] = id
		remap[i] = id
		flat = append(flat, p)
	}

	// Directed boundary edges: edges of CCW triangles used exactly once.
	type dirEdge struct{ a, b int32 }
	count := map[dirEdge]int{}
	for t := 0; t+2 < len(indices); t += 3 {
		a, b, c := remap[indices[t]], remap[indices[t+1]], remap[indices[t+2]]
		if a == b || b == c || c == a {
			continue
		}
		if geometry.TriArea2(flat[a], flat[b], flat[c]) < 0 {
			b, c = c, b
		}
		for _, e := range []dirEdge{{a, b}, {b, c}, {c, a}} {
			if count[dirEdge{e.b, e.a}] > 0 {
				count[dirEdge{e.b, e.a}]--
			} else {
				count[e]++
			}
		}
	}

	next := map[int32]int32{}
	for e, n := range count {
		if n > 0 {
			next[e.a] = e.b
		}
	}

	var loops []geometry.Polygon
	for start := range next {
		if _, alive := next[start]; !alive {
			continue
		}
		loop := geometry.Polygon{}
		at := start
		for {
			n, ok := next[at]
			if !ok {
				break
			}
			loop = append(loop, flat[at])
			delete(next, at)
			at = n
		}
		if len(loop) >= 3 {
			loops = append(loops, loop)
		}
	}
	if len(loops) == 0 {
		return nil, nil, fmt.Errorf("%w: source mesh has no boundary loop", geometry.ErrDegenerateGeometry)
	}

	outerIdx := 0
	outerArea := 0.0
	for i, l := range loops {
		if a := math.Abs(geometry.SignedArea(l)); a > outerArea {
			outerArea = a
			outerIdx = i
		}
	}
	outer := loops[outerIdx]
	if !geometry.IsCCW(outer) {
		outer = geometry.Reverse(outer)
	}
	var holes []geometry.Polygon
	for i, l := range loops {
		if i == outerIdx {
			continue
		}
		if geometry.IsCCW(l) {
			l = geometry.Reverse(l)
		}
		holes = append(holes, l)
	}
	return outer, holes, nil
}
