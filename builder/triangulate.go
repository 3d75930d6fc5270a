package builder

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"dynavmesh/geometry"
)

type edgeKey [2]int32

func edgeOf(a, b int32) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// Triangulation is the output of the constrained triangulator: a shared
// vertex buffer, counter-clockwise triangles, and the set of constraint
// edges (boundary and hole edges) that were honored.
type Triangulation struct {
	Verts       []geometry.Point2
	Tris        [][3]int32
	constrained map[edgeKey]struct{}
}

// IsConstrained reports whether the edge between vertex indices a and b is
// a boundary or hole constraint edge.
func (t *Triangulation) IsConstrained(a, b int32) bool {
	_, ok := t.constrained[edgeOf(a, b)]
	return ok
}

// Triangulate builds a constrained triangulation of outer minus holes.
// Every boundary and hole edge appears unsplit in the output; the remaining
// edges are improved toward the Delaunay criterion where that does not
// conflict with a constraint. Holes lying entirely outside the boundary are
// ignored; constraint contours that cross themselves or each other are
// rejected with ErrSelfIntersectingConstraint.
func Triangulate(outer geometry.Polygon, holes []geometry.Polygon, eps float64) (*Triangulation, error) {
	outer = geometry.Dedup(outer, eps)
	if err := geometry.Validate(outer, eps); err != nil {
		if errors.Is(err, geometry.ErrSelfIntersecting) {
			return nil, fmt.Errorf("%w: outer boundary", ErrSelfIntersectingConstraint)
		}
		return nil, err
	}
	if !geometry.IsCCW(outer) {
		outer = geometry.Reverse(outer)
	}

	kept := make([]geometry.Polygon, 0, len(holes))
	for _, h := range holes {
		h = geometry.Dedup(h, eps)
		if err := geometry.Validate(h, eps); err != nil {
			if errors.Is(err, geometry.ErrSelfIntersecting) {
				return nil, fmt.Errorf("%w: hole", ErrSelfIntersectingConstraint)
			}
			return nil, err
		}
		if geometry.IsCCW(h) {
			h = geometry.Reverse(h)
		}
		inside := false
		for _, v := range h {
			if geometry.WindingNumber(v, outer) != 0 {
				inside = true
				break
			}
		}
		if inside {
			kept = append(kept, h)
		}
	}
	if err := checkContoursDisjoint(outer, kept, eps); err != nil {
		return nil, err
	}

	t := &Triangulation{constrained: map[edgeKey]struct{}{}}
	loop := make([]int32, 0, len(outer))
	for _, v := range outer {
		loop = append(loop, int32(len(t.Verts)))
		t.Verts = append(t.Verts, v)
	}
	markConstraints(t, loop)

	holeLoops := make([][]int32, 0, len(kept))
	for _, h := range kept {
		hl := make([]int32, 0, len(h))
		for _, v := range h {
			hl = append(hl, int32(len(t.Verts)))
			t.Verts = append(t.Verts, v)
		}
		markConstraints(t, hl)
		holeLoops = append(holeLoops, hl)
	}

	loop, err := bridgeHoles(t.Verts, loop, holeLoops, eps)
	if err != nil {
		return nil, err
	}
	if err := earClip(t, loop, eps); err != nil {
		return nil, err
	}
	delaunayImprove(t, eps)
	return t, nil
}

func markConstraints(t *Triangulation, loop []int32) {
	n := len(loop)
	for i := 0; i < n; i++ {
		t.constrained[edgeOf(loop[i], loop[(i+1)%n])] = struct{}{}
	}
}

// checkContoursDisjoint rejects constraint contours whose edges properly
// cross each other.
func checkContoursDisjoint(outer geometry.Polygon, holes []geometry.Polygon, eps float64) error {
	contours := append([]geometry.Polygon{outer}, holes...)
	for i := 0; i < len(contours); i++ {
		for j := i + 1; j < len(contours); j++ {
			a, b := contours[i], contours[j]
			for k := 0; k < len(a); k++ {
				a0, a1 := a[k], a[(k+1)%len(a)]
				for l := 0; l < len(b); l++ {
					b0, b1 := b[l], b[(l+1)%len(b)]
					if _, kind := geometry.SegmentIntersection(a0, a1, b0, b1, eps); kind != geometry.IntersectNone {
						return fmt.Errorf("%w: overlapping contours", ErrSelfIntersectingConstraint)
					}
				}
			}
		}
	}
	return nil
}

// bridgeHoles splices every hole into the outer loop through a visible
// diagonal, leftmost holes first, producing one weakly simple loop. The
// bridge diagonal is duplicated in both directions; it is not a constraint.
func bridgeHoles(verts []geometry.Point2, loop []int32, holes [][]int32, eps float64) ([]int32, error) {
	sort.SliceStable(holes, func(i, j int) bool {
		return leftmost(verts, holes[i]) < leftmost(verts, holes[j])
	})

	for hi, hole := range holes {
		// Rotate the hole to start at its leftmost vertex.
		hstart := 0
		for i := range hole {
			v, b := verts[hole[i]], verts[hole[hstart]]
			if v.X() < b.X() || (v.X() == b.X() && v.Y() < b.Y()) {
				hstart = i
			}
		}
		h := hole[hstart]

		type cand struct {
			pos  int
			dist float64
		}
		cands := make([]cand, 0, len(loop))
		for p, c := range loop {
			d := verts[c].Sub(verts[h])
			cands = append(cands, cand{p, d.Dot(d)})
		}
		sort.Slice(cands, func(i, j int) bool {
			if cands[i].dist != cands[j].dist {
				return cands[i].dist < cands[j].dist
			}
			return cands[i].pos < cands[j].pos
		})

		bridged := false
		for _, c := range cands {
			if !bridgeVisible(verts, h, loop[c.pos], loop, holes[hi:], eps) {
				continue
			}
			loop = splice(loop, c.pos, hole, hstart)
			bridged = true
			break
		}
		if !bridged {
			return nil, fmt.Errorf("%w: no visible bridge for hole", ErrTriangulationFailed)
		}
	}
	return loop, nil
}

func leftmost(verts []geometry.Point2, loop []int32) float64 {
	m := math.Inf(1)
	for _, i := range loop {
		m = math.Min(m, verts[i].X())
	}
	return m
}

// bridgeVisible checks that the diagonal h-c crosses no edge of the merged
// loop nor of any hole not yet merged.
func bridgeVisible(verts []geometry.Point2, h, c int32, loop []int32, holes [][]int32, eps float64) bool {
	a, b := verts[h], verts[c]
	if geometry.NearlyEqual(a, b, eps) {
		return false
	}
	check := func(l []int32) bool {
		n := len(l)
		for i := 0; i < n; i++ {
			e0, e1 := l[i], l[(i+1)%n]
			if e0 == h || e1 == h || e0 == c || e1 == c {
				continue
			}
			if _, kind := geometry.SegmentIntersection(a, b, verts[e0], verts[e1], eps); kind != geometry.IntersectNone {
				return false
			}
		}
		return true
	}
	if !check(loop) {
		return false
	}
	for _, hl := range holes {
		if !check(hl) {
			return false
		}
	}
	return true
}

// splice inserts the hole cycle (starting at hstart) into loop after pos,
// doubling the bridge endpoints.
func splice(loop []int32, pos int, hole []int32, hstart int) []int32 {
	m := len(hole)
	ins := make([]int32, 0, m+2)
	for i := 0; i <= m; i++ {
		ins = append(ins, hole[(hstart+i)%m])
	}
	ins = append(ins, loop[pos])

	out := make([]int32, 0, len(loop)+len(ins))
	out = append(out, loop[:pos+1]...)
	out = append(out, ins...)
	out = append(out, loop[pos+1:]...)
	return out
}

// earClip triangulates a weakly simple counter-clockwise loop. A strict
// pass looks for clean ears; a loose second pass tolerates collinear
// corners before the attempt is abandoned.
func earClip(t *Triangulation, loop []int32, eps float64) error {
	emit := func(a, b, c int32) {
		if math.Abs(geometry.TriArea2(t.Verts[a], t.Verts[b], t.Verts[c])) > eps {
			t.Tris = append(t.Tris, [3]int32{a, b, c})
		}
	}

	for len(loop) > 3 {
		ear := findEar(t.Verts, loop, eps, false)
		if ear < 0 {
			ear = findEar(t.Verts, loop, eps, true)
		}
		if ear < 0 {
			return fmt.Errorf("%w: no ear found with %d vertices left", ErrTriangulationFailed, len(loop))
		}
		n := len(loop)
		emit(loop[(ear-1+n)%n], loop[ear], loop[(ear+1)%n])
		loop = append(loop[:ear], loop[ear+1:]...)
	}
	if len(loop) == 3 {
		emit(loop[0], loop[1], loop[2])
	}
	return nil
}

func findEar(verts []geometry.Point2, loop []int32, eps float64, loose bool) int {
	n := len(loop)
	for i := 0; i < n; i++ {
		a := verts[loop[(i-1+n)%n]]
		b := verts[loop[i]]
		c := verts[loop[(i+1)%n]]
		cross := geometry.TriArea2(a, b, c)
		if loose {
			if cross < -eps {
				continue
			}
		} else if cross <= eps {
			continue
		}
		if !earEmpty(verts, loop, i, eps) {
			continue
		}
		if !diagonalClear(verts, loop, (i-1+n)%n, (i+1)%n, eps) {
			continue
		}
		return i
	}
	return -1
}

// earEmpty checks that no other loop vertex lies strictly inside the ear
// triangle at position i.
func earEmpty(verts []geometry.Point2, loop []int32, i int, eps float64) bool {
	n := len(loop)
	a := verts[loop[(i-1+n)%n]]
	b := verts[loop[i]]
	c := verts[loop[(i+1)%n]]
	for j := 0; j < n; j++ {
		if j == i || j == (i-1+n)%n || j == (i+1)%n {
			continue
		}
		p := verts[loop[j]]
		if geometry.NearlyEqual(p, a, eps) || geometry.NearlyEqual(p, b, eps) || geometry.NearlyEqual(p, c, eps) {
			continue
		}
		if pointInTriangle(p, a, b, c, eps) {
			return false
		}
	}
	return true
}

func pointInTriangle(p, a, b, c geometry.Point2, eps float64) bool {
	d0 := geometry.TriArea2(a, b, p)
	d1 := geometry.TriArea2(b, c, p)
	d2 := geometry.TriArea2(c, a, p)
	return d0 > eps && d1 > eps && d2 > eps
}

// diagonalClear checks that the candidate diagonal between loop positions
// pa and pc does not properly cross any nonadjacent loop edge.
func diagonalClear(verts []geometry.Point2, loop []int32, pa, pc int, eps float64) bool {
	a, c := verts[loop[pa]], verts[loop[pc]]
	n := len(loop)
	for j := 0; j < n; j++ {
		k := (j + 1) % n
		if j == pa || k == pa || j == pc || k == pc {
			continue
		}
		if _, kind := geometry.SegmentIntersection(a, c, verts[loop[j]], verts[loop[k]], eps); kind == geometry.IntersectPoint {
			return false
		}
	}
	return true
}

// delaunayImprove flips non-constraint interior edges that fail the
// incircle test. Flip rounds are bounded; constraint edges are never
// touched.
func delaunayImprove(t *Triangulation, eps float64) {
	const maxRounds = 16
	for round := 0; round < maxRounds; round++ {
		type side struct {
			tri  int
			opp  int32 // vertex opposite the shared edge
		}
		shared := map[edgeKey][]side{}
		for ti, tri := range t.Tris {
			for e := 0; e < 3; e++ {
				a, b := tri[e], tri[(e+1)%3]
				shared[edgeOf(a, b)] = append(shared[edgeOf(a, b)], side{ti, tri[(e+2)%3]})
			}
		}

		touched := make([]bool, len(t.Tris))
		flips := 0
		for key, sides := range shared {
			if len(sides) != 2 {
				continue
			}
			if _, isConstraint := t.constrained[key]; isConstraint {
				continue
			}
			s0, s1 := sides[0], sides[1]
			if touched[s0.tri] || touched[s1.tri] {
				continue
			}
			a, b := key[0], key[1]
			c, d := s0.opp, s1.opp
			va, vb, vc, vd := t.Verts[a], t.Verts[b], t.Verts[c], t.Verts[d]
			if !inCircumcircle(va, vb, vc, vd) {
				continue
			}
			// The flipped diagonal c-d must keep both triangles valid.
			if geometry.TriArea2(vc, vd, va)*geometry.TriArea2(vc, vd, vb) >= -eps {
				continue
			}
			t.Tris[s0.tri] = orientTri(t.Verts, [3]int32{c, d, a})
			t.Tris[s1.tri] = orientTri(t.Verts, [3]int32{c, d, b})
			touched[s0.tri] = true
			touched[s1.tri] = true
			flips++
		}
		if flips == 0 {
			break
		}
	}
}

func orientTri(verts []geometry.Point2, tri [3]int32) [3]int32 {
	if geometry.TriArea2(verts[tri[0]], verts[tri[1]], verts[tri[2]]) < 0 {
		tri[1], tri[2] = tri[2], tri[1]
	}
	return tri
}

// inCircumcircle reports whether d lies strictly inside the circumcircle
// of counter-clockwise triangle abc.
func inCircumcircle(a, b, c, d geometry.Point2) bool {
	if geometry.TriArea2(a, b, c) < 0 {
		b, c = c, b
	}
	ax, ay := a.X()-d.X(), a.Y()-d.Y()
	bx, by := b.X()-d.X(), b.Y()-d.Y()
	cx, cy := c.X()-d.X(), c.Y()-d.Y()
	det := (ax*ax+ay*ay)*(bx*cy-cx*by) -
		(bx*bx+by*by)*(ax*cy-cx*ay) +
		(cx*cx+cy*cy)*(ax*by-bx*ay)
	return det > 0
}
