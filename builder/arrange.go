package builder

import (
	"math"
	"sort"

	"dynavmesh/geometry"
)

// The arrangement engine turns a pile of possibly self-overlapping directed
// loops into clean region contours. Every loop edge is split at every
// crossing, each split edge is classified by probing the region predicate
// on both sides, and the surviving edges are chained into closed contours
// directed with the region interior on their left: outer contours come out
// counter-clockwise, holes clockwise. The offsetter and the navigable
// region clipping both run on this.

// windingAt sums the winding numbers of all loops around pt.
func windingAt(loops []geometry.Polygon, pt geometry.Point2) int {
	w := 0
	for _, l := range loops {
		w += geometry.WindingNumber(pt, l)
	}
	return w
}

// extractRegion computes the boundary contours of the region classified by
// inside, using the arrangement of all edges of loops. Contours smaller
// than the degeneracy threshold are dropped.
func extractRegion(loops []geometry.Polygon, inside func(geometry.Point2) bool, eps float64) []geometry.Polygon {
	segs := planarize(loops, eps)
	probe := math.Max(eps*32, 1e-9)

	// Keep the edges separating inside from outside, directed interior-left.
	kept := make([]geometry.Segment, 0, len(segs))
	seen := map[[4]int64]struct{}{}
	snap := math.Max(eps*4, 1e-12)
	for _, s := range segs {
		d := s.Dir()
		l := d.Len()
		if l <= eps {
			continue
		}
		d = d.Mul(1 / l)
		mid := s.Mid()
		left := geometry.Point2{-d.Y(), d.X()}
		li := inside(mid.Add(left.Mul(probe)))
		ri := inside(mid.Sub(left.Mul(probe)))
		if li == ri {
			continue
		}
		if ri {
			s.A, s.B = s.B, s.A
		}
		key := [4]int64{quant(s.A.X(), snap), quant(s.A.Y(), snap), quant(s.B.X(), snap), quant(s.B.Y(), snap)}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, s)
	}

	return chainContours(kept, eps, snap)
}

func quant(v, snap float64) int64 {
	return int64(math.Round(v / snap))
}

// planarize splits every loop edge at its intersections with every other
// edge in the arrangement.
func planarize(loops []geometry.Polygon, eps float64) []geometry.Segment {
	var all []geometry.Segment
	for _, l := range loops {
		n := len(l)
		for i := 0; i < n; i++ {
			a, b := l[i], l[(i+1)%n]
			if !geometry.NearlyEqual(a, b, eps) {
				all = append(all, geometry.Segment{A: a, B: b})
			}
		}
	}

	out := make([]geometry.Segment, 0, len(all))
	for i, s := range all {
		d := s.Dir()
		l2 := d.Dot(d)
		ts := []float64{0, 1}
		for j, o := range all {
			if i == j {
				continue
			}
			p, kind := geometry.SegmentCross(s.A, s.B, o.A, o.B, eps)
			switch kind {
			case geometry.IntersectPoint:
				ts = append(ts, p.Sub(s.A).Dot(d)/l2)
			case geometry.IntersectOverlap:
				// Collinear: split at the other segment's endpoints.
				for _, q := range []geometry.Point2{o.A, o.B} {
					t := q.Sub(s.A).Dot(d) / l2
					if t > 0 && t < 1 {
						ts = append(ts, t)
					}
				}
			}
		}
		sort.Float64s(ts)
		for k := 0; k+1 < len(ts); k++ {
			t0 := math.Max(ts[k], 0)
			t1 := math.Min(ts[k+1], 1)
			if t1-t0 <= eps {
				continue
			}
			out = append(out, geometry.Segment{A: s.A.Add(d.Mul(t0)), B: s.A.Add(d.Mul(t1))})
		}
	}
	return out
}

// chainContours links directed edges end to start into closed contours. At
// a junction the continuation taking the sharpest left turn is chosen,
// which keeps touching lobes as separate contours.
func chainContours(edges []geometry.Segment, eps, snap float64) []geometry.Polygon {
	type nodeKey [2]int64
	outAt := map[nodeKey][]int{}
	keyOf := func(p geometry.Point2) nodeKey {
		return nodeKey{quant(p.X(), snap), quant(p.Y(), snap)}
	}
	for i, e := range edges {
		k := keyOf(e.A)
		outAt[k] = append(outAt[k], i)
	}

	used := make([]bool, len(edges))
	var contours []geometry.Polygon
	for start := range edges {
		if used[start] {
			continue
		}
		var loop geometry.Polygon
		cur := start
		for {
			used[cur] = true
			loop = append(loop, edges[cur].A)
			endKey := keyOf(edges[cur].B)
			if endKey == keyOf(edges[start].A) {
				break
			}
			next := -1
			bestTurn := math.Inf(-1)
			in := edges[cur].Dir()
			for _, cand := range outAt[endKey] {
				if used[cand] {
					continue
				}
				out := edges[cand].Dir()
				turn := math.Atan2(geometry.PerpDot(in, out), in.Dot(out))
				if turn > bestTurn {
					bestTurn = turn
					next = cand
				}
			}
			if next < 0 {
				// Open chain, numerical leftover. Drop it.
				loop = nil
				break
			}
			cur = next
		}
		if len(loop) >= 3 && math.Abs(geometry.SignedArea(loop)) > eps {
			contours = append(contours, geometry.Dedup(loop, eps))
		}
	}

	final := contours[:0]
	for _, c := range contours {
		if len(c) >= 3 {
			final = append(final, c)
		}
	}
	return final
}
