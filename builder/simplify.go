package builder

import (
	"math"

	"dynavmesh/geometry"
)

// Simplify reduces a polyline by repeatedly eliminating the point whose
// removal deviates least from the current shape, while every point removed
// so far stays within tol of the simplified result. Retained points are
// never moved. Closed contours keep at least 3 points and are never reduced
// to a self-intersecting or zero-area shape: a removal that would do either
// is skipped and the point retained.
func Simplify(points geometry.Polygon, tol float64, closed bool) geometry.Polygon {
	minCount := 2
	if closed {
		minCount = 3
	}
	if tol <= 0 || len(points) <= minCount {
		return append(geometry.Polygon(nil), points...)
	}

	out := append(geometry.Polygon(nil), points...)
	pinned := make([]bool, len(out))
	// carried[i] holds the removed points that the edge out[i]->out[i+1]
	// now stands in for; the deviation bound is re-checked against them
	// whenever that edge is about to be widened further.
	carried := make([][]geometry.Point2, len(out))

	for len(out) > minCount {
		n := len(out)
		best := -1
		bestDev := math.Inf(1)
		lo, hi := 0, n
		if !closed {
			lo, hi = 1, n-1
		}
		for i := lo; i < hi; i++ {
			if pinned[i] {
				continue
			}
			a := out[(i-1+n)%n]
			b := out[(i+1)%n]
			dev := maxDeviation(a, b, out[i], carried[(i-1+n)%n], carried[i])
			if dev < bestDev {
				bestDev = dev
				best = i
			}
		}
		if best < 0 || bestDev > tol {
			break
		}
		if closed && !removable(out, best) {
			pinned[best] = true
			continue
		}

		prev := (best - 1 + n) % n
		moved := append(carried[prev], out[best])
		moved = append(moved, carried[best]...)

		out = append(out[:best], out[best+1:]...)
		pinned = append(pinned[:best], pinned[best+1:]...)
		carried = append(carried[:best], carried[best+1:]...)
		if prev > best {
			prev--
		}
		carried[prev] = moved
	}
	return out
}

// maxDeviation returns the largest distance from candidate edge a-b to the
// removed point p and all points previously absorbed by its two edges.
func maxDeviation(a, b, p geometry.Point2, left, right []geometry.Point2) float64 {
	dev := geometry.DistPointSegment(p, a, b)
	for _, q := range left {
		dev = math.Max(dev, geometry.DistPointSegment(q, a, b))
	}
	for _, q := range right {
		dev = math.Max(dev, geometry.DistPointSegment(q, a, b))
	}
	return dev
}

// removable checks that dropping point i keeps a closed contour simple and
// non-degenerate.
func removable(p geometry.Polygon, i int) bool {
	n := len(p)
	if n <= 3 {
		return false
	}
	a := p[(i-1+n)%n]
	b := p[(i+1)%n]

	// The new edge a-b must not cross any edge not incident to it.
	for j := 0; j < n; j++ {
		k := (j + 1) % n
		if j == i || k == i || j == (i-1+n)%n || k == (i+1)%n {
			continue
		}
		if _, kind := geometry.SegmentIntersection(a, b, p[j], p[k], geometry.Epsilon); kind != geometry.IntersectNone {
			return false
		}
	}

	reduced := make(geometry.Polygon, 0, n-1)
	reduced = append(reduced, p[:i]...)
	reduced = append(reduced, p[i+1:]...)
	return math.Abs(geometry.SignedArea(reduced)) > geometry.Epsilon
}
