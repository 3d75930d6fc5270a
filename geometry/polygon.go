package geometry

import (
	"errors"
	"fmt"
	"math"
)

// Polygon is a closed contour. The edge from the last point back to the
// first is implicit. Winding is meaningful mesh-wide: outer boundaries are
// counter-clockwise (positive signed area), holes are clockwise.
type Polygon []Point2

var (
	// ErrDegenerateGeometry marks contours with too few points or no area.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
	// ErrSelfIntersecting marks contours whose nonadjacent edges cross.
	ErrSelfIntersecting = errors.New("self-intersecting contour")
)

// SignedArea returns the signed area of p, positive for counter-clockwise
// winding.
func SignedArea(p Polygon) float64 {
	var a float64
	n := len(p)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		a += PerpDot(p[i], p[j])
	}
	return a / 2
}

// IsCCW reports whether p winds counter-clockwise.
func IsCCW(p Polygon) bool {
	return SignedArea(p) > 0
}

// Reverse returns a copy of p with opposite winding.
func Reverse(p Polygon) Polygon {
	out := make(Polygon, len(p))
	for i, pt := range p {
		out[len(p)-1-i] = pt
	}
	return out
}

// Centroid returns the area centroid of p. Falls back to the vertex mean
// for near-zero-area contours.
func Centroid(p Polygon) Point2 {
	var cx, cy, a float64
	n := len(p)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := PerpDot(p[i], p[j])
		cx += (p[i].X() + p[j].X()) * cross
		cy += (p[i].Y() + p[j].Y()) * cross
		a += cross
	}
	if math.Abs(a) < Epsilon {
		var s Point2
		for _, pt := range p {
			s = s.Add(pt)
		}
		return s.Mul(1 / float64(n))
	}
	return Point2{cx / (3 * a), cy / (3 * a)}
}

// WindingNumber returns the winding number of p around pt using the
// nonzero rule. Zero means outside.
func WindingNumber(pt Point2, p Polygon) int {
	wn := 0
	n := len(p)
	for i := 0; i < n; i++ {
		a, b := p[i], p[(i+1)%n]
		if a.Y() <= pt.Y() {
			if b.Y() > pt.Y() && TriArea2(a, b, pt) > 0 {
				wn++
			}
		} else if b.Y() <= pt.Y() && TriArea2(a, b, pt) < 0 {
			wn--
		}
	}
	return wn
}

// ContainsPoint reports whether pt lies inside p (nonzero winding rule,
// matching the offsetter's convention).
func ContainsPoint(pt Point2, p Polygon) bool {
	return WindingNumber(pt, p) != 0
}

// Dedup removes consecutive points closer than eps, including a coincident
// closing point.
func Dedup(p Polygon, eps float64) Polygon {
	out := make(Polygon, 0, len(p))
	for _, pt := range p {
		if len(out) == 0 || !NearlyEqual(out[len(out)-1], pt, eps) {
			out = append(out, pt)
		}
	}
	for len(out) > 1 && NearlyEqual(out[0], out[len(out)-1], eps) {
		out = out[:len(out)-1]
	}
	return out
}

// Validate checks that p is a usable simple contour: at least 3 distinct
// points, non-vanishing area, and no crossing between nonadjacent edges.
func Validate(p Polygon, eps float64) error {
	q := Dedup(p, eps)
	if len(q) < 3 {
		return fmt.Errorf("%w: %d distinct points", ErrDegenerateGeometry, len(q))
	}
	if math.Abs(SignedArea(q)) <= eps*eps {
		return fmt.Errorf("%w: zero area", ErrDegenerateGeometry)
	}
	if selfIntersects(q, eps) {
		return ErrSelfIntersecting
	}
	return nil
}

func selfIntersects(p Polygon, eps float64) bool {
	n := len(p)
	for i := 0; i < n; i++ {
		a0, a1 := p[i], p[(i+1)%n]
		for j := i + 1; j < n; j++ {
			// Skip the shared-vertex neighbors of edge i.
			if j == i || (j+1)%n == i || j == (i+1)%n {
				continue
			}
			b0, b1 := p[j], p[(j+1)%n]
			if _, kind := SegmentIntersection(a0, a1, b0, b1, eps); kind != IntersectNone {
				return true
			}
		}
	}
	return false
}
