package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Point2 is a 2D coordinate in navmesh space.
type Point2 = mgl64.Vec2

// Point3 is a 3D coordinate; Y is the height axis, navmesh layers live in XZ.
type Point3 = mgl64.Vec3

// Epsilon is the default tolerance for degeneracy checks. Callers that carry
// a build epsilon pass it explicitly; everything else uses this.
const Epsilon = 1e-9

// Segment is a directed line segment from A to B.
type Segment struct {
	A, B Point2
}

// Dir returns the unnormalized direction B-A.
func (s Segment) Dir() Point2 {
	return s.B.Sub(s.A)
}

// Mid returns the segment midpoint.
func (s Segment) Mid() Point2 {
	return s.A.Add(s.B).Mul(0.5)
}

// PerpDot returns the 2D cross product (perp dot product) of u and v.
func PerpDot(u, v Point2) float64 {
	return u.X()*v.Y() - u.Y()*v.X()
}

// TriArea2 returns twice the signed area of triangle abc.
// Positive when abc winds counter-clockwise.
func TriArea2(a, b, c Point2) float64 {
	return PerpDot(b.Sub(a), c.Sub(a))
}

// DistPointSegment returns the distance from p to segment ab.
func DistPointSegment(p, a, b Point2) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 < Epsilon {
		return p.Sub(a).Len()
	}
	t := p.Sub(a).Dot(ab) / l2
	t = math.Max(0, math.Min(1, t))
	proj := a.Add(ab.Mul(t))
	return p.Sub(proj).Len()
}

// NearlyEqual reports whether two points are within eps of each other.
func NearlyEqual(a, b Point2, eps float64) bool {
	d := b.Sub(a)
	return d.Dot(d) <= eps*eps
}

// IsFinite reports whether both components of p are finite.
func IsFinite(p Point2) bool {
	return !math.IsNaN(p.X()) && !math.IsInf(p.X(), 0) &&
		!math.IsNaN(p.Y()) && !math.IsInf(p.Y(), 0)
}
