package geometry

import "math"

// IntersectKind classifies the result of a segment-segment intersection.
type IntersectKind int

const (
	IntersectNone IntersectKind = iota
	IntersectPoint
	IntersectOverlap
)

// SegmentIntersection intersects the open interiors of segments a0a1 and
// b0b1. Touches at shared endpoints do not count. For IntersectPoint the
// returned point is the crossing; for IntersectOverlap it is the start of
// the shared collinear span.
func SegmentIntersection(a0, a1, b0, b1 Point2, eps float64) (Point2, IntersectKind) {
	da := a1.Sub(a0)
	db := b1.Sub(b0)
	denom := PerpDot(da, db)
	ab := b0.Sub(a0)

	if math.Abs(denom) <= eps {
		// Parallel. Overlap only when collinear.
		if math.Abs(PerpDot(ab, da)) > eps {
			return Point2{}, IntersectNone
		}
		l2 := da.Dot(da)
		if l2 <= eps*eps {
			return Point2{}, IntersectNone
		}
		t0 := ab.Dot(da) / l2
		t1 := b1.Sub(a0).Dot(da) / l2
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		lo := math.Max(t0, 0)
		hi := math.Min(t1, 1)
		if hi-lo <= eps {
			return Point2{}, IntersectNone
		}
		return a0.Add(da.Mul(lo)), IntersectOverlap
	}

	t := PerpDot(ab, db) / denom
	u := PerpDot(ab, da) / denom
	if t <= eps || t >= 1-eps || u <= eps || u >= 1-eps {
		return Point2{}, IntersectNone
	}
	return a0.Add(da.Mul(t)), IntersectPoint
}

// SegmentCross is SegmentIntersection with endpoint touches included, for
// planarization where split points at endpoints matter.
func SegmentCross(a0, a1, b0, b1 Point2, eps float64) (Point2, IntersectKind) {
	da := a1.Sub(a0)
	db := b1.Sub(b0)
	denom := PerpDot(da, db)
	ab := b0.Sub(a0)

	if math.Abs(denom) <= eps {
		if math.Abs(PerpDot(ab, da)) > eps {
			return Point2{}, IntersectNone
		}
		return Point2{}, IntersectOverlap
	}
	t := PerpDot(ab, db) / denom
	u := PerpDot(ab, da) / denom
	if t < -eps || t > 1+eps || u < -eps || u > 1+eps {
		return Point2{}, IntersectNone
	}
	return a0.Add(da.Mul(t)), IntersectPoint
}
