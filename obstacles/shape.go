package obstacles

import (
	"math"

	"dynavmesh/geometry"
)

// Resolution is the segment count used to sample circular arcs.
const Resolution = 32

// ShapeKind tags the variant held by a Shape.
type ShapeKind int

const (
	KindBox ShapeKind = iota
	KindCircle
	KindEllipse
	KindCapsule
	KindRegularPolygon
	KindRhombus
	KindOutline
)

// Shape is a tagged variant over obstacle shapes. Every kind converts to a
// canonical polygon outline before entering the geometry kernel, so
// downstream code is shape-agnostic. KindOutline is also the entry point
// for physics colliders: any collider that can report a convex-or-polygon
// outline plugs in through it.
type Shape struct {
	Kind ShapeKind

	// HalfExtents: box and ellipse half sizes, rhombus half diagonals.
	HalfExtents geometry.Point2
	// Radius: circle and capsule radius, regular polygon circumradius.
	Radius float64
	// HalfLength: capsule half length along its local Y axis.
	HalfLength float64
	// Sides: regular polygon side count.
	Sides int
	// Points: arbitrary outline in local space.
	Points geometry.Polygon
}

func Box(halfExtents geometry.Point2) Shape {
	return Shape{Kind: KindBox, HalfExtents: halfExtents}
}

func Circle(radius float64) Shape {
	return Shape{Kind: KindCircle, Radius: radius}
}

func Ellipse(halfExtents geometry.Point2) Shape {
	return Shape{Kind: KindEllipse, HalfExtents: halfExtents}
}

func Capsule(radius, halfLength float64) Shape {
	return Shape{Kind: KindCapsule, Radius: radius, HalfLength: halfLength}
}

func RegularPolygon(circumradius float64, sides int) Shape {
	return Shape{Kind: KindRegularPolygon, Radius: circumradius, Sides: sides}
}

func Rhombus(halfDiagonals geometry.Point2) Shape {
	return Shape{Kind: KindRhombus, HalfExtents: halfDiagonals}
}

func Outline(points geometry.Polygon) Shape {
	return Shape{Kind: KindOutline, Points: points}
}

// Outline returns the world-space polygon outline of the shape under the
// given placement, wound counter-clockwise.
func (s Shape) Outline(p Placement) geometry.Polygon {
	local := s.localOutline()
	out := make(geometry.Polygon, len(local))
	for i, v := range local {
		out[i] = p.Apply(v)
	}
	if len(out) >= 3 && !geometry.IsCCW(out) {
		out = geometry.Reverse(out)
	}
	return out
}

func (s Shape) localOutline() geometry.Polygon {
	switch s.Kind {
	case KindBox:
		hx, hy := s.HalfExtents.X(), s.HalfExtents.Y()
		return geometry.Polygon{
			{-hx, -hy}, {hx, -hy}, {hx, hy}, {-hx, hy},
		}
	case KindCircle:
		return ellipseOutline(geometry.Point2{s.Radius, s.Radius}, Resolution)
	case KindEllipse:
		return ellipseOutline(s.HalfExtents, Resolution)
	case KindCapsule:
		return capsuleOutline(s.Radius, s.HalfLength, Resolution)
	case KindRegularPolygon:
		n := s.Sides
		if n < 3 {
			n = 3
		}
		return ellipseOutline(geometry.Point2{s.Radius, s.Radius}, n)
	case KindRhombus:
		hx, hy := s.HalfExtents.X(), s.HalfExtents.Y()
		return geometry.Polygon{
			{hx, 0}, {0, hy}, {-hx, 0}, {0, -hy},
		}
	case KindOutline:
		return s.Points
	}
	return nil
}

func ellipseOutline(halfSize geometry.Point2, resolution int) geometry.Polygon {
	out := make(geometry.Polygon, 0, resolution)
	for i := 0; i < resolution; i++ {
		angle := float64(i) * 2 * math.Pi / float64(resolution)
		sin, cos := math.Sincos(angle)
		out = append(out, geometry.Point2{cos * halfSize.X(), sin * halfSize.Y()})
	}
	return out
}

func capsuleOutline(radius, halfLength float64, resolution int) geometry.Polygon {
	half := resolution / 2
	out := make(geometry.Polygon, 0, resolution+2)
	// Right-to-left cap over +Y, then left-to-right cap under -Y.
	for i := 0; i <= half; i++ {
		angle := float64(i) * math.Pi / float64(half)
		sin, cos := math.Sincos(angle)
		out = append(out, geometry.Point2{cos * radius, halfLength + sin*radius})
	}
	for i := 0; i <= half; i++ {
		angle := math.Pi + float64(i)*math.Pi/float64(half)
		sin, cos := math.Sincos(angle)
		out = append(out, geometry.Point2{cos * radius, -halfLength + sin*radius})
	}
	return out
}
