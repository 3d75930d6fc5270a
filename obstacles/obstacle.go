package obstacles

import (
	"math"

	"github.com/google/uuid"

	"dynavmesh/geometry"
)

// ID is a stable obstacle identifier. Hosts usually supply their own entity
// id; NewID mints one for hosts that do not.
type ID string

func NewID() ID {
	return ID(uuid.NewString())
}

// Placement positions a shape in navmesh space.
type Placement struct {
	Position geometry.Point2
	Rotation float64 // radians, counter-clockwise
	Scale    geometry.Point2
}

// IdentityPlacement places a shape at the origin, unrotated, unscaled.
func IdentityPlacement() Placement {
	return Placement{Scale: geometry.Point2{1, 1}}
}

// Apply transforms a local-space point: scale, then rotate, then translate.
func (p Placement) Apply(v geometry.Point2) geometry.Point2 {
	x := v.X() * p.Scale.X()
	y := v.Y() * p.Scale.Y()
	sin, cos := math.Sincos(p.Rotation)
	return geometry.Point2{
		p.Position.X() + x*cos - y*sin,
		p.Position.Y() + x*sin + y*cos,
	}
}

// Obstacle is one registered blocker: a shape, where it is, and which
// height layer it affects. Layer indexes the declared layer set; 0 for the
// single flat layer.
type Obstacle struct {
	ID        ID
	Shape     Shape
	Placement Placement
	Layer     int
}

// Outline returns the obstacle's world-space polygon outline.
func (o Obstacle) Outline() geometry.Polygon {
	return o.Shape.Outline(o.Placement)
}

// Clone returns a deep copy, safe to hand to a build worker.
func (o Obstacle) Clone() Obstacle {
	c := o
	c.Shape.Points = append(geometry.Polygon(nil), o.Shape.Points...)
	return c
}
