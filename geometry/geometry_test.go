package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(size float64) Polygon {
	return Polygon{{0, 0}, {size, 0}, {size, size}, {0, size}}
}

func TestSignedArea(t *testing.T) {
	assert.InDelta(t, 100.0, SignedArea(square(10)), 1e-12)
	assert.InDelta(t, -100.0, SignedArea(Reverse(square(10))), 1e-12)
	assert.True(t, IsCCW(square(10)))
	assert.False(t, IsCCW(Reverse(square(10))))
}

func TestCentroid(t *testing.T) {
	c := Centroid(square(10))
	assert.InDelta(t, 5, c.X(), 1e-12)
	assert.InDelta(t, 5, c.Y(), 1e-12)
}

func TestWindingNumber(t *testing.T) {
	sq := square(10)
	assert.Equal(t, 1, WindingNumber(Point2{5, 5}, sq))
	assert.Equal(t, 0, WindingNumber(Point2{15, 5}, sq))
	assert.Equal(t, 0, WindingNumber(Point2{-1, -1}, sq))
	assert.Equal(t, -1, WindingNumber(Point2{5, 5}, Reverse(sq)))

	assert.True(t, ContainsPoint(Point2{0.01, 0.01}, sq))
	assert.False(t, ContainsPoint(Point2{10.01, 5}, sq))
}

func TestSegmentIntersection(t *testing.T) {
	tests := []struct {
		name           string
		a0, a1, b0, b1 Point2
		kind           IntersectKind
	}{
		{"crossing", Point2{0, 0}, Point2{2, 2}, Point2{0, 2}, Point2{2, 0}, IntersectPoint},
		{"apart", Point2{0, 0}, Point2{1, 0}, Point2{0, 1}, Point2{1, 1}, IntersectNone},
		{"parallel", Point2{0, 0}, Point2{1, 0}, Point2{0, 1}, Point2{1, 1}, IntersectNone},
		{"collinear overlap", Point2{0, 0}, Point2{2, 0}, Point2{1, 0}, Point2{3, 0}, IntersectOverlap},
		{"collinear apart", Point2{0, 0}, Point2{1, 0}, Point2{2, 0}, Point2{3, 0}, IntersectNone},
		{"shared endpoint", Point2{0, 0}, Point2{1, 1}, Point2{1, 1}, Point2{2, 0}, IntersectNone},
		{"t touch", Point2{0, 0}, Point2{2, 0}, Point2{1, 0}, Point2{1, 5}, IntersectNone},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, kind := SegmentIntersection(tc.a0, tc.a1, tc.b0, tc.b1, Epsilon)
			assert.Equal(t, tc.kind, kind)
		})
	}

	p, kind := SegmentIntersection(Point2{0, 0}, Point2{2, 2}, Point2{0, 2}, Point2{2, 0}, Epsilon)
	require.Equal(t, IntersectPoint, kind)
	assert.InDelta(t, 1, p.X(), 1e-12)
	assert.InDelta(t, 1, p.Y(), 1e-12)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(square(10), 1e-9))

	err := Validate(Polygon{{0, 0}, {1, 0}}, 1e-9)
	assert.ErrorIs(t, err, ErrDegenerateGeometry)

	err = Validate(Polygon{{0, 0}, {5, 0}, {10, 0}}, 1e-9)
	assert.ErrorIs(t, err, ErrDegenerateGeometry)

	bowtie := Polygon{{0, 0}, {4, 4}, {4, 0}, {0, 2}}
	err = Validate(bowtie, 1e-9)
	assert.ErrorIs(t, err, ErrSelfIntersecting)

	// A symmetric bowtie has no net area and is caught as degenerate first.
	err = Validate(Polygon{{0, 0}, {2, 2}, {2, 0}, {0, 2}}, 1e-9)
	assert.ErrorIs(t, err, ErrDegenerateGeometry)

	// Coincident consecutive points collapse but the contour stays valid.
	assert.NoError(t, Validate(Polygon{{0, 0}, {0, 0}, {10, 0}, {10, 10}, {0, 10}}, 1e-9))
}

func TestDistPointSegment(t *testing.T) {
	assert.InDelta(t, 1, DistPointSegment(Point2{5, 1}, Point2{0, 0}, Point2{10, 0}), 1e-12)
	assert.InDelta(t, math.Sqrt2, DistPointSegment(Point2{-1, 1}, Point2{0, 0}, Point2{10, 0}), 1e-12)
	assert.InDelta(t, 0, DistPointSegment(Point2{3, 0}, Point2{0, 0}, Point2{10, 0}), 1e-12)
}

func TestDedup(t *testing.T) {
	p := Polygon{{0, 0}, {0, 0}, {1, 0}, {1, 1}, {0, 0}}
	got := Dedup(p, 1e-9)
	assert.Equal(t, Polygon{{0, 0}, {1, 0}, {1, 1}}, got)
}
