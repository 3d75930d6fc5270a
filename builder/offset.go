package builder

import (
	"math"

	"dynavmesh/geometry"

	"dynavmesh/obstacles"
)

// Offset inflates (d > 0) or deflates (d < 0) the given contours and
// returns the union of the results. Input contours are expected
// counter-clockwise; output contours are directed interior-left (outer
// rings counter-clockwise, cavity rings clockwise).
//
// The raw offset curve of each contour - edges shifted along their outward
// normal, rounded joins where the shifted edges separate, crossings left in
// place where they overlap - is dropped into the arrangement engine, and
// only the region where the curves' winding number is nonzero is kept. That
// resolves self-overlapping offset curves and merges contours whose offset
// shapes intersect, so the output is never self-intersecting. Offsetting
// past the point where a contour vanishes simply contributes nothing.
//
// d == 0 is the plain union of the inputs.
func Offset(polys []geometry.Polygon, d, eps float64) []geometry.Polygon {
	loops := make([]geometry.Polygon, 0, len(polys))
	for _, p := range polys {
		if loop := rawOffsetLoop(p, d, eps); len(loop) >= 3 {
			loops = append(loops, loop)
		}
	}
	if len(loops) == 0 {
		return nil
	}
	// Positive winding keeps the covered region; the spurious loops a raw
	// offset curve forms at reflex corners wind the other way and cancel.
	inside := func(pt geometry.Point2) bool {
		return windingAt(loops, pt) > 0
	}
	return extractRegion(loops, inside, eps)
}

// rawOffsetLoop builds the (possibly self-overlapping) offset curve of one
// contour. Degenerate contours still inflate: a single point becomes a
// circle, a zero-area contour a capsule-like band.
func rawOffsetLoop(p geometry.Polygon, d, eps float64) geometry.Polygon {
	p = geometry.Dedup(p, eps)
	switch {
	case len(p) == 0:
		return nil
	case len(p) == 1:
		if d <= eps {
			return nil
		}
		return circleLoop(p[0], d)
	case len(p) == 2:
		// A bare segment walks the collapsed loop a-b-a below: both sides
		// get shifted and both end caps become half-circle joins.
	}
	if math.Abs(d) <= eps {
		return append(geometry.Polygon(nil), p...)
	}

	n := len(p)
	var loop geometry.Polygon
	for i := 0; i < n; i++ {
		a, b := p[i], p[(i+1)%n]
		dir := b.Sub(a)
		l := dir.Len()
		if l <= eps {
			continue
		}
		dir = dir.Mul(1 / l)
		// Outward normal of a counter-clockwise contour is to the right.
		normal := geometry.Point2{dir.Y(), -dir.X()}
		shift := normal.Mul(d)
		loop = append(loop, a.Add(shift), b.Add(shift))

		// Join toward the next shifted edge around vertex b.
		c := p[(i+2)%n]
		dir2 := c.Sub(b)
		l2 := dir2.Len()
		if l2 <= eps {
			continue
		}
		dir2 = dir2.Mul(1 / l2)
		normal2 := geometry.Point2{dir2.Y(), -dir2.X()}
		from := math.Atan2(normal.Y(), normal.X())
		to := math.Atan2(normal2.Y(), normal2.X())
		sweep := normalizeAngle(to - from)
		if d > 0 && sweep > eps {
			loop = append(loop, arcPoints(b, d, from, sweep)...)
		} else if d < 0 && sweep < -eps {
			loop = append(loop, arcPoints(b, d, from, sweep)...)
		}
		// Crossing joins need no points: the winding filter removes the
		// local loop they create.
	}
	return loop
}

// normalizeAngle maps an angle into (-pi, pi].
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// arcPoints samples the rounded join around center, radius |d|, starting
// at angle from and sweeping by sweep.
func arcPoints(center geometry.Point2, d, from, sweep float64) []geometry.Point2 {
	r := math.Abs(d)
	steps := int(math.Ceil(math.Abs(sweep) / (2 * math.Pi / float64(obstacles.Resolution))))
	if steps < 1 {
		steps = 1
	}
	pts := make([]geometry.Point2, 0, steps)
	for i := 1; i < steps; i++ {
		angle := from + sweep*float64(i)/float64(steps)
		sin, cos := math.Sincos(angle)
		pts = append(pts, geometry.Point2{center.X() + cos*r, center.Y() + sin*r})
	}
	return pts
}

// circleLoop samples a full circle, counter-clockwise.
func circleLoop(center geometry.Point2, r float64) geometry.Polygon {
	out := make(geometry.Polygon, 0, obstacles.Resolution)
	for i := 0; i < obstacles.Resolution; i++ {
		angle := float64(i) * 2 * math.Pi / float64(obstacles.Resolution)
		sin, cos := math.Sincos(angle)
		out = append(out, geometry.Point2{center.X() + cos*r, center.Y() + sin*r})
	}
	return out
}
