package builder

import "errors"

var (
	// ErrSelfIntersectingConstraint rejects boundary or obstacle input whose
	// constraint contours cross themselves or each other. The build attempt
	// fails; the previously published mesh stays in use.
	ErrSelfIntersectingConstraint = errors.New("self-intersecting constraint")

	// ErrTriangulationFailed reports a numerical failure to triangulate the
	// navigable region while honoring its constraint edges.
	ErrTriangulationFailed = errors.New("triangulation failed")
)
