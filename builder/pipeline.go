package builder

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"dynavmesh/geometry"
	"dynavmesh/navmesh"
	"dynavmesh/obstacles"
)

// Input is one immutable build request: a deep snapshot of the obstacle
// registry, the boundary contours, the settings, and the generation number
// the build targets. Nothing in an Input is shared with the orchestrator
// once handed to a worker.
type Input struct {
	Boundary   geometry.Polygon
	FixedHoles []geometry.Polygon
	Obstacles  []obstacles.Obstacle
	Settings   navmesh.Settings
	Generation uint64
}

// Build runs the full pipeline: simplify, offset, clip the navigable
// region, triangulate per layer, merge, stitch layers, and freeze the
// result. Degenerate obstacle contours are skipped with a log entry;
// self-intersecting constraints and triangulation failures fail the build.
// Obstacles consuming the entire boundary succeed with an explicitly empty
// mesh.
func Build(in Input, log *zap.Logger) (*navmesh.NavMesh, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := in.Settings.Validate(); err != nil {
		return nil, err
	}
	eps := in.Settings.BuildEpsilon
	empty := &navmesh.NavMesh{Generation: in.Generation}

	boundary := geometry.Dedup(in.Boundary, eps)
	if err := geometry.Validate(boundary, eps); err != nil {
		if errors.Is(err, geometry.ErrSelfIntersecting) {
			return nil, fmt.Errorf("%w: boundary", ErrSelfIntersectingConstraint)
		}
		log.Warn("degenerate boundary, publishing empty mesh", zap.Error(err))
		return empty, nil
	}
	if !geometry.IsCCW(boundary) {
		boundary = geometry.Reverse(boundary)
	}
	if in.Settings.SimplifyTolerance > 0 {
		boundary = Simplify(boundary, in.Settings.SimplifyTolerance, true)
	}

	// Deflate the walkable boundary by the agent radius so paths keep the
	// agent's body inside it.
	boundaryLoops := []geometry.Polygon{boundary}
	if in.Settings.AgentRadius > 0 {
		boundaryLoops = Offset(boundaryLoops, -in.Settings.AgentRadius, eps)
		if len(boundaryLoops) == 0 {
			log.Debug("boundary vanished under agent radius",
				zap.Float64("radius", in.Settings.AgentRadius))
			return empty, nil
		}
	}

	layers := in.Settings.EffectiveLayers()
	mesh := &navmesh.NavMesh{Generation: in.Generation}
	for li, layer := range layers {
		polys, verts, err := buildLayer(in, li, boundaryLoops, eps, log)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", li, err)
		}
		appendLayer(mesh, layer.Height, verts, polys)
	}
	stitchLayers(mesh, layers, eps)
	compactVerts(mesh)

	log.Debug("navmesh built",
		zap.Uint64("generation", mesh.Generation),
		zap.Int("polygons", len(mesh.Polys)),
		zap.Int("layers", len(mesh.Layers)))
	return mesh, nil
}

// buildLayer produces the merged polygon set of one height layer.
func buildLayer(in Input, layerIdx int, boundaryLoops []geometry.Polygon, eps float64, log *zap.Logger) ([][]int32, []geometry.Point2, error) {
	outlines := make([]geometry.Polygon, 0, len(in.Obstacles)+len(in.FixedHoles))
	// Fixed holes behave like immovable obstacles: they get the same agent
	// radius inflation.
	for _, h := range in.FixedHoles {
		if layerIdx == 0 {
			outlines = append(outlines, geometry.Reverse(h))
		}
	}
	for _, o := range in.Obstacles {
		if o.Layer != layerIdx {
			continue
		}
		outline := geometry.Dedup(o.Outline(), eps)
		if len(outline) == 0 {
			log.Debug("skipping empty obstacle outline", zap.String("obstacle", string(o.ID)))
			continue
		}
		if err := geometry.Validate(outline, eps); err != nil {
			if errors.Is(err, geometry.ErrSelfIntersecting) {
				return nil, nil, fmt.Errorf("%w: obstacle %s", ErrSelfIntersectingConstraint, o.ID)
			}
			// Degenerate shapes still occupy space once inflated by the
			// agent radius; without inflation they exclude nothing.
			if in.Settings.AgentRadius <= 0 {
				log.Debug("skipping degenerate obstacle outline",
					zap.String("obstacle", string(o.ID)), zap.Error(err))
				continue
			}
		} else if !geometry.IsCCW(outline) {
			outline = geometry.Reverse(outline)
		}
		if in.Settings.SimplifyTolerance > 0 && len(outline) > 4 {
			outline = Simplify(outline, in.Settings.SimplifyTolerance, true)
		}
		outlines = append(outlines, outline)
	}

	obstacleLoops := Offset(outlines, in.Settings.AgentRadius, eps)

	// The navigable region is the deflated boundary minus the inflated
	// obstacle union.
	all := append(append([]geometry.Polygon{}, boundaryLoops...), obstacleLoops...)
	inside := func(pt geometry.Point2) bool {
		return windingAt(boundaryLoops, pt) > 0 && windingAt(obstacleLoops, pt) == 0
	}
	region := extractRegion(all, inside, eps)
	if len(region) == 0 {
		return nil, nil, nil
	}

	var outPolys [][]int32
	var outVerts []geometry.Point2
	for _, group := range groupContours(region) {
		t, err := Triangulate(group.outer, group.holes, eps)
		if err != nil {
			return nil, nil, err
		}
		var polys [][]int32
		if in.Settings.Merge {
			polys = MergePolygons(t, eps)
		} else {
			for _, tri := range t.Tris {
				polys = append(polys, []int32{tri[0], tri[1], tri[2]})
			}
		}
		base := int32(len(outVerts))
		outVerts = append(outVerts, t.Verts...)
		for _, p := range polys {
			shifted := make([]int32, len(p))
			for i, v := range p {
				shifted[i] = v + base
			}
			outPolys = append(outPolys, shifted)
		}
	}
	return outPolys, outVerts, nil
}

type contourGroup struct {
	outer geometry.Polygon
	holes []geometry.Polygon
}

// groupContours assigns each clockwise hole contour to the smallest
// counter-clockwise contour containing it, so islands inside cavities also
// triangulate.
func groupContours(region []geometry.Polygon) []contourGroup {
	var groups []contourGroup
	var outerAreas []float64
	for _, c := range region {
		if geometry.IsCCW(c) {
			groups = append(groups, contourGroup{outer: c})
			outerAreas = append(outerAreas, geometry.SignedArea(c))
		}
	}
	for _, c := range region {
		if geometry.IsCCW(c) {
			continue
		}
		best := -1
		for gi, g := range groups {
			if geometry.WindingNumber(c[0], g.outer) == 0 {
				continue
			}
			if best < 0 || outerAreas[gi] < outerAreas[best] {
				best = gi
			}
		}
		if best >= 0 {
			groups[best].holes = append(groups[best].holes, c)
		}
	}
	return groups
}

// appendLayer moves one layer's polygons into the mesh, rebasing vertex and
// neighbor indices into the shared buffers.
func appendLayer(mesh *navmesh.NavMesh, height float64, verts []geometry.Point2, polys [][]int32) {
	vertBase := int32(len(mesh.Verts))
	polyBase := int32(len(mesh.Polys))
	mesh.Verts = append(mesh.Verts, verts...)

	neis := BuildAdjacency(polys)
	for pi, p := range polys {
		poly := navmesh.Poly{Verts: make([]int32, len(p)), Neis: make([]int32, len(p))}
		for i, v := range p {
			poly.Verts[i] = v + vertBase
		}
		for i, n := range neis[pi] {
			if n >= 0 {
				poly.Neis[i] = n + polyBase
			} else {
				poly.Neis[i] = -1
			}
		}
		mesh.Polys = append(mesh.Polys, poly)
	}
	mesh.Layers = append(mesh.Layers, navmesh.Layer{
		Height:    height,
		FirstPoly: polyBase,
		PolyCount: int32(len(polys)),
	})
}

// stitchLayers records vertical links between polygons of different layers
// whose boundary edges coincide in plan view and whose heights are within
// the configured merge tolerance.
func stitchLayers(mesh *navmesh.NavMesh, layers []navmesh.LayerSettings, eps float64) {
	if len(mesh.Layers) < 2 {
		return
	}
	stitchEps := math.Max(eps*100, 1e-9)
	type boundaryEdge struct {
		poly int32
		a, b geometry.Point2
	}
	perLayer := make([][]boundaryEdge, len(mesh.Layers))
	for li, l := range mesh.Layers {
		for p := l.FirstPoly; p < l.FirstPoly+l.PolyCount; p++ {
			poly := mesh.Polys[p]
			for e, nei := range poly.Neis {
				if nei >= 0 {
					continue
				}
				a := mesh.Verts[poly.Verts[e]]
				b := mesh.Verts[poly.Verts[(e+1)%len(poly.Verts)]]
				perLayer[li] = append(perLayer[li], boundaryEdge{p, a, b})
			}
		}
	}
	for i := 0; i < len(mesh.Layers); i++ {
		for j := i + 1; j < len(mesh.Layers); j++ {
			tol := math.Max(layers[i].MergeHeightTolerance, layers[j].MergeHeightTolerance)
			if math.Abs(layers[i].Height-layers[j].Height) > tol {
				continue
			}
			for _, ea := range perLayer[i] {
				for _, eb := range perLayer[j] {
					same := geometry.NearlyEqual(ea.a, eb.a, stitchEps) && geometry.NearlyEqual(ea.b, eb.b, stitchEps)
					flipped := geometry.NearlyEqual(ea.a, eb.b, stitchEps) && geometry.NearlyEqual(ea.b, eb.a, stitchEps)
					if !same && !flipped {
						continue
					}
					mesh.Links = append(mesh.Links,
						navmesh.Link{From: ea.poly, To: eb.poly},
						navmesh.Link{From: eb.poly, To: ea.poly})
				}
			}
		}
	}
}

// compactVerts drops vertices no polygon references and remaps indices.
func compactVerts(mesh *navmesh.NavMesh) {
	used := make([]int32, len(mesh.Verts))
	for i := range used {
		used[i] = -1
	}
	var verts []geometry.Point2
	for pi := range mesh.Polys {
		for i, v := range mesh.Polys[pi].Verts {
			if used[v] < 0 {
				used[v] = int32(len(verts))
				verts = append(verts, mesh.Verts[v])
			}
			mesh.Polys[pi].Verts[i] = used[v]
		}
	}
	mesh.Verts = verts
}
