package navmesh

import (
	"container/heap"
	"math"

	"dynavmesh/geometry"
)

// LocatePolygon returns the index of a polygon containing pt, or -1. When
// several polygons touch pt (it lies on a portal) the lowest index wins.
func (m *NavMesh) LocatePolygon(pt geometry.Point2) int32 {
	for i := range m.Polys {
		if m.PolyContains(int32(i), pt, geometry.Epsilon) {
			return int32(i)
		}
	}
	return -1
}

// FindPath computes a path between two points over the polygon adjacency
// graph. Two points inside the same polygon always get the direct segment.
// Otherwise the path is an A* walk through portal midpoints, which is
// valid but not globally shortest; a dedicated search collaborator can run
// its own algorithm over the same graph. Returns ErrNoPath when either
// point is off the mesh or the polygons are not connected.
func (m *NavMesh) FindPath(from, to geometry.Point2) ([]geometry.Point2, error) {
	if m.Empty() {
		return nil, ErrNoPath
	}
	start := m.LocatePolygon(from)
	goal := m.LocatePolygon(to)
	if start < 0 || goal < 0 {
		return nil, ErrNoPath
	}
	if start == goal {
		return []geometry.Point2{from, to}, nil
	}

	cameFrom, ok := m.searchPolys(start, goal, from, to)
	if !ok {
		return nil, ErrNoPath
	}

	// Walk the polygon chain back from the goal, then emit the portal
	// midpoints between consecutive polygons.
	var chain []int32
	for p := goal; ; p = cameFrom[p] {
		chain = append(chain, p)
		if p == start {
			break
		}
	}
	path := []geometry.Point2{from}
	for i := len(chain) - 1; i > 0; i-- {
		if pt, ok := m.portalBetween(chain[i], chain[i-1]); ok {
			path = append(path, pt)
		}
	}
	path = append(path, to)
	return path, nil
}

// PathLength returns the total length of a path returned by FindPath.
func PathLength(path []geometry.Point2) float64 {
	var l float64
	for i := 1; i < len(path); i++ {
		l += path[i].Sub(path[i-1]).Len()
	}
	return l
}

type queryNode struct {
	poly  int32
	cost  float64
	total float64
	index int
}

type queryHeap []*queryNode

func (h queryHeap) Len() int            { return len(h) }
func (h queryHeap) Less(i, j int) bool  { return h[i].total < h[j].total }
func (h queryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *queryHeap) Push(x interface{}) { n := x.(*queryNode); n.index = len(*h); *h = append(*h, n) }
func (h *queryHeap) Pop() interface{} {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}

func (m *NavMesh) searchPolys(start, goal int32, from, to geometry.Point2) (map[int32]int32, bool) {
	cameFrom := map[int32]int32{}
	costSoFar := map[int32]float64{start: 0}
	open := &queryHeap{}
	heap.Init(open)
	heap.Push(open, &queryNode{poly: start, total: to.Sub(from).Len()})

	posOf := func(p int32) geometry.Point2 {
		if p == start {
			return from
		}
		return m.PolyCentroid(p)
	}

	for open.Len() > 0 {
		cur := heap.Pop(open).(*queryNode)
		if cur.poly == goal {
			return cameFrom, true
		}
		if cur.cost > costSoFar[cur.poly] {
			continue
		}
		for _, next := range m.neighbors(cur.poly) {
			step := posOf(next).Sub(posOf(cur.poly)).Len()
			cost := cur.cost + math.Max(step, geometry.Epsilon)
			if prev, seen := costSoFar[next]; seen && cost >= prev {
				continue
			}
			costSoFar[next] = cost
			cameFrom[next] = cur.poly
			heap.Push(open, &queryNode{
				poly:  next,
				cost:  cost,
				total: cost + to.Sub(posOf(next)).Len(),
			})
		}
	}
	return nil, false
}

func (m *NavMesh) neighbors(p int32) []int32 {
	var out []int32
	for _, n := range m.Polys[p].Neis {
		if n >= 0 {
			out = append(out, n)
		}
	}
	for _, l := range m.Links {
		if l.From == p {
			out = append(out, l.To)
		}
	}
	return out
}

// portalBetween returns the midpoint of the shared edge from polygon a to
// polygon b. Vertical links have no shared edge; the step goes through the
// target centroid instead.
func (m *NavMesh) portalBetween(a, b int32) (geometry.Point2, bool) {
	for e, n := range m.Polys[a].Neis {
		if n == b {
			return m.portal(a, e), true
		}
	}
	for _, l := range m.Links {
		if l.From == a && l.To == b {
			return m.PolyCentroid(b), true
		}
	}
	return geometry.Point2{}, false
}
