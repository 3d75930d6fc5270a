package updater

import (
	"sort"

	"dynavmesh/obstacles"
)

// Registry is the obstacle registry: a mapping from stable id to obstacle
// record. It is mutated only by the orchestrator's ingestion step on the
// main tick; builds work from value snapshots, never live references, so
// an in-flight build is immune to concurrent mutation.
type Registry struct {
	byID    map[obstacles.ID]obstacles.Obstacle
	changes uint64
}

func NewRegistry() *Registry {
	return &Registry{byID: map[obstacles.ID]obstacles.Obstacle{}}
}

// Upsert adds or replaces an obstacle. Additions, moves and shape changes
// are all the same operation: the registry changed.
func (r *Registry) Upsert(o obstacles.Obstacle) {
	r.byID[o.ID] = o.Clone()
	r.changes++
}

// Add mints an id for an obstacle the host did not name and registers it.
func (r *Registry) Add(o obstacles.Obstacle) obstacles.ID {
	o.ID = obstacles.NewID()
	r.Upsert(o)
	return o.ID
}

// Remove deletes an obstacle. Removing an unknown id is not a change.
func (r *Registry) Remove(id obstacles.ID) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	r.changes++
	return true
}

// Get returns a copy of the obstacle with the given id.
func (r *Registry) Get(id obstacles.ID) (obstacles.Obstacle, bool) {
	o, ok := r.byID[id]
	if !ok {
		return obstacles.Obstacle{}, false
	}
	return o.Clone(), true
}

func (r *Registry) Len() int {
	return len(r.byID)
}

// Changes counts registry mutations; the orchestrator uses it to detect
// that a rebuild is warranted.
func (r *Registry) Changes() uint64 {
	return r.changes
}

// Snapshot returns a deep copy of all obstacles, ordered by id for
// deterministic builds. The copy shares no memory with the registry.
func (r *Registry) Snapshot() []obstacles.Obstacle {
	out := make([]obstacles.Obstacle, 0, len(r.byID))
	for _, o := range r.byID {
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
