package updater

import (
	"sort"
	"sync"
	"sync/atomic"

	"dynavmesh/navmesh"
)

// Store is the versioned artifact store: generation number to immutable
// NavMesh. Publishing replaces the current handle with a single atomic
// pointer swap, so queriers on any goroutine never observe a partially
// built mesh. Old generations stay retrievable until pruned.
type Store struct {
	mu      sync.Mutex
	byGen   map[uint64]*navmesh.NavMesh
	current atomic.Pointer[navmesh.NavMesh]
}

func NewStore() *Store {
	return &Store{byGen: map[uint64]*navmesh.NavMesh{}}
}

// Publish makes m the current mesh. The caller guarantees generations only
// move forward.
func (s *Store) Publish(m *navmesh.NavMesh) {
	s.mu.Lock()
	s.byGen[m.Generation] = m
	s.mu.Unlock()
	s.current.Store(m)
}

// Current returns the latest published mesh, or nil before the first
// publish. Safe from any goroutine.
func (s *Store) Current() *navmesh.NavMesh {
	return s.current.Load()
}

// Get returns the mesh published for a specific generation.
func (s *Store) Get(gen uint64) (*navmesh.NavMesh, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byGen[gen]
	return m, ok
}

// Prune drops all but the newest keep generations. The current mesh is
// never dropped. Readers holding an older mesh keep a valid reference;
// pruning only stops the store from handing it out again.
func (s *Store) Prune(keep int) {
	if keep < 1 {
		keep = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.byGen) <= keep {
		return
	}
	gens := make([]uint64, 0, len(s.byGen))
	for g := range s.byGen {
		gens = append(gens, g)
	}
	sort.Slice(gens, func(i, j int) bool { return gens[i] > gens[j] })
	for _, g := range gens[keep:] {
		delete(s.byGen, g)
	}
}
