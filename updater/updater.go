package updater

import (
	"go.uber.org/zap"

	"dynavmesh/builder"
	"dynavmesh/geometry"
	"dynavmesh/navmesh"
	"dynavmesh/obstacles"
)

// State of the rebuild state machine.
type State int32

const (
	// StateIdle: no rebuild pending and none running.
	StateIdle State = iota
	// StatePending: an obstacle change was observed; a rebuild is
	// requested but not yet started. Multiple changes coalesce here.
	StatePending
	// StateBuilding: a rebuild runs off the critical path against a
	// captured snapshot and generation number.
	StateBuilding
	// StatePublishing: a finished build is being validated against
	// staleness. Transient within one tick.
	StatePublishing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateBuilding:
		return "building"
	case StatePublishing:
		return "publishing"
	}
	return "unknown"
}

type buildResult struct {
	gen  uint64
	mesh *navmesh.NavMesh
	err  error
}

// Updater owns the obstacle registry and keeps the published navmesh
// consistent with it. It is tick-driven: the host calls Tick once per
// update loop iteration, mutations go through the ingestion methods on
// that same loop, and the build pipeline runs on a worker goroutine so a
// tick never blocks on a build. At most one build is in flight; a change
// during a build only refreshes the pending marker, and a completed build
// whose target generation is no longer the latest is discarded instead of
// published. Current is safe from any goroutine; everything else belongs
// to the tick loop.
type Updater struct {
	log        *zap.Logger
	settings   navmesh.Settings
	boundary   geometry.Polygon
	fixedHoles []geometry.Polygon

	registry *Registry
	store    *Store

	state     State
	latestGen uint64
	pending   bool
	inflight  bool
	blocking  bool
	lastErr   error
	results   chan buildResult
}

// Option configures an Updater.
type Option func(*Updater)

// WithLogger routes build and state machine logging to l.
func WithLogger(l *zap.Logger) Option {
	return func(u *Updater) { u.log = l }
}

// WithBlockingBuilds runs the pipeline synchronously inside Tick instead
// of on a worker. Useful for tests and for hosts that schedule builds on
// their own worker budget.
func WithBlockingBuilds() Option {
	return func(u *Updater) { u.blocking = true }
}

// New creates an updater for the given outer boundary and fixed holes.
// The initial build is already pending: the first Ticks produce the first
// published mesh.
func New(boundary geometry.Polygon, fixedHoles []geometry.Polygon, settings navmesh.Settings, opts ...Option) (*Updater, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	u := &Updater{
		log:      zap.NewNop(),
		settings: settings.Clone(),
		boundary: append(geometry.Polygon(nil), boundary...),
		registry: NewRegistry(),
		store:    NewStore(),
		results:  make(chan buildResult, 1),

		state:     StatePending,
		latestGen: 1,
		pending:   true,
	}
	for _, h := range fixedHoles {
		u.fixedHoles = append(u.fixedHoles, append(geometry.Polygon(nil), h...))
	}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

// NewFromSourceMesh derives the boundary contours from an authored source
// mesh (vertex positions plus index triples) before constructing the
// updater.
func NewFromSourceMesh(verts []geometry.Point3, indices []int32, settings navmesh.Settings, opts ...Option) (*Updater, error) {
	boundary, holes, err := navmesh.FromSourceMesh(verts, indices)
	if err != nil {
		return nil, err
	}
	return New(boundary, holes, settings, opts...)
}

// UpsertObstacle ingests an added or moved obstacle.
func (u *Updater) UpsertObstacle(o obstacles.Obstacle) {
	u.registry.Upsert(o)
	u.markChanged()
}

// AddObstacle ingests an obstacle without a host-supplied id and returns
// the minted one.
func (u *Updater) AddObstacle(o obstacles.Obstacle) obstacles.ID {
	id := u.registry.Add(o)
	u.markChanged()
	return id
}

// RemoveObstacle ingests an obstacle removal.
func (u *Updater) RemoveObstacle(id obstacles.ID) bool {
	if !u.registry.Remove(id) {
		return false
	}
	u.markChanged()
	return true
}

// UpdateSettings replaces the build settings; like any obstacle change it
// marks a rebuild as needed.
func (u *Updater) UpdateSettings(s navmesh.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	u.settings = s.Clone()
	u.markChanged()
	return nil
}

func (u *Updater) markChanged() {
	u.latestGen++
	u.pending = true
	u.lastErr = nil
	if u.state != StateBuilding {
		u.state = StatePending
	}
}

// Tick drives the state machine: it drains a finished build if one is
// waiting, then starts the pending build if no build is running. It never
// blocks on an in-flight build.
func (u *Updater) Tick() {
	select {
	case res := <-u.results:
		u.inflight = false
		u.state = StatePublishing
		u.finishBuild(res)
	default:
	}
	if u.pending && !u.inflight {
		u.startBuild()
	}
}

func (u *Updater) startBuild() {
	gen := u.latestGen
	in := builder.Input{
		Boundary:   append(geometry.Polygon(nil), u.boundary...),
		Obstacles:  u.registry.Snapshot(),
		Settings:   u.settings.Clone(),
		Generation: gen,
	}
	for _, h := range u.fixedHoles {
		in.FixedHoles = append(in.FixedHoles, append(geometry.Polygon(nil), h...))
	}
	u.pending = false
	u.inflight = true
	u.state = StateBuilding
	u.log.Debug("build started", zap.Uint64("generation", gen), zap.Int("obstacles", len(in.Obstacles)))

	run := func() {
		mesh, err := builder.Build(in, u.log)
		u.results <- buildResult{gen: gen, mesh: mesh, err: err}
	}
	if u.blocking {
		run()
	} else {
		go run()
	}
}

func (u *Updater) finishBuild(res buildResult) {
	switch {
	case res.gen < u.latestGen:
		// Obstacles changed while this build ran: the result no longer
		// matches the registry. Drop it and rebuild from the newer
		// snapshot; never publish an outdated mesh.
		u.log.Debug("discarding stale build",
			zap.Uint64("generation", res.gen), zap.Uint64("latest", u.latestGen))
		u.state = StatePending
	case res.err != nil:
		// The previous published mesh stays valid and in use. Retry only
		// on the next triggering change, so unfixable geometry does not
		// busy-loop.
		u.log.Warn("build failed", zap.Uint64("generation", res.gen), zap.Error(res.err))
		u.lastErr = res.err
		u.state = StateIdle
	default:
		u.store.Publish(res.mesh)
		u.log.Debug("navmesh published",
			zap.Uint64("generation", res.gen), zap.Int("polygons", len(res.mesh.Polys)))
		u.state = StateIdle
	}
}

// Current returns the latest published mesh, or nil before the first
// successful build. Safe from any goroutine.
func (u *Updater) Current() *navmesh.NavMesh {
	return u.store.Current()
}

// CurrentGeneration returns the published generation, 0 when nothing has
// been published yet.
func (u *Updater) CurrentGeneration() uint64 {
	if m := u.Current(); m != nil {
		return m.Generation
	}
	return 0
}

// State returns the state machine's current state.
func (u *Updater) State() State {
	return u.state
}

// Status is the consumer-facing readiness summary, coarser than State.
type Status int

const (
	// StatusNotReady: nothing published yet; queries report ErrMeshNotReady.
	StatusNotReady Status = iota
	// StatusReady: a mesh is published and matches the last build outcome.
	StatusReady
	// StatusFailed: the most recent build failed. Any previously published
	// mesh stays in use; the failure clears on the next triggering change.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusNotReady:
		return "not ready"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Status summarizes readiness for consumers that do not care about the
// state machine's phases.
func (u *Updater) Status() Status {
	switch {
	case u.lastErr != nil:
		return StatusFailed
	case u.Current() == nil:
		return StatusNotReady
	default:
		return StatusReady
	}
}

// LastError returns the outcome of the most recent failed build, cleared
// by the next triggering change.
func (u *Updater) LastError() error {
	return u.lastErr
}

// FindPath queries the latest published mesh. Before the first successful
// build completes it reports ErrMeshNotReady.
func (u *Updater) FindPath(from, to geometry.Point2) ([]geometry.Point2, error) {
	m := u.Current()
	if m == nil {
		return nil, navmesh.ErrMeshNotReady
	}
	return m.FindPath(from, to)
}

// Mesh returns the mesh published for a past generation, if not pruned.
func (u *Updater) Mesh(gen uint64) (*navmesh.NavMesh, bool) {
	return u.store.Get(gen)
}

// Prune drops all but the newest keep generations from the artifact store.
func (u *Updater) Prune(keep int) {
	u.store.Prune(keep)
}
