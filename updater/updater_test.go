package updater

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dynavmesh/builder"
	"dynavmesh/geometry"
	"dynavmesh/navmesh"
	"dynavmesh/obstacles"
)

func newTestUpdater(t *testing.T) *Updater {
	t.Helper()
	boundary := geometry.Polygon{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	u, err := New(boundary, nil, navmesh.DefaultSettings(), WithBlockingBuilds())
	require.NoError(t, err)
	return u
}

// settle runs ticks until the state machine goes idle: one tick starts the
// blocking build, the next publishes or discards it.
func settle(u *Updater) {
	for i := 0; i < 8 && u.State() != StateIdle; i++ {
		u.Tick()
	}
}

func centerBox(id obstacles.ID, at geometry.Point2) obstacles.Obstacle {
	p := obstacles.IdentityPlacement()
	p.Position = at
	return obstacles.Obstacle{ID: id, Shape: obstacles.Box(geometry.Point2{1, 1}), Placement: p}
}

func TestNotReadyBeforeFirstBuild(t *testing.T) {
	u := newTestUpdater(t)
	assert.Equal(t, StatePending, u.State())
	assert.Equal(t, StatusNotReady, u.Status())
	assert.Nil(t, u.Current())
	assert.Equal(t, uint64(0), u.CurrentGeneration())

	_, err := u.FindPath(geometry.Point2{1, 1}, geometry.Point2{9, 9})
	assert.ErrorIs(t, err, navmesh.ErrMeshNotReady)
}

func TestFirstBuildPublishes(t *testing.T) {
	u := newTestUpdater(t)

	u.Tick()
	assert.Equal(t, StateBuilding, u.State())
	assert.Nil(t, u.Current())
	u.Tick()
	assert.Equal(t, StateIdle, u.State())

	m := u.Current()
	require.NotNil(t, m)
	assert.Equal(t, uint64(1), m.Generation)
	assert.False(t, m.Empty())
	assert.Equal(t, StatusReady, u.Status())

	// An empty square is one convex region: corner to corner is a straight
	// two-point path.
	path, err := u.FindPath(geometry.Point2{1, 1}, geometry.Point2{9, 9})
	require.NoError(t, err)
	assert.Len(t, path, 2)
	assert.InDelta(t, 8*math.Sqrt2, navmesh.PathLength(path), 1e-9)
}

func TestObstacleForcesDetour(t *testing.T) {
	u := newTestUpdater(t)
	settle(u)

	u.UpsertObstacle(centerBox("box", geometry.Point2{5, 5}))
	assert.Equal(t, StatePending, u.State())
	settle(u)

	m := u.Current()
	require.NotNil(t, m)
	assert.Equal(t, uint64(2), m.Generation)
	assert.Equal(t, int32(-1), m.LocatePolygon(geometry.Point2{5, 5}))

	path, err := u.FindPath(geometry.Point2{1, 5}, geometry.Point2{9, 5})
	require.NoError(t, err)
	assert.Greater(t, navmesh.PathLength(path), 8.0)
}

func TestRemoveObstacleRestores(t *testing.T) {
	u := newTestUpdater(t)
	id := u.AddObstacle(centerBox("", geometry.Point2{5, 5}))
	require.NotEmpty(t, id)
	settle(u)
	require.Equal(t, int32(-1), u.Current().LocatePolygon(geometry.Point2{5, 5}))

	require.True(t, u.RemoveObstacle(id))
	assert.False(t, u.RemoveObstacle("no-such-id"))
	settle(u)
	assert.GreaterOrEqual(t, u.Current().LocatePolygon(geometry.Point2{5, 5}), int32(0))
}

func TestRapidChangesCoalesce(t *testing.T) {
	u := newTestUpdater(t)
	settle(u)
	require.Equal(t, uint64(1), u.CurrentGeneration())

	u.UpsertObstacle(centerBox("box", geometry.Point2{3, 3}))
	u.Tick() // build for generation 2 is now in flight
	assert.Equal(t, StateBuilding, u.State())

	// Two more moves land before the in-flight build is drained.
	u.UpsertObstacle(centerBox("box", geometry.Point2{6, 6}))
	u.UpsertObstacle(centerBox("box", geometry.Point2{7, 5}))

	// This tick discards the stale generation-2 result and starts the one
	// coalesced rebuild for the latest state.
	u.Tick()
	assert.Equal(t, StateBuilding, u.State())
	assert.Equal(t, uint64(1), u.CurrentGeneration(), "stale build must not publish")

	u.Tick()
	assert.Equal(t, StateIdle, u.State())
	assert.Equal(t, uint64(4), u.CurrentGeneration())

	// The intermediate generations were never published.
	_, ok := u.Mesh(2)
	assert.False(t, ok)
	_, ok = u.Mesh(3)
	assert.False(t, ok)

	// The published mesh reflects the final position only.
	m := u.Current()
	assert.Equal(t, int32(-1), m.LocatePolygon(geometry.Point2{7, 5}))
	assert.GreaterOrEqual(t, m.LocatePolygon(geometry.Point2{3, 3}), int32(0))
	assert.GreaterOrEqual(t, m.LocatePolygon(geometry.Point2{6, 6}), int32(0))
}

func TestPublishedGenerationsIncrease(t *testing.T) {
	u := newTestUpdater(t)
	var gens []uint64
	record := func() {
		if g := u.CurrentGeneration(); len(gens) == 0 || g != gens[len(gens)-1] {
			gens = append(gens, g)
		}
	}

	settle(u)
	record()
	for i := 0; i < 3; i++ {
		u.UpsertObstacle(centerBox("box", geometry.Point2{3 + float64(i), 5}))
		settle(u)
		record()
	}
	require.NotEmpty(t, gens)
	for i := 1; i < len(gens); i++ {
		assert.Greater(t, gens[i], gens[i-1])
	}
}

func TestFailedBuildKeepsPreviousMesh(t *testing.T) {
	u := newTestUpdater(t)
	settle(u)
	require.Equal(t, uint64(1), u.CurrentGeneration())

	bad := obstacles.Obstacle{
		ID:        "bowtie",
		Shape:     obstacles.Outline(geometry.Polygon{{0, 0}, {4, 4}, {4, 0}, {0, 2}}),
		Placement: obstacles.IdentityPlacement(),
	}
	u.UpsertObstacle(bad)
	settle(u)

	assert.Equal(t, StateIdle, u.State())
	assert.Equal(t, StatusFailed, u.Status())
	assert.ErrorIs(t, u.LastError(), builder.ErrSelfIntersectingConstraint)
	// The previous mesh stays published and queryable.
	assert.Equal(t, uint64(1), u.CurrentGeneration())
	_, err := u.FindPath(geometry.Point2{1, 1}, geometry.Point2{9, 9})
	assert.NoError(t, err)

	// No retry without a new change.
	for i := 0; i < 3; i++ {
		u.Tick()
	}
	assert.Equal(t, StateIdle, u.State())
	assert.Error(t, u.LastError())

	// A correcting change clears the error and rebuilds.
	u.UpsertObstacle(centerBox("bowtie", geometry.Point2{5, 5}))
	assert.NoError(t, u.LastError())
	settle(u)
	assert.NoError(t, u.LastError())
	assert.Equal(t, StatusReady, u.Status())
	assert.Greater(t, u.CurrentGeneration(), uint64(1))
}

func TestObstacleConsumingBoundaryPublishesEmpty(t *testing.T) {
	u := newTestUpdater(t)
	lid := obstacles.Obstacle{
		ID:        "lid",
		Shape:     obstacles.Box(geometry.Point2{20, 20}),
		Placement: obstacles.IdentityPlacement(),
	}
	u.UpsertObstacle(lid)
	settle(u)

	m := u.Current()
	require.NotNil(t, m)
	assert.True(t, m.Empty())
	_, err := u.FindPath(geometry.Point2{5, 5}, geometry.Point2{6, 6})
	assert.ErrorIs(t, err, navmesh.ErrNoPath)
}

func TestUpdateSettingsTriggersRebuild(t *testing.T) {
	u := newTestUpdater(t)
	settle(u)

	s := navmesh.DefaultSettings()
	s.AgentRadius = 1
	require.NoError(t, u.UpdateSettings(s))
	assert.Equal(t, StatePending, u.State())
	settle(u)

	// The deflated boundary no longer covers the rim.
	assert.Equal(t, int32(-1), u.Current().LocatePolygon(geometry.Point2{0.5, 0.5}))

	bad := navmesh.DefaultSettings()
	bad.AgentRadius = -1
	assert.Error(t, u.UpdateSettings(bad))
}

func TestNewFromSourceMesh(t *testing.T) {
	verts := []geometry.Point3{
		{0, 0, 0}, {10, 0, 0}, {10, 0, 10}, {0, 0, 10},
	}
	indices := []int32{0, 1, 2, 0, 2, 3}
	u, err := NewFromSourceMesh(verts, indices, navmesh.DefaultSettings(), WithBlockingBuilds())
	require.NoError(t, err)
	settle(u)

	path, err := u.FindPath(geometry.Point2{1, 1}, geometry.Point2{9, 9})
	require.NoError(t, err)
	assert.Len(t, path, 2)

	_, _, err = navmesh.FromSourceMesh(nil, nil)
	require.Error(t, err)
	_, err = NewFromSourceMesh(nil, nil, navmesh.DefaultSettings())
	assert.Error(t, err)
}

func TestPrune(t *testing.T) {
	u := newTestUpdater(t)
	settle(u)
	for i := 0; i < 3; i++ {
		u.UpsertObstacle(centerBox("box", geometry.Point2{3 + float64(i), 5}))
		settle(u)
	}
	latest := u.CurrentGeneration()

	u.Prune(1)
	m, ok := u.Mesh(latest)
	require.True(t, ok)
	assert.Equal(t, latest, m.Generation)
	_, ok = u.Mesh(1)
	assert.False(t, ok)
	// Current stays valid after pruning.
	assert.NotNil(t, u.Current())
}
