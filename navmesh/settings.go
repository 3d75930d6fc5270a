package navmesh

import (
	"errors"
	"fmt"
)

// LayerSettings declares one height layer of a layered navmesh.
type LayerSettings struct {
	// Height of the layer's walkable plane.
	Height float64
	// MergeHeightTolerance is the maximum height difference under which
	// coinciding boundary edges of two layers are stitched with a vertical
	// link.
	MergeHeightTolerance float64
}

// Settings configures one navmesh build. A Settings value is copied into
// every build request and is immutable for the duration of that build.
type Settings struct {
	// AgentRadius inflates obstacles (and deflates the outer boundary) so
	// paths keep the agent's footprint clear. Must be >= 0.
	AgentRadius float64
	// SimplifyTolerance is the maximum deviation allowed when simplifying
	// boundary and obstacle polylines. 0 disables simplification.
	SimplifyTolerance float64
	// Merge enables merging triangles into larger convex polygons.
	Merge bool
	// Layers declares the height layers. Empty means a single flat layer
	// at height 0.
	Layers []LayerSettings
	// BuildEpsilon is the geometric tolerance used throughout a build.
	// Must be > 0.
	BuildEpsilon float64
}

// DefaultSettings returns settings for a flat single-layer mesh with
// merging enabled.
func DefaultSettings() Settings {
	return Settings{
		Merge:        true,
		BuildEpsilon: 1e-6,
	}
}

var errSettings = errors.New("invalid settings")

func (s Settings) Validate() error {
	if s.AgentRadius < 0 {
		return fmt.Errorf("%w: agent radius %v < 0", errSettings, s.AgentRadius)
	}
	if s.SimplifyTolerance < 0 {
		return fmt.Errorf("%w: simplification tolerance %v < 0", errSettings, s.SimplifyTolerance)
	}
	if s.BuildEpsilon <= 0 {
		return fmt.Errorf("%w: build epsilon %v <= 0", errSettings, s.BuildEpsilon)
	}
	for i, l := range s.Layers {
		if l.MergeHeightTolerance < 0 {
			return fmt.Errorf("%w: layer %d merge height tolerance %v < 0", errSettings, i, l.MergeHeightTolerance)
		}
	}
	return nil
}

// Clone deep-copies the settings so a build snapshot cannot observe later
// mutation of the layer set.
func (s Settings) Clone() Settings {
	c := s
	c.Layers = append([]LayerSettings(nil), s.Layers...)
	return c
}

// EffectiveLayers returns the declared layers, or the implicit single flat
// layer when none are declared.
func (s Settings) EffectiveLayers() []LayerSettings {
	if len(s.Layers) == 0 {
		return []LayerSettings{{}}
	}
	return s.Layers
}
