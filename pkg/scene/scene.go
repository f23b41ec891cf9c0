// Package scene assembles primitives into an accelerated aggregate, either from a
// YAML description or from one of the built-in generators.
package scene

import (
	"github.com/df07/go-bvh/pkg/bvh"
	"github.com/df07/go-bvh/pkg/core"
	"github.com/df07/go-bvh/pkg/log"
)

var logger = log.New("scene")

// Scene contains the primitives and the acceleration structure built over them
type Scene struct {
	Name       string
	Primitives []core.Primitive
	Options    bvh.Options
	Aggregate  *bvh.BVH // Acceleration structure for ray-object intersection
}

// New builds the aggregate over primitives
func New(name string, primitives []core.Primitive, opts bvh.Options) *Scene {
	s := &Scene{
		Name:       name,
		Primitives: primitives,
		Options:    opts,
	}
	s.Rebuild(opts)
	return s
}

// Rebuild replaces the aggregate with one built using opts. It must not run
// concurrently with queries.
func (s *Scene) Rebuild(opts bvh.Options) {
	s.Aggregate = bvh.New(s.Primitives, opts)
	s.Options = s.Aggregate.Options()
	logger.Debugf("scene %q: %d primitives, split %s", s.Name, len(s.Primitives), s.Options.SplitMethod)
}

// Intersect finds the closest primitive hit along the ray
func (s *Scene) Intersect(ray *core.Ray) (*core.SurfaceInteraction, bool) {
	return s.Aggregate.Intersect(ray)
}

// IntersectP reports whether anything blocks the ray
func (s *Scene) IntersectP(ray core.Ray) bool {
	return s.Aggregate.IntersectP(ray)
}

// WorldBound returns the bounds of every primitive in the scene
func (s *Scene) WorldBound() core.AABB {
	return s.Aggregate.WorldBound()
}
