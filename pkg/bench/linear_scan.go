package bench

import "github.com/df07/go-bvh/pkg/core"

// LinearScan tests every primitive for every ray. It is the reference the BVH
// is checked against.
type LinearScan struct {
	primitives []core.Primitive
	bounds     core.AABB
}

// NewLinearScan creates a brute-force intersector over primitives
func NewLinearScan(primitives []core.Primitive) *LinearScan {
	bounds := core.EmptyAABB()
	for _, p := range primitives {
		bounds = bounds.Union(p.WorldBound())
	}
	return &LinearScan{primitives: primitives, bounds: bounds}
}

// Intersect returns the closest hit within (0, ray.TMax) and shrinks ray.TMax to it
func (ls *LinearScan) Intersect(ray *core.Ray) (*core.SurfaceInteraction, bool) {
	var closest *core.SurfaceInteraction
	for _, p := range ls.primitives {
		if hit, ok := p.Intersect(ray); ok {
			closest = hit
		}
	}
	return closest, closest != nil
}

// IntersectP reports whether any primitive is hit within (0, ray.TMax)
func (ls *LinearScan) IntersectP(ray core.Ray) bool {
	for _, p := range ls.primitives {
		if p.IntersectP(ray) {
			return true
		}
	}
	return false
}

// WorldBound returns the union of all primitive bounds
func (ls *LinearScan) WorldBound() core.AABB {
	return ls.bounds
}
