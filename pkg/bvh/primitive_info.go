package bvh

import "github.com/df07/go-bvh/pkg/core"

// primitiveInfo caches what the builders need to know about one primitive
type primitiveInfo struct {
	index    int // Position in the caller's primitive slice
	bounds   core.AABB
	centroid core.Vec3
}

func newPrimitiveInfo(index int, bounds core.AABB) primitiveInfo {
	return primitiveInfo{
		index:    index,
		bounds:   bounds,
		centroid: bounds.Center(),
	}
}

// collectPrimitiveInfo computes bounds and centroids for every primitive
func collectPrimitiveInfo(primitives []core.Primitive) []primitiveInfo {
	infos := make([]primitiveInfo, len(primitives))
	for i, p := range primitives {
		infos[i] = newPrimitiveInfo(i, p.WorldBound())
	}
	return infos
}

// rangeBounds returns the union of bounds and the bounds of centroids for infos
func rangeBounds(infos []primitiveInfo) (bounds, centroidBounds core.AABB) {
	bounds = core.EmptyAABB()
	centroidBounds = core.EmptyAABB()
	for i := range infos {
		bounds = bounds.Union(infos[i].bounds)
		centroidBounds = centroidBounds.UnionPoint(infos[i].centroid)
	}
	return bounds, centroidBounds
}
