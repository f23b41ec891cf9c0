package core

// SurfaceInteraction describes a ray hit. Accelerators only rely on T.
type SurfaceInteraction struct {
	T         float64   // Ray parameter of the hit
	Point     Vec3      // World-space hit point
	Normal    Vec3      // Surface normal facing against the ray
	FrontFace bool      // Whether the ray hit the outward-facing side
	Primitive Primitive // The primitive that was hit
}

// SetFaceNormal orients the normal against the incoming ray
func (si *SurfaceInteraction) SetFaceNormal(ray Ray, outwardNormal Vec3) {
	si.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if si.FrontFace {
		si.Normal = outwardNormal
	} else {
		si.Normal = outwardNormal.Negate()
	}
}

// Primitive is a bounded object that can be intersected by rays
type Primitive interface {
	// WorldBound returns the world-space bounding box of the primitive.
	WorldBound() AABB

	// Intersect finds the closest hit with t in (0, ray.TMax). On a hit it
	// shrinks ray.TMax to the hit parameter.
	Intersect(ray *Ray) (*SurfaceInteraction, bool)

	// IntersectP reports whether any hit with t in (0, ray.TMax) exists.
	IntersectP(ray Ray) bool
}

// Intersector answers closest-hit and any-hit queries over a set of primitives
type Intersector interface {
	Intersect(ray *Ray) (*SurfaceInteraction, bool)
	IntersectP(ray Ray) bool
	WorldBound() AABB
}
