package geometry

import (
	"github.com/df07/go-bvh/pkg/core"
)

// Triangle represents a single triangle defined by three vertices
type Triangle struct {
	V0, V1, V2 core.Vec3 // The three vertices
	normal     core.Vec3 // Cached normal vector
	bbox       core.AABB // Cached bounding box
}

// NewTriangle creates a new triangle from three vertices
func NewTriangle(v0, v1, v2 core.Vec3) *Triangle {
	t := &Triangle{V0: v0, V1: v1, V2: v2}

	// Normal is the cross product of the two edges
	t.normal = v1.Subtract(v0).Cross(v2.Subtract(v0)).Normalize()
	t.bbox = core.NewAABBFromPoints(v0, v1, v2)
	return t
}

// Intersect tests if a ray intersects with the triangle using the Möller-Trumbore algorithm
func (t *Triangle) Intersect(ray *core.Ray) (*core.SurfaceInteraction, bool) {
	tHit, ok := t.hitT(*ray)
	if !ok {
		return nil, false
	}

	hit := &core.SurfaceInteraction{
		T:         tHit,
		Point:     ray.At(tHit),
		Primitive: t,
	}
	hit.SetFaceNormal(*ray, t.normal)
	ray.TMax = tHit
	return hit, true
}

// IntersectP reports whether the ray hits the triangle within (0, ray.TMax)
func (t *Triangle) IntersectP(ray core.Ray) bool {
	_, ok := t.hitT(ray)
	return ok
}

// WorldBound returns the axis-aligned bounding box for this triangle
func (t *Triangle) WorldBound() core.AABB {
	return t.bbox
}

// Normal returns the triangle's normal vector
func (t *Triangle) Normal() core.Vec3 {
	return t.normal
}

func (t *Triangle) hitT(ray core.Ray) (float64, bool) {
	const epsilon = 1e-12

	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)

	// If determinant is near zero, ray lies in plane of triangle
	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)
	if a > -epsilon && a < epsilon {
		return 0, false
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(t.V0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return 0, false
	}

	tHit := f * edge2.Dot(q)
	if tHit <= 0 || tHit >= ray.TMax {
		return 0, false
	}
	return tHit, true
}
