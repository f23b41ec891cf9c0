package geometry

import (
	"math"

	"github.com/df07/go-bvh/pkg/core"
)

// Box represents a solid axis-aligned box
type Box struct {
	Min, Max core.Vec3
}

// NewBox creates a box from its minimum and maximum corners
func NewBox(min, max core.Vec3) *Box {
	return &Box{Min: min, Max: max}
}

// NewCenteredBox creates a box around center. Size holds the full extent along each axis.
func NewCenteredBox(center, size core.Vec3) *Box {
	half := size.Multiply(0.5)
	return NewBox(center.Subtract(half), center.Add(half))
}

// Intersect reports the first boundary crossing with t in (0, ray.TMax). A ray
// starting inside the box hits the face it exits through.
func (b *Box) Intersect(ray *core.Ray) (*core.SurfaceInteraction, bool) {
	t, ok := b.hitT(*ray)
	if !ok {
		return nil, false
	}

	point := ray.At(t)
	hit := &core.SurfaceInteraction{T: t, Point: point, Primitive: b}
	hit.SetFaceNormal(*ray, b.outwardNormal(point))
	ray.TMax = t
	return hit, true
}

// IntersectP reports whether the ray crosses the box boundary within (0, ray.TMax)
func (b *Box) IntersectP(ray core.Ray) bool {
	_, ok := b.hitT(ray)
	return ok
}

// WorldBound returns the box itself
func (b *Box) WorldBound() core.AABB {
	return core.NewAABB(b.Min, b.Max)
}

func (b *Box) hitT(ray core.Ray) (float64, bool) {
	t0, t1, ok := core.NewAABB(b.Min, b.Max).IntersectInterval(ray, 0, ray.TMax)
	if !ok {
		return 0, false
	}
	t := t0
	if t <= 0 {
		t = t1
	}
	if t <= 0 || t >= ray.TMax {
		return 0, false
	}
	return t, true
}

// outwardNormal picks the face whose plane is closest to point
func (b *Box) outwardNormal(point core.Vec3) core.Vec3 {
	best := math.Inf(1)
	var normal core.Vec3
	faces := [6]struct {
		dist   float64
		normal core.Vec3
	}{
		{math.Abs(point.X - b.Min.X), core.NewVec3(-1, 0, 0)},
		{math.Abs(point.X - b.Max.X), core.NewVec3(1, 0, 0)},
		{math.Abs(point.Y - b.Min.Y), core.NewVec3(0, -1, 0)},
		{math.Abs(point.Y - b.Max.Y), core.NewVec3(0, 1, 0)},
		{math.Abs(point.Z - b.Min.Z), core.NewVec3(0, 0, -1)},
		{math.Abs(point.Z - b.Max.Z), core.NewVec3(0, 0, 1)},
	}
	for _, f := range faces {
		if f.dist < best {
			best = f.dist
			normal = f.normal
		}
	}
	return normal
}
