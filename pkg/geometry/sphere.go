package geometry

import (
	"math"

	"github.com/df07/go-bvh/pkg/core"
)

// Sphere represents a sphere shape
type Sphere struct {
	Center core.Vec3
	Radius float64
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float64) *Sphere {
	return &Sphere{
		Center: center,
		Radius: radius,
	}
}

// Intersect tests if a ray intersects with the sphere
func (s *Sphere) Intersect(ray *core.Ray) (*core.SurfaceInteraction, bool) {
	root, ok := s.hitT(*ray)
	if !ok {
		return nil, false
	}

	hit := &core.SurfaceInteraction{
		T:         root,
		Point:     ray.At(root),
		Primitive: s,
	}

	// Calculate outward normal (from center to hit point)
	outwardNormal := hit.Point.Subtract(s.Center).Multiply(1.0 / s.Radius)
	hit.SetFaceNormal(*ray, outwardNormal)
	ray.TMax = root

	return hit, true
}

// IntersectP reports whether the ray hits the sphere within (0, ray.TMax)
func (s *Sphere) IntersectP(ray core.Ray) bool {
	_, ok := s.hitT(ray)
	return ok
}

// WorldBound returns the axis-aligned bounding box for this sphere
func (s *Sphere) WorldBound() core.AABB {
	radius := core.NewVec3(s.Radius, s.Radius, s.Radius)
	return core.NewAABB(
		s.Center.Subtract(radius),
		s.Center.Add(radius),
	)
}

func (s *Sphere) hitT(ray core.Ray) (float64, bool) {
	// Vector from ray origin to sphere center
	oc := ray.Origin.Subtract(s.Center)

	// Quadratic equation coefficients: at² + bt + c = 0
	a := ray.Direction.Dot(ray.Direction)
	halfB := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return 0, false
	}

	// Try the closer intersection point first
	sqrtD := math.Sqrt(discriminant)
	root := (-halfB - sqrtD) / a
	if root <= 0 || root >= ray.TMax {
		root = (-halfB + sqrtD) / a
		if root <= 0 || root >= ray.TMax {
			return 0, false
		}
	}
	return root, true
}
