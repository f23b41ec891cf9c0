package core

import "math"

// machineEpsilon is half the float64 ULP at 1.0
const machineEpsilon = 0x1p-53

// gamma bounds the relative rounding error of n floating point operations
func gamma(n int) float64 {
	return float64(n) * machineEpsilon / (1 - float64(n)*machineEpsilon)
}

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min Vec3 // Minimum corner
	Max Vec3 // Maximum corner
}

// NewAABB creates a new AABB from min and max points
func NewAABB(min, max Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// EmptyAABB returns a box that contains nothing. It is the identity for Union.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// NewAABBFromPoints creates an AABB that bounds all given points
func NewAABBFromPoints(points ...Vec3) AABB {
	box := EmptyAABB()
	for _, point := range points {
		box = box.UnionPoint(point)
	}
	return box
}

// IntersectInterval clips the parametric range [tMin, tMax] of the ray against the box
// using the slab method. It reports the clipped range and whether it is non-empty.
func (aabb AABB) IntersectInterval(ray Ray, tMin, tMax float64) (float64, float64, bool) {
	for axis := 0; axis < 3; axis++ {
		min := aabb.Min.Axis(axis)
		max := aabb.Max.Axis(axis)
		origin := ray.Origin.Axis(axis)
		direction := ray.Direction.Axis(axis)

		// Handle parallel rays (direction near zero)
		if math.Abs(direction) < 1e-12 {
			if origin < min || origin > max {
				return 0, 0, false // Ray origin outside slab
			}
			continue
		}

		invDirection := 1.0 / direction
		t1 := (min - origin) * invDirection
		t2 := (max - origin) * invDirection
		if t1 > t2 {
			t1, t2 = t2, t1
		}

		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, 0, false
		}
	}

	return tMin, tMax, true
}

// Hit tests if a ray intersects with this AABB using the slab method
func (aabb AABB) Hit(ray Ray, tMin, tMax float64) bool {
	_, _, ok := aabb.IntersectInterval(ray, tMin, tMax)
	return ok
}

// IntersectP tests the ray against the box within (0, ray.TMax) using a precomputed
// reciprocal direction and per-axis sign flags (1 when the direction is negative).
// The far slab distances are widened by a conservative rounding bound so that
// boxes touched exactly at their faces are not missed. A ray parallel to a slab
// whose origin lies on or between its planes is never rejected by that slab.
func (aabb AABB) IntersectP(ray Ray, invDir Vec3, dirIsNeg [3]int) bool {
	bounds := [2]Vec3{aabb.Min, aabb.Max}
	widen := 1 + 2*gamma(3)

	tMin, tMax := slabDistances(bounds[dirIsNeg[0]].X, bounds[1-dirIsNeg[0]].X, ray.Origin.X, invDir.X, widen)
	tyMin, tyMax := slabDistances(bounds[dirIsNeg[1]].Y, bounds[1-dirIsNeg[1]].Y, ray.Origin.Y, invDir.Y, widen)

	if tMin > tyMax || tyMin > tMax {
		return false
	}
	if tyMin > tMin {
		tMin = tyMin
	}
	if tyMax < tMax {
		tMax = tyMax
	}

	tzMin, tzMax := slabDistances(bounds[dirIsNeg[2]].Z, bounds[1-dirIsNeg[2]].Z, ray.Origin.Z, invDir.Z, widen)

	if tMin > tzMax || tzMin > tMax {
		return false
	}
	if tzMin > tMin {
		tMin = tzMin
	}
	if tzMax < tMax {
		tMax = tzMax
	}

	return tMin < ray.TMax && tMax > 0
}

// slabDistances returns the near and far ray parameters for one slab. An origin on
// a plane of a slab the ray runs parallel to gives 0*Inf; that distance is treated
// as unbounded so the slab accepts the whole line.
func slabDistances(near, far, origin, invDir, widen float64) (float64, float64) {
	tNear := (near - origin) * invDir
	tFar := (far - origin) * invDir * widen
	if math.IsNaN(tNear) {
		tNear = math.Inf(-1)
	}
	if math.IsNaN(tFar) {
		tFar = math.Inf(1)
	}
	return tNear, tFar
}

// Union returns an AABB that bounds both this AABB and another
func (aabb AABB) Union(other AABB) AABB {
	return AABB{Min: aabb.Min.Min(other.Min), Max: aabb.Max.Max(other.Max)}
}

// UnionPoint returns an AABB that bounds this AABB and the point
func (aabb AABB) UnionPoint(p Vec3) AABB {
	return AABB{Min: aabb.Min.Min(p), Max: aabb.Max.Max(p)}
}

// Center returns the center point of the AABB
func (aabb AABB) Center() Vec3 {
	return aabb.Min.Add(aabb.Max).Multiply(0.5)
}

// Diagonal returns the vector from the minimum to the maximum corner
func (aabb AABB) Diagonal() Vec3 {
	return aabb.Max.Subtract(aabb.Min)
}

// SurfaceArea returns the surface area of the AABB, 0 for an empty box
func (aabb AABB) SurfaceArea() float64 {
	if aabb.IsEmpty() {
		return 0
	}
	d := aabb.Diagonal()
	return 2.0 * (d.X*d.Y + d.Y*d.Z + d.Z*d.X)
}

// MaxExtent returns the axis (0=X, 1=Y, 2=Z) with the longest extent
func (aabb AABB) MaxExtent() int {
	d := aabb.Diagonal()
	if d.X > d.Y && d.X > d.Z {
		return 0
	}
	if d.Y > d.Z {
		return 1
	}
	return 2
}

// Offset returns the position of p relative to the box corners: Min maps to (0,0,0)
// and Max to (1,1,1). Axes with no extent are left unnormalized.
func (aabb AABB) Offset(p Vec3) Vec3 {
	o := p.Subtract(aabb.Min)
	if aabb.Max.X > aabb.Min.X {
		o.X /= aabb.Max.X - aabb.Min.X
	}
	if aabb.Max.Y > aabb.Min.Y {
		o.Y /= aabb.Max.Y - aabb.Min.Y
	}
	if aabb.Max.Z > aabb.Min.Z {
		o.Z /= aabb.Max.Z - aabb.Min.Z
	}
	return o
}

// IsEmpty reports whether the box contains no points
func (aabb AABB) IsEmpty() bool {
	return aabb.Min.X > aabb.Max.X ||
		aabb.Min.Y > aabb.Max.Y ||
		aabb.Min.Z > aabb.Max.Z
}

// IsValid returns true if this is a valid AABB (min <= max for all axes)
func (aabb AABB) IsValid() bool {
	return !aabb.IsEmpty()
}

// Expand returns an AABB expanded by the given amount in all directions
func (aabb AABB) Expand(amount float64) AABB {
	expansion := NewVec3(amount, amount, amount)
	return AABB{
		Min: aabb.Min.Subtract(expansion),
		Max: aabb.Max.Add(expansion),
	}
}
