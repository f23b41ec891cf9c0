package bench

import (
	"math"
	"math/rand"

	"github.com/df07/go-bvh/pkg/core"
)

// RandomRays generates n rays that start outside bounds and pass through a random
// point inside it. The same seed always yields the same rays. An empty box is
// treated as the unit cube at the origin.
func RandomRays(bounds core.AABB, n int, seed int64) []core.Ray {
	if bounds.IsEmpty() {
		bounds = core.NewAABB(core.NewVec3(-0.5, -0.5, -0.5), core.NewVec3(0.5, 0.5, 0.5))
	}

	random := rand.New(rand.NewSource(seed))
	center := bounds.Center()
	radius := math.Max(bounds.Diagonal().Length(), 1e-3)

	rays := make([]core.Ray, n)
	for i := range rays {
		origin := center.Add(randomUnitVector(random).Multiply(radius))
		target := core.NewVec3(
			lerp(bounds.Min.X, bounds.Max.X, random.Float64()),
			lerp(bounds.Min.Y, bounds.Max.Y, random.Float64()),
			lerp(bounds.Min.Z, bounds.Max.Z, random.Float64()),
		)
		direction := target.Subtract(origin)
		if direction.LengthSquared() == 0 {
			direction = core.NewVec3(0, 0, -1)
		}
		rays[i] = core.NewRay(origin, direction.Normalize())
	}
	return rays
}

// randomUnitVector samples a direction uniformly on the unit sphere
func randomUnitVector(random *rand.Rand) core.Vec3 {
	z := 1 - 2*random.Float64()
	r := math.Sqrt(math.Max(0, 1-z*z))
	phi := 2 * math.Pi * random.Float64()
	return core.NewVec3(r*math.Cos(phi), r*math.Sin(phi), z)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
