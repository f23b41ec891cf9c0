package bench

import (
	"testing"

	"github.com/df07/go-bvh/pkg/bvh"
	"github.com/df07/go-bvh/pkg/core"
	"github.com/df07/go-bvh/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sphereGrid(n int) []core.Primitive {
	var prims []core.Primitive
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				center := core.NewVec3(float64(x), float64(y), float64(z))
				prims = append(prims, geometry.NewSphere(center, 0.3))
			}
		}
	}
	return prims
}

func TestLinearScan(t *testing.T) {
	near := geometry.NewSphere(core.NewVec3(0, 0, -2), 0.5)
	far := geometry.NewSphere(core.NewVec3(0, 0, -5), 0.5)
	scan := NewLinearScan([]core.Primitive{far, near})

	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))
	hit, ok := scan.Intersect(&ray)
	require.True(t, ok)
	assert.Same(t, near, hit.Primitive)
	assert.InDelta(t, 1.5, hit.T, 1e-9)
	assert.True(t, scan.IntersectP(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))))

	assert.False(t, scan.IntersectP(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0))))
	assert.Equal(t, core.NewVec3(-0.5, -0.5, -5.5), scan.WorldBound().Min)
	assert.True(t, NewLinearScan(nil).WorldBound().IsEmpty())
}

func TestRandomRays(t *testing.T) {
	bounds := core.NewAABB(core.NewVec3(-1, -2, -3), core.NewVec3(1, 2, 3))
	rays := RandomRays(bounds, 100, 7)
	require.Len(t, rays, 100)

	again := RandomRays(bounds, 100, 7)
	assert.Equal(t, rays, again, "same seed should give the same rays")

	for i, ray := range rays {
		assert.InDelta(t, 1.0, ray.Direction.Length(), 1e-9, "ray %d", i)
		assert.True(t, bounds.Hit(ray, 0, ray.TMax), "ray %d should pass through the bounds", i)
	}

	assert.Len(t, RandomRays(core.EmptyAABB(), 5, 1), 5)
}

func TestRun_MatchesSerialTrace(t *testing.T) {
	prims := sphereGrid(4)
	accel := bvh.Build(prims, 4, bvh.SAH)
	rays := RandomRays(accel.WorldBound(), 1000, 3)

	serial := Run(accel, rays, Config{Workers: 1, BatchSize: 1000})
	parallel := Run(accel, rays, Config{Workers: 8, BatchSize: 37})

	assert.Equal(t, 1000, serial.Rays)
	assert.Equal(t, serial.Rays, parallel.Rays)
	assert.Equal(t, serial.Hits, parallel.Hits)
	assert.InDelta(t, serial.Checksum, parallel.Checksum, 1e-6)
	assert.Greater(t, serial.Hits, 0)
	assert.Equal(t, 8, parallel.Workers)

	anyHit := Run(accel, rays, Config{Workers: 4, AnyHit: true})
	assert.Equal(t, serial.Hits, anyHit.Hits)
	assert.Equal(t, 0.0, anyHit.Checksum)
}

func TestRun_NoRays(t *testing.T) {
	summary := Run(NewLinearScan(nil), nil, Config{Workers: 2})
	assert.Equal(t, 0, summary.Rays)
	assert.Equal(t, 0, summary.Hits)
}

func TestWorkerPool(t *testing.T) {
	scan := NewLinearScan(sphereGrid(2))
	rays := RandomRays(scan.WorldBound(), 64, 5)

	pool := NewWorkerPool(scan, 4, 0)
	assert.Greater(t, pool.GetNumWorkers(), 0)
	pool.Start()
	for i := 0; i < 4; i++ {
		pool.SubmitTask(RayTask{Rays: rays[i*16 : (i+1)*16], TaskID: i})
	}
	pool.Stop()

	seen := map[int]bool{}
	total := 0
	for {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		seen[result.TaskID] = true
		total += result.Rays
	}
	assert.Len(t, seen, 4)
	assert.Equal(t, 64, total)
}

func TestCompare(t *testing.T) {
	prims := sphereGrid(3)
	scan := NewLinearScan(prims)
	rays := RandomRays(scan.WorldBound(), 500, 11)

	for _, method := range []bvh.SplitMethod{bvh.SAH, bvh.HLBVH, bvh.Middle, bvh.EqualCounts} {
		t.Run(method.String(), func(t *testing.T) {
			accel := bvh.Build(prims, 2, method)
			assert.Empty(t, Compare(scan, accel, rays))
		})
	}

	// Dropping a primitive must be detected
	partial := NewLinearScan(prims[1:])
	mismatches := Compare(scan, partial, RandomRays(scan.WorldBound(), 2000, 13))
	assert.NotEmpty(t, mismatches)
	assert.Contains(t, mismatches[0].String(), "ray ")
}

func TestSummary_RaysPerSecond(t *testing.T) {
	assert.Equal(t, 0.0, Summary{Rays: 10}.RaysPerSecond())
	assert.Equal(t, 20.0, Summary{Rays: 10, Duration: 500_000_000}.RaysPerSecond())
}
