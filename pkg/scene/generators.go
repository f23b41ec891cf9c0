package scene

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/df07/go-bvh/pkg/core"
	"github.com/df07/go-bvh/pkg/geometry"
)

// Generator creates count primitives; the meaning of count depends on the generator.
// Generators are deterministic for a given seed.
type Generator func(count int, seed int64) []core.Primitive

var builtins = map[string]Generator{
	"cubes":      NewCubes,
	"spheregrid": NewSphereGrid,
	"triangles":  NewTriangleSoup,
}

// BuiltinNames returns the names of the built-in generators in sorted order
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generate runs the named built-in generator
func Generate(name string, count int, seed int64) ([]core.Primitive, error) {
	gen, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown generator %q", name)
	}
	return gen(count, seed), nil
}

// NewCubes creates count unit cubes centered on the X axis, 5 units apart. count <= 0
// gives the three cubes at x = 0, 5 and 10.
func NewCubes(count int, _ int64) []core.Primitive {
	if count <= 0 {
		count = 3
	}
	prims := make([]core.Primitive, count)
	for i := range prims {
		center := core.NewVec3(float64(i)*5, 0, 0)
		prims[i] = geometry.NewCenteredBox(center, core.NewVec3(1, 1, 1))
	}
	return prims
}

// NewSphereGrid creates a count x count x count grid of spheres with unit spacing.
// count <= 0 uses 10.
func NewSphereGrid(count int, _ int64) []core.Primitive {
	if count <= 0 {
		count = 10
	}

	// Spheres take 35% of the spacing so neighbours never touch
	const spacing = 1.0
	const sphereRadius = spacing * 0.35

	prims := make([]core.Primitive, 0, count*count*count)
	for i := 0; i < count; i++ {
		for j := 0; j < count; j++ {
			for k := 0; k < count; k++ {
				position := core.NewVec3(float64(i)*spacing, float64(j)*spacing, float64(k)*spacing)
				prims = append(prims, geometry.NewSphere(position, sphereRadius))
			}
		}
	}
	return prims
}

// NewTriangleSoup creates count random triangles with edges up to one unit long
// inside the cube [-10, 10]^3. count <= 0 uses 10000.
func NewTriangleSoup(count int, seed int64) []core.Primitive {
	if count <= 0 {
		count = 10000
	}

	random := rand.New(rand.NewSource(seed))
	point := func(scale float64) core.Vec3 {
		return core.NewVec3(
			(random.Float64()*2-1)*scale,
			(random.Float64()*2-1)*scale,
			(random.Float64()*2-1)*scale,
		)
	}

	prims := make([]core.Primitive, count)
	for i := range prims {
		v0 := point(10)
		prims[i] = geometry.NewTriangle(v0, v0.Add(point(0.5)), v0.Add(point(0.5)))
	}
	return prims
}
