package scene

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/df07/go-bvh/pkg/bvh"
	"github.com/df07/go-bvh/pkg/core"
	"github.com/df07/go-bvh/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSceneYAML = `
name: mixed
accelerator:
  splitmethod: hlbvh
  maxnodeprims: 2
  treeletbits: 6
primitives:
  - type: box
    min: [0, 0, 0]
    max: [1, 1, 1]
  - type: box
    center: [5, 0, 0]
  - type: sphere
    center: [0, 5, 0]
    radius: 0.5
  - type: triangle
    vertices: [[0, 0, 5], [1, 0, 5], [0, 1, 5]]
  - type: generator
    name: cubes
    count: 2
`

func TestParse(t *testing.T) {
	desc, err := Parse([]byte(testSceneYAML))
	require.NoError(t, err)

	assert.Equal(t, "mixed", desc.Name)
	opts := desc.Options()
	assert.Equal(t, bvh.HLBVH, opts.SplitMethod)
	assert.Equal(t, 2, opts.MaxPrimsInNode)
	assert.Equal(t, 6, opts.TreeletBits)
	assert.Equal(t, bvh.DefaultBuckets, opts.Buckets)

	prims, err := desc.CreatePrimitives()
	require.NoError(t, err)
	require.Len(t, prims, 6)
	assert.IsType(t, &geometry.Box{}, prims[0])
	assert.Equal(t, core.NewVec3(4.5, -0.5, -0.5), prims[1].WorldBound().Min)
	assert.IsType(t, &geometry.Sphere{}, prims[2])
	assert.IsType(t, &geometry.Triangle{}, prims[3])
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", ""},
		{"unknown key", "name: x\ncolour: red\n"},
		{"bad syntax", "primitives: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestCreatePrimitives_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown type", "primitives:\n  - type: torus\n"},
		{"short vector", "primitives:\n  - type: sphere\n    center: [0, 0]\n    radius: 1\n"},
		{"zero radius", "primitives:\n  - type: sphere\n    center: [0, 0, 0]\n"},
		{"inverted box", "primitives:\n  - type: box\n    min: [1, 1, 1]\n    max: [0, 0, 0]\n"},
		{"two vertices", "primitives:\n  - type: triangle\n    vertices: [[0, 0, 0], [1, 0, 0]]\n"},
		{"unknown generator", "primitives:\n  - type: generator\n    name: teapot\n"},
		{"mesh without file", "primitives:\n  - type: mesh\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			_, err = desc.CreatePrimitives()
			assert.Error(t, err)
		})
	}
}

func TestOptions_UnknownSplitMethodFallsBack(t *testing.T) {
	desc, err := Parse([]byte("accelerator:\n  splitmethod: kdtree\n"))
	require.NoError(t, err)
	assert.Equal(t, bvh.SAH, desc.Options().SplitMethod)
}

func TestLoad_WithMesh(t *testing.T) {
	dir := t.TempDir()
	mesh := `ply
format ascii 1.0
element vertex 4
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
0 0 0
1 0 0
1 1 0
0 1 0
4 0 1 2 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quad.ply"), []byte(mesh), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quad.yaml"), []byte("primitives:\n  - type: mesh\n    file: quad.ply\n"), 0644))

	desc, err := Load(filepath.Join(dir, "quad.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "quad", desc.Name)

	s, err := desc.Build(desc.Options())
	require.NoError(t, err)
	require.Len(t, s.Primitives, 2)

	ray := core.NewRay(core.NewVec3(0.75, 0.25, 1), core.NewVec3(0, 0, -1))
	hit, ok := s.Intersect(&ray)
	require.True(t, ok)
	assert.InDelta(t, 1.0, hit.T, 1e-12)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		ref      string
		count    int
		expected int
	}{
		{"cubes", 0, 3},
		{"cubes", 7, 7},
		{"spheregrid", 3, 27},
		{"triangles", 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			desc, err := Resolve(tt.ref, tt.count, 1)
			require.NoError(t, err)
			prims, err := desc.CreatePrimitives()
			require.NoError(t, err)
			assert.Len(t, prims, tt.expected)
		})
	}

	_, err := Resolve("cornell", 0, 1)
	assert.Error(t, err)
}

func TestBuiltinNames(t *testing.T) {
	assert.Equal(t, []string{"cubes", "spheregrid", "triangles"}, BuiltinNames())
}

func TestTriangleSoupDeterministic(t *testing.T) {
	a := NewTriangleSoup(50, 9)
	b := NewTriangleSoup(50, 9)
	for i := range a {
		assert.Equal(t, a[i].WorldBound(), b[i].WorldBound())
	}
}

func TestScene_CubesQueries(t *testing.T) {
	for _, method := range []bvh.SplitMethod{bvh.SAH, bvh.HLBVH, bvh.Middle, bvh.EqualCounts} {
		t.Run(method.String(), func(t *testing.T) {
			opts := bvh.DefaultOptions()
			opts.SplitMethod = method
			opts.MaxPrimsInNode = 1
			s := New("cubes", NewCubes(3, 0), opts)

			assert.Equal(t, core.NewVec3(-0.5, -0.5, -0.5), s.WorldBound().Min)
			assert.Equal(t, core.NewVec3(10.5, 0.5, 0.5), s.WorldBound().Max)

			ray := core.NewRay(core.NewVec3(-1, 0, 0), core.NewVec3(1, 0, 0))
			hit, ok := s.Intersect(&ray)
			require.True(t, ok)
			assert.Same(t, s.Primitives[0], hit.Primitive)

			assert.False(t, s.IntersectP(core.NewRay(core.NewVec3(100, 100, 0), core.NewVec3(0, 1, 0))))
		})
	}
}

func TestScene_Rebuild(t *testing.T) {
	s := New("grid", NewSphereGrid(4, 0), bvh.DefaultOptions())
	before := s.WorldBound()

	opts := bvh.DefaultOptions()
	opts.SplitMethod = bvh.EqualCounts
	s.Rebuild(opts)

	assert.Equal(t, bvh.EqualCounts, s.Options.SplitMethod)
	assert.Equal(t, before, s.WorldBound())
	assert.NoError(t, s.Aggregate.Verify())
}
