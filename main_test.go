package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/df07/go-bvh/pkg/bvh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenes(t *testing.T) {
	dir := t.TempDir()
	sceneFile := filepath.Join(dir, "pair.yaml")
	require.NoError(t, os.WriteFile(sceneFile, []byte(`
accelerator:
  splitmethod: middle
  maxnodeprims: 1
primitives:
  - type: sphere
    center: [0, 0, 0]
    radius: 1
  - type: sphere
    center: [4, 0, 0]
    radius: 1
`), 0644))

	tests := []struct {
		name            string
		cfg             sceneConfig
		expectError     bool
		expectedMethods []bvh.SplitMethod
		expectedPrims   int
	}{
		// Built-in scenes
		{"cubes", sceneConfig{Scene: "cubes"}, false, []bvh.SplitMethod{bvh.SAH}, 3},
		{"spheregrid sized", sceneConfig{Scene: "spheregrid", Count: 3, Split: "hlbvh"}, false, []bvh.SplitMethod{bvh.HLBVH}, 27},
		{"triangles all methods", sceneConfig{Scene: "triangles", Count: 200, Split: "all"}, false,
			[]bvh.SplitMethod{bvh.SAH, bvh.HLBVH, bvh.Middle, bvh.EqualCounts}, 200},

		// Scene files
		{"scene file keeps its split", sceneConfig{Scene: sceneFile}, false, []bvh.SplitMethod{bvh.Middle}, 2},
		{"flag overrides scene file", sceneConfig{Scene: sceneFile, Split: "equal"}, false, []bvh.SplitMethod{bvh.EqualCounts}, 2},

		// Invalid input
		{"unknown scene", sceneConfig{Scene: "nonexistent"}, true, nil, 0},
		{"missing scene file", sceneConfig{Scene: filepath.Join(dir, "missing.yaml")}, true, nil, 0},
		{"unknown split", sceneConfig{Scene: "cubes", Split: "octree"}, true, nil, 0},
		{"empty scene name", sceneConfig{}, true, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenes, err := loadScenes(tt.cfg)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, scenes)
				return
			}

			require.NoError(t, err)
			require.Len(t, scenes, len(tt.expectedMethods))
			for i, s := range scenes {
				assert.Equal(t, tt.expectedMethods[i], s.Options.SplitMethod)
				assert.Len(t, s.Primitives, tt.expectedPrims)
			}
		})
	}
}

func TestLoadScenes_Overrides(t *testing.T) {
	scenes, err := loadScenes(sceneConfig{Scene: "spheregrid", Count: 4, MaxPrims: 1, Workers: 3})
	require.NoError(t, err)
	require.Len(t, scenes, 1)

	opts := scenes[0].Options
	assert.Equal(t, 1, opts.MaxPrimsInNode)
	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, 1, scenes[0].Aggregate.Stats().MaxLeafPrimitives)
}

func TestVerifyScene(t *testing.T) {
	scenes, err := loadScenes(sceneConfig{Scene: "triangles", Count: 300, Seed: 4, Split: "all"})
	require.NoError(t, err)

	for _, s := range scenes {
		assert.NoError(t, verifyScene(s, 500, 4), "split %s", s.Options.SplitMethod)
	}
}
