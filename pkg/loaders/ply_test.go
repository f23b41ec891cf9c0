package loaders

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-bvh/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestPLY writes a binary square made of two triangles, optionally with
// per-vertex normals that the loader must skip
func createTestPLY(t *testing.T, filename string, order binary.ByteOrder, includeNormals bool) {
	var buf bytes.Buffer

	buf.WriteString("ply\n")
	if order == binary.LittleEndian {
		buf.WriteString("format binary_little_endian 1.0\n")
	} else {
		buf.WriteString("format binary_big_endian 1.0\n")
	}
	buf.WriteString("comment unit square\n")
	buf.WriteString("element vertex 4\n")
	buf.WriteString("property float x\n")
	buf.WriteString("property float y\n")
	buf.WriteString("property float z\n")
	if includeNormals {
		buf.WriteString("property float nx\n")
		buf.WriteString("property float ny\n")
		buf.WriteString("property float nz\n")
	}
	buf.WriteString("element face 2\n")
	buf.WriteString("property list uchar int vertex_indices\n")
	buf.WriteString("end_header\n")

	vertices := [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	for _, v := range vertices {
		require.NoError(t, binary.Write(&buf, order, v))
		if includeNormals {
			require.NoError(t, binary.Write(&buf, order, [3]float32{0, 0, 1}))
		}
	}

	faces := []struct {
		count      uint8
		v1, v2, v3 int32
	}{
		{3, 0, 1, 2}, // First triangle
		{3, 0, 2, 3}, // Second triangle
	}
	for _, f := range faces {
		require.NoError(t, binary.Write(&buf, order, f))
	}

	require.NoError(t, os.WriteFile(filename, buf.Bytes(), 0644))
}

func TestLoadPLY_Binary(t *testing.T) {
	tests := []struct {
		name           string
		order          binary.ByteOrder
		includeNormals bool
	}{
		{"little endian", binary.LittleEndian, false},
		{"little endian with normals", binary.LittleEndian, true},
		{"big endian", binary.BigEndian, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filename := filepath.Join(t.TempDir(), "square.ply")
			createTestPLY(t, filename, tt.order, tt.includeNormals)

			data, err := LoadPLY(filename)
			require.NoError(t, err)

			require.Len(t, data.Vertices, 4)
			assert.Equal(t, core.NewVec3(1, 1, 0), data.Vertices[2])
			assert.Equal(t, []int{0, 1, 2, 0, 2, 3}, data.Faces)
			assert.Equal(t, 2, data.TriangleCount())

			v0, v1, v2 := data.Triangle(1)
			assert.Equal(t, core.NewVec3(0, 0, 0), v0)
			assert.Equal(t, core.NewVec3(1, 1, 0), v1)
			assert.Equal(t, core.NewVec3(0, 1, 0), v2)
		})
	}
}

func TestReadPLY_ASCIIPolygon(t *testing.T) {
	input := `ply
format ascii 1.0
element vertex 5
property float x
property float y
property float z
property uchar red
element face 1
property list uchar int vertex_indices
end_header
0 0 0 255
1 0 0 255
1 1 0 255
0 1 0 255
0.5 1.5 0 255

5 0 1 2 4 3
`
	data, err := ReadPLY(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, data.Vertices, 5)
	assert.Equal(t, core.NewVec3(0.5, 1.5, 0), data.Vertices[4])

	// A pentagon becomes a fan of three triangles around its first vertex
	assert.Equal(t, []int{0, 1, 2, 0, 2, 4, 0, 4, 3}, data.Faces)
}

func TestReadPLY_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing magic", "format ascii 1.0\nend_header\n"},
		{"unterminated header", "ply\nformat ascii 1.0\n"},
		{"unknown format", "ply\nformat text 1.0\nelement vertex 0\nproperty float x\nproperty float y\nproperty float z\nend_header\n"},
		{"missing z", "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nproperty float y\nend_header\n0 0\n"},
		{"truncated vertices", "ply\nformat ascii 1.0\nelement vertex 2\nproperty float x\nproperty float y\nproperty float z\nend_header\n0 0 0\n"},
		{"index out of range", "ply\nformat ascii 1.0\nelement vertex 3\nproperty float x\nproperty float y\nproperty float z\nelement face 1\nproperty list uchar int vertex_indices\nend_header\n0 0 0\n1 0 0\n0 1 0\n3 0 1 7\n"},
		{"degenerate face", "ply\nformat ascii 1.0\nelement vertex 3\nproperty float x\nproperty float y\nproperty float z\nelement face 1\nproperty list uchar int vertex_indices\nend_header\n0 0 0\n1 0 0\n0 1 0\n2 0 1\n"},
		{"huge ascii vertex count", "ply\nformat ascii 1.0\nelement vertex 4000000000\nproperty float x\nproperty float y\nproperty float z\nend_header\n0 0 0\n"},
		{"huge ascii face count", "ply\nformat ascii 1.0\nelement vertex 3\nproperty float x\nproperty float y\nproperty float z\nelement face 4000000000\nproperty list uchar int vertex_indices\nend_header\n0 0 0\n1 0 0\n0 1 0\n3 0 1 2\n"},
		{"huge binary vertex count", "ply\nformat binary_little_endian 1.0\nelement vertex 4000000000\nproperty float x\nproperty float y\nproperty float z\nelement face 4000000000\nproperty list uchar int vertex_indices\nend_header\n\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPLY(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestLoadPLY_MissingFile(t *testing.T) {
	_, err := LoadPLY(filepath.Join(t.TempDir(), "missing.ply"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
