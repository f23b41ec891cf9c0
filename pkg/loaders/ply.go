// Package loaders reads triangle meshes from files.
package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-bvh/pkg/core"
	"github.com/df07/go-bvh/pkg/log"
)

var logger = log.New("loaders")

// maxPreallocated bounds the slice capacity taken from header element counts.
// Larger meshes still load; their slices grow as elements are read.
const maxPreallocated = 1 << 20

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format      string // "binary_little_endian", "binary_big_endian", or "ascii"
	Version     string // Usually "1.0"
	VertexCount int
	FaceCount   int
	VertexProps []PLYProperty
	FaceProps   []PLYProperty

	// Indices of the x, y, z properties within VertexProps
	PositionIndices [3]int
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// PLYData contains the mesh loaded from a PLY file
type PLYData struct {
	Vertices []core.Vec3 // Vertex positions (x, y, z)
	Faces    []int       // Triangle indices (3 per triangle); polygons are fan-triangulated
}

// TriangleCount returns the number of triangles in the mesh
func (d *PLYData) TriangleCount() int {
	return len(d.Faces) / 3
}

// Triangle returns the vertices of triangle i
func (d *PLYData) Triangle(i int) (core.Vec3, core.Vec3, core.Vec3) {
	return d.Vertices[d.Faces[3*i]], d.Vertices[d.Faces[3*i+1]], d.Vertices[d.Faces[3*i+2]]
}

// LoadPLY loads a PLY file and returns its vertex positions and triangles
func LoadPLY(filename string) (*PLYData, error) {
	startTime := time.Now()

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()

	data, err := ReadPLY(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	logger.Infof("Loaded PLY data: %d vertices, %d triangles in %v",
		len(data.Vertices), data.TriangleCount(), time.Since(startTime))
	return data, nil
}

// ReadPLY parses a PLY stream
func ReadPLY(r io.Reader) (*PLYData, error) {
	reader := bufio.NewReaderSize(r, 1024*1024)

	header, err := parsePLYHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	var data *PLYData
	switch header.Format {
	case "binary_little_endian":
		data, err = readBinary(reader, header, binary.LittleEndian)
	case "binary_big_endian":
		data, err = readBinary(reader, header, binary.BigEndian)
	case "ascii":
		data, err = readASCII(reader, header)
	default:
		return nil, fmt.Errorf("unsupported PLY format: %q", header.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read PLY data: %w", err)
	}

	for i, idx := range data.Faces {
		if idx < 0 || idx >= len(data.Vertices) {
			return nil, fmt.Errorf("face index %d at position %d out of range (%d vertices)", idx, i, len(data.Vertices))
		}
	}
	return data, nil
}

// parsePLYHeader parses the header up to and including the end_header line
func parsePLYHeader(reader *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{PositionIndices: [3]int{-1, -1, -1}}

	var currentElement string
	first := true
	for {
		raw, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("error reading header: %w", err)
		}
		line := strings.TrimSpace(raw)

		if first {
			if line != "ply" {
				return nil, fmt.Errorf("missing ply magic number")
			}
			first = false
			continue
		}
		if line == "end_header" {
			break
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) >= 3 {
				header.Format = parts[1]
				header.Version = parts[2]
			}
		case "comment", "obj_info":
			// Ignore comments
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid element definition: %q", line)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("invalid element count: %s", parts[2])
			}

			currentElement = parts[1]
			switch currentElement {
			case "vertex":
				header.VertexCount = count
			case "face":
				header.FaceCount = count
			default:
				if count > 0 {
					return nil, fmt.Errorf("unsupported element %q", currentElement)
				}
			}
		case "property":
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("failed to parse property: %w", err)
			}

			switch currentElement {
			case "vertex":
				header.VertexProps = append(header.VertexProps, prop)
				switch prop.Name {
				case "x":
					header.PositionIndices[0] = len(header.VertexProps) - 1
				case "y":
					header.PositionIndices[1] = len(header.VertexProps) - 1
				case "z":
					header.PositionIndices[2] = len(header.VertexProps) - 1
				}
			case "face":
				header.FaceProps = append(header.FaceProps, prop)
			}
		}
	}

	for axis, idx := range header.PositionIndices {
		if idx < 0 {
			return nil, fmt.Errorf("vertex element has no %c property", "xyz"[axis])
		}
	}
	return header, nil
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, fmt.Errorf("invalid property definition")
	}

	prop := PLYProperty{}

	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, fmt.Errorf("invalid list property definition")
		}
		prop.IsList = true
		prop.ListType = parts[1]
		prop.DataType = parts[2]
		prop.Name = parts[3]
	} else {
		prop.Type = parts[0]
		prop.Name = parts[1]
	}

	return prop, nil
}

func isFaceIndexList(prop PLYProperty) bool {
	return prop.IsList && (prop.Name == "vertex_indices" || prop.Name == "vertex_index")
}

// appendPolygon fan-triangulates a polygon into faces
func appendPolygon(faces []int, polygon []int) ([]int, error) {
	if len(polygon) < 3 {
		return faces, fmt.Errorf("face with %d vertices", len(polygon))
	}
	for k := 1; k+1 < len(polygon); k++ {
		faces = append(faces, polygon[0], polygon[k], polygon[k+1])
	}
	return faces, nil
}

// readBinary reads the vertex and face elements of a binary PLY body
func readBinary(reader io.Reader, header *PLYHeader, order binary.ByteOrder) (*PLYData, error) {
	vertices := make([]core.Vec3, 0, min(header.VertexCount, maxPreallocated))
	faces := make([]int, 0, min(header.FaceCount, maxPreallocated)*3) // Assuming triangular faces

	values := make([]float64, len(header.VertexProps))
	for i := 0; i < header.VertexCount; i++ {
		for j, prop := range header.VertexProps {
			if prop.IsList {
				return nil, fmt.Errorf("list property %s in vertex element", prop.Name)
			}
			v, err := readScalar(reader, prop.Type, order)
			if err != nil {
				return nil, fmt.Errorf("failed to read vertex %d property %s: %w", i, prop.Name, err)
			}
			values[j] = v
		}
		vertices = append(vertices, positionOf(values, header))
	}

	var polygon []int
	for i := 0; i < header.FaceCount; i++ {
		for _, prop := range header.FaceProps {
			if !prop.IsList {
				if _, err := readScalar(reader, prop.Type, order); err != nil {
					return nil, fmt.Errorf("failed to skip face property %s at face %d: %w", prop.Name, i, err)
				}
				continue
			}

			count, err := readScalar(reader, prop.ListType, order)
			if err != nil {
				return nil, fmt.Errorf("failed to read face vertex count at face %d: %w", i, err)
			}
			polygon = polygon[:0]
			for k := 0; k < int(count); k++ {
				v, err := readScalar(reader, prop.DataType, order)
				if err != nil {
					return nil, fmt.Errorf("failed to read face indices at face %d: %w", i, err)
				}
				polygon = append(polygon, int(v))
			}

			if isFaceIndexList(prop) {
				if faces, err = appendPolygon(faces, polygon); err != nil {
					return nil, fmt.Errorf("face %d: %w", i, err)
				}
			}
		}
	}

	return &PLYData{Vertices: vertices, Faces: faces}, nil
}

// readASCII reads the vertex and face elements of an ASCII PLY body
func readASCII(reader *bufio.Reader, header *PLYHeader) (*PLYData, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	nextFields := func() ([]string, error) {
		for scanner.Scan() {
			if fields := strings.Fields(scanner.Text()); len(fields) > 0 {
				return fields, nil
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.ErrUnexpectedEOF
	}

	vertices := make([]core.Vec3, 0, min(header.VertexCount, maxPreallocated))
	values := make([]float64, len(header.VertexProps))
	for i := 0; i < header.VertexCount; i++ {
		fields, err := nextFields()
		if err != nil {
			return nil, fmt.Errorf("failed to read vertex %d: %w", i, err)
		}
		if len(fields) < len(header.VertexProps) {
			return nil, fmt.Errorf("vertex %d has %d values, want %d", i, len(fields), len(header.VertexProps))
		}
		for j := range header.VertexProps {
			if values[j], err = strconv.ParseFloat(fields[j], 64); err != nil {
				return nil, fmt.Errorf("vertex %d: %w", i, err)
			}
		}
		vertices = append(vertices, positionOf(values, header))
	}

	faces := make([]int, 0, min(header.FaceCount, maxPreallocated)*3)
	var polygon []int
	for i := 0; i < header.FaceCount; i++ {
		fields, err := nextFields()
		if err != nil {
			return nil, fmt.Errorf("failed to read face %d: %w", i, err)
		}

		pos := 0
		for _, prop := range header.FaceProps {
			if !prop.IsList {
				pos++
				continue
			}
			if pos >= len(fields) {
				return nil, fmt.Errorf("face %d is truncated", i)
			}
			count, err := strconv.Atoi(fields[pos])
			if err != nil || count < 0 || pos+1+count > len(fields) {
				return nil, fmt.Errorf("face %d has an invalid vertex list", i)
			}

			polygon = polygon[:0]
			for _, f := range fields[pos+1 : pos+1+count] {
				idx, err := strconv.Atoi(f)
				if err != nil {
					return nil, fmt.Errorf("face %d: %w", i, err)
				}
				polygon = append(polygon, idx)
			}
			pos += 1 + count

			if isFaceIndexList(prop) {
				if faces, err = appendPolygon(faces, polygon); err != nil {
					return nil, fmt.Errorf("face %d: %w", i, err)
				}
			}
		}
	}

	return &PLYData{Vertices: vertices, Faces: faces}, nil
}

func positionOf(values []float64, header *PLYHeader) core.Vec3 {
	return core.NewVec3(
		values[header.PositionIndices[0]],
		values[header.PositionIndices[1]],
		values[header.PositionIndices[2]],
	)
}

// readScalar reads one binary value of a PLY data type as float64
func readScalar(reader io.Reader, dataType string, order binary.ByteOrder) (float64, error) {
	size := getTypeSize(dataType)
	if size == 0 {
		return 0, fmt.Errorf("unsupported data type: %s", dataType)
	}

	var buf [8]byte
	if _, err := io.ReadFull(reader, buf[:size]); err != nil {
		return 0, err
	}
	b := buf[:size]

	switch dataType {
	case "float", "float32":
		return float64(math.Float32frombits(order.Uint32(b))), nil
	case "double", "float64":
		return math.Float64frombits(order.Uint64(b)), nil
	case "int", "int32":
		return float64(int32(order.Uint32(b))), nil
	case "uint", "uint32":
		return float64(order.Uint32(b)), nil
	case "short", "int16":
		return float64(int16(order.Uint16(b))), nil
	case "ushort", "uint16":
		return float64(order.Uint16(b)), nil
	case "char", "int8":
		return float64(int8(b[0])), nil
	default: // "uchar", "uint8"
		return float64(b[0]), nil
	}
}

// getTypeSize returns the size in bytes of a PLY data type, 0 if unknown
func getTypeSize(dataType string) int {
	switch dataType {
	case "float", "float32", "int", "int32", "uint", "uint32":
		return 4
	case "double", "float64":
		return 8
	case "short", "int16", "ushort", "uint16":
		return 2
	case "char", "int8", "uchar", "uint8":
		return 1
	default:
		return 0
	}
}
