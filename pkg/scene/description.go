package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-bvh/pkg/bvh"
	"github.com/df07/go-bvh/pkg/core"
	"github.com/df07/go-bvh/pkg/geometry"
	"github.com/df07/go-bvh/pkg/loaders"
	"gopkg.in/yaml.v3"
)

// Description is the YAML form of a scene
type Description struct {
	Name        string                 `yaml:"name"`
	Accelerator AcceleratorDescription `yaml:"accelerator"`
	Primitives  []PrimitiveDescription `yaml:"primitives"`

	baseDir string // Directory mesh paths are resolved against
}

// AcceleratorDescription holds the accelerator parameters of a scene file. Zero
// values keep the defaults.
type AcceleratorDescription struct {
	SplitMethod  string `yaml:"splitmethod"`
	MaxNodePrims int    `yaml:"maxnodeprims"`
	Buckets      int    `yaml:"buckets"`
	TreeletBits  int    `yaml:"treeletbits"`
	Workers      int    `yaml:"workers"`
}

// PrimitiveDescription describes one entry of the primitives list. Which fields
// apply depends on Type.
type PrimitiveDescription struct {
	Type string `yaml:"type"` // box, sphere, triangle, mesh or generator

	// box: either min/max or center/size
	Min  []float64 `yaml:"min"`
	Max  []float64 `yaml:"max"`
	Size []float64 `yaml:"size"`

	// sphere
	Center []float64 `yaml:"center"`
	Radius float64   `yaml:"radius"`

	// triangle
	Vertices [][]float64 `yaml:"vertices"`

	// mesh
	File string `yaml:"file"`

	// generator
	Generator string `yaml:"name"`
	Count     int    `yaml:"count"`
	Seed      int64  `yaml:"seed"`
}

// Load reads a YAML scene file
func Load(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}

	desc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	desc.baseDir = filepath.Dir(path)
	if desc.Name == "" {
		desc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return desc, nil
}

// Parse decodes a YAML scene. Unknown keys are rejected.
func Parse(data []byte) (*Description, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	desc := &Description{}
	if err := decoder.Decode(desc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty scene")
		}
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}
	return desc, nil
}

// Resolve returns the description for ref: a path to a .yaml/.yml file, or the name
// of a built-in generator run with count and seed
func Resolve(ref string, count int, seed int64) (*Description, error) {
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".yaml", ".yml":
		return Load(ref)
	}

	if _, ok := builtins[ref]; !ok {
		return nil, fmt.Errorf("unknown scene %q (built-in scenes: %s)", ref, strings.Join(BuiltinNames(), ", "))
	}
	return &Description{
		Name:       ref,
		Primitives: []PrimitiveDescription{{Type: "generator", Generator: ref, Count: count, Seed: seed}},
	}, nil
}

// Options returns the accelerator options of the scene. Unknown split method
// names fall back to SAH with a warning.
func (d *Description) Options() bvh.Options {
	opts := bvh.DefaultOptions()
	acc := d.Accelerator
	if acc.SplitMethod != "" {
		opts.SplitMethod = bvh.SplitMethodOrDefault(acc.SplitMethod)
	}
	if acc.MaxNodePrims > 0 {
		opts.MaxPrimsInNode = acc.MaxNodePrims
	}
	if acc.Buckets > 0 {
		opts.Buckets = acc.Buckets
	}
	if acc.TreeletBits > 0 {
		opts.TreeletBits = acc.TreeletBits
	}
	if acc.Workers > 0 {
		opts.Workers = acc.Workers
	}
	return opts
}

// CreatePrimitives instantiates every primitive of the description
func (d *Description) CreatePrimitives() ([]core.Primitive, error) {
	var prims []core.Primitive
	for i, pd := range d.Primitives {
		created, err := pd.create(d.baseDir)
		if err != nil {
			return nil, fmt.Errorf("primitive %d (%s): %w", i, pd.Type, err)
		}
		prims = append(prims, created...)
	}
	return prims, nil
}

// Build creates the primitives and builds the scene with opts
func (d *Description) Build(opts bvh.Options) (*Scene, error) {
	prims, err := d.CreatePrimitives()
	if err != nil {
		return nil, err
	}
	return New(d.Name, prims, opts), nil
}

func (pd PrimitiveDescription) create(baseDir string) ([]core.Primitive, error) {
	switch strings.ToLower(pd.Type) {
	case "box":
		return pd.createBox()
	case "sphere":
		center, err := toVec3("center", pd.Center)
		if err != nil {
			return nil, err
		}
		if pd.Radius <= 0 {
			return nil, fmt.Errorf("radius must be positive, got %g", pd.Radius)
		}
		return []core.Primitive{geometry.NewSphere(center, pd.Radius)}, nil
	case "triangle":
		if len(pd.Vertices) != 3 {
			return nil, fmt.Errorf("triangle needs 3 vertices, got %d", len(pd.Vertices))
		}
		var v [3]core.Vec3
		for i := range v {
			var err error
			if v[i], err = toVec3(fmt.Sprintf("vertices[%d]", i), pd.Vertices[i]); err != nil {
				return nil, err
			}
		}
		return []core.Primitive{geometry.NewTriangle(v[0], v[1], v[2])}, nil
	case "mesh":
		return pd.createMesh(baseDir)
	case "generator":
		return Generate(pd.Generator, pd.Count, pd.Seed)
	default:
		return nil, fmt.Errorf("unknown primitive type %q", pd.Type)
	}
}

func (pd PrimitiveDescription) createBox() ([]core.Primitive, error) {
	if pd.Min != nil || pd.Max != nil {
		min, err := toVec3("min", pd.Min)
		if err != nil {
			return nil, err
		}
		max, err := toVec3("max", pd.Max)
		if err != nil {
			return nil, err
		}
		if core.NewAABB(min, max).IsEmpty() {
			return nil, fmt.Errorf("box min %v exceeds max %v", min, max)
		}
		return []core.Primitive{geometry.NewBox(min, max)}, nil
	}

	center, err := toVec3("center", pd.Center)
	if err != nil {
		return nil, err
	}
	size := core.NewVec3(1, 1, 1)
	if pd.Size != nil {
		if size, err = toVec3("size", pd.Size); err != nil {
			return nil, err
		}
	}
	return []core.Primitive{geometry.NewCenteredBox(center, size)}, nil
}

func (pd PrimitiveDescription) createMesh(baseDir string) ([]core.Primitive, error) {
	if pd.File == "" {
		return nil, fmt.Errorf("mesh needs a file")
	}
	path := pd.File
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}

	mesh, err := loaders.LoadPLY(path)
	if err != nil {
		return nil, err
	}
	prims := make([]core.Primitive, mesh.TriangleCount())
	for i := range prims {
		v0, v1, v2 := mesh.Triangle(i)
		prims[i] = geometry.NewTriangle(v0, v1, v2)
	}
	return prims, nil
}

func toVec3(field string, values []float64) (core.Vec3, error) {
	if len(values) != 3 {
		return core.Vec3{}, fmt.Errorf("%s must have 3 components, got %d", field, len(values))
	}
	return core.NewVec3(values[0], values[1], values[2]), nil
}
