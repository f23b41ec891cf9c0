package bvh

import (
	"fmt"
	"runtime"
	"strings"
)

// SplitMethod selects how primitive ranges are subdivided during construction
type SplitMethod int

const (
	// SAH evaluates bucketed split candidates with the surface area heuristic.
	SAH SplitMethod = iota

	// HLBVH clusters primitives along a Morton curve into treelets that are
	// built in parallel, then joins the treelet roots with SAH.
	HLBVH

	// Middle splits at the midpoint of the centroid bounds.
	Middle

	// EqualCounts splits each range into two halves of equal size.
	EqualCounts
)

// Defaults for Options
const (
	DefaultMaxPrimsInNode = 4
	DefaultBuckets        = 12
	DefaultTreeletBits    = 12
	DefaultTraversalCost  = 0.125
	DefaultIntersectCost  = 1.0

	// maxPrimsInNodeLimit bounds leaf sizes requested by callers
	maxPrimsInNodeLimit = 255

	// mortonBits is the width of the 3D Morton codes (10 bits per axis)
	mortonBits = 30
)

var splitMethodNames = map[SplitMethod]string{
	SAH:         "sah",
	HLBVH:       "hlbvh",
	Middle:      "middle",
	EqualCounts: "equal",
}

func (m SplitMethod) String() string {
	if name, ok := splitMethodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("SplitMethod(%d)", int(m))
}

// ParseSplitMethod maps a split method name to its SplitMethod value
func ParseSplitMethod(name string) (SplitMethod, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sah", "":
		return SAH, nil
	case "hlbvh":
		return HLBVH, nil
	case "middle":
		return Middle, nil
	case "equal", "equalcounts":
		return EqualCounts, nil
	}
	return SAH, fmt.Errorf("unknown split method %q", name)
}

// SplitMethodOrDefault parses name and falls back to SAH with a warning
func SplitMethodOrDefault(name string) SplitMethod {
	method, err := ParseSplitMethod(name)
	if err != nil {
		logger.Warningf("%v; using %s", err, SAH)
	}
	return method
}

// Options controls BVH construction
type Options struct {
	SplitMethod    SplitMethod
	MaxPrimsInNode int // Leaves hold at most this many primitives unless their centroids coincide

	Buckets       int     // SAH bucket count
	TreeletBits   int     // High Morton bits that define an HLBVH treelet
	TraversalCost float64 // SAH cost of visiting an interior node
	IntersectCost float64 // SAH cost of one primitive intersection

	Workers int // Parallel HLBVH treelet builders; <= 0 uses runtime.NumCPU()
}

// DefaultOptions returns the default SAH configuration
func DefaultOptions() Options {
	return Options{
		SplitMethod:    SAH,
		MaxPrimsInNode: DefaultMaxPrimsInNode,
		Buckets:        DefaultBuckets,
		TreeletBits:    DefaultTreeletBits,
		TraversalCost:  DefaultTraversalCost,
		IntersectCost:  DefaultIntersectCost,
	}
}

// normalize fills zero values with defaults and clamps out-of-range values
func (o Options) normalize() Options {
	if o.MaxPrimsInNode <= 0 {
		o.MaxPrimsInNode = DefaultMaxPrimsInNode
	}
	if o.MaxPrimsInNode > maxPrimsInNodeLimit {
		o.MaxPrimsInNode = maxPrimsInNodeLimit
	}
	if o.Buckets < 2 {
		o.Buckets = DefaultBuckets
	}
	if o.TreeletBits <= 0 || o.TreeletBits >= mortonBits {
		o.TreeletBits = DefaultTreeletBits
	}
	if o.TraversalCost <= 0 {
		o.TraversalCost = DefaultTraversalCost
	}
	if o.IntersectCost <= 0 {
		o.IntersectCost = DefaultIntersectCost
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	return o
}
