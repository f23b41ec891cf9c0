// Package bvh implements a bounding volume hierarchy over bounded primitives.
//
// A BVH is built once from a primitive slice and then answers closest-hit and
// any-hit ray queries. Construction uses either a recursive top-down builder
// (SAH, Middle, EqualCounts) or a Morton-order clustered builder (HLBVH) that
// builds independent treelets in parallel. The result is flattened into a
// depth-first array of fixed-size nodes; queries only read that array, so any
// number of goroutines may query the same BVH concurrently.
package bvh

import (
	"time"

	"github.com/df07/go-bvh/pkg/core"
	"github.com/df07/go-bvh/pkg/log"
)

var logger = log.New("bvh")

// BVH represents a Bounding Volume Hierarchy for fast ray-object intersection
type BVH struct {
	primitives []core.Primitive // Reordered so every leaf covers a contiguous range
	ordered    []int            // ordered[i] is the caller's index of primitives[i]
	nodes      []LinearNode
	opts       Options

	treelets  int
	buildTime time.Duration
}

// New constructs a BVH over primitives. The slice is not modified; an empty slice
// yields a BVH that never reports a hit.
func New(primitives []core.Primitive, opts Options) *BVH {
	opts = opts.normalize()
	bvh := &BVH{opts: opts}
	if len(primitives) == 0 {
		return bvh
	}

	start := time.Now()
	infos := collectPrimitiveInfo(primitives)
	b := newBuilder(infos, opts)

	var root int
	if opts.SplitMethod == HLBVH {
		root, bvh.treelets = b.hlbvhBuild()
	} else {
		root = b.recursiveBuild(0, len(infos))
	}

	bvh.ordered = b.ordered
	bvh.primitives = make([]core.Primitive, len(b.ordered))
	for i, idx := range b.ordered {
		bvh.primitives[i] = primitives[idx]
	}
	bvh.nodes = linearize(b.arena, root, make([]LinearNode, b.arena.count))
	bvh.buildTime = time.Since(start)

	if log.Enabled(log.Debug) {
		stats := bvh.Stats()
		logger.Debugf(
			"BVH build (%s) time: %d ms, primitives: %d, nodes: %d, leafs: %d, maxDepth: %d",
			opts.SplitMethod, bvh.buildTime.Milliseconds(), len(primitives),
			stats.TotalNodes, stats.LeafNodes, stats.MaxDepth,
		)
	}
	return bvh
}

// Build constructs a BVH with default options for everything except the leaf size
// and split method
func Build(primitives []core.Primitive, maxPrimsInNode int, method SplitMethod) *BVH {
	opts := DefaultOptions()
	opts.MaxPrimsInNode = maxPrimsInNode
	opts.SplitMethod = method
	return New(primitives, opts)
}

// WorldBound returns the bounds of every primitive, or an empty box for an empty BVH
func (bvh *BVH) WorldBound() core.AABB {
	if len(bvh.nodes) == 0 {
		return core.EmptyAABB()
	}
	return bvh.nodes[0].Bounds
}

// Nodes returns the flattened tree. The slice must not be modified.
func (bvh *BVH) Nodes() []LinearNode {
	return bvh.nodes
}

// OrderedIndices maps positions of the leaf-ordered primitive array to indices of
// the slice the BVH was built from. The slice must not be modified.
func (bvh *BVH) OrderedIndices() []int {
	return bvh.ordered
}

// Primitives returns the primitives in leaf order
func (bvh *BVH) Primitives() []core.Primitive {
	return bvh.primitives
}

// Options returns the normalized options the BVH was built with
func (bvh *BVH) Options() Options {
	return bvh.opts
}
