package bvh

import (
	"fmt"

	"github.com/df07/go-bvh/pkg/core"
)

const noChild = -1

// buildNode is a node of the intermediate tree. Children are arena indices.
// A node is a leaf iff nPrimitives > 0; interior nodes always have two children.
type buildNode struct {
	bounds          core.AABB
	children        [2]int
	splitAxis       int
	firstPrimOffset int // Offset into the ordered primitive array (leaves only)
	nPrimitives     int
}

func (n *buildNode) isLeaf() bool {
	return n.nPrimitives > 0
}

func (n *buildNode) initLeaf(first, count int, bounds core.AABB) {
	n.firstPrimOffset = first
	n.nPrimitives = count
	n.bounds = bounds
	n.children = [2]int{noChild, noChild}
}

func (n *buildNode) initInterior(axis int, c0, c1 int, b0, b1 core.AABB) {
	n.children = [2]int{c0, c1}
	n.bounds = b0.Union(b1)
	n.splitAxis = axis
	n.nPrimitives = 0
}

// buildArena owns every node of the intermediate tree
type buildArena struct {
	nodes []buildNode
	count int // Nodes actually in use (regions may be partially filled)
}

func (a *buildArena) leaf(first, count int, bounds core.AABB) int {
	idx := len(a.nodes)
	a.nodes = append(a.nodes, buildNode{})
	a.nodes[idx].initLeaf(first, count, bounds)
	a.count++
	return idx
}

func (a *buildArena) interior(axis, c0, c1 int) int {
	idx := len(a.nodes)
	a.nodes = append(a.nodes, buildNode{})
	a.nodes[idx].initInterior(axis, c0, c1, a.nodes[c0].bounds, a.nodes[c1].bounds)
	a.count++
	return idx
}

// reserve appends n zeroed nodes and returns a region view over them. The region
// can be filled from its own goroutine while other regions are filled concurrently.
func (a *buildArena) reserve(n int) *nodeRegion {
	base := len(a.nodes)
	a.nodes = append(a.nodes, make([]buildNode, n)...)
	return &nodeRegion{base: base, size: n}
}

// nodeRegion is a contiguous block of arena slots claimed by a single task
type nodeRegion struct {
	nodes []buildNode
	base  int // Arena index of nodes[0]
	size  int
	used  int
}

// bind points the region at the arena's current backing array. It must be called
// after the last reserve and before any concurrent use.
func (r *nodeRegion) bind(a *buildArena) {
	r.nodes = a.nodes[r.base : r.base+r.size : r.base+r.size]
}

func (r *nodeRegion) alloc() int {
	if r.used >= len(r.nodes) {
		panic(fmt.Sprintf("bvh: node region exhausted (%d nodes)", len(r.nodes)))
	}
	idx := r.base + r.used
	r.used++
	return idx
}

func (r *nodeRegion) at(idx int) *buildNode {
	return &r.nodes[idx-r.base]
}
