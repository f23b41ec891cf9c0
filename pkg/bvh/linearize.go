package bvh

import (
	"fmt"

	"github.com/df07/go-bvh/pkg/core"
)

// LinearNode is one node of the flattened tree. Nodes are stored in depth-first
// order: the first child of an interior node is the next node in the array and the
// second child is at Offset.
type LinearNode struct {
	Bounds      core.AABB
	Offset      uint32 // First ordered primitive for leaves, second child for interior nodes
	NPrimitives uint32 // 0 for interior nodes
	Axis        uint8  // Split axis of interior nodes
	_           [7]byte
}

// IsLeaf reports whether the node references primitives
func (n *LinearNode) IsLeaf() bool {
	return n.NPrimitives > 0
}

// linearize flattens the subtree rooted at arena index root into nodes, which must
// have room for every reachable node
func linearize(arena *buildArena, root int, nodes []LinearNode) []LinearNode {
	offset := 0
	flattenNode(arena, root, nodes, &offset)
	return nodes[:offset]
}

func flattenNode(arena *buildArena, idx int, nodes []LinearNode, offset *int) int {
	node := &arena.nodes[idx]
	myOffset := *offset
	*offset++

	linear := &nodes[myOffset]
	linear.Bounds = node.bounds

	if node.isLeaf() {
		linear.Offset = uint32(node.firstPrimOffset)
		linear.NPrimitives = uint32(node.nPrimitives)
		return myOffset
	}

	if node.children[0] == noChild || node.children[1] == noChild {
		panic(fmt.Sprintf("bvh: interior node %d is missing a child", idx))
	}

	linear.Axis = uint8(node.splitAxis)
	flattenNode(arena, node.children[0], nodes, offset)
	second := flattenNode(arena, node.children[1], nodes, offset)
	nodes[myOffset].Offset = uint32(second)
	return myOffset
}
