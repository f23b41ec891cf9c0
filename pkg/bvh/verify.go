package bvh

import (
	"fmt"

	"github.com/df07/go-bvh/pkg/core"
)

// Verify checks the structural invariants of the flattened tree: the ordered
// indices are a permutation, leaf ranges partition the primitive array, every
// leaf's bounds equal the union of its primitives' bounds and every interior
// node's bounds equal the union of its children's bounds.
func (bvh *BVH) Verify() error {
	n := len(bvh.primitives)
	if len(bvh.ordered) != n {
		return fmt.Errorf("ordered index count %d does not match primitive count %d", len(bvh.ordered), n)
	}
	if n == 0 {
		if len(bvh.nodes) != 0 {
			return fmt.Errorf("empty BVH has %d nodes", len(bvh.nodes))
		}
		return nil
	}

	seen := make([]bool, n)
	for i, idx := range bvh.ordered {
		if idx < 0 || idx >= n {
			return fmt.Errorf("ordered[%d] = %d is out of range", i, idx)
		}
		if seen[idx] {
			return fmt.Errorf("primitive %d appears more than once", idx)
		}
		seen[idx] = true
	}

	v := verifier{
		bvh:     bvh,
		covered: make([]bool, n),
		visited: make([]bool, len(bvh.nodes)),
	}
	if err := v.check(0); err != nil {
		return err
	}

	for i, c := range v.covered {
		if !c {
			return fmt.Errorf("primitive slot %d is not covered by any leaf", i)
		}
	}
	for i, ok := range v.visited {
		if !ok {
			return fmt.Errorf("node %d is unreachable", i)
		}
	}
	return nil
}

type verifier struct {
	bvh     *BVH
	covered []bool
	visited []bool
}

func (v *verifier) check(idx int) error {
	nodes := v.bvh.nodes
	if idx < 0 || idx >= len(nodes) {
		return fmt.Errorf("node index %d is out of range", idx)
	}
	if v.visited[idx] {
		return fmt.Errorf("node %d is reachable twice", idx)
	}
	v.visited[idx] = true
	node := &nodes[idx]

	if node.IsLeaf() {
		first, count := int(node.Offset), int(node.NPrimitives)
		if first+count > len(v.covered) {
			return fmt.Errorf("leaf %d range [%d,%d) exceeds %d primitives", idx, first, first+count, len(v.covered))
		}
		bounds := core.EmptyAABB()
		for i := first; i < first+count; i++ {
			if v.covered[i] {
				return fmt.Errorf("primitive slot %d is covered by more than one leaf", i)
			}
			v.covered[i] = true
			bounds = bounds.Union(v.bvh.primitives[i].WorldBound())
		}
		if bounds != node.Bounds {
			return fmt.Errorf("leaf %d bounds %v differ from primitive bounds %v", idx, node.Bounds, bounds)
		}
		return nil
	}

	second := int(node.Offset)
	if second <= idx+1 {
		return fmt.Errorf("interior node %d has second child %d before its first child", idx, second)
	}
	if err := v.check(idx + 1); err != nil {
		return err
	}
	if err := v.check(second); err != nil {
		return err
	}
	union := nodes[idx+1].Bounds.Union(nodes[second].Bounds)
	if union != node.Bounds {
		return fmt.Errorf("interior node %d bounds %v differ from children union %v", idx, node.Bounds, union)
	}
	return nil
}
