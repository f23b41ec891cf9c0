package bvh

import "github.com/df07/go-bvh/pkg/core"

// maxTodoDepth sizes the traversal stack kept off the heap. Deeper trees still
// work; the stack then grows on the heap.
const maxTodoDepth = 64

// rayQuery holds the per-ray values reused at every node
type rayQuery struct {
	invDir   core.Vec3
	dirIsNeg [3]int
}

func newRayQuery(ray core.Ray) rayQuery {
	q := rayQuery{invDir: ray.Direction.Reciprocal()}
	for axis := 0; axis < 3; axis++ {
		if q.invDir.Axis(axis) < 0 {
			q.dirIsNeg[axis] = 1
		}
	}
	return q
}

// Intersect finds the closest hit along the ray within (0, ray.TMax). On a hit,
// ray.TMax is set to the hit parameter.
func (bvh *BVH) Intersect(ray *core.Ray) (*core.SurfaceInteraction, bool) {
	if len(bvh.nodes) == 0 {
		return nil, false
	}

	q := newRayQuery(*ray)
	var closest *core.SurfaceInteraction

	var stack [maxTodoDepth]int
	todo := append(stack[:0], 0)
	for len(todo) > 0 {
		idx := todo[len(todo)-1]
		todo = todo[:len(todo)-1]

		node := &bvh.nodes[idx]
		if !node.Bounds.IntersectP(*ray, q.invDir, q.dirIsNeg) {
			continue
		}

		if node.IsLeaf() {
			first := int(node.Offset)
			for i := first; i < first+int(node.NPrimitives); i++ {
				if hit, ok := bvh.primitives[i].Intersect(ray); ok {
					closest = hit
					ray.TMax = hit.T
				}
			}
			continue
		}

		// Push the far child first so the near child is visited next and can
		// shrink TMax before the far child's bounds are tested
		if q.dirIsNeg[node.Axis] == 1 {
			todo = append(todo, idx+1, int(node.Offset))
		} else {
			todo = append(todo, int(node.Offset), idx+1)
		}
	}

	return closest, closest != nil
}

// IntersectP reports whether anything is hit within (0, ray.TMax). It stops at the
// first hit found.
func (bvh *BVH) IntersectP(ray core.Ray) bool {
	if len(bvh.nodes) == 0 {
		return false
	}

	q := newRayQuery(ray)

	var stack [maxTodoDepth]int
	todo := append(stack[:0], 0)
	for len(todo) > 0 {
		idx := todo[len(todo)-1]
		todo = todo[:len(todo)-1]

		node := &bvh.nodes[idx]
		if !node.Bounds.IntersectP(ray, q.invDir, q.dirIsNeg) {
			continue
		}

		if node.IsLeaf() {
			first := int(node.Offset)
			for i := first; i < first+int(node.NPrimitives); i++ {
				if bvh.primitives[i].IntersectP(ray) {
					return true
				}
			}
			continue
		}

		if q.dirIsNeg[node.Axis] == 1 {
			todo = append(todo, idx+1, int(node.Offset))
		} else {
			todo = append(todo, int(node.Offset), idx+1)
		}
	}

	return false
}
