package bvh

import (
	"sort"

	"github.com/df07/go-bvh/pkg/core"
)

// mortonChunkSize is the number of primitives encoded per parallel task
const mortonChunkSize = 512

// treelet is a run of Morton-sorted primitives that share the high code bits
type treelet struct {
	start  int // First position in the sorted Morton array
	n      int
	region *nodeRegion
	root   int
}

// treeletBuilder emits the nodes of one treelet. Its region and its slice of the
// ordered primitive array are disjoint from every other treelet's.
type treeletBuilder struct {
	infos    []primitiveInfo
	ordered  []int
	region   *nodeRegion
	maxPrims int
}

// hlbvhBuild clusters primitives by Morton code, builds every treelet in parallel
// and joins the treelet roots with SAH. It returns the arena index of the root and
// the number of treelets.
func (b *builder) hlbvhBuild() (int, int) {
	infos := b.infos
	n := len(infos)

	_, centroidBounds := rangeBounds(infos)
	mortonPrims := make([]mortonPrimitive, n)
	parallelFor(n, mortonChunkSize, b.opts.Workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			offset := centroidBounds.Offset(infos[i].centroid).Multiply(mortonScale)
			mortonPrims[i] = mortonPrimitive{infoIndex: i, code: encodeMorton3(offset)}
		}
	})
	radixSort(mortonPrims)

	treelets := findTreelets(mortonPrims, b.opts.TreeletBits)

	// Claim every region up front so the parallel phase never grows the arena
	for i := range treelets {
		treelets[i].region = b.arena.reserve(2*treelets[i].n - 1)
	}
	for i := range treelets {
		treelets[i].region.bind(b.arena)
	}

	ordered := make([]int, n)
	firstBit := mortonBits - 1 - b.opts.TreeletBits
	parallelFor(len(treelets), 1, b.opts.Workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			tr := &treelets[i]
			tb := treeletBuilder{
				infos:    infos,
				ordered:  ordered,
				region:   tr.region,
				maxPrims: b.opts.MaxPrimsInNode,
			}
			tr.root = tb.emit(mortonPrims[tr.start:tr.start+tr.n], tr.start, firstBit)
		}
	})

	// Every treelet has joined; the rest is single-threaded
	roots := make([]primitiveInfo, len(treelets))
	for i := range treelets {
		b.arena.count += treelets[i].region.used
		rootBounds := b.arena.nodes[treelets[i].root].bounds
		roots[i] = newPrimitiveInfo(treelets[i].root, rootBounds)
	}
	b.ordered = ordered

	return b.buildUpper(roots), len(treelets)
}

// findTreelets splits sorted primitives into maximal runs with equal high bits
func findTreelets(mortonPrims []mortonPrimitive, treeletBits int) []treelet {
	mask := uint32((1<<treeletBits)-1) << (mortonBits - treeletBits)

	var treelets []treelet
	start := 0
	for end := 1; end <= len(mortonPrims); end++ {
		if end == len(mortonPrims) || mortonPrims[start].code&mask != mortonPrims[end].code&mask {
			treelets = append(treelets, treelet{start: start, n: end - start})
			start = end
		}
	}
	return treelets
}

// emit builds the subtree over sorted mortonPrims by splitting on Morton bits from
// bitIndex downward. The range's primitives are written to ordered[orderedOffset:].
// Each level consumes at least one bit, so recursion depth is bounded by mortonBits.
func (tb *treeletBuilder) emit(mortonPrims []mortonPrimitive, orderedOffset, bitIndex int) int {
	n := len(mortonPrims)

	// Skip bits on which the whole range agrees
	for bitIndex >= 0 && n > tb.maxPrims {
		mask := uint32(1) << uint(bitIndex)
		if mortonPrims[0].code&mask != mortonPrims[n-1].code&mask {
			break
		}
		bitIndex--
	}

	if bitIndex < 0 || n <= tb.maxPrims {
		return tb.emitLeaf(mortonPrims, orderedOffset)
	}

	// Codes are sorted, so primitives with the bit clear come first
	mask := uint32(1) << uint(bitIndex)
	split := sort.Search(n, func(i int) bool {
		return mortonPrims[i].code&mask != 0
	})

	idx := tb.region.alloc()
	c0 := tb.emit(mortonPrims[:split], orderedOffset, bitIndex-1)
	c1 := tb.emit(mortonPrims[split:], orderedOffset+split, bitIndex-1)
	tb.region.at(idx).initInterior(bitIndex%3, c0, c1, tb.region.at(c0).bounds, tb.region.at(c1).bounds)
	return idx
}

func (tb *treeletBuilder) emitLeaf(mortonPrims []mortonPrimitive, orderedOffset int) int {
	idx := tb.region.alloc()
	bounds := core.EmptyAABB()
	for i, mp := range mortonPrims {
		info := &tb.infos[mp.infoIndex]
		tb.ordered[orderedOffset+i] = info.index
		bounds = bounds.Union(info.bounds)
	}
	tb.region.at(idx).initLeaf(orderedOffset, len(mortonPrims), bounds)
	return idx
}
