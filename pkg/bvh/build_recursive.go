package bvh

import (
	"github.com/df07/go-bvh/pkg/core"
)

// bucketInfo accumulates the primitives whose centroids fall in one SAH bucket
type bucketInfo struct {
	count  int
	bounds core.AABB
}

// builder holds the state shared by one construction
type builder struct {
	opts    Options
	infos   []primitiveInfo
	arena   *buildArena
	ordered []int // Ordered primitive indices, leaf ranges are contiguous
}

func newBuilder(infos []primitiveInfo, opts Options) *builder {
	return &builder{
		opts:    opts,
		infos:   infos,
		arena:   &buildArena{nodes: make([]buildNode, 0, 2*len(infos))},
		ordered: make([]int, 0, len(infos)),
	}
}

// recursiveBuild builds the subtree for infos[start:end] and returns its arena index
func (b *builder) recursiveBuild(start, end int) int {
	infos := b.infos[start:end]
	bounds, centroidBounds := rangeBounds(infos)
	if len(infos) == 1 {
		return b.makeLeaf(infos, bounds)
	}

	// All centroids coincide: no split can separate them
	axis := centroidBounds.MaxExtent()
	if centroidBounds.Max.Axis(axis) == centroidBounds.Min.Axis(axis) {
		return b.makeLeaf(infos, bounds)
	}

	mid := b.split(infos, bounds, centroidBounds, axis)
	if mid <= 0 || mid >= len(infos) {
		return b.makeLeaf(infos, bounds)
	}

	c0 := b.recursiveBuild(start, start+mid)
	c1 := b.recursiveBuild(start+mid, end)
	return b.arena.interior(axis, c0, c1)
}

// makeLeaf appends the range to the ordered primitive array
func (b *builder) makeLeaf(infos []primitiveInfo, bounds core.AABB) int {
	first := len(b.ordered)
	for i := range infos {
		b.ordered = append(b.ordered, infos[i].index)
	}
	return b.arena.leaf(first, len(infos), bounds)
}

// split reorders infos and returns the size of the first half, or 0 to make a leaf
func (b *builder) split(infos []primitiveInfo, bounds, centroidBounds core.AABB, axis int) int {
	switch b.opts.SplitMethod {
	case Middle:
		pmid := 0.5 * (centroidBounds.Min.Axis(axis) + centroidBounds.Max.Axis(axis))
		mid := partitionInfos(infos, func(pi *primitiveInfo) bool {
			return pi.centroid.Axis(axis) < pmid
		})
		if mid != 0 && mid != len(infos) {
			return mid
		}
		// Centroids bunched against one side of the midpoint
		return equalCounts(infos, axis)
	case EqualCounts:
		return equalCounts(infos, axis)
	default:
		return b.sahSplit(infos, bounds, centroidBounds, axis)
	}
}

// sahSplit partitions at the cheapest bucket boundary or returns 0 when a leaf
// is cheaper and allowed
func (b *builder) sahSplit(infos []primitiveInfo, bounds, centroidBounds core.AABB, axis int) int {
	n := len(infos)
	if n <= 2 || bounds.SurfaceArea() <= 0 {
		return equalCounts(infos, axis)
	}

	bucket, minCost := b.bestBucketSplit(infos, bounds, centroidBounds, axis)
	leafCost := b.opts.IntersectCost * float64(n)
	if n <= b.opts.MaxPrimsInNode && minCost >= leafCost {
		return 0
	}

	mid := partitionAtBucket(infos, centroidBounds, axis, b.opts.Buckets, bucket)
	if mid == 0 || mid == n {
		return equalCounts(infos, axis)
	}
	return mid
}

// bestBucketSplit buckets the centroids along axis and returns the bucket after which
// splitting is cheapest along with its SAH cost
func (b *builder) bestBucketSplit(infos []primitiveInfo, bounds, centroidBounds core.AABB, axis int) (int, float64) {
	nBuckets := b.opts.Buckets
	buckets := make([]bucketInfo, nBuckets)
	for i := range buckets {
		buckets[i].bounds = core.EmptyAABB()
	}
	for i := range infos {
		bi := bucketIndex(centroidBounds, axis, infos[i].centroid, nBuckets)
		buckets[bi].count++
		buckets[bi].bounds = buckets[bi].bounds.Union(infos[i].bounds)
	}

	// Sweep from the right to get the cost term of every right half
	rightCost := make([]float64, nBuckets-1)
	acc := core.EmptyAABB()
	count := 0
	for i := nBuckets - 1; i > 0; i-- {
		acc = acc.Union(buckets[i].bounds)
		count += buckets[i].count
		rightCost[i-1] = float64(count) * acc.SurfaceArea()
	}

	totalArea := bounds.SurfaceArea()
	minCost := 0.0
	minBucket := -1
	acc = core.EmptyAABB()
	count = 0
	for i := 0; i < nBuckets-1; i++ {
		acc = acc.Union(buckets[i].bounds)
		count += buckets[i].count
		cost := b.opts.TraversalCost +
			b.opts.IntersectCost*(float64(count)*acc.SurfaceArea()+rightCost[i])/totalArea
		if minBucket < 0 || cost < minCost {
			minCost = cost
			minBucket = i
		}
	}
	return minBucket, minCost
}

func bucketIndex(centroidBounds core.AABB, axis int, centroid core.Vec3, nBuckets int) int {
	b := int(float64(nBuckets) * centroidBounds.Offset(centroid).Axis(axis))
	if b >= nBuckets {
		b = nBuckets - 1
	}
	if b < 0 {
		b = 0
	}
	return b
}

func partitionAtBucket(infos []primitiveInfo, centroidBounds core.AABB, axis, nBuckets, bucket int) int {
	return partitionInfos(infos, func(pi *primitiveInfo) bool {
		return bucketIndex(centroidBounds, axis, pi.centroid, nBuckets) <= bucket
	})
}

// partitionInfos moves the elements satisfying pred to the front and returns their count
func partitionInfos(infos []primitiveInfo, pred func(*primitiveInfo) bool) int {
	i := 0
	for j := range infos {
		if pred(&infos[j]) {
			infos[i], infos[j] = infos[j], infos[i]
			i++
		}
	}
	return i
}

// equalCounts places the len/2 smallest centroids along axis first and returns len/2
func equalCounts(infos []primitiveInfo, axis int) int {
	mid := len(infos) / 2
	nthElement(infos, mid, axis)
	return mid
}

// nthElement reorders infos so infos[k] holds the element a sort by centroid along
// axis would put there, with no larger element before it and no smaller one after it.
func nthElement(infos []primitiveInfo, k, axis int) {
	lo, hi := 0, len(infos)-1
	for lo < hi {
		pivot := medianOfThree(
			infos[lo].centroid.Axis(axis),
			infos[lo+(hi-lo)/2].centroid.Axis(axis),
			infos[hi].centroid.Axis(axis),
		)

		// Three-way partition: [lo,lt) < pivot, [lt,gt] == pivot, (gt,hi] > pivot
		lt, i, gt := lo, lo, hi
		for i <= gt {
			v := infos[i].centroid.Axis(axis)
			switch {
			case v < pivot:
				infos[lt], infos[i] = infos[i], infos[lt]
				lt++
				i++
			case v > pivot:
				infos[i], infos[gt] = infos[gt], infos[i]
				gt--
			default:
				i++
			}
		}

		switch {
		case k < lt:
			hi = lt - 1
		case k > gt:
			lo = gt + 1
		default:
			return
		}
	}
}

func medianOfThree(a, b, c float64) float64 {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b = c
	}
	if a > b {
		return a
	}
	return b
}

// buildUpper joins treelet roots into a single tree with SAH. Every leaf of the
// result is one of the roots; roots[i].index holds the root's arena index.
func (b *builder) buildUpper(roots []primitiveInfo) int {
	if len(roots) == 1 {
		return roots[0].index
	}

	bounds, centroidBounds := rangeBounds(roots)
	axis := centroidBounds.MaxExtent()

	mid := len(roots) / 2
	degenerate := centroidBounds.Max.Axis(axis) == centroidBounds.Min.Axis(axis)
	if len(roots) > 2 && !degenerate && bounds.SurfaceArea() > 0 {
		bucket, _ := b.bestBucketSplit(roots, bounds, centroidBounds, axis)
		mid = partitionAtBucket(roots, centroidBounds, axis, b.opts.Buckets, bucket)
		if mid == 0 || mid == len(roots) {
			mid = len(roots) / 2
		}
	}

	c0 := b.buildUpper(roots[:mid])
	c1 := b.buildUpper(roots[mid:])
	return b.arena.interior(axis, c0, c1)
}
