package bvh

import "time"

// Stats contains statistics about the BVH structure
type Stats struct {
	TotalNodes        int
	InteriorNodes     int
	LeafNodes         int
	MaxDepth          int
	AvgDepth          float64 // Average leaf depth
	TotalPrimitives   int
	MaxLeafPrimitives int
	Treelets          int     // HLBVH only
	SAHCost           float64 // Expected traversal cost of a random ray under the build cost model
	BuildTime         time.Duration
}

// Stats returns statistics about the BVH structure
func (bvh *BVH) Stats() Stats {
	stats := Stats{
		Treelets:  bvh.treelets,
		BuildTime: bvh.buildTime,
	}
	if len(bvh.nodes) == 0 {
		return stats
	}

	rootArea := bvh.nodes[0].Bounds.SurfaceArea()
	bvh.collectStats(0, 0, rootArea, &stats)

	// Calculate average depth after collecting all data
	if stats.LeafNodes > 0 {
		stats.AvgDepth = stats.AvgDepth / float64(stats.LeafNodes)
	}

	return stats
}

// collectStats recursively collects statistics about the subtree at idx
func (bvh *BVH) collectStats(idx, depth int, rootArea float64, stats *Stats) {
	node := &bvh.nodes[idx]
	stats.TotalNodes++

	if depth > stats.MaxDepth {
		stats.MaxDepth = depth
	}

	areaRatio := 1.0
	if rootArea > 0 {
		areaRatio = node.Bounds.SurfaceArea() / rootArea
	}

	if node.IsLeaf() {
		n := int(node.NPrimitives)
		stats.LeafNodes++
		stats.TotalPrimitives += n
		stats.MaxLeafPrimitives = max(stats.MaxLeafPrimitives, n)
		stats.AvgDepth += float64(depth) // Accumulate depth for average calculation
		stats.SAHCost += areaRatio * bvh.opts.IntersectCost * float64(n)
		return
	}

	stats.InteriorNodes++
	stats.SAHCost += areaRatio * bvh.opts.TraversalCost
	bvh.collectStats(idx+1, depth+1, rootArea, stats)
	bvh.collectStats(int(node.Offset), depth+1, rootArea, stats)
}
