package scene

import (
	"math"
	"sort"

	"github.com/GeraltShaowen233/VoxelDemo/geom"
)

// DefaultResolution is the side of an index bucket when none is given.
const DefaultResolution = 64

// Instances overlapping more buckets than this are kept aside and returned by
// every query.
const maxBucketsPerInstance = 1 << 14

// Uniform 3D grid of buckets. Each bucket lists the instances whose bounds
// overlap it. Buckets are created on demand so the grid is unbounded.
type bucketIndex struct {
	resolution float64
	buckets    map[bucketKey][]int
	oversized  []int
}

type bucketKey struct {
	x, y, z int
}

func newBucketIndex(resolution float64) *bucketIndex {
	if resolution <= 0 {
		resolution = DefaultResolution
	}

	return &bucketIndex{
		resolution: resolution,
		buckets:    make(map[bucketKey][]int),
	}
}

func (idx *bucketIndex) coord(v float64) int {
	return int(math.Floor(v / idx.resolution))
}

func (idx *bucketIndex) span(b geom.AABB) (bucketKey, bucketKey) {
	return bucketKey{idx.coord(b.Min[0]), idx.coord(b.Min[1]), idx.coord(b.Min[2])},
		bucketKey{idx.coord(b.Max[0]), idx.coord(b.Max[1]), idx.coord(b.Max[2])}
}

// cellCount returns how many buckets a query over b would visit.
func (idx *bucketIndex) cellCount(b geom.AABB) int {
	lo, hi := idx.span(b)
	count := 1.0
	count *= float64(hi.x - lo.x + 1)
	count *= float64(hi.y - lo.y + 1)
	count *= float64(hi.z - lo.z + 1)
	if count > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(count)
}

func (idx *bucketIndex) insert(id int, b geom.AABB) {
	if b.IsEmpty() {
		return
	}
	if idx.cellCount(b) > maxBucketsPerInstance {
		idx.oversized = append(idx.oversized, id)
		return
	}

	lo, hi := idx.span(b)
	for x := lo.x; x <= hi.x; x++ {
		for y := lo.y; y <= hi.y; y++ {
			for z := lo.z; z <= hi.z; z++ {
				k := bucketKey{x, y, z}
				idx.buckets[k] = append(idx.buckets[k], id)
			}
		}
	}
}

// query returns the ids stored in the buckets overlapping b, once each and
// sorted.
func (idx *bucketIndex) query(b geom.AABB) []int {
	lo, hi := idx.span(b)

	set := make(map[int]struct{}, len(idx.oversized))
	for _, id := range idx.oversized {
		set[id] = struct{}{}
	}
	for x := lo.x; x <= hi.x; x++ {
		for y := lo.y; y <= hi.y; y++ {
			for z := lo.z; z <= hi.z; z++ {
				for _, id := range idx.buckets[bucketKey{x, y, z}] {
					set[id] = struct{}{}
				}
			}
		}
	}

	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
