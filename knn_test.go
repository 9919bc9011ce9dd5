package rtree

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearest(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		rt := newTestTree(t, 2, 4)

		_, ok := rt.Nearest(0, 0)
		assert.False(t, ok)
	})

	t.Run("InsideBox", func(t *testing.T) {
		rt := newTestTree(t, 2, 4)
		rt.Insert(testRecord{ID: 1, BBox: BBox{0, 0, 10, 10}})
		rt.Insert(testRecord{ID: 2, BBox: BBox{4, 4, 5, 5}})

		got, ok := rt.Nearest(4.5, 4.5)
		require.True(t, ok)
		// Both boxes contain the point, so the smaller ID wins.
		assert.Equal(t, 1, got.ID)
	})
}

func TestKNearestBruteForce(t *testing.T) {
	for _, policy := range []SplitPolicy{QuadraticSplit, LinearSplit} {
		t.Run(policy.String(), func(t *testing.T) {
			rnd := rand.New(rand.NewSource(3))
			rt := newTestTree(t, 2, 6, WithSplitPolicy(policy))
			present := make(map[int]BBox)
			for i := 0; i < 300; i++ {
				bb := randomBox(rnd, 0.9, 0.1)
				rt.Insert(testRecord{ID: i, BBox: bb})
				present[i] = bb
			}
			for _, id := range rnd.Perm(300)[:100] {
				require.True(t, rt.Delete(testRecord{ID: id, BBox: present[id]}))
				delete(present, id)
			}

			for i := 0; i < 50; i++ {
				x, y := rnd.Float64(), rnd.Float64()
				k := 1 + rnd.Intn(20)
				got := ids(rt.Search(KNearest{X: x, Y: y, K: k}))
				assert.Equal(t, bruteForceNearest(present, x, y, k), got, "point (%v,%v) k=%d", x, y, k)
			}
		})
	}
}

func TestKNearestMoreThanAvailable(t *testing.T) {
	rt := newTestTree(t, 2, 4)
	for i := 0; i < 13; i++ {
		rt.Insert(testRecord{ID: i, BBox: BBox{float64(i), 0, float64(i), 0}})
	}

	got := ids(rt.Search(KNearest{X: 100, Y: 0, K: 50}))

	require.Len(t, got, 13)
	assert.Equal(t, []int{12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0}, got)
}

func TestKNearestTieBreak(t *testing.T) {
	rt := newTestTree(t, 2, 4)
	// Many records share one box, inserted in a scrambled order so that they
	// end up spread across several leaves.
	for _, id := range rand.New(rand.NewSource(4)).Perm(20) {
		rt.Insert(testRecord{ID: id, BBox: BBox{1, 1, 2, 2}})
	}
	rt.Insert(testRecord{ID: 100, BBox: BBox{0, 0, 0.5, 0.5}})

	got := ids(rt.Search(KNearest{X: 0, Y: 0, K: 6}))

	assert.Equal(t, []int{100, 0, 1, 2, 3, 4}, got)
}

func TestKNearestNonPositiveK(t *testing.T) {
	rt := newTestTree(t, 2, 4)
	rt.Insert(testRecord{ID: 1, BBox: BBox{0, 0, 1, 1}})

	assert.Empty(t, rt.Search(KNearest{X: 0, Y: 0, K: 0}))
	assert.Empty(t, rt.Search(KNearest{X: 0, Y: 0, K: -3}))
}

// bruteForceNearest orders every present record by distance then ID and
// returns the first k IDs.
func bruteForceNearest(present map[int]BBox, x, y float64, k int) []int {
	type cand struct {
		id   int
		dist float64
	}
	var all []cand
	for id, bb := range present {
		all = append(all, cand{id, bb.DistanceSquared(x, y)})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].dist != all[j].dist {
			return all[i].dist < all[j].dist
		}
		return all[i].id < all[j].id
	})
	if k > len(all) {
		k = len(all)
	}
	out := make([]int, k)
	for i := range out {
		out[i] = all[i].id
	}
	return out
}
