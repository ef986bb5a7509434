package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapAllocGrowsFromTail(t *testing.T) {
	r := newTestRegion(20)

	o1 := r.Alloc(4000)
	require.NotZero(t, o1)
	assert.True(t, r.isHeapPage(o1))

	o2 := r.Alloc(4000)
	require.NotZero(t, o2)
	assert.Less(t, uint64(o2), uint64(o1), "heap grows toward lower offsets")
}

func TestHeapFreeReusesBestFit(t *testing.T) {
	r := newTestRegion(20)

	small := r.Alloc(300)
	mid := r.Alloc(2 * PageSize)
	require.NotZero(t, small)
	require.NotZero(t, mid)

	// Free the larger block last so it heads the free list and best fit,
	// not list order, has to pick the smaller one.
	r.Free(small)
	r.Free(mid)

	// A request that fits the smaller freed block should reuse it rather
	// than the larger one. 260 is still above smallObjectMax, so this goes
	// through heapAlloc/findBestFit rather than a size-class cache.
	again := r.Alloc(260)
	require.NotZero(t, again)
	assert.Equal(t, small, again)
}

func TestHeapSplitReturnsRemainderToFreeList(t *testing.T) {
	r := newTestRegion(20)

	big := r.Alloc(3 * PageSize)
	require.NotZero(t, big)
	r.Free(big)

	small := r.Alloc(300)
	require.NotZero(t, small)

	stats := r.GetStats()
	assert.Greater(t, stats.HeapBytesFree, uint64(0), "remainder should have been split back onto the free list")
}

func TestHeapObjectDetection(t *testing.T) {
	r := newTestRegion(20)
	o := r.Alloc(500)
	require.NotZero(t, o)
	assert.True(t, r.IsObject(o))
	assert.True(t, r.isHeapPage(o))
	assert.False(t, r.isCachePage(o))
}
