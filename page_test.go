package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocatePageAdvancesHint(t *testing.T) {
	r := newTestRegion(20)
	hdr := r.header()

	first := r.allocatePage()
	require.NotZero(t, first)
	assert.Greater(t, uint64(hdr.freePage), uint64(first))
}

func TestReleasePageRewindsHintToLowerOffset(t *testing.T) {
	r := newTestRegion(20)
	hdr := r.header()

	p1 := r.allocatePage()
	r.markHeapPage(uint64(p1) / PageSize)
	p2 := r.allocatePage()
	r.markHeapPage(uint64(p2) / PageSize)
	p3 := r.allocatePage()
	r.markHeapPage(uint64(p3) / PageSize)

	require.Greater(t, uint64(hdr.freePage), uint64(p1))

	r.releasePage(p1)
	assert.Equal(t, p1, hdr.freePage, "freeing a page below the hint rewinds it")
}

// TestAllocatePageExcludesTailReservedBitmapPages forces a region large
// enough that the page bitmaps no longer fit in the header page and are
// relocated to reserved pages at the region's tail (see layoutBitmaps). The
// page allocator must never hand out one of those pages as ordinary slab or
// heap storage, or a later write through it would corrupt the bitmaps'
// backing bytes.
func TestAllocatePageExcludesTailReservedBitmapPages(t *testing.T) {
	const sizePages = 9000 // comfortably past the header-page bitmap threshold
	r := newTestRegion(sizePages)
	hdr := r.header()
	require.Greater(t, uint64(hdr.tailReserved), uint64(0), "region should be large enough to relocate bitmaps to the tail")

	tailStart := hdr.size - hdr.tailReserved

	var allocated []Offset
	for {
		p := r.allocatePage()
		if p == 0 {
			break
		}
		require.Less(t, uint64(p), tailStart, "allocatePage handed out a bitmap-reserved tail page")
		r.markHeapPage(uint64(p) / PageSize)
		allocated = append(allocated, p)
	}
	assert.NotEmpty(t, allocated)
}

func TestReleasePageLeavesHintAloneWhenHigher(t *testing.T) {
	r := newTestRegion(20)
	hdr := r.header()

	hintBefore := hdr.freePage
	farPage := Offset((hdr.size/PageSize - 1) * PageSize)
	require.Greater(t, uint64(farPage), uint64(hintBefore))

	r.releasePage(farPage)
	assert.Equal(t, hintBefore, hdr.freePage)
}
