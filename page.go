package region

// allocatePage hands out one page-aligned page at a time using free_page as
// a hint for where to look next, so that most allocations cost a handful of
// byte comparisons rather than a full bitmap scan. Pages are always taken in
// ascending offset order; a page released at a lower offset than the
// current hint is picked up again immediately (see releasePage), but a
// freed page is otherwise not reconsidered until the hint reaches it.
//
// It does not mark the page in either bitmap; the caller (slab
// allocation, heap growth) does that once it knows whether the page is
// becoming a slab or a heap block.
func (r *Region) allocatePage() Offset {
	hdr := r.header()
	page := hdr.freePage
	if page == 0 {
		return 0
	}

	// Pages reserved at the tail for the bitmaps themselves (see
	// layoutBitmaps) are never valid data pages; excluding them from the
	// scan bound keeps the page allocator from handing one out and letting
	// a slab or heap block overwrite the bitmaps' own backing bytes.
	usablePages := (hdr.size - hdr.tailReserved) / PageSize
	next, ok := r.nextFreePageFrom(uint64(page)/PageSize+1, usablePages)
	if ok {
		hdr.freePage = Offset(next * PageSize)
	} else {
		hdr.freePage = 0
	}
	return page
}

// releasePage clears both bitmap bits for the page containing offset and,
// if it precedes the current free_page hint, moves the hint back to it, so
// a page freed below the hint is reused before the region grows further
// rather than being stranded until the hint's forward scan reaches it.
func (r *Region) releasePage(offset Offset) {
	hdr := r.header()
	page := offset &^ (PageSize - 1)
	r.clearPage(uint64(page) / PageSize)
	if hdr.freePage == 0 || page < hdr.freePage {
		hdr.freePage = page
	}
}
