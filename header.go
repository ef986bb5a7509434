package region

import "unsafe"

// Offset is a position-independent reference into a Region: a byte distance
// from the region's base. It is stored in place of every pointer the
// allocator would otherwise need, which is what lets a Region be unmapped,
// copy-on-write duplicated, or remapped without invalidating anything it
// has handed out. Offset 0 means "null" and is never a valid object.
type Offset uint64

// Swizzle converts offset into a pointer valid in the current process only.
// The returned pointer must not be retained past the lifetime of r's
// backing mapping, and must not be written to persisted state; doing so
// would reintroduce a machine address into the region.
func (r *Region) Swizzle(offset Offset) unsafe.Pointer {
	return unsafe.Pointer(&r.buf[offset])
}

// Unswizzle is the inverse of Swizzle: it recovers the offset of a pointer
// obtained from this same Region in this same process.
func (r *Region) Unswizzle(ptr unsafe.Pointer) Offset {
	base := uintptr(unsafe.Pointer(&r.buf[0]))
	return Offset(uintptr(ptr) - base)
}

// Bytes returns a slice view of n bytes starting at offset. It is the
// ordinary way Go code reads or writes an allocated object; Swizzle exists
// for interop with code that needs a bare pointer.
func (r *Region) Bytes(offset Offset, n uint64) []byte {
	return r.buf[offset : offset+Offset(n)]
}

// bitsetDescriptor locates one page bitmap: size bytes starting at bits.
// Bit k (page index k) lives at byte[k/8], bit (7 - k%8), MSB first.
type bitsetDescriptor struct {
	bits Offset
	size uint64 // bytes
}

// slabList is the head and count of one of a cache's three slab lists
// (full, partial, free).
type slabList struct {
	head  Offset
	count uint64
}

// cacheDescriptor describes one size-class cache. It is entirely
// self-contained and position-independent: every reference it holds is an
// Offset, so the descriptor (and the slabs it owns) survive the region
// being remapped at a new address.
type cacheDescriptor struct {
	name        [16]byte
	objectSize  uint64
	alignment   uint64
	alignedSize uint64
	objectCount uint64
	full        slabList
	partial     slabList
	free        slabList
}

// regionHeader is the root structure embedded at offset 0 of every region.
// It always occupies (a prefix of) the first page.
type regionHeader struct {
	size        uint64
	pages       Offset // first page available for slab/heap data
	freePage    Offset // hint: offset of a page believed free, 0 if none
	heapBitmap  bitsetDescriptor
	cacheBitmap bitsetDescriptor
	heapTail     uint64 // offset below which the heap has not yet grown
	heapFreeHead Offset // head of the heap's doubly-linked free-block list
	tailReserved uint64 // bytes reserved at the tail for bitmaps (0 if they live in the header page)
	cachesCount  uint64
	caches      [maxCaches]cacheDescriptor
}

const regionHeaderSize = unsafe.Sizeof(regionHeader{})

// slabHeader occupies the first bytes of every slab page. A slab's
// page-aligned base can always be recovered from any object it owns by
// masking the object's offset with ^(PageSize-1).
type slabHeader struct {
	cache        Offset // offset of the owning cacheDescriptor
	list         Offset // offset of the slabList field currently linking this slab
	next         Offset // offset of the next slab on that list
	objects      Offset // offset of the first object slot
	freeObjHead  Offset // offset of the first free object slot, 0 if none
	freeObjCount uint64
}

const slabHeaderSize = unsafe.Sizeof(slabHeader{})

// heapHeader precedes every heap (large object) allocation. size covers the
// header itself plus the payload, rounded up to a whole number of pages;
// prev/next thread the header through the heap's free list and are only
// meaningful while the block is free.
type heapHeader struct {
	size uint64
	prev Offset
	next Offset
}

const heapHeaderSize = unsafe.Sizeof(heapHeader{})

func (r *Region) header() *regionHeader {
	return (*regionHeader)(unsafe.Pointer(&r.buf[0]))
}

func (r *Region) slabAt(off Offset) *slabHeader {
	return (*slabHeader)(unsafe.Pointer(&r.buf[off]))
}

func (r *Region) cacheDescAt(off Offset) *cacheDescriptor {
	return (*cacheDescriptor)(unsafe.Pointer(&r.buf[off]))
}

func (r *Region) heapHeaderAt(off Offset) *heapHeader {
	return (*heapHeader)(unsafe.Pointer(&r.buf[off]))
}

// cacheOffset returns the offset of the i'th cache descriptor, used as the
// position-independent back-reference slabs carry to their owning cache.
func (r *Region) cacheOffset(i int) Offset {
	base := unsafe.Pointer(&r.buf[0])
	hdr := (*regionHeader)(base)
	return Offset(uintptr(unsafe.Pointer(&hdr.caches[i])) - uintptr(base))
}

// readOffset/writeOffset access an Offset-sized word stored inside an
// object slot, used for the intrusive free-object list, where the payload
// area itself carries the link.
func (r *Region) readOffset(at Offset) Offset {
	return *(*Offset)(unsafe.Pointer(&r.buf[at]))
}

func (r *Region) writeOffset(at Offset, v Offset) {
	*(*Offset)(unsafe.Pointer(&r.buf[at])) = v
}
