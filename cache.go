package region

import "unsafe"

// DebugChecks gates the extra bookkeeping validation that would be too
// costly to leave on in a release build: scanning a slab's free list on
// every free to catch a double free. It defaults to on; performance
// sensitive embedders that have otherwise validated their usage may turn it
// off.
var DebugChecks = true

// cacheAlloc serves one object from the cache at index, searching in order:
// partial slab, then free slab, then (if no free slab exists) a freshly
// formatted page. It returns 0 only when the region has no page left to
// format a new slab.
func (r *Region) cacheAlloc(index int) Offset {
	hdr := r.header()
	cache := &hdr.caches[index]

	var slabOffset Offset
	var slab *slabHeader

	if cache.partial.head != 0 {
		slabOffset = cache.partial.head
		slab = r.slabAt(slabOffset)
		if slab.freeObjCount == 1 {
			// This allocation will deplete the slab; move it to full now
			// so it is never observed sitting on partial with 0 free.
			cache.partial.count--
			cache.partial.head = slab.next
			slab.list = r.listOffset(&cache.full)
			slab.next = cache.full.head
			cache.full.count++
			cache.full.head = slabOffset
		}
	} else {
		if cache.free.head == 0 {
			if slabOffset = r.allocateSlab(index); slabOffset == 0 {
				return 0
			}
		} else {
			slabOffset = cache.free.head
		}
		slab = r.slabAt(slabOffset)
		cache.free.count--
		cache.free.head = slab.next

		if slab.freeObjCount == 1 {
			slab.list = r.listOffset(&cache.full)
			slab.next = cache.full.head
			cache.full.count++
			cache.full.head = slabOffset
		} else {
			slab.list = r.listOffset(&cache.partial)
			slab.next = cache.partial.head
			cache.partial.count++
			cache.partial.head = slabOffset
		}
	}

	slab.freeObjCount--
	object := slab.freeObjHead
	slab.freeObjHead = r.readOffset(object)
	return object
}

// allocateSlab formats a freshly allocated page as a slab for the cache at
// index and prepends it to that cache's free list, returning its offset (or
// 0 if no page was available). Objects are laid out right-aligned within
// the page so the last object ends exactly on the page boundary, and the
// free list threads them from last to first so that object 0 is the first
// one handed out.
func (r *Region) allocateSlab(index int) Offset {
	slabOffset := r.allocatePage()
	if slabOffset == 0 {
		return 0
	}
	r.markCachePage(uint64(slabOffset) / PageSize)

	hdr := r.header()
	cache := &hdr.caches[index]

	slab := r.slabAt(slabOffset)
	slab.cache = r.cacheOffset(index)
	slab.list = r.listOffset(&cache.free)
	slab.next = cache.free.head

	objects := slabOffset + PageSize - Offset(cache.objectCount*cache.alignedSize)
	slab.objects = objects
	slab.freeObjCount = cache.objectCount

	var next Offset
	obj := objects + Offset((cache.objectCount-1)*cache.alignedSize)
	for obj > objects {
		r.writeOffset(obj, next)
		next = obj
		obj -= Offset(cache.alignedSize)
	}
	r.writeOffset(objects, next)
	slab.freeObjHead = objects

	cache.free.head = slabOffset
	cache.free.count++
	return slabOffset
}

// cacheFree returns object to its slab's free-object list and, if that
// empties the slab of live objects entirely, moves the slab onto the
// cache's free list. The slab is unlinked from whichever of full/partial it
// was on by consulting slab.list rather than assuming partial, so both the
// full->free and partial->free transitions are handled uniformly.
func (r *Region) cacheFree(object Offset) {
	slabOffset := object &^ (PageSize - 1)
	slab := r.slabAt(slabOffset)
	cache := r.cacheDescAt(slab.cache)

	if DebugChecks {
		for free := slab.freeObjHead; free != 0; free = r.readOffset(free) {
			if free == object {
				panic("region: double free")
			}
		}
	}

	r.writeOffset(object, slab.freeObjHead)
	slab.freeObjHead = object
	slab.freeObjCount++

	if slab.freeObjCount == cache.objectCount {
		r.unlinkSlab(slab, slabOffset, cache)
		slab.list = r.listOffset(&cache.free)
		slab.next = cache.free.head
		cache.free.head = slabOffset
		cache.free.count++
		return
	}

	if slab.list == r.listOffset(&cache.full) {
		// A slab with a free slot must not stay registered on full, or
		// cacheAlloc (which only ever looks at partial then free) will
		// never find it again until every other object is freed too.
		r.unlinkSlab(slab, slabOffset, cache)
		slab.list = r.listOffset(&cache.partial)
		slab.next = cache.partial.head
		cache.partial.head = slabOffset
		cache.partial.count++
	}
}

// unlinkSlab removes slab from whichever of cache's full/partial lists
// slab.list currently identifies.
func (r *Region) unlinkSlab(slab *slabHeader, slabOffset Offset, cache *cacheDescriptor) {
	var list *slabList
	switch slab.list {
	case r.listOffset(&cache.full):
		list = &cache.full
	case r.listOffset(&cache.partial):
		list = &cache.partial
	default:
		return
	}

	if list.head == slabOffset {
		list.head = slab.next
		list.count--
		return
	}
	for cur := list.head; cur != 0; {
		curSlab := r.slabAt(cur)
		if curSlab.next == slabOffset {
			curSlab.next = slab.next
			list.count--
			return
		}
		cur = curSlab.next
	}
}

// listOffset returns the position-independent offset of a slabList field
// embedded in a cacheDescriptor within this region, used as slab.list.
func (r *Region) listOffset(list *slabList) Offset {
	base := uintptr(unsafe.Pointer(&r.buf[0]))
	return Offset(uintptr(unsafe.Pointer(list)) - base)
}
