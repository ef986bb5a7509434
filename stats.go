package region

// CacheStats reports the utilization of one size-class cache.
type CacheStats struct {
	Name        string
	ObjectSize  uint64
	ObjectCount uint64
	FullSlabs   uint64
	PartialSlabs uint64
	FreeSlabs   uint64
	FreeObjects uint64
}

// Stats summarizes a region's page and cache occupancy. It is a read-only
// snapshot computed on demand; nothing here is persisted.
type Stats struct {
	Size         uint64
	TotalPages   uint64
	FreePages    uint64
	HeapPages    uint64
	CachePages   uint64
	HeapBytesFree uint64
	Caches       []CacheStats
}

// GetStats walks the header and every cache's slab lists to produce a
// point-in-time usage snapshot, primarily intended for metrics export (see
// Collector) and debugging.
func (r *Region) GetStats() Stats {
	hdr := r.header()
	totalPages := hdr.size / PageSize

	var heapPages, cachePages uint64
	for p := uint64(0); p < totalPages; p++ {
		if r.heapBitGet(p) {
			heapPages++
		}
		if r.cacheBitGet(p) {
			cachePages++
		}
	}

	caches := make([]CacheStats, 0, hdr.cachesCount)
	for i := uint64(0); i < hdr.cachesCount; i++ {
		c := &hdr.caches[i]
		freeObjects := r.sumSlabFree(c.partial.head) + r.sumSlabFree(c.free.head)

		name := c.name[:]
		for i, b := range name {
			if b == 0 {
				name = name[:i]
				break
			}
		}
		caches = append(caches, CacheStats{
			Name:         string(name),
			ObjectSize:   c.objectSize,
			ObjectCount:  c.objectCount,
			FullSlabs:    c.full.count,
			PartialSlabs: c.partial.count,
			FreeSlabs:    c.free.count,
			FreeObjects:  freeObjects,
		})
	}

	var heapFree uint64
	for cur := hdr.heapFreeHead; cur != 0; cur = r.heapHeaderAt(cur).next {
		heapFree += r.heapHeaderAt(cur).size
	}

	return Stats{
		Size:          hdr.size,
		TotalPages:    totalPages,
		FreePages:     totalPages - heapPages - cachePages,
		HeapPages:     heapPages,
		CachePages:    cachePages,
		HeapBytesFree: heapFree,
		Caches:        caches,
	}
}

func (r *Region) sumSlabFree(head Offset) uint64 {
	var n uint64
	for cur := head; cur != 0; {
		slab := r.slabAt(cur)
		n += slab.freeObjCount
		cur = slab.next
	}
	return n
}
