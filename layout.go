package region

import "fmt"

// smallObjectMax is the largest request size served by a slab cache;
// anything bigger goes to the heap.
const smallObjectMax = 256

// presetCache describes one of the size classes Init configures
// automatically. Every region always has exactly these six caches, in this
// order, at cache indexes 0..5.
type presetCache struct {
	name  string
	size  uint64
	align uint64
}

var presetCaches = [6]presetCache{
	{"region-8", 8, 8},
	{"region-16", 16, 8},
	{"region-32", 32, 8},
	{"region-64", 64, 8},
	{"region-128", 128, 8},
	{"region-256", 256, 8},
}

// sizeClassTable maps (size-1)>>3, for size in [1,256], to a preset cache
// index. Entry i covers requests in ((i*8), (i+1)*8].
var sizeClassTable = [32]uint8{
	0, 1, 2, 2, 3, 3, 3, 3,
	4, 4, 4, 4, 4, 4, 4, 4,
	5, 5, 5, 5, 5, 5, 5, 5,
	5, 5, 5, 5, 5, 5, 5, 5,
}

func alignedSize(size, align uint64) uint64 {
	if align == 0 {
		align = 8
	}
	if align > size {
		return align
	}
	return align * ((size + align - 1) / align)
}

// initCache installs the next preconfigured cache descriptor in the header.
func (r *Region) initCache(name string, size, align uint64) error {
	hdr := r.header()
	if hdr.cachesCount >= maxCaches {
		return fmt.Errorf("region: no space left for cache %q", name)
	}
	c := &hdr.caches[hdr.cachesCount]
	hdr.cachesCount++

	n := copy(c.name[:len(c.name)-1], name)
	c.name[n] = 0
	c.objectSize = size
	c.alignment = align
	c.alignedSize = alignedSize(size, align)
	slabSpace := uint64(PageSize) - uint64(slabHeaderSize)
	c.objectCount = slabSpace / c.alignedSize
	if c.objectCount == 0 {
		return fmt.Errorf("region: object size %d too large for a slab page", c.alignedSize)
	}
	return nil
}

// layoutBitmaps places the heap and cache page bitmaps, preferring the
// unused tail of the header page and falling back to pages reserved at the
// region's tail when the region spans enough pages that two bitmaps no
// longer fit alongside the header.
func (r *Region) layoutBitmaps(sizePages uint64) error {
	hdr := r.header()

	bitmapBytes := (sizePages + 7) / 8
	if rem := bitmapBytes % 8; rem != 0 {
		bitmapBytes += 8 - rem
	}

	unusedInHeader := uint64(PageSize) - uint64(regionHeaderSize)
	if 2*bitmapBytes <= unusedInHeader {
		hdr.heapBitmap.bits = Offset(regionHeaderSize)
		hdr.heapBitmap.size = bitmapBytes
		hdr.cacheBitmap.bits = Offset(uint64(regionHeaderSize) + bitmapBytes)
		hdr.cacheBitmap.size = bitmapBytes
		hdr.tailReserved = 0
		return nil
	}

	bitmapPages := (2*bitmapBytes + PageSize - 1) / PageSize
	tailReserved := bitmapPages * PageSize
	sizePagesAfterCaches := sizePages - uint64(len(presetCaches))
	if bitmapPages >= sizePagesAfterCaches {
		return fmt.Errorf("region: %d pages insufficient once %d pages are reserved for bitmaps", sizePages, bitmapPages)
	}

	hdr.heapBitmap.bits = Offset(hdr.size - tailReserved)
	hdr.heapBitmap.size = bitmapBytes
	hdr.cacheBitmap.bits = Offset(hdr.size - tailReserved + bitmapBytes)
	hdr.cacheBitmap.size = bitmapBytes
	hdr.tailReserved = tailReserved
	return nil
}
