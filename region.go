// Package region implements a position-independent, region-based object
// allocator. All allocator state lives inside a single byte slice supplied
// by the caller (typically backing a shared or copy-on-write mmap), and
// every reference into that slice is an Offset rather than a machine
// pointer. A Region can therefore be unmapped, duplicated via copy-on-write,
// or remapped at a different virtual address without invalidating anything
// it handed out.
//
// The allocator does not resize its backing slice, does not synchronize
// concurrent mutators, and does not manage the underlying file descriptor
// or mapping; callers are expected to serialize access and own the
// mapping lifecycle themselves.
package region

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// PageSize is the granularity at which the region hands out memory to its
// page allocator, slab cache and heap. It must match the granularity used
// by whatever backs the mapping; 4096 matches every supported platform.
const PageSize = 4096

// maxCaches bounds how many size-class caches a region header can describe.
// Space for the full array is reserved in the header regardless of how many
// caches are actually configured at Init time.
const maxCaches = 20

// Region is a handle onto a caller-supplied byte slice holding both the
// allocator's administrative state and every object it has allocated. The
// handle itself carries no persisted state of its own; everything that
// matters is embedded in buf at byte offset 0, so two Region values wrapping
// the same bytes (e.g. one per process sharing a mapping) observe identical
// allocator state.
type Region struct {
	buf []byte

	// id is a process-local correlation identifier used only for log
	// messages; it is never written into buf and has no bearing on the
	// allocator's behavior.
	id uuid.UUID

	log *slog.Logger
}

// SetLogger attaches a logger used for diagnostic messages (out-of-space
// conditions in Alloc). A nil logger logs nothing; by default Init and
// Open attach slog.Default().
func (r *Region) SetLogger(l *slog.Logger) { r.log = l }

// ID returns a process-local identifier for this Region handle, suitable for
// correlating log lines. It is not persisted and is not stable across
// processes mapping the same region.
func (r *Region) ID() uuid.UUID { return r.id }

// Size returns the total number of bytes in the region.
func (r *Region) Size() uint64 { return r.header().size }

// Init lays down a region header and the preconfigured small-object caches
// over buf, which must already be zeroed (a freshly ftruncate'd mapping
// satisfies this; reused memory does not and must be zeroed by the caller
// first). buf's length must be page-aligned and large enough to hold the
// header plus at least one data page per preconfigured cache.
//
// Init does not take ownership of buf's lifecycle; the caller maps, unmaps
// and resizes it.
func Init(buf []byte) (*Region, error) {
	size := uint64(len(buf))
	if size == 0 || size%PageSize != 0 {
		return nil, wrapf(ErrMisaligned, "region: size %d is not a non-zero multiple of page size %d", size, PageSize)
	}
	if regionHeaderSize > PageSize {
		return nil, fmt.Errorf("region: header %d bytes does not fit in one page", regionHeaderSize)
	}
	sizePages := size / PageSize
	if sizePages <= uint64(len(presetCaches)) {
		return nil, wrapf(ErrOutOfBounds, "region: %d pages is not enough for %d preset caches", sizePages, len(presetCaches))
	}

	r := &Region{buf: buf, id: uuid.New(), log: slog.Default()}
	hdr := r.header()
	hdr.size = size
	hdr.pages = PageSize
	hdr.freePage = PageSize

	if err := r.layoutBitmaps(sizePages); err != nil {
		return nil, err
	}
	hdr.heapTail = size - hdr.tailReserved

	for _, preset := range presetCaches {
		if err := r.initCache(preset.name, preset.size, preset.align); err != nil {
			return nil, err
		}
	}
	r.log.Debug("region initialized", "id", r.id, "size", size, "pages", sizePages)
	return r, nil
}

// Open wraps an already-initialized region (e.g. a second process's view of
// the same shared mapping, or a COW duplicate). It performs only a minimal
// sanity check of the header; it cannot, by design, tell a corrupt region
// apart from one it has never seen.
func Open(buf []byte) (*Region, error) {
	if uint64(len(buf)) < PageSize {
		return nil, wrapf(ErrOutOfBounds, "region: buffer smaller than one page")
	}
	r := &Region{buf: buf, id: uuid.New(), log: slog.Default()}
	hdr := r.header()
	if hdr.size == 0 || hdr.size != uint64(len(buf)) || hdr.size%PageSize != 0 {
		return nil, wrapf(ErrOutOfBounds, "region: header size %d does not match buffer length %d", hdr.size, len(buf))
	}
	r.log.Debug("region opened", "id", r.id, "size", hdr.size)
	return r, nil
}

// Alloc returns an offset to size bytes of newly allocated, unzeroed memory,
// or 0 if size is 0 or the region has no space left. Requests of up to 256
// bytes are served from the size-class slab caches; larger requests are
// served from the tail-growing best-fit heap.
func (r *Region) Alloc(size uint64) Offset {
	if size == 0 {
		return 0
	}
	var off Offset
	if size <= smallObjectMax {
		idx := sizeClassTable[(size-1)>>3]
		off = r.cacheAlloc(int(idx))
	} else {
		off = r.heapAlloc(size)
	}
	if off == 0 && r.log != nil {
		r.log.Debug("region: allocation failed, out of space", "id", r.id, "size", size)
	}
	return off
}

// Free releases the object at offset, previously returned by Alloc. Freeing
// an offset outside the region's valid range, or one that is not
// 8-byte aligned, is a silent no-op. Freeing an offset that was already
// freed is a programmer error; in debug builds (the default, see
// DebugChecks) it is detected and panics, in release builds it is
// undefined behavior.
func (r *Region) Free(offset Offset) {
	hdr := r.header()
	if offset == 0 || uint64(offset) <= uint64(hdr.pages) || uint64(offset) >= hdr.size {
		return
	}
	if offset&0x7 != 0 {
		return
	}
	if r.isCachePage(offset) {
		r.cacheFree(offset)
	} else if r.isHeapPage(offset) {
		r.heapFree(offset)
	}
}

// IsObject reports whether offset can name an allocated object: it must
// fall strictly inside the data area, be 8-byte aligned, and its containing
// page must be marked in exactly one of the cache/heap bitmaps. It checks
// pages, not slots: a slab page keeps its cache bit after its objects are
// freed, so any aligned offset on it passes whether or not its slot is
// currently allocated.
func (r *Region) IsObject(offset Offset) bool {
	hdr := r.header()
	if offset == 0 || uint64(offset) <= uint64(hdr.pages) || uint64(offset) >= hdr.size {
		return false
	}
	if offset&0x7 != 0 {
		return false
	}
	return r.isCachePage(offset) != r.isHeapPage(offset)
}
