package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitGetSetClearRoundTrip(t *testing.T) {
	buf := make([]byte, 8)
	base := Offset(0)

	assert.False(t, bitGet(buf, base, 5))
	bitSet(buf, base, 5)
	assert.True(t, bitGet(buf, base, 5))
	// MSB-first: bit 0 is the top bit of byte 0.
	assert.Equal(t, byte(1<<2), buf[0])

	bitClear(buf, base, 5)
	assert.False(t, bitGet(buf, base, 5))
	assert.Equal(t, byte(0), buf[0])
}

func TestNextFreePageFromSkipsFullBytes(t *testing.T) {
	r := newTestRegion(20)
	hdr := r.header()
	total := hdr.size / PageSize

	// Mark the first 16 pages (2 bytes worth) busy in the heap bitmap.
	for p := uint64(0); p < 16; p++ {
		r.markHeapPage(p)
	}

	next, ok := r.nextFreePageFrom(0, total)
	assert.True(t, ok)
	assert.Equal(t, uint64(16), next)
}

func TestNextFreePageFromHonorsStartOffset(t *testing.T) {
	r := newTestRegion(20)
	total := r.header().size / PageSize

	next, ok := r.nextFreePageFrom(5, total)
	assert.True(t, ok)
	assert.GreaterOrEqual(t, next, uint64(5))
}

func TestNextFreePageFromReturnsFalseWhenExhausted(t *testing.T) {
	r := newTestRegion(20)
	total := r.header().size / PageSize
	for p := uint64(0); p < total; p++ {
		r.markHeapPage(p)
	}
	_, ok := r.nextFreePageFrom(0, total)
	assert.False(t, ok)
}
