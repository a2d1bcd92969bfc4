// file: pkg/blockfs/bitmap_test.go

package blockfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarnos/blockfs/pkg/disk"
)

// a bitmap spanning two sectors: 64-byte sectors hold 512 bits each,
// so 600 bits of capacity forces the allocator across the boundary
func testBitmap(t *testing.T) (bitmap, *disk.Disk) {
	t.Helper()
	d, err := disk.New(64, 4)
	require.NoError(t, err)
	return bitmap{start: 1, sectors: 2, bits: 600}, d
}

func TestBitmapInitPrefix(t *testing.T) {
	bm, d := testBitmap(t)
	require.NoError(t, bm.init(d, 11))

	buf := make([]byte, 64)
	require.NoError(t, d.Read(1, buf))
	// 11 ones MSB-first: 0xff, 0xe0, then zeros
	assert.Equal(t, byte(0xff), buf[0])
	assert.Equal(t, byte(0xe0), buf[1])
	for i := 2; i < len(buf); i++ {
		assert.Equal(t, byte(0), buf[i])
	}
	require.NoError(t, d.Read(2, buf))
	assert.Equal(t, make([]byte, 64), buf)
}

func TestBitmapInitSpansSectors(t *testing.T) {
	bm, d := testBitmap(t)
	require.NoError(t, bm.init(d, 515))

	buf := make([]byte, 64)
	require.NoError(t, d.Read(1, buf))
	for i := range buf {
		assert.Equal(t, byte(0xff), buf[i], "byte %d of first sector", i)
	}
	require.NoError(t, d.Read(2, buf))
	assert.Equal(t, byte(0xe0), buf[0]) // bits 512..514
	assert.Equal(t, byte(0), buf[1])
}

func TestBitmapAllocateAscending(t *testing.T) {
	bm, d := testBitmap(t)
	require.NoError(t, bm.init(d, 3))

	for want := 3; want < 8; want++ {
		got, err := bm.allocate(d)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestBitmapAllocateAcrossSectorBoundary(t *testing.T) {
	bm, d := testBitmap(t)
	require.NoError(t, bm.init(d, 512))

	got, err := bm.allocate(d)
	require.NoError(t, err)
	assert.Equal(t, 512, got)
}

func TestBitmapFreeThenReuse(t *testing.T) {
	bm, d := testBitmap(t)
	require.NoError(t, bm.init(d, 10))

	require.NoError(t, bm.free(d, 4))
	got, err := bm.allocate(d)
	require.NoError(t, err)
	assert.Equal(t, 4, got)

	// the freed-and-reallocated bit leaves the rest intact
	got, err = bm.allocate(d)
	require.NoError(t, err)
	assert.Equal(t, 10, got)
}

func TestBitmapExhaustion(t *testing.T) {
	bm, d := testBitmap(t)
	require.NoError(t, bm.init(d, bm.bits))

	_, err := bm.allocate(d)
	assert.Equal(t, errBitmapFull, err)

	require.NoError(t, bm.free(d, 599))
	got, err := bm.allocate(d)
	require.NoError(t, err)
	assert.Equal(t, 599, got)
}

func TestBitmapCountSet(t *testing.T) {
	bm, d := testBitmap(t)
	require.NoError(t, bm.init(d, 37))

	n, err := bm.countSet(d)
	require.NoError(t, err)
	assert.Equal(t, 37, n)

	require.NoError(t, bm.free(d, 0))
	n, err = bm.countSet(d)
	require.NoError(t, err)
	assert.Equal(t, 36, n)
}
