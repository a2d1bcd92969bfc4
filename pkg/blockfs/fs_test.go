// file: pkg/blockfs/fs_test.go

package blockfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarnos/blockfs/pkg/disk"
)

// smallGeometry keeps images tiny and forces interesting layouts:
// one inode per table sector, six dirents per sector, and few enough
// data sectors that exhaustion is reachable in a test.
func smallGeometry() Geometry {
	return Geometry{
		SectorSize:        128,
		TotalSectors:      32,
		MaxFiles:          8,
		MaxSectorsPerFile: 24,
	}
}

func newTestFS(t *testing.T, g Geometry) *FileSystem {
	t.Helper()
	fs, err := BootGeometry(filepath.Join(t.TempDir(), "img.bin"), g)
	require.NoError(t, err)
	return fs
}

func TestBootFormatsMissingImage(t *testing.T) {
	// booting against a non-existent backing file creates a
	// formatted image of exactly the right size
	path := filepath.Join(t.TempDir(), "img.bin")
	fs, err := Boot(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultGeometry().ImageSize(), info.Size())

	n, err := fs.DirSize("/")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestFormatDeterminism(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.bin")
	b := filepath.Join(dir, "b.bin")
	_, err := BootGeometry(a, smallGeometry())
	require.NoError(t, err)
	_, err = BootGeometry(b, smallGeometry())
	require.NoError(t, err)

	da, err := os.ReadFile(a)
	require.NoError(t, err)
	db, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, da, db)
}

func TestMagicPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.bin")
	fs, err := BootGeometry(path, smallGeometry())
	require.NoError(t, err)
	require.NoError(t, fs.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xef, 0xbe, 0xad, 0xde}, data[:4])
}

func TestBootExistingImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.bin")
	fs, err := BootGeometry(path, smallGeometry())
	require.NoError(t, err)
	require.NoError(t, fs.DirCreate("/sub"))
	require.NoError(t, fs.Sync())

	fs2, err := BootGeometry(path, smallGeometry())
	require.NoError(t, err)
	n, err := fs2.DirSize("/")
	require.NoError(t, err)
	assert.Equal(t, direntSize, n)
}

func TestBootRejectsWrongSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 100), 0644))

	_, err := BootGeometry(path, smallGeometry())
	assert.Equal(t, ErrGeneral, err)
}

func TestBootRejectsBadMagic(t *testing.T) {
	g := smallGeometry()
	path := filepath.Join(t.TempDir(), "img.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, g.ImageSize()), 0644))

	_, err := BootGeometry(path, g)
	assert.Equal(t, ErrGeneral, err)
}

func TestFormatBitmaps(t *testing.T) {
	g := smallGeometry()
	fs := newTestFS(t, g)

	// inode bitmap: only the root bit
	for i := 0; i < g.MaxFiles; i++ {
		set, err := g.inodeBitmap().isSet(fs.d, i)
		require.NoError(t, err)
		assert.Equal(t, i == 0, set, "inode bit %d", i)
	}
	// sector bitmap: exactly the metadata prefix
	for s := 0; s < g.TotalSectors; s++ {
		set, err := g.sectorBitmap().isSet(fs.d, s)
		require.NoError(t, err)
		assert.Equal(t, s < g.DataStart(), set, "sector bit %d", s)
	}
}

func TestStats(t *testing.T) {
	g := smallGeometry()
	fs := newTestFS(t, g)

	st, err := fs.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, st.InodesUsed)
	assert.Equal(t, g.DataStart(), st.SectorsUsed)

	require.NoError(t, fs.FileCreate("/f"))
	st, err = fs.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, st.InodesUsed)
	// the new dirent allocated root's first data sector
	assert.Equal(t, g.DataStart()+1, st.SectorsUsed)
}

func TestSyncPersistsMutations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.bin")
	g := smallGeometry()
	fs, err := BootGeometry(path, g)
	require.NoError(t, err)

	require.NoError(t, fs.FileCreate("/f"))

	// before Sync the backing file still holds the freshly formatted
	// image
	d, err := disk.New(g.SectorSize, g.TotalSectors)
	require.NoError(t, err)
	require.NoError(t, d.Load(path))
	set, err := g.inodeBitmap().isSet(d, 1)
	require.NoError(t, err)
	assert.False(t, set)

	require.NoError(t, fs.Sync())
	require.NoError(t, d.Load(path))
	set, err = g.inodeBitmap().isSet(d, 1)
	require.NoError(t, err)
	assert.True(t, set)
}

func TestLastError(t *testing.T) {
	fs := newTestFS(t, smallGeometry())
	require.Error(t, fs.FileCreate("/nope/f"))
	assert.Equal(t, ErrCreate, fs.LastError())
}
