// file: pkg/blockfs/fs.go

package blockfs

import (
	"errors"

	"github.com/tchajed/marshal"

	"github.com/quarnos/blockfs/pkg/disk"
)

// FileSystem is a hierarchical namespace of files and directories
// stored on a simulated sector disk backed by a single host image
// file. All operations are synchronous and single-threaded; mutations
// reach the in-memory disk immediately and the backing file only on
// Sync.
type FileSystem struct {
	geo     Geometry
	d       *disk.Disk
	backing string
	open    [MaxOpenFiles]openFile
	lastErr error
}

// openFile is one slot of the process-wide open file table.
type openFile struct {
	used  bool
	inode int
	size  int
	pos   int
}

// Boot opens the image at backing with the default geometry,
// formatting a fresh image if the file does not exist yet.
func Boot(backing string) (*FileSystem, error) {
	return BootGeometry(backing, DefaultGeometry())
}

// BootGeometry opens or formats the image at backing. An existing
// file must have exactly the geometry's image size and carry the
// superblock magic; any mismatch is a general error. Either way the
// open file table starts empty.
func BootGeometry(backing string, g Geometry) (*FileSystem, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	d, err := disk.New(g.SectorSize, g.TotalSectors)
	if err != nil {
		return nil, ErrGeneral
	}
	fs := &FileSystem{geo: g, d: d, backing: backing}

	switch err := d.Load(backing); {
	case err == nil:
		if !fs.checkMagic() {
			return nil, fs.fail(ErrGeneral)
		}
	case errors.Is(err, disk.ErrOpenImage):
		if err := fs.format(); err != nil {
			return nil, fs.fail(ErrGeneral)
		}
	default:
		// present but unreadable or the wrong size
		return nil, fs.fail(ErrGeneral)
	}
	return fs, nil
}

// Sync persists the in-memory disk to the backing file.
func (fs *FileSystem) Sync() error {
	if err := fs.d.Save(fs.backing); err != nil {
		return fs.fail(ErrGeneral)
	}
	return nil
}

// Geometry returns the image geometry.
func (fs *FileSystem) Geometry() Geometry { return fs.geo }

func (fs *FileSystem) checkMagic() bool {
	buf := make([]byte, fs.geo.SectorSize)
	if err := fs.d.Read(superblockSector, buf); err != nil {
		return false
	}
	dec := marshal.NewDec(buf[:4])
	return dec.GetInt32() == Magic
}

// format lays down a fresh image: superblock magic, inode bitmap with
// the root inode reserved, sector bitmap with every metadata sector
// reserved, a zeroed inode table whose entry 0 is the root directory,
// and a first save of the backing file.
func (fs *FileSystem) format() error {
	g := fs.geo

	buf := make([]byte, g.SectorSize)
	enc := marshal.NewEnc(4)
	enc.PutInt32(Magic)
	copy(buf, enc.Finish())
	if err := fs.d.Write(superblockSector, buf); err != nil {
		return err
	}

	if err := g.inodeBitmap().init(fs.d, 1); err != nil {
		return err
	}
	if err := g.sectorBitmap().init(fs.d, g.DataStart()); err != nil {
		return err
	}

	zero := make([]byte, g.SectorSize)
	for i := 0; i < g.InodeTableSectors(); i++ {
		sec := zero
		if i == 0 {
			sec = make([]byte, g.SectorSize)
			copy(sec, encodeInode(g, newInode(g, typeDir)))
		}
		if err := fs.d.Write(g.InodeTableStart()+i, sec); err != nil {
			return err
		}
	}

	return fs.d.Save(fs.backing)
}

// Stats reports live inode and sector usage.
type Stats struct {
	InodesUsed   int
	InodesTotal  int
	SectorsUsed  int // includes the reserved metadata sectors
	SectorsTotal int
}

// Stats counts the set bits of both bitmaps.
func (fs *FileSystem) Stats() (Stats, error) {
	inodes, err := fs.geo.inodeBitmap().countSet(fs.d)
	if err != nil {
		return Stats{}, fs.fail(ErrGeneral)
	}
	sectors, err := fs.geo.sectorBitmap().countSet(fs.d)
	if err != nil {
		return Stats{}, fs.fail(ErrGeneral)
	}
	return Stats{
		InodesUsed:   inodes,
		InodesTotal:  fs.geo.MaxFiles,
		SectorsUsed:  sectors,
		SectorsTotal: fs.geo.TotalSectors,
	}, nil
}

// undoLog collects compensation actions for bitmap bits allocated
// inside one operation. A failed operation runs its log in reverse so
// no bits leak; a successful one discards it.
type undoLog struct {
	fs      *FileSystem
	actions []func()
}

func (u *undoLog) allocatedInode(i int) {
	u.actions = append(u.actions, func() { _ = u.fs.geo.inodeBitmap().free(u.fs.d, i) })
}

func (u *undoLog) allocatedSector(s int) {
	u.actions = append(u.actions, func() { _ = u.fs.geo.sectorBitmap().free(u.fs.d, s) })
}

func (u *undoLog) rollback() {
	for i := len(u.actions) - 1; i >= 0; i-- {
		u.actions[i]()
	}
	u.actions = nil
}
