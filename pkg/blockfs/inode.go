// file: pkg/blockfs/inode.go

package blockfs

import (
	"github.com/tchajed/marshal"
)

const (
	typeFile int32 = 0
	typeDir  int32 = 1
)

// inode is the fixed-size metadata record for one file or directory.
// Size counts bytes for a file and live directory entries for a
// directory. Data holds data sector indices, filled densely from
// index 0; unused slots are 0 (sector 0 is the superblock and can
// never be a data sector).
type inode struct {
	Size int32
	Type int32
	Data []int32 // len == Geometry.MaxSectorsPerFile
}

func newInode(g Geometry, kind int32) inode {
	return inode{Type: kind, Data: make([]int32, g.MaxSectorsPerFile)}
}

// encodeInode packs ino into its little-endian on-disk form.
func encodeInode(g Geometry, ino inode) []byte {
	enc := marshal.NewEnc(uint64(g.InodeSize()))
	enc.PutInt32(uint32(ino.Size))
	enc.PutInt32(uint32(ino.Type))
	for _, s := range ino.Data {
		enc.PutInt32(uint32(s))
	}
	return enc.Finish()
}

func decodeInode(g Geometry, b []byte) inode {
	dec := marshal.NewDec(b)
	ino := inode{
		Size: int32(dec.GetInt32()),
		Type: int32(dec.GetInt32()),
		Data: make([]int32, g.MaxSectorsPerFile),
	}
	for i := range ino.Data {
		ino.Data[i] = int32(dec.GetInt32())
	}
	return ino
}

// allocatedSectors is the number of data sectors a file of this size
// owns.
func (ino inode) allocatedSectors(g Geometry) int {
	return ceilDiv(int(ino.Size), g.SectorSize)
}

// inodeCache holds the most recently read inode table sector. Each
// path resolution (and each operation that follows one) carries its
// own cache; there is no cross-call sharing. Writes always go
// straight to disk through the cache buffer, so a loaded sector is
// never stale.
type inodeCache struct {
	sector int
	buf    []byte
}

func (fs *FileSystem) newInodeCache() *inodeCache {
	return &inodeCache{sector: -1, buf: make([]byte, fs.geo.SectorSize)}
}

// inodeSector returns the inode table sector holding inode i.
func (fs *FileSystem) inodeSector(i int) int {
	return fs.geo.InodeTableStart() + i/fs.geo.InodesPerSector()
}

func (fs *FileSystem) loadInodeSector(c *inodeCache, sector int) error {
	if c.sector == sector {
		return nil
	}
	if err := fs.d.Read(sector, c.buf); err != nil {
		c.sector = -1
		return err
	}
	c.sector = sector
	return nil
}

// readInode fetches inode i, going to disk only when the cache holds
// a different inode table sector.
func (fs *FileSystem) readInode(c *inodeCache, i int) (inode, error) {
	if i < 0 || i >= fs.geo.MaxFiles {
		return inode{}, ErrGeneral
	}
	if err := fs.loadInodeSector(c, fs.inodeSector(i)); err != nil {
		return inode{}, err
	}
	off := (i % fs.geo.InodesPerSector()) * fs.geo.InodeSize()
	return decodeInode(fs.geo, c.buf[off:off+fs.geo.InodeSize()]), nil
}

// writeInode stores inode i, patching the record inside its table
// sector and writing the sector back immediately.
func (fs *FileSystem) writeInode(c *inodeCache, i int, ino inode) error {
	if i < 0 || i >= fs.geo.MaxFiles {
		return ErrGeneral
	}
	sector := fs.inodeSector(i)
	if err := fs.loadInodeSector(c, sector); err != nil {
		return err
	}
	off := (i % fs.geo.InodesPerSector()) * fs.geo.InodeSize()
	copy(c.buf[off:off+fs.geo.InodeSize()], encodeInode(fs.geo, ino))
	return fs.d.Write(sector, c.buf)
}
