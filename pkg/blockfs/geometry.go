// file: pkg/blockfs/geometry.go

package blockfs

const (
	// MaxName is the maximum file name length, including the
	// terminating zero byte of the on-disk representation.
	MaxName = 16
	// MaxPath is the maximum path length, including the terminator.
	MaxPath = 256
	// MaxOpenFiles is the capacity of the open file table.
	MaxOpenFiles = 256

	// Magic identifies a formatted image, stored at the start of
	// sector 0.
	Magic uint32 = 0xdeadbeef

	superblockSector = 0
)

// Geometry describes the shape of a disk image. Every on-disk offset
// is derived from these four numbers; nothing in the layout is
// hard-coded.
type Geometry struct {
	SectorSize        int // bytes per sector
	TotalSectors      int // disk size in sectors
	MaxFiles          int // maximum live inodes, root included
	MaxSectorsPerFile int // data sectors addressable by one inode
}

// DefaultGeometry returns the stock 5 MB image layout.
func DefaultGeometry() Geometry {
	return Geometry{
		SectorSize:        512,
		TotalSectors:      10000,
		MaxFiles:          1000,
		MaxSectorsPerFile: 30,
	}
}

// Validate rejects geometries the layout arithmetic cannot support.
func (g Geometry) Validate() error {
	if g.SectorSize <= 0 || g.TotalSectors <= 0 || g.MaxFiles <= 0 || g.MaxSectorsPerFile <= 0 {
		return ErrGeneral
	}
	if g.InodeSize() > g.SectorSize || direntSize > g.SectorSize {
		return ErrGeneral
	}
	if g.DataStart() >= g.TotalSectors {
		return ErrGeneral
	}
	return nil
}

// InodeSize is the packed size of one inode record in bytes.
func (g Geometry) InodeSize() int { return 8 + 4*g.MaxSectorsPerFile }

// InodesPerSector is how many inode records fit in one sector.
// Records never straddle sectors; the tail of each inode table
// sector is padding.
func (g Geometry) InodesPerSector() int { return g.SectorSize / g.InodeSize() }

// DirentsPerSector is how many directory entries fit in one sector.
func (g Geometry) DirentsPerSector() int { return g.SectorSize / direntSize }

// InodeBitmapStart is the first sector of the inode bitmap.
func (g Geometry) InodeBitmapStart() int { return superblockSector + 1 }

// InodeBitmapSectors is the length of the inode bitmap in sectors.
func (g Geometry) InodeBitmapSectors() int {
	return ceilDiv(ceilDiv(g.MaxFiles, 8), g.SectorSize)
}

// SectorBitmapStart is the first sector of the sector bitmap.
func (g Geometry) SectorBitmapStart() int {
	return g.InodeBitmapStart() + g.InodeBitmapSectors()
}

// SectorBitmapSectors is the length of the sector bitmap in sectors.
func (g Geometry) SectorBitmapSectors() int {
	return ceilDiv(ceilDiv(g.TotalSectors, 8), g.SectorSize)
}

// InodeTableStart is the first sector of the inode table.
func (g Geometry) InodeTableStart() int {
	return g.SectorBitmapStart() + g.SectorBitmapSectors()
}

// InodeTableSectors is the length of the inode table in sectors.
func (g Geometry) InodeTableSectors() int {
	return ceilDiv(g.MaxFiles, g.InodesPerSector())
}

// DataStart is the first data sector. Everything before it is
// metadata and stays reserved in the sector bitmap for the lifetime
// of the image.
func (g Geometry) DataStart() int {
	return g.InodeTableStart() + g.InodeTableSectors()
}

// MaxFileSize is the byte-length cap for a single file.
func (g Geometry) MaxFileSize() int { return g.MaxSectorsPerFile * g.SectorSize }

// ImageSize is the size of the backing file in bytes.
func (g Geometry) ImageSize() int64 { return int64(g.SectorSize) * int64(g.TotalSectors) }

func ceilDiv(a, b int) int { return (a + b - 1) / b }
