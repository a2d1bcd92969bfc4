// file: pkg/blockfs/check.go

package blockfs

import (
	"fmt"
)

// Check verifies the structural invariants of the image: the
// superblock magic, that the root inode is a live directory, that
// every live inode is referenced by exactly one dirent (root
// excepted), that directory sizes match their dirent counts, that
// file sizes match their allocated sectors, and that the two bitmaps
// agree exactly with the reachable namespace.
func (fs *FileSystem) Check() error {
	if !fs.checkMagic() {
		return fmt.Errorf("superblock: bad magic")
	}

	g := fs.geo
	c := fs.newInodeCache()

	root, err := fs.readInode(c, 0)
	if err != nil {
		return fmt.Errorf("root inode: %w", err)
	}
	if root.Type != typeDir {
		return fmt.Errorf("root inode is not a directory")
	}
	rootSet, err := g.inodeBitmap().isSet(fs.d, 0)
	if err != nil {
		return err
	}
	if !rootSet {
		return fmt.Errorf("root inode bit is clear")
	}

	// walk the namespace, recording every referenced inode and data
	// sector
	inodeRefs := make(map[int]int)
	sectorRefs := make(map[int]int)
	inodeRefs[0] = 1

	type job struct {
		ino  int
		path string
	}
	queue := []job{{0, "/"}}
	for len(queue) > 0 {
		j := queue[0]
		queue = queue[1:]

		dir, err := fs.readInode(c, j.ino)
		if err != nil {
			return fmt.Errorf("%s: %w", j.path, err)
		}

		groups := ceilDiv(int(dir.Size), g.DirentsPerSector())
		for i := 0; i < groups; i++ {
			sectorRefs[int(dir.Data[i])]++
		}
		for i := groups; i < g.MaxSectorsPerFile; i++ {
			if dir.Data[i] != 0 {
				return fmt.Errorf("%s: data slot %d set beyond dirent groups", j.path, i)
			}
		}

		entries, err := fs.readEntries(c, dir)
		if err != nil {
			return fmt.Errorf("%s: %w", j.path, err)
		}
		for _, de := range entries {
			if !legalName(de.Name) {
				return fmt.Errorf("%s: illegal entry name %q", j.path, de.Name)
			}
			if de.Inode <= 0 || de.Inode >= g.MaxFiles {
				return fmt.Errorf("%s/%s: inode %d out of range", j.path, de.Name, de.Inode)
			}
			inodeRefs[de.Inode]++
			if inodeRefs[de.Inode] > 1 {
				return fmt.Errorf("%s/%s: inode %d referenced more than once", j.path, de.Name, de.Inode)
			}

			child, err := fs.readInode(c, de.Inode)
			if err != nil {
				return err
			}
			switch child.Type {
			case typeDir:
				queue = append(queue, job{de.Inode, j.path + "/" + de.Name})
			case typeFile:
				want := child.allocatedSectors(g)
				for i := 0; i < g.MaxSectorsPerFile; i++ {
					switch {
					case i < want && child.Data[i] == 0:
						return fmt.Errorf("%s/%s: missing data sector %d", j.path, de.Name, i)
					case i >= want && child.Data[i] != 0:
						return fmt.Errorf("%s/%s: data slot %d set beyond size", j.path, de.Name, i)
					}
					if i < want {
						sectorRefs[int(child.Data[i])]++
					}
				}
			default:
				return fmt.Errorf("%s/%s: bad inode type %d", j.path, de.Name, child.Type)
			}
		}
	}

	// every referenced data sector is in the data region, owned once,
	// and marked allocated
	for s, n := range sectorRefs {
		if n > 1 {
			return fmt.Errorf("sector %d referenced %d times", s, n)
		}
		if s < g.DataStart() || s >= g.TotalSectors {
			return fmt.Errorf("sector %d outside data region", s)
		}
	}

	// the bitmaps must agree exactly with the walk
	for i := 0; i < g.MaxFiles; i++ {
		set, err := g.inodeBitmap().isSet(fs.d, i)
		if err != nil {
			return err
		}
		if set != (inodeRefs[i] > 0) {
			return fmt.Errorf("inode bitmap bit %d disagrees with namespace", i)
		}
	}
	for s := 0; s < g.TotalSectors; s++ {
		set, err := g.sectorBitmap().isSet(fs.d, s)
		if err != nil {
			return err
		}
		want := s < g.DataStart() || sectorRefs[s] > 0
		if set != want {
			return fmt.Errorf("sector bitmap bit %d disagrees with namespace", s)
		}
	}
	return nil
}

// readEntries returns the live dirents of dir in storage order.
func (fs *FileSystem) readEntries(c *inodeCache, dir inode) ([]DirEnt, error) {
	dps := fs.geo.DirentsPerSector()
	buf := make([]byte, fs.geo.SectorSize)
	entries := make([]DirEnt, 0, dir.Size)
	remaining := int(dir.Size)
	for group := 0; remaining > 0; group++ {
		if err := fs.d.Read(int(dir.Data[group]), buf); err != nil {
			return nil, err
		}
		n := remaining
		if n > dps {
			n = dps
		}
		for i := 0; i < n; i++ {
			entries = append(entries, decodeDirent(buf[i*direntSize:(i+1)*direntSize]))
		}
		remaining -= n
	}
	return entries, nil
}
