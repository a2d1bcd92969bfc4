// file: pkg/blockfs/dir.go

package blockfs

import "errors"

// errWrongType is internal to remove: callers fold it into their own
// taxonomy code.
var errWrongType = errors.New("wrong inode type")

// DirCreate creates an empty directory at path. The parent chain must
// exist and the final component must not.
func (fs *FileSystem) DirCreate(path string) error {
	return fs.createNode(typeDir, path)
}

// DirUnlink removes the empty directory at path. The root directory
// cannot be removed.
func (fs *FileSystem) DirUnlink(path string) error {
	if path == "/" {
		return fs.fail(ErrRootDir)
	}
	c := fs.newInodeCache()
	res, err := fs.resolve(path, c)
	if err != nil || res.child == noInode {
		return fs.fail(ErrNoSuchDir)
	}
	if res.child == 0 {
		// "//" and friends also name the root
		return fs.fail(ErrRootDir)
	}
	switch err := fs.removeNode(typeDir, res, c); {
	case err == nil:
		return nil
	case errors.Is(err, ErrDirNotEmpty):
		return fs.fail(ErrDirNotEmpty)
	default:
		return fs.fail(ErrGeneral)
	}
}

// DirSize returns the byte size of the directory's dirent array, i.e.
// entry count times the packed dirent size.
func (fs *FileSystem) DirSize(path string) (int, error) {
	c := fs.newInodeCache()
	res, err := fs.resolve(path, c)
	if err != nil || res.child == noInode {
		return 0, fs.fail(ErrNoSuchDir)
	}
	dir, err := fs.readInode(c, res.child)
	if err != nil {
		return 0, fs.fail(ErrGeneral)
	}
	if dir.Type != typeDir {
		return 0, fs.fail(ErrNoSuchDir)
	}
	return int(dir.Size) * direntSize, nil
}

// DirRead copies every live dirent of the directory at path into buf
// in storage order and returns the entry count. buf must hold all of
// them; this is not a streaming interface.
func (fs *FileSystem) DirRead(path string, buf []byte) (int, error) {
	c := fs.newInodeCache()
	res, err := fs.resolve(path, c)
	if err != nil || res.child == noInode {
		return 0, fs.fail(ErrNoSuchDir)
	}
	dir, err := fs.readInode(c, res.child)
	if err != nil {
		return 0, fs.fail(ErrGeneral)
	}
	if dir.Type != typeDir {
		return 0, fs.fail(ErrNoSuchDir)
	}
	if len(buf) < int(dir.Size)*direntSize {
		return 0, fs.fail(ErrBufferTooSmall)
	}

	dps := fs.geo.DirentsPerSector()
	sec := make([]byte, fs.geo.SectorSize)
	out := 0
	remaining := int(dir.Size)
	for group := 0; remaining > 0; group++ {
		if err := fs.d.Read(int(dir.Data[group]), sec); err != nil {
			return 0, fs.fail(ErrGeneral)
		}
		n := remaining
		if n > dps {
			n = dps
		}
		copy(buf[out:], sec[:n*direntSize])
		out += n * direntSize
		remaining -= n
	}
	return int(dir.Size), nil
}

// ReadDir is a convenience wrapper over DirRead that decodes the
// entries.
func (fs *FileSystem) ReadDir(path string) ([]DirEnt, error) {
	size, err := fs.DirSize(path)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	n, err := fs.DirRead(path, buf)
	if err != nil {
		return nil, err
	}
	entries := make([]DirEnt, n)
	for i := range entries {
		entries[i] = decodeDirent(buf[i*direntSize : (i+1)*direntSize])
	}
	return entries, nil
}

// createNode backs both DirCreate and FileCreate. Allocation failures
// after the resolve all surface as ErrCreate; the undo log releases
// any bitmap bits taken before the failure.
func (fs *FileSystem) createNode(kind int32, path string) error {
	c := fs.newInodeCache()
	res, err := fs.resolve(path, c)
	if err != nil {
		return fs.fail(ErrCreate)
	}
	if res.child != noInode {
		// files and directories share the dirent namespace, so an
		// existing entry of either type blocks the create
		return fs.fail(ErrCreate)
	}

	undo := &undoLog{fs: fs}
	ino, err := fs.geo.inodeBitmap().allocate(fs.d)
	if err != nil {
		return fs.fail(ErrCreate)
	}
	undo.allocatedInode(ino)

	if err := fs.writeInode(c, ino, newInode(fs.geo, kind)); err != nil {
		undo.rollback()
		return fs.fail(ErrCreate)
	}
	if err := fs.addEntry(c, res.parent, res.name, ino, undo); err != nil {
		undo.rollback()
		return fs.fail(ErrCreate)
	}
	return nil
}

// addEntry appends a dirent to directory parent. The parent's size
// picks the target group: a size on a sector boundary means the next
// group's data sector must be allocated first. The new dirent lands
// in the first free slot of that group, then the parent inode is
// rewritten with the grown size.
func (fs *FileSystem) addEntry(c *inodeCache, parent int, name string, child int, undo *undoLog) error {
	dir, err := fs.readInode(c, parent)
	if err != nil {
		return err
	}
	if dir.Type != typeDir {
		return errWrongType
	}

	dps := fs.geo.DirentsPerSector()
	group := int(dir.Size) / dps
	if group >= fs.geo.MaxSectorsPerFile {
		return ErrNoSpace
	}

	buf := make([]byte, fs.geo.SectorSize)
	if int(dir.Size)%dps == 0 {
		sec, err := fs.geo.sectorBitmap().allocate(fs.d)
		if err != nil {
			return ErrNoSpace
		}
		undo.allocatedSector(sec)
		dir.Data[group] = int32(sec)
	} else {
		if err := fs.d.Read(int(dir.Data[group]), buf); err != nil {
			return err
		}
	}

	slot := int(dir.Size) % dps
	copy(buf[slot*direntSize:(slot+1)*direntSize], encodeDirent(name, child))
	if err := fs.d.Write(int(dir.Data[group]), buf); err != nil {
		return err
	}

	dir.Size++
	return fs.writeInode(c, parent, dir)
}

// removeNode backs both FileUnlink and DirUnlink. The child must
// match the requested type, a directory must be empty, and a file's
// data sectors are released before the inode itself. The vacated
// dirent slot is filled by the parent's last entry (swap-with-last
// compaction) and a data sector left empty by the shrink is freed.
func (fs *FileSystem) removeNode(kind int32, res resolution, c *inodeCache) error {
	child, err := fs.readInode(c, res.child)
	if err != nil {
		return err
	}
	if child.Type != kind {
		return errWrongType
	}
	if child.Type == typeDir && child.Size > 0 {
		return ErrDirNotEmpty
	}

	if child.Type == typeFile {
		for _, s := range child.Data {
			if s != 0 {
				if err := fs.geo.sectorBitmap().free(fs.d, int(s)); err != nil {
					return err
				}
			}
		}
	}

	if err := fs.writeInode(c, res.child, inode{Data: make([]int32, fs.geo.MaxSectorsPerFile)}); err != nil {
		return err
	}
	if err := fs.geo.inodeBitmap().free(fs.d, res.child); err != nil {
		return err
	}

	return fs.removeEntry(c, res.parent, res.child)
}

// removeEntry deletes the dirent referencing child from directory
// parent, compacting with the last live entry and shrinking the
// trailing data sector when it empties.
func (fs *FileSystem) removeEntry(c *inodeCache, parent, child int) error {
	dir, err := fs.readInode(c, parent)
	if err != nil {
		return err
	}
	if dir.Type != typeDir || dir.Size == 0 {
		return ErrGeneral
	}

	dps := fs.geo.DirentsPerSector()
	group, slot, err := fs.findEntrySlot(dir, child)
	if err != nil {
		return err
	}

	last := int(dir.Size) - 1
	lastGroup, lastSlot := last/dps, last%dps

	lastBuf := make([]byte, fs.geo.SectorSize)
	if err := fs.d.Read(int(dir.Data[lastGroup]), lastBuf); err != nil {
		return err
	}

	if group == lastGroup {
		// swap and clear within one sector
		if slot != lastSlot {
			copy(lastBuf[slot*direntSize:(slot+1)*direntSize],
				lastBuf[lastSlot*direntSize:(lastSlot+1)*direntSize])
		}
		zeroSlot(lastBuf, lastSlot)
		if err := fs.d.Write(int(dir.Data[lastGroup]), lastBuf); err != nil {
			return err
		}
	} else {
		buf := make([]byte, fs.geo.SectorSize)
		if err := fs.d.Read(int(dir.Data[group]), buf); err != nil {
			return err
		}
		copy(buf[slot*direntSize:(slot+1)*direntSize],
			lastBuf[lastSlot*direntSize:(lastSlot+1)*direntSize])
		if err := fs.d.Write(int(dir.Data[group]), buf); err != nil {
			return err
		}
		zeroSlot(lastBuf, lastSlot)
		if err := fs.d.Write(int(dir.Data[lastGroup]), lastBuf); err != nil {
			return err
		}
	}

	newSize := int(dir.Size) - 1
	if ceilDiv(newSize, dps) < ceilDiv(int(dir.Size), dps) {
		// the last group's sector just emptied
		if err := fs.geo.sectorBitmap().free(fs.d, int(dir.Data[lastGroup])); err != nil {
			return err
		}
		dir.Data[lastGroup] = 0
	}
	dir.Size = int32(newSize)
	return fs.writeInode(c, parent, dir)
}

// findEntrySlot locates the dirent whose inode field equals child.
func (fs *FileSystem) findEntrySlot(dir inode, child int) (group, slot int, err error) {
	dps := fs.geo.DirentsPerSector()
	buf := make([]byte, fs.geo.SectorSize)
	remaining := int(dir.Size)
	for g := 0; remaining > 0; g++ {
		if err := fs.d.Read(int(dir.Data[g]), buf); err != nil {
			return 0, 0, err
		}
		n := remaining
		if n > dps {
			n = dps
		}
		for i := 0; i < n; i++ {
			de := decodeDirent(buf[i*direntSize : (i+1)*direntSize])
			if de.Inode == child {
				return g, i, nil
			}
		}
		remaining -= n
	}
	return 0, 0, ErrGeneral
}

func zeroSlot(buf []byte, slot int) {
	for i := slot * direntSize; i < (slot+1)*direntSize; i++ {
		buf[i] = 0
	}
}
