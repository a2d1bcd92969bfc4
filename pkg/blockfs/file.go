// file: pkg/blockfs/file.go

package blockfs

import "errors"

// FileCreate creates an empty regular file at path.
func (fs *FileSystem) FileCreate(path string) error {
	return fs.createNode(typeFile, path)
}

// FileOpen opens the regular file at path and returns its descriptor,
// the index of the open file table slot. The slot caches the file
// size and starts at position 0.
func (fs *FileSystem) FileOpen(path string) (int, error) {
	c := fs.newInodeCache()
	res, err := fs.resolve(path, c)
	if err != nil || res.child == noInode {
		return -1, fs.fail(ErrNoSuchFile)
	}
	ino, err := fs.readInode(c, res.child)
	if err != nil {
		return -1, fs.fail(ErrGeneral)
	}
	if ino.Type != typeFile {
		return -1, fs.fail(ErrGeneral)
	}

	fd := -1
	for i := 0; i < MaxOpenFiles; i++ {
		if !fs.open[i].used {
			fd = i
			break
		}
	}
	if fd < 0 {
		return -1, fs.fail(ErrTooManyOpenFiles)
	}
	fs.open[fd] = openFile{used: true, inode: res.child, size: int(ino.Size)}
	return fd, nil
}

// FileClose releases the descriptor.
func (fs *FileSystem) FileClose(fd int) error {
	if _, err := fs.slot(fd); err != nil {
		return fs.fail(err)
	}
	fs.open[fd] = openFile{}
	return nil
}

// FileSeek moves the read/write position. The new offset must lie
// within [0, size]; seeking past end-of-file is not permitted, so a
// write can never leave a gap.
func (fs *FileSystem) FileSeek(fd, offset int) (int, error) {
	f, err := fs.slot(fd)
	if err != nil {
		return -1, fs.fail(err)
	}
	if offset < 0 || offset > f.size {
		return -1, fs.fail(ErrSeekOutOfBounds)
	}
	f.pos = offset
	return f.pos, nil
}

// FileRead copies up to len(buf) bytes from the current position into
// buf and advances the position. Returns the number of bytes read; 0
// at end-of-file.
func (fs *FileSystem) FileRead(fd int, buf []byte) (int, error) {
	f, err := fs.slot(fd)
	if err != nil {
		return -1, fs.fail(err)
	}
	toRead := len(buf)
	if rest := f.size - f.pos; toRead > rest {
		toRead = rest
	}
	if toRead <= 0 {
		return 0, nil
	}

	c := fs.newInodeCache()
	ino, err := fs.readInode(c, f.inode)
	if err != nil {
		return -1, fs.fail(ErrGeneral)
	}

	g := fs.geo
	sec := make([]byte, g.SectorSize)
	read := 0
	for read < toRead {
		idx := f.pos / g.SectorSize
		off := f.pos % g.SectorSize
		chunk := g.SectorSize - off
		if chunk > toRead-read {
			chunk = toRead - read
		}
		if err := fs.d.Read(int(ino.Data[idx]), sec); err != nil {
			return -1, fs.fail(ErrGeneral)
		}
		copy(buf[read:read+chunk], sec[off:off+chunk])
		read += chunk
		f.pos += chunk
	}
	return read, nil
}

// FileWrite copies len(buf) bytes from buf into the file at the
// current position, extending it as needed, and advances the
// position. Data sectors are allocated up front; if the bitmap runs
// out mid-allocation the sectors taken so far are released and the
// file is left unchanged.
func (fs *FileSystem) FileWrite(fd int, buf []byte) (int, error) {
	f, err := fs.slot(fd)
	if err != nil {
		return -1, fs.fail(err)
	}
	n := len(buf)
	if n == 0 {
		return 0, nil
	}
	g := fs.geo
	if f.pos+n > g.MaxFileSize() {
		return -1, fs.fail(ErrFileTooBig)
	}

	c := fs.newInodeCache()
	ino, err := fs.readInode(c, f.inode)
	if err != nil {
		return -1, fs.fail(ErrGeneral)
	}

	allocated := ino.allocatedSectors(g)
	needed := ceilDiv(f.pos+n, g.SectorSize) - allocated
	if needed < 0 {
		needed = 0
	}

	undo := &undoLog{fs: fs}
	for i := 0; i < needed; i++ {
		sec, err := g.sectorBitmap().allocate(fs.d)
		if err != nil {
			undo.rollback()
			if errors.Is(err, errBitmapFull) {
				return -1, fs.fail(ErrNoSpace)
			}
			return -1, fs.fail(ErrGeneral)
		}
		undo.allocatedSector(sec)
		ino.Data[allocated+i] = int32(sec)
	}

	newSize := f.size
	if f.pos+n > newSize {
		newSize = f.pos + n
	}
	ino.Size = int32(newSize)
	if err := fs.writeInode(c, f.inode, ino); err != nil {
		undo.rollback()
		return -1, fs.fail(ErrGeneral)
	}

	sec := make([]byte, g.SectorSize)
	written := 0
	for written < n {
		idx := f.pos / g.SectorSize
		off := f.pos % g.SectorSize
		chunk := g.SectorSize - off
		if chunk > n-written {
			chunk = n - written
		}
		if err := fs.d.Read(int(ino.Data[idx]), sec); err != nil {
			return written, fs.fail(ErrGeneral)
		}
		copy(sec[off:off+chunk], buf[written:written+chunk])
		if err := fs.d.Write(int(ino.Data[idx]), sec); err != nil {
			return written, fs.fail(ErrGeneral)
		}
		written += chunk
		f.pos += chunk
	}
	f.size = newSize
	return n, nil
}

// FileUnlink removes the regular file at path, releasing its data
// sectors and inode. A file with any open descriptor cannot be
// removed.
func (fs *FileSystem) FileUnlink(path string) error {
	c := fs.newInodeCache()
	res, err := fs.resolve(path, c)
	if err != nil || res.child == noInode {
		return fs.fail(ErrNoSuchFile)
	}
	if fs.isFileOpen(res.child) {
		return fs.fail(ErrFileInUse)
	}
	if err := fs.removeNode(typeFile, res, c); err != nil {
		return fs.fail(ErrGeneral)
	}
	return nil
}

// slot validates fd and returns its open file entry.
func (fs *FileSystem) slot(fd int) (*openFile, error) {
	if fd < 0 || fd >= MaxOpenFiles || !fs.open[fd].used {
		return nil, ErrBadFD
	}
	return &fs.open[fd], nil
}

func (fs *FileSystem) isFileOpen(inode int) bool {
	for i := range fs.open {
		if fs.open[i].used && fs.open[i].inode == inode {
			return true
		}
	}
	return false
}
