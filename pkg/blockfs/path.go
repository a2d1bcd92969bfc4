// file: pkg/blockfs/path.go

package blockfs

import (
	"strings"
)

// noInode marks an absent child in a resolution.
const noInode = -1

// resolution is the outcome of walking an absolute path. child is
// noInode when every intermediate component exists but the final one
// does not; name is the final component (empty for the root).
type resolution struct {
	parent int
	child  int
	name   string
}

// resolve walks an absolute path from the root, reading inode table
// sectors through the per-call cache c. Consecutive separators are
// ignored. Resolution fails when the path is not absolute or too
// long, a component name is illegal, an intermediate component is
// missing or not a directory, or the disk fails.
func (fs *FileSystem) resolve(path string, c *inodeCache) (resolution, error) {
	if len(path) == 0 || path[0] != '/' {
		return resolution{}, ErrGeneral
	}
	if len(path) > MaxPath-1 {
		return resolution{}, ErrGeneral
	}

	res := resolution{parent: 0, child: 0}
	for _, comp := range strings.Split(path[1:], "/") {
		if comp == "" {
			continue
		}
		if !legalName(comp) {
			return resolution{}, ErrGeneral
		}
		if res.child == noInode {
			// the previous component was already missing, so
			// this one has no parent directory
			return resolution{}, ErrGeneral
		}
		res.parent = res.child
		child, err := fs.findChild(res.parent, comp, c)
		if err != nil {
			return resolution{}, err
		}
		res.child = child
		res.name = comp
	}
	return res, nil
}

// findChild scans the dirent sectors of directory parent for name.
// Only the first parent.Size slots are live; trailing slots of the
// last sector are never examined. Returns noInode when the name is
// absent.
func (fs *FileSystem) findChild(parent int, name string, c *inodeCache) (int, error) {
	dir, err := fs.readInode(c, parent)
	if err != nil {
		return 0, err
	}
	if dir.Type != typeDir {
		return 0, ErrGeneral
	}

	dps := fs.geo.DirentsPerSector()
	buf := make([]byte, fs.geo.SectorSize)
	remaining := int(dir.Size)
	for group := 0; remaining > 0; group++ {
		if err := fs.d.Read(int(dir.Data[group]), buf); err != nil {
			return 0, err
		}
		n := remaining
		if n > dps {
			n = dps
		}
		for i := 0; i < n; i++ {
			de := decodeDirent(buf[i*direntSize : (i+1)*direntSize])
			if de.Name == name {
				return de.Inode, nil
			}
		}
		remaining -= n
	}
	return noInode, nil
}
