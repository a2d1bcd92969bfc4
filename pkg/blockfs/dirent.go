// file: pkg/blockfs/dirent.go

package blockfs

import (
	"github.com/tchajed/marshal"
)

// direntSize is the packed size of one directory entry: a
// zero-terminated name buffer plus a 32-bit inode index.
const direntSize = MaxName + 4

// DirEnt is one (name, inode) pair inside a directory.
type DirEnt struct {
	Name  string
	Inode int
}

// encodeDirent packs a directory entry. The name is stored in a
// MaxName-byte buffer, zero-padded; legalName guarantees it fits with
// the terminator.
func encodeDirent(name string, ino int) []byte {
	enc := marshal.NewEnc(direntSize)
	var nb [MaxName]byte
	copy(nb[:], name)
	enc.PutBytes(nb[:])
	enc.PutInt32(uint32(int32(ino)))
	return enc.Finish()
}

func decodeDirent(b []byte) DirEnt {
	dec := marshal.NewDec(b)
	nb := dec.GetBytes(MaxName)
	end := 0
	for end < len(nb) && nb[end] != 0 {
		end++
	}
	return DirEnt{
		Name:  string(nb[:end]),
		Inode: int(int32(dec.GetInt32())),
	}
}

// legalName reports whether a single path component may appear in a
// directory: non-empty, short enough to leave room for the
// terminator, and drawn from [A-Za-z0-9._-].
func legalName(name string) bool {
	if len(name) == 0 || len(name) > MaxName-1 {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '.' || c == '_' || c == '-':
		default:
			return false
		}
	}
	return true
}
