// file: pkg/disk/errors.go

package disk

import "errors"

var (
	ErrBadGeometry = errors.New("invalid disk geometry")
	ErrBadSector   = errors.New("sector index out of range")
	ErrBufferSize  = errors.New("buffer length does not match sector size")
	ErrOpenImage   = errors.New("cannot open disk image")
	ErrImageSize   = errors.New("disk image has wrong size")
)
