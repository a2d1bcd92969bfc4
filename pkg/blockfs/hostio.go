// file: pkg/blockfs/hostio.go

package blockfs

import (
	"fmt"
	"os"
)

// ImportFile copies a host file into the image at fsPath, creating
// the file. The host file must fit within the per-file sector cap.
func (fs *FileSystem) ImportFile(hostPath, fsPath string) error {
	data, err := os.ReadFile(hostPath)
	if err != nil {
		return err
	}
	if len(data) > fs.geo.MaxFileSize() {
		return fmt.Errorf("%s: %w", hostPath, ErrFileTooBig)
	}

	if err := fs.FileCreate(fsPath); err != nil {
		return err
	}
	fd, err := fs.FileOpen(fsPath)
	if err != nil {
		return err
	}
	defer fs.FileClose(fd)

	if len(data) == 0 {
		return nil
	}
	if _, err := fs.FileWrite(fd, data); err != nil {
		return err
	}
	return nil
}

// ExportFile copies the file at fsPath out of the image into a host
// file.
func (fs *FileSystem) ExportFile(fsPath, hostPath string) error {
	fd, err := fs.FileOpen(fsPath)
	if err != nil {
		return err
	}
	defer fs.FileClose(fd)

	data := make([]byte, fs.open[fd].size)
	if len(data) > 0 {
		if _, err := fs.FileRead(fd, data); err != nil {
			return err
		}
	}
	return os.WriteFile(hostPath, data, 0644)
}
