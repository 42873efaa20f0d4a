//go:build windows

package filesystem

import (
	"fmt"
	"syscall"

	"github.com/pkg/sftp"
	"golang.org/x/sys/windows"
)

// StatFS returns the status of the volume holding the root directory
func (r *Root) StatFS() (*sftp.StatVFS, error) {
	var freeBytesAvailable, totalNumberOfBytes, totalNumberOfFreeBytes uint64
	dir, err := syscall.UTF16PtrFromString(r.localDir)
	if err != nil {
		return nil, err
	}
	err = windows.GetDiskFreeSpaceEx(dir, &freeBytesAvailable, &totalNumberOfBytes, &totalNumberOfFreeBytes)
	if err != nil {
		return nil, fmt.Errorf("error getting file system info: %w", err)
	}

	// cluster size is not reported here, assume 4K blocks
	bsize := uint64(4096)
	return &sftp.StatVFS{
		Bsize:   bsize,
		Frsize:  bsize,
		Blocks:  totalNumberOfBytes / bsize,
		Bfree:   totalNumberOfFreeBytes / bsize,
		Bavail:  freeBytesAvailable / bsize,
		Namemax: 255,
	}, nil
}
