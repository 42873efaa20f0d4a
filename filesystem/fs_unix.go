//go:build linux || darwin

package filesystem

import (
	"fmt"

	"github.com/pkg/sftp"
	"golang.org/x/sys/unix"
)

// StatFS returns the status of the file system holding the root directory.
func (r *Root) StatFS() (*sftp.StatVFS, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(r.localDir, &st); err != nil {
		return nil, fmt.Errorf("statfs %s: %w", r.localDir, err)
	}

	return &sftp.StatVFS{
		Bsize:   uint64(st.Bsize),
		Frsize:  fragmentSize(&st),
		Blocks:  st.Blocks,
		Bfree:   st.Bfree,
		Bavail:  st.Bavail,
		Files:   st.Files,
		Ffree:   st.Ffree,
		Favail:  st.Ffree,
		Flag:    uint64(st.Flags),
		Namemax: nameMax(&st),
	}, nil
}
