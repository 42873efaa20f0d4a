//go:build !linux && !darwin && !windows

package filesystem

import (
	"fmt"
	"runtime"
	"syscall"

	"github.com/pkg/sftp"
)

// StatFS is not available on this platform.
func (r *Root) StatFS() (*sftp.StatVFS, error) {
	return nil, fmt.Errorf("%w unsupported OS: %s", syscall.ENOTSUP, runtime.GOOS)
}
