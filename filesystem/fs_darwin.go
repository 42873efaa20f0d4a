package filesystem

import "golang.org/x/sys/unix"

// darwin has no fragment size, blocks are the allocation unit.
func fragmentSize(st *unix.Statfs_t) uint64 { return uint64(st.Bsize) }

// NAME_MAX on APFS and HFS+.
func nameMax(*unix.Statfs_t) uint64 { return 255 }
