package filesystem

import "golang.org/x/sys/unix"

func fragmentSize(st *unix.Statfs_t) uint64 { return uint64(st.Frsize) }

func nameMax(st *unix.Statfs_t) uint64 { return uint64(st.Namelen) }
