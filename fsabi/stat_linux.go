//go:build linux

package fsabi

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/tuhh-sat/pluto-core/glue"
)

// statCreationTime reports the inode change time as the closest available
// analogue of a creation timestamp on Linux file systems.
func statCreationTime(path string) (glue.GpsTime, bool) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return glue.GpsTime{}, false
	}
	return glue.FromTime(time.Unix(st.Ctim.Sec, st.Ctim.Nsec)), true
}

// freeSpace reports the bytes available to unprivileged writers on the
// file system holding path.
func freeSpace(path string) (uint64, bool) {
	var sfs unix.Statfs_t
	if err := unix.Statfs(path, &sfs); err != nil {
		return 0, false
	}
	return sfs.Bavail * uint64(sfs.Bsize), true
}
