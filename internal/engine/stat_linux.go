//go:build linux

package engine

import (
	"os"
	"syscall"
)

// devInoFromInfo extracts the inode identity from a FileInfo. ok is false
// when the platform stat structure is unavailable.
func devInoFromInfo(info os.FileInfo) (DevIno, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return DevIno{}, false
	}
	return DevIno{Dev: stat.Dev, Ino: stat.Ino}, true
}
