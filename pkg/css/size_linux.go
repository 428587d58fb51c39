//go:build linux

package css

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// blockDeviceSize returns the size in bytes of a block device, which stat reports as zero.
func blockDeviceSize(file *os.File) (int64, error) {
	var size uint64
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, file.Fd(), unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&size)))
	if errno != 0 {
		return 0, errno
	}
	return int64(size), nil
}
