//go:build !linux

package css

import (
	"errors"
	"os"
)

func blockDeviceSize(file *os.File) (int64, error) {
	return 0, errors.New("block device size not supported on this platform")
}
