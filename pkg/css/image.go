package css

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bgrewell/dvd-kit/pkg/consts"
	"github.com/spf13/afero"
)

// ImageService opens unscrambled DVD images and block devices through an afero.Fs.
// Handles never decrypt: IsScrambled is always false and ReadDecrypt is ignored.
type ImageService struct {
	Fs afero.Fs
}

// NewImageService returns an ImageService on fs, or on the OS filesystem when fs is nil.
func NewImageService(fs afero.Fs) *ImageService {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &ImageService{Fs: fs}
}

// Open opens a DVD image file or a block device.
func (s *ImageService) Open(name string) (Handle, error) {
	fs := s.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	file, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, fmt.Errorf("%s is a directory", name)
	}

	size := info.Size()
	if info.Mode()&os.ModeDevice != 0 {
		if osFile, ok := file.(*os.File); ok {
			if devSize, err := blockDeviceSize(osFile); err == nil {
				size = devSize
			}
		}
	}

	return &imageHandle{
		file:    file,
		sectors: int(size / consts.DVD_SECTOR_SIZE),
	}, nil
}

type imageHandle struct {
	file     afero.File
	position int
	sectors  int
}

func (h *imageHandle) Seek(sector int, flags SeekFlags) (int, error) {
	if sector < 0 || (h.sectors >= 0 && sector > h.sectors) {
		return -1, fmt.Errorf("sector %d out of bounds (%d sectors)", sector, h.sectors)
	}
	h.position = sector
	return sector, nil
}

func (h *imageHandle) Read(buf []byte, count int, flags ReadFlags) (int, error) {
	if count <= 0 {
		return 0, nil
	}
	if len(buf) < count*consts.DVD_SECTOR_SIZE {
		return 0, fmt.Errorf("buffer too short for %d sectors", count)
	}
	if h.sectors >= 0 && h.position+count > h.sectors {
		count = h.sectors - h.position
		if count <= 0 {
			return 0, nil
		}
	}
	n, err := h.file.ReadAt(buf[:count*consts.DVD_SECTOR_SIZE], int64(h.position)*consts.DVD_SECTOR_SIZE)
	got := n / consts.DVD_SECTOR_SIZE
	h.position += got
	if err != nil && !errors.Is(err, io.EOF) {
		if got > 0 {
			return got, nil
		}
		return 0, err
	}
	return got, nil
}

func (h *imageHandle) IsScrambled() bool {
	return false
}

func (h *imageHandle) SizeInSectors() int {
	return h.sectors
}

func (h *imageHandle) Close() error {
	return h.file.Close()
}
