package demux

import (
	"github.com/bgrewell/dvd-kit/pkg/option"
	"github.com/bgrewell/dvd-kit/pkg/vob"
)

// Source reads the sectors of a title set. Addresses are relative to the first sector of
// the first title VOB, as in the cells of an IFO.
type Source interface {
	// ReadSectors reads up to count sectors at address. It returns the number of sectors
	// stored in buf and the number of input sectors consumed, which is larger when bad
	// sectors were skipped.
	ReadSectors(address int, buf []byte, count int) (stored, consumed int, err error)
}

// Device is the part of device.Device used by DeviceSource.
type Device interface {
	ReadSectorsAt(buf []byte, count int, position int, policy option.BadSectorPolicy) (stored, next int, err error)
}

type deviceSource struct {
	dev            Device
	vobStartSector int
}

// DeviceSource reads a title set from its medium. Bad sectors are skipped.
func DeviceSource(dev Device, vobStartSector int) Source {
	return &deviceSource{dev: dev, vobStartSector: vobStartSector}
}

func (s *deviceSource) ReadSectors(address int, buf []byte, count int) (int, int, error) {
	lba := s.vobStartSector + address
	// The device does not seek when lba is its current position.
	stored, next, err := s.dev.ReadSectorsAt(buf, count, lba, option.SkipBadSectors)
	return stored, max(stored, next-lba), err
}

type fileSetSource struct {
	files *vob.FileSet
}

// FileSetSource reads a title set from its VOB files.
func FileSetSource(files *vob.FileSet) Source {
	return &fileSetSource{files: files}
}

func (s *fileSetSource) ReadSectors(address int, buf []byte, count int) (int, int, error) {
	n, err := s.files.Read(address, buf, count)
	return n, n, err
}
