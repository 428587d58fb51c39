// Package vob reads the title VOB files of a title set (VTS_nn_1.VOB, VTS_nn_2.VOB, ...)
// as one sequence of sectors.
package vob

import (
	"fmt"
	"io"

	"github.com/bgrewell/dvd-kit/pkg/consts"
	"github.com/bgrewell/dvd-kit/pkg/errs"
	"github.com/bgrewell/dvd-kit/pkg/logging"
	"github.com/bgrewell/dvd-kit/pkg/sector"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

type vobFile struct {
	name    string
	file    afero.File
	sectors sector.Range
	// next is the sector at the current file position, -1 when unknown.
	next int
}

// FileSet is the logical concatenation of VOB files. Sector zero is the first sector of
// the first file, as in the cell sectors of an IFO. Files are opened on first read.
type FileSet struct {
	fs      afero.Fs
	files   []*vobFile
	current int
	log     *logging.Logger
}

// Open builds the sector map of the VOB files. A trailing partial sector of a file is
// ignored.
func Open(fs afero.Fs, fileNames []string, log *logging.Logger) (*FileSet, error) {
	s := &FileSet{
		fs:      fs,
		current: -1,
		log:     logging.OrDefault(log).WithName("vob"),
	}
	next := 0
	for _, name := range fileNames {
		info, err := fs.Stat(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrDevice, err)
		}
		count := int(info.Size() / consts.DVD_SECTOR_SIZE)
		s.files = append(s.files, &vobFile{
			name:    name,
			sectors: sector.NewRange(next, next+count-1),
			next:    -1,
		})
		next += count
	}
	s.log.Debug("VOB file set", "files", len(s.files), "sectors", next)
	return s, nil
}

// TotalSectors returns the number of sectors in all files.
func (s *FileSet) TotalSectors() int {
	if len(s.files) == 0 {
		return 0
	}
	return s.files[len(s.files)-1].sectors.Last + 1
}

// Read reads up to count sectors starting at sector address. A read never crosses a file
// boundary, the rest is read by the next call.
func (s *FileSet) Read(address int, buf []byte, count int) (int, error) {
	if s.current < 0 || !s.files[s.current].sectors.Contains(address) {
		s.current = -1
		for i, f := range s.files {
			if f.sectors.Contains(address) {
				s.current = i
				break
			}
		}
	}
	if s.current < 0 {
		return 0, fmt.Errorf("%w: sector %d not found in any VOB file", errs.ErrSectorNotFound, address)
	}

	vob := s.files[s.current]
	position := int64(address-vob.sectors.First) * consts.DVD_SECTOR_SIZE
	if vob.next != address {
		if vob.file == nil {
			file, err := s.fs.Open(vob.name)
			if err != nil {
				return 0, fmt.Errorf("%w: opening VOB file: %v", errs.ErrDevice, err)
			}
			vob.file = file
			s.log.Debug("Opened VOB file", "file", vob.name)
		}
		if _, err := vob.file.Seek(position, io.SeekStart); err != nil {
			return 0, fmt.Errorf("%w: seeking %s to %d: %v", errs.ErrDevice, vob.name, position, err)
		}
		vob.next = address
	}

	if remain := vob.sectors.Last - address + 1; count > remain {
		count = remain
	}
	if len(buf) < count*consts.DVD_SECTOR_SIZE {
		count = len(buf) / consts.DVD_SECTOR_SIZE
	}
	size := count * consts.DVD_SECTOR_SIZE
	got, err := io.ReadFull(vob.file, buf[:size])
	if err != nil {
		vob.next = -1
		return 0, fmt.Errorf("%w: reading %s at %d, requested %d bytes, got %d: %v",
			errs.ErrDevice, vob.name, position, size, got, err)
	}
	vob.next += count
	return count, nil
}

// Close closes all open files.
func (s *FileSet) Close() error {
	var err error
	for _, f := range s.files {
		if f.file != nil {
			err = multierr.Append(err, f.file.Close())
			f.file = nil
			f.next = -1
		}
	}
	s.current = -1
	return err
}
