package volume

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/bgrewell/dvd-kit/pkg/consts"
)

// File is a file of the volume, or a placeholder covering sectors which belong to no file
// (volume descriptors, directories, gaps).
type File struct {
	path     string
	start    int
	size     int64
	recorded time.Time
}

// NewFile returns a file entry. An empty path makes a placeholder.
func NewFile(filePath string, startSector int, sizeInBytes int64) *File {
	return &File{path: filePath, start: startSector, size: sizeInBytes}
}

func newPlaceholder(start, end int) *File {
	return &File{start: start, size: int64(end-start) * consts.DVD_SECTOR_SIZE}
}

// Path returns the path relative to the volume root, with "/" separators.
func (f *File) Path() string {
	return f.path
}

// Name returns the last element of the path.
func (f *File) Name() string {
	if f.path == "" {
		return ""
	}
	return path.Base(f.path)
}

func (f *File) StartSector() int {
	return f.start
}

func (f *File) SizeInBytes() int64 {
	return f.size
}

// SectorCount returns the number of sectors of the file, the last one possibly partial.
func (f *File) SectorCount() int {
	return int((f.size + consts.DVD_SECTOR_SIZE - 1) / consts.DVD_SECTOR_SIZE)
}

// RecordedAt returns the recording date of the file, zero when unknown.
func (f *File) RecordedAt() time.Time {
	return f.recorded
}

// EndSector returns the first sector after the file.
func (f *File) EndSector() int {
	return f.start + f.SectorCount()
}

// IsPlaceholder reports whether the entry covers a non-file area.
func (f *File) IsPlaceholder() bool {
	return f.path == ""
}

// IsVob reports whether the file is a video object (.VOB) file.
func (f *File) IsVob() bool {
	return strings.HasSuffix(strings.ToUpper(f.path), ".VOB")
}

// Description is used in logs.
func (f *File) Description() string {
	if f.IsPlaceholder() {
		return fmt.Sprintf("metadata area at sectors %d-%d", f.start, f.EndSector())
	}
	return f.path
}

func (f *File) String() string {
	return fmt.Sprintf("%s [%d-%d[ %d bytes", f.Description(), f.start, f.EndSector(), f.size)
}

// Directory is a directory of the volume.
type Directory struct {
	path    string
	start   int
	size    int64
	subdirs []*Directory
	files   []*File
}

// Path returns the path relative to the volume root, empty for the root itself.
func (d *Directory) Path() string {
	return d.path
}

// Name returns the last element of the path.
func (d *Directory) Name() string {
	if d.path == "" {
		return ""
	}
	return path.Base(d.path)
}

func (d *Directory) StartSector() int {
	return d.start
}

func (d *Directory) SizeInBytes() int64 {
	return d.size
}

func (d *Directory) Subdirectories() []*Directory {
	return d.subdirs
}

func (d *Directory) Files() []*File {
	return d.files
}

// Walk calls fn on d and all its subdirectories, depth first.
func (d *Directory) Walk(fn func(dir *Directory)) {
	fn(d)
	for _, sub := range d.subdirs {
		sub.Walk(fn)
	}
}

// searchPath follows the path elements from d, ignoring case.
func (d *Directory) searchPath(elements []string) (*File, bool) {
	if len(elements) == 0 {
		return nil, false
	}
	if len(elements) == 1 {
		for _, f := range d.files {
			if strings.EqualFold(f.Name(), elements[0]) {
				return f, true
			}
		}
		return nil, false
	}
	for _, sub := range d.subdirs {
		if strings.EqualFold(sub.Name(), elements[0]) {
			return sub.searchPath(elements[1:])
		}
	}
	return nil, false
}
