package volume

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bgrewell/dvd-kit/pkg/consts"
	"github.com/bgrewell/dvd-kit/pkg/device"
	"github.com/bgrewell/dvd-kit/pkg/errs"
	"github.com/bgrewell/dvd-kit/pkg/iso9660/descriptor"
	"github.com/bgrewell/dvd-kit/pkg/iso9660/directory"
	"github.com/bgrewell/dvd-kit/pkg/logging"
	"github.com/bgrewell/dvd-kit/pkg/option"
)

// SectorReader reads sectors from a medium. *device.Device implements it.
type SectorReader interface {
	ReadSectors(buf []byte, count int, position int, policy option.BadSectorPolicy) (int, error)
}

// Volume is the file structure of a DVD.
type Volume struct {
	id       string
	size     int
	created  time.Time
	modified time.Time
	root     *Directory
	allFiles []*File
	log      *logging.Logger
}

// Read reads the volume descriptors and the complete directory tree of the medium.
func Read(reader SectorReader, log *logging.Logger) (*Volume, error) {
	log = logging.OrDefault(log).WithName("volume")

	pvd, err := readPrimaryDescriptor(reader, log)
	if err != nil {
		return nil, err
	}

	root := pvd.RootDirectoryRecord
	if root.DataLength == 0 || (pvd.VolumeSpaceSize > 0 && root.LocationOfExtent >= pvd.VolumeSpaceSize) {
		return nil, fmt.Errorf("%w: root directory at sector %d with %d bytes in a %d-sector volume",
			errs.ErrNoRootDirectory, root.LocationOfExtent, root.DataLength, pvd.VolumeSpaceSize)
	}

	v := &Volume{
		id:       pvd.VolumeIdentifier,
		created:  pvd.VolumeCreationDate,
		modified: pvd.VolumeModificationDate,
		size:     int(pvd.VolumeSpaceSize),
		root:     &Directory{start: int(root.LocationOfExtent), size: int64(root.DataLength)},
		log:      log,
	}
	log.Debug("Found primary volume descriptor", "volumeId", v.id, "sectors", v.size)

	if err := v.readDirectory(reader, v.root, 0, map[int]bool{}); err != nil {
		return nil, err
	}
	v.buildAllFiles()
	log.Debug("Read DVD file structure", "files", len(v.allFiles), "vtsCount", v.VtsCount())
	return v, nil
}

func readPrimaryDescriptor(reader SectorReader, log *logging.Logger) (*descriptor.PrimaryVolumeDescriptor, error) {
	buf := make([]byte, consts.ISO9660_SECTOR_SIZE)
	for i := 0; i < consts.ISO9660_MAX_VOLUME_DESCRIPTORS; i++ {
		sector := consts.ISO9660_SYSTEM_AREA_SECTORS + i
		n, err := reader.ReadSectors(buf, 1, sector, option.ErrorOnBadSectors)
		if err != nil {
			return nil, fmt.Errorf("reading volume descriptor at sector %d: %w", sector, err)
		}
		if n != 1 {
			return nil, fmt.Errorf("%w: volume descriptor set truncated at sector %d", errs.ErrInvalidVolume, sector)
		}

		header := descriptor.VolumeDescriptorHeader{}
		if err := header.Unmarshal(buf); err != nil {
			return nil, fmt.Errorf("volume descriptor at sector %d: %w", sector, err)
		}
		log.Trace("Volume descriptor", "sector", sector, "type", header.Type().String())

		switch header.Type() {
		case descriptor.TYPE_TERMINATOR_DESCRIPTOR:
			return nil, fmt.Errorf("%w: no primary volume descriptor before terminator at sector %d", errs.ErrInvalidVolume, sector)
		case descriptor.TYPE_PRIMARY_DESCRIPTOR:
			pvd := &descriptor.PrimaryVolumeDescriptor{}
			if err := pvd.Unmarshal(buf); err != nil {
				return nil, err
			}
			return pvd, nil
		}
	}
	return nil, fmt.Errorf("%w: no primary volume descriptor in the first %d descriptors",
		errs.ErrInvalidVolume, consts.ISO9660_MAX_VOLUME_DESCRIPTORS)
}

// readDirectory reads the content of dir and recurses into its subdirectories. Each
// directory extent is read once, visited holds the extents already read.
func (v *Volume) readDirectory(reader SectorReader, dir *Directory, depth int, visited map[int]bool) error {
	if depth > consts.ISO9660_MAX_DIRECTORY_DEPTH {
		return fmt.Errorf("%w: more than %d directory levels at %q, probably a directory loop",
			errs.ErrInvalidVolume, consts.ISO9660_MAX_DIRECTORY_DEPTH, dir.path)
	}
	if visited[dir.start] {
		return fmt.Errorf("%w: directory %q at sector %d is already part of the tree, directory loop",
			errs.ErrInvalidVolume, dir.path, dir.start)
	}
	visited[dir.start] = true

	sectorCount := int((dir.size + consts.ISO9660_SECTOR_SIZE - 1) / consts.ISO9660_SECTOR_SIZE)
	if v.size > 0 && (dir.start >= v.size || sectorCount > v.size-dir.start) {
		return fmt.Errorf("%w: directory %q at sector %d with %d bytes extends beyond the %d-sector volume",
			errs.ErrInvalidVolume, dir.path, dir.start, dir.size, v.size)
	}
	data := make([]byte, sectorCount*consts.ISO9660_SECTOR_SIZE)
	n, err := reader.ReadSectors(data, sectorCount, dir.start, option.ErrorOnBadSectors)
	if err != nil {
		return fmt.Errorf("reading directory %q at sector %d: %w", dir.path, dir.start, err)
	}
	if n < sectorCount {
		return fmt.Errorf("%w: directory %q at sector %d truncated, read %d of %d sectors",
			errs.ErrDevice, dir.path, dir.start, n, sectorCount)
	}
	data = data[:dir.size]

	prefix := ""
	if dir.path != "" {
		prefix = dir.path + "/"
	}

	for index := 0; index < len(data); {
		length := int(data[index])
		if length == 0 {
			// Records never cross a sector boundary, the rest of the sector is padding.
			index = (index/consts.ISO9660_SECTOR_SIZE + 1) * consts.ISO9660_SECTOR_SIZE
			continue
		}
		if length < consts.ISO9660_DIRECTORY_RECORD_SIZE || index+length > len(data) {
			break
		}

		record := &directory.DirectoryRecord{}
		if err := record.Unmarshal(data[index : index+length]); err != nil {
			return fmt.Errorf("%w: directory %q at offset %d: %v", errs.ErrInvalidVolume, dir.path, index, err)
		}
		index += length

		if record.IsSpecial() {
			continue
		}
		name := record.Name()
		v.log.Trace("Directory record", "directory", dir.path, "name", name, "sector", record.LocationOfExtent,
			"size", record.DataLength, "isDir", record.IsDirectory())

		if record.IsDirectory() {
			sub := &Directory{
				path:  prefix + name,
				start: int(record.LocationOfExtent),
				size:  int64(record.DataLength),
			}
			dir.subdirs = append(dir.subdirs, sub)
			if err := v.readDirectory(reader, sub, depth+1, visited); err != nil {
				return err
			}
		} else {
			f := NewFile(prefix+name, int(record.LocationOfExtent), int64(record.DataLength))
			f.recorded = record.RecordingDateAndTime
			dir.files = append(dir.files, f)
		}
	}
	return nil
}

// buildAllFiles flattens the directory tree into a list sorted by start sector, with
// placeholders in all holes so that each entry ends where the next one starts.
func (v *Volume) buildAllFiles() {
	var files []*File
	v.root.Walk(func(d *Directory) {
		files = append(files, d.files...)
	})
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].start != files[j].start {
			return files[i].start < files[j].start
		}
		return files[i].EndSector() < files[j].EndSector()
	})

	v.allFiles = make([]*File, 0, 2*len(files)+1)
	last := 0
	for _, f := range files {
		if f.start < last {
			// Shares sectors with a previous file, stays reachable through the tree only.
			v.log.Debug("Overlapping file excluded from the sector layout", "file", f.path, "sector", f.start)
			continue
		}
		if f.start > last {
			v.allFiles = append(v.allFiles, newPlaceholder(last, f.start))
		}
		v.allFiles = append(v.allFiles, f)
		last = f.EndSector()
	}
	if last < v.size {
		v.allFiles = append(v.allFiles, newPlaceholder(last, v.size))
	}
}

// ID returns the volume identifier.
func (v *Volume) ID() string {
	return v.id
}

// CreationDate returns the creation date of the volume, zero when unspecified.
func (v *Volume) CreationDate() time.Time {
	return v.created
}

// ModificationDate returns the modification date of the volume, zero when unspecified.
func (v *Volume) ModificationDate() time.Time {
	return v.modified
}

// SizeInSectors returns the volume size from the primary volume descriptor.
func (v *Volume) SizeInSectors() int {
	return v.size
}

// Root returns the root directory.
func (v *Volume) Root() *Directory {
	return v.root
}

// AllFiles returns all files sorted by start sector, placeholders included.
func (v *Volume) AllFiles() []*File {
	return v.allFiles
}

var pathSeparators = regexp.MustCompile(`[\\/]+`)

// SearchPath returns the file at the given path, relative to the root. Both "/" and "\"
// are accepted as separators and the case is ignored.
func (v *Volume) SearchPath(filePath string) (*File, bool) {
	var elements []string
	for _, e := range pathSeparators.Split(filePath, -1) {
		if e != "" {
			elements = append(elements, e)
		}
	}
	return v.root.searchPath(elements)
}

// FileAt returns the entry of AllFiles which contains sector.
func (v *Volume) FileAt(sector int) (*File, error) {
	i := sort.Search(len(v.allFiles), func(i int) bool { return v.allFiles[i].EndSector() > sector })
	if sector < 0 || i >= len(v.allFiles) || v.allFiles[i].start > sector {
		return nil, fmt.Errorf("%w: sector %d is beyond the end of volume %s", errs.ErrSectorNotFound, sector, v.id)
	}
	return v.allFiles[i], nil
}

// Extents returns the sector layout of the volume for device.Device.SetLayout.
func (v *Volume) Extents() []device.Extent {
	extents := make([]device.Extent, 0, len(v.allFiles))
	for _, f := range v.allFiles {
		extents = append(extents, device.Extent{Path: f.path, Start: f.start, End: f.EndSector(), Vob: f.IsVob()})
	}
	return extents
}

// VideoTSDirectory returns the VIDEO_TS directory at the root of the volume.
func (v *Volume) VideoTSDirectory() (*Directory, bool) {
	for _, d := range v.root.subdirs {
		if strings.EqualFold(d.Name(), "VIDEO_TS") {
			return d, true
		}
	}
	return nil, false
}

// ReadFile reads the complete content of a file through reader.
func (v *Volume) ReadFile(reader SectorReader, f *File) ([]byte, error) {
	count := f.SectorCount()
	data := make([]byte, count*consts.DVD_SECTOR_SIZE)
	n, err := reader.ReadSectors(data, count, f.start, option.ErrorOnBadSectors)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Description(), err)
	}
	if n < count {
		return nil, fmt.Errorf("%w: %s truncated, read %d of %d sectors", errs.ErrDevice, f.Description(), n, count)
	}
	return data[:f.size], nil
}
