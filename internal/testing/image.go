// Package testing builds synthetic DVD structures for tests: ISO-9660 images, VTS IFO
// files, MPEG-PS packs and a scriptable CSS service.
package testing

import (
	"path"
	"sort"
	"strings"
	"time"

	"github.com/bgrewell/dvd-kit/pkg/consts"
	"github.com/bgrewell/dvd-kit/pkg/iso9660/encoding"
)

// First sector used for directories in built images.
const firstDirectorySector = consts.ISO9660_SYSTEM_AREA_SECTORS + 2

// ImageFile is a file to store in a built image.
type ImageFile struct {
	Path string
	Data []byte
	// GapBefore is the number of unused sectors inserted before the file.
	GapBefore int
	// Start is set by Build.
	Start int
}

// ImageBuilder builds a minimal ISO-9660 image: primary descriptor, terminator, one sector
// per directory, then the files in the order they were added.
type ImageBuilder struct {
	VolumeID string
	// TrailingSectors are appended after the last file.
	TrailingSectors int
	// Created is recorded as the volume creation date and as the recording date of files.
	Created time.Time
	files   []*ImageFile
}

// NewImage returns an empty image builder.
func NewImage(volumeID string) *ImageBuilder {
	return &ImageBuilder{VolumeID: volumeID}
}

// AddFile adds a file. Directories in the path are created implicitly.
func (b *ImageBuilder) AddFile(filePath string, data []byte) *ImageBuilder {
	b.files = append(b.files, &ImageFile{Path: strings.Trim(filePath, "/"), Data: data})
	return b
}

// AddFileAfterGap adds a file preceded by gap unused sectors.
func (b *ImageBuilder) AddFileAfterGap(filePath string, data []byte, gap int) *ImageBuilder {
	b.files = append(b.files, &ImageFile{Path: strings.Trim(filePath, "/"), Data: data, GapBefore: gap})
	return b
}

// File returns the added file with this path, after Build it carries its start sector.
func (b *ImageBuilder) File(filePath string) *ImageFile {
	for _, f := range b.files {
		if f.Path == strings.Trim(filePath, "/") {
			return f
		}
	}
	return nil
}

type buildDir struct {
	path    string
	sector  int
	subdirs []*buildDir
	files   []*ImageFile
}

// Build returns the image content.
func (b *ImageBuilder) Build() []byte {
	dirs := map[string]*buildDir{"": {path: ""}}
	var order []*buildDir
	order = append(order, dirs[""])

	var ensure func(p string) *buildDir
	ensure = func(p string) *buildDir {
		if d, ok := dirs[p]; ok {
			return d
		}
		parent := ensure(parentOf(p))
		d := &buildDir{path: p}
		dirs[p] = d
		parent.subdirs = append(parent.subdirs, d)
		order = append(order, d)
		return d
	}
	for _, f := range b.files {
		d := ensure(parentOf(f.Path))
		d.files = append(d.files, f)
	}

	sector := firstDirectorySector
	for _, d := range order {
		d.sector = sector
		sector++
	}
	for _, f := range b.files {
		sector += f.GapBefore
		f.Start = sector
		sector += sectorsOf(len(f.Data))
	}
	volumeSize := sector + b.TrailingSectors

	image := make([]byte, volumeSize*consts.DVD_SECTOR_SIZE)
	writePrimary(image, b.VolumeID, b.Created, volumeSize, dirs[""].sector)
	writeTerminator(image)
	for _, d := range order {
		parent := dirs[parentOf(d.path)]
		writeDirectory(image, d, parent, b.Created)
	}
	for _, f := range b.files {
		copy(image[f.Start*consts.DVD_SECTOR_SIZE:], f.Data)
	}
	return image
}

func parentOf(p string) string {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

func sectorsOf(size int) int {
	return (size + consts.DVD_SECTOR_SIZE - 1) / consts.DVD_SECTOR_SIZE
}

func writePrimary(image []byte, volumeID string, created time.Time, volumeSize, rootSector int) {
	pvd := image[consts.ISO9660_SYSTEM_AREA_SECTORS*consts.DVD_SECTOR_SIZE:]
	pvd[0] = 1
	copy(pvd[1:6], consts.ISO9660_STD_IDENTIFIER)
	pvd[6] = 1
	encoding.PutString(pvd[consts.ISO9660_PVD_VOLUME_ID_OFFSET:consts.ISO9660_PVD_VOLUME_ID_OFFSET+consts.ISO9660_PVD_VOLUME_ID_SIZE], volumeID)
	encoding.PutBothByteOrders32(pvd[consts.ISO9660_PVD_VOLUME_SIZE_OFFSET:], uint32(volumeSize))
	mustPut(encoding.PutDateTime(pvd[consts.ISO9660_PVD_CREATION_DATE_OFFSET:], created))
	mustPut(encoding.PutDateTime(pvd[consts.ISO9660_PVD_MODIFICATION_DATE_OFFSET:], created))
	DirectoryRecord(pvd[consts.ISO9660_PVD_ROOT_RECORD_OFFSET:], "\x00", rootSector, consts.DVD_SECTOR_SIZE, true)
}

func writeTerminator(image []byte) {
	term := image[(consts.ISO9660_SYSTEM_AREA_SECTORS+1)*consts.DVD_SECTOR_SIZE:]
	term[0] = 255
	copy(term[1:6], consts.ISO9660_STD_IDENTIFIER)
	term[6] = 1
}

func writeDirectory(image []byte, d, parent *buildDir, created time.Time) {
	buf := image[d.sector*consts.DVD_SECTOR_SIZE : (d.sector+1)*consts.DVD_SECTOR_SIZE]
	off := DirectoryRecord(buf, "\x00", d.sector, consts.DVD_SECTOR_SIZE, true)
	off += DirectoryRecord(buf[off:], "\x01", parent.sector, consts.DVD_SECTOR_SIZE, true)

	type entry struct {
		name   string
		sector int
		size   int
		dir    bool
	}
	var entries []entry
	for _, s := range d.subdirs {
		entries = append(entries, entry{path.Base(s.path), s.sector, consts.DVD_SECTOR_SIZE, true})
	}
	for _, f := range d.files {
		entries = append(entries, entry{path.Base(f.Path) + ";1", f.Start, len(f.Data), false})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	for _, e := range entries {
		mustPut(encoding.PutRecordingDateTime(buf[off+18:], created))
		off += DirectoryRecord(buf[off:], e.name, e.sector, e.size, e.dir)
	}
}

// DirectoryRecord writes an ISO-9660 directory record into buf and returns its length.
func DirectoryRecord(buf []byte, name string, sector, size int, dir bool) int {
	length := 33 + len(name)
	if len(name)%2 == 0 {
		length++
	}
	buf[0] = byte(length)
	encoding.PutBothByteOrders32(buf[2:], uint32(sector))
	encoding.PutBothByteOrders32(buf[10:], uint32(size))
	if dir {
		buf[25] = 0x02
	}
	encoding.PutBothByteOrders16(buf[28:], 1)
	buf[32] = byte(len(name))
	copy(buf[33:], name)
	return length
}

func mustPut(err error) {
	if err != nil {
		panic(err)
	}
}
