// Package ifo decodes the information files (VTS_nn_0.IFO) of DVD video title sets:
// stream attributes, program chains with their cells and chapters, and the cell
// address table.
package ifo

import (
	"encoding/binary"
	"fmt"

	"github.com/bgrewell/dvd-kit/pkg/consts"
	"github.com/bgrewell/dvd-kit/pkg/errs"
	"github.com/bgrewell/dvd-kit/pkg/logging"
	"github.com/bgrewell/dvd-kit/pkg/sector"
)

// TitleSet is a decoded video title set.
type TitleSet struct {
	deviceName       string
	volumeID         string
	isEncrypted      bool
	vtsNumber        int
	ifoFileName      string
	vobFileNames     []string
	vobSizeInBytes   int64
	vobStartSector   int
	originalVobCount int
	streams          []*Stream
	pgcs             []*ProgramChain
	originalCells    []OriginalCell
	log              *logging.Logger
}

// Decode decodes the content of a VTS IFO file. The result is not attached to any file
// or device, see LoadFile and LoadFromVolume.
func Decode(data []byte, log *logging.Logger) (*TitleSet, error) {
	log = logging.OrDefault(log).WithName("ifo")
	ts := &TitleSet{
		vtsNumber:      -1,
		vobStartSector: -1,
		log:            log,
	}

	if len(data) < consts.IFO_HEADER_SIZE {
		return nil, errs.Malformed(0, "IFO size is %d bytes, header needs %d", len(data), consts.IFO_HEADER_SIZE)
	}
	if magic := string(data[:len(consts.IFO_VTS_IDENTIFIER)]); magic != consts.IFO_VTS_IDENTIFIER {
		return nil, errs.Malformed(0, "identifier is %q, expected %q", magic, consts.IFO_VTS_IDENTIFIER)
	}

	ts.decodeVideo(data)
	ts.decodeAudio(data)
	ts.decodeSubpictures(data)
	SortStreams(ts.streams)

	if err := ts.decodeCellAddressTable(data); err != nil {
		return nil, err
	}
	if err := ts.decodeProgramChains(data); err != nil {
		return nil, err
	}
	log.Debug("Decoded title set", "streams", len(ts.streams), "titles", len(ts.pgcs),
		"originalCells", len(ts.originalCells), "originalVobs", ts.originalVobCount)
	return ts, nil
}

var (
	ntscSizes = [4][2]int{{720, 480}, {704, 480}, {352, 480}, {352, 240}}
	palSizes  = [4][2]int{{720, 576}, {704, 576}, {352, 576}, {352, 288}}
)

func (ts *TitleSet) decodeVideo(data []byte) {
	video := &Stream{Type: StreamVideo, ID: consts.VIDEO_STREAM_ID}
	ts.streams = append(ts.streams, video)

	standard := (data[consts.IFO_VIDEO_ATTR_OFFSET] >> 4) & 0x03
	aspect := (data[consts.IFO_VIDEO_ATTR_OFFSET] >> 2) & 0x03
	resolution := (data[consts.IFO_VIDEO_ATTR_OFFSET+1] >> 3) & 0x07

	switch {
	case standard == 0 && resolution < 4:
		video.Width, video.Height = ntscSizes[resolution][0], ntscSizes[resolution][1]
	case standard == 1 && resolution < 4:
		video.Width, video.Height = palSizes[resolution][0], palSizes[resolution][1]
	default:
		ts.log.Info("Unknown video format in IFO", "standard", standard, "resolution", resolution)
	}

	switch aspect {
	case 0:
		video.DisplayAspectRatio = DisplayAspectRatio4x3
	case 3:
		video.DisplayAspectRatio = DisplayAspectRatio16x9
	default:
		// Reserved value, assume square pixels.
		if video.Height != 0 {
			video.DisplayAspectRatio = float64(video.Width) / float64(video.Height)
		}
	}
}

// Audio stream id base per coding mode, the stream index is added.
var audioIDBase = map[byte]int{
	0: 0x80, // AC-3
	2: 0xC0, // MPEG-1
	3: 0xC8, // MPEG-2 extended
	4: 0xA0, // LPCM
	6: 0x88, // DTS
}

func (ts *TitleSet) decodeAudio(data []byte) {
	count := int(binary.BigEndian.Uint16(data[consts.IFO_AUDIO_COUNT_OFFSET:]))
	if count > consts.IFO_AUDIO_MAX_COUNT {
		count = consts.IFO_AUDIO_MAX_COUNT
	}
	ts.log.Debug("IFO audio streams", "count", count)

	for i := 0; i < count; i++ {
		entry := data[consts.IFO_AUDIO_ATTR_OFFSET+i*consts.IFO_AUDIO_ATTR_SIZE:]
		coding := entry[0] >> 5
		// 0 unspecified, 1 normal, 2 visually impaired, 3 and 4 director comments.
		kind := entry[5]

		audio := &Stream{
			Type:       StreamAudio,
			ID:         -1,
			Channels:   int(entry[1]&0x07) + 1,
			Impaired:   kind == 2,
			Commentary: kind == 3 || kind == 4,
		}
		if base, ok := audioIDBase[coding]; ok {
			audio.ID = base + i
		} else {
			ts.log.Debug("Unknown audio coding mode", "index", i, "coding", coding)
		}
		if entry[0]&0x0C == 0x04 {
			audio.Language = string(entry[2:4])
		}
		ts.streams = append(ts.streams, audio)
	}
}

func (ts *TitleSet) decodeSubpictures(data []byte) {
	count := int(binary.BigEndian.Uint16(data[consts.IFO_SUBPIC_COUNT_OFFSET:]))
	if count > consts.IFO_SUBPIC_MAX_COUNT {
		count = consts.IFO_SUBPIC_MAX_COUNT
	}
	ts.log.Debug("IFO subtitle streams", "count", count)

	for i := 0; i < count; i++ {
		entry := data[consts.IFO_SUBPIC_ATTR_OFFSET+i*consts.IFO_SUBPIC_ATTR_SIZE:]
		// 1 to 7 are sizes and captions, in practice used for the hearing impaired.
		// 9 forced, 13 to 15 director comments.
		kind := entry[5]

		sub := &Stream{
			Type:       StreamSubtitle,
			ID:         consts.SUBPICTURE_STREAM_ID_BASE + i,
			Impaired:   kind >= 1 && kind <= 7,
			Commentary: kind >= 13 && kind <= 15,
			Forced:     kind == 9,
		}
		if entry[0]&0x03 == 0x01 {
			sub.Language = string(entry[2:4])
		}
		ts.streams = append(ts.streams, sub)
	}
}

// decodeCellAddressTable reads VTS_C_ADT, the sectors of each original cell.
func (ts *TitleSet) decodeCellAddressTable(data []byte) error {
	start := consts.DVD_SECTOR_SIZE * int(binary.BigEndian.Uint32(data[consts.IFO_VTS_C_ADT_OFFSET:]))
	if start+consts.IFO_ADT_HEADER_SIZE > len(data) {
		return errs.Malformed(consts.IFO_VTS_C_ADT_OFFSET, "cell address table at 0x%X is beyond the end of the IFO (%d bytes)", start, len(data))
	}
	ts.originalVobCount = int(binary.BigEndian.Uint16(data[start:]))
	end := start + int(binary.BigEndian.Uint32(data[start+4:])) + 1
	if end > len(data) {
		return errs.Malformed(start+4, "cell address table ends at 0x%X, beyond the end of the IFO (%d bytes)", end, len(data))
	}

	for index := start + consts.IFO_ADT_HEADER_SIZE; index+consts.IFO_ADT_ENTRY_SIZE <= end; index += consts.IFO_ADT_ENTRY_SIZE {
		first := int(binary.BigEndian.Uint32(data[index+4:]))
		last := int(binary.BigEndian.Uint32(data[index+8:]))
		if last < first {
			return errs.Malformed(index+4, "original cell with invalid sectors %d-%d", first, last)
		}
		ts.originalCells = append(ts.originalCells, OriginalCell{
			VobID:   int(binary.BigEndian.Uint16(data[index:])),
			CellID:  int(data[index+2]),
			Sectors: sector.NewRange(first, last),
		})
	}
	ts.log.Debug("IFO cell address table", "originalVobs", ts.originalVobCount, "originalCells", len(ts.originalCells))
	return nil
}

// decodeProgramChains reads VTS_PGCI. PGCs are stored at the index of their title number.
func (ts *TitleSet) decodeProgramChains(data []byte) error {
	start := consts.DVD_SECTOR_SIZE * int(binary.BigEndian.Uint32(data[consts.IFO_VTS_PGCI_OFFSET:]))
	if start+consts.IFO_PGCI_HEADER_SIZE > len(data) {
		return errs.Malformed(consts.IFO_VTS_PGCI_OFFSET, "PGCI at 0x%X is beyond the end of the IFO (%d bytes)", start, len(data))
	}
	count := int(binary.BigEndian.Uint16(data[start:]))
	lastByte := int(binary.BigEndian.Uint32(data[start+4:]))
	switch {
	case count == 0:
		return errs.Malformed(start, "PGCI is empty")
	case lastByte == 0 || start+lastByte > len(data):
		return errs.Malformed(start+4, "PGCI last byte 0x%X is beyond the end of the IFO (%d bytes)", start+lastByte, len(data))
	case start+consts.IFO_PGCI_HEADER_SIZE+count*consts.IFO_PGCI_DESCRIPTOR_SIZE > len(data):
		return errs.Malformed(start, "%d PGCI descriptors do not fit in the IFO (%d bytes)", count, len(data))
	}
	ts.log.Debug("IFO program chains", "count", count)

	for i := 0; i < count; i++ {
		desc := start + consts.IFO_PGCI_HEADER_SIZE + i*consts.IFO_PGCI_DESCRIPTOR_SIZE
		if data[desc]&0x80 == 0 {
			continue
		}
		title := int(data[desc] & 0x7F)
		if title < 1 || title > count {
			ts.log.Info("Incorrect title number in PGCI", "title", title, "max", count)
			continue
		}
		pgc, err := decodeProgramChain(data, start+int(binary.BigEndian.Uint32(data[desc+4:])), title, ts.originalCells, ts.log)
		if err != nil {
			return fmt.Errorf("decoding title %d: %w", title, err)
		}
		for len(ts.pgcs) < title {
			ts.pgcs = append(ts.pgcs, nil)
		}
		ts.pgcs[title-1] = pgc
	}
	return nil
}

// DeviceName returns the device the title set was read from, empty for files.
func (ts *TitleSet) DeviceName() string {
	return ts.deviceName
}

// VolumeID returns the identifier of the volume the title set was read from.
func (ts *TitleSet) VolumeID() string {
	return ts.volumeID
}

// IsEncrypted reports whether the title set is on a scrambled medium.
func (ts *TitleSet) IsEncrypted() bool {
	return ts.isEncrypted
}

// VtsNumber returns the title set number, -1 when unknown.
func (ts *TitleSet) VtsNumber() int {
	return ts.vtsNumber
}

func (ts *TitleSet) IfoFileName() string {
	return ts.ifoFileName
}

// VobFileNames returns the title VOB files, VTS_nn_1.VOB first.
func (ts *TitleSet) VobFileNames() []string {
	return ts.vobFileNames
}

func (ts *TitleSet) VobSizeInBytes() int64 {
	return ts.vobSizeInBytes
}

// VobStartSector returns the first sector of VTS_nn_1.VOB on the medium, -1 when the
// title set was not read from a medium. Cell sectors are relative to it.
func (ts *TitleSet) VobStartSector() int {
	return ts.vobStartSector
}

// OriginalVobCount returns the number of VOBs of the pre-authoring material.
func (ts *TitleSet) OriginalVobCount() int {
	return ts.originalVobCount
}

func (ts *TitleSet) OriginalCells() []OriginalCell {
	return ts.originalCells
}

// Streams returns all streams in presentation order.
func (ts *TitleSet) Streams() []*Stream {
	return ts.streams
}

func (ts *TitleSet) VideoStream() *Stream {
	return ts.streams[0]
}

func (ts *TitleSet) AudioStreams() []*Stream {
	return ts.streamsOf(StreamAudio)
}

func (ts *TitleSet) SubtitleStreams() []*Stream {
	return ts.streamsOf(StreamSubtitle)
}

func (ts *TitleSet) streamsOf(t StreamType) []*Stream {
	var result []*Stream
	for _, s := range ts.streams {
		if s.Type == t {
			result = append(result, s)
		}
	}
	return result
}

// TitleCount returns the highest title number. Some titles below it may be missing.
func (ts *TitleSet) TitleCount() int {
	return len(ts.pgcs)
}

// Titles returns the PGCs indexed by title number minus one, with nil for missing titles.
func (ts *TitleSet) Titles() []*ProgramChain {
	return ts.pgcs
}

// Title returns the PGC of a title, nil if there is none.
func (ts *TitleSet) Title(n int) *ProgramChain {
	if n < 1 || n > len(ts.pgcs) {
		return nil
	}
	return ts.pgcs[n-1]
}

// AllTitles returns the chain of titles played with title n: all its previous titles,
// n, then all its next titles. Each title appears once even when the links loop.
func (ts *TitleSet) AllTitles(n int) []*ProgramChain {
	pgc := ts.Title(n)
	if pgc == nil {
		return nil
	}
	seen := map[int]bool{}
	next := pgc.next

	var previous []*ProgramChain
	for pgc != nil && !seen[pgc.title] {
		previous = append(previous, pgc)
		seen[pgc.title] = true
		pgc = ts.Title(pgc.previous)
	}
	result := make([]*ProgramChain, 0, len(previous))
	for i := len(previous) - 1; i >= 0; i-- {
		result = append(result, previous[i])
	}

	for pgc = ts.Title(next); pgc != nil && !seen[pgc.title]; pgc = ts.Title(pgc.next) {
		result = append(result, pgc)
		seen[pgc.title] = true
	}
	return result
}

// AllTitlesDurationInSeconds returns the duration of AllTitles(n).
func (ts *TitleSet) AllTitlesDurationInSeconds(n int) int {
	duration := 0
	for _, pgc := range ts.AllTitles(n) {
		duration += pgc.duration
	}
	return duration
}

// LongestDurationInSeconds returns the longest AllTitlesDurationInSeconds of the titles.
func (ts *TitleSet) LongestDurationInSeconds() int {
	longest := 0
	for n := 1; n <= len(ts.pgcs); n++ {
		if d := ts.AllTitlesDurationInSeconds(n); d > longest {
			longest = d
		}
	}
	return longest
}
