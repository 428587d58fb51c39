package testing

import (
	"encoding/binary"

	"github.com/bgrewell/dvd-kit/pkg/consts"
)

// Audio coding modes as stored in the IFO.
const (
	AudioAC3      = 0
	AudioMPEG1    = 2
	AudioMPEG2Ext = 3
	AudioLPCM     = 4
	AudioDTS      = 6
)

// IfoAudio describes one audio attribute entry.
type IfoAudio struct {
	Coding   byte
	Channels int
	Language string
	Type     byte
}

// IfoSubpicture describes one subpicture attribute entry.
type IfoSubpicture struct {
	Language string
	Type     byte
}

// IfoCell is one entry of the cell playback and cell position tables of a PGC.
type IfoCell struct {
	Category byte
	Duration uint32
	First    int
	Last     int
	VobID    int
	CellID   int
}

// IfoPGC is one program chain.
type IfoPGC struct {
	Title    int
	Next     int
	Previous int
	Parent   int
	Duration uint32
	Palette  [consts.PGC_PALETTE_SIZE]byte
	// Programs holds the starting cell id of each program (chapter).
	Programs []int
	Cells    []IfoCell
	// Invalid clears the "valid" bit of the PGCI descriptor.
	Invalid bool
}

// IfoAddress is one entry of the cell address table.
type IfoAddress struct {
	VobID  int
	CellID int
	First  int
	Last   int
}

// IfoBuilder builds a VTS IFO file.
type IfoBuilder struct {
	// Standard is 0 for NTSC, 1 for PAL.
	Standard byte
	// Aspect is 0 for 4:3, 3 for 16:9.
	Aspect      byte
	Resolution  byte
	Audio       []IfoAudio
	Subpictures []IfoSubpicture
	PGCs        []IfoPGC
	Addresses   []IfoAddress
}

// BCD encodes a duration as hh:mm:ss:ff with a 30 fps frame rate marker.
func BCD(hours, minutes, seconds, frames int) uint32 {
	enc := func(v int) uint32 { return uint32((v/10)<<4 | v%10) }
	return enc(hours)<<24 | enc(minutes)<<16 | enc(seconds)<<8 | 0xC0 | enc(frames)&0x3F
}

// Build returns the IFO content: header in sector 0, PGCI from sector 1, C_ADT in the
// sector following the PGCI.
func (b *IfoBuilder) Build() []byte {
	pgci := b.buildPGCI()
	pgciSector := 1
	adtSector := pgciSector + sectorsOf(len(pgci))
	adt := b.buildADT()
	total := (adtSector + sectorsOf(len(adt))) * consts.DVD_SECTOR_SIZE

	ifo := make([]byte, total)
	copy(ifo, consts.IFO_VTS_IDENTIFIER)
	binary.BigEndian.PutUint32(ifo[consts.IFO_LAST_SECTOR_OFFSET:], uint32(total/consts.DVD_SECTOR_SIZE-1))
	binary.BigEndian.PutUint32(ifo[consts.IFO_VTS_PGCI_OFFSET:], uint32(pgciSector))
	binary.BigEndian.PutUint32(ifo[consts.IFO_VTS_C_ADT_OFFSET:], uint32(adtSector))

	ifo[consts.IFO_VIDEO_ATTR_OFFSET] = b.Standard<<4 | b.Aspect<<2
	ifo[consts.IFO_VIDEO_ATTR_OFFSET+1] = b.Resolution << 3

	binary.BigEndian.PutUint16(ifo[consts.IFO_AUDIO_COUNT_OFFSET:], uint16(len(b.Audio)))
	for i, a := range b.Audio {
		entry := ifo[consts.IFO_AUDIO_ATTR_OFFSET+i*consts.IFO_AUDIO_ATTR_SIZE:]
		entry[0] = a.Coding << 5
		if a.Language != "" {
			entry[0] |= 0x04
			copy(entry[2:4], a.Language)
		}
		if a.Channels > 0 {
			entry[1] = byte(a.Channels-1) & 0x07
		}
		entry[5] = a.Type
	}

	binary.BigEndian.PutUint16(ifo[consts.IFO_SUBPIC_COUNT_OFFSET:], uint16(len(b.Subpictures)))
	for i, s := range b.Subpictures {
		entry := ifo[consts.IFO_SUBPIC_ATTR_OFFSET+i*consts.IFO_SUBPIC_ATTR_SIZE:]
		if s.Language != "" {
			entry[0] = 0x01
			copy(entry[2:4], s.Language)
		}
		entry[5] = s.Type
	}

	copy(ifo[pgciSector*consts.DVD_SECTOR_SIZE:], pgci)
	copy(ifo[adtSector*consts.DVD_SECTOR_SIZE:], adt)
	return ifo
}

func (b *IfoBuilder) buildPGCI() []byte {
	header := consts.IFO_PGCI_HEADER_SIZE + len(b.PGCs)*consts.IFO_PGCI_DESCRIPTOR_SIZE
	pgci := make([]byte, header)
	binary.BigEndian.PutUint16(pgci[0:], uint16(len(b.PGCs)))
	for i, p := range b.PGCs {
		body := buildPGC(p)
		desc := pgci[consts.IFO_PGCI_HEADER_SIZE+i*consts.IFO_PGCI_DESCRIPTOR_SIZE:]
		desc[0] = byte(p.Title) & 0x7F
		if !p.Invalid {
			desc[0] |= 0x80
		}
		binary.BigEndian.PutUint32(desc[4:], uint32(len(pgci)))
		pgci = append(pgci, body...)
	}
	binary.BigEndian.PutUint32(pgci[4:], uint32(len(pgci)-1))
	return pgci
}

func buildPGC(p IfoPGC) []byte {
	programMap := consts.PGC_MIN_SIZE
	playback := programMap + (len(p.Programs)+1)&^1
	position := playback + len(p.Cells)*consts.PGC_CELL_PLAYBACK_SIZE
	size := position + len(p.Cells)*consts.PGC_CELL_POSITION_SIZE

	pgc := make([]byte, size)
	pgc[consts.PGC_PROGRAM_COUNT] = byte(len(p.Programs))
	pgc[consts.PGC_CELL_COUNT] = byte(len(p.Cells))
	binary.BigEndian.PutUint32(pgc[consts.PGC_DURATION:], p.Duration)
	binary.BigEndian.PutUint16(pgc[consts.PGC_NEXT_PGC:], uint16(p.Next))
	binary.BigEndian.PutUint16(pgc[consts.PGC_PREVIOUS_PGC:], uint16(p.Previous))
	binary.BigEndian.PutUint16(pgc[consts.PGC_PARENT_PGC:], uint16(p.Parent))
	copy(pgc[consts.PGC_PALETTE:], p.Palette[:])
	binary.BigEndian.PutUint16(pgc[consts.PGC_PROGRAM_MAP:], uint16(programMap))
	binary.BigEndian.PutUint16(pgc[consts.PGC_CELL_PLAYBACK:], uint16(playback))
	binary.BigEndian.PutUint16(pgc[consts.PGC_CELL_POSITION:], uint16(position))

	for i, cellID := range p.Programs {
		pgc[programMap+i] = byte(cellID)
	}
	for i, c := range p.Cells {
		entry := pgc[playback+i*consts.PGC_CELL_PLAYBACK_SIZE:]
		entry[0] = c.Category
		binary.BigEndian.PutUint32(entry[consts.CELL_PLAYBACK_DURATION:], c.Duration)
		binary.BigEndian.PutUint32(entry[consts.CELL_PLAYBACK_FIRST:], uint32(c.First))
		binary.BigEndian.PutUint32(entry[consts.CELL_PLAYBACK_LAST:], uint32(c.Last))

		pos := pgc[position+i*consts.PGC_CELL_POSITION_SIZE:]
		binary.BigEndian.PutUint16(pos[0:], uint16(c.VobID))
		pos[3] = byte(c.CellID)
	}
	return pgc
}

func (b *IfoBuilder) buildADT() []byte {
	adt := make([]byte, consts.IFO_ADT_HEADER_SIZE+len(b.Addresses)*consts.IFO_ADT_ENTRY_SIZE)
	vobs := 0
	for i, a := range b.Addresses {
		entry := adt[consts.IFO_ADT_HEADER_SIZE+i*consts.IFO_ADT_ENTRY_SIZE:]
		binary.BigEndian.PutUint16(entry[0:], uint16(a.VobID))
		entry[2] = byte(a.CellID)
		binary.BigEndian.PutUint32(entry[4:], uint32(a.First))
		binary.BigEndian.PutUint32(entry[8:], uint32(a.Last))
		if a.VobID > vobs {
			vobs = a.VobID
		}
	}
	binary.BigEndian.PutUint16(adt[0:], uint16(vobs))
	binary.BigEndian.PutUint32(adt[4:], uint32(len(adt)-1))
	return adt
}
