package ifo

import (
	"encoding/binary"

	"github.com/bgrewell/dvd-kit/pkg/consts"
	"github.com/bgrewell/dvd-kit/pkg/errs"
	"github.com/bgrewell/dvd-kit/pkg/logging"
	"github.com/bgrewell/dvd-kit/pkg/sector"
)

// OriginalCell maps a cell of the pre-authoring material to its sectors, relative to the
// first sector of the first title VOB. It comes from the cell address table (VTS_C_ADT).
type OriginalCell struct {
	VobID   int          `json:"vob_id" yaml:"vob_id"`
	CellID  int          `json:"cell_id" yaml:"cell_id"`
	Sectors sector.Range `json:"sectors" yaml:"sectors"`
}

// Cell is a cell of a program chain. Cell ids start at 1.
type Cell struct {
	ID int `json:"id" yaml:"id"`
	// AngleID is zero for content common to all angles.
	AngleID           int `json:"angle_id" yaml:"angle_id"`
	OriginalVobID     int `json:"original_vob_id" yaml:"original_vob_id"`
	OriginalCellID    int `json:"original_cell_id" yaml:"original_cell_id"`
	DurationInSeconds int `json:"duration" yaml:"duration"`
	// Sectors is the union of the original cells with the same ids, coalesced.
	Sectors sector.List `json:"sectors" yaml:"sectors"`
}

// InAngle reports whether the cell is played with the given angle. Angle zero selects
// every cell.
func (c *Cell) InAngle(angle int) bool {
	return angle == 0 || c.AngleID == 0 || c.AngleID == angle
}

// Chapter is a program of a program chain, a contiguous run of cells.
type Chapter struct {
	Number    int `json:"number" yaml:"number"`
	FirstCell int `json:"first_cell" yaml:"first_cell"`
	LastCell  int `json:"last_cell" yaml:"last_cell"`
}

// DurationInSeconds sums the durations of the chapter cells in pgc.
func (c *Chapter) DurationInSeconds(pgc *ProgramChain) int {
	duration := 0
	for id := c.FirstCell; id <= c.LastCell; id++ {
		if cell := pgc.Cell(id); cell != nil {
			duration += cell.DurationInSeconds
		}
	}
	return duration
}

// ProgramChain is a PGC of a title set: one playable title.
type ProgramChain struct {
	title      int
	duration   int
	frameRate  int
	next       int
	previous   int
	parent     int
	angleCount int
	palette    []byte
	cells      []Cell
	chapters   []Chapter
}

// TitleNumber returns the title number of the PGC in the title set, starting at 1.
func (p *ProgramChain) TitleNumber() int {
	return p.title
}

// NextTitleNumber returns the title to play after this one, zero if none.
func (p *ProgramChain) NextTitleNumber() int {
	return p.next
}

// PreviousTitleNumber returns the title to play before this one, zero if none.
func (p *ProgramChain) PreviousTitleNumber() int {
	return p.previous
}

// ParentTitleNumber returns the parent title, zero if none.
func (p *ProgramChain) ParentTitleNumber() int {
	return p.parent
}

func (p *ProgramChain) DurationInSeconds() int {
	return p.duration
}

// FrameRate returns 25 or 30, or zero when the IFO declares no valid rate.
func (p *ProgramChain) FrameRate() int {
	return p.frameRate
}

// AngleCount returns the number of angles, zero when there are only common cells.
func (p *ProgramChain) AngleCount() int {
	return p.angleCount
}

// Palette returns the 16-entry subpicture palette, each entry is (0, Y, Cr, Cb).
func (p *ProgramChain) Palette() []byte {
	return p.palette
}

// RGBPalette returns the palette as (0, R, G, B) entries.
func (p *ProgramChain) RGBPalette() []byte {
	return YUVToRGB(p.palette)
}

// PaletteString returns the RGB palette as "rrggbb,...".
func (p *ProgramChain) PaletteString() string {
	return PaletteString(p.RGBPalette())
}

func (p *ProgramChain) Cells() []Cell {
	return p.cells
}

func (p *ProgramChain) Chapters() []Chapter {
	return p.chapters
}

// Cell returns the cell with the given id, nil if there is none.
func (p *ProgramChain) Cell(id int) *Cell {
	if id < 1 || id > len(p.cells) {
		return nil
	}
	return &p.cells[id-1]
}

// TotalSectorCount returns the number of sectors of the cells played with angle.
func (p *ProgramChain) TotalSectorCount(angle int) int {
	total := 0
	for i := range p.cells {
		if p.cells[i].InAngle(angle) {
			total += p.cells[i].Sectors.TotalCount()
		}
	}
	return total
}

// decodeProgramChain decodes the PGC at offset start in the IFO content.
func decodeProgramChain(data []byte, start, title int, originals []OriginalCell, log *logging.Logger) (*ProgramChain, error) {
	if start < 0 || start+consts.PGC_MIN_SIZE > len(data) {
		return nil, errs.Malformed(start, "PGC of title %d needs %d bytes, IFO size is %d", title, consts.PGC_MIN_SIZE, len(data))
	}

	pgc := &ProgramChain{
		title:    title,
		next:     int(binary.BigEndian.Uint16(data[start+consts.PGC_NEXT_PGC:])),
		previous: int(binary.BigEndian.Uint16(data[start+consts.PGC_PREVIOUS_PGC:])),
		parent:   int(binary.BigEndian.Uint16(data[start+consts.PGC_PARENT_PGC:])),
		palette:  make([]byte, consts.PGC_PALETTE_SIZE),
	}
	copy(pgc.palette, data[start+consts.PGC_PALETTE:])

	var err error
	pgc.duration, pgc.frameRate, err = DecodeBCDDuration(binary.BigEndian.Uint32(data[start+consts.PGC_DURATION:]))
	if err != nil {
		return nil, errs.Malformed(start+consts.PGC_DURATION, "PGC of title %d: %v", title, err)
	}

	programCount := int(data[start+consts.PGC_PROGRAM_COUNT])
	cellCount := int(data[start+consts.PGC_CELL_COUNT])

	programMap := start + int(binary.BigEndian.Uint16(data[start+consts.PGC_PROGRAM_MAP:]))
	if programCount > 0 && programMap+programCount > len(data) {
		return nil, errs.Malformed(start+consts.PGC_PROGRAM_MAP, "program map of title %d (%d entries at 0x%X) does not fit in %d bytes",
			title, programCount, programMap, len(data))
	}
	cellPlayback := start + int(binary.BigEndian.Uint16(data[start+consts.PGC_CELL_PLAYBACK:]))
	if cellCount > 0 && cellPlayback+cellCount*consts.PGC_CELL_PLAYBACK_SIZE > len(data) {
		return nil, errs.Malformed(start+consts.PGC_CELL_PLAYBACK, "cell playback table of title %d (%d entries at 0x%X) does not fit in %d bytes",
			title, cellCount, cellPlayback, len(data))
	}
	cellPosition := start + int(binary.BigEndian.Uint16(data[start+consts.PGC_CELL_POSITION:]))
	if cellCount > 0 && cellPosition+cellCount*consts.PGC_CELL_POSITION_SIZE > len(data) {
		return nil, errs.Malformed(start+consts.PGC_CELL_POSITION, "cell position table of title %d (%d entries at 0x%X) does not fit in %d bytes",
			title, cellCount, cellPosition, len(data))
	}

	if err := pgc.decodeCells(data, cellPlayback, cellPosition, cellCount, originals, log); err != nil {
		return nil, err
	}
	if err := pgc.decodeChapters(data, programMap, programCount); err != nil {
		return nil, err
	}
	log.Trace("Decoded PGC", "title", title, "duration", pgc.duration, "cells", len(pgc.cells),
		"chapters", len(pgc.chapters), "angles", pgc.angleCount)
	return pgc, nil
}

// decodeCells reads the cell playback and cell position tables in lockstep.
func (p *ProgramChain) decodeCells(data []byte, playback, position, count int, originals []OriginalCell, log *logging.Logger) error {
	p.cells = make([]Cell, 0, count)
	angle := 0
	for i := 0; i < count; i++ {
		entry := playback + i*consts.PGC_CELL_PLAYBACK_SIZE
		pos := position + i*consts.PGC_CELL_POSITION_SIZE

		category := data[entry]
		duration, _, err := DecodeBCDDuration(binary.BigEndian.Uint32(data[entry+consts.CELL_PLAYBACK_DURATION:]))
		if err != nil {
			return errs.Malformed(entry+consts.CELL_PLAYBACK_DURATION, "cell %d of title %d: %v", i+1, p.title, err)
		}
		first := int(binary.BigEndian.Uint32(data[entry+consts.CELL_PLAYBACK_FIRST:]))
		last := int(binary.BigEndian.Uint32(data[entry+consts.CELL_PLAYBACK_LAST:]))
		if first < 0 || last < first {
			return errs.Malformed(entry+consts.CELL_PLAYBACK_FIRST, "cell %d of title %d has invalid sectors %d-%d", i+1, p.title, first, last)
		}

		// Block mode in bits 7-6 (01 first, 10 middle, 11 last cell), block type in
		// bits 5-4 (01 angle block). Middle and last cells only count inside a block
		// opened by a first cell, a last cell closes the block.
		kind := category & 0xF0
		switch {
		case kind == 0x50:
			angle = 1
		case (kind == 0x90 || kind == 0xD0) && angle != 0:
			angle++
		}
		cellAngle := angle
		if kind == 0 {
			cellAngle = 0
		}
		if kind == 0xD0 {
			angle = 0
		}
		if cellAngle > p.angleCount {
			p.angleCount = cellAngle
		}

		cell := Cell{
			ID:                i + 1,
			AngleID:           cellAngle,
			OriginalVobID:     int(binary.BigEndian.Uint16(data[pos:])),
			OriginalCellID:    int(data[pos+3]),
			DurationInSeconds: duration,
		}
		for _, oc := range originals {
			if oc.VobID == cell.OriginalVobID && oc.CellID == cell.OriginalCellID {
				cell.Sectors = append(cell.Sectors, oc.Sectors)
			}
		}
		// Authoring tools sometimes omit cells from VTS_C_ADT, the playback sectors of the
		// cell are then the only address available.
		if len(cell.Sectors) == 0 {
			log.Debug("No original cell for PGC cell, using playback sectors", "title", p.title, "cell", cell.ID,
				"vobId", cell.OriginalVobID, "cellId", cell.OriginalCellID)
			cell.Sectors = sector.List{sector.NewRange(first, last)}
		}
		cell.Sectors = cell.Sectors.Coalesce()
		p.cells = append(p.cells, cell)
	}
	return nil
}

// decodeChapters splits the cells into chapters from the program map, which holds the
// first cell id of each program.
func (p *ProgramChain) decodeChapters(data []byte, programMap, count int) error {
	p.chapters = make([]Chapter, 0, count)
	for i := 0; i < count; i++ {
		first := int(data[programMap+i])
		if first < 1 || first > len(p.cells) {
			return errs.Malformed(programMap+i, "chapter %d of title %d starts at cell %d, PGC has %d cells",
				i+1, p.title, first, len(p.cells))
		}
		if i == 0 && first != 1 {
			return errs.Malformed(programMap, "first chapter of title %d starts at cell %d", p.title, first)
		}
		if i > 0 {
			prev := &p.chapters[i-1]
			if first <= prev.FirstCell {
				return errs.Malformed(programMap+i, "chapter %d of title %d starts at cell %d, before chapter %d",
					i+1, p.title, first, i)
			}
			prev.LastCell = first - 1
		}
		p.chapters = append(p.chapters, Chapter{Number: i + 1, FirstCell: first, LastCell: len(p.cells)})
	}
	return nil
}
