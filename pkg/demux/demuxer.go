// Package demux extracts the MPEG-PS stream of one program chain from a title set. It
// walks the sectors of the PGC cells, keeps the VOBUs which belong to the cells and
// rewrites, keeps or drops their navigation packs.
package demux

import (
	"fmt"
	"io"

	"github.com/bgrewell/dvd-kit/pkg/consts"
	"github.com/bgrewell/dvd-kit/pkg/ifo"
	"github.com/bgrewell/dvd-kit/pkg/logging"
	"github.com/bgrewell/dvd-kit/pkg/option"
	"github.com/bgrewell/dvd-kit/pkg/sector"
)

// State is the state of a Demuxer between two steps.
type State int

const (
	// AdvancingCell selects the next cell to read.
	AdvancingCell State = iota
	// ReadingSectorRun reads and writes the sectors of the current VOBU.
	ReadingSectorRun
	// ClassifyingVobu decides whether the VOBU starting at the pending navigation pack
	// belongs to the current cell.
	ClassifyingVobu
	// Done is final, all cells are demuxed.
	Done
)

func (s State) String() string {
	switch s {
	case AdvancingCell:
		return "advancing-cell"
	case ReadingSectorRun:
		return "reading-sector-run"
	case ClassifyingVobu:
		return "classifying-vobu"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Demuxer is a state machine which demuxes one PGC, one step at a time.
type Demuxer struct {
	pgc         *ifo.ProgramChain
	angle       int
	policy      option.NavPackPolicy
	sectorChunk int
	source      Source
	log         *logging.Logger

	state State
	cells []*ifo.Cell
	// Input position: cell index, range index in the cell, next sector in the range.
	cell       int
	ranges     sector.List
	rangeIndex int
	next       int

	buf       []byte
	pending   int // first unprocessed sector in buf
	buffered  int // sectors in buf
	inContent bool

	written     int
	read        int
	totalInput  int
	currentVob  int
	currentCell int
}

// New returns a demuxer of title pgcNumber of ts reading from source. When the title does
// not exist, the fallback PGC of the options is used, if any.
func New(ts *ifo.TitleSet, pgcNumber int, source Source, opts ...option.DemuxOption) (*Demuxer, error) {
	o := option.ApplyDemux(opts...)
	log := o.Logger.WithName("demux")

	pgc := ts.Title(pgcNumber)
	if pgc == nil && o.FallbackPGC > 0 {
		log.Debug("PGC not found, using fallback", "pgc", pgcNumber, "fallback", o.FallbackPGC)
		pgc = ts.Title(o.FallbackPGC)
	}
	if pgc == nil {
		return nil, fmt.Errorf("program chain %d not found in DVD title set", pgcNumber)
	}
	if o.Angle < 1 || (pgc.AngleCount() > 0 && o.Angle > pgc.AngleCount()) {
		return nil, fmt.Errorf("invalid angle #%d in DVD content, title %d has %d angles", o.Angle, pgc.TitleNumber(), pgc.AngleCount())
	}
	if source == nil {
		return nil, fmt.Errorf("no input source for title %d", pgc.TitleNumber())
	}

	chunk := o.TransferSize / consts.DVD_SECTOR_SIZE
	if chunk < 1 {
		chunk = 1
	}
	d := &Demuxer{
		pgc:         pgc,
		angle:       o.Angle,
		policy:      o.NavPackPolicy,
		sectorChunk: chunk,
		source:      source,
		log:         log,
		state:       AdvancingCell,
		cell:        -1,
		buf:         make([]byte, chunk*consts.DVD_SECTOR_SIZE),
		inContent:   true,
		totalInput:  pgc.TotalSectorCount(o.Angle),
	}
	cells := pgc.Cells()
	for i := range cells {
		if cells[i].InAngle(o.Angle) {
			d.cells = append(d.cells, &cells[i])
		}
	}
	log.Debug("Demuxing program chain", "title", pgc.TitleNumber(), "angle", o.Angle, "policy", o.NavPackPolicy.String(),
		"cells", len(d.cells), "sectors", d.totalInput)
	return d, nil
}

// ProgramChain returns the demuxed PGC, after fallback.
func (d *Demuxer) ProgramChain() *ifo.ProgramChain {
	return d.pgc
}

func (d *Demuxer) State() State {
	return d.state
}

// Idle reports whether all sectors read so far were processed, the next step reads.
func (d *Demuxer) Idle() bool {
	return d.state != ClassifyingVobu && d.pending >= d.buffered
}

// WrittenSectors returns the number of sectors written to the output.
func (d *Demuxer) WrittenSectors() int {
	return d.written
}

// ReadSectors returns the number of sectors read from the input.
func (d *Demuxer) ReadSectors() int {
	return d.read
}

// TotalInputSectors returns the number of sectors in the cells to demux. The output is
// usually a bit smaller.
func (d *Demuxer) TotalInputSectors() int {
	return d.totalInput
}

// Step runs one transition of the state machine. A step reads at most one chunk of input
// sectors, no more than maxBytes when maxBytes is not negative. It returns true when the
// demux is complete. Errors are final, sectors already written are not retracted.
func (d *Demuxer) Step(out io.Writer, maxBytes int64) (bool, error) {
	switch d.state {
	case AdvancingCell:
		d.advanceCell()
	case ReadingSectorRun:
		if d.pending < d.buffered {
			return false, d.writeRun(out)
		}
		if err := d.readChunk(maxBytes); err != nil {
			return false, err
		}
	case ClassifyingVobu:
		return false, d.classifyVobu(out)
	}
	return d.state == Done, nil
}

// Run steps until completion.
func (d *Demuxer) Run(out io.Writer) error {
	for {
		done, err := d.Step(out, -1)
		if err != nil || done {
			return err
		}
	}
}

func (d *Demuxer) advanceCell() {
	d.cell++
	d.ranges = nil
	for d.cell < len(d.cells) && d.cells[d.cell].Sectors.TotalCount() == 0 {
		d.cell++
	}
	if d.cell >= len(d.cells) {
		d.state = Done
		d.log.Debug("Demux completed", "title", d.pgc.TitleNumber(), "read", d.read, "written", d.written)
		return
	}
	c := d.cells[d.cell]
	d.log.Debug("Demuxing cell", "cell", c.ID, "angle", c.AngleID, "sectors", c.Sectors.String())
	d.ranges = c.Sectors
	d.rangeIndex = 0
	d.next = d.ranges[0].First
	d.currentVob, d.currentCell = c.OriginalVobID, c.OriginalCellID
	d.state = ReadingSectorRun
}

// advanceInput moves the input position forward by count sectors in the current cell.
func (d *Demuxer) advanceInput(count int) {
	for count > 0 && d.rangeIndex < len(d.ranges) {
		remain := d.ranges[d.rangeIndex].Last - d.next + 1
		if count < remain {
			d.next += count
			return
		}
		count -= remain
		d.rangeIndex++
		if d.rangeIndex < len(d.ranges) {
			d.next = d.ranges[d.rangeIndex].First
		}
	}
}

func (d *Demuxer) cellExhausted() bool {
	return d.rangeIndex >= len(d.ranges)
}

func (d *Demuxer) readChunk(maxBytes int64) error {
	if d.cellExhausted() {
		d.state = AdvancingCell
		return nil
	}
	count := d.ranges[d.rangeIndex].Last - d.next + 1
	if count > d.sectorChunk {
		count = d.sectorChunk
	}
	if maxBytes >= 0 && int64(count) > maxBytes/consts.DVD_SECTOR_SIZE {
		count = int(maxBytes / consts.DVD_SECTOR_SIZE)
	}
	if count <= 0 {
		return nil
	}

	stored, consumed, err := d.source.ReadSectors(d.next, d.buf, count)
	if err != nil {
		return fmt.Errorf("reading %d sectors at VTS sector %d: %w", count, d.next, err)
	}
	if consumed <= 0 {
		return fmt.Errorf("unexpected end of input at VTS sector %d", d.next)
	}
	d.read += stored
	d.pending, d.buffered = 0, stored
	d.advanceInput(consumed)
	return nil
}

// writeRun processes the buffered sectors up to the next navigation pack.
func (d *Demuxer) writeRun(out io.Writer) error {
	for d.pending < d.buffered {
		sec := d.sectorAt(d.pending)
		if !HasPackStartCode(sec) {
			return fmt.Errorf("invalid pack start code 0x%08X in demuxed sector %d", packStartCode(sec), d.read-d.buffered+d.pending)
		}
		if IsNavPack(sec) {
			d.state = ClassifyingVobu
			return nil
		}
		if d.inContent {
			if err := d.write(out, sec); err != nil {
				return err
			}
		}
		d.pending++
	}
	return nil
}

// classifyVobu processes the pending navigation pack, which starts a new VOBU.
func (d *Demuxer) classifyVobu(out io.Writer) error {
	sec := d.sectorAt(d.pending)
	vobID, cellID := NavPackIDs(sec)
	in := vobID == d.currentVob && cellID == d.currentCell
	if in != d.inContent {
		d.log.Trace("VOBU membership changed", "inContent", in, "vobId", vobID, "cellId", cellID,
			"expectedVobId", d.currentVob, "expectedCellId", d.currentCell)
	}
	d.inContent = in

	if d.policy == option.NavPackFix {
		FixNavPack(sec, uint32(d.written))
	}
	if d.inContent && d.policy != option.NavPackRemove {
		if err := d.write(out, sec); err != nil {
			return err
		}
	}
	d.pending++
	d.state = ReadingSectorRun
	return nil
}

func (d *Demuxer) sectorAt(index int) []byte {
	return d.buf[index*consts.DVD_SECTOR_SIZE : (index+1)*consts.DVD_SECTOR_SIZE]
}

func (d *Demuxer) write(out io.Writer, sec []byte) error {
	if _, err := out.Write(sec); err != nil {
		return err
	}
	d.written++
	return nil
}

func packStartCode(sec []byte) uint32 {
	if len(sec) < 4 {
		return 0
	}
	return uint32(sec[0])<<24 | uint32(sec[1])<<16 | uint32(sec[2])<<8 | uint32(sec[3])
}
