package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/bgrewell/dvd-kit/pkg/consts"
	"github.com/bgrewell/dvd-kit/pkg/demux"
	"github.com/bgrewell/dvd-kit/pkg/errs"
	"github.com/bgrewell/dvd-kit/pkg/logging"
	"github.com/bgrewell/dvd-kit/pkg/option"
	"github.com/bgrewell/dvd-kit/pkg/sector"
	"github.com/bgrewell/dvd-kit/pkg/vob"
)

// Producer generates the data of a transfer. The implementations are the producers of
// this package.
type Producer interface {
	// initialize prepares the transfer. An error fails Start.
	initialize(ctx context.Context, log *logging.Logger) error
	// needMore writes data or closes w. At most maxSize bytes may be written when maxSize
	// is not negative. Returning false or an error aborts the transfer.
	needMore(ctx context.Context, w *Writer, maxSize int64) (bool, error)
	// cleanup is called once at the end, clean is true when the producer closed the
	// transfer.
	cleanup(clean bool)
	// sizeHint returns the expected number of bytes, -1 when unknown.
	sizeHint() int64
}

// writeFailed converts the error of a write into the result of needMore. A write fails on
// the sinks only when all of them failed, their errors are already recorded.
func writeFailed(err error) (bool, error) {
	if errors.Is(err, errs.ErrSink) {
		return false, nil
	}
	return false, err
}

// sectorCursor walks a sector list.
type sectorCursor struct {
	sectors sector.List
	index   int
	next    int
}

func newSectorCursor(sectors sector.List) sectorCursor {
	c := sectorCursor{sectors: sectors, next: -1}
	c.skipEmpty()
	return c
}

func (c *sectorCursor) skipEmpty() {
	for c.index < len(c.sectors) && c.sectors[c.index].IsEmpty() {
		c.index++
	}
	if c.index < len(c.sectors) {
		c.next = c.sectors[c.index].First
	}
}

func (c *sectorCursor) done() bool {
	return c.index >= len(c.sectors)
}

// remaining returns the number of sectors left in the current range.
func (c *sectorCursor) remaining() int {
	return c.sectors[c.index].Last - c.next + 1
}

// startOfRange reports whether the cursor is at the first sector of a range.
func (c *sectorCursor) startOfRange() bool {
	return c.next == c.sectors[c.index].First
}

func (c *sectorCursor) advance(count int) {
	for count > 0 && !c.done() {
		remain := c.remaining()
		if count < remain {
			c.next += count
			return
		}
		count -= remain
		c.index++
		c.skipEmpty()
	}
}

// chunkCount returns the number of sectors of the next read.
func chunkCount(chunk, remaining int, maxSize int64) int {
	count := min(chunk, remaining)
	if maxSize >= 0 {
		count = min(count, int(maxSize/consts.DVD_SECTOR_SIZE))
	}
	return count
}

func sectorChunk(transferSize int) int {
	return max(1, transferSize/consts.DVD_SECTOR_SIZE)
}

// SectorReader is the part of device.Device used by DeviceSectorProducer.
type SectorReader interface {
	ReadSectorsAt(buf []byte, count int, position int, policy option.BadSectorPolicy) (stored, next int, err error)
}

// DeviceSectorProducer reads a list of sectors from a device.
type DeviceSectorProducer struct {
	dev     SectorReader
	sectors sector.List
	policy  option.BadSectorPolicy
	chunk   int
	cursor  sectorCursor
	buf     []byte
	report  *BandwidthReport
	log     *logging.Logger
}

// NewDeviceSectorProducer returns a producer of the sectors of dev. Bad sectors are handled
// according to policy, ReadBadSectorsAsZero keeps the output aligned with the medium.
func NewDeviceSectorProducer(dev SectorReader, sectors sector.List, policy option.BadSectorPolicy, transferSize int) *DeviceSectorProducer {
	chunk := sectorChunk(transferSize)
	return &DeviceSectorProducer{
		dev:     dev,
		sectors: sectors,
		policy:  policy,
		chunk:   chunk,
		buf:     make([]byte, chunk*consts.DVD_SECTOR_SIZE),
	}
}

func (p *DeviceSectorProducer) initialize(_ context.Context, log *logging.Logger) error {
	if p.dev == nil {
		return errors.New("no device for sector transfer")
	}
	p.log = log
	p.cursor = newSectorCursor(p.sectors)
	p.report = NewBandwidthReport(BANDWIDTH_REPORT_INTERVAL, log)
	p.report.Start()
	return nil
}

func (p *DeviceSectorProducer) needMore(ctx context.Context, w *Writer, maxSize int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if p.cursor.done() {
		return true, w.Close()
	}
	count := chunkCount(p.chunk, p.cursor.remaining(), maxSize)
	if count <= 0 {
		return true, w.Close()
	}

	if p.cursor.startOfRange() {
		p.log.Debug("Starting transfer of DVD sectors", "sector", p.cursor.next, "sectors", p.sectors[p.cursor.index].String())
	}
	start := p.cursor.next
	stored, next, err := p.dev.ReadSectorsAt(p.buf, count, start, p.policy)
	if err != nil {
		return false, err
	}
	consumed := max(stored, next-start)
	if consumed <= 0 {
		return false, fmt.Errorf("%w: no sector read at %d", errs.ErrDevice, start)
	}
	p.cursor.advance(consumed)
	p.report.Transferred(stored)
	if stored > 0 {
		if _, err := w.Write(p.buf[:stored*consts.DVD_SECTOR_SIZE]); err != nil {
			return writeFailed(err)
		}
	}
	return true, nil
}

func (p *DeviceSectorProducer) cleanup(bool) {
	if p.report != nil {
		p.report.Report()
	}
}

func (p *DeviceSectorProducer) sizeHint() int64 {
	return int64(p.sectors.TotalCount()) * consts.DVD_SECTOR_SIZE
}

// VobFileSetProducer reads a list of sectors from a VOB file set.
type VobFileSetProducer struct {
	files   *vob.FileSet
	sectors sector.List
	chunk   int
	cursor  sectorCursor
	buf     []byte
}

// NewVobFileSetProducer returns a producer of the sectors of files. A nil list selects all
// sectors of the set.
func NewVobFileSetProducer(files *vob.FileSet, sectors sector.List, transferSize int) *VobFileSetProducer {
	if sectors == nil && files != nil && files.TotalSectors() > 0 {
		sectors = sector.List{sector.NewRange(0, files.TotalSectors()-1)}
	}
	chunk := sectorChunk(transferSize)
	return &VobFileSetProducer{
		files:   files,
		sectors: sectors,
		chunk:   chunk,
		buf:     make([]byte, chunk*consts.DVD_SECTOR_SIZE),
	}
}

func (p *VobFileSetProducer) initialize(context.Context, *logging.Logger) error {
	if p.files == nil {
		return errors.New("no VOB files for sector transfer")
	}
	p.cursor = newSectorCursor(p.sectors)
	return nil
}

func (p *VobFileSetProducer) needMore(ctx context.Context, w *Writer, maxSize int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if p.cursor.done() {
		return true, w.Close()
	}
	count := chunkCount(p.chunk, p.cursor.remaining(), maxSize)
	if count <= 0 {
		return true, w.Close()
	}
	n, err := p.files.Read(p.cursor.next, p.buf, count)
	if err != nil {
		return false, err
	}
	p.cursor.advance(n)
	if _, err := w.Write(p.buf[:n*consts.DVD_SECTOR_SIZE]); err != nil {
		return writeFailed(err)
	}
	return true, nil
}

func (p *VobFileSetProducer) cleanup(bool) {}

func (p *VobFileSetProducer) sizeHint() int64 {
	return int64(p.sectors.TotalCount()) * consts.DVD_SECTOR_SIZE
}

// DemuxingProducer produces the demuxed stream of a program chain.
type DemuxingProducer struct {
	demuxer *demux.Demuxer
	report  *BandwidthReport
}

func NewDemuxingProducer(d *demux.Demuxer) *DemuxingProducer {
	return &DemuxingProducer{demuxer: d}
}

func (p *DemuxingProducer) initialize(_ context.Context, log *logging.Logger) error {
	if p.demuxer == nil {
		return errors.New("no demuxer for transfer")
	}
	p.report = NewBandwidthReport(BANDWIDTH_REPORT_INTERVAL, log)
	p.report.Start()
	return nil
}

// needMore steps the demuxer until one chunk of input is read and processed.
func (p *DemuxingProducer) needMore(ctx context.Context, w *Writer, maxSize int64) (bool, error) {
	if maxSize >= 0 && maxSize < consts.DVD_SECTOR_SIZE {
		return true, w.Close()
	}
	readBefore := p.demuxer.ReadSectors()
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		done, err := p.demuxer.Step(w, maxSize)
		if err != nil {
			return writeFailed(err)
		}
		if done {
			p.report.Transferred(p.demuxer.ReadSectors() - readBefore)
			return true, w.Close()
		}
		if p.demuxer.ReadSectors() > readBefore && p.demuxer.Idle() {
			p.report.Transferred(p.demuxer.ReadSectors() - readBefore)
			return true, nil
		}
	}
}

func (p *DemuxingProducer) cleanup(bool) {
	if p.report != nil {
		p.report.Report()
	}
}

func (p *DemuxingProducer) sizeHint() int64 {
	return int64(p.demuxer.TotalInputSectors()) * consts.DVD_SECTOR_SIZE
}
