package dvd

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bgrewell/dvd-kit/pkg/demux"
	"github.com/bgrewell/dvd-kit/pkg/device"
	"github.com/bgrewell/dvd-kit/pkg/errs"
	"github.com/bgrewell/dvd-kit/pkg/ifo"
	"github.com/bgrewell/dvd-kit/pkg/logging"
	"github.com/bgrewell/dvd-kit/pkg/option"
	"github.com/bgrewell/dvd-kit/pkg/sector"
	"github.com/bgrewell/dvd-kit/pkg/transfer"
	"github.com/bgrewell/dvd-kit/pkg/volume"
)

// Disc is an opened DVD: the device, its file structure and the decoded title sets.
type Disc struct {
	mutex     sync.Mutex
	dev       *device.Device
	vol       *volume.Volume
	log       *logging.Logger
	titleSets map[int]*ifo.TitleSet
}

// Open opens a DVD device or image, reads its file structure and attaches the file layout
// to the device. Title keys are prefetched on scrambled media unless disabled.
func Open(name string, opts ...option.OpenOption) (*Disc, error) {
	o := option.ApplyOpen(opts...)

	dev, err := device.Open(name, opts...)
	if err != nil {
		return nil, err
	}
	vol, err := volume.Read(dev, o.Logger)
	if err != nil {
		dev.Close()
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	dev.SetLayout(vol.Extents(), vol.SizeInSectors())

	if o.LoadKeys && dev.IsScrambled() {
		if err := dev.LoadKeys(vol.KeySectors()); err != nil {
			dev.Close()
			return nil, err
		}
	}

	return &Disc{
		dev:       dev,
		vol:       vol,
		log:       o.Logger.WithName("dvd").WithValues("device", name),
		titleSets: map[int]*ifo.TitleSet{},
	}, nil
}

func (d *Disc) Device() *device.Device {
	return d.dev
}

func (d *Disc) Volume() *volume.Volume {
	return d.vol
}

// TitleSet returns the decoded title set vtsNumber. Title sets are decoded once.
func (d *Disc) TitleSet(vtsNumber int) (*ifo.TitleSet, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if ts, ok := d.titleSets[vtsNumber]; ok {
		return ts, nil
	}
	ts, err := ifo.LoadFromVolume(d.dev, d.vol, vtsNumber, d.log)
	if err != nil {
		return nil, err
	}
	d.titleSets[vtsNumber] = ts
	return ts, nil
}

// TitleSets returns all title sets of the DVD ordered by number.
func (d *Disc) TitleSets() ([]*ifo.TitleSet, error) {
	var numbers []int
	for _, f := range d.vol.VtsInformationFiles() {
		numbers = append(numbers, volume.VtsInformationFileNumber(f.Name()))
	}
	sort.Ints(numbers)

	result := make([]*ifo.TitleSet, 0, len(numbers))
	for _, n := range numbers {
		ts, err := d.TitleSet(n)
		if err != nil {
			return nil, err
		}
		result = append(result, ts)
	}
	return result, nil
}

// Demux starts the transfer of the demuxed program chain pgc of title set vts to sinks.
// The transfer runs in the background, the returned engine reports its completion. When
// the transfer cannot start, the sinks are aborted.
func (d *Disc) Demux(ctx context.Context, vts, pgc, angle int, sinks []transfer.Sink, opts ...option.DemuxOption) (*transfer.Engine, error) {
	ts, err := d.TitleSet(vts)
	if err != nil {
		transfer.AbortSinks(err, sinks...)
		return nil, err
	}
	opts = append(opts, option.WithAngle(angle))
	demuxer, err := demux.New(ts, pgc, demux.DeviceSource(d.dev, ts.VobStartSector()), opts...)
	if err != nil {
		transfer.AbortSinks(err, sinks...)
		return nil, err
	}

	o := option.ApplyDemux(opts...)
	engine := transfer.NewEngine(transfer.NewDemuxingProducer(demuxer), o.Transfer...)
	if err := engine.Start(ctx, sinks...); err != nil {
		return nil, err
	}
	return engine, nil
}

// ExtractImage starts the transfer of the whole medium to sink. Unreadable sectors are
// written as zeros so the image keeps the layout of the medium.
func (d *Disc) ExtractImage(ctx context.Context, sink transfer.Sink, opts ...option.TransferOption) (*transfer.Engine, error) {
	size := d.vol.SizeInSectors()
	if size <= 0 {
		size = d.dev.SizeInSectors()
	}
	opts = append(opts, option.WithBadSectorPolicy(option.ReadBadSectorsAsZero))
	o := option.ApplyTransfer(opts...)

	sectors := sector.List{sector.NewRange(0, size-1)}
	producer := transfer.NewDeviceSectorProducer(d.dev, sectors, o.BadSectorPolicy, o.TransferSize)
	engine := transfer.NewEngine(producer, opts...)
	if err := engine.Start(ctx, sink); err != nil {
		return nil, err
	}
	return engine, nil
}

// ExtractFile starts the transfer of the file at path in the volume to sink. Scrambled
// VOB files are descrambled.
func (d *Disc) ExtractFile(ctx context.Context, path string, sink transfer.Sink, opts ...option.TransferOption) (*transfer.Engine, error) {
	file, ok := d.vol.SearchPath(path)
	if !ok {
		err := fmt.Errorf("%w: %s", errs.ErrFileNotFound, path)
		transfer.AbortSinks(err, sink)
		return nil, err
	}
	o := option.ApplyTransfer(opts...)

	sectors := sector.List{}
	if file.SectorCount() > 0 {
		sectors = sectors.Add(sector.NewRange(file.StartSector(), file.EndSector()-1))
	}
	producer := transfer.NewDeviceSectorProducer(d.dev, sectors, o.BadSectorPolicy, o.TransferSize)
	engine := transfer.NewEngine(producer, opts...)
	if err := engine.Start(ctx, newTruncatingSink(sink, file.SizeInBytes())); err != nil {
		return nil, err
	}
	return engine, nil
}

func (d *Disc) Close() error {
	return d.dev.Close()
}
