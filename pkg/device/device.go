package device

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/bgrewell/dvd-kit/pkg/consts"
	"github.com/bgrewell/dvd-kit/pkg/css"
	"github.com/bgrewell/dvd-kit/pkg/errs"
	"github.com/bgrewell/dvd-kit/pkg/logging"
	"github.com/bgrewell/dvd-kit/pkg/option"
	"github.com/gofrs/flock"
	"go.uber.org/multierr"
)

// CurrentPosition can be passed as position to ReadSectors to read at the current position.
const CurrentPosition = -1

// Extent is one entry of the sector layout of the medium: a file or a placeholder.
// End is exclusive.
type Extent struct {
	Path  string
	Start int
	End   int
	Vob   bool
}

func (e Extent) description() string {
	if e.Path == "" {
		return fmt.Sprintf("metadata area at sectors %d-%d", e.Start, e.End)
	}
	return e.Path
}

// Device is an open DVD medium. A Device is safe for use by several goroutines, each
// call being serialized, but the read position is shared.
type Device struct {
	mutex      sync.Mutex
	name       string
	handle     css.Handle
	lock       *flock.Flock
	log        *logging.Logger
	keyPolicy  option.KeyCachePolicy
	nextSector int
	volumeSize int
	extents    []Extent
	current    int
}

// Open opens a device or an image file.
func Open(name string, opts ...option.OpenOption) (*Device, error) {
	o := option.ApplyOpen(opts...)
	log := o.Logger.WithName("device")

	var lock *flock.Flock
	if o.ExclusiveLock {
		lock = flock.New(name)
		locked, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("%w: locking %s: %v", errs.ErrDevice, name, err)
		}
		if !locked {
			return nil, fmt.Errorf("%w: %s is in use by another process", errs.ErrDevice, name)
		}
	}

	handle, err := o.Service.Open(name)
	if err != nil {
		if lock != nil {
			lock.Unlock()
		}
		return nil, fmt.Errorf("%w: opening %s: %v", errs.ErrDevice, name, err)
	}

	d := &Device{
		name:       name,
		handle:     handle,
		lock:       lock,
		log:        log,
		keyPolicy:  o.KeyCachePolicy,
		volumeSize: handle.SizeInSectors(),
		current:    -1,
	}
	log.Debug("Opened DVD media", "device", name, "scrambled", handle.IsScrambled(), "sectors", d.volumeSize)
	return d, nil
}

// Name returns the device or image name.
func (d *Device) Name() string {
	return d.name
}

// IsScrambled reports whether the medium is CSS scrambled.
func (d *Device) IsScrambled() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.handle != nil && d.handle.IsScrambled()
}

// NextSector returns the sector which the next read at CurrentPosition will return.
func (d *Device) NextSector() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.nextSector
}

// SizeInSectors returns the volume size, or -1 when unknown.
func (d *Device) SizeInSectors() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.volumeSize
}

// SetLayout attaches the sorted file layout of the volume. Once set, reads never cross a
// file boundary in one service call, scrambled VOB files are decrypted and title keys are
// requested according to the key cache policy.
func (d *Device) SetLayout(extents []Extent, volumeSize int) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.extents = append([]Extent(nil), extents...)
	sort.SliceStable(d.extents, func(i, j int) bool { return d.extents[i].Start < d.extents[j].Start })
	if volumeSize > 0 {
		d.volumeSize = volumeSize
	}
	d.current = d.extentIndex(d.nextSector)
}

// HasLayout reports whether SetLayout was called.
func (d *Device) HasLayout() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.extents != nil
}

// extentIndex returns the index of the extent containing sector, or len(extents).
func (d *Device) extentIndex(sector int) int {
	return sort.Search(len(d.extents), func(i int) bool { return d.extents[i].End > sector })
}

func (d *Device) flagsFor(index int) (css.SeekFlags, css.ReadFlags) {
	if index >= 0 && index < len(d.extents) && d.extents[index].Vob && d.handle.IsScrambled() {
		return css.SeekKey, css.ReadDecrypt
	}
	return css.SeekMPEG, css.NoReadFlags
}

// Seek moves the read position.
func (d *Device) Seek(sector int) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.seek(sector)
}

func (d *Device) seek(sector int) error {
	if d.handle == nil {
		return fmt.Errorf("%w: device %s is closed", errs.ErrDevice, d.name)
	}
	if sector < 0 || (d.volumeSize >= 0 && sector >= d.volumeSize) ||
		(d.extents != nil && d.extentIndex(sector) >= len(d.extents)) {
		return fmt.Errorf("%w: sector %d is outside of %s (%d sectors)", errs.ErrSectorNotFound, sector, d.name, d.volumeSize)
	}
	flags := css.SeekMPEG
	if d.extents != nil {
		index := d.extentIndex(sector)
		keyFlags, _ := d.flagsFor(index)
		changed := index != d.current
		d.current = index
		if keyFlags == css.SeekKey {
			switch d.keyPolicy {
			case option.KeyOnFileChange:
				if changed {
					flags = css.SeekKey
				}
			case option.KeyOnEverySeek:
				flags = css.SeekKey
			}
		}
	}
	if _, err := d.handle.Seek(sector, flags); err != nil {
		d.log.Error(err, "Error seeking DVD media", "device", d.name, "sector", sector)
		return fmt.Errorf("%w: seeking %s at sector %d: %v", errs.ErrDevice, d.name, sector, err)
	}
	d.nextSector = sector
	return nil
}

// ReadSectors reads at most count sectors into buf, starting at position or at the current
// position when position is CurrentPosition. It returns the number of sectors stored in buf.
//
// With SkipBadSectors, skipped sectors advance the position without being stored, so the
// position may advance more than the returned count. Up to DVD_BAD_SECTOR_RETRY consecutive
// bad sectors are skipped or zeroed before the read fails. On failure, the returned count
// is the number of sectors successfully stored before the error.
func (d *Device) ReadSectors(buf []byte, count int, position int, policy option.BadSectorPolicy) (int, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.readSectors(buf, count, position, policy)
}

// ReadSectorsAt reads like ReadSectors and also returns the position after the read. Both
// are taken under one lock, so the result stays consistent when other goroutines share
// the device.
func (d *Device) ReadSectorsAt(buf []byte, count int, position int, policy option.BadSectorPolicy) (stored, next int, err error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	stored, err = d.readSectors(buf, count, position, policy)
	return stored, d.nextSector, err
}

func (d *Device) readSectors(buf []byte, count int, position int, policy option.BadSectorPolicy) (int, error) {
	if d.handle == nil {
		return 0, fmt.Errorf("%w: device %s is closed", errs.ErrDevice, d.name)
	}
	if len(buf) < count*consts.DVD_SECTOR_SIZE {
		return 0, fmt.Errorf("buffer of %d bytes too short for %d sectors", len(buf), count)
	}
	if position >= 0 && position != d.nextSector {
		if err := d.seek(position); err != nil {
			return 0, err
		}
	}

	endSector := d.nextSector + count
	if d.volumeSize >= 0 && endSector > d.volumeSize {
		endSector = d.volumeSize
	}

	result := 0
	badLeft := consts.DVD_BAD_SECTOR_RETRY
	where := d.name
	reportSkipped := func() {
		if badLeft < consts.DVD_BAD_SECTOR_RETRY {
			d.log.Info(fmt.Sprintf("Skipped %d bad sectors in %s", consts.DVD_BAD_SECTOR_RETRY-badLeft, where))
			badLeft = consts.DVD_BAD_SECTOR_RETRY
		}
	}
	defer reportSkipped()

	// Both checks are needed since count and nextSector advance differently when skipping.
	for count > 0 && d.nextSector < endSector {
		seekFlags, readFlags := css.SeekMPEG, css.NoReadFlags
		readCount := count

		if d.extents != nil {
			changed := false
			for d.current < len(d.extents) && (d.current < 0 || d.nextSector >= d.extents[d.current].End) {
				d.current++
				changed = true
			}
			if d.current >= len(d.extents) {
				break
			}
			file := d.extents[d.current]
			seekFlags, readFlags = d.flagsFor(d.current)
			if d.keyPolicy == option.KeyCached {
				seekFlags = css.SeekMPEG
			}
			if changed {
				d.log.Debug(fmt.Sprintf("Switching to %s on DVD", file.description()), "sector", d.nextSector)
				if _, err := d.handle.Seek(d.nextSector, seekFlags); err != nil {
					d.log.Error(err, "Error seeking at first sector of file", "file", file.description())
					return result, fmt.Errorf("%w: seeking at first sector of %s: %v", errs.ErrDevice, file.description(), err)
				}
			}
			where = file.description()
			if remain := file.End - d.nextSector; readCount > remain {
				readCount = remain
			}
		}
		if remain := endSector - d.nextSector; readCount > remain {
			readCount = remain
		}

		got, err := d.handle.Read(buf, readCount, readFlags)
		if err == nil && got == 0 {
			// End of medium.
			break
		}
		if err == nil {
			reportSkipped()
		} else if policy != option.ErrorOnBadSectors && badLeft > 0 {
			// Possibly an intentional bad sector, ignore it if the next one can be reached.
			if _, seekErr := d.handle.Seek(d.nextSector+1, seekFlags); seekErr == nil {
				badLeft--
				err = nil
				switch policy {
				case option.SkipBadSectors:
					got = 0
					d.nextSector++
				case option.ReadBadSectorsAsZero:
					got = 1
					clear(buf[:consts.DVD_SECTOR_SIZE])
				}
			}
		}
		if err != nil {
			d.log.Error(err, "Error reading sector on DVD media", "sector", d.nextSector, "device", d.name)
			return result, fmt.Errorf("%w: reading sector %d on %s: %v", errs.ErrDevice, d.nextSector, d.name, err)
		}

		d.nextSector += got
		result += got
		count -= got
		buf = buf[got*consts.DVD_SECTOR_SIZE:]
	}

	return result, nil
}

// LoadKeys requests the title key at each of the given sectors, then restores the read
// position. Used to fetch all keys of a scrambled medium at once.
func (d *Device) LoadKeys(sectors []int) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.handle == nil {
		return fmt.Errorf("%w: device %s is closed", errs.ErrDevice, d.name)
	}
	var err error
	for _, s := range sectors {
		d.log.Trace("Loading title key", "sector", s)
		if _, seekErr := d.handle.Seek(s, css.SeekKey); seekErr != nil {
			err = multierr.Append(err, fmt.Errorf("%w: loading key at sector %d: %v", errs.ErrDevice, s, seekErr))
		}
	}
	d.log.Debug("Loaded title keys", "count", len(sectors))
	if _, seekErr := d.handle.Seek(d.nextSector, css.SeekMPEG); seekErr != nil {
		err = multierr.Append(err, fmt.Errorf("%w: restoring position %d: %v", errs.ErrDevice, d.nextSector, seekErr))
	}
	return err
}

// Close closes the device and releases its lock.
func (d *Device) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.handle == nil {
		return errors.New("device already closed")
	}
	err := d.handle.Close()
	d.handle = nil
	if d.lock != nil {
		err = multierr.Append(err, d.lock.Unlock())
		d.lock = nil
	}
	d.log.Debug("Closed DVD media", "device", d.name)
	return err
}
