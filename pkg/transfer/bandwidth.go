package transfer

import (
	"fmt"
	"time"

	"github.com/bgrewell/dvd-kit/pkg/consts"
	"github.com/bgrewell/dvd-kit/pkg/logging"
	"github.com/dustin/go-humanize"
)

// BANDWIDTH_REPORT_INTERVAL is the interval of the periodic bandwidth logs.
const BANDWIDTH_REPORT_INTERVAL = 30 * time.Second

// BandwidthReport periodically logs the transfer rate of a sector reader, instantaneous
// and average, in bytes per second and in multiples of the DVD 1x rate.
type BandwidthReport struct {
	log      *logging.Logger
	interval time.Duration
	now      func() time.Time

	started      bool
	startAverage time.Time
	startInstant time.Time
	countAverage int
	countInstant int
}

// NewBandwidthReport returns a report logging at most once per interval. A zero interval
// selects BANDWIDTH_REPORT_INTERVAL.
func NewBandwidthReport(interval time.Duration, log *logging.Logger) *BandwidthReport {
	if interval <= 0 {
		interval = BANDWIDTH_REPORT_INTERVAL
	}
	return &BandwidthReport{
		log:      logging.OrDefault(log),
		interval: interval,
		now:      time.Now,
	}
}

// Start resets the counters and timers. Calling Start on a started report does nothing.
func (r *BandwidthReport) Start() {
	if r.started {
		return
	}
	now := r.now()
	r.startAverage, r.startInstant = now, now
	r.countAverage, r.countInstant = 0, 0
	r.started = true
}

// Transferred accounts sectors and logs the bandwidth when the interval is elapsed.
func (r *BandwidthReport) Transferred(sectors int) {
	if !r.started {
		return
	}
	if sectors > 0 {
		r.countAverage += sectors
		r.countInstant += sectors
	}
	if r.now().Sub(r.startInstant) >= r.interval {
		r.Report()
	}
}

// Report logs the bandwidth now and restarts the instantaneous measurement.
func (r *BandwidthReport) Report() {
	if !r.started {
		return
	}
	now := r.now()
	average := now.Sub(r.startAverage)
	instant := now.Sub(r.startInstant)

	if average > 0 {
		msg := fmt.Sprintf("Transfer bandwidth after %d sectors: ", r.countAverage)
		if instant > 0 {
			msg += rateString(int64(r.countInstant)*consts.DVD_SECTOR_SIZE, instant) + ", "
		}
		msg += "average: " + rateString(int64(r.countAverage)*consts.DVD_SECTOR_SIZE, average)
		r.log.Info(msg)
	}
	r.startInstant = now
	r.countInstant = 0
}

// SectorCount returns the number of sectors accounted since Start.
func (r *BandwidthReport) SectorCount() int {
	return r.countAverage
}

// rateString formats a transfer rate as "12 MB/s (8.7x)".
func rateString(bytes int64, elapsed time.Duration) string {
	if elapsed <= 0 {
		return ""
	}
	perSecond := float64(bytes) / elapsed.Seconds()
	return fmt.Sprintf("%s/s (%.1fx)", humanize.Bytes(uint64(perSecond)), perSecond/consts.DVD_BASE_BANDWIDTH)
}
