package option

import (
	"github.com/bgrewell/dvd-kit/pkg/consts"
	"github.com/bgrewell/dvd-kit/pkg/logging"
)

type DemuxOptions struct {
	NavPackPolicy NavPackPolicy
	// Angle is the 1-based angle to extract from multi-angle titles.
	Angle int
	// TransferSize is the maximum size of one read on the input, rounded down to sectors.
	TransferSize int
	// FallbackPGC is used when the requested title number does not exist in the title set.
	// Zero means no fallback.
	FallbackPGC int
	// Transfer configures the transfer engine when the demuxer is driven by one.
	Transfer []TransferOption
	Logger   *logging.Logger
}

type DemuxOption func(*DemuxOptions)

// ApplyDemux returns the default demux options modified by opts.
func ApplyDemux(opts ...DemuxOption) DemuxOptions {
	o := DemuxOptions{
		NavPackPolicy: NavPackFix,
		Angle:         1,
		TransferSize:  consts.DEFAULT_TRANSFER_SIZE,
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.Logger = logging.OrDefault(o.Logger)
	return o
}

func WithNavPackPolicy(policy NavPackPolicy) DemuxOption {
	return func(o *DemuxOptions) {
		o.NavPackPolicy = policy
	}
}

func WithAngle(angle int) DemuxOption {
	return func(o *DemuxOptions) {
		o.Angle = angle
	}
}

func WithTransferSize(size int) DemuxOption {
	return func(o *DemuxOptions) {
		o.TransferSize = size
	}
}

func WithFallbackPGC(pgc int) DemuxOption {
	return func(o *DemuxOptions) {
		o.FallbackPGC = pgc
	}
}

func WithDemuxLogger(logger *logging.Logger) DemuxOption {
	return func(o *DemuxOptions) {
		o.Logger = logger
	}
}

func WithTransferOptions(opts ...TransferOption) DemuxOption {
	return func(o *DemuxOptions) {
		o.Transfer = append(o.Transfer, opts...)
	}
}
