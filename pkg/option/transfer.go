package option

import (
	"time"

	"github.com/bgrewell/dvd-kit/pkg/consts"
	"github.com/bgrewell/dvd-kit/pkg/logging"
)

// TransferProgressCallback receives the number of bytes produced so far and the expected
// total, or -1 when the total is unknown.
type TransferProgressCallback func(
	bytesTransferred int64,
	totalBytes int64,
)

type TransferOptions struct {
	// MinBufferSize is the low-water mark: the producer is asked for more data only when
	// every running sink has less than this many bytes waiting.
	MinBufferSize int
	// MaxInputSize stops the transfer after this many bytes were produced. Negative means no limit.
	MaxInputSize int64
	// TransferSize is the read size of the sector producers.
	TransferSize int
	// BadSectorPolicy applies to the device sector producer.
	BadSectorPolicy  BadSectorPolicy
	ProgressInterval time.Duration
	ProgressCallback TransferProgressCallback
	// SessionID identifies the transfer in logs. Generated when empty.
	SessionID string
	Logger    *logging.Logger
}

type TransferOption func(*TransferOptions)

// ApplyTransfer returns the default transfer options modified by opts.
func ApplyTransfer(opts ...TransferOption) TransferOptions {
	o := TransferOptions{
		MinBufferSize:    consts.DEFAULT_MIN_BUFFER_SIZE,
		MaxInputSize:     -1,
		TransferSize:     consts.DEFAULT_TRANSFER_SIZE,
		BadSectorPolicy:  ErrorOnBadSectors,
		ProgressInterval: time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.MinBufferSize <= 0 {
		o.MinBufferSize = consts.DEFAULT_MIN_BUFFER_SIZE
	}
	if o.TransferSize < consts.DVD_SECTOR_SIZE {
		o.TransferSize = consts.DVD_SECTOR_SIZE
	}
	o.Logger = logging.OrDefault(o.Logger)
	return o
}

func WithMinBufferSize(size int) TransferOption {
	return func(o *TransferOptions) {
		o.MinBufferSize = size
	}
}

func WithMaxInputSize(size int64) TransferOption {
	return func(o *TransferOptions) {
		o.MaxInputSize = size
	}
}

func WithReadSize(size int) TransferOption {
	return func(o *TransferOptions) {
		o.TransferSize = size
	}
}

func WithBadSectorPolicy(policy BadSectorPolicy) TransferOption {
	return func(o *TransferOptions) {
		o.BadSectorPolicy = policy
	}
}

// WithTransferProgress sets a progress callback, invoked at most once per interval and
// once more at the end of the transfer.
func WithTransferProgress(interval time.Duration, callback TransferProgressCallback) TransferOption {
	return func(o *TransferOptions) {
		o.ProgressInterval = interval
		o.ProgressCallback = callback
	}
}

func WithSessionID(id string) TransferOption {
	return func(o *TransferOptions) {
		o.SessionID = id
	}
}

func WithTransferLogger(logger *logging.Logger) TransferOption {
	return func(o *TransferOptions) {
		o.Logger = logger
	}
}
