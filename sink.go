package dvd

import (
	"io"

	"github.com/bgrewell/dvd-kit/pkg/transfer"
)

// truncatingSink drops everything after the first size bytes, which cuts the padding of
// the last sector of a file.
type truncatingSink struct {
	sink      transfer.Sink
	remaining int64
}

func newTruncatingSink(sink transfer.Sink, size int64) *truncatingSink {
	return &truncatingSink{sink: sink, remaining: size}
}

func (s *truncatingSink) Write(b []byte) (int, error) {
	n := len(b)
	if int64(len(b)) > s.remaining {
		b = b[:s.remaining]
	}
	if len(b) > 0 {
		written, err := s.sink.Write(b)
		s.remaining -= int64(written)
		if err != nil {
			return written, err
		}
	}
	return n, nil
}

func (s *truncatingSink) Close() error {
	if closer, ok := s.sink.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (s *truncatingSink) Abort(err error) {
	if aborter, ok := s.sink.(transfer.Aborter); ok {
		aborter.Abort(err)
	}
}
