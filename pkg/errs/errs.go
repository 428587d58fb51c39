// Package errs declares the error kinds reported by the DVD structural engine.
// Errors returned by the other packages wrap one of these sentinels, test them with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrDevice reports an open, seek or read failure on the medium.
	ErrDevice = errors.New("device error")
	// ErrInvalidVolume reports a missing or garbled volume descriptor set.
	ErrInvalidVolume = errors.New("invalid volume")
	// ErrNoRootDirectory reports an unreadable root directory descriptor.
	ErrNoRootDirectory = errors.New("no root directory")
	// ErrMalformedIfo reports an IFO field or table which does not fit in the file.
	ErrMalformedIfo = errors.New("malformed IFO")
	// ErrSectorNotFound reports a sector address which no file or cell covers.
	ErrSectorNotFound = errors.New("sector not found")
	// ErrFileNotFound reports a path which is not in the volume.
	ErrFileNotFound = errors.New("file not found")
	// ErrSink reports a failed write on a transfer sink.
	ErrSink = errors.New("sink error")
)

// IfoError locates a decoding failure in an IFO file.
type IfoError struct {
	Offset int
	Msg    string
}

func (e *IfoError) Error() string {
	return fmt.Sprintf("%s at offset 0x%04X: %s", ErrMalformedIfo, e.Offset, e.Msg)
}

func (e *IfoError) Unwrap() error {
	return ErrMalformedIfo
}

// Malformed returns an IfoError at the given offset.
func Malformed(offset int, format string, args ...interface{}) error {
	return &IfoError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}
