// Package transfer streams the output of a producer (device sectors, VOB files, demuxed
// titles) to one or more sinks. The producer is pulled for more data only when every sink
// is below a low-water mark, so a slow sink never makes the transfer buffer more than the
// mark plus one producer burst.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bgrewell/dvd-kit/pkg/errs"
	"github.com/bgrewell/dvd-kit/pkg/logging"
	"github.com/bgrewell/dvd-kit/pkg/option"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

var (
	// ErrStopped is the completion error of a sink stopped by Stop, StopSink or a
	// canceled context.
	ErrStopped = errors.New("transfer stopped")
	// ErrAborted is the completion error of the sinks when the producer failed.
	ErrAborted = errors.New("transfer aborted")
	// ErrStarted is returned by Start on an engine which was already started.
	ErrStarted = errors.New("transfer already started")
)

// Sink receives the transferred bytes. A sink which also implements io.Closer is closed
// after a clean completion, one which implements Aborter is aborted otherwise. Sinks are
// identified by value: use pointer types.
type Sink interface {
	io.Writer
}

// Aborter is implemented by sinks which need cleanup when the transfer fails.
type Aborter interface {
	Abort(err error)
}

// AbortSinks releases sinks which will never be handed to a running engine: aborters are
// aborted, other closers are closed.
func AbortSinks(err error, sinks ...Sink) {
	for _, s := range sinks {
		switch sink := s.(type) {
		case Aborter:
			sink.Abort(err)
		case io.Closer:
			sink.Close()
		}
	}
}

type sinkState struct {
	sink     Sink
	queue    [][]byte
	queued   int
	totalOut int64
	// running is cleared when the sink is stopped or fails.
	running  bool
	err      error
	finished bool
	ok       bool
}

// Engine pulls a producer and fans its output out to sinks. An engine runs one transfer.
type Engine struct {
	producer Producer
	opts     option.TransferOptions
	session  string
	log      *logging.Logger

	onSinkCompleted func(sink Sink, ok bool)
	onCompleted     func(ok bool)

	mutex       sync.Mutex
	cond        *sync.Cond
	sinks       []*sinkState
	started     bool
	closed      bool
	totalIn     int64
	maxOut      int64
	producerErr error
	err         error
	done        chan struct{}
	writer      *Writer

	lastProgress time.Time
}

// NewEngine returns an engine pulling producer.
func NewEngine(producer Producer, opts ...option.TransferOption) *Engine {
	o := option.ApplyTransfer(opts...)
	session := o.SessionID
	if session == "" {
		session = uuid.NewString()
	}
	e := &Engine{
		producer: producer,
		opts:     o,
		session:  session,
		log:      o.Logger.WithName("transfer").WithValues("session", session),
		done:     make(chan struct{}),
	}
	e.cond = sync.NewCond(&e.mutex)
	e.writer = &Writer{engine: e}
	return e
}

// SessionID identifies the transfer in logs.
func (e *Engine) SessionID() string {
	return e.session
}

// OnSinkCompleted registers a callback invoked once per sink with its own success. Must
// be called before Start. Callbacks run on the engine goroutine.
func (e *Engine) OnSinkCompleted(fn func(sink Sink, ok bool)) {
	e.onSinkCompleted = fn
}

// OnCompleted registers a callback invoked once after all sinks completed. ok is true
// when all sinks succeeded. Must be called before Start.
func (e *Engine) OnCompleted(fn func(ok bool)) {
	e.onCompleted = fn
}

// Start initializes the producer and starts the transfer in the background. Nil and
// duplicate sinks are ignored. Canceling ctx stops the transfer.
func (e *Engine) Start(ctx context.Context, sinks ...Sink) error {
	e.mutex.Lock()
	if e.started {
		e.mutex.Unlock()
		return ErrStarted
	}
	for _, s := range sinks {
		if s != nil && e.find(s) == nil {
			e.sinks = append(e.sinks, &sinkState{sink: s, running: true})
		}
	}
	if len(e.sinks) == 0 {
		e.mutex.Unlock()
		return errors.New("no valid sink for transfer")
	}
	e.started = true
	e.mutex.Unlock()

	if err := e.producer.initialize(ctx, e.log); err != nil {
		e.log.Debug("Data transfer failed to start", "error", err.Error())
		e.mutex.Lock()
		states := e.sinks
		e.sinks = nil
		e.err = err
		e.mutex.Unlock()
		for _, s := range states {
			AbortSinks(err, s.sink)
		}
		close(e.done)
		return err
	}

	e.log.Debug("Data transfer started", "sinks", len(e.sinks), "minBufferSize", e.opts.MinBufferSize)
	e.lastProgress = time.Now()
	for _, s := range e.sinks {
		go e.drain(s)
	}
	stopOnCancel := context.AfterFunc(ctx, e.Stop)
	go func() {
		defer stopOnCancel()
		e.run(ctx)
	}()
	return nil
}

// Stop cancels the transfer. The producer call in progress completes, then no more data
// is requested and all sinks complete with ErrStopped.
func (e *Engine) Stop() {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	for _, s := range e.sinks {
		e.stopLocked(s, ErrStopped)
	}
	e.cond.Broadcast()
}

// StopSink cancels the transfer to one sink. The other sinks continue.
func (e *Engine) StopSink(sink Sink) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if s := e.find(sink); s != nil {
		e.stopLocked(s, ErrStopped)
		e.cond.Broadcast()
	}
}

// Wait waits for the completion of all sinks. It returns nil when all sinks succeeded,
// otherwise the errors of the producer and of the failed sinks combined.
func (e *Engine) Wait() error {
	<-e.done
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.err
}

// Done is closed when the transfer is complete.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Progress returns the number of bytes produced and the largest number of bytes written
// to one sink.
func (e *Engine) Progress() (in, out int64) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.totalIn, e.maxOut
}

func (e *Engine) find(sink Sink) *sinkState {
	for _, s := range e.sinks {
		if s.sink == sink {
			return s
		}
	}
	return nil
}

func (e *Engine) stopLocked(s *sinkState, err error) {
	if s.running {
		s.running = false
		s.err = err
	}
}

// needMoreLocked reports whether the producer must be called: the transfer is open and
// every running sink is below the low-water mark.
func (e *Engine) needMoreLocked() bool {
	if e.closed || (e.opts.MaxInputSize >= 0 && e.totalIn >= e.opts.MaxInputSize) {
		return false
	}
	underflow := false
	for _, s := range e.sinks {
		if s.running {
			if s.queued >= e.opts.MinBufferSize {
				return false
			}
			underflow = true
		}
	}
	return underflow
}

func (e *Engine) finishedLocked() []*sinkState {
	var finished []*sinkState
	remaining := e.sinks[:0]
	for _, s := range e.sinks {
		if s.finished {
			finished = append(finished, s)
		} else {
			remaining = append(remaining, s)
		}
	}
	e.sinks = remaining
	return finished
}

func (e *Engine) hasFinishedLocked() bool {
	for _, s := range e.sinks {
		if s.finished {
			return true
		}
	}
	return false
}

// run is the engine goroutine. It calls the producer and delivers the notifications.
func (e *Engine) run(ctx context.Context) {
	start := time.Now()
	allOK := true
	var sinkErrs error
	for {
		e.mutex.Lock()
		if e.opts.MaxInputSize >= 0 && e.totalIn >= e.opts.MaxInputSize && !e.closed {
			e.closed = true
			e.cond.Broadcast()
		}
		for len(e.sinks) > 0 && !e.needMoreLocked() && !e.hasFinishedLocked() {
			e.cond.Wait()
		}

		if finished := e.finishedLocked(); len(finished) > 0 {
			e.mutex.Unlock()
			for _, s := range finished {
				if !s.ok {
					allOK = false
					sinkErrs = multierr.Append(sinkErrs, s.err)
				}
				if e.onSinkCompleted != nil {
					e.onSinkCompleted(s.sink, s.ok)
				}
			}
			continue
		}
		if len(e.sinks) == 0 {
			e.mutex.Unlock()
			break
		}

		maxSize := int64(-1)
		if e.opts.MaxInputSize >= 0 {
			maxSize = e.opts.MaxInputSize - e.totalIn
		}
		e.mutex.Unlock()

		keepGoing, err := e.producer.needMore(ctx, e.writer, maxSize)

		e.mutex.Lock()
		if err != nil || !keepGoing {
			if err != nil {
				e.log.Error(err, "Data transfer aborted by producer")
				e.producerErr = err
			}
			for _, s := range e.sinks {
				e.stopLocked(s, ErrAborted)
			}
		}
		e.cond.Broadcast()
		e.mutex.Unlock()
		e.reportProgress(false)
	}

	e.mutex.Lock()
	clean := e.closed && e.producerErr == nil
	e.err = multierr.Combine(e.producerErr, sinkErrs)
	totalIn := e.totalIn
	e.mutex.Unlock()

	elapsed := time.Since(start)
	status := "completed"
	if !clean {
		status = "aborted"
	}
	bps := int64(0)
	if ms := elapsed.Milliseconds(); ms > 0 {
		bps = totalIn * 1000 / ms
	}
	e.log.Debug(fmt.Sprintf("Data transfer %s", status), "bytes", totalIn, "elapsed", elapsed.String(), "bytesPerSecond", bps)

	e.producer.cleanup(clean)
	e.reportProgress(true)
	if e.onCompleted != nil {
		e.onCompleted(allOK && e.producerErr == nil)
	}
	close(e.done)
}

func (e *Engine) reportProgress(final bool) {
	if e.opts.ProgressCallback == nil {
		return
	}
	now := time.Now()
	if !final && now.Sub(e.lastProgress) < e.opts.ProgressInterval {
		return
	}
	e.lastProgress = now
	e.mutex.Lock()
	in := e.totalIn
	e.mutex.Unlock()

	total := int64(-1)
	if e.opts.MaxInputSize >= 0 {
		total = e.opts.MaxInputSize
	} else if hint := e.producer.sizeHint(); hint >= 0 {
		total = hint
	}
	e.opts.ProgressCallback(in, total)
}

// drain is the goroutine of one sink. It writes the queued chunks in order until the
// transfer is closed and the queue is empty, or until the sink is stopped.
func (e *Engine) drain(s *sinkState) {
	for {
		e.mutex.Lock()
		for len(s.queue) == 0 && s.running && !e.closed {
			e.cond.Wait()
		}
		if !s.running || len(s.queue) == 0 {
			s.queue, s.queued = nil, 0
			e.mutex.Unlock()
			break
		}
		chunk := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		e.mutex.Unlock()

		_, err := s.sink.Write(chunk)

		e.mutex.Lock()
		s.queued -= len(chunk)
		if err != nil {
			e.log.Info("Error writing on transfer sink", "error", err.Error())
			e.stopLocked(s, fmt.Errorf("%w: %v", errs.ErrSink, err))
		} else {
			s.totalOut += int64(len(chunk))
			if s.totalOut > e.maxOut {
				e.maxOut = s.totalOut
			}
		}
		e.cond.Broadcast()
		e.mutex.Unlock()
	}

	e.mutex.Lock()
	ok := s.running
	err := s.err
	e.mutex.Unlock()

	if ok {
		if closer, isCloser := s.sink.(io.Closer); isCloser {
			if cerr := closer.Close(); cerr != nil {
				ok = false
				err = fmt.Errorf("%w: closing: %v", errs.ErrSink, cerr)
			}
		}
	} else if aborter, isAborter := s.sink.(Aborter); isAborter {
		aborter.Abort(err)
	}

	e.mutex.Lock()
	s.running = false
	s.ok = ok
	s.err = err
	s.finished = true
	e.cond.Broadcast()
	e.mutex.Unlock()
}

// Writer is the producer side of an engine.
type Writer struct {
	engine *Engine
}

// Write queues a copy of b on every running sink. It fails when no sink is running.
func (w *Writer) Write(b []byte) (int, error) {
	e := w.engine
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.closed {
		return 0, errors.New("write on closed transfer")
	}
	if len(b) == 0 {
		return 0, nil
	}
	chunk := append([]byte(nil), b...)
	e.totalIn += int64(len(b))
	written := false
	for _, s := range e.sinks {
		if s.running {
			s.queue = append(s.queue, chunk)
			s.queued += len(chunk)
			written = true
		}
	}
	if !written {
		return 0, fmt.Errorf("%w: no running sink", errs.ErrSink)
	}
	e.cond.Broadcast()
	return len(b), nil
}

// Close signals the end of the data. Queued data is still written to the sinks.
func (w *Writer) Close() error {
	e := w.engine
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.closed = true
	e.cond.Broadcast()
	return nil
}
