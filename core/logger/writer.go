package logger

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/go-multierror"
)

const (
	defaultSinkBuffer = 64 * 1024
	writerQueueSize   = 256
)

// sink is one output of the async writer. A sink that fails is muted and
// keeps its first error so the remaining outputs continue to receive records.
type sink struct {
	name string
	buf  *bufio.Writer
	err  error
}

// asyncWriter fans records out to its sinks from a single goroutine.
type asyncWriter struct {
	queue    chan []byte
	flushReq chan chan error
	done     chan struct{}
	once     sync.Once

	mu    sync.Mutex
	sinks []*sink
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = defaultSinkBuffer
	}
	w := &asyncWriter{
		queue:    make(chan []byte, writerQueueSize),
		flushReq: make(chan chan error),
		done:     make(chan struct{}),
	}
	for i, out := range writers {
		if out == nil {
			continue
		}
		w.sinks = append(w.sinks, &sink{name: sinkName(i, out), buf: bufio.NewWriterSize(out, bufSize)})
	}
	go w.loop()
	return w
}

func sinkName(i int, out io.Writer) string {
	if named, ok := out.(interface{ Name() string }); ok {
		return named.Name()
	}
	return fmt.Sprintf("sink%d", i)
}

func (w *asyncWriter) loop() {
	defer close(w.done)
	for {
		select {
		case data, ok := <-w.queue:
			if !ok {
				w.flushAll()
				return
			}
			w.writeAll(data)
		case ack := <-w.flushReq:
			ack <- w.flushAll()
		}
	}
}

// Write queues a copy of p. It blocks only while the queue is full and
// fails once every sink has been muted.
func (w *asyncWriter) Write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if !w.healthy() {
		return w.Err()
	}
	data := make([]byte, len(p))
	copy(data, p)
	w.queue <- data
	return nil
}

// Flush waits until every queued record has reached the sinks.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	select {
	case w.flushReq <- ack:
		return <-ack
	case <-w.done:
		return w.Err()
	}
}

// Close drains the queue and returns the errors of muted sinks.
func (w *asyncWriter) Close() error {
	w.once.Do(func() { close(w.queue) })
	<-w.done
	return w.Err()
}

// Err aggregates the errors that muted sinks.
func (w *asyncWriter) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var result *multierror.Error
	for _, s := range w.sinks {
		if s.err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", s.name, s.err))
		}
	}
	return result.ErrorOrNil()
}

func (w *asyncWriter) healthy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range w.sinks {
		if s.err == nil {
			return true
		}
	}
	return len(w.sinks) == 0
}

func (w *asyncWriter) writeAll(p []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range w.sinks {
		if s.err != nil {
			continue
		}
		if _, err := s.buf.Write(p); err != nil {
			s.err = err
			continue
		}
		if err := s.buf.Flush(); err != nil {
			s.err = err
		}
	}
}

func (w *asyncWriter) flushAll() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var result *multierror.Error
	for _, s := range w.sinks {
		if s.err != nil {
			continue
		}
		if err := s.buf.Flush(); err != nil {
			s.err = err
			result = multierror.Append(result, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return result.ErrorOrNil()
}
