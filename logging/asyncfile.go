package logging

import (
	"fmt"
	"os"
	"sync"
)

// AsyncFile decouples log producers from disk latency: Write enqueues a copy
// of the data and returns immediately, while a single background goroutine
// drains the queue to the file in order. Close flushes everything queued
// before closing the file.
type AsyncFile struct {
	f       *os.File
	pending chan []byte
	drained chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewAsyncFile opens (truncating) the file at path and starts its writer
func NewAsyncFile(path string) (*AsyncFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", path, err)
	}

	af := &AsyncFile{
		f:       f,
		pending: make(chan []byte, 100),
		drained: make(chan struct{}),
	}
	go af.drain()
	return af, nil
}

// Write enqueues data for the background writer. Callers may reuse the
// passed slice; a copy is taken. Fails once the file has been closed.
func (af *AsyncFile) Write(data []byte) error {
	af.mu.Lock()
	defer af.mu.Unlock()

	if af.closed {
		return fmt.Errorf("async file is closed")
	}

	af.pending <- append([]byte(nil), data...)
	return nil
}

func (af *AsyncFile) drain() {
	defer close(af.drained)
	for buf := range af.pending {
		if _, err := af.f.Write(buf); err != nil {
			fmt.Fprintf(os.Stderr, "async log write failed: %v\n", err)
		}
	}
}

// Close drains any queued writes and closes the underlying file. Safe to
// call more than once.
func (af *AsyncFile) Close() error {
	af.mu.Lock()
	alreadyClosed := af.closed
	if !alreadyClosed {
		af.closed = true
		close(af.pending)
	}
	af.mu.Unlock()

	<-af.drained
	if alreadyClosed {
		return nil
	}
	return af.f.Close()
}
