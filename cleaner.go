//go:build !ios && !android && (amd64 || arm64)

package projgo

import (
	"sync"

	"go.uber.org/zap"
)

// Cleaner is a background worker that releases native handles whose managed
// wrappers became unreachable without an explicit Close. Destroying a PROJ
// object can free megabytes of grid data, so the work is taken off the
// notifying goroutine and drained here.
type Cleaner struct {
	queue chan *Handle
	stop  chan struct{}
	done  chan struct{}

	logger *zap.Logger
}

// newCleaner creates a cleaner with the given queue depth and starts its
// worker goroutine.
func newCleaner(depth int, logger *zap.Logger) *Cleaner {
	if depth < 1 {
		depth = 1
	}
	c := &Cleaner{
		queue:  make(chan *Handle, depth),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: logger,
	}
	go c.run()
	return c
}

func (c *Cleaner) run() {
	defer close(c.done)
	for {
		select {
		case h := <-c.queue:
			h.Release()
			c.logger.Debug("reclaimed unreachable native handle")
		case <-c.stop:
			// Drain whatever is already queued before exiting.
			for {
				select {
				case h := <-c.queue:
					h.Release()
				default:
					return
				}
			}
		}
	}
}

// schedule hands a handle to the worker. If the queue is saturated the
// release runs on the calling goroutine instead; reclamation must never
// block an unreachability notification.
func (c *Cleaner) schedule(h *Handle) {
	select {
	case c.queue <- h:
	default:
		c.logger.Debug("cleaner queue full, releasing inline")
		h.Release()
	}
}

// Shutdown stops the worker after draining queued releases. Only used by
// tests; the process-wide cleaner lives for the lifetime of the process.
func (c *Cleaner) Shutdown() {
	close(c.stop)
	<-c.done
}

var (
	cleanerOnce    sync.Once
	processCleaner *Cleaner
)

// sharedCleaner returns the process-wide cleaner, starting it on first use.
func sharedCleaner() *Cleaner {
	cleanerOnce.Do(func() {
		processCleaner = newCleaner(256, Logger())
	})
	return processCleaner
}
