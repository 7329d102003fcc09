//go:build !ios && !android && (amd64 || arm64)

package projgo

import (
	"runtime"
	"sync/atomic"

	"github.com/projgo/projgo/libproj"
)

// Handle owns a native PROJ object pointer together with its reference
// count. It is the unit of cross-boundary ownership: the native destructor
// runs exactly once, when the count reaches zero, on whichever goroutine
// performed the final Release.
//
// Misuse (releasing below zero, dereferencing after the final release) is a
// programming error in the bridge, not a runtime condition, and panics.
type Handle struct {
	ptr     libproj.PJ
	refs    atomic.Int32
	destroy func(libproj.PJ)
}

// newHandle wraps ptr with an initial reference count of one.
// destroy is invoked exactly once when the count reaches zero.
func newHandle(ptr libproj.PJ, destroy func(libproj.PJ)) *Handle {
	h := &Handle{ptr: ptr, destroy: destroy}
	h.refs.Store(1)
	return h
}

// Acquire increments the reference count. It panics if the handle has
// already been released: a caller holding no reference has no business
// resurrecting one.
func (h *Handle) Acquire() {
	for {
		n := h.refs.Load()
		if n <= 0 {
			panic("projgo: Acquire on a released handle")
		}
		if h.refs.CompareAndSwap(n, n+1) {
			return
		}
	}
}

// Release decrements the reference count and, on reaching zero, calls the
// native destructor. Releasing more times than acquired panics.
//
// Releasing may free substantial native memory (grid files held by an
// operation); callers on latency-sensitive paths should route through the
// cleaner instead of calling Release directly.
func (h *Handle) Release() {
	n := h.refs.Add(-1)
	switch {
	case n > 0:
		return
	case n == 0:
		h.destroy(h.ptr)
	default:
		panic("projgo: Release of an already-released handle")
	}
}

// Ptr borrows the native pointer. The caller must hold a reference for the
// whole time the pointer is in use; Ptr panics once the handle is released.
func (h *Handle) Ptr() libproj.PJ {
	if h.refs.Load() <= 0 {
		panic("projgo: Ptr on a released handle")
	}
	return h.ptr
}

// object is the shared wrapper holding a Handle for the public CRS and
// Operation types. Its reachability determines the release point: explicit
// Close is synchronous, an unreachable wrapper is reclaimed by the cleaner.
// The two paths are mutually exclusive via the closed flag.
//
// The id is process-unique and never reused; execution contexts key their
// private native copies of the object by it.
type object struct {
	id     uint64
	h      *Handle
	pool   *ContextPool
	closed atomic.Bool
}

var objectIDs atomic.Uint64

func newObject(h *Handle, pool *ContextPool) *object {
	o := &object{id: objectIDs.Add(1), h: h, pool: pool}
	runtime.SetFinalizer(o, (*object).reclaim)
	return o
}

// Close releases the wrapper's reference to the native object. It is
// idempotent, and a later unreachability notification for the same wrapper
// is a no-op.
func (o *object) Close() error {
	if !o.closed.CompareAndSwap(false, true) {
		return nil
	}
	runtime.SetFinalizer(o, nil)
	o.h.Release()
	return nil
}

// alive reports whether the wrapper still holds its reference.
func (o *object) alive() bool {
	return !o.closed.Load()
}

// reclaim runs when the wrapper became unreachable without an explicit
// Close. The release is handed to the cleaner so that freeing native memory
// never runs on the finalizer goroutine.
func (o *object) reclaim() {
	if !o.closed.CompareAndSwap(false, true) {
		return
	}
	sharedCleaner().schedule(o.h)
}
