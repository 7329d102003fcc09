//go:build !ios && !android && (amd64 || arm64)

package projgo

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/projgo/projgo/internal/handles"
	"github.com/projgo/projgo/libproj"
)

// ExecutionContext wraps one native PJ_CONTEXT. A context carries mutable
// per-call state, including the engine's last-error slot, and must never be
// touched by two logical operations at once. Exclusivity is what the pool
// provides; the in-use flag exists to detect bridge bugs, not to synchronize.
type ExecutionContext struct {
	ptr    libproj.Context
	id     int
	inUse  atomic.Bool
	logTok uintptr

	// clones maps object ids to this context's private native copies.
	// Touched only while the context is borrowed, so no lock.
	clones map[uint64]libproj.PJ
}

// Ptr returns the native context pointer. Valid only between Borrow and
// Return of this context.
func (ec *ExecutionContext) Ptr() libproj.Context {
	return ec.ptr
}

// ID returns the pool-assigned context number, used in log output.
func (ec *ExecutionContext) ID() int {
	return ec.id
}

// instance returns this context's own native copy of the object held by o,
// cloning it on first use. Nothing native is ever shared between two
// contexts this way: the copy is bound to this context for life, carries its
// own error slot, and is freed when the context is destroyed. Entries for
// closed objects linger until then; they are small and never dereferenced
// again because object ids are not reused.
func (ec *ExecutionContext) instance(o *object) (libproj.PJ, error) {
	if pj, ok := ec.clones[o.id]; ok {
		return pj, nil
	}
	pj := libproj.Clone(ec.ptr, o.h.Ptr())
	if pj == nil {
		return nil, constructionError(ec.ptr, "proj_clone")
	}
	if ec.clones == nil {
		ec.clones = make(map[uint64]libproj.PJ)
	}
	ec.clones[o.id] = pj
	return pj, nil
}

func (ec *ExecutionContext) markBorrowed() {
	if !ec.inUse.CompareAndSwap(false, true) {
		panic("projgo: context handed out while still borrowed")
	}
}

func (ec *ExecutionContext) markReturned() {
	if !ec.inUse.CompareAndSwap(true, false) {
		panic("projgo: context returned twice")
	}
}

// ContextPool hands out execution contexts such that no two live borrows
// ever reference the same context. Contexts are created lazily: a new one is
// allocated only when all existing ones are borrowed and the pool is below
// its capacity ceiling, so single-threaded callers hold exactly one native
// context while burst concurrency can still fan out.
//
// No fairness is guaranteed between waiters.
type ContextPool struct {
	capacity       int
	borrowTimeout  time.Duration
	searchPaths    []string
	nativeLogLevel int32
	logger         *zap.Logger

	create    func() (libproj.Context, error)
	destroy   func(libproj.Context)
	configure func(*ExecutionContext)

	idle    chan *ExecutionContext
	closing chan struct{}

	mu      sync.Mutex
	created int
	nextID  int
	closed  bool
}

// PoolOption configures a ContextPool.
type PoolOption func(*ContextPool)

// WithCapacity sets the maximum number of native contexts the pool will
// create. Values below one are treated as one. The default is GOMAXPROCS:
// pool size should track concurrently active transform calls, not thread
// count at large.
func WithCapacity(n int) PoolOption {
	return func(p *ContextPool) {
		p.capacity = n
	}
}

// WithBorrowTimeout bounds the wait when the pool is at capacity. After the
// timeout, Borrow fails with a resource-exhaustion error. Zero means wait
// indefinitely, which is the default.
func WithBorrowTimeout(d time.Duration) PoolOption {
	return func(p *ContextPool) {
		p.borrowTimeout = d
	}
}

// WithSearchPaths overrides the directories each pooled context searches for
// PROJ resource files (proj.db, transformation grids).
func WithSearchPaths(paths ...string) PoolOption {
	return func(p *ContextPool) {
		p.searchPaths = paths
	}
}

// WithNativeLogLevel sets the PROJ log level installed on each pooled
// context. The default is libproj.LogError.
func WithNativeLogLevel(level int32) PoolOption {
	return func(p *ContextPool) {
		p.nativeLogLevel = level
	}
}

// WithLogger sets the pool's logger. Defaults to the package logger.
func WithLogger(l *zap.Logger) PoolOption {
	return func(p *ContextPool) {
		p.logger = l
	}
}

// NewContextPool creates a pool of native PROJ contexts. It fails if the
// PROJ library cannot be loaded.
func NewContextPool(opts ...PoolOption) (*ContextPool, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	p := newContextPool(libproj.ContextCreate, libproj.ContextDestroy, opts...)
	p.configure = p.configureNative
	return p, nil
}

// newContextPool wires a pool around explicit create/destroy functions.
// Tests substitute stubs here; NewContextPool passes the native ones.
func newContextPool(create func() (libproj.Context, error), destroy func(libproj.Context), opts ...PoolOption) *ContextPool {
	p := &ContextPool{
		capacity:       runtime.GOMAXPROCS(0),
		nativeLogLevel: libproj.LogError,
		logger:         Logger(),
		create:         create,
		destroy:        destroy,
		closing:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.capacity < 1 {
		p.capacity = 1
	}
	p.idle = make(chan *ExecutionContext, p.capacity)
	return p
}

// configureNative applies search paths and log plumbing to a freshly
// created native context.
func (p *ContextPool) configureNative(ec *ExecutionContext) {
	libproj.SetSearchPaths(ec.ptr, p.searchPaths)
	installNativeLog(ec, p.nativeLogLevel)
}

// Borrow returns an execution context for exclusive use by one logical
// operation. It grows the pool lazily up to capacity, then waits for a
// return; with a borrow timeout configured, an exhausted wait fails with a
// KindResourceExhausted error instead of blocking forever.
func (p *ContextPool) Borrow() (*ExecutionContext, error) {
	// Fast path: an idle context is ready.
	select {
	case ec := <-p.idle:
		ec.markBorrowed()
		return ec, nil
	default:
	}

	// Grow lazily while below the ceiling.
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if p.created < p.capacity {
		p.created++
		p.nextID++
		id := p.nextID
		p.mu.Unlock()

		ptr, err := p.create()
		if err != nil {
			p.mu.Lock()
			p.created--
			p.mu.Unlock()
			return nil, err
		}
		ec := &ExecutionContext{ptr: ptr, id: id}
		if p.configure != nil {
			p.configure(ec)
		}
		p.logger.Debug("created native context", zap.Int("context", id))
		ec.markBorrowed()
		return ec, nil
	}
	p.mu.Unlock()

	// At capacity: wait for a return.
	var timeout <-chan time.Time
	if p.borrowTimeout > 0 {
		timer := time.NewTimer(p.borrowTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case ec := <-p.idle:
		ec.markBorrowed()
		return ec, nil
	case <-p.closing:
		return nil, ErrPoolClosed
	case <-timeout:
		return nil, &Error{
			Kind:    KindResourceExhausted,
			Op:      "ContextPool.Borrow",
			Message: "all contexts borrowed for the whole wait",
			Index:   -1,
		}
	}
}

// Return makes the context available to other borrowers. Contexts must come
// back indistinguishable from freshly created: no borrowed state, no pending
// native error. Returning a context twice panics.
func (p *ContextPool) Return(ec *ExecutionContext) {
	if ec == nil {
		return
	}
	ec.markReturned()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.created--
		p.destroyContext(ec)
		return
	}
	// Buffered to capacity, and created never exceeds capacity, so this
	// send cannot block while the mutex is held.
	p.idle <- ec
}

// WithContext borrows a context, runs fn with it, and returns the context on
// every exit path, including a panic inside fn.
func (p *ContextPool) WithContext(fn func(*ExecutionContext) error) error {
	ec, err := p.Borrow()
	if err != nil {
		return err
	}
	defer p.Return(ec)
	return fn(ec)
}

// Size returns the number of native contexts currently in existence.
func (p *ContextPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}

// Capacity returns the pool's ceiling.
func (p *ContextPool) Capacity() int {
	return p.capacity
}

// Close shuts the pool down: idle contexts are destroyed immediately,
// outstanding borrows are destroyed as they come back, and waiting borrowers
// fail with ErrPoolClosed. Close is idempotent.
func (p *ContextPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.closing)

	for {
		select {
		case ec := <-p.idle:
			p.created--
			p.destroyContext(ec)
		default:
			if p.created > 0 {
				p.logger.Warn("context pool closed with contexts still borrowed",
					zap.Int("outstanding", p.created))
			}
			return nil
		}
	}
}

func (p *ContextPool) destroyContext(ec *ExecutionContext) {
	if ec.logTok != 0 {
		handles.Unregister(ec.logTok)
		ec.logTok = 0
	}
	for _, pj := range ec.clones {
		libproj.Destroy(pj)
	}
	ec.clones = nil
	p.destroy(ec.ptr)
	p.logger.Debug("destroyed native context", zap.Int("context", ec.id))
}
