//go:build !ios && !android && (amd64 || arm64)

package projgo

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/purego"
	"go.uber.org/zap"

	"github.com/projgo/projgo/internal/handles"
	"github.com/projgo/projgo/libproj"
)

var logger atomic.Pointer[zap.Logger]

// Logger returns the package logger. It is a no-op logger by default.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	logger.CompareAndSwap(nil, zap.NewNop())
	return logger.Load()
}

// SetLogger configures the package logger. Safe to call at any time, from
// any goroutine; nil restores the no-op default.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

var (
	nativeLogOnce  sync.Once
	nativeLogCBPtr uintptr
)

// nativeLogTrampoline receives PROJ log messages.
// C signature: void (*)(void *app_data, int level, const char *msg).
func nativeLogTrampoline(_ purego.CDecl, appData unsafe.Pointer, level int32, msg *byte) {
	id, _ := handles.Lookup(uintptr(appData))
	text := goMessage(msg)

	l := Logger()
	switch level {
	case libproj.LogError:
		l.Error("proj: "+text, zap.Int("context", id))
	case libproj.LogDebug:
		l.Debug("proj: "+text, zap.Int("context", id))
	default:
		l.Debug("proj: "+text, zap.Int("context", id), zap.Int32("level", level))
	}
}

// goMessage copies a NUL-terminated C string, bounded for safety.
func goMessage(msg *byte) string {
	if msg == nil {
		return ""
	}
	ptr := unsafe.Pointer(msg)
	for i := 0; ; i++ {
		b := *(*byte)(unsafe.Pointer(uintptr(ptr) + uintptr(i)))
		if b == 0 || i > 4096 {
			return string(unsafe.Slice(msg, i))
		}
	}
}

// installNativeLog routes a pooled context's native log output through the
// package logger. The context id travels through the handle registry as the
// callback's app_data; Go pointers must not cross into native memory.
func installNativeLog(ec *ExecutionContext, level int32) {
	nativeLogOnce.Do(func() {
		nativeLogCBPtr = purego.NewCallback(nativeLogTrampoline)
	})
	ec.logTok = handles.Register(ec.id)
	libproj.SetLogFunc(ec.ptr, ec.logTok, nativeLogCBPtr)
	libproj.SetLogLevel(ec.ptr, level)
}
