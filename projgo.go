//go:build !ios && !android && (amd64 || arm64)

// Package projgo bridges Go to the PROJ coordinate-transformation engine
// without CGO, using purego.
//
// The engine is foreign, reference-counted and context-sensitive; this
// package makes it look like ordinary garbage-collected Go objects. A
// ContextPool hands out the engine's non-thread-shareable execution
// contexts, CRS and Operation wrap native objects whose lifetime follows
// wrapper reachability, and transform failures are translated into typed
// errors without ever poisoning the operation for later calls.
//
// Typical use:
//
//	pool, err := projgo.NewContextPool()
//	src, err := projgo.NewCRS(pool, "EPSG:4326")
//	dst, err := projgo.NewCRS(pool, "EPSG:3395")
//	op, err := projgo.NewOperation(pool, src, dst)
//	out, err := op.Forward(projgo.XY(40, 60)) // latitude, longitude
//
// For direct access to the C API, use the libproj subpackage.
package projgo

import (
	"github.com/projgo/projgo/internal/bindings"
	"github.com/projgo/projgo/libproj"
)

// Init loads the PROJ shared library. It is called implicitly by
// NewContextPool, but can be called explicitly to surface load errors early.
// Safe to call multiple times.
func Init() error {
	return bindings.Load()
}

// IsLoaded returns true if the PROJ library has been successfully loaded.
func IsLoaded() bool {
	return bindings.IsLoaded()
}

// Release returns the PROJ release string, e.g.
// "Rel. 9.3.0, September 1st, 2023", or "" when unavailable.
func Release() string {
	return libproj.Release()
}

// ObjectType re-exports the ISO-19111 object type for convenience.
type ObjectType = libproj.ObjectType
