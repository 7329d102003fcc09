//go:build !ios && !android && (amd64 || arm64)

package projgo

import (
	"errors"
	"fmt"

	"github.com/projgo/projgo/libproj"
)

// ErrorKind classifies a bridge error. The taxonomy is closed: native error
// numbers are folded into one of these kinds at the boundary, with the raw
// code and message preserved as diagnostic payload.
type ErrorKind int

const (
	// KindConstruction: the engine could not realize a requested reference
	// system or operation (bad code, unsupported definition, missing grid
	// file). Not retried.
	KindConstruction ErrorKind = iota + 1

	// KindTransform: a specific coordinate tuple could not be transformed by
	// an otherwise valid operation. Recoverable: the operation remains
	// usable afterwards.
	KindTransform

	// KindResourceExhausted: the context pool was at capacity for the whole
	// bounded wait.
	KindResourceExhausted
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindConstruction:
		return "construction"
	case KindTransform:
		return "transform"
	case KindResourceExhausted:
		return "resource exhausted"
	default:
		return "unknown"
	}
}

// Error is a structured error from the PROJ bridge.
type Error struct {
	Kind    ErrorKind
	Code    int32  // raw PROJ error number, 0 if the failure is not native
	Op      string // native entry point or bridge operation that failed
	Message string // native diagnostic text
	Index   int    // failing tuple index for transform errors, -1 otherwise
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Kind == KindTransform && e.Index >= 0 {
		return fmt.Sprintf("projgo %s: %s (code %d) at tuple %d", e.Op, e.Message, e.Code, e.Index)
	}
	if e.Code != 0 {
		return fmt.Sprintf("projgo %s: %s (code %d)", e.Op, e.Message, e.Code)
	}
	return fmt.Sprintf("projgo %s: %s", e.Op, e.Message)
}

// Common errors
var (
	// ErrNotLoaded indicates the PROJ library is not loaded.
	ErrNotLoaded = errors.New("projgo: PROJ library not loaded")

	// ErrClosed indicates the resource has been closed.
	ErrClosed = errors.New("projgo: resource is closed")

	// ErrPoolClosed indicates the context pool has been shut down.
	ErrPoolClosed = errors.New("projgo: context pool is closed")
)

// translateErrno turns a native error number observed on ctx into a
// structured *Error. The code itself decides the kind where it can; fallback
// applies for codes outside the classified ranges (call sites know whether
// they were constructing or transforming). Reading the message does not
// mutate the context's error slot.
func translateErrno(ctx libproj.Context, code int32, op string, fallback ErrorKind) *Error {
	kind := fallback
	switch {
	case libproj.IsConstructionCode(code):
		kind = KindConstruction
	case libproj.IsTransformCode(code):
		kind = KindTransform
	}
	return &Error{
		Kind:    kind,
		Code:    code,
		Op:      op,
		Message: libproj.ErrnoString(ctx, code),
		Index:   -1,
	}
}

// constructionError builds the error for a factory call that returned a nil
// object, reading the context's last-error slot for diagnostics.
func constructionError(ctx libproj.Context, op string) *Error {
	code := libproj.ContextErrno(ctx)
	if code == 0 {
		return &Error{
			Kind:    KindConstruction,
			Op:      op,
			Message: "PROJ returned no object and no diagnostic",
			Index:   -1,
		}
	}
	return translateErrno(ctx, code, op, KindConstruction)
}

// IsConstruction returns true if err is a construction failure.
func IsConstruction(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindConstruction
}

// IsTransform returns true if err is a per-coordinate transform failure.
// The operation that produced it remains usable.
func IsTransform(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindTransform
}

// IsResourceExhausted returns true if err means the context pool stayed at
// capacity for the whole borrow wait.
func IsResourceExhausted(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindResourceExhausted
}

// FailIndex returns the index of the first failing coordinate tuple, or -1
// if err is not a transform failure.
func FailIndex(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindTransform {
		return e.Index
	}
	return -1
}

// Code returns the raw PROJ error number from an error, or 0 if err is not
// a bridge error.
func Code(err error) int32 {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}
