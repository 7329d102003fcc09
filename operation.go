//go:build !ios && !android && (amd64 || arm64)

package projgo

import (
	"github.com/projgo/projgo/libproj"
)

// Direction selects the sense in which an operation is applied.
type Direction = libproj.Direction

// Directions for Operation.Transform.
const (
	Forward  = libproj.DirectionForward
	Identity = libproj.DirectionIdentity
	Inverse  = libproj.DirectionInverse
)

// Operation is a coordinate operation between two reference systems,
// realized by the native engine.
//
// An Operation may be used from multiple goroutines at once: every dispatch
// borrows its own execution context from the pool, and each context works on
// its own native copy of the operation, so concurrent dispatches share no
// native state. A transform failure for one coordinate never poisons the
// operation for later calls.
type Operation struct {
	*object
	name string
}

type operationOptions struct {
	normalize bool
}

// OperationOption configures operation construction.
type OperationOption func(*operationOptions)

// WithNormalizedAxisOrder makes the operation accept and produce
// longitude/latitude (GIS order) coordinates instead of the authority
// order mandated by the CRS definitions.
func WithNormalizedAxisOrder() OperationOption {
	return func(o *operationOptions) {
		o.normalize = true
	}
}

// NewOperation creates the operation transforming coordinates from source
// to target, picking the most accurate path the engine knows for the areas
// of use.
func NewOperation(pool *ContextPool, source, target *CRS, opts ...OperationOption) (*Operation, error) {
	var cfg operationOptions
	for _, opt := range opts {
		opt(&cfg)
	}

	if !source.alive() || !target.alive() {
		return nil, ErrClosed
	}
	source.h.Acquire()
	defer source.h.Release()
	target.h.Acquire()
	defer target.h.Release()

	var op *Operation
	err := pool.WithContext(func(ec *ExecutionContext) error {
		src, err := ec.instance(source.object)
		if err != nil {
			return err
		}
		dst, err := ec.instance(target.object)
		if err != nil {
			return err
		}

		pj := libproj.CreateCRSToCRS(ec.ptr, src, dst)
		if pj == nil {
			return constructionError(ec.ptr, "proj_create_crs_to_crs_from_pj")
		}
		if cfg.normalize {
			norm := libproj.NormalizeForVisualization(ec.ptr, pj)
			libproj.Destroy(pj)
			if norm == nil {
				return constructionError(ec.ptr, "proj_normalize_for_visualization")
			}
			pj = norm
		}
		op = wrapOperation(pj, pool)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return op, nil
}

// NewOperationFromDefinition creates an operation from a definition string:
// a pipeline proj-string, a coordinate-operation WKT, or anything else the
// engine accepts.
func NewOperationFromDefinition(pool *ContextPool, definition string) (*Operation, error) {
	var op *Operation
	err := pool.WithContext(func(ec *ExecutionContext) error {
		pj := libproj.Create(ec.ptr, definition)
		if pj == nil {
			return constructionError(ec.ptr, "proj_create")
		}
		op = wrapOperation(pj, pool)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return op, nil
}

// NewOperationFromAuthority looks a coordinate operation up in the authority
// database, e.g. NewOperationFromAuthority(pool, "EPSG", "9597").
func NewOperationFromAuthority(pool *ContextPool, authority, code string) (*Operation, error) {
	var op *Operation
	err := pool.WithContext(func(ec *ExecutionContext) error {
		pj := libproj.CreateFromDatabase(ec.ptr, authority, code, libproj.CategoryCoordinateOperation)
		if pj == nil {
			return constructionError(ec.ptr, "proj_create_from_database")
		}
		op = wrapOperation(pj, pool)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return op, nil
}

func wrapOperation(pj libproj.PJ, pool *ContextPool) *Operation {
	return &Operation{
		object: newObject(newHandle(pj, libproj.Destroy), pool),
		name:   libproj.GetName(pj),
	}
}

// Name returns the operation name, e.g. "World Mercator".
func (op *Operation) Name() string {
	return op.name
}

// Transform applies the operation to every tuple in coords, in place.
//
// Tuples are transformed independently. On failure the error reports the
// index of the first failing tuple; tuples before it hold their transformed
// values, tuples after it are untouched. The operation stays fully usable:
// before the borrowed context goes back to the pool its error slot is reset,
// so a context is only ever released in a state indistinguishable from
// freshly borrowed, whatever the outcome of this call.
func (op *Operation) Transform(direction Direction, coords []Coord) error {
	if len(coords) == 0 {
		return nil
	}
	if !op.alive() {
		return ErrClosed
	}
	op.h.Acquire()
	defer op.h.Release()

	return op.pool.WithContext(func(ec *ExecutionContext) error {
		pj, err := ec.instance(op.object)
		if err != nil {
			return err
		}
		for i := range coords {
			ret := libproj.TransArray(pj, direction, 1, &coords[i][0])
			if ret == 0 {
				continue
			}
			e := translateErrno(ec.ptr, ret, "proj_trans_array", KindTransform)
			e.Index = i
			libproj.ErrnoReset(pj)
			return e
		}
		return nil
	})
}

// Forward transforms a single coordinate in the forward direction.
func (op *Operation) Forward(c Coord) (Coord, error) {
	buf := []Coord{c}
	if err := op.Transform(Forward, buf); err != nil {
		return Coord{}, err
	}
	return buf[0], nil
}

// Inverse transforms a single coordinate in the inverse direction.
func (op *Operation) Inverse(c Coord) (Coord, error) {
	buf := []Coord{c}
	if err := op.Transform(Inverse, buf); err != nil {
		return Coord{}, err
	}
	return buf[0], nil
}

// RoundTripDeviation applies the operation forward and back n times and
// returns the distance between the start and end points, a measure of the
// operation's numerical stability for that coordinate.
func (op *Operation) RoundTripDeviation(n int, c Coord) (float64, error) {
	if !op.alive() {
		return 0, ErrClosed
	}
	op.h.Acquire()
	defer op.h.Release()

	var dev float64
	err := op.pool.WithContext(func(ec *ExecutionContext) error {
		pj, err := ec.instance(op.object)
		if err != nil {
			return err
		}
		dev = libproj.Roundtrip(pj, Forward, n, &c[0])
		if code := libproj.ContextErrno(ec.ptr); code != 0 {
			e := translateErrno(ec.ptr, code, "proj_roundtrip", KindTransform)
			libproj.ErrnoReset(pj)
			return e
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return dev, nil
}
