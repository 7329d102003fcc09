//go:build !ios && !android && (amd64 || arm64)

// Package libproj provides low-level bindings to the PROJ C API.
// It covers context management, object construction from definitions and
// authority codes, coordinate transformation, and error reporting.
//
// Most users should use the high-level projgo package instead.
package libproj

import (
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/projgo/projgo/internal/bindings"
)

// Context is an opaque PJ_CONTEXT pointer. Each context owns its own error
// slot and database connection and must never be used from two threads at
// the same time.
type Context = unsafe.Pointer

// PJ is an opaque pointer to a PROJ transformation or ISO-19111 object.
type PJ = unsafe.Pointer

// Direction selects the sense in which an operation is applied.
type Direction int32

// Directions matching PJ_DIRECTION.
const (
	DirectionForward  Direction = 1  // PJ_FWD
	DirectionIdentity Direction = 0  // PJ_IDENT
	DirectionInverse  Direction = -1 // PJ_INV
)

// Category identifies the object class for database lookups,
// matching PJ_CATEGORY.
type Category int32

const (
	CategoryEllipsoid           Category = 0
	CategoryPrimeMeridian       Category = 1
	CategoryDatum               Category = 2
	CategoryCRS                 Category = 3
	CategoryCoordinateOperation Category = 4
	CategoryDatumEnsemble       Category = 5
)

// ObjectType is the ISO-19111 object type, matching PJ_TYPE.
type ObjectType int32

const (
	TypeUnknown ObjectType = iota
	TypeEllipsoid
	TypePrimeMeridian
	TypeGeodeticReferenceFrame
	TypeDynamicGeodeticReferenceFrame
	TypeVerticalReferenceFrame
	TypeDynamicVerticalReferenceFrame
	TypeDatumEnsemble
	TypeCRS
	TypeGeodeticCRS
	TypeGeocentricCRS
	TypeGeographicCRS
	TypeGeographic2DCRS
	TypeGeographic3DCRS
	TypeVerticalCRS
	TypeProjectedCRS
	TypeCompoundCRS
	TypeTemporalCRS
	TypeEngineeringCRS
	TypeBoundCRS
	TypeOtherCRS
	TypeConversion
	TypeTransformation
	TypeConcatenatedOperation
	TypeOtherCoordinateOperation
)

// WKT flavors, matching PJ_WKT_TYPE.
const (
	WKT2_2015            int32 = 0
	WKT2_2015_SIMPLIFIED int32 = 1
	WKT2_2019            int32 = 2
	WKT2_2019_SIMPLIFIED int32 = 3
	WKT1_GDAL            int32 = 4
	WKT1_ESRI            int32 = 5
)

// PROJ string flavors, matching PJ_PROJ_STRING_TYPE.
const (
	ProjString5 int32 = 0
	ProjString4 int32 = 1
)

// Native log levels, matching PJ_LOG_LEVEL.
const (
	LogNone  int32 = 0
	LogError int32 = 1
	LogDebug int32 = 2
	LogTrace int32 = 3
)

// Function bindings - registered when init() is called.
var (
	projContextCreate  func() unsafe.Pointer
	projContextDestroy func(ctx unsafe.Pointer)
	projContextErrno   func(ctx unsafe.Pointer) int32

	projCreate             func(ctx unsafe.Pointer, definition string) unsafe.Pointer
	projCreateFromDatabase func(ctx unsafe.Pointer, authName, code string, category int32, useAlternativeGridNames int32, options unsafe.Pointer) unsafe.Pointer
	projCreateCRSToCRS     func(ctx unsafe.Pointer, source, target, area, options unsafe.Pointer) unsafe.Pointer
	projDestroy            func(pj unsafe.Pointer) unsafe.Pointer
	projClone              func(ctx, pj unsafe.Pointer) unsafe.Pointer
	projAssignContext      func(pj, ctx unsafe.Pointer)

	projTransArray func(pj unsafe.Pointer, direction int32, n uintptr, coord *float64) int32
	projRoundtrip  func(pj unsafe.Pointer, direction int32, n int32, coord *float64) float64

	projErrno      func(pj unsafe.Pointer) int32
	projErrnoReset func(pj unsafe.Pointer) int32

	// proj_errno_string is deprecated since PROJ 8 but present everywhere;
	// proj_context_errno_string is preferred when available.
	projErrnoString        func(code int32) string
	projContextErrnoString func(ctx unsafe.Pointer, code int32) string

	projGetName       func(pj unsafe.Pointer) string
	projGetIDAuthName func(pj unsafe.Pointer, index int32) string
	projGetIDCode     func(pj unsafe.Pointer, index int32) string
	projGetType       func(pj unsafe.Pointer) int32
	projIsCRS         func(pj unsafe.Pointer) int32

	projAsWKT        func(ctx, pj unsafe.Pointer, typ int32, options unsafe.Pointer) string
	projAsProjString func(ctx, pj unsafe.Pointer, typ int32, options unsafe.Pointer) string

	projNormalizeForVisualization func(ctx, pj unsafe.Pointer) unsafe.Pointer

	projContextSetSearchPaths func(ctx unsafe.Pointer, count int32, paths *unsafe.Pointer)
	projLogLevel              func(ctx unsafe.Pointer, level int32) int32
	projLogFunc               func(ctx, appData unsafe.Pointer, logf uintptr)

	bindingsRegistered bool
)

func init() {
	registerBindings()
}

func registerBindings() {
	if bindingsRegistered {
		return
	}

	if err := bindings.Load(); err != nil {
		return // Calls will fail with ErrNotLoaded later.
	}

	lib := bindings.LibPROJ()
	if lib == 0 {
		return
	}

	purego.RegisterLibFunc(&projContextCreate, lib, "proj_context_create")
	purego.RegisterLibFunc(&projContextDestroy, lib, "proj_context_destroy")
	purego.RegisterLibFunc(&projContextErrno, lib, "proj_context_errno")

	purego.RegisterLibFunc(&projCreate, lib, "proj_create")
	purego.RegisterLibFunc(&projCreateFromDatabase, lib, "proj_create_from_database")
	purego.RegisterLibFunc(&projCreateCRSToCRS, lib, "proj_create_crs_to_crs_from_pj")
	purego.RegisterLibFunc(&projDestroy, lib, "proj_destroy")
	purego.RegisterLibFunc(&projClone, lib, "proj_clone")
	purego.RegisterLibFunc(&projAssignContext, lib, "proj_assign_context")

	purego.RegisterLibFunc(&projTransArray, lib, "proj_trans_array")
	purego.RegisterLibFunc(&projRoundtrip, lib, "proj_roundtrip")

	purego.RegisterLibFunc(&projErrno, lib, "proj_errno")
	purego.RegisterLibFunc(&projErrnoReset, lib, "proj_errno_reset")
	purego.RegisterLibFunc(&projErrnoString, lib, "proj_errno_string")

	// Only in PROJ >= 8.
	if _, err := purego.Dlsym(lib, "proj_context_errno_string"); err == nil {
		purego.RegisterLibFunc(&projContextErrnoString, lib, "proj_context_errno_string")
	}

	purego.RegisterLibFunc(&projGetName, lib, "proj_get_name")
	purego.RegisterLibFunc(&projGetIDAuthName, lib, "proj_get_id_auth_name")
	purego.RegisterLibFunc(&projGetIDCode, lib, "proj_get_id_code")
	purego.RegisterLibFunc(&projGetType, lib, "proj_get_type")
	purego.RegisterLibFunc(&projIsCRS, lib, "proj_is_crs")

	purego.RegisterLibFunc(&projAsWKT, lib, "proj_as_wkt")
	purego.RegisterLibFunc(&projAsProjString, lib, "proj_as_proj_string")

	purego.RegisterLibFunc(&projNormalizeForVisualization, lib, "proj_normalize_for_visualization")

	purego.RegisterLibFunc(&projContextSetSearchPaths, lib, "proj_context_set_search_paths")
	purego.RegisterLibFunc(&projLogLevel, lib, "proj_log_level")
	purego.RegisterLibFunc(&projLogFunc, lib, "proj_log_func")

	bindingsRegistered = true
}

// ContextCreate creates a new PROJ threading context.
// The context must be destroyed with ContextDestroy.
func ContextCreate() (Context, error) {
	if projContextCreate == nil {
		return nil, bindings.ErrNotLoaded
	}
	ctx := projContextCreate()
	if ctx == nil {
		return nil, ErrContextCreateFailed
	}
	return ctx, nil
}

// ContextDestroy destroys a context. Safe to call with nil.
func ContextDestroy(ctx Context) {
	if ctx == nil || projContextDestroy == nil {
		return
	}
	projContextDestroy(ctx)
}

// ContextErrno reads the context's last-error slot without clearing it.
func ContextErrno(ctx Context) int32 {
	if ctx == nil || projContextErrno == nil {
		return 0
	}
	return projContextErrno(ctx)
}

// Create instantiates an object from a definition: a proj-string
// ("+proj=merc ..."), a WKT string, or an AUTHORITY:CODE string such
// as "EPSG:4326". Returns nil on failure; consult ContextErrno.
func Create(ctx Context, definition string) PJ {
	if projCreate == nil {
		return nil
	}
	return projCreate(ctx, definition)
}

// CreateFromDatabase instantiates an object from the authority database,
// e.g. CreateFromDatabase(ctx, "EPSG", "9597", CategoryCoordinateOperation).
// Returns nil on failure; consult ContextErrno.
func CreateFromDatabase(ctx Context, authName, code string, category Category) PJ {
	if projCreateFromDatabase == nil {
		return nil
	}
	// usePROJAlternativeGridNames=1 matches proj_create_from_database defaults
	// used by the CRS factories.
	return projCreateFromDatabase(ctx, authName, code, int32(category), 1, nil)
}

// CreateCRSToCRS instantiates an operation transforming coordinates from
// source to target, with coordinates in the authority-mandated axis order.
// Returns nil on failure; consult ContextErrno.
func CreateCRSToCRS(ctx Context, source, target PJ) PJ {
	if projCreateCRSToCRS == nil {
		return nil
	}
	return projCreateCRSToCRS(ctx, source, target, nil, nil)
}

// Clone instantiates a new object identical to pj, bound to ctx. The copy
// is independent: it has its own error slot and can be used while the
// original is in use elsewhere. Returns nil on failure; consult
// ContextErrno.
func Clone(ctx Context, pj PJ) PJ {
	if ctx == nil || pj == nil || projClone == nil {
		return nil
	}
	return projClone(ctx, pj)
}

// Destroy deallocates a PJ object. Safe to call with nil.
func Destroy(pj PJ) {
	if pj == nil || projDestroy == nil {
		return
	}
	projDestroy(pj)
}

// AssignContext re-binds pj to ctx. A PJ uses the context it was created
// with for all subsequent calls unless reassigned. The binding is a single
// mutable field on the object: callers sharing a PJ across threads should
// Clone per context instead of reassigning.
func AssignContext(pj PJ, ctx Context) {
	if pj == nil || ctx == nil || projAssignContext == nil {
		return
	}
	projAssignContext(pj, ctx)
}

// TransArray transforms n XYZT quadruplets in place. Returns 0 on success
// or the first error number encountered.
func TransArray(pj PJ, direction Direction, n int, coord *float64) int32 {
	if projTransArray == nil {
		return ErrOther
	}
	return projTransArray(pj, int32(direction), uintptr(n), coord)
}

// Roundtrip transforms an XYZT quadruplet n times back and forth between
// direction and its opposite, and returns the distance between the start
// point and the end point.
func Roundtrip(pj PJ, direction Direction, n int, coord *float64) float64 {
	if projRoundtrip == nil {
		return 0
	}
	return projRoundtrip(pj, int32(direction), int32(n), coord)
}

// Errno reads the error slot of pj without clearing it.
func Errno(pj PJ) int32 {
	if pj == nil || projErrno == nil {
		return 0
	}
	return projErrno(pj)
}

// ErrnoReset clears the error slot of pj and of its bound context, and
// returns the previous error number. Every context must be returned to the
// pool in this cleared condition.
func ErrnoReset(pj PJ) int32 {
	if pj == nil || projErrnoReset == nil {
		return 0
	}
	return projErrnoReset(pj)
}

// ErrnoString returns a human-readable message for a PROJ error number,
// preferring the context-aware variant when the library provides it.
func ErrnoString(ctx Context, code int32) string {
	if projContextErrnoString != nil && ctx != nil {
		return projContextErrnoString(ctx, code)
	}
	if projErrnoString != nil {
		return projErrnoString(code)
	}
	return "unknown error (PROJ not loaded)"
}

// GetName returns the object name, e.g. "WGS 84".
func GetName(pj PJ) string {
	if pj == nil || projGetName == nil {
		return ""
	}
	return projGetName(pj)
}

// GetIDAuthName returns the authority name of the identifier at index,
// e.g. "EPSG", or "" if absent.
func GetIDAuthName(pj PJ, index int) string {
	if pj == nil || projGetIDAuthName == nil {
		return ""
	}
	return projGetIDAuthName(pj, int32(index))
}

// GetIDCode returns the code of the identifier at index, e.g. "4326",
// or "" if absent.
func GetIDCode(pj PJ, index int) string {
	if pj == nil || projGetIDCode == nil {
		return ""
	}
	return projGetIDCode(pj, int32(index))
}

// GetType returns the ISO-19111 type of the object.
func GetType(pj PJ) ObjectType {
	if pj == nil || projGetType == nil {
		return TypeUnknown
	}
	return ObjectType(projGetType(pj))
}

// IsCRS reports whether the object is a coordinate reference system.
func IsCRS(pj PJ) bool {
	if pj == nil || projIsCRS == nil {
		return false
	}
	return projIsCRS(pj) != 0
}

// AsWKT exports the object as WKT in the requested flavor, or "" on failure.
func AsWKT(ctx Context, pj PJ, typ int32) string {
	if ctx == nil || pj == nil || projAsWKT == nil {
		return ""
	}
	return projAsWKT(ctx, pj, typ, nil)
}

// AsProjString exports the object as a proj-string, or "" on failure.
// Not all objects are expressible as proj-strings.
func AsProjString(ctx Context, pj PJ, typ int32) string {
	if ctx == nil || pj == nil || projAsProjString == nil {
		return ""
	}
	return projAsProjString(ctx, pj, typ, nil)
}

// NormalizeForVisualization returns a new operation equivalent to pj but
// taking and producing coordinates in longitude/latitude (GIS friendly)
// axis order. Returns nil on failure.
func NormalizeForVisualization(ctx Context, pj PJ) PJ {
	if ctx == nil || pj == nil || projNormalizeForVisualization == nil {
		return nil
	}
	return projNormalizeForVisualization(ctx, pj)
}

// SetSearchPaths overrides the directories searched for PROJ resource files
// (proj.db, transformation grids) on the given context.
func SetSearchPaths(ctx Context, paths []string) {
	if ctx == nil || projContextSetSearchPaths == nil || len(paths) == 0 {
		return
	}

	// Build a NUL-terminated copy of every path and an array of pointers to
	// them. purego only marshals string-typed arguments, not char**.
	bufs := make([][]byte, len(paths))
	ptrs := make([]unsafe.Pointer, len(paths))
	for i, p := range paths {
		bufs[i] = append([]byte(p), 0)
		ptrs[i] = unsafe.Pointer(&bufs[i][0])
	}
	projContextSetSearchPaths(ctx, int32(len(ptrs)), &ptrs[0])
	runtime.KeepAlive(bufs)
}

// SetLogLevel sets the context's native log level and returns the previous one.
func SetLogLevel(ctx Context, level int32) int32 {
	if ctx == nil || projLogLevel == nil {
		return LogNone
	}
	return projLogLevel(ctx, level)
}

// SetLogFunc installs a log callback on the context. logf must be a
// purego.NewCallback value with the C signature
// void (*)(void *app_data, int level, const char *msg).
func SetLogFunc(ctx Context, appData uintptr, logf uintptr) {
	if ctx == nil || projLogFunc == nil {
		return
	}
	projLogFunc(ctx, unsafe.Pointer(appData), logf)
}

// IsAvailable reports whether the PROJ library was found and the bindings
// are registered.
func IsAvailable() bool {
	return bindingsRegistered
}

// Release returns the PROJ release string, e.g.
// "Rel. 9.3.0, September 1st, 2023", or "" if unavailable.
func Release() string {
	return bindings.Release()
}
