//go:build !ios && !android && (amd64 || arm64)

package libproj

import "errors"

// ErrContextCreateFailed is returned when proj_context_create returns NULL,
// which only happens when the native allocator fails.
var ErrContextCreateFailed = errors.New("libproj: proj_context_create failed")

// PROJ error numbers as defined by proj.h since PROJ 8.0.
//
// The numbering is deliberate: codes carry their class in the high bits.
// 1024-2047 report that an operation could not be instantiated, 2048-4095
// report that a coordinate could not be transformed by an otherwise valid
// operation, and 4096+ cover everything else.
const (
	ErrInvalidOp                      int32 = 1024 // PROJ_ERR_INVALID_OP
	ErrInvalidOpWrongSyntax           int32 = 1025
	ErrInvalidOpMissingArg            int32 = 1026
	ErrInvalidOpIllegalArgValue       int32 = 1027
	ErrInvalidOpMutuallyExclusiveArgs int32 = 1028
	ErrInvalidOpFileNotFoundOrInvalid int32 = 1029

	ErrCoordTransfm             int32 = 2048 // PROJ_ERR_COORD_TRANSFM
	ErrCoordTransfmInvalidCoord int32 = 2049
	ErrCoordTransfmOutsideGrid  int32 = 2050
	ErrCoordTransfmGridAtNodata int32 = 2051
	ErrCoordTransfmNoOperation  int32 = 2052
	ErrCoordTransfmOutsideArea  int32 = 2053

	ErrOther             int32 = 4096 // PROJ_ERR_OTHER
	ErrOtherAPIMisuse    int32 = 4097
	ErrOtherNoInverseOp  int32 = 4098
	ErrOtherNetworkError int32 = 4099
)

// IsConstructionCode reports whether code means an object could not be
// instantiated (bad definition, bad authority code, missing grid file).
func IsConstructionCode(code int32) bool {
	return code >= ErrInvalidOp && code < ErrCoordTransfm
}

// IsTransformCode reports whether code means a specific coordinate could not
// be transformed by an otherwise valid operation (outside a grid's domain,
// numerical singularity). These failures are recoverable per call.
func IsTransformCode(code int32) bool {
	return code >= ErrCoordTransfm && code < ErrOther
}
