// Package errors provides structured error handling with i18n support.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Lookup errors
	CodeNotFound Code = "NOT_FOUND"

	// Authorization errors
	CodePermissionDenied Code = "PERMISSION_DENIED"

	// Input errors
	CodeValidationFailed   Code = "VALIDATION_FAILED"
	CodeIntegrityViolation Code = "INTEGRITY_VIOLATION"

	// Infrastructure errors
	CodePersistenceFailed  Code = "PERSISTENCE_FAILED"
	CodeExternalSyncFailed Code = "EXTERNAL_SYNC_FAILED"
	CodeInternal           Code = "INTERNAL"
)

// UserFault reports whether the code describes a problem with the caller's
// request rather than with the registry itself.
func (c Code) UserFault() bool {
	switch c {
	case CodeNotFound,
		CodePermissionDenied,
		CodeValidationFailed,
		CodeIntegrityViolation:
		return true
	default:
		return false
	}
}
