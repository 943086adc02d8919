package workflow

import apperrors "github.com/louisbranch/roleplay-registry/internal/platform/errors"

// Sentinels for matching engine errors by code with errors.Is.
var (
	ErrNotFound         = apperrors.New(apperrors.CodeNotFound, "not found")
	ErrPermissionDenied = apperrors.New(apperrors.CodePermissionDenied, "permission denied")
	ErrValidation       = apperrors.New(apperrors.CodeValidationFailed, "validation failed")
	ErrIntegrity        = apperrors.New(apperrors.CodeIntegrityViolation, "integrity violation")
	ErrPersistence      = apperrors.New(apperrors.CodePersistenceFailed, "persistence failed")
	ErrInternal         = apperrors.New(apperrors.CodeInternal, "internal error")
)
