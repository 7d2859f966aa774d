package postgres

import (
	"errors"

	"github.com/lib/pq"
	apperrors "github.com/zatekoja/carebooking/pkg/errors"
)

// SQLSTATE codes the adapters react to
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// ClassifyError wraps a driver error into the matching application error.
// Unique violations become CONFLICT, serialization failures and deadlocks
// become UNAVAILABLE, everything else INTERNAL.
func ClassifyError(message string, err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case codeUniqueViolation:
			return &apperrors.AppError{Type: apperrors.ErrorTypeConflict, Message: message, Err: err}
		case codeSerializationFailure, codeDeadlockDetected:
			return apperrors.NewUnavailableError(message, err)
		}
	}

	return apperrors.NewInternalError(message, err)
}

// IsRetryable reports whether err is a transient database failure
func IsRetryable(err error) bool {
	return apperrors.IsType(err, apperrors.ErrorTypeUnavailable)
}
