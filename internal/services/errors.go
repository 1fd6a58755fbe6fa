package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "lumenai/pkg/errors"
)

// notFoundOr maps a missing row to NotFound and anything else to an internal error.
func notFoundOr(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(resource)
	}
	return apperrors.Internal("failed to load "+resource, err)
}

// storeError wraps a failed write or query.
func storeError(op string, err error) error {
	return apperrors.Internal("failed to "+op, err)
}

// isUniqueViolation reports whether err is a unique constraint failure on either backend.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "SQLSTATE 23505")
}
