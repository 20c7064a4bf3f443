package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
)

// Sentinel errors for common state-store conditions.
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrWriteConflict = errors.New("write conflict: content changed since read")
	ErrIndexBuilding = errors.New("index is still building")
)

// wrapDBError wraps a database error with operation context, converting
// sql.ErrNoRows to ErrNotFound for consistent handling across callers.
func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsWriteConflict reports whether err is or wraps ErrWriteConflict.
func IsWriteConflict(err error) bool { return errors.Is(err, ErrWriteConflict) }
