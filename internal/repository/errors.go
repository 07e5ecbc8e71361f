// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrUserNotFound maps to a 404 response carrying the missing
// id, while ErrConflict signals that an operation cannot proceed
// because of dependent records (e.g. deleting a user who still has
// reviews).
package repository

import (
	"errors"
	"strings"
)

// ErrUserNotFound is returned when no user row matches the given id or email.
var ErrUserNotFound = errors.New("user not found")

// ErrRoleNotFound is returned when no role row matches the given id or name.
var ErrRoleNotFound = errors.New("role not found")

// ErrPermissionNotFound is returned when no permission row matches the
// given id or name, or when a batch lookup resolves fewer rows than
// requested.
var ErrPermissionNotFound = errors.New("permission not found")

// ErrMovieNotFound is returned when no movie row matches the given id.
var ErrMovieNotFound = errors.New("movie not found")

// ErrReviewNotFound is returned when no review row matches the given id.
var ErrReviewNotFound = errors.New("review not found")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as deleting a user who still has
// reviews. Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// isDuplicate reports whether err is a MySQL duplicate-key violation
// (error 1062). Unique columns such as users.email and roles.name
// surface through this check.
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

// isRestricted reports whether err is a MySQL foreign-key restriction
// (error 1451), raised when a parent row still has dependent children.
func isRestricted(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1451")
}
