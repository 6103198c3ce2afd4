// Package repository implements the MySQL persistence layer. Sentinel errors
// defined here let handlers distinguish failure modes: ErrForbidden means the
// caller does not own the row it is touching (HTTP 403), ErrConflict means
// the operation clashes with existing state such as a duplicate watchlist
// item (HTTP 409), and ErrNotFound maps to HTTP 404.
package repository

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own or are not a member of.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an insert or update clashes with existing
// state, e.g. adding a media item that is already on the user's watchlist.
var ErrConflict = errors.New("conflict")

// ErrNotFound is returned when the referenced row does not exist.
var ErrNotFound = errors.New("not found")

// isDuplicate reports whether err is a MySQL duplicate-key violation (1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
