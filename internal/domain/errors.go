package domain

import "errors"

var (
	// ErrIndexOutOfRange is returned by index based watchlist operations.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrAliasNotFound is returned when no entry carries the requested alias.
	ErrAliasNotFound = errors.New("alias not found")

	// ErrDuplicateEntry is returned by Add when the id is already tracked.
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrStaleSearch is returned when a search selection no longer matches
	// the search buffer.
	ErrStaleSearch = errors.New("search expired")
)

// IsUserError reports whether err is a user input error that should be
// answered with a reply instead of aborting the turn.
func IsUserError(err error) bool {
	return errors.Is(err, ErrIndexOutOfRange) ||
		errors.Is(err, ErrAliasNotFound) ||
		errors.Is(err, ErrDuplicateEntry) ||
		errors.Is(err, ErrStaleSearch)
}
