package entry

import "errors"

// Domain errors for the entry package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, entry.ErrUnsupportedVersion) {
//	    // refuse setup; do not guess forward
//	}
var (
	// ErrRecordNotFound is returned when a record ID does not exist.
	ErrRecordNotFound = errors.New("entry: record not found")

	// ErrRecordExists is returned when creating a record with an ID
	// that already exists.
	ErrRecordExists = errors.New("entry: record already exists")

	// ErrUnsupportedVersion is returned when a record's version has no
	// registered transition and is not already current.
	ErrUnsupportedVersion = errors.New("entry: unsupported record version")

	// ErrMigrationIncomplete is returned when a device query inside a
	// transition failed; the stored record was not modified.
	ErrMigrationIncomplete = errors.New("entry: migration did not complete")
)
