package shared

import "errors"

var (
	// ErrOutOfRange signals an out of range request
	ErrOutOfRange = errors.New("out of range")

	// ErrKeyExists is returned when adding a key that is already present.
	ErrKeyExists = errors.New("key exists")

	// ErrKeyNotFound is returned when deleting a key that is not present.
	ErrKeyNotFound = errors.New("key not found")

	// ErrInvalidResize is returned by Expand and Resize while a rehash is in
	// progress, while resizing is disabled, or for a size below the number
	// of stored elements.
	ErrInvalidResize = errors.New("invalid resize")
)
