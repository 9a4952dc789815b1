package keystore

import "errors"

// Sentinel errors for key store operations.
var (
	// ErrNotFound is returned when a key id does not exist.
	ErrNotFound = errors.New("api key not found")

	// ErrExists is returned when creating a key id that is already present.
	ErrExists = errors.New("api key already exists")
)
