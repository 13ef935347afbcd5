package recordx

import "errors"

var (
	// ErrKeyNotFound is returned by Fetch when the key is not present.
	ErrKeyNotFound = errors.New("recordx: key not found")

	// ErrInvalidData is returned when input carries an identity that is not an integer.
	ErrInvalidData = errors.New("recordx: invalid data")
)
