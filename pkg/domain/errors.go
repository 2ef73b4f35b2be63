package domain

import "errors"

var (
	// ErrInvalidID marks an identifier that is not a well-formed ObjectID.
	ErrInvalidID = errors.New("invalid sample id")
	// ErrNotFound marks a well-formed identifier with no stored record.
	ErrNotFound = errors.New("sample not found")
)
