package settings

import "errors"

var (
	// ErrNotConfigured indicates no bank account settings row is active.
	// Orders cannot be issued until one is.
	ErrNotConfigured = errors.New("no active bank account settings")
	// ErrInvalidCodeRange indicates unique_code_end < unique_code_start or a
	// negative bound.
	ErrInvalidCodeRange = errors.New("invalid unique code range")
)
