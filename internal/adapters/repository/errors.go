package repository

import "errors"

var (
	// ErrNotFound is returned when no session exists for the requested album.
	ErrNotFound = errors.New("session not found")

	// ErrAlreadyExists is returned when creating a session for an album
	// that already has one.
	ErrAlreadyExists = errors.New("session already exists")

	// ErrClosed is returned when an operation is attempted on a closed store.
	ErrClosed = errors.New("store is closed")
)
