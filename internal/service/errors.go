package service

import "errors"

var (
	// ErrContentNotFound is returned when a content record does not exist.
	ErrContentNotFound = errors.New("content not found")
	// ErrRevisionNotFound is returned when a requested version has no snapshot.
	ErrRevisionNotFound = errors.New("content revision not found")
	// ErrVersionMismatch is returned when the update's expected version does not follow the stored one.
	ErrVersionMismatch = errors.New("content version mismatch, expected current version + 1")
)
