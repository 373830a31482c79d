package models

import "errors"

var (
	ErrNotFound      = errors.New("subscriber not found")
	ErrDuplicateKey  = errors.New("subscriber already exists")
	ErrConnectivity  = errors.New("datastore unreachable")
	ErrInvalidRecord = errors.New("invalid subscriber record")
	// ErrCorruptRecord marks a stored document that cannot be decoded.
	ErrCorruptRecord = errors.New("stored subscriber record is malformed")
)
