package models

import "errors"

// Error taxonomy shared by storage, engines and transports.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)
