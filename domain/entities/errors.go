package entities

import "errors"

// Sentinel errors shared by the migration pipeline. Wrap them with %w and test
// with errors.Is.
var (
	ErrConnection          = errors.New("device connection failed")
	ErrTemplate            = errors.New("template unusable")
	ErrPersistence         = errors.New("cannot persist configuration")
	ErrUnsupportedPlatform = errors.New("unsupported switch platform")
	ErrInvalidRequest      = errors.New("invalid migration request")
)
