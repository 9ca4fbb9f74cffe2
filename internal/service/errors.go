package service

import "errors"

// Common service errors
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrStatsUnavailable = errors.New("queue stats unavailable")
)
