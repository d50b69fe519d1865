package model

import "errors"

var (
	// ErrDataUnavailable is returned when a provider fetch fails or yields no bars.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrInsufficientHistory is returned when a series is shorter than a component's minimum window.
	ErrInsufficientHistory = errors.New("insufficient history")
)
