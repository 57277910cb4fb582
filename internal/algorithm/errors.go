package algorithm

import "errors"

var (
	// ErrInvalidInput is returned when weights, counts or tuning parameters are out of range.
	ErrInvalidInput = errors.New("invalid solver input")
	// ErrSearchSpaceTooLarge is returned by the brute-force solver when enumerating every
	// combination would exceed MaxBruteForceSpace.
	ErrSearchSpaceTooLarge = errors.New("combination space too large for brute force")
)
