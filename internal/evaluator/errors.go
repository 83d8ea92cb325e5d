package evaluator

import "errors"

// Sentinel errors for completion calls.
var (
	ErrTimeout      = errors.New("completion timed out")
	ErrInvalidAgent = errors.New("invalid agent configuration")
)
