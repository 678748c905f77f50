package extract

import "errors"

var (
	// ErrInputNotFound means the source file does not exist. No strategy is tried.
	ErrInputNotFound = errors.New("input not found")

	// ErrCapabilityUnavailable means a strategy cannot run in this environment
	// (runtime missing, unhealthy, or disabled). The chain moves on to the next
	// strategy instead of failing the document.
	ErrCapabilityUnavailable = errors.New("extraction capability unavailable")

	// ErrCorruptInput means the document itself cannot be opened or parsed.
	ErrCorruptInput = errors.New("corrupt input")
)
