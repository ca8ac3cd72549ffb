package service

import (
	"errors"
	"fmt"
)

// The error taxonomy the transport layer maps to status codes. Absent
// market data never surfaces as an error; results carry exists flags
// instead.
var (
	// ErrInvalidRequest rejects a malformed request before any
	// computation runs.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotFound reports a missing portfolio, holding or catalog entry.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable reports an upstream storage failure.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrInternal reports a request-scoped invariant violation.
	ErrInternal = errors.New("internal error")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
