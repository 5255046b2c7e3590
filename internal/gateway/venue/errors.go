package venue

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrSymbolNotFound   = errors.New("symbol not known to venue")
	ErrQuoteUnavailable = errors.New("no quote available")
	ErrPositionNotFound = errors.New("position not held by venue")
)

// RejectedError is a venue refusal of a state-changing operation. It is
// terminal for the operation that triggered it; callers never auto-retry.
type RejectedError struct {
	Op     string
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("venue rejected %s: %s", e.Op, e.Reason)
}

// Rejected builds a RejectedError for the given operation.
func Rejected(op, reason string) error {
	return &RejectedError{Op: op, Reason: reason}
}

// IsRejected reports whether err carries a venue rejection.
func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}

// IsTimeout reports whether err is a deadline or transport timeout, i.e.
// the bridge may still be fine and the caller can try again later.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
