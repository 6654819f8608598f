package repository

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// ErrConcurrentUpdate is returned when a conditional write matched no rows
// because another caller got there first.
var ErrConcurrentUpdate = errors.New("row changed concurrently")

// IsTransient reports whether an error coming out of the store looks like a
// transient transport failure worth one retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE)
}
