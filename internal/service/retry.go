package service

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dairychain/milkops/internal/repository"
)

// withRetry runs fn, retrying exactly once on a transient store failure.
// Safe because every multi-row mutation is transactional: a failed attempt
// leaves nothing behind.
func withRetry(log zerolog.Logger, fn func() error) error {
	err := fn()
	if err == nil || !repository.IsTransient(err) {
		return err
	}
	log.Warn().Err(err).Msg("transient store error, retrying once")
	if err = fn(); err != nil && repository.IsTransient(err) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}
