package artifacts

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"

	"github.com/mesh-intelligence/docket/pkg/types"
)

// Retry defaults used when the configuration leaves a field at zero.
const (
	DefaultMaxAttempts     = 3
	DefaultInitialInterval = 200 * time.Millisecond
)

// RetryingStore retries transient rename failures of the wrapped store
// with exponential backoff. Name conflicts, missing artifacts and invalid
// names are not retried.
type RetryingStore struct {
	next        types.ArtifactStore
	maxAttempts int
	initial     time.Duration
	logger      hclog.Logger
}

// NewRetryingStore wraps next. cfg bounds the number of attempts and the
// first backoff interval.
func NewRetryingStore(next types.ArtifactStore, cfg types.RetryConfig, logger hclog.Logger) *RetryingStore {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	initial := time.Duration(cfg.InitialIntervalMS) * time.Millisecond
	if initial <= 0 {
		initial = DefaultInitialInterval
	}
	return &RetryingStore{
		next:        next,
		maxAttempts: attempts,
		initial:     initial,
		logger:      logger.Named("retry"),
	}
}

// Rename implements types.ArtifactStore.
func (s *RetryingStore) Rename(ctx context.Context, ref types.ArtifactRef, newName string) (types.ArtifactRef, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.initial
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(s.maxAttempts-1)), ctx)

	attempt := 0
	op := func() (types.ArtifactRef, error) {
		attempt++
		out, err := s.next.Rename(ctx, ref, newName)
		if err != nil && permanent(err) {
			return out, backoff.Permanent(err)
		}
		return out, err
	}
	notify := func(err error, wait time.Duration) {
		s.logger.Warn("rename failed, retrying", "handle", ref.Handle, "to", newName,
			"attempt", attempt, "wait", wait, "error", err)
	}
	return backoff.RetryNotifyWithData(op, b, notify)
}

func permanent(err error) bool {
	return errors.Is(err, types.ErrArtifactExists) ||
		errors.Is(err, types.ErrArtifactNotFound) ||
		errors.Is(err, types.ErrInvalidID) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
