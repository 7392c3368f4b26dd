package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/papergest/internal/answer"
	"github.com/dgallion1/papergest/internal/embed"
	"github.com/dgallion1/papergest/internal/paper"
	"github.com/dgallion1/papergest/internal/vectorstore"
)

// IsRetryable checks if an error is worth retrying. Collaborator failures
// are, except those that would fail the same way again.
func IsRetryable(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, embed.ErrEmptyText),
		errors.Is(err, vectorstore.ErrDimensionMismatch):
		return false
	}
	var retryErr *answer.RetryableError
	var embedErr *paper.EmbeddingError
	var storeErr *paper.StorageError
	return errors.As(err, &retryErr) || errors.As(err, &embedErr) || errors.As(err, &storeErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3

// retry calls fn up to MaxRetries times while it fails with a retryable
// error, sleeping backoff(attempt) in between. onRetry sees every failure
// that will be retried.
func retry[T any](ctx context.Context, backoff func(int) time.Duration, onRetry func(attempt int, err error), fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := range MaxRetries {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == MaxRetries-1 {
			break
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}
		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
	return zero, lastErr
}
