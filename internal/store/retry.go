package store

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/carbon-marketplace/internal/domain"
	"github.com/feral-file/carbon-marketplace/internal/logger"
)

// RetryPolicy bounds the retries of a transaction that lost an optimistic version race
type RetryPolicy struct {
	MaxRetries     uint64
	InitialBackoff time.Duration
}

// DefaultRetryPolicy is used when a workflow is built without explicit settings
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:     5,
	InitialBackoff: 20 * time.Millisecond,
}

func (p RetryPolicy) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialBackoff > 0 {
		b.InitialInterval = p.InitialBackoff
	}
	b.MaxInterval = time.Second
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, p.MaxRetries)
}

// TransactionWithRetry runs fn in a transaction and reruns it from scratch while it fails with
// domain.ErrStaleWrite. Any other error is returned immediately. A race still lost after
// the last retry surfaces as a ConflictError.
func TransactionWithRetry(ctx context.Context, s Store, policy RetryPolicy, fn func(tx Store) error) error {
	operation := func() error {
		err := s.Transaction(ctx, fn)
		if err == nil || errors.Is(err, domain.ErrStaleWrite) {
			return err
		}
		return backoff.Permanent(err)
	}

	notify := func(err error, d time.Duration) {
		logger.DebugCtx(ctx, "Transaction lost a version race, retrying",
			zap.Error(err),
			zap.Duration("retry_in", d))
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(policy.newBackOff(), ctx), notify)
	if errors.Is(err, domain.ErrStaleWrite) {
		return domain.NewConflictError("record was modified concurrently, please retry")
	}

	return err
}
