package engine

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/joripage/matching-engine/pkg/engine/model"
)

// OrderSubmitter is the submission surface a gateway talks to.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, order *model.Order) ([]*model.ExecutionReport, error)
	CancelOrder(ctx context.Context, orderID, symbol string) (bool, error)
}

// RetryingSubmitter retries storage failures with exponential backoff. It
// wraps the engine at the call site, so backoff delays never hold a symbol's
// lock. A submit is only retried while no execution has happened yet;
// anything after a fill is permanent and surfaces to the caller.
type RetryingSubmitter struct {
	next       OrderSubmitter
	maxElapsed time.Duration
}

func NewRetryingSubmitter(next OrderSubmitter, maxElapsed time.Duration) *RetryingSubmitter {
	return &RetryingSubmitter{
		next:       next,
		maxElapsed: maxElapsed,
	}
}

func (s *RetryingSubmitter) SubmitOrder(ctx context.Context, order *model.Order) ([]*model.ExecutionReport, error) {
	var reports []*model.ExecutionReport

	err := backoff.Retry(func() error {
		prevStatus := order.Status
		var attemptErr error
		reports, attemptErr = s.next.SubmitOrder(ctx, order)
		if attemptErr == nil {
			return nil
		}
		// Replaying is only safe when the failed attempt left no trace: no
		// fills printed and the order state is exactly what went in.
		if errors.Is(attemptErr, ErrStorage) && len(reports) == 0 && order.Status == prevStatus {
			return attemptErr
		}
		return backoff.Permanent(attemptErr)
	}, s.newBackOff(ctx))

	return reports, err
}

func (s *RetryingSubmitter) CancelOrder(ctx context.Context, orderID, symbol string) (bool, error) {
	var ok bool

	err := backoff.Retry(func() error {
		var attemptErr error
		ok, attemptErr = s.next.CancelOrder(ctx, orderID, symbol)
		if attemptErr == nil {
			return nil
		}
		if errors.Is(attemptErr, ErrStorage) {
			return attemptErr
		}
		return backoff.Permanent(attemptErr)
	}, s.newBackOff(ctx))

	return ok, err
}

func (s *RetryingSubmitter) newBackOff(ctx context.Context) backoff.BackOff {
	boff := backoff.NewExponentialBackOff()
	boff.MaxElapsedTime = s.maxElapsed
	return backoff.WithContext(boff, ctx)
}
