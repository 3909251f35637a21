package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/joripage/matching-engine/pkg/engine/model"
)

type flakySubmitter struct {
	failures int
	submits  int
	cancels  int
	reports  []*model.ExecutionReport
	err      error
	// mutateStatus simulates an attempt that failed after changing the order
	mutateStatus model.OrderStatus
}

func (s *flakySubmitter) SubmitOrder(_ context.Context, order *model.Order) ([]*model.ExecutionReport, error) {
	s.submits++
	if s.submits <= s.failures {
		if s.mutateStatus != "" {
			order.Status = s.mutateStatus
		}
		return s.reports, s.err
	}
	return nil, nil
}

func (s *flakySubmitter) CancelOrder(_ context.Context, _, _ string) (bool, error) {
	s.cancels++
	if s.cancels <= s.failures {
		return false, s.err
	}
	return true, nil
}

func TestRetryOnStorageError(t *testing.T) {
	next := &flakySubmitter{failures: 2, err: fmt.Errorf("%w: db down", ErrStorage)}
	sub := NewRetryingSubmitter(next, 30*time.Second)

	_, err := sub.SubmitOrder(context.Background(), &model.Order{OrderID: "O1"})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if next.submits != 3 {
		t.Errorf("expected 3 attempts, got %d", next.submits)
	}
}

func TestNoRetryAfterFills(t *testing.T) {
	storageErr := fmt.Errorf("%w: db down", ErrStorage)
	next := &flakySubmitter{
		failures: 10,
		err:      storageErr,
		reports:  []*model.ExecutionReport{{ExecutionID: "E1"}},
	}
	sub := NewRetryingSubmitter(next, 30*time.Second)

	reports, err := sub.SubmitOrder(context.Background(), &model.Order{OrderID: "O1"})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage surfaced, got %v", err)
	}
	if next.submits != 1 {
		t.Errorf("a submit with fills must not be replayed, got %d attempts", next.submits)
	}
	if len(reports) != 1 {
		t.Errorf("fills must be returned alongside the error, got %d", len(reports))
	}
}

func TestNoRetryOnDomainError(t *testing.T) {
	next := &flakySubmitter{failures: 10, err: ErrNoLiquidity}
	sub := NewRetryingSubmitter(next, 30*time.Second)

	_, err := sub.SubmitOrder(context.Background(), &model.Order{OrderID: "O1"})
	if !errors.Is(err, ErrNoLiquidity) {
		t.Fatalf("expected ErrNoLiquidity, got %v", err)
	}
	if next.submits != 1 {
		t.Errorf("domain errors are permanent, got %d attempts", next.submits)
	}
}

func TestNoRetryWhenOrderMutated(t *testing.T) {
	next := &flakySubmitter{
		failures:     10,
		err:          fmt.Errorf("%w: db down", ErrStorage),
		mutateStatus: model.OrderStatusRejected,
	}
	sub := NewRetryingSubmitter(next, 30*time.Second)

	_, err := sub.SubmitOrder(context.Background(), &model.Order{OrderID: "O1"})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage surfaced, got %v", err)
	}
	if next.submits != 1 {
		t.Errorf("an attempt that changed the order must not be replayed, got %d attempts", next.submits)
	}
}

func TestCancelRetries(t *testing.T) {
	next := &flakySubmitter{failures: 1, err: fmt.Errorf("%w: db down", ErrStorage)}
	sub := NewRetryingSubmitter(next, 30*time.Second)

	ok, err := sub.CancelOrder(context.Background(), "O1", "ABC")
	if err != nil || !ok {
		t.Fatalf("expected eventual cancel, got ok=%v err=%v", ok, err)
	}
	if next.cancels != 2 {
		t.Errorf("expected 2 attempts, got %d", next.cancels)
	}
}
