package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestTransitionChain(t *testing.T) {
	o := &Order{Status: OrderStatusAccepted}

	if err := o.TransitionTo(OrderStatusPartiallyFilled); err != nil {
		t.Fatalf("ACCEPTED -> PARTIALLY_FILLED failed: %v", err)
	}
	if err := o.TransitionTo(OrderStatusPartiallyFilled); err != nil {
		t.Fatalf("PARTIALLY_FILLED -> PARTIALLY_FILLED failed: %v", err)
	}
	if err := o.TransitionTo(OrderStatusFilled); err != nil {
		t.Fatalf("PARTIALLY_FILLED -> FILLED failed: %v", err)
	}
}

func TestTransitionFromTerminal(t *testing.T) {
	for _, status := range []OrderStatus{OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected} {
		o := &Order{Status: status}
		if err := o.TransitionTo(OrderStatusAccepted); !errors.Is(err, ErrIllegalTransition) {
			t.Errorf("expected ErrIllegalTransition from %s, got %v", status, err)
		}
	}
}

func TestPendingTriggerTransitions(t *testing.T) {
	o := &Order{Status: OrderStatusPendingTrigger}
	if err := o.TransitionTo(OrderStatusAccepted); err != nil {
		t.Fatalf("PENDING_TRIGGER -> ACCEPTED failed: %v", err)
	}

	o = &Order{Status: OrderStatusPendingTrigger}
	if err := o.TransitionTo(OrderStatusCancelled); err != nil {
		t.Fatalf("PENDING_TRIGGER -> CANCELLED failed: %v", err)
	}

	o = &Order{Status: OrderStatusPendingTrigger}
	if err := o.TransitionTo(OrderStatusFilled); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition for PENDING_TRIGGER -> FILLED, got %v", err)
	}
}

func TestApplyFillWeightedAverage(t *testing.T) {
	o := &Order{Status: OrderStatusAccepted, Quantity: d("10")}

	if err := o.ApplyFill(d("4"), d("100"), time.Now()); err != nil {
		t.Fatalf("first fill failed: %v", err)
	}
	if o.Status != OrderStatusPartiallyFilled {
		t.Errorf("expected PARTIALLY_FILLED, got %s", o.Status)
	}
	if !o.AveragePrice.Equal(d("100")) {
		t.Errorf("expected avg 100, got %s", o.AveragePrice)
	}

	if err := o.ApplyFill(d("6"), d("110"), time.Now()); err != nil {
		t.Fatalf("second fill failed: %v", err)
	}
	if o.Status != OrderStatusFilled {
		t.Errorf("expected FILLED, got %s", o.Status)
	}
	// (4*100 + 6*110) / 10 = 106
	if !o.AveragePrice.Equal(d("106")) {
		t.Errorf("expected avg 106, got %s", o.AveragePrice)
	}
	if !o.RemainingQuantity().IsZero() {
		t.Errorf("expected zero remaining, got %s", o.RemainingQuantity())
	}
	if o.FilledAt.IsZero() {
		t.Error("expected FilledAt to be set")
	}
}

func TestApplyFillOverfill(t *testing.T) {
	o := &Order{Status: OrderStatusAccepted, Quantity: d("5")}

	if err := o.ApplyFill(d("6"), d("100"), time.Now()); !errors.Is(err, ErrOverfill) {
		t.Fatalf("expected ErrOverfill, got %v", err)
	}
	if !o.ExecutedQuantity.IsZero() {
		t.Errorf("overfill must not change executed quantity, got %s", o.ExecutedQuantity)
	}
}

func TestRejectIsTerminal(t *testing.T) {
	o := &Order{Status: OrderStatusAccepted}
	o.Reject("bad order")

	if o.Status != OrderStatusRejected {
		t.Fatalf("expected REJECTED, got %s", o.Status)
	}
	if o.RejectReason != "bad order" {
		t.Errorf("expected reason preserved, got %q", o.RejectReason)
	}

	// a terminal order cannot be re-rejected with a new reason
	filled := &Order{Status: OrderStatusFilled}
	filled.Reject("too late")
	if filled.Status != OrderStatusFilled {
		t.Errorf("reject must not override FILLED, got %s", filled.Status)
	}
}

func TestCanCancel(t *testing.T) {
	open := []OrderStatus{OrderStatusPendingTrigger, OrderStatusAccepted, OrderStatusPartiallyFilled}
	for _, status := range open {
		o := &Order{Status: status}
		if !o.CanCancel() {
			t.Errorf("expected %s to be cancellable", status)
		}
	}

	terminal := []OrderStatus{OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected}
	for _, status := range terminal {
		o := &Order{Status: status}
		if o.CanCancel() {
			t.Errorf("expected %s to not be cancellable", status)
		}
	}
}
