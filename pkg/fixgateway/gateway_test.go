package fixgateway

import (
	"context"
	"testing"

	"github.com/quickfixgo/enum"
	"github.com/shopspring/decimal"

	"github.com/joripage/matching-engine/pkg/engine/model"
)

type fakeSubmitter struct {
	submitted []*model.Order
	cancelled []string
	cancelOK  bool
}

func (s *fakeSubmitter) SubmitOrder(_ context.Context, order *model.Order) ([]*model.ExecutionReport, error) {
	order.Status = model.OrderStatusAccepted
	s.submitted = append(s.submitted, order)
	return nil, nil
}

func (s *fakeSubmitter) CancelOrder(_ context.Context, orderID, _ string) (bool, error) {
	s.cancelled = append(s.cancelled, orderID)
	return s.cancelOK, nil
}

func newTestGateway() (*FixGateway, *fakeSubmitter) {
	sub := &fakeSubmitter{cancelOK: true}
	return NewFixGateway(&FixGatewayConfig{}, sub), sub
}

func TestAddOrderMapsFields(t *testing.T) {
	g, sub := newTestGateway()

	g.AddOrder(context.Background(), &NewOrderSingle{
		ClOrdID:  "C1",
		Symbol:   "ABC",
		Side:     enum.Side_BUY,
		OrdType:  enum.OrdType_LIMIT,
		Price:    decimal.NewFromInt(100),
		OrderQty: decimal.NewFromInt(10),
	})

	if len(sub.submitted) != 1 {
		t.Fatalf("expected 1 submit, got %d", len(sub.submitted))
	}
	order := sub.submitted[0]
	if order.Symbol != "ABC" || order.Side != model.OrderSideBuy || order.Type != model.OrderTypeLimit {
		t.Errorf("bad mapping: %+v", order)
	}
	if !order.LimitPrice.Equal(decimal.NewFromInt(100)) || !order.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("bad price/qty: %+v", order)
	}
	if order.OrderID == "" || order.OrderID == "C1" {
		t.Errorf("expected a generated engine order ID, got %q", order.OrderID)
	}
}

func TestAddOrderMapsStopTypes(t *testing.T) {
	g, sub := newTestGateway()

	g.AddOrder(context.Background(), &NewOrderSingle{
		ClOrdID:  "C1",
		Symbol:   "ABC",
		Side:     enum.Side_SELL,
		OrdType:  ordTypeStop,
		StopPx:   decimal.NewFromInt(95),
		OrderQty: decimal.NewFromInt(10),
	})
	g.AddOrder(context.Background(), &NewOrderSingle{
		ClOrdID:  "C2",
		Symbol:   "ABC",
		Side:     enum.Side_SELL,
		OrdType:  ordTypeStopLimit,
		StopPx:   decimal.NewFromInt(95),
		Price:    decimal.NewFromInt(94),
		OrderQty: decimal.NewFromInt(10),
	})

	if len(sub.submitted) != 2 {
		t.Fatalf("expected 2 submits, got %d", len(sub.submitted))
	}
	if sub.submitted[0].Type != model.OrderTypeStop {
		t.Errorf("expected STOP, got %s", sub.submitted[0].Type)
	}
	if !sub.submitted[0].StopPrice.Equal(decimal.NewFromInt(95)) {
		t.Errorf("stop price lost: %+v", sub.submitted[0])
	}
	if sub.submitted[1].Type != model.OrderTypeStopLimit {
		t.Errorf("expected STOP_LIMIT, got %s", sub.submitted[1].Type)
	}
}

func TestAddOrderRejectsUnknownType(t *testing.T) {
	g, sub := newTestGateway()

	g.AddOrder(context.Background(), &NewOrderSingle{
		ClOrdID:  "C1",
		Symbol:   "ABC",
		Side:     enum.Side_BUY,
		OrdType:  enum.OrdType("Z"),
		OrderQty: decimal.NewFromInt(10),
	})

	if len(sub.submitted) != 0 {
		t.Fatalf("unsupported type must not reach the engine, got %d submits", len(sub.submitted))
	}
}

func TestCancelOrderResolvesOrigClOrdID(t *testing.T) {
	g, sub := newTestGateway()

	g.AddOrder(context.Background(), &NewOrderSingle{
		ClOrdID:  "C1",
		Symbol:   "ABC",
		Side:     enum.Side_BUY,
		OrdType:  enum.OrdType_LIMIT,
		Price:    decimal.NewFromInt(100),
		OrderQty: decimal.NewFromInt(10),
	})
	orderID := sub.submitted[0].OrderID

	g.CancelOrder(context.Background(), &OrderCancelRequest{
		ClOrdID:     "C2",
		OrigClOrdID: "C1",
		Symbol:      "ABC",
	})

	if len(sub.cancelled) != 1 || sub.cancelled[0] != orderID {
		t.Errorf("expected cancel of %s, got %+v", orderID, sub.cancelled)
	}
}

func TestCancelUnknownOrigClOrdID(t *testing.T) {
	g, sub := newTestGateway()

	g.CancelOrder(context.Background(), &OrderCancelRequest{
		ClOrdID:     "C2",
		OrigClOrdID: "missing",
	})

	if len(sub.cancelled) != 0 {
		t.Errorf("unknown OrigClOrdID must not reach the engine, got %+v", sub.cancelled)
	}
}

func TestStatusMappingsCoverLifecycle(t *testing.T) {
	statuses := []model.OrderStatus{
		model.OrderStatusPendingTrigger,
		model.OrderStatusAccepted,
		model.OrderStatusPartiallyFilled,
		model.OrderStatusFilled,
		model.OrderStatusCancelled,
		model.OrderStatusRejected,
	}
	for _, status := range statuses {
		if _, ok := ordStatusMapping[status]; !ok {
			t.Errorf("no OrdStatus mapping for %s", status)
		}
		if _, ok := execTypeMapping[status]; !ok {
			t.Errorf("no ExecType mapping for %s", status)
		}
	}
}
