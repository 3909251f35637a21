// Package fixgateway exposes the matching engine over FIX 4.4. Sessions submit
// NewOrderSingle and OrderCancelRequest messages and receive execution reports
// for every acknowledgement, fill, cancel and reject.
package fixgateway

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/quickfix"
	"go.uber.org/zap"

	"github.com/joripage/matching-engine/pkg/engine"
	"github.com/joripage/matching-engine/pkg/engine/model"
)

type FixGatewayConfig struct {
	ConfigFilepath string
}

// FixGateway bridges FIX sessions and the engine. It owns the ClOrdID to
// engine OrderID mapping; the engine itself never sees FIX identifiers.
type FixGateway struct {
	cfg       *FixGatewayConfig
	app       *Application
	submitter engine.OrderSubmitter

	// orderID -> *orderSession
	orders sync.Map
	// clOrdID -> orderID
	clOrdIDs sync.Map
}

// orderSession remembers where an order came from so reports can be routed
// back to the owning session.
type orderSession struct {
	clOrdID     string
	origClOrdID string
	account     string
	symbol      string
	sessionID   quickfix.SessionID
}

func NewFixGateway(cfg *FixGatewayConfig, submitter engine.OrderSubmitter) *FixGateway {
	return &FixGateway{
		cfg:       cfg,
		submitter: submitter,
	}
}

func (g *FixGateway) Start(ctx context.Context) error {
	app, err := startApp(g.cfg.ConfigFilepath, g)
	if err != nil {
		zap.S().Errorw("start fix acceptor failed", "err", err)
		return err
	}
	g.app = app
	return nil
}

func (g *FixGateway) Stop() {
	if g.app != nil {
		stopApp(g.app)
	}
}

// AddOrder translates a NewOrderSingle into an engine order, submits it and
// reports the outcome back on the originating session.
func (g *FixGateway) AddOrder(ctx context.Context, nos *NewOrderSingle) {
	orderType, ok := orderTypeFromFix(nos.OrdType)
	if !ok {
		g.sendReject(nos, "Unsupported order type")
		return
	}

	side, ok := map[enum.Side]model.OrderSide{
		enum.Side_BUY:  model.OrderSideBuy,
		enum.Side_SELL: model.OrderSideSell,
	}[nos.Side]
	if !ok {
		g.sendReject(nos, "Unsupported side")
		return
	}

	order := &model.Order{
		OrderID:    uuid.NewString(),
		Symbol:     nos.Symbol,
		Side:       side,
		Type:       orderType,
		Quantity:   nos.OrderQty,
		LimitPrice: nos.Price,
		StopPrice:  nos.StopPx,
	}

	sess := &orderSession{
		clOrdID:   nos.ClOrdID,
		account:   nos.Account,
		symbol:    nos.Symbol,
		sessionID: nos.SessionID,
	}
	g.orders.Store(order.OrderID, sess)
	g.clOrdIDs.Store(nos.ClOrdID, order.OrderID)

	reports, err := g.submitter.SubmitOrder(ctx, order)
	if err != nil && !errors.Is(err, engine.ErrNoLiquidity) {
		zap.S().Errorw("submit order failed", "order_id", order.OrderID, "err", err)
	}

	// Acknowledgement (or reject) first, then one report per fill.
	g.sendOrderStatus(order, sess)
	for _, report := range reports {
		g.sendFill(report)
	}
}

// CancelOrder resolves the OrigClOrdID and asks the engine to cancel. An
// unknown or no-op cancel gets an OrderCancelReject.
func (g *FixGateway) CancelOrder(ctx context.Context, req *OrderCancelRequest) {
	orderID, ok := g.lookupOrderID(req.OrigClOrdID)
	if !ok {
		g.sendCancelReject(req, "Unknown original order")
		return
	}

	sess, ok := g.sessionFor(orderID)
	if !ok {
		g.sendCancelReject(req, "Unknown original order")
		return
	}

	cancelled, err := g.submitter.CancelOrder(ctx, orderID, sess.symbol)
	if err != nil {
		zap.S().Errorw("cancel order failed", "order_id", orderID, "err", err)
		g.sendCancelReject(req, "Cancel failed")
		return
	}
	if !cancelled {
		g.sendCancelReject(req, "Order not open")
		return
	}

	sess.origClOrdID = req.OrigClOrdID
	sess.clOrdID = req.ClOrdID
	g.sendCancelled(orderID, sess)
}

func (g *FixGateway) lookupOrderID(clOrdID string) (string, bool) {
	v, ok := g.clOrdIDs.Load(clOrdID)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (g *FixGateway) sessionFor(orderID string) (*orderSession, bool) {
	v, ok := g.orders.Load(orderID)
	if !ok {
		return nil, false
	}
	return v.(*orderSession), true
}

func orderTypeFromFix(t enum.OrdType) (model.OrderType, bool) {
	switch t {
	case enum.OrdType_MARKET:
		return model.OrderTypeMarket, true
	case enum.OrdType_LIMIT:
		return model.OrderTypeLimit, true
	case ordTypeStop:
		return model.OrderTypeStop, true
	case ordTypeStopLimit:
		return model.OrderTypeStopLimit, true
	}
	return "", false
}
