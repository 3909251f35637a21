package fixgateway

import (
	"time"

	"github.com/google/uuid"
	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/field"
	"github.com/quickfixgo/fix44/executionreport"
	"github.com/quickfixgo/fix44/ordercancelreject"
	"github.com/quickfixgo/quickfix"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/joripage/matching-engine/pkg/engine/model"
)

// FIX OrdType values 3 and 4 (stop, stop limit).
const (
	ordTypeStop      enum.OrdType = "3"
	ordTypeStopLimit enum.OrdType = "4"
)

const qtyScale = 8

var ordStatusMapping = map[model.OrderStatus]enum.OrdStatus{
	model.OrderStatusPendingTrigger:  enum.OrdStatus_PENDING_NEW,
	model.OrderStatusAccepted:        enum.OrdStatus_NEW,
	model.OrderStatusPartiallyFilled: enum.OrdStatus_PARTIALLY_FILLED,
	model.OrderStatusFilled:          enum.OrdStatus_FILLED,
	model.OrderStatusCancelled:       enum.OrdStatus_CANCELED,
	model.OrderStatusRejected:        enum.OrdStatus_REJECTED,
}

var execTypeMapping = map[model.OrderStatus]enum.ExecType{
	model.OrderStatusPendingTrigger:  enum.ExecType_PENDING_NEW,
	model.OrderStatusAccepted:        enum.ExecType_NEW,
	model.OrderStatusPartiallyFilled: enum.ExecType_TRADE,
	model.OrderStatusFilled:          enum.ExecType_TRADE,
	model.OrderStatusCancelled:       enum.ExecType_CANCELED,
	model.OrderStatusRejected:        enum.ExecType_REJECTED,
}

// sendOrderStatus acknowledges a submit with the order's post-match state.
func (g *FixGateway) sendOrderStatus(order *model.Order, sess *orderSession) {
	msg := executionreport.New(
		field.NewOrderID(order.OrderID),
		field.NewExecID(newExecID()),
		field.NewExecType(execTypeMapping[order.Status]),
		field.NewOrdStatus(ordStatusMapping[order.Status]),
		field.NewSide(sideToFix(order.Side)),
		field.NewLeavesQty(leavesQty(order), qtyScale),
		field.NewCumQty(order.ExecutedQuantity, qtyScale),
		field.NewAvgPx(order.AveragePrice, qtyScale),
	)

	msg.SetClOrdID(sess.clOrdID)
	msg.SetSymbol(order.Symbol)
	msg.SetOrderQty(order.Quantity, qtyScale)
	msg.SetTransactTime(time.Now().UTC())
	if sess.account != "" {
		msg.SetAccount(sess.account)
	}
	if !order.LimitPrice.IsZero() {
		msg.SetPrice(order.LimitPrice, qtyScale)
	}
	if !order.StopPrice.IsZero() {
		msg.SetStopPx(order.StopPrice, qtyScale)
	}
	if order.Status == model.OrderStatusRejected {
		msg.SetText(order.RejectReason)
	}

	sendToSession(msg.ToMessage(), sess.sessionID)
}

// sendFill routes a trade report to the session that owns the filled order.
func (g *FixGateway) sendFill(report *model.ExecutionReport) {
	sess, ok := g.sessionFor(report.OrderID)
	if !ok {
		return
	}

	ordStatus := ordStatusMapping[report.OrderStatus]
	msg := executionreport.New(
		field.NewOrderID(report.OrderID),
		field.NewExecID(report.ExecutionID),
		field.NewExecType(enum.ExecType_TRADE),
		field.NewOrdStatus(ordStatus),
		field.NewSide(sideToFix(report.Side)),
		field.NewLeavesQty(report.RemainingQuantity, qtyScale),
		field.NewCumQty(report.CumulativeQuantity, qtyScale),
		field.NewAvgPx(report.AveragePrice, qtyScale),
	)

	msg.SetClOrdID(sess.clOrdID)
	msg.SetSymbol(report.Symbol)
	msg.SetLastQty(report.Quantity, qtyScale)
	msg.SetLastPx(report.Price, qtyScale)
	msg.SetTransactTime(report.ExecutedAt)
	if sess.account != "" {
		msg.SetAccount(sess.account)
	}

	sendToSession(msg.ToMessage(), sess.sessionID)
}

// sendReject answers a NewOrderSingle the gateway could not even translate.
func (g *FixGateway) sendReject(nos *NewOrderSingle, reason string) {
	msg := executionreport.New(
		field.NewOrderID("NONE"),
		field.NewExecID(newExecID()),
		field.NewExecType(enum.ExecType_REJECTED),
		field.NewOrdStatus(enum.OrdStatus_REJECTED),
		field.NewSide(nos.Side),
		field.NewLeavesQty(decimal.Zero, qtyScale),
		field.NewCumQty(decimal.Zero, qtyScale),
		field.NewAvgPx(decimal.Zero, qtyScale),
	)

	msg.SetClOrdID(nos.ClOrdID)
	msg.SetSymbol(nos.Symbol)
	msg.SetOrderQty(nos.OrderQty, qtyScale)
	msg.SetTransactTime(time.Now().UTC())
	msg.SetText(reason)

	sendToSession(msg.ToMessage(), nos.SessionID)
}

func (g *FixGateway) sendCancelled(orderID string, sess *orderSession) {
	msg := executionreport.New(
		field.NewOrderID(orderID),
		field.NewExecID(newExecID()),
		field.NewExecType(enum.ExecType_CANCELED),
		field.NewOrdStatus(enum.OrdStatus_CANCELED),
		field.NewSide(enum.Side_BUY),
		field.NewLeavesQty(decimal.Zero, qtyScale),
		field.NewCumQty(decimal.Zero, qtyScale),
		field.NewAvgPx(decimal.Zero, qtyScale),
	)

	msg.SetClOrdID(sess.clOrdID)
	msg.SetOrigClOrdID(sess.origClOrdID)
	msg.SetTransactTime(time.Now().UTC())

	sendToSession(msg.ToMessage(), sess.sessionID)
}

func (g *FixGateway) sendCancelReject(req *OrderCancelRequest, reason string) {
	msg := ordercancelreject.New(
		field.NewOrderID("NONE"),
		field.NewClOrdID(req.ClOrdID),
		field.NewOrigClOrdID(req.OrigClOrdID),
		field.NewOrdStatus(enum.OrdStatus_REJECTED),
		field.NewCxlRejResponseTo(enum.CxlRejResponseTo_ORDER_CANCEL_REQUEST),
	)
	msg.SetText(reason)

	sendToSession(msg.ToMessage(), req.SessionID)
}

func sendToSession(msg *quickfix.Message, sessionID quickfix.SessionID) {
	if err := quickfix.SendToTarget(msg, sessionID); err != nil {
		zap.S().Errorw("send to target failed", "session", sessionID.String(), "err", err)
	}
}

func newExecID() string {
	return uuid.NewString()
}

func sideToFix(side model.OrderSide) enum.Side {
	if side == model.OrderSideSell {
		return enum.Side_SELL
	}
	return enum.Side_BUY
}

func leavesQty(order *model.Order) decimal.Decimal {
	if order.IsTerminal() {
		return decimal.Zero
	}
	return order.RemainingQuantity()
}
