// Manual test client: logs on to the engine's FIX acceptor, sends a resting
// sell, a crossing buy and a stop order, and prints every execution report.
package main

import (
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/field"
	fix44nos "github.com/quickfixgo/fix44/newordersingle"
	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/quickfix/log/file"
	"github.com/quickfixgo/tag"
	"github.com/shopspring/decimal"
)

type InitiatorApp struct {
	sessionID *quickfix.SessionID
}

func (a *InitiatorApp) OnCreate(sessionID quickfix.SessionID) {
	a.sessionID = &sessionID
}

func (a *InitiatorApp) OnLogon(sessionID quickfix.SessionID) {
	log.Println("Logon success", sessionID)
	sendOrders(sessionID)
}

func (a *InitiatorApp) OnLogout(sessionID quickfix.SessionID)                       {}
func (a *InitiatorApp) ToAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) {}
func (a *InitiatorApp) ToApp(msg *quickfix.Message, sessionID quickfix.SessionID) error {
	return nil
}
func (a *InitiatorApp) FromAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	return nil
}
func (a *InitiatorApp) FromApp(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	msgType, _ := msg.Header.GetString(tag.MsgType)
	if enum.MsgType(msgType) == enum.MsgType_EXECUTION_REPORT {
		clOrdID, _ := msg.Body.GetString(tag.ClOrdID)
		ordStatus, _ := msg.Body.GetString(tag.OrdStatus)
		lastQty, _ := msg.Body.GetString(tag.LastQty)
		lastPx, _ := msg.Body.GetString(tag.LastPx)
		log.Printf("exec report: clOrdID=%s ordStatus=%s lastQty=%s lastPx=%s", clOrdID, ordStatus, lastQty, lastPx)
	}
	return nil
}

func sendOrders(sessionID quickfix.SessionID) {
	// resting sell
	sell := newOrder(enum.Side_SELL, enum.OrdType_LIMIT)
	sell.SetPrice(decimal.NewFromInt(100), 0)
	sell.SetOrderQty(decimal.NewFromInt(10), 0)
	send(sell, sessionID)

	// crossing buy, fills at the resting price
	buy := newOrder(enum.Side_BUY, enum.OrdType_LIMIT)
	buy.SetPrice(decimal.NewFromInt(101), 0)
	buy.SetOrderQty(decimal.NewFromInt(4), 0)
	send(buy, sessionID)

	// sell stop below the last trade
	stop := newOrder(enum.Side_SELL, enum.OrdType("3"))
	stop.SetStopPx(decimal.NewFromInt(95), 0)
	stop.SetOrderQty(decimal.NewFromInt(5), 0)
	send(stop, sessionID)
}

func newOrder(side enum.Side, ordType enum.OrdType) fix44nos.NewOrderSingle {
	order := fix44nos.New(
		field.NewClOrdID(randSeq(17)),
		field.NewSide(side),
		field.NewTransactTime(time.Now()),
		field.NewOrdType(ordType))
	order.SetSymbol("ABC")
	order.SetAccount("TEST-ACCT")
	return order
}

func send(order fix44nos.NewOrderSingle, sessionID quickfix.SessionID) {
	order.SetSenderCompID(sessionID.SenderCompID)
	order.SetTargetCompID(sessionID.TargetCompID)
	if err := quickfix.Send(order); err != nil {
		log.Println("send err:", err)
	}
}

func main() {
	cfgPath := os.Args[1]
	log.Println("cfgPath:", cfgPath)
	app := &InitiatorApp{}

	cfg, err := os.Open(cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	defer cfg.Close() // nolint

	settings, err := quickfix.ParseSettings(cfg)
	if err != nil {
		log.Fatal(err)
	}

	storeFactory := quickfix.NewMemoryStoreFactory()
	logFactory, _ := file.NewLogFactory(settings)
	initiator, err := quickfix.NewInitiator(app, storeFactory, settings, logFactory)
	if err != nil {
		log.Fatal(err)
	}
	if err := initiator.Start(); err != nil {
		log.Fatal(err)
	}
	log.Println("Initiator started...")
	select {}
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

func randSeq(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}
