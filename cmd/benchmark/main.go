package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joripage/matching-engine/pkg/engine"
	"github.com/joripage/matching-engine/pkg/engine/model"
	"github.com/joripage/matching-engine/pkg/engine/sink"
	"github.com/joripage/matching-engine/pkg/engine/store"
)

const (
	numOrders = 1_000_000
	minPrice  = 100.0
	maxPrice  = 200.0
	minQty    = 1
	maxQty    = 100
)

func randomOrder(id int) *model.Order {
	side := model.OrderSideBuy
	if rand.Intn(2) == 0 {
		side = model.OrderSideSell
	}
	price := minPrice + rand.Float64()*(maxPrice-minPrice)
	qty := rand.Intn(maxQty-minQty+1) + minQty

	return &model.Order{
		OrderID:    fmt.Sprintf("ORD-%06d", id),
		Symbol:     "ABC",
		Side:       side,
		Type:       model.OrderTypeLimit,
		LimitPrice: decimal.NewFromFloat(price).Round(2),
		Quantity:   decimal.NewFromInt(int64(qty)),
	}
}

func main() {
	ctx := context.Background()

	executions := sink.NewMemoryExecutionSink()
	eng := engine.New(store.NewMemoryOrderStore(), executions, sink.NopMarketDataSink{})

	totalMatched := 0
	totalQty := decimal.Zero

	start := time.Now()
	for i := 0; i < numOrders; i++ {
		order := randomOrder(i + 1)
		reports, _ := eng.SubmitOrder(ctx, order)
		for _, r := range reports {
			totalMatched++
			totalQty = totalQty.Add(r.Quantity)
		}
	}
	elapsed := time.Since(start)

	fmt.Println("--------")
	fmt.Printf("Total Orders     : %d\n", numOrders)
	fmt.Printf("Total Matches    : %d\n", totalMatched)
	fmt.Printf("Total Matched Qty: %s\n", totalQty)
	fmt.Printf("Time Taken       : %s\n", elapsed)
	fmt.Printf("Orders/sec       : %.0f\n", float64(numOrders)/elapsed.Seconds())
}
