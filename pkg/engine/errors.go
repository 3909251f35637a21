package engine

import "errors"

var (
	ErrInvalidOrder = errors.New("invalid order")
	ErrNoLiquidity  = errors.New("no liquidity available")
	ErrStorage      = errors.New("order store failure")
)

const reasonNoLiquidity = "No liquidity available"
