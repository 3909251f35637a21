package model

import "errors"

var (
	ErrIllegalTransition = errors.New("illegal order status transition")
	ErrOverfill          = errors.New("overfill")
)
