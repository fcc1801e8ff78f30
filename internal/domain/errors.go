package domain

import "errors"

var (
	ErrRateLimited   = errors.New("rate limited")
	ErrNonceRejected = errors.New("nonce rejected")
	ErrOrderNotFound = errors.New("order not found")
	ErrOrderFinal    = errors.New("order already filled or killed")
	ErrInvalidOrder  = errors.New("invalid order parameters")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNoFxRate      = errors.New("fx rate unavailable")
)
