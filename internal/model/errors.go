package model

import "errors"

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrCurrencyMismatch = errors.New("currency mismatch")
)
