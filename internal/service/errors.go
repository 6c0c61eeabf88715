package service

import "errors"

var (
	ErrNotFound              = errors.New("error not found")
	ErrUnsupportedInstrument = errors.New("no configured provider can handle instrument code")
	ErrInsufficientQuantity  = errors.New("insufficient quantity for sale")
)
