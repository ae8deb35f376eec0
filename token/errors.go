package token

import "errors"

var (
	ErrInsufficientBalance = errors.New("InsufficientBalance")
	ErrInvalidAmount       = errors.New("InvalidAmount")
	ErrInvalidAddress      = errors.New("InvalidAddress")
)
