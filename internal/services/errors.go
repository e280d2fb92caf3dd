package services

import (
	"errors"
	"fmt"
)

// ErrValidation marks input the caller can fix. Every more specific
// validation error below wraps it.
var ErrValidation = errors.New("validation failed")

var (
	ErrInvalidAmount      = fmt.Errorf("%w: bonus amount must be positive", ErrValidation)
	ErrInvalidEmail       = fmt.Errorf("%w: invalid email", ErrValidation)
	ErrSelfReferral       = fmt.Errorf("%w: cannot refer yourself", ErrValidation)
	ErrEmptyOrder         = fmt.Errorf("%w: order has no items", ErrValidation)
	ErrInvalidItem        = fmt.Errorf("%w: invalid order item", ErrValidation)
	ErrInvalidTransition  = fmt.Errorf("%w: order status transition not allowed", ErrValidation)
	ErrUnsupportedPayment = fmt.Errorf("%w: unsupported payment method", ErrValidation)
)

// ErrPaymentDeclined is returned when the payment gateway rejects a capture.
var ErrPaymentDeclined = errors.New("payment declined")
