package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/example/vapeshop/internal/models"
)

// Payment methods accepted at checkout.
const (
	PaymentCash = "cash"
	PaymentCard = "card"
)

// PaymentGateway captures the money part of an order total.
type PaymentGateway interface {
	// Capture charges order.Total and returns the provider's transaction id.
	// Cash orders are settled on delivery and return an empty id.
	Capture(ctx context.Context, order *models.Order, cardToken string) (string, error)
}

// StubGateway stands in for the card processor: card payments succeed
// whenever a token is present.
type StubGateway struct{}

func (StubGateway) Capture(ctx context.Context, order *models.Order, cardToken string) (string, error) {
	switch order.PaymentMethod {
	case PaymentCash:
		return "", nil
	case PaymentCard:
		if cardToken == "" {
			return "", fmt.Errorf("%w: missing card token", ErrPaymentDeclined)
		}
		return "stub-" + uuid.NewString(), nil
	}
	return "", fmt.Errorf("%w: unsupported payment method %q", ErrPaymentDeclined, order.PaymentMethod)
}
