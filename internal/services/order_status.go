package services

import (
	"fmt"
	"strings"

	"github.com/example/vapeshop/internal/models"
)

// statusTransitions is the authoritative order lifecycle. Completed and
// cancelled are terminal.
var statusTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:    {models.OrderPaid, models.OrderProcessing, models.OrderCompleted, models.OrderCancelled},
	models.OrderPaid:       {models.OrderProcessing, models.OrderShipped, models.OrderCompleted, models.OrderCancelled},
	models.OrderProcessing: {models.OrderShipped, models.OrderCompleted, models.OrderCancelled},
	models.OrderShipped:    {models.OrderDelivered, models.OrderCompleted},
	models.OrderDelivered:  {models.OrderCompleted},
}

// ValidTransitionsFrom returns the statuses an order may move to next.
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	return statusTransitions[status]
}

// CanTransition returns ErrInvalidTransition unless from -> to is allowed.
func CanTransition(from, to models.OrderStatus) error {
	for _, next := range statusTransitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s (allowed: %s)", ErrInvalidTransition, from, to, describeValidFrom(from))
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none, terminal state"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// ParseOrderStatus validates a status received from a client.
func ParseOrderStatus(value string) (models.OrderStatus, bool) {
	status := models.OrderStatus(strings.ToLower(strings.TrimSpace(value)))
	switch status {
	case models.OrderPending, models.OrderPaid, models.OrderProcessing, models.OrderShipped,
		models.OrderDelivered, models.OrderCompleted, models.OrderCancelled:
		return status, true
	}
	return "", false
}
