package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/vapeshop/internal/models"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.OrderStatus
		ok       bool
	}{
		{models.OrderPending, models.OrderPaid, true},
		{models.OrderPending, models.OrderCompleted, true},
		{models.OrderPaid, models.OrderShipped, true},
		{models.OrderShipped, models.OrderDelivered, true},
		{models.OrderDelivered, models.OrderCompleted, true},
		{models.OrderShipped, models.OrderCancelled, false},
		{models.OrderCompleted, models.OrderCancelled, false},
		{models.OrderCancelled, models.OrderPending, false},
		{models.OrderDelivered, models.OrderPending, false},
	}
	for _, tt := range tests {
		err := CanTransition(tt.from, tt.to)
		if tt.ok {
			assert.NoError(t, err, "%s -> %s", tt.from, tt.to)
		} else {
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", tt.from, tt.to)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.Empty(t, ValidTransitionsFrom(models.OrderCompleted))
	assert.Empty(t, ValidTransitionsFrom(models.OrderCancelled))
	assert.Contains(t, CanTransition(models.OrderCompleted, models.OrderPaid).Error(), "terminal")
}

func TestParseOrderStatus(t *testing.T) {
	s, ok := ParseOrderStatus(" Delivered ")
	assert.True(t, ok)
	assert.Equal(t, models.OrderDelivered, s)

	_, ok = ParseOrderStatus("lost")
	assert.False(t, ok)
}
