package models

import (
	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderPaid       OrderStatus = "paid"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// CountedStatuses are the statuses that contribute to spend, points and
// achievement statistics.
var CountedStatuses = []OrderStatus{OrderCompleted, OrderDelivered}

// Counts reports whether an order in this status counts toward loyalty stats.
func (s OrderStatus) Counts() bool {
	return s == OrderCompleted || s == OrderDelivered
}

type Order struct {
	BaseModel
	UserID         uuid.UUID   `gorm:"type:uuid;index" json:"user_id"`
	User           *User       `json:"user,omitempty"`
	OrderNumber    string      `gorm:"uniqueIndex" json:"order_number"`
	Status         OrderStatus `gorm:"size:32;index" json:"status"`
	Subtotal       int64       `json:"subtotal"`
	BonusUsed      int64       `json:"bonus_used"`
	Total          int64       `json:"total"`
	Currency       string      `json:"currency"`
	DeliveryMethod string      `json:"delivery_method"`
	PaymentMethod  string      `json:"payment_method"`
	TransactionID  string      `json:"transaction_id"`
	City           string      `json:"city"`
	Address        string      `json:"address"`
	Notes          string      `json:"notes"`
	Items          []OrderItem `json:"items,omitempty"`
}

type OrderItem struct {
	BaseModel
	OrderID      uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	ProductName  string    `json:"product_name"`
	VariantLabel string    `json:"variant_label"`
	Quantity     int       `json:"quantity"`
	UnitPrice    int64     `json:"unit_price"`
	LineTotal    int64     `json:"line_total"`
}
