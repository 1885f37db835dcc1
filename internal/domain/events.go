package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced   = "order_placed"
	EventStatusChanged = "status_changed"
)

// OrderEvent is the message published to the orders topic whenever an order
// is placed or changes status. The aggregation consumer folds these into the
// Redis rollups behind the statistics fast path.
type OrderEvent struct {
	Type         string           `json:"type"`
	OrderID      int              `json:"order_id"`
	RestaurantID int              `json:"restaurant_id"`
	Status       OrderStatus      `json:"status"`
	Total        decimal.Decimal  `json:"total"`
	Lines        []OrderEventLine `json:"lines,omitempty"`
	Timestamp    time.Time        `json:"timestamp"`
}

type OrderEventLine struct {
	ProductID int             `json:"product_id"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}
