package dto

import "time"

type OrderFilters struct {
	Status        string
	CustomerEmail string
	Page          int
	PageSize      int
}

// OrderChangedEvent is the shape consumed from the orders topic. The
// producer publishes one event per status transition.
type OrderChangedEvent struct {
	OrderID        string    `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	OccurredAt     time.Time `json:"occurred_at"`
}
