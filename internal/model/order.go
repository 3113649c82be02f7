package model

const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderPreparing = "preparing"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
	OrderRefunded  = "refunded"
)

func IsValidOrderStatus(status string) bool {
	switch status {
	case OrderPending, OrderConfirmed, OrderPreparing, OrderShipped,
		OrderDelivered, OrderCancelled, OrderRefunded:
		return true
	default:
		return false
	}
}

// OrderHoldsStock reports whether an order in this status has already
// converted its reservation into a physical stock decrement.
func OrderHoldsStock(status string) bool {
	switch status {
	case OrderConfirmed, OrderPreparing, OrderShipped, OrderDelivered:
		return true
	default:
		return false
	}
}

// OrderTransitionAllowed reports whether an order may move from one
// status to the other. Pending must pass through confirmed before any
// fulfilment status, so the hold-to-sale conversion can never be
// skipped. Repeating the current status is allowed (idempotent no-op);
// cancelled and refunded are terminal.
func OrderTransitionAllowed(from, to string) bool {
	if from == to {
		return true
	}
	switch from {
	case OrderPending:
		return to == OrderConfirmed || to == OrderCancelled || to == OrderRefunded
	case OrderConfirmed:
		return to == OrderPreparing || to == OrderShipped || to == OrderDelivered ||
			to == OrderCancelled || to == OrderRefunded
	case OrderPreparing:
		return to == OrderShipped || to == OrderDelivered ||
			to == OrderCancelled || to == OrderRefunded
	case OrderShipped:
		return to == OrderDelivered || to == OrderCancelled || to == OrderRefunded
	case OrderDelivered:
		return to == OrderRefunded
	default:
		return false
	}
}

type Order struct {
	BaseModel
	OrderNumber    string      `db:"order_number" json:"order_number"`
	Status         string      `db:"status" json:"status"`
	CustomerEmail  string      `db:"customer_email" json:"customer_email"`
	Subtotal       float64     `db:"subtotal" json:"subtotal"`
	ShippingCost   float64     `db:"shipping_cost" json:"shipping_cost"`
	TaxAmount      float64     `db:"tax_amount" json:"tax_amount"`
	DiscountAmount float64     `db:"discount_amount" json:"discount_amount"`
	Total          float64     `db:"total" json:"total"`
	Notes          string      `db:"notes" json:"notes,omitempty"`
	Items          []OrderItem `db:"-" json:"items"`
}

type OrderItem struct {
	ID         string  `db:"id" json:"id"`
	OrderID    string  `db:"order_id" json:"-"`
	ProductID  string  `db:"product_id" json:"product_id"`
	Size       string  `db:"size" json:"size"`
	Color      string  `db:"color" json:"color"`
	Quantity   int     `db:"quantity" json:"quantity"`
	UnitPrice  float64 `db:"unit_price" json:"unit_price"`
	TotalPrice float64 `db:"total_price" json:"total_price"`
}
