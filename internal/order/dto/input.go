package dto

type OrderItemInput struct {
	ProductID string `json:"product_id" binding:"required"`
	Size      string `json:"size" binding:"required"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type CreateOrderInput struct {
	CustomerEmail  string           `json:"customer_email" binding:"required,email"`
	Items          []OrderItemInput `json:"items" binding:"required,min=1,dive"`
	ShippingCost   float64          `json:"shipping_cost" binding:"gte=0"`
	TaxAmount      float64          `json:"tax_amount" binding:"gte=0"`
	DiscountAmount float64          `json:"discount_amount" binding:"gte=0"`
	Notes          string           `json:"notes"`

	// Status defaults to pending. A confirmed order skips the hold phase
	// and decrements stock directly.
	Status string `json:"status" binding:"omitempty,oneof=pending confirmed"`
}

type UpdateStatusInput struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed preparing shipped delivered cancelled refunded"`
	UserID string `json:"user_id"`
}
