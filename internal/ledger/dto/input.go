package dto

import "time"

type AppendMovementInput struct {
	ProductID         string   `json:"product_id" binding:"required"`
	Size              string   `json:"size" binding:"required"`
	Type              string   `json:"type" binding:"required"`
	Quantity          int      `json:"quantity" binding:"required"`
	Reason            string   `json:"reason" binding:"required"`
	OrderReference    string   `json:"order_reference"`
	SupplierReference string   `json:"supplier_reference"`
	UnitCost          *float64 `json:"unit_cost"`
	UserID            string   `json:"user_id"`
	Notes             string   `json:"notes"`

	// Set by the order trigger, never by manual entry.
	IsAutomated bool `json:"-"`

	// ReleaseHold converts a reservation into this physical change in the
	// same movement (confirmed-sale path): the hold is released while
	// stock is decremented, producing a single sale entry.
	ReleaseHold bool `json:"-"`

	// Date overrides the movement timestamp; zero means now.
	Date time.Time `json:"-"`
}

type RestockLine struct {
	ProductID string `json:"product_id" binding:"required"`
	Size      string `json:"size" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type BulkRestockInput struct {
	Lines             []RestockLine `json:"lines" binding:"required,min=1,dive"`
	Reason            string        `json:"reason" binding:"required"`
	SupplierReference string        `json:"supplier_reference"`
	UnitCost          *float64      `json:"unit_cost"`
	UserID            string        `json:"user_id"`
}
