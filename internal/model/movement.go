package model

import "time"

// Movement types. Physical types change the stock counter; reservation
// and release only move quantity between free and reserved and are
// recorded for audit.
const (
	MovementRestock     = "restock"
	MovementSale        = "sale"
	MovementReturn      = "return"
	MovementAdjustment  = "adjustment"
	MovementReservation = "reservation"
	MovementRelease     = "release"
	MovementLoss        = "loss"
	MovementSample      = "sample"
	MovementInitial     = "initial"
)

// MovementAffectsStock reports whether the type mutates the physical
// stock counter.
func MovementAffectsStock(movementType string) bool {
	switch movementType {
	case MovementReservation, MovementRelease:
		return false
	default:
		return true
	}
}

func IsValidMovementType(movementType string) bool {
	switch movementType {
	case MovementRestock, MovementSale, MovementReturn, MovementAdjustment,
		MovementReservation, MovementRelease, MovementLoss, MovementSample,
		MovementInitial:
		return true
	default:
		return false
	}
}

// StockMovement is one immutable ledger entry. Once written, quantity
// and the stock snapshots are never updated; corrections are new entries.
type StockMovement struct {
	ID                string    `db:"id" json:"id"`
	Reference         string    `db:"reference" json:"reference"`
	Date              time.Time `db:"date" json:"date"`
	Type              string    `db:"type" json:"type"`
	ProductID         string    `db:"product_id" json:"product_id"`
	Size              string    `db:"size" json:"size"`
	Quantity          int       `db:"quantity" json:"quantity"`
	StockBefore       int       `db:"stock_before" json:"stock_before"`
	StockAfter        int       `db:"stock_after" json:"stock_after"`
	Reason            string    `db:"reason" json:"reason"`
	OrderReference    *string   `db:"order_reference" json:"order_reference,omitempty"`
	SupplierReference *string   `db:"supplier_reference" json:"supplier_reference,omitempty"`
	UnitCost          *float64  `db:"unit_cost" json:"unit_cost,omitempty"`
	TotalCost         *float64  `db:"total_cost" json:"total_cost,omitempty"`
	UserID            *string   `db:"user_id" json:"user_id,omitempty"`
	Notes             string    `db:"notes" json:"notes,omitempty"`
	IsAutomated       bool      `db:"is_automated" json:"is_automated"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}
