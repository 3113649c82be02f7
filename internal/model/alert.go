package model

import "time"

const (
	AlertLowStock          = "low_stock"
	AlertOutOfStock        = "out_of_stock"
	AlertOverstock         = "overstock"
	AlertRestockSuggestion = "restock_suggestion"
	AlertStockDrift        = "stock_drift"
)

const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

const (
	ActionRestocked         = "restocked"
	ActionDiscontinued      = "discontinued"
	ActionThresholdAdjusted = "threshold_adjusted"
	ActionFalseAlert        = "false_alert"
	ActionWaitingSupplier   = "waiting_supplier"
	ActionOther             = "other"
)

// StockAlert is a resolvable notification that a threshold condition was
// met. At most one unresolved alert exists per (product, size, type);
// resolved alerts are terminal and a recurrence creates a new row.
type StockAlert struct {
	ID                string     `db:"id" json:"id"`
	Reference         string     `db:"reference" json:"reference"`
	AlertType         string     `db:"alert_type" json:"alert_type"`
	Priority          string     `db:"priority" json:"priority"`
	ProductID         string     `db:"product_id" json:"product_id"`
	Size              string     `db:"size" json:"size"`
	CurrentStock      int        `db:"current_stock" json:"current_stock"`
	Threshold         int        `db:"threshold" json:"threshold"`
	SuggestedQuantity int        `db:"suggested_quantity" json:"suggested_quantity"`
	Message           string     `db:"message" json:"message"`
	IsResolved        bool       `db:"is_resolved" json:"is_resolved"`
	ResolvedAt        *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	ResolvedBy        *string    `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolutionNotes   string     `db:"resolution_notes" json:"resolution_notes,omitempty"`
	ActionTaken       string     `db:"action_taken" json:"action_taken,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}
