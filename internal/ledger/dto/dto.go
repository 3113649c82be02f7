package dto

import "time"

type MovementFilters struct {
	ProductID string
	Size      string
	Type      string
	Automated *bool
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}

type ReconcileReport struct {
	ProductID   string `json:"product_id"`
	Size        string `json:"size"`
	LedgerStock int    `json:"ledger_stock"`
	LiveStock   int    `json:"live_stock"`
	Drift       int    `json:"drift"`
	InSync      bool   `json:"in_sync"`
}

type BulkRestockResult struct {
	Succeeded []string `json:"succeeded"` // movement references
	Failed    []string `json:"failed"`    // "<product_id>/<size>: <error>"
}
