package dto

type AlertFilters struct {
	ProductID  string
	Size       string
	AlertType  string
	Priority   string
	Unresolved bool
	Page       int
	PageSize   int
}

type ResolveAlertInput struct {
	ActionTaken     string `json:"action_taken" binding:"required,oneof=restocked discontinued threshold_adjusted false_alert waiting_supplier other"`
	ResolutionNotes string `json:"resolution_notes"`
	ResolvedBy      string `json:"resolved_by"`
}
