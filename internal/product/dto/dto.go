package dto

type ProductFilters struct {
	Collection   string
	SearchQuery  string
	IsFeatured   *bool
	IsNewArrival *bool
	Page         int
	PageSize     int
}
