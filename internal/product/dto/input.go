package dto

type SizeInput struct {
	Size              string `json:"size" binding:"required"`
	Stock             int    `json:"stock" binding:"min=0"`
	LowStockThreshold *int   `json:"low_stock_threshold,omitempty"`
}

type CreateProductInput struct {
	Title            string      `json:"title" binding:"required"`
	Slug             string      `json:"slug"`
	Collection       string      `json:"collection" binding:"required,oneof=origin move limited"`
	Price            float64     `json:"price" binding:"required,gt=0"`
	ShortDescription string      `json:"short_description" binding:"required"`
	IsFeatured       bool        `json:"is_featured"`
	IsNewArrival     bool        `json:"is_new_arrival"`
	Sizes            []SizeInput `json:"sizes" binding:"required,min=1,dive"`
}

type UpdateProductInput struct {
	Title            *string  `json:"title,omitempty"`
	Collection       *string  `json:"collection,omitempty"`
	Price            *float64 `json:"price,omitempty"`
	ShortDescription *string  `json:"short_description,omitempty"`
	IsFeatured       *bool    `json:"is_featured,omitempty"`
	IsNewArrival     *bool    `json:"is_new_arrival,omitempty"`

	// Administrative variant edits: threshold changes and adding sizes.
	// Counter changes go through the movement ledger, never through here.
	Sizes []SizeInput `json:"sizes,omitempty"`
}
