package model

import "time"

// Product lines carried by the storefront.
const (
	CollectionOrigin  = "origin"
	CollectionMove    = "move"
	CollectionLimited = "limited"
)

// ValidSizes is the fixed run of shoe sizes a product can carry.
var ValidSizes = []string{"36", "37", "38", "39", "40", "41", "42", "43", "44", "45", "46"}

func IsValidSize(size string) bool {
	for _, s := range ValidSizes {
		if s == size {
			return true
		}
	}
	return false
}

type Product struct {
	BaseModel
	Title            string              `db:"title" json:"title"`
	Slug             string              `db:"slug" json:"slug"`
	Collection       string              `db:"collection" json:"collection"`
	Price            float64             `db:"price" json:"price"`
	ShortDescription string              `db:"short_description" json:"short_description"`
	IsFeatured       bool                `db:"is_featured" json:"is_featured"`
	IsNewArrival     bool                `db:"is_new_arrival" json:"is_new_arrival"`
	Sizes            []SizeVariant       `db:"-" json:"sizes"`
	StockHistory     []StockHistoryEntry `db:"-" json:"stock_history,omitempty"`
}

// Variant returns the size variant for the given size, or nil.
func (p *Product) Variant(size string) *SizeVariant {
	for i := range p.Sizes {
		if p.Sizes[i].Size == size {
			return &p.Sizes[i]
		}
	}
	return nil
}

// SizeVariant carries the stock counters for one (product, size) pair.
// AvailableStock, IsLowStock and IsOutOfStock are derived; the accounting
// engine recomputes them on every write and they are never authoritative.
type SizeVariant struct {
	ProductID         string    `db:"product_id" json:"-"`
	Size              string    `db:"size" json:"size"`
	Stock             int       `db:"stock" json:"stock"`
	ReservedStock     int       `db:"reserved_stock" json:"reserved_stock"`
	AvailableStock    int       `db:"available_stock" json:"available_stock"`
	LowStockThreshold int       `db:"low_stock_threshold" json:"low_stock_threshold"`
	IsLowStock        bool      `db:"is_low_stock" json:"is_low_stock"`
	IsOutOfStock      bool      `db:"is_out_of_stock" json:"is_out_of_stock"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// StockHistoryEntry is the denormalized per-product copy of a movement,
// kept for fast reads. The movement ledger stays authoritative; this
// projection can be rebuilt from it at any time.
type StockHistoryEntry struct {
	ID        string    `db:"id" json:"id"`
	ProductID string    `db:"product_id" json:"-"`
	Date      time.Time `db:"date" json:"date"`
	Type      string    `db:"type" json:"type"`
	Size      string    `db:"size" json:"size"`
	Quantity  int       `db:"quantity" json:"quantity"`
	Reason    string    `db:"reason" json:"reason"`
	Reference string    `db:"reference" json:"reference"`
}
