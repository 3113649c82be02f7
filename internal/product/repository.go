package product

import (
	"context"

	"github.com/terra-footwear/terra-stock-service/internal/model"
	"github.com/terra-footwear/terra-stock-service/internal/product/dto"
)

type Repository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindBySlug(ctx context.Context, slug string) (*model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	Update(ctx context.Context, p *model.Product) error

	// Variants
	GetVariant(ctx context.Context, productID, size string) (*model.SizeVariant, error)
	UpsertVariant(ctx context.Context, v *model.SizeVariant) error

	// Stock history projection (read side; writes happen in the ledger tx)
	ListHistory(ctx context.Context, productID string, limit int) ([]model.StockHistoryEntry, error)
}
