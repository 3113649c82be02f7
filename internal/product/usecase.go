package product

import (
	"context"
	"encoding/json"

	"github.com/terra-footwear/terra-stock-service/internal/model"
	"github.com/terra-footwear/terra-stock-service/internal/product/dto"
)

type UseCase interface {
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	UpdateProduct(ctx context.Context, id string, input *dto.UpdateProductInput) (*model.Product, error)
	SearchProducts(ctx context.Context, query string, limit int) ([]json.RawMessage, error)

	GetStock(ctx context.Context, id string) ([]model.SizeVariant, error)
	GetStockHistory(ctx context.Context, id string, limit int) ([]model.StockHistoryEntry, error)
}
