package alert

import (
	"context"

	"github.com/terra-footwear/terra-stock-service/internal/alert/dto"
	"github.com/terra-footwear/terra-stock-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, a *model.StockAlert) error
	FindByID(ctx context.Context, id string) (*model.StockAlert, error)

	// FindUnresolved returns the single open alert for the triple, or nil.
	FindUnresolved(ctx context.Context, productID, size, alertType string) (*model.StockAlert, error)
	ListUnresolved(ctx context.Context, productID, size string) ([]model.StockAlert, error)
	FindAll(ctx context.Context, filters *dto.AlertFilters) ([]model.StockAlert, int, error)

	Update(ctx context.Context, a *model.StockAlert) error
}
