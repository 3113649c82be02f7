package order

import (
	"context"
	"errors"

	"github.com/terra-footwear/terra-stock-service/internal/model"
	"github.com/terra-footwear/terra-stock-service/internal/order/dto"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("order status transition not allowed")
)

type UseCase interface {
	// CreateOrder persists the order and reserves stock for every line.
	// When any line cannot be reserved, holds taken for earlier lines are
	// released and the order is not created.
	CreateOrder(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error)

	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)

	// UpdateStatus runs the stock trigger for the transition, then
	// persists the new status.
	UpdateStatus(ctx context.Context, id string, input *dto.UpdateStatusInput) (*model.Order, error)

	// OnOrderChange maps a status transition onto ledger movements. It is
	// idempotent: an unchanged status is a no-op.
	OnOrderChange(ctx context.Context, o *model.Order, previousStatus string) error
}
