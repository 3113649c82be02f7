package alert

import (
	"context"
	"errors"

	"github.com/terra-footwear/terra-stock-service/internal/alert/dto"
	"github.com/terra-footwear/terra-stock-service/internal/model"
)

// ErrAlreadyResolved rejects resolving a terminal alert; a recurring
// condition opens a fresh alert instead of reopening the old one.
var ErrAlreadyResolved = errors.New("alert: already resolved")

var ErrNotFound = errors.New("alert: not found")

type UseCase interface {
	// Evaluate inspects every size variant of the product after a save,
	// opening missing alerts and auto-resolving recovered ones.
	Evaluate(ctx context.Context, p *model.Product) error

	// RaiseDrift flags a divergence between the ledger replay and the
	// live stock counter found by reconciliation.
	RaiseDrift(ctx context.Context, p *model.Product, size string, ledgerStock, liveStock int) error

	// RaiseInvariantViolation flags reservedStock exceeding physical
	// stock, a data-integrity breach the accounting engine clamps but
	// never silently accepts.
	RaiseInvariantViolation(ctx context.Context, p *model.Product, size string, stock, reserved int) error

	ListAlerts(ctx context.Context, filters *dto.AlertFilters) ([]model.StockAlert, int, error)
	Resolve(ctx context.Context, id string, input *dto.ResolveAlertInput) (*model.StockAlert, error)
}
