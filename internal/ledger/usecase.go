package ledger

import (
	"context"

	"github.com/terra-footwear/terra-stock-service/internal/ledger/dto"
	"github.com/terra-footwear/terra-stock-service/internal/model"
)

// UseCase is the single sanctioned write path for stock. Every change to
// a variant's counters, automated or manual, goes through Append.
type UseCase interface {
	Append(ctx context.Context, input *dto.AppendMovementInput) (*model.StockMovement, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)

	// Reconcile replays the ledger for one (product, size) pair and
	// compares against the live counter, raising a drift alert on
	// divergence.
	Reconcile(ctx context.Context, productID, size string) (*dto.ReconcileReport, error)
	ReconcileProduct(ctx context.Context, productID string) ([]dto.ReconcileReport, error)

	// RebuildHistory regenerates the product's stockHistory projection
	// from the ledger. Returns the number of entries written.
	RebuildHistory(ctx context.Context, productID string) (int, error)

	BulkRestock(ctx context.Context, input *dto.BulkRestockInput) (*dto.BulkRestockResult, error)
}
