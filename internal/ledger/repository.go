package ledger

import (
	"context"
	"time"

	"github.com/terra-footwear/terra-stock-service/internal/ledger/dto"
	"github.com/terra-footwear/terra-stock-service/internal/model"
)

type Repository interface {
	// AppendWithVariantUpdate writes the movement, the updated variant and
	// the history projection row in one transaction. The variant write is
	// guarded by the previously read counters; a false return means the
	// compare-and-swap lost to a concurrent writer and nothing was
	// committed.
	AppendWithVariantUpdate(ctx context.Context, m *model.StockMovement, v *model.SizeVariant, expectedStock, expectedReserved int, h *model.StockHistoryEntry) (bool, error)

	FindAll(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
	ListByProduct(ctx context.Context, productID string) ([]model.StockMovement, error)

	// SumPhysical replays the ledger: the summed quantity and count of all
	// stock-affecting movements for the pair.
	SumPhysical(ctx context.Context, productID, size string) (sum int, n int, err error)

	// SalesSince returns units sold (absolute value) since the cutoff.
	SalesSince(ctx context.Context, productID, size string, since time.Time) (int, error)

	// ReplaceHistory rebuilds the product's denormalized history
	// projection from the given entries.
	ReplaceHistory(ctx context.Context, productID string, entries []model.StockHistoryEntry) error
}
