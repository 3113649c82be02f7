package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/terra-footwear/terra-stock-service/internal/alert"
	"github.com/terra-footwear/terra-stock-service/internal/ledger"
	"github.com/terra-footwear/terra-stock-service/internal/ledger/dto"
	"github.com/terra-footwear/terra-stock-service/internal/model"
	"github.com/terra-footwear/terra-stock-service/internal/product"
	"github.com/terra-footwear/terra-stock-service/internal/stock"
	"github.com/terra-footwear/terra-stock-service/pkg/logger"
)

// Locker serializes mutations per (product, size). The redis client
// satisfies it; tests use an in-process stand-in.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

const casAttempts = 3

type ledgerUseCase struct {
	repo        ledger.Repository
	products    product.Repository
	alerts      alert.UseCase
	locker      Locker
	logger      logger.ZapLogger
	lockTTL     time.Duration
	lockRetries int
}

func NewLedgerUseCase(repo ledger.Repository, products product.Repository, alerts alert.UseCase, locker Locker, log logger.ZapLogger, lockTTL time.Duration, lockRetries int) ledger.UseCase {
	if lockTTL <= 0 {
		lockTTL = 5 * time.Second
	}
	if lockRetries <= 0 {
		lockRetries = 3
	}
	return &ledgerUseCase{
		repo:        repo,
		products:    products,
		alerts:      alerts,
		locker:      locker,
		logger:      log,
		lockTTL:     lockTTL,
		lockRetries: lockRetries,
	}
}

// Append runs the full mutation pipeline for one movement:
// lock -> read -> protocol op -> accounting -> transactional write of
// movement + variant + history row -> alert evaluation.
func (uc *ledgerUseCase) Append(ctx context.Context, input *dto.AppendMovementInput) (*model.StockMovement, error) {
	if !model.IsValidMovementType(input.Type) {
		return nil, stock.ErrUnknownMovementType
	}
	if err := stock.ValidateQuantity(input.Type, input.Quantity); err != nil {
		return nil, err
	}
	if !model.IsValidSize(input.Size) {
		return nil, fmt.Errorf("invalid size %q", input.Size)
	}

	unlock, err := uc.acquireLock(ctx, input.ProductID, input.Size)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		movement  *model.StockMovement
		updated   *model.Product
		violation *stock.InvariantViolationError
	)

	for attempt := 0; attempt < casAttempts; attempt++ {
		p, err := uc.products.FindByID(ctx, input.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("product %s not found", input.ProductID)
		}
		v := p.Variant(input.Size)
		if v == nil {
			return nil, fmt.Errorf("product %s has no size %s", input.ProductID, input.Size)
		}

		expectedStock := v.Stock
		expectedReserved := v.ReservedStock

		switch input.Type {
		case model.MovementReservation:
			if err := stock.Reserve(v, input.Quantity); err != nil {
				return nil, err
			}
		case model.MovementRelease:
			stock.Release(v, input.Quantity)
		default:
			if err := stock.ApplyDelta(v, input.Quantity, input.ReleaseHold); err != nil {
				return nil, err
			}
		}

		violation = stock.Recalculate(v)
		if violation != nil {
			uc.logger.Error("stock invariant violation", zap.Error(violation))
		}

		now := input.Date
		if now.IsZero() {
			now = time.Now()
		}
		v.UpdatedAt = now

		m := uc.buildMovement(input, now, expectedStock, v.Stock)
		h := uc.buildHistoryEntry(m)

		ok, err := uc.repo.AppendWithVariantUpdate(ctx, m, v, expectedStock, expectedReserved, h)
		if err != nil {
			return nil, err
		}
		if ok {
			movement = m
			updated = p
			break
		}
		// Lost the compare-and-swap; retry with a fresh read.
	}

	if movement == nil {
		return nil, stock.ErrVersionConflict
	}

	// The movement is committed; alert evaluation failing must not undo
	// that. Log and move on.
	if violation != nil {
		if err := uc.alerts.RaiseInvariantViolation(ctx, updated, input.Size, violation.Stock, violation.Reserved); err != nil {
			uc.logger.Error("failed to raise invariant violation alert", zap.Error(err))
		}
	}
	if err := uc.alerts.Evaluate(ctx, updated); err != nil {
		uc.logger.Error("alert evaluation failed",
			zap.String("product_id", updated.ID),
			zap.Error(err),
		)
	}

	return movement, nil
}

func (uc *ledgerUseCase) buildMovement(input *dto.AppendMovementInput, now time.Time, stockBefore, stockAfter int) *model.StockMovement {
	m := &model.StockMovement{
		ID:          uuid.New().String(),
		Reference:   fmt.Sprintf("MOV-%d-%d", now.UnixMilli(), rand.Intn(1000)),
		Date:        now,
		Type:        input.Type,
		ProductID:   input.ProductID,
		Size:        input.Size,
		Quantity:    input.Quantity,
		StockBefore: stockBefore,
		StockAfter:  stockAfter,
		Reason:      input.Reason,
		Notes:       input.Notes,
		IsAutomated: input.IsAutomated,
		CreatedAt:   now,
	}

	if input.OrderReference != "" {
		ref := input.OrderReference
		m.OrderReference = &ref
	}
	if input.SupplierReference != "" {
		ref := input.SupplierReference
		m.SupplierReference = &ref
	}
	if input.UserID != "" {
		userID := input.UserID
		m.UserID = &userID
	}
	if input.UnitCost != nil {
		qty := input.Quantity
		if qty < 0 {
			qty = -qty
		}
		total := float64(qty) * (*input.UnitCost)
		m.UnitCost = input.UnitCost
		m.TotalCost = &total
	}

	return m
}

func (uc *ledgerUseCase) buildHistoryEntry(m *model.StockMovement) *model.StockHistoryEntry {
	reference := m.Reference
	if m.OrderReference != nil {
		reference = *m.OrderReference
	} else if m.SupplierReference != nil {
		reference = *m.SupplierReference
	}
	return &model.StockHistoryEntry{
		ID:        uuid.New().String(),
		ProductID: m.ProductID,
		Date:      m.Date,
		Type:      m.Type,
		Size:      m.Size,
		Quantity:  m.Quantity,
		Reason:    m.Reason,
		Reference: reference,
	}
}

func (uc *ledgerUseCase) acquireLock(ctx context.Context, productID, size string) (func(), error) {
	if uc.locker == nil {
		return func() {}, nil
	}

	lockKey := fmt.Sprintf("lock:stock:%s:%s", productID, size)
	lockValue := uuid.New().String()

	acquired := false
	for i := 0; i < uc.lockRetries; i++ {
		ok, err := uc.locker.AcquireLock(ctx, lockKey, lockValue, uc.lockTTL)
		if err != nil {
			uc.logger.Error("failed to acquire stock lock", zap.Error(err))
		}
		if ok {
			acquired = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !acquired {
		return nil, fmt.Errorf("stock busy for product %s size %s, try again later", productID, size)
	}

	return func() {
		if err := uc.locker.ReleaseLock(ctx, lockKey, lockValue); err != nil {
			uc.logger.Warn("failed to release stock lock", zap.Error(err))
		}
	}, nil
}

func (uc *ledgerUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *ledgerUseCase) Reconcile(ctx context.Context, productID, size string) (*dto.ReconcileReport, error) {
	p, err := uc.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("product %s not found", productID)
	}
	v := p.Variant(size)
	if v == nil {
		return nil, fmt.Errorf("product %s has no size %s", productID, size)
	}
	return uc.reconcileVariant(ctx, p, v)
}

func (uc *ledgerUseCase) ReconcileProduct(ctx context.Context, productID string) ([]dto.ReconcileReport, error) {
	p, err := uc.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("product %s not found", productID)
	}

	reports := make([]dto.ReconcileReport, 0, len(p.Sizes))
	for i := range p.Sizes {
		report, err := uc.reconcileVariant(ctx, p, &p.Sizes[i])
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, nil
}

// reconcileVariant replays the stock-affecting movements and compares
// against the live counter. A pair with no physical movements has nothing
// to replay and is reported in sync.
func (uc *ledgerUseCase) reconcileVariant(ctx context.Context, p *model.Product, v *model.SizeVariant) (*dto.ReconcileReport, error) {
	sum, n, err := uc.repo.SumPhysical(ctx, p.ID, v.Size)
	if err != nil {
		return nil, err
	}

	report := &dto.ReconcileReport{
		ProductID:   p.ID,
		Size:        v.Size,
		LedgerStock: sum,
		LiveStock:   v.Stock,
		Drift:       v.Stock - sum,
		InSync:      n == 0 || v.Stock == sum,
	}

	if !report.InSync {
		uc.logger.Warn("stock drift detected",
			zap.String("product_id", p.ID),
			zap.String("size", v.Size),
			zap.Int("ledger_stock", sum),
			zap.Int("live_stock", v.Stock),
		)
		if err := uc.alerts.RaiseDrift(ctx, p, v.Size, sum, v.Stock); err != nil {
			uc.logger.Error("failed to raise drift alert", zap.Error(err))
		}
	}

	return report, nil
}

func (uc *ledgerUseCase) RebuildHistory(ctx context.Context, productID string) (int, error) {
	movements, err := uc.repo.ListByProduct(ctx, productID)
	if err != nil {
		return 0, err
	}

	entries := make([]model.StockHistoryEntry, 0, len(movements))
	for i := range movements {
		entries = append(entries, *uc.buildHistoryEntry(&movements[i]))
	}

	if err := uc.repo.ReplaceHistory(ctx, productID, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// BulkRestock appends one restock movement per line, keeping going past
// individual failures and reporting both sides.
func (uc *ledgerUseCase) BulkRestock(ctx context.Context, input *dto.BulkRestockInput) (*dto.BulkRestockResult, error) {
	result := &dto.BulkRestockResult{
		Succeeded: []string{},
		Failed:    []string{},
	}

	for _, line := range input.Lines {
		m, err := uc.Append(ctx, &dto.AppendMovementInput{
			ProductID:         line.ProductID,
			Size:              line.Size,
			Type:              model.MovementRestock,
			Quantity:          line.Quantity,
			Reason:            input.Reason,
			SupplierReference: input.SupplierReference,
			UnitCost:          input.UnitCost,
			UserID:            input.UserID,
		})
		if err != nil {
			result.Failed = append(result.Failed, fmt.Sprintf("%s/%s: %v", line.ProductID, line.Size, err))
			continue
		}
		result.Succeeded = append(result.Succeeded, m.Reference)
	}

	return result, nil
}
