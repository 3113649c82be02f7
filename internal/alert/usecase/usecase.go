package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/terra-footwear/terra-stock-service/internal/alert"
	"github.com/terra-footwear/terra-stock-service/internal/alert/dto"
	"github.com/terra-footwear/terra-stock-service/internal/model"
	"github.com/terra-footwear/terra-stock-service/pkg/logger"
)

// MovementSource supplies sale volumes for restock suggestions. The
// ledger repository satisfies it.
type MovementSource interface {
	SalesSince(ctx context.Context, productID, size string, since time.Time) (int, error)
}

// EventPublisher pushes created alerts to the ops topic. Optional.
type EventPublisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

type alertUseCase struct {
	repo              alert.Repository
	movements         MovementSource
	publisher         EventPublisher
	logger            logger.ZapLogger
	restockMultiplier int
}

func NewAlertUseCase(repo alert.Repository, movements MovementSource, publisher EventPublisher, log logger.ZapLogger, restockMultiplier int) alert.UseCase {
	if restockMultiplier <= 0 {
		restockMultiplier = 3
	}
	return &alertUseCase{
		repo:              repo,
		movements:         movements,
		publisher:         publisher,
		logger:            log,
		restockMultiplier: restockMultiplier,
	}
}

func (uc *alertUseCase) Evaluate(ctx context.Context, p *model.Product) error {
	for i := range p.Sizes {
		v := &p.Sizes[i]
		switch {
		case v.IsOutOfStock:
			suggested := uc.suggestedQuantity(ctx, v)
			msg := fmt.Sprintf("Out of stock: %s size %s", p.Title, v.Size)
			if err := uc.ensureOpen(ctx, p, v, model.AlertOutOfStock, model.PriorityCritical, msg, suggested); err != nil {
				return err
			}
			if err := uc.ensureSuggestion(ctx, p, v, suggested); err != nil {
				return err
			}
		case v.IsLowStock:
			priority := model.PriorityMedium
			if v.AvailableStock <= (v.LowStockThreshold+1)/2 {
				priority = model.PriorityHigh
			}
			suggested := uc.suggestedQuantity(ctx, v)
			msg := fmt.Sprintf("Low stock: %s size %s (%d remaining)", p.Title, v.Size, v.AvailableStock)
			if err := uc.ensureOpen(ctx, p, v, model.AlertLowStock, priority, msg, suggested); err != nil {
				return err
			}
			if err := uc.ensureSuggestion(ctx, p, v, suggested); err != nil {
				return err
			}
		default:
			if err := uc.resolveRecovered(ctx, p.ID, v.Size); err != nil {
				return err
			}
		}
	}
	return nil
}

// ensureOpen creates the alert unless an unresolved one already exists
// for the same (product, size, type). The duplicate case is a no-op.
func (uc *alertUseCase) ensureOpen(ctx context.Context, p *model.Product, v *model.SizeVariant, alertType, priority, message string, suggested int) error {
	existing, err := uc.repo.FindUnresolved(ctx, p.ID, v.Size, alertType)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	now := time.Now()
	a := &model.StockAlert{
		ID:                uuid.New().String(),
		Reference:         fmt.Sprintf("ALERT-%s-%d", alertType, now.UnixMilli()),
		AlertType:         alertType,
		Priority:          priority,
		ProductID:         p.ID,
		Size:              v.Size,
		CurrentStock:      v.AvailableStock,
		Threshold:         v.LowStockThreshold,
		SuggestedQuantity: suggested,
		Message:           message,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := uc.repo.Create(ctx, a); err != nil {
		return err
	}

	uc.publish(ctx, a)
	return nil
}

func (uc *alertUseCase) ensureSuggestion(ctx context.Context, p *model.Product, v *model.SizeVariant, suggested int) error {
	msg := fmt.Sprintf("Restock suggested: %s size %s, order %d units", p.Title, v.Size, suggested)
	return uc.ensureOpen(ctx, p, v, model.AlertRestockSuggestion, model.PriorityLow, msg, suggested)
}

// resolveRecovered closes every open threshold alert for a variant whose
// stock came back. Resolved alerts are terminal; a later recurrence
// creates a new row.
func (uc *alertUseCase) resolveRecovered(ctx context.Context, productID, size string) error {
	open, err := uc.repo.ListUnresolved(ctx, productID, size)
	if err != nil {
		return err
	}

	now := time.Now()
	for i := range open {
		a := &open[i]
		switch a.AlertType {
		case model.AlertLowStock, model.AlertOutOfStock, model.AlertRestockSuggestion:
		default:
			continue
		}
		a.IsResolved = true
		a.ResolvedAt = &now
		a.ActionTaken = model.ActionRestocked
		a.ResolutionNotes = "Stock replenished automatically"
		a.UpdatedAt = now
		if err := uc.repo.Update(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// suggestedQuantity sizes a restock to cover 14 days at the sale rate of
// the last 30, falling back to threshold*multiplier when there is no
// sale history to go on.
func (uc *alertUseCase) suggestedQuantity(ctx context.Context, v *model.SizeVariant) int {
	fallback := v.LowStockThreshold * uc.restockMultiplier
	if uc.movements == nil {
		return fallback
	}

	sold, err := uc.movements.SalesSince(ctx, v.ProductID, v.Size, time.Now().AddDate(0, 0, -30))
	if err != nil {
		uc.logger.Warn("failed to compute sale velocity", zap.Error(err))
		return fallback
	}
	if sold <= 0 {
		return fallback
	}

	// ceil(sold/30 * 14)
	suggested := (sold*14 + 29) / 30
	if suggested < 1 {
		suggested = 1
	}
	return suggested
}

func (uc *alertUseCase) RaiseDrift(ctx context.Context, p *model.Product, size string, ledgerStock, liveStock int) error {
	v := p.Variant(size)
	if v == nil {
		return fmt.Errorf("unknown size %q for product %s", size, p.ID)
	}
	msg := fmt.Sprintf("Stock drift: %s size %s, ledger says %d but live stock is %d",
		p.Title, size, ledgerStock, liveStock)
	return uc.ensureOpen(ctx, p, v, model.AlertStockDrift, model.PriorityCritical, msg, 0)
}

func (uc *alertUseCase) RaiseInvariantViolation(ctx context.Context, p *model.Product, size string, stock, reserved int) error {
	v := p.Variant(size)
	if v == nil {
		return fmt.Errorf("unknown size %q for product %s", size, p.ID)
	}
	msg := fmt.Sprintf("Data integrity: %s size %s has %d reserved against %d in stock",
		p.Title, size, reserved, stock)
	return uc.ensureOpen(ctx, p, v, model.AlertStockDrift, model.PriorityCritical, msg, 0)
}

func (uc *alertUseCase) ListAlerts(ctx context.Context, filters *dto.AlertFilters) ([]model.StockAlert, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *alertUseCase) Resolve(ctx context.Context, id string, input *dto.ResolveAlertInput) (*model.StockAlert, error) {
	a, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, alert.ErrNotFound
	}
	if a.IsResolved {
		return nil, alert.ErrAlreadyResolved
	}

	now := time.Now()
	a.IsResolved = true
	a.ResolvedAt = &now
	a.ActionTaken = input.ActionTaken
	a.ResolutionNotes = input.ResolutionNotes
	if input.ResolvedBy != "" {
		a.ResolvedBy = &input.ResolvedBy
	}
	a.UpdatedAt = now

	if err := uc.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (uc *alertUseCase) publish(ctx context.Context, a *model.StockAlert) {
	if uc.publisher == nil {
		return
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := uc.publisher.Publish(ctx, []byte(a.ProductID), payload); err != nil {
		uc.logger.Warn("failed to publish stock alert",
			zap.String("alert_id", a.ID),
			zap.Error(err),
		)
	}
}
