package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-footwear/terra-stock-service/internal/alert"
	"github.com/terra-footwear/terra-stock-service/internal/alert/dto"
	"github.com/terra-footwear/terra-stock-service/internal/model"
	"github.com/terra-footwear/terra-stock-service/pkg/logger"
)

type fakeAlertRepo struct {
	alerts []*model.StockAlert
}

func (r *fakeAlertRepo) Create(ctx context.Context, a *model.StockAlert) error {
	r.alerts = append(r.alerts, a)
	return nil
}

func (r *fakeAlertRepo) FindByID(ctx context.Context, id string) (*model.StockAlert, error) {
	for _, a := range r.alerts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeAlertRepo) FindUnresolved(ctx context.Context, productID, size, alertType string) (*model.StockAlert, error) {
	for _, a := range r.alerts {
		if a.ProductID == productID && a.Size == size && a.AlertType == alertType && !a.IsResolved {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeAlertRepo) ListUnresolved(ctx context.Context, productID, size string) ([]model.StockAlert, error) {
	out := []model.StockAlert{}
	for _, a := range r.alerts {
		if a.ProductID == productID && a.Size == size && !a.IsResolved {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) FindAll(ctx context.Context, f *dto.AlertFilters) ([]model.StockAlert, int, error) {
	out := []model.StockAlert{}
	for _, a := range r.alerts {
		if f.Unresolved && a.IsResolved {
			continue
		}
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (r *fakeAlertRepo) Update(ctx context.Context, updated *model.StockAlert) error {
	for i, a := range r.alerts {
		if a.ID == updated.ID {
			cp := *updated
			r.alerts[i] = &cp
			return nil
		}
	}
	return nil
}

func (r *fakeAlertRepo) open(alertType string) *model.StockAlert {
	for _, a := range r.alerts {
		if a.AlertType == alertType && !a.IsResolved {
			return a
		}
	}
	return nil
}

type fakeMovements struct {
	sold int
}

func (m *fakeMovements) SalesSince(ctx context.Context, productID, size string, since time.Time) (int, error) {
	return m.sold, nil
}

type capturingPublisher struct {
	published int
}

func (p *capturingPublisher) Publish(ctx context.Context, key, value []byte) error {
	p.published++
	return nil
}

func productWithVariant(available, threshold int) *model.Product {
	v := model.SizeVariant{
		ProductID:         "prod-1",
		Size:              "42",
		Stock:             available,
		AvailableStock:    available,
		LowStockThreshold: threshold,
		IsLowStock:        available > 0 && available <= threshold,
		IsOutOfStock:      available <= 0,
	}
	return &model.Product{
		BaseModel: model.BaseModel{ID: "prod-1"},
		Title:     "Trail Runner",
		Sizes:     []model.SizeVariant{v},
	}
}

func TestEvaluateCreatesLowStockAlert(t *testing.T) {
	repo := &fakeAlertRepo{}
	pub := &capturingPublisher{}
	uc := NewAlertUseCase(repo, &fakeMovements{}, pub, logger.NewNop(), 3)

	err := uc.Evaluate(context.Background(), productWithVariant(4, 5))

	require.NoError(t, err)
	a := repo.open(model.AlertLowStock)
	require.NotNil(t, a)
	assert.Equal(t, model.PriorityMedium, a.Priority)
	assert.Equal(t, 4, a.CurrentStock)
	assert.NotNil(t, repo.open(model.AlertRestockSuggestion))
	assert.Equal(t, 2, pub.published)
}

func TestEvaluateHighPriorityNearHalfThreshold(t *testing.T) {
	repo := &fakeAlertRepo{}
	uc := NewAlertUseCase(repo, &fakeMovements{}, nil, logger.NewNop(), 3)

	err := uc.Evaluate(context.Background(), productWithVariant(3, 5))

	require.NoError(t, err)
	a := repo.open(model.AlertLowStock)
	require.NotNil(t, a)
	assert.Equal(t, model.PriorityHigh, a.Priority)
}

func TestEvaluateOutOfStockIsCritical(t *testing.T) {
	repo := &fakeAlertRepo{}
	uc := NewAlertUseCase(repo, &fakeMovements{}, nil, logger.NewNop(), 3)

	err := uc.Evaluate(context.Background(), productWithVariant(0, 5))

	require.NoError(t, err)
	a := repo.open(model.AlertOutOfStock)
	require.NotNil(t, a)
	assert.Equal(t, model.PriorityCritical, a.Priority)
	assert.Nil(t, repo.open(model.AlertLowStock), "out of stock does not also raise low stock")
}

func TestEvaluateDeduplicatesOpenAlerts(t *testing.T) {
	repo := &fakeAlertRepo{}
	uc := NewAlertUseCase(repo, &fakeMovements{}, nil, logger.NewNop(), 3)
	ctx := context.Background()
	p := productWithVariant(4, 5)

	require.NoError(t, uc.Evaluate(ctx, p))
	require.NoError(t, uc.Evaluate(ctx, p))
	require.NoError(t, uc.Evaluate(ctx, p))

	count := 0
	for _, a := range repo.alerts {
		if a.AlertType == model.AlertLowStock {
			count++
		}
	}
	assert.Equal(t, 1, count, "repeated evaluation of an unchanged condition is a no-op")
}

func TestEvaluateAutoResolvesOnRecovery(t *testing.T) {
	repo := &fakeAlertRepo{}
	uc := NewAlertUseCase(repo, &fakeMovements{}, nil, logger.NewNop(), 3)
	ctx := context.Background()

	require.NoError(t, uc.Evaluate(ctx, productWithVariant(0, 5)))
	require.NotNil(t, repo.open(model.AlertOutOfStock))

	require.NoError(t, uc.Evaluate(ctx, productWithVariant(20, 5)))

	assert.Nil(t, repo.open(model.AlertOutOfStock))
	assert.Nil(t, repo.open(model.AlertRestockSuggestion))
	for _, a := range repo.alerts {
		require.True(t, a.IsResolved)
		assert.Equal(t, model.ActionRestocked, a.ActionTaken)
		assert.NotNil(t, a.ResolvedAt)
	}
}

func TestEvaluateRecurrenceCreatesNewAlert(t *testing.T) {
	repo := &fakeAlertRepo{}
	uc := NewAlertUseCase(repo, &fakeMovements{}, nil, logger.NewNop(), 3)
	ctx := context.Background()

	require.NoError(t, uc.Evaluate(ctx, productWithVariant(0, 5)))
	require.NoError(t, uc.Evaluate(ctx, productWithVariant(20, 5)))
	require.NoError(t, uc.Evaluate(ctx, productWithVariant(0, 5)))

	count := 0
	for _, a := range repo.alerts {
		if a.AlertType == model.AlertOutOfStock {
			count++
		}
	}
	assert.Equal(t, 2, count, "resolved alerts are terminal, recurrence opens a fresh one")
}

func TestSuggestedQuantityFromSaleVelocity(t *testing.T) {
	repo := &fakeAlertRepo{}
	// 30 sold in 30 days -> 14 days of cover.
	uc := NewAlertUseCase(repo, &fakeMovements{sold: 30}, nil, logger.NewNop(), 3)

	require.NoError(t, uc.Evaluate(context.Background(), productWithVariant(2, 5)))

	a := repo.open(model.AlertRestockSuggestion)
	require.NotNil(t, a)
	assert.Equal(t, 14, a.SuggestedQuantity)
}

func TestSuggestedQuantityFallback(t *testing.T) {
	repo := &fakeAlertRepo{}
	uc := NewAlertUseCase(repo, &fakeMovements{sold: 0}, nil, logger.NewNop(), 3)

	require.NoError(t, uc.Evaluate(context.Background(), productWithVariant(2, 5)))

	a := repo.open(model.AlertRestockSuggestion)
	require.NotNil(t, a)
	assert.Equal(t, 15, a.SuggestedQuantity, "no sale history falls back to threshold*multiplier")
}

func TestRaiseDriftIsCritical(t *testing.T) {
	repo := &fakeAlertRepo{}
	uc := NewAlertUseCase(repo, &fakeMovements{}, nil, logger.NewNop(), 3)

	err := uc.RaiseDrift(context.Background(), productWithVariant(10, 5), "42", 5, 10)

	require.NoError(t, err)
	a := repo.open(model.AlertStockDrift)
	require.NotNil(t, a)
	assert.Equal(t, model.PriorityCritical, a.Priority)
}

func TestRaiseInvariantViolationIsCriticalAndDeduped(t *testing.T) {
	repo := &fakeAlertRepo{}
	uc := NewAlertUseCase(repo, &fakeMovements{}, nil, logger.NewNop(), 3)
	ctx := context.Background()
	p := productWithVariant(1, 5)

	require.NoError(t, uc.RaiseInvariantViolation(ctx, p, "42", 1, 3))
	require.NoError(t, uc.RaiseInvariantViolation(ctx, p, "42", 1, 3))

	count := 0
	for _, a := range repo.alerts {
		if a.AlertType == model.AlertStockDrift {
			count++
			assert.Equal(t, model.PriorityCritical, a.Priority)
		}
	}
	assert.Equal(t, 1, count)
}

func TestResolveMarksTerminal(t *testing.T) {
	repo := &fakeAlertRepo{}
	uc := NewAlertUseCase(repo, &fakeMovements{}, nil, logger.NewNop(), 3)
	ctx := context.Background()

	require.NoError(t, uc.Evaluate(ctx, productWithVariant(0, 5)))
	open := repo.open(model.AlertOutOfStock)
	require.NotNil(t, open)

	resolved, err := uc.Resolve(ctx, open.ID, &dto.ResolveAlertInput{
		ActionTaken:     model.ActionRestocked,
		ResolutionNotes: "40 pairs ordered",
		ResolvedBy:      "user-7",
	})
	require.NoError(t, err)
	assert.True(t, resolved.IsResolved)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, "user-7", *resolved.ResolvedBy)

	_, err = uc.Resolve(ctx, open.ID, &dto.ResolveAlertInput{ActionTaken: model.ActionRestocked})
	assert.ErrorIs(t, err, alert.ErrAlreadyResolved)
}

func TestResolveUnknownAlert(t *testing.T) {
	uc := NewAlertUseCase(&fakeAlertRepo{}, &fakeMovements{}, nil, logger.NewNop(), 3)

	_, err := uc.Resolve(context.Background(), "nope", &dto.ResolveAlertInput{ActionTaken: model.ActionRestocked})

	assert.ErrorIs(t, err, alert.ErrNotFound)
}
