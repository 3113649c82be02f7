package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgerdto "github.com/terra-footwear/terra-stock-service/internal/ledger/dto"
	"github.com/terra-footwear/terra-stock-service/internal/model"
	"github.com/terra-footwear/terra-stock-service/internal/order"
	"github.com/terra-footwear/terra-stock-service/internal/order/dto"
	productdto "github.com/terra-footwear/terra-stock-service/internal/product/dto"
	"github.com/terra-footwear/terra-stock-service/internal/stock"
	"github.com/terra-footwear/terra-stock-service/pkg/logger"
)

type fakeProductRepo struct {
	products map[string]*model.Product
}

func (r *fakeProductRepo) Create(ctx context.Context, p *model.Product) error { return nil }
func (r *fakeProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	return r.products[id], nil
}
func (r *fakeProductRepo) FindBySlug(ctx context.Context, slug string) (*model.Product, error) {
	return nil, nil
}
func (r *fakeProductRepo) FindAll(ctx context.Context, f *productdto.ProductFilters) ([]model.Product, int, error) {
	return nil, 0, nil
}
func (r *fakeProductRepo) Update(ctx context.Context, p *model.Product) error { return nil }
func (r *fakeProductRepo) GetVariant(ctx context.Context, productID, size string) (*model.SizeVariant, error) {
	return nil, nil
}
func (r *fakeProductRepo) UpsertVariant(ctx context.Context, v *model.SizeVariant) error { return nil }
func (r *fakeProductRepo) ListHistory(ctx context.Context, productID string, limit int) ([]model.StockHistoryEntry, error) {
	return nil, nil
}

type fakeOrderRepo struct {
	orders map[string]*model.Order
}

func (r *fakeOrderRepo) Create(ctx context.Context, o *model.Order) error {
	if r.orders == nil {
		r.orders = map[string]*model.Order{}
	}
	r.orders[o.ID] = o
	return nil
}

func (r *fakeOrderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	return r.orders[id], nil
}

func (r *fakeOrderRepo) FindByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	for _, o := range r.orders {
		if o.OrderNumber == orderNumber {
			return o, nil
		}
	}
	return nil, nil
}

func (r *fakeOrderRepo) FindAll(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	return nil, 0, nil
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, id, status string) error {
	if o, ok := r.orders[id]; ok {
		o.Status = status
	}
	return nil
}

// fakeLedger applies the real accounting rules to the in-memory products
// so the trigger's effect on counters can be asserted end to end.
type fakeLedger struct {
	products  *fakeProductRepo
	movements []ledgerdto.AppendMovementInput
}

func (l *fakeLedger) Append(ctx context.Context, input *ledgerdto.AppendMovementInput) (*model.StockMovement, error) {
	p := l.products.products[input.ProductID]
	if p == nil {
		return nil, assertableErr("product not found")
	}
	v := p.Variant(input.Size)
	if v == nil {
		return nil, assertableErr("size not found")
	}

	before := v.Stock
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
	stock.Recalculate(v)

	l.movements = append(l.movements, *input)
	return &model.StockMovement{
		Reference:   "MOV-TEST",
		Type:        input.Type,
		ProductID:   input.ProductID,
		Size:        input.Size,
		Quantity:    input.Quantity,
		StockBefore: before,
		StockAfter:  v.Stock,
	}, nil
}

func (l *fakeLedger) ListMovements(ctx context.Context, f *ledgerdto.MovementFilters) ([]model.StockMovement, int, error) {
	return nil, 0, nil
}
func (l *fakeLedger) Reconcile(ctx context.Context, productID, size string) (*ledgerdto.ReconcileReport, error) {
	return nil, nil
}
func (l *fakeLedger) ReconcileProduct(ctx context.Context, productID string) ([]ledgerdto.ReconcileReport, error) {
	return nil, nil
}
func (l *fakeLedger) RebuildHistory(ctx context.Context, productID string) (int, error) {
	return 0, nil
}
func (l *fakeLedger) BulkRestock(ctx context.Context, input *ledgerdto.BulkRestockInput) (*ledgerdto.BulkRestockResult, error) {
	return nil, nil
}

func (l *fakeLedger) byType(movementType string) []ledgerdto.AppendMovementInput {
	out := []ledgerdto.AppendMovementInput{}
	for _, m := range l.movements {
		if m.Type == movementType {
			out = append(out, m)
		}
	}
	return out
}

type assertableErr string

func (e assertableErr) Error() string { return string(e) }

func newFixture(stockN, reserved int) (*fakeOrderRepo, *fakeProductRepo, *fakeLedger, *orderUseCase) {
	products := &fakeProductRepo{products: map[string]*model.Product{
		"prod-1": {
			BaseModel: model.BaseModel{ID: "prod-1"},
			Title:     "Trail Runner",
			Price:     120,
			Sizes: []model.SizeVariant{
				{
					ProductID:         "prod-1",
					Size:              "42",
					Stock:             stockN,
					ReservedStock:     reserved,
					AvailableStock:    stockN - reserved,
					LowStockThreshold: 5,
				},
			},
		},
	}}
	orders := &fakeOrderRepo{}
	ledgerFake := &fakeLedger{products: products}
	uc := NewOrderUseCase(orders, products, ledgerFake, logger.NewNop())
	return orders, products, ledgerFake, uc.(*orderUseCase)
}

func createInput(qty int) *dto.CreateOrderInput {
	return &dto.CreateOrderInput{
		CustomerEmail: "buyer@example.com",
		ShippingCost:  10,
		TaxAmount:     5,
		Items: []dto.OrderItemInput{
			{ProductID: "prod-1", Size: "42", Quantity: qty},
		},
	}
}

func TestCreateOrderReservesStock(t *testing.T) {
	_, products, ledgerFake, uc := newFixture(10, 0)

	o, err := uc.CreateOrder(context.Background(), createInput(3))

	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, o.Status)
	assert.True(t, strings.HasPrefix(o.OrderNumber, "TERRA-"))
	assert.Equal(t, 360.0, o.Subtotal)
	assert.Equal(t, 375.0, o.Total)

	v := products.products["prod-1"].Variant("42")
	assert.Equal(t, 10, v.Stock, "a pending order moves no physical stock")
	assert.Equal(t, 3, v.ReservedStock)
	assert.Equal(t, 7, v.AvailableStock)
	require.Len(t, ledgerFake.byType(model.MovementReservation), 1)
	assert.True(t, ledgerFake.movements[0].IsAutomated)
	assert.Equal(t, o.OrderNumber, ledgerFake.movements[0].OrderReference)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	orders, products, _, uc := newFixture(10, 8)

	_, err := uc.CreateOrder(context.Background(), createInput(3))

	require.Error(t, err)
	assert.True(t, stock.IsInsufficientStock(err))
	assert.Empty(t, orders.orders, "no order row without its holds")
	assert.Equal(t, 8, products.products["prod-1"].Variant("42").ReservedStock)
}

func TestCreateOrderPartialFailureReleasesPriorHolds(t *testing.T) {
	orders, products, ledgerFake, uc := newFixture(10, 0)
	products.products["prod-2"] = &model.Product{
		BaseModel: model.BaseModel{ID: "prod-2"},
		Title:     "City Walker",
		Price:     90,
		Sizes: []model.SizeVariant{
			{ProductID: "prod-2", Size: "40", Stock: 1, LowStockThreshold: 5, AvailableStock: 1},
		},
	}

	_, err := uc.CreateOrder(context.Background(), &dto.CreateOrderInput{
		CustomerEmail: "buyer@example.com",
		Items: []dto.OrderItemInput{
			{ProductID: "prod-1", Size: "42", Quantity: 3},
			{ProductID: "prod-2", Size: "40", Quantity: 5},
		},
	})

	require.Error(t, err)
	assert.True(t, stock.IsInsufficientStock(err))
	assert.Empty(t, orders.orders)
	assert.Equal(t, 0, products.products["prod-1"].Variant("42").ReservedStock,
		"the hold taken before the failing line is released")
	require.Len(t, ledgerFake.byType(model.MovementRelease), 1)
}

func TestConfirmConvertsHoldToSingleSale(t *testing.T) {
	_, products, ledgerFake, uc := newFixture(10, 0)
	ctx := context.Background()

	o, err := uc.CreateOrder(ctx, createInput(3))
	require.NoError(t, err)

	_, err = uc.UpdateStatus(ctx, o.ID, &dto.UpdateStatusInput{Status: model.OrderConfirmed})
	require.NoError(t, err)

	sales := ledgerFake.byType(model.MovementSale)
	require.Len(t, sales, 1, "confirmation writes one sale entry, not a release plus a sale")
	assert.Equal(t, -3, sales[0].Quantity)
	assert.True(t, sales[0].ReleaseHold)
	assert.Empty(t, ledgerFake.byType(model.MovementRelease))

	v := products.products["prod-1"].Variant("42")
	assert.Equal(t, 7, v.Stock)
	assert.Equal(t, 0, v.ReservedStock)
	assert.Equal(t, 7, v.AvailableStock)
}

func TestCancelPendingReleasesHold(t *testing.T) {
	_, products, ledgerFake, uc := newFixture(10, 0)
	ctx := context.Background()

	o, err := uc.CreateOrder(ctx, createInput(3))
	require.NoError(t, err)

	_, err = uc.UpdateStatus(ctx, o.ID, &dto.UpdateStatusInput{Status: model.OrderCancelled})
	require.NoError(t, err)

	require.Len(t, ledgerFake.byType(model.MovementRelease), 1)
	v := products.products["prod-1"].Variant("42")
	assert.Equal(t, 10, v.Stock)
	assert.Equal(t, 0, v.ReservedStock)
}

func TestRefundAfterConfirmReturnsUnits(t *testing.T) {
	_, products, ledgerFake, uc := newFixture(10, 0)
	ctx := context.Background()

	o, err := uc.CreateOrder(ctx, createInput(3))
	require.NoError(t, err)
	_, err = uc.UpdateStatus(ctx, o.ID, &dto.UpdateStatusInput{Status: model.OrderConfirmed})
	require.NoError(t, err)

	_, err = uc.UpdateStatus(ctx, o.ID, &dto.UpdateStatusInput{Status: model.OrderRefunded})
	require.NoError(t, err)

	returns := ledgerFake.byType(model.MovementReturn)
	require.Len(t, returns, 1)
	assert.Equal(t, 3, returns[0].Quantity)
	assert.Equal(t, 10, products.products["prod-1"].Variant("42").Stock)
}

func TestFulfilmentTransitionsMoveNoStock(t *testing.T) {
	_, products, ledgerFake, uc := newFixture(10, 0)
	ctx := context.Background()

	o, err := uc.CreateOrder(ctx, createInput(3))
	require.NoError(t, err)
	_, err = uc.UpdateStatus(ctx, o.ID, &dto.UpdateStatusInput{Status: model.OrderConfirmed})
	require.NoError(t, err)
	movementsAfterConfirm := len(ledgerFake.movements)

	for _, status := range []string{model.OrderPreparing, model.OrderShipped, model.OrderDelivered} {
		_, err = uc.UpdateStatus(ctx, o.ID, &dto.UpdateStatusInput{Status: status})
		require.NoError(t, err)
	}

	assert.Len(t, ledgerFake.movements, movementsAfterConfirm)
	assert.Equal(t, 7, products.products["prod-1"].Variant("42").Stock)
}

func TestReprocessingSameStatusIsNoOp(t *testing.T) {
	_, products, ledgerFake, uc := newFixture(10, 0)
	ctx := context.Background()

	o, err := uc.CreateOrder(ctx, createInput(3))
	require.NoError(t, err)
	_, err = uc.UpdateStatus(ctx, o.ID, &dto.UpdateStatusInput{Status: model.OrderConfirmed})
	require.NoError(t, err)
	movements := len(ledgerFake.movements)

	// Redelivered event carries the status the order already holds.
	_, err = uc.UpdateStatus(ctx, o.ID, &dto.UpdateStatusInput{Status: model.OrderConfirmed})
	require.NoError(t, err)

	assert.Len(t, ledgerFake.movements, movements, "double delivery must not decrement twice")
	assert.Equal(t, 7, products.products["prod-1"].Variant("42").Stock)
}

func TestCreateConfirmedOrderSkipsHoldPhase(t *testing.T) {
	_, products, ledgerFake, uc := newFixture(10, 0)

	input := createInput(3)
	input.Status = model.OrderConfirmed
	o, err := uc.CreateOrder(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, model.OrderConfirmed, o.Status)
	assert.Empty(t, ledgerFake.byType(model.MovementReservation))
	sales := ledgerFake.byType(model.MovementSale)
	require.Len(t, sales, 1)
	assert.False(t, sales[0].ReleaseHold)
	assert.Equal(t, 7, products.products["prod-1"].Variant("42").Stock)
}

func TestPendingCannotSkipConfirmation(t *testing.T) {
	_, products, ledgerFake, uc := newFixture(10, 0)
	ctx := context.Background()

	o, err := uc.CreateOrder(ctx, createInput(3))
	require.NoError(t, err)
	movements := len(ledgerFake.movements)

	_, err = uc.UpdateStatus(ctx, o.ID, &dto.UpdateStatusInput{Status: model.OrderShipped})

	require.ErrorIs(t, err, order.ErrInvalidTransition)
	assert.Equal(t, model.OrderPending, o.Status)
	assert.Len(t, ledgerFake.movements, movements)
	v := products.products["prod-1"].Variant("42")
	assert.Equal(t, 10, v.Stock)
	assert.Equal(t, 3, v.ReservedStock, "the hold stays until a legal transition converts or releases it")
}

func TestStatusJumpCannotMintStock(t *testing.T) {
	_, products, _, uc := newFixture(10, 0)
	ctx := context.Background()

	o, err := uc.CreateOrder(ctx, createInput(3))
	require.NoError(t, err)

	// The illegal jump is rejected, so the later cancellation releases
	// the hold instead of returning units that were never sold.
	_, err = uc.UpdateStatus(ctx, o.ID, &dto.UpdateStatusInput{Status: model.OrderShipped})
	require.ErrorIs(t, err, order.ErrInvalidTransition)

	_, err = uc.UpdateStatus(ctx, o.ID, &dto.UpdateStatusInput{Status: model.OrderCancelled})
	require.NoError(t, err)

	v := products.products["prod-1"].Variant("42")
	assert.Equal(t, 10, v.Stock)
	assert.Equal(t, 0, v.ReservedStock)
}

func TestTerminalStatusesAreFinal(t *testing.T) {
	_, _, _, uc := newFixture(10, 0)
	ctx := context.Background()

	o, err := uc.CreateOrder(ctx, createInput(3))
	require.NoError(t, err)
	_, err = uc.UpdateStatus(ctx, o.ID, &dto.UpdateStatusInput{Status: model.OrderCancelled})
	require.NoError(t, err)

	_, err = uc.UpdateStatus(ctx, o.ID, &dto.UpdateStatusInput{Status: model.OrderConfirmed})

	require.ErrorIs(t, err, order.ErrInvalidTransition)
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	_, _, _, uc := newFixture(10, 0)

	_, err := uc.UpdateStatus(context.Background(), "nope", &dto.UpdateStatusInput{Status: model.OrderConfirmed})

	require.Error(t, err)
}

func TestOrderNumberFormat(t *testing.T) {
	n := generateOrderNumber(time.Now())
	parts := strings.Split(n, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, "TERRA", parts[0])
	assert.Len(t, parts[2], 4)
	assert.Equal(t, strings.ToUpper(n), n)
}
