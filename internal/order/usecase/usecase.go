package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/terra-footwear/terra-stock-service/internal/ledger"
	ledgerdto "github.com/terra-footwear/terra-stock-service/internal/ledger/dto"
	"github.com/terra-footwear/terra-stock-service/internal/model"
	"github.com/terra-footwear/terra-stock-service/internal/order"
	"github.com/terra-footwear/terra-stock-service/internal/order/dto"
	"github.com/terra-footwear/terra-stock-service/internal/product"
	"github.com/terra-footwear/terra-stock-service/pkg/logger"
)

type orderUseCase struct {
	repo     order.Repository
	products product.Repository
	ledger   ledger.UseCase
	logger   logger.ZapLogger
}

func NewOrderUseCase(repo order.Repository, products product.Repository, ledgerUC ledger.UseCase, log logger.ZapLogger) order.UseCase {
	return &orderUseCase{
		repo:     repo,
		products: products,
		ledger:   ledgerUC,
		logger:   log,
	}
}

func (uc *orderUseCase) CreateOrder(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error) {
	status := input.Status
	if status == "" {
		status = model.OrderPending
	}

	now := time.Now()
	o := &model.Order{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		OrderNumber:    generateOrderNumber(now),
		Status:         status,
		CustomerEmail:  input.CustomerEmail,
		ShippingCost:   input.ShippingCost,
		TaxAmount:      input.TaxAmount,
		DiscountAmount: input.DiscountAmount,
		Notes:          input.Notes,
	}

	for _, line := range input.Items {
		p, err := uc.products.FindByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("product %s not found", line.ProductID)
		}
		if p.Variant(line.Size) == nil {
			return nil, fmt.Errorf("product %s has no size %s", line.ProductID, line.Size)
		}

		item := model.OrderItem{
			ID:         uuid.New().String(),
			OrderID:    o.ID,
			ProductID:  line.ProductID,
			Size:       line.Size,
			Color:      line.Color,
			Quantity:   line.Quantity,
			UnitPrice:  p.Price,
			TotalPrice: p.Price * float64(line.Quantity),
		}
		o.Items = append(o.Items, item)
		o.Subtotal += item.TotalPrice
	}
	o.Total = o.Subtotal + o.ShippingCost + o.TaxAmount - o.DiscountAmount

	// A pending order takes holds; a confirmed one decrements stock
	// outright, skipping the hold phase.
	if status == model.OrderConfirmed {
		if err := uc.appendForItems(ctx, o, model.MovementSale, false,
			fmt.Sprintf("Order %s confirmed", o.OrderNumber)); err != nil {
			return nil, err
		}
	} else {
		if err := uc.reserveItems(ctx, o); err != nil {
			return nil, err
		}
	}

	if err := uc.repo.Create(ctx, o); err != nil {
		// The stock side already committed; undo it so the ledger does
		// not carry holds or sales for an order that never existed.
		uc.compensate(ctx, o, status)
		return nil, err
	}

	uc.logger.Info("order created",
		zap.String("order_number", o.OrderNumber),
		zap.String("status", o.Status),
		zap.Int("items", len(o.Items)),
	)
	return o, nil
}

// reserveItems takes one hold per line. A failed line releases every hold
// taken before it and fails the whole order.
func (uc *orderUseCase) reserveItems(ctx context.Context, o *model.Order) error {
	reserved := []model.OrderItem{}
	for _, item := range o.Items {
		_, err := uc.ledger.Append(ctx, &ledgerdto.AppendMovementInput{
			ProductID:      item.ProductID,
			Size:           item.Size,
			Type:           model.MovementReservation,
			Quantity:       item.Quantity,
			Reason:         fmt.Sprintf("Reserved for order %s", o.OrderNumber),
			OrderReference: o.OrderNumber,
			IsAutomated:    true,
		})
		if err != nil {
			uc.releaseItems(ctx, o.OrderNumber, reserved)
			return fmt.Errorf("failed to reserve %s size %s: %w", item.ProductID, item.Size, err)
		}
		reserved = append(reserved, item)
	}
	return nil
}

func (uc *orderUseCase) releaseItems(ctx context.Context, orderNumber string, items []model.OrderItem) {
	for _, item := range items {
		_, err := uc.ledger.Append(ctx, &ledgerdto.AppendMovementInput{
			ProductID:      item.ProductID,
			Size:           item.Size,
			Type:           model.MovementRelease,
			Quantity:       item.Quantity,
			Reason:         fmt.Sprintf("Released for order %s", orderNumber),
			OrderReference: orderNumber,
			IsAutomated:    true,
		})
		if err != nil {
			uc.logger.Error("failed to release hold",
				zap.String("order_number", orderNumber),
				zap.String("product_id", item.ProductID),
				zap.String("size", item.Size),
				zap.Error(err),
			)
		}
	}
}

func (uc *orderUseCase) compensate(ctx context.Context, o *model.Order, status string) {
	if status == model.OrderConfirmed {
		if err := uc.appendForItems(ctx, o, model.MovementReturn, false,
			fmt.Sprintf("Order %s creation failed", o.OrderNumber)); err != nil {
			uc.logger.Error("failed to compensate order creation", zap.Error(err))
		}
		return
	}
	uc.releaseItems(ctx, o.OrderNumber, o.Items)
}

// appendForItems writes one physical movement per line. Sale quantities go
// negative, returns positive; releaseHold converts an existing hold in the
// same entry.
func (uc *orderUseCase) appendForItems(ctx context.Context, o *model.Order, movementType string, releaseHold bool, reason string) error {
	for _, item := range o.Items {
		qty := item.Quantity
		if movementType == model.MovementSale {
			qty = -qty
		}
		_, err := uc.ledger.Append(ctx, &ledgerdto.AppendMovementInput{
			ProductID:      item.ProductID,
			Size:           item.Size,
			Type:           movementType,
			Quantity:       qty,
			Reason:         reason,
			OrderReference: o.OrderNumber,
			IsAutomated:    true,
			ReleaseHold:    releaseHold,
		})
		if err != nil {
			return fmt.Errorf("failed to record %s for %s size %s: %w", movementType, item.ProductID, item.Size, err)
		}
	}
	return nil
}

func (uc *orderUseCase) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	return uc.repo.FindByID(ctx, id)
}

func (uc *orderUseCase) ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *orderUseCase) UpdateStatus(ctx context.Context, id string, input *dto.UpdateStatusInput) (*model.Order, error) {
	if !model.IsValidOrderStatus(input.Status) {
		return nil, order.ErrInvalidStatus
	}

	o, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, order.ErrNotFound
	}

	if !model.OrderTransitionAllowed(o.Status, input.Status) {
		return nil, fmt.Errorf("%w: %s to %s", order.ErrInvalidTransition, o.Status, input.Status)
	}

	previousStatus := o.Status
	o.Status = input.Status

	if err := uc.OnOrderChange(ctx, o, previousStatus); err != nil {
		o.Status = previousStatus
		return nil, err
	}

	if err := uc.repo.UpdateStatus(ctx, id, input.Status); err != nil {
		return nil, err
	}
	o.UpdatedAt = time.Now()
	return o, nil
}

// OnOrderChange is the order-to-stock trigger. Only three transitions
// touch stock:
//
//	pending -> confirmed            hold converted into a sale
//	pending -> cancelled/refunded   hold released
//	holding -> cancelled/refunded   sold units returned
//
// Everything else (confirmed -> preparing -> shipped -> delivered) moves
// no stock. Reprocessing the same status is a no-op.
func (uc *orderUseCase) OnOrderChange(ctx context.Context, o *model.Order, previousStatus string) error {
	if previousStatus == o.Status {
		return nil
	}

	terminal := o.Status == model.OrderCancelled || o.Status == model.OrderRefunded

	switch {
	case previousStatus == model.OrderPending && o.Status == model.OrderConfirmed:
		return uc.appendForItems(ctx, o, model.MovementSale, true,
			fmt.Sprintf("Order %s confirmed", o.OrderNumber))

	case previousStatus == model.OrderPending && terminal:
		return uc.appendForItems(ctx, o, model.MovementRelease, false,
			fmt.Sprintf("Order %s %s", o.OrderNumber, o.Status))

	case model.OrderHoldsStock(previousStatus) && terminal:
		return uc.appendForItems(ctx, o, model.MovementReturn, false,
			fmt.Sprintf("Order %s %s", o.OrderNumber, o.Status))
	}

	return nil
}

// generateOrderNumber yields TERRA-<timestamp base36>-<4 random chars>.
func generateOrderNumber(now time.Time) string {
	const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = alphabet[rand.Intn(len(alphabet))]
	}
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	return fmt.Sprintf("TERRA-%s-%s", ts, suffix)
}
