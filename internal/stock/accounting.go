// Package stock holds the pure accounting rules for a size variant's
// counters. Nothing here touches persistence; callers apply these
// functions between reading and writing a variant.
package stock

import (
	"github.com/terra-footwear/terra-stock-service/internal/model"
)

// Recalculate derives availableStock and the low/out flags from the
// authoritative counters. Must run as the final step of every mutation,
// before the variant is persisted.
//
// If reservedStock exceeds stock, available clamps to 0 and the
// violation is returned alongside the updated variant. reservedStock is
// deliberately not auto-corrected.
func Recalculate(v *model.SizeVariant) *InvariantViolationError {
	available := v.Stock - v.ReservedStock
	if available < 0 {
		available = 0
	}
	v.AvailableStock = available
	v.IsOutOfStock = available <= 0
	v.IsLowStock = available > 0 && available <= v.LowStockThreshold

	if v.ReservedStock > v.Stock {
		return &InvariantViolationError{
			ProductID: v.ProductID,
			Size:      v.Size,
			Stock:     v.Stock,
			Reserved:  v.ReservedStock,
		}
	}
	return nil
}

// Reserve places a hold of quantity units. Fails fast with
// InsufficientStock when the hold does not fit in available stock;
// there is no queueing for stock to free up.
func Reserve(v *model.SizeVariant, quantity int) error {
	available := v.Stock - v.ReservedStock
	if available < 0 {
		available = 0
	}
	if quantity > available {
		return &InsufficientStockError{
			ProductID: v.ProductID,
			Size:      v.Size,
			Requested: quantity,
			Available: available,
		}
	}
	v.ReservedStock += quantity
	return nil
}

// Release gives back a hold of quantity units, clamping at zero so a
// prior inconsistency can never push reservedStock negative.
func Release(v *model.SizeVariant, quantity int) {
	v.ReservedStock -= quantity
	if v.ReservedStock < 0 {
		v.ReservedStock = 0
	}
}

// ApplyDelta changes physical stock by the signed quantity. Negative
// deltas that would take stock below zero fail with InsufficientStock.
// When releaseHold is set the same quantity is released from the
// reservation counter, converting a hold into the physical change (the
// confirmed-sale path).
func ApplyDelta(v *model.SizeVariant, quantity int, releaseHold bool) error {
	next := v.Stock + quantity
	if next < 0 {
		return &InsufficientStockError{
			ProductID: v.ProductID,
			Size:      v.Size,
			Requested: -quantity,
			Available: v.Stock,
		}
	}
	v.Stock = next
	if releaseHold && quantity != 0 {
		held := quantity
		if held < 0 {
			held = -held
		}
		Release(v, held)
	}
	return nil
}

// ValidateQuantity checks the ledger sign convention for a movement
// type: sales, losses and samples are negative; restocks, returns and
// initial counts positive; adjustments any non-zero; holds positive.
func ValidateQuantity(movementType string, quantity int) error {
	if quantity == 0 {
		return ErrUnknownMovementType
	}
	switch movementType {
	case model.MovementSale, model.MovementLoss, model.MovementSample:
		if quantity > 0 {
			return ErrUnknownMovementType
		}
	case model.MovementRestock, model.MovementReturn, model.MovementInitial,
		model.MovementReservation, model.MovementRelease:
		if quantity < 0 {
			return ErrUnknownMovementType
		}
	case model.MovementAdjustment:
		// any non-zero sign
	default:
		return ErrUnknownMovementType
	}
	return nil
}
