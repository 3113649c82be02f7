package stock

import (
	"errors"
	"fmt"
)

// ErrVersionConflict is returned when a compare-and-swap update keeps
// losing against concurrent writers after all retries.
var ErrVersionConflict = errors.New("stock: concurrent update conflict")

// ErrUnknownMovementType is returned for a movement type outside the
// ledger's enumeration, or a quantity whose sign contradicts the type.
var ErrUnknownMovementType = errors.New("stock: unknown movement type")

// InsufficientStockError reports a reservation or sale that exceeds the
// available quantity. Recoverable: the caller fails the item, not the
// process.
type InsufficientStockError struct {
	ProductID string
	Size      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s size %s: requested %d, available %d",
		e.ProductID, e.Size, e.Requested, e.Available)
}

// IsInsufficientStock reports whether err wraps an InsufficientStockError.
func IsInsufficientStock(err error) bool {
	var target *InsufficientStockError
	return errors.As(err, &target)
}

// InvariantViolationError flags reservedStock > stock, a data-integrity
// breach from an earlier bug. Processing continues on clamped values;
// the condition is surfaced through a critical alert, never a crash.
type InvariantViolationError struct {
	ProductID string
	Size      string
	Stock     int
	Reserved  int
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("stock invariant violated for product %s size %s: reserved %d > stock %d",
		e.ProductID, e.Size, e.Reserved, e.Stock)
}
