package stock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-footwear/terra-stock-service/internal/model"
)

func variant(stock, reserved, threshold int) *model.SizeVariant {
	return &model.SizeVariant{
		ProductID:         "prod-1",
		Size:              "42",
		Stock:             stock,
		ReservedStock:     reserved,
		LowStockThreshold: threshold,
	}
}

func TestRecalculateDerivesAvailable(t *testing.T) {
	v := variant(10, 3, 5)

	violation := Recalculate(v)

	require.Nil(t, violation)
	assert.Equal(t, 7, v.AvailableStock)
	assert.False(t, v.IsLowStock)
	assert.False(t, v.IsOutOfStock)
}

func TestRecalculateLowStockFlag(t *testing.T) {
	v := variant(8, 3, 5)

	Recalculate(v)

	assert.Equal(t, 5, v.AvailableStock)
	assert.True(t, v.IsLowStock)
	assert.False(t, v.IsOutOfStock)
}

func TestRecalculateOutOfStockFlag(t *testing.T) {
	v := variant(4, 4, 5)

	Recalculate(v)

	assert.Equal(t, 0, v.AvailableStock)
	assert.True(t, v.IsOutOfStock)
	assert.False(t, v.IsLowStock, "out of stock and low stock are mutually exclusive")
}

func TestRecalculateClampsAndReportsViolation(t *testing.T) {
	v := variant(2, 5, 5)

	violation := Recalculate(v)

	require.NotNil(t, violation)
	assert.Equal(t, 0, v.AvailableStock)
	assert.True(t, v.IsOutOfStock)
	assert.Equal(t, 5, v.ReservedStock, "reserved is never auto-corrected")
}

func TestReserveWithinAvailable(t *testing.T) {
	v := variant(10, 4, 5)

	err := Reserve(v, 6)

	require.NoError(t, err)
	assert.Equal(t, 10, v.ReservedStock)
	assert.Equal(t, 10, v.Stock, "a hold moves no physical stock")
}

func TestReserveBeyondAvailableFails(t *testing.T) {
	v := variant(10, 4, 5)

	err := Reserve(v, 7)

	require.Error(t, err)
	assert.True(t, IsInsufficientStock(err))
	assert.Equal(t, 4, v.ReservedStock, "failed reserve leaves the variant untouched")

	var ise *InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 7, ise.Requested)
	assert.Equal(t, 6, ise.Available)
}

func TestReleaseClampsAtZero(t *testing.T) {
	v := variant(10, 2, 5)

	Release(v, 5)

	assert.Equal(t, 0, v.ReservedStock)
}

func TestApplyDeltaRejectsNegativeStock(t *testing.T) {
	v := variant(3, 0, 5)

	err := ApplyDelta(v, -4, false)

	require.Error(t, err)
	assert.True(t, IsInsufficientStock(err))
	assert.Equal(t, 3, v.Stock)
}

func TestApplyDeltaWithReleaseHold(t *testing.T) {
	v := variant(10, 3, 5)

	err := ApplyDelta(v, -3, true)

	require.NoError(t, err)
	assert.Equal(t, 7, v.Stock)
	assert.Equal(t, 0, v.ReservedStock, "the hold converts into the decrement")
}

func TestValidateQuantitySignConventions(t *testing.T) {
	assert.NoError(t, ValidateQuantity(model.MovementSale, -2))
	assert.Error(t, ValidateQuantity(model.MovementSale, 2))

	assert.NoError(t, ValidateQuantity(model.MovementRestock, 20))
	assert.Error(t, ValidateQuantity(model.MovementRestock, -20))

	assert.NoError(t, ValidateQuantity(model.MovementAdjustment, -1))
	assert.NoError(t, ValidateQuantity(model.MovementAdjustment, 1))
	assert.Error(t, ValidateQuantity(model.MovementAdjustment, 0))

	assert.Error(t, ValidateQuantity("teleport", 1))
}
