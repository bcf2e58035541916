package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStockStatus(t *testing.T) {
	cases := []struct {
		name         string
		currentStock int64
		reorderPoint int64
		previous     StockStatus
		want         StockStatus
	}{
		{"above reorder point", 100, 20, "", StockInStock},
		{"at reorder point", 20, 20, "", StockLowStock},
		{"below reorder point", 5, 20, "", StockLowStock},
		{"zero", 0, 20, "", StockOutOfStock},
		{"zero reorder point still flags empty", 0, 0, "", StockOutOfStock},
		{"one with zero reorder point", 1, 0, "", StockInStock},
		{"discontinued is sticky", 100, 20, StockDiscontinued, StockDiscontinued},
		{"restock does not revive discontinued", 500, 20, StockDiscontinued, StockDiscontinued},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveStockStatus(tc.currentStock, tc.reorderPoint, tc.previous))
		})
	}
}

func TestDeriveProductStockStatus(t *testing.T) {
	assert.Equal(t, ProductInStock, DeriveProductStockStatus(5, false))
	assert.Equal(t, ProductInStock, DeriveProductStockStatus(5, true))
	assert.Equal(t, ProductOutOfStock, DeriveProductStockStatus(0, false))
	assert.Equal(t, ProductOnBackorder, DeriveProductStockStatus(0, true))
	assert.Equal(t, ProductOnBackorder, DeriveProductStockStatus(-2, true))
}

func TestCatalogStatusFromInventory(t *testing.T) {
	assert.Equal(t, ProductInStock, CatalogStatusFromInventory(StockInStock))
	assert.Equal(t, ProductInStock, CatalogStatusFromInventory(StockLowStock))
	assert.Equal(t, ProductOutOfStock, CatalogStatusFromInventory(StockOutOfStock))
	assert.Equal(t, ProductOutOfStock, CatalogStatusFromInventory(StockDiscontinued))
}

func TestMovementTypeValid(t *testing.T) {
	for _, mt := range []MovementType{
		MovementPurchase, MovementSale, MovementReturn, MovementAdjustment,
		MovementTransfer, MovementDamage, MovementExpired,
	} {
		assert.True(t, mt.Valid(), string(mt))
	}
	assert.False(t, MovementType("restock").Valid())
	assert.False(t, MovementType("").Valid())
}
