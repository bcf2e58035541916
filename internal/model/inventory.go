package model

import "time"

type StockStatus string

const (
	StockInStock      StockStatus = "in_stock"
	StockLowStock     StockStatus = "low_stock"
	StockOutOfStock   StockStatus = "out_of_stock"
	StockDiscontinued StockStatus = "discontinued"
)

type MovementType string

const (
	MovementPurchase   MovementType = "purchase"
	MovementSale       MovementType = "sale"
	MovementReturn     MovementType = "return"
	MovementAdjustment MovementType = "adjustment"
	MovementTransfer   MovementType = "transfer"
	MovementDamage     MovementType = "damage"
	MovementExpired    MovementType = "expired"
)

func (t MovementType) Valid() bool {
	switch t {
	case MovementPurchase, MovementSale, MovementReturn, MovementAdjustment,
		MovementTransfer, MovementDamage, MovementExpired:
		return true
	}
	return false
}

// DefaultWarehouse is the warehouse assumed when none is given, and the one
// the catalog-side sync targets.
const DefaultWarehouse = "main"

// InventoryRecord is the authoritative stock detail for one
// (product, variant, size, warehouse) combination. Stock counts are integers;
// they must never round-trip through floats.
type InventoryRecord struct {
	ID              string      `db:"id" json:"id"`
	ProductID       string      `db:"product_id" json:"product_id"`
	VariantID       *string     `db:"variant_id" json:"variant_id,omitempty"`
	Size            *string     `db:"size" json:"size,omitempty"`
	Warehouse       string      `db:"warehouse" json:"warehouse"`
	CurrentStock    int64       `db:"current_stock" json:"current_stock"`
	ReservedStock   int64       `db:"reserved_stock" json:"reserved_stock"`
	AvailableStock  int64       `db:"available_stock" json:"available_stock"`
	ReorderPoint    int64       `db:"reorder_point" json:"reorder_point"`
	ReorderQuantity int64       `db:"reorder_quantity" json:"reorder_quantity"`
	MaxStock        *int64      `db:"max_stock" json:"max_stock,omitempty"`
	CostPrice       float64     `db:"cost_price" json:"cost_price"`
	SellingPrice    float64     `db:"selling_price" json:"selling_price"`
	Status          StockStatus `db:"status" json:"status"`
	LastRestocked   *time.Time  `db:"last_restocked" json:"last_restocked,omitempty"`
	LastSold        *time.Time  `db:"last_sold" json:"last_sold,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}

// DeriveStockStatus computes the advisory status from the counters.
// Discontinued is sticky: it is an operator decision, not a derived state.
func DeriveStockStatus(currentStock, reorderPoint int64, previous StockStatus) StockStatus {
	if previous == StockDiscontinued {
		return StockDiscontinued
	}
	switch {
	case currentStock <= 0:
		return StockOutOfStock
	case currentStock <= reorderPoint:
		return StockLowStock
	default:
		return StockInStock
	}
}

// InventoryMovement is one append-only ledger entry. Movements are written in
// the same transaction as the stock change they record and are never updated
// or deleted.
type InventoryMovement struct {
	ID            string       `db:"id" json:"id"`
	InventoryID   string       `db:"inventory_id" json:"inventory_id"`
	ProductID     string       `db:"product_id" json:"product_id"`
	Type          MovementType `db:"movement_type" json:"type"`
	Quantity      int64        `db:"quantity" json:"quantity"`
	PreviousStock int64        `db:"previous_stock" json:"previous_stock"`
	NewStock      int64        `db:"new_stock" json:"new_stock"`
	ReferenceID   *string      `db:"reference_id" json:"reference_id,omitempty"`
	ReferenceType *string      `db:"reference_type" json:"reference_type,omitempty"`
	UnitCost      *float64     `db:"unit_cost" json:"unit_cost,omitempty"`
	FromWarehouse *string      `db:"from_warehouse" json:"from_warehouse,omitempty"`
	ToWarehouse   *string      `db:"to_warehouse" json:"to_warehouse,omitempty"`
	Notes         string       `db:"notes" json:"notes"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
}
