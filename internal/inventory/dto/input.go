package dto

import "github.com/altastore/stock-service/internal/model"

type CreateInventoryInput struct {
	ProductID       string  `json:"product_id"`
	VariantID       *string `json:"variant_id,omitempty"`
	Size            *string `json:"size,omitempty"`
	Warehouse       string  `json:"warehouse"`
	CurrentStock    int64   `json:"current_stock"`
	ReservedStock   int64   `json:"reserved_stock"`
	AvailableStock  *int64  `json:"available_stock,omitempty"`
	ReorderPoint    int64   `json:"reorder_point"`
	ReorderQuantity int64   `json:"reorder_quantity"`
	MaxStock        *int64  `json:"max_stock,omitempty"`
	CostPrice       float64 `json:"cost_price"`
	SellingPrice    float64 `json:"selling_price"`
}

type UpdateInventoryInput struct {
	ID              string             `json:"-"`
	CurrentStock    *int64             `json:"current_stock,omitempty"`
	ReservedStock   *int64             `json:"reserved_stock,omitempty"`
	ReorderPoint    *int64             `json:"reorder_point,omitempty"`
	ReorderQuantity *int64             `json:"reorder_quantity,omitempty"`
	MaxStock        *int64             `json:"max_stock,omitempty"`
	CostPrice       *float64           `json:"cost_price,omitempty"`
	SellingPrice    *float64           `json:"selling_price,omitempty"`
	Status          *model.StockStatus `json:"status,omitempty"`
}

type AdjustStockInput struct {
	InventoryID   string             `json:"-"`
	Quantity      int64              `json:"quantity"` // signed delta
	Type          model.MovementType `json:"type"`
	ReferenceID   string             `json:"reference_id,omitempty"`
	ReferenceType string             `json:"reference_type,omitempty"`
	UnitCost      *float64           `json:"unit_cost,omitempty"`
	Notes         string             `json:"notes,omitempty"`
}

type TransferStockInput struct {
	SourceID    string `json:"-"`
	ToWarehouse string `json:"to_warehouse"`
	Quantity    int64  `json:"quantity"`
	Notes       string `json:"notes,omitempty"`
}
