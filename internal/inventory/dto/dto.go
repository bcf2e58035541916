package dto

import "github.com/altastore/stock-service/internal/model"

type InventoryFilters struct {
	ProductID string
	Warehouse string
	Status    model.StockStatus
	Page      int
	PageSize  int
}

type MovementFilters struct {
	InventoryID string
	Type        model.MovementType
	Page        int
	PageSize    int
}

type InventoryStats struct {
	Total      int `json:"total"`
	LowStock   int `json:"low_stock"`
	OutOfStock int `json:"out_of_stock"`
	InStock    int `json:"in_stock"`
}

type TransferResult struct {
	From *model.InventoryRecord `json:"from"`
	To   *model.InventoryRecord `json:"to"`
}
