package dto

import "github.com/altastore/stock-service/internal/model"

type CreateProductInput struct {
	SKU             string   `json:"sku"`
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	Price           float64  `json:"price"`
	OriginalPrice   *float64 `json:"original_price,omitempty"`
	StockQuantity   int64    `json:"stock_quantity"`
	ManageStock     bool     `json:"manage_stock"`
	AllowBackorders bool     `json:"allow_backorders"`
	IsActive        bool     `json:"is_active"`
}

type UpdateProductInput struct {
	ID              string                    `json:"-"`
	Name            *string                   `json:"name,omitempty"`
	Description     *string                   `json:"description,omitempty"`
	Price           *float64                  `json:"price,omitempty"`
	OriginalPrice   *float64                  `json:"original_price,omitempty"`
	StockQuantity   *int64                    `json:"stock_quantity,omitempty"`
	StockStatus     *model.ProductStockStatus `json:"stock_status,omitempty"`
	ManageStock     *bool                     `json:"manage_stock,omitempty"`
	AllowBackorders *bool                     `json:"allow_backorders,omitempty"`
	IsActive        *bool                     `json:"is_active,omitempty"`
}
