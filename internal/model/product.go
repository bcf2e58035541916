package model

type ProductStockStatus string

const (
	ProductInStock     ProductStockStatus = "in_stock"
	ProductOutOfStock  ProductStockStatus = "out_of_stock"
	ProductOnBackorder ProductStockStatus = "on_backorder"
)

// Product is the catalog aggregate. StockQuantity/StockStatus/Price/
// OriginalPrice form the stock mirror: a denormalized copy of the inventory
// record kept fresh by the sync coordinator for storefront reads.
type Product struct {
	BaseModel
	SKU             string             `db:"sku" json:"sku"`
	Name            string             `db:"name" json:"name"`
	Description     *string            `db:"description" json:"description,omitempty"`
	Price           float64            `db:"price" json:"price"`
	OriginalPrice   *float64           `db:"original_price" json:"original_price,omitempty"`
	StockQuantity   int64              `db:"stock_quantity" json:"stock_quantity"`
	StockStatus     ProductStockStatus `db:"stock_status" json:"stock_status"`
	ManageStock     bool               `db:"manage_stock" json:"manage_stock"`
	AllowBackorders bool               `db:"allow_backorders" json:"allow_backorders"`
	IsActive        bool               `db:"is_active" json:"is_active"`
}

// DeriveProductStockStatus maps a mirror quantity to the catalog status.
func DeriveProductStockStatus(quantity int64, allowBackorders bool) ProductStockStatus {
	if quantity > 0 {
		return ProductInStock
	}
	if allowBackorders {
		return ProductOnBackorder
	}
	return ProductOutOfStock
}

// CatalogStatusFromInventory projects the inventory status onto the mirror.
// Low stock is still purchasable, so it maps to in_stock.
func CatalogStatusFromInventory(s StockStatus) ProductStockStatus {
	switch s {
	case StockInStock, StockLowStock:
		return ProductInStock
	default:
		return ProductOutOfStock
	}
}
