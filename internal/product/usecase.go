package product

import (
	"context"

	"github.com/altastore/stock-service/internal/model"
	"github.com/altastore/stock-service/internal/product/dto"
)

type UseCase interface {
	Create(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	GetByID(ctx context.Context, id string) (*model.Product, error)
	List(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error)
	Update(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error)
	Delete(ctx context.Context, id string) error

	// AdjustStock is the fulfillment entry point: a signed delta applied to
	// the mirror and routed through the sync coordinator into the inventory
	// store.
	AdjustStock(ctx context.Context, id string, delta int64, referenceID string) (*model.Product, error)

	// ApplyInventorySync is the inventory→catalog projection target. It never
	// triggers another sync round.
	ApplyInventorySync(ctx context.Context, productID string, quantity int64, status model.ProductStockStatus, price, originalPrice *float64) error
}

// InventorySyncer receives catalog-side stock changes for projection onto the
// inventory store. Implementations swallow their own failures.
type InventorySyncer interface {
	ProductUpdated(ctx context.Context, p *model.Product)
	ProductStockAdjusted(ctx context.Context, productID string, delta int64, referenceID string)
}
