package product

import (
	"context"

	"github.com/altastore/stock-service/internal/model"
	"github.com/altastore/stock-service/internal/product/dto"
)

type Repository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error)
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id string) error
	IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error)

	// ApplyStockSync writes only the stock mirror fields. Used by the sync
	// coordinator so a projection cannot clobber unrelated catalog edits.
	ApplyStockSync(ctx context.Context, id string, quantity int64, status model.ProductStockStatus, price, originalPrice *float64) error
}
