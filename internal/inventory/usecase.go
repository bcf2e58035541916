package inventory

import (
	"context"

	"github.com/altastore/stock-service/internal/inventory/dto"
	"github.com/altastore/stock-service/internal/model"
)

type UseCase interface {
	Create(ctx context.Context, input *dto.CreateInventoryInput) (*model.InventoryRecord, error)
	GetByID(ctx context.Context, id string) (*model.InventoryRecord, error)
	FindByProduct(ctx context.Context, productID string) ([]model.InventoryRecord, error)
	List(ctx context.Context, f *dto.InventoryFilters) ([]model.InventoryRecord, int, error)
	FindLowStock(ctx context.Context) ([]model.InventoryRecord, error)
	FindOutOfStock(ctx context.Context) ([]model.InventoryRecord, error)
	Stats(ctx context.Context) (*dto.InventoryStats, error)
	Update(ctx context.Context, input *dto.UpdateInventoryInput) (*model.InventoryRecord, error)
	Adjust(ctx context.Context, input *dto.AdjustStockInput) (*model.InventoryRecord, error)
	Transfer(ctx context.Context, input *dto.TransferStockInput) (*dto.TransferResult, error)
	Movements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error)
	Delete(ctx context.Context, id string) error

	// ApplyCatalogProjection is the catalog→inventory sync target. It must not
	// trigger another sync round.
	ApplyCatalogProjection(ctx context.Context, id string, quantity int64, sellingPrice, costPrice float64) (*model.InventoryRecord, error)
}
