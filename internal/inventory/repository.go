package inventory

import (
	"context"

	"github.com/altastore/stock-service/internal/inventory/dto"
	"github.com/altastore/stock-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, rec *model.InventoryRecord) error
	GetByID(ctx context.Context, id string) (*model.InventoryRecord, error)
	Exists(ctx context.Context, productID string, variantID, size *string, warehouse string) (bool, error)
	FindByProduct(ctx context.Context, productID string) ([]model.InventoryRecord, error)
	FindAll(ctx context.Context, f *dto.InventoryFilters) ([]model.InventoryRecord, int, error)
	FindLowStock(ctx context.Context) ([]model.InventoryRecord, error)
	FindOutOfStock(ctx context.Context) ([]model.InventoryRecord, error)
	Stats(ctx context.Context) (*dto.InventoryStats, error)
	Update(ctx context.Context, rec *model.InventoryRecord) error
	Delete(ctx context.Context, id string) error
	HasMovements(ctx context.Context, inventoryID string) (bool, error)

	// AdjustWithMovement applies a signed delta and appends the movement in one
	// transaction. movement carries id/type/reference metadata; the repository
	// fills the before/after counts from the locked row.
	AdjustWithMovement(ctx context.Context, id string, delta int64, movement *model.InventoryMovement) (*model.InventoryRecord, error)

	// TransferWithMovements moves quantity between two records and appends both
	// ledger entries in one transaction.
	TransferWithMovements(ctx context.Context, sourceID, destID string, quantity int64, out, in *model.InventoryMovement) (*model.InventoryRecord, *model.InventoryRecord, error)

	// ProjectCatalogStock overwrites the counters/prices from the catalog side.
	// No movement is written; this is a projection, not a stock operation.
	ProjectCatalogStock(ctx context.Context, id string, quantity int64, sellingPrice, costPrice float64) (*model.InventoryRecord, error)

	ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error)
}
