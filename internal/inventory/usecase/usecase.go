package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/altastore/stock-service/internal/apperr"
	"github.com/altastore/stock-service/internal/inventory"
	"github.com/altastore/stock-service/internal/inventory/dto"
	"github.com/altastore/stock-service/internal/model"
	"github.com/altastore/stock-service/pkg/logger"
)

const (
	lockTTL        = 5 * time.Second
	lockAttempts   = 3
	lockRetryDelay = 100 * time.Millisecond
)

type InventoryUseCase struct {
	repo   inventory.Repository
	locker inventory.Locker
	syncer inventory.CatalogSyncer
	logger logger.Logger
}

func NewInventoryUseCase(repo inventory.Repository, locker inventory.Locker, log logger.Logger) *InventoryUseCase {
	return &InventoryUseCase{
		repo:   repo,
		locker: locker,
		logger: log,
	}
}

// SetCatalogSyncer wires the sync coordinator after construction; the
// coordinator needs both stores, so it cannot exist before them.
func (uc *InventoryUseCase) SetCatalogSyncer(s inventory.CatalogSyncer) {
	uc.syncer = s
}

func (uc *InventoryUseCase) Create(ctx context.Context, input *dto.CreateInventoryInput) (*model.InventoryRecord, error) {
	if input.ProductID == "" {
		return nil, apperr.Validation("product_id", "is required")
	}
	if input.CurrentStock < 0 {
		return nil, apperr.Validation("current_stock", "must be >= 0")
	}
	if input.ReservedStock < 0 {
		return nil, apperr.Validation("reserved_stock", "must be >= 0")
	}
	if input.ReservedStock > input.CurrentStock {
		return nil, apperr.Validation("reserved_stock", "must not exceed current_stock")
	}
	if input.ReorderPoint < 0 || input.ReorderQuantity < 0 {
		return nil, apperr.Validation("reorder_point", "must be >= 0")
	}
	if input.CostPrice < 0 || input.SellingPrice < 0 {
		return nil, apperr.Validation("cost_price", "must be >= 0")
	}
	if input.MaxStock != nil && *input.MaxStock < 0 {
		return nil, apperr.Validation("max_stock", "must be >= 0")
	}

	warehouse := input.Warehouse
	if warehouse == "" {
		warehouse = model.DefaultWarehouse
	}

	available := input.CurrentStock - input.ReservedStock
	if input.AvailableStock != nil && *input.AvailableStock != available {
		return nil, apperr.Validation("available_stock", "must equal current_stock - reserved_stock")
	}

	exists, err := uc.repo.Exists(ctx, input.ProductID, input.VariantID, input.Size, warehouse)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Validation("product_id", "already tracked in this warehouse")
	}

	now := time.Now()
	rec := &model.InventoryRecord{
		ID:              uuid.New().String(),
		ProductID:       input.ProductID,
		VariantID:       input.VariantID,
		Size:            input.Size,
		Warehouse:       warehouse,
		CurrentStock:    input.CurrentStock,
		ReservedStock:   input.ReservedStock,
		AvailableStock:  available,
		ReorderPoint:    input.ReorderPoint,
		ReorderQuantity: input.ReorderQuantity,
		MaxStock:        input.MaxStock,
		CostPrice:       input.CostPrice,
		SellingPrice:    input.SellingPrice,
		Status:          model.DeriveStockStatus(input.CurrentStock, input.ReorderPoint, ""),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// Opening balance, not a movement: the ledger starts with the first
	// adjustment.
	if err := uc.repo.Create(ctx, rec); err != nil {
		return nil, err
	}

	uc.notifyCatalog(ctx, rec)
	return rec, nil
}

func (uc *InventoryUseCase) GetByID(ctx context.Context, id string) (*model.InventoryRecord, error) {
	rec, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("inventory record %s: %w", id, apperr.ErrNotFound)
	}
	return rec, nil
}

func (uc *InventoryUseCase) FindByProduct(ctx context.Context, productID string) ([]model.InventoryRecord, error) {
	return uc.repo.FindByProduct(ctx, productID)
}

func (uc *InventoryUseCase) List(ctx context.Context, f *dto.InventoryFilters) ([]model.InventoryRecord, int, error) {
	return uc.repo.FindAll(ctx, f)
}

func (uc *InventoryUseCase) FindLowStock(ctx context.Context) ([]model.InventoryRecord, error) {
	return uc.repo.FindLowStock(ctx)
}

func (uc *InventoryUseCase) FindOutOfStock(ctx context.Context) ([]model.InventoryRecord, error) {
	return uc.repo.FindOutOfStock(ctx)
}

func (uc *InventoryUseCase) Stats(ctx context.Context) (*dto.InventoryStats, error) {
	return uc.repo.Stats(ctx)
}

func (uc *InventoryUseCase) Update(ctx context.Context, input *dto.UpdateInventoryInput) (*model.InventoryRecord, error) {
	rec, err := uc.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	stockTouched := false

	if input.ReservedStock != nil {
		if *input.ReservedStock < 0 {
			return nil, apperr.Validation("reserved_stock", "must be >= 0")
		}
		rec.ReservedStock = *input.ReservedStock
		stockTouched = true
	}
	if input.CurrentStock != nil {
		if *input.CurrentStock < 0 {
			return nil, apperr.Validation("current_stock", "must be >= 0")
		}
		rec.CurrentStock = *input.CurrentStock
		stockTouched = true
	}
	if stockTouched {
		// available_stock is always recomputed from the reservation actually
		// on the record, never taken from the caller.
		rec.AvailableStock = rec.CurrentStock - rec.ReservedStock
		if rec.AvailableStock < 0 {
			return nil, apperr.Validation("reserved_stock", "must not exceed current_stock")
		}
	}
	if input.ReorderPoint != nil {
		if *input.ReorderPoint < 0 {
			return nil, apperr.Validation("reorder_point", "must be >= 0")
		}
		rec.ReorderPoint = *input.ReorderPoint
	}
	if input.ReorderQuantity != nil {
		if *input.ReorderQuantity < 0 {
			return nil, apperr.Validation("reorder_quantity", "must be >= 0")
		}
		rec.ReorderQuantity = *input.ReorderQuantity
	}
	if input.MaxStock != nil {
		if *input.MaxStock < 0 {
			return nil, apperr.Validation("max_stock", "must be >= 0")
		}
		rec.MaxStock = input.MaxStock
	}
	if input.CostPrice != nil {
		if *input.CostPrice < 0 {
			return nil, apperr.Validation("cost_price", "must be >= 0")
		}
		rec.CostPrice = *input.CostPrice
	}
	if input.SellingPrice != nil {
		if *input.SellingPrice < 0 {
			return nil, apperr.Validation("selling_price", "must be >= 0")
		}
		rec.SellingPrice = *input.SellingPrice
	}

	if input.Status != nil {
		rec.Status = *input.Status
	} else if stockTouched {
		rec.Status = model.DeriveStockStatus(rec.CurrentStock, rec.ReorderPoint, rec.Status)
	}

	rec.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, rec); err != nil {
		return nil, err
	}

	if stockTouched || input.SellingPrice != nil || input.CostPrice != nil {
		uc.notifyCatalog(ctx, rec)
	}
	return rec, nil
}

func (uc *InventoryUseCase) Adjust(ctx context.Context, input *dto.AdjustStockInput) (*model.InventoryRecord, error) {
	if input.Quantity == 0 {
		return nil, apperr.Validation("quantity", "must not be zero")
	}
	mvType := input.Type
	if mvType == "" {
		mvType = model.MovementAdjustment
	}
	if !mvType.Valid() {
		return nil, apperr.Validation("type", "unknown movement type")
	}

	unlock, err := uc.lock(ctx, fmt.Sprintf("lock:inventory:record:%s", input.InventoryID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	movement := &model.InventoryMovement{
		ID:            uuid.New().String(),
		Type:          mvType,
		ReferenceID:   optional(input.ReferenceID),
		ReferenceType: optional(input.ReferenceType),
		UnitCost:      input.UnitCost,
		Notes:         input.Notes,
	}

	rec, err := uc.repo.AdjustWithMovement(ctx, input.InventoryID, input.Quantity, movement)
	if err != nil {
		return nil, err
	}

	uc.notifyCatalog(ctx, rec)
	return rec, nil
}

func (uc *InventoryUseCase) Transfer(ctx context.Context, input *dto.TransferStockInput) (*dto.TransferResult, error) {
	if input.Quantity <= 0 {
		return nil, apperr.Validation("quantity", "must be > 0")
	}
	if input.ToWarehouse == "" {
		return nil, apperr.Validation("to_warehouse", "is required")
	}

	source, err := uc.GetByID(ctx, input.SourceID)
	if err != nil {
		return nil, err
	}
	if source.Warehouse == input.ToWarehouse {
		return nil, apperr.Validation("to_warehouse", "must differ from source warehouse")
	}
	if source.CurrentStock < input.Quantity {
		return nil, fmt.Errorf("record %s has %d, requested %d: %w",
			source.ID, source.CurrentStock, input.Quantity, apperr.ErrInsufficientStock)
	}

	dest, err := uc.resolveDestination(ctx, source, input.ToWarehouse)
	if err != nil {
		return nil, err
	}

	unlock, err := uc.lock(ctx, fmt.Sprintf("lock:inventory:product:%s", source.ProductID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	out := &model.InventoryMovement{
		ID:            uuid.New().String(),
		Type:          model.MovementTransfer,
		ReferenceID:   optional(dest.ID),
		ReferenceType: optional("transfer_out"),
		FromWarehouse: optional(source.Warehouse),
		ToWarehouse:   optional(dest.Warehouse),
		Notes:         input.Notes,
	}
	in := &model.InventoryMovement{
		ID:            uuid.New().String(),
		Type:          model.MovementTransfer,
		ReferenceID:   optional(source.ID),
		ReferenceType: optional("transfer_in"),
		FromWarehouse: optional(source.Warehouse),
		ToWarehouse:   optional(dest.Warehouse),
		Notes:         input.Notes,
	}

	from, to, err := uc.repo.TransferWithMovements(ctx, source.ID, dest.ID, input.Quantity, out, in)
	if err != nil {
		return nil, err
	}

	uc.notifyCatalog(ctx, from)
	uc.notifyCatalog(ctx, to)
	return &dto.TransferResult{From: from, To: to}, nil
}

func (uc *InventoryUseCase) resolveDestination(ctx context.Context, source *model.InventoryRecord, warehouse string) (*model.InventoryRecord, error) {
	recs, err := uc.repo.FindByProduct(ctx, source.ProductID)
	if err != nil {
		return nil, err
	}
	for i := range recs {
		if recs[i].Warehouse == warehouse {
			return &recs[i], nil
		}
	}
	return nil, fmt.Errorf("no inventory record for product %s in warehouse %s: %w",
		source.ProductID, warehouse, apperr.ErrNotFound)
}

func (uc *InventoryUseCase) Movements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	return uc.repo.ListMovements(ctx, f)
}

func (uc *InventoryUseCase) Delete(ctx context.Context, id string) error {
	if _, err := uc.GetByID(ctx, id); err != nil {
		return err
	}
	has, err := uc.repo.HasMovements(ctx, id)
	if err != nil {
		return err
	}
	if has {
		return apperr.Validation("id", "record has movements; set status to discontinued instead")
	}
	return uc.repo.Delete(ctx, id)
}

func (uc *InventoryUseCase) ApplyCatalogProjection(ctx context.Context, id string, quantity int64, sellingPrice, costPrice float64) (*model.InventoryRecord, error) {
	if quantity < 0 {
		return nil, apperr.Validation("stock_quantity", "must be >= 0")
	}
	return uc.repo.ProjectCatalogStock(ctx, id, quantity, sellingPrice, costPrice)
}

func (uc *InventoryUseCase) notifyCatalog(ctx context.Context, rec *model.InventoryRecord) {
	if uc.syncer == nil {
		return
	}
	uc.syncer.InventoryChanged(ctx, rec)
}

// lock serializes mutations across instances. The database row lock is the
// correctness guard; this keeps hot records from hammering it.
func (uc *InventoryUseCase) lock(ctx context.Context, key string) (func(), error) {
	if uc.locker == nil {
		return func() {}, nil
	}

	token := uuid.New().String()
	for i := 0; i < lockAttempts; i++ {
		ok, err := uc.locker.AcquireLock(ctx, key, token, lockTTL)
		if err != nil {
			uc.logger.Error("failed to acquire inventory lock", zap.String("key", key), zap.Error(err))
		}
		if ok {
			return func() {
				if err := uc.locker.ReleaseLock(ctx, key, token); err != nil {
					uc.logger.Error("failed to release inventory lock", zap.String("key", key), zap.Error(err))
				}
			}, nil
		}
		time.Sleep(lockRetryDelay)
	}
	return nil, errors.New("inventory busy, please retry")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
