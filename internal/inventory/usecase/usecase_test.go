package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altastore/stock-service/internal/apperr"
	"github.com/altastore/stock-service/internal/inventory/dto"
	"github.com/altastore/stock-service/internal/model"
	"github.com/altastore/stock-service/pkg/logger"
)

// fakeRepo mirrors the transactional repository contract in memory: an
// adjustment either lands together with its movement or not at all.
type fakeRepo struct {
	mu        sync.Mutex
	records   map[string]*model.InventoryRecord
	movements []model.InventoryMovement
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: map[string]*model.InventoryRecord{}}
}

func (f *fakeRepo) Create(ctx context.Context, rec *model.InventoryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *rec
	f.records[rec.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (*model.InventoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeRepo) Exists(ctx context.Context, productID string, variantID, size *string, warehouse string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records {
		if rec.ProductID == productID && rec.Warehouse == warehouse &&
			strEq(rec.VariantID, variantID) && strEq(rec.Size, size) {
			return true, nil
		}
	}
	return false, nil
}

func strEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (f *fakeRepo) FindByProduct(ctx context.Context, productID string) ([]model.InventoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.InventoryRecord
	for _, rec := range f.records {
		if rec.ProductID == productID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeRepo) FindAll(ctx context.Context, filters *dto.InventoryFilters) ([]model.InventoryRecord, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.InventoryRecord
	for _, rec := range f.records {
		out = append(out, *rec)
	}
	return out, len(out), nil
}

func (f *fakeRepo) FindLowStock(ctx context.Context) ([]model.InventoryRecord, error)   { return nil, nil }
func (f *fakeRepo) FindOutOfStock(ctx context.Context) ([]model.InventoryRecord, error) { return nil, nil }
func (f *fakeRepo) Stats(ctx context.Context) (*dto.InventoryStats, error)              { return &dto.InventoryStats{}, nil }

func (f *fakeRepo) Update(ctx context.Context, rec *model.InventoryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *rec
	f.records[rec.ID] = &cp
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	return nil
}

func (f *fakeRepo) HasMovements(ctx context.Context, inventoryID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.movements {
		if m.InventoryID == inventoryID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) AdjustWithMovement(ctx context.Context, id string, delta int64, movement *model.InventoryMovement) (*model.InventoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, fmt.Errorf("inventory record %s: %w", id, apperr.ErrNotFound)
	}
	if err := f.apply(rec, delta, movement); err != nil {
		return nil, err
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeRepo) apply(rec *model.InventoryRecord, delta int64, movement *model.InventoryMovement) error {
	newStock := rec.CurrentStock + delta
	if newStock < 0 {
		return fmt.Errorf("record %s has %d, requested %d: %w",
			rec.ID, rec.CurrentStock, -delta, apperr.ErrInsufficientStock)
	}
	movement.InventoryID = rec.ID
	movement.ProductID = rec.ProductID
	movement.Quantity = delta
	movement.PreviousStock = rec.CurrentStock
	movement.NewStock = newStock
	movement.CreatedAt = time.Now()

	rec.CurrentStock = newStock
	rec.AvailableStock = rec.CurrentStock - rec.ReservedStock
	rec.Status = model.DeriveStockStatus(rec.CurrentStock, rec.ReorderPoint, rec.Status)
	rec.UpdatedAt = time.Now()
	f.movements = append(f.movements, *movement)
	return nil
}

func (f *fakeRepo) TransferWithMovements(ctx context.Context, sourceID, destID string, quantity int64, out, in *model.InventoryMovement) (*model.InventoryRecord, *model.InventoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	src, ok := f.records[sourceID]
	if !ok {
		return nil, nil, fmt.Errorf("inventory record %s: %w", sourceID, apperr.ErrNotFound)
	}
	dst, ok := f.records[destID]
	if !ok {
		return nil, nil, fmt.Errorf("inventory record %s: %w", destID, apperr.ErrNotFound)
	}
	if err := f.apply(src, -quantity, out); err != nil {
		return nil, nil, err
	}
	if err := f.apply(dst, quantity, in); err != nil {
		return nil, nil, err
	}
	srcCp, dstCp := *src, *dst
	return &srcCp, &dstCp, nil
}

func (f *fakeRepo) ProjectCatalogStock(ctx context.Context, id string, quantity int64, sellingPrice, costPrice float64) (*model.InventoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, fmt.Errorf("inventory record %s: %w", id, apperr.ErrNotFound)
	}
	rec.CurrentStock = quantity
	if rec.ReservedStock > quantity {
		rec.ReservedStock = quantity
	}
	rec.AvailableStock = rec.CurrentStock - rec.ReservedStock
	rec.SellingPrice = sellingPrice
	rec.CostPrice = costPrice
	rec.Status = model.DeriveStockStatus(rec.CurrentStock, rec.ReorderPoint, rec.Status)
	rec.UpdatedAt = time.Now()
	cp := *rec
	return &cp, nil
}

func (f *fakeRepo) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.InventoryMovement
	for _, m := range f.movements {
		if filters.InventoryID != "" && m.InventoryID != filters.InventoryID {
			continue
		}
		out = append(out, m)
	}
	return out, len(out), nil
}

type recordedSync struct {
	mu      sync.Mutex
	records []*model.InventoryRecord
}

func (s *recordedSync) InventoryChanged(ctx context.Context, rec *model.InventoryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

func newTestUseCase() (*InventoryUseCase, *fakeRepo, *recordedSync) {
	repo := newFakeRepo()
	uc := NewInventoryUseCase(repo, nil, logger.NewNop())
	syncer := &recordedSync{}
	uc.SetCatalogSyncer(syncer)
	return uc, repo, syncer
}

func createRecord(t *testing.T, uc *InventoryUseCase, productID string, stock, reorderPoint int64) *model.InventoryRecord {
	t.Helper()
	rec, err := uc.Create(context.Background(), &dto.CreateInventoryInput{
		ProductID:    productID,
		CurrentStock: stock,
		ReorderPoint: reorderPoint,
		CostPrice:    5,
		SellingPrice: 10,
	})
	require.NoError(t, err)
	return rec
}

func TestCreateDefaultsAndValidation(t *testing.T) {
	uc, _, syncer := newTestUseCase()
	ctx := context.Background()

	rec := createRecord(t, uc, "prod-1", 100, 20)
	assert.Equal(t, model.DefaultWarehouse, rec.Warehouse)
	assert.Equal(t, int64(100), rec.CurrentStock)
	assert.Equal(t, int64(100), rec.AvailableStock)
	assert.Equal(t, model.StockInStock, rec.Status)
	assert.Len(t, syncer.records, 1)

	_, err := uc.Create(ctx, &dto.CreateInventoryInput{ProductID: ""})
	assert.True(t, apperr.IsValidation(err))

	_, err = uc.Create(ctx, &dto.CreateInventoryInput{ProductID: "p", CurrentStock: -1})
	assert.True(t, apperr.IsValidation(err))

	_, err = uc.Create(ctx, &dto.CreateInventoryInput{ProductID: "p", CurrentStock: 5, ReservedStock: 6})
	assert.True(t, apperr.IsValidation(err))

	// Same product, variant and warehouse again.
	_, err = uc.Create(ctx, &dto.CreateInventoryInput{ProductID: "prod-1", CurrentStock: 1})
	assert.True(t, apperr.IsValidation(err))
}

func TestCreateWritesNoOpeningMovement(t *testing.T) {
	uc, repo, _ := newTestUseCase()
	createRecord(t, uc, "prod-1", 100, 20)
	assert.Empty(t, repo.movements)
}

func TestAdjustDecrementsAndAppendsMovement(t *testing.T) {
	uc, repo, syncer := newTestUseCase()
	ctx := context.Background()
	rec := createRecord(t, uc, "prod-1", 100, 20)

	updated, err := uc.Adjust(ctx, &dto.AdjustStockInput{
		InventoryID: rec.ID,
		Quantity:    -30,
		Type:        model.MovementSale,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(70), updated.CurrentStock)
	assert.Equal(t, int64(70), updated.AvailableStock)
	assert.Equal(t, model.StockInStock, updated.Status)

	require.Len(t, repo.movements, 1)
	m := repo.movements[0]
	assert.Equal(t, model.MovementSale, m.Type)
	assert.Equal(t, int64(-30), m.Quantity)
	assert.Equal(t, int64(100), m.PreviousStock)
	assert.Equal(t, int64(70), m.NewStock)

	assert.Len(t, syncer.records, 2) // create + adjust
}

func TestAdjustInsufficientStockLeavesNothingBehind(t *testing.T) {
	uc, repo, _ := newTestUseCase()
	ctx := context.Background()
	rec := createRecord(t, uc, "prod-1", 70, 20)

	_, err := uc.Adjust(ctx, &dto.AdjustStockInput{
		InventoryID: rec.ID,
		Quantity:    -200,
		Type:        model.MovementSale,
	})
	require.ErrorIs(t, err, apperr.ErrInsufficientStock)

	after, err := uc.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(70), after.CurrentStock)
	assert.Empty(t, repo.movements)
}

func TestAdjustCrossesReorderPoint(t *testing.T) {
	uc, _, _ := newTestUseCase()
	ctx := context.Background()
	rec := createRecord(t, uc, "prod-1", 100, 20)

	updated, err := uc.Adjust(ctx, &dto.AdjustStockInput{InventoryID: rec.ID, Quantity: -85})
	require.NoError(t, err)
	assert.Equal(t, model.StockLowStock, updated.Status)

	updated, err = uc.Adjust(ctx, &dto.AdjustStockInput{InventoryID: rec.ID, Quantity: -15})
	require.NoError(t, err)
	assert.Equal(t, int64(0), updated.CurrentStock)
	assert.Equal(t, model.StockOutOfStock, updated.Status)
}

func TestAdjustValidation(t *testing.T) {
	uc, _, _ := newTestUseCase()
	ctx := context.Background()
	rec := createRecord(t, uc, "prod-1", 10, 2)

	_, err := uc.Adjust(ctx, &dto.AdjustStockInput{InventoryID: rec.ID, Quantity: 0})
	assert.True(t, apperr.IsValidation(err))

	_, err = uc.Adjust(ctx, &dto.AdjustStockInput{InventoryID: rec.ID, Quantity: 1, Type: "bogus"})
	assert.True(t, apperr.IsValidation(err))

	_, err = uc.Adjust(ctx, &dto.AdjustStockInput{InventoryID: "missing", Quantity: 1})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAdjustDefaultsToAdjustmentType(t *testing.T) {
	uc, repo, _ := newTestUseCase()
	rec := createRecord(t, uc, "prod-1", 10, 2)

	_, err := uc.Adjust(context.Background(), &dto.AdjustStockInput{InventoryID: rec.ID, Quantity: 5})
	require.NoError(t, err)
	require.Len(t, repo.movements, 1)
	assert.Equal(t, model.MovementAdjustment, repo.movements[0].Type)
}

func TestTransferMovesStockAndConservesTotal(t *testing.T) {
	uc, repo, _ := newTestUseCase()
	ctx := context.Background()

	src := createRecord(t, uc, "prod-1", 50, 5)
	dst, err := uc.Create(ctx, &dto.CreateInventoryInput{
		ProductID:    "prod-1",
		Warehouse:    "east",
		CurrentStock: 10,
		ReorderPoint: 5,
	})
	require.NoError(t, err)

	result, err := uc.Transfer(ctx, &dto.TransferStockInput{
		SourceID:    src.ID,
		ToWarehouse: "east",
		Quantity:    20,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(30), result.From.CurrentStock)
	assert.Equal(t, int64(30), result.To.CurrentStock)
	assert.Equal(t, int64(60), result.From.CurrentStock+result.To.CurrentStock)

	require.Len(t, repo.movements, 2)
	out, in := repo.movements[0], repo.movements[1]
	assert.Equal(t, model.MovementTransfer, out.Type)
	assert.Equal(t, model.MovementTransfer, in.Type)
	assert.Equal(t, int64(-20), out.Quantity)
	assert.Equal(t, int64(20), in.Quantity)
	require.NotNil(t, out.ReferenceID)
	require.NotNil(t, in.ReferenceID)
	assert.Equal(t, dst.ID, *out.ReferenceID)
	assert.Equal(t, src.ID, *in.ReferenceID)
}

func TestTransferValidation(t *testing.T) {
	uc, _, _ := newTestUseCase()
	ctx := context.Background()
	src := createRecord(t, uc, "prod-1", 50, 5)

	_, err := uc.Transfer(ctx, &dto.TransferStockInput{SourceID: src.ID, ToWarehouse: "east", Quantity: 0})
	assert.True(t, apperr.IsValidation(err))

	_, err = uc.Transfer(ctx, &dto.TransferStockInput{SourceID: src.ID, ToWarehouse: model.DefaultWarehouse, Quantity: 5})
	assert.True(t, apperr.IsValidation(err))

	_, err = uc.Transfer(ctx, &dto.TransferStockInput{SourceID: src.ID, ToWarehouse: "east", Quantity: 500})
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	// Destination record does not exist.
	_, err = uc.Transfer(ctx, &dto.TransferStockInput{SourceID: src.ID, ToWarehouse: "east", Quantity: 5})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateRecomputesAvailable(t *testing.T) {
	uc, _, _ := newTestUseCase()
	ctx := context.Background()
	rec := createRecord(t, uc, "prod-1", 100, 20)

	reserved := int64(30)
	updated, err := uc.Update(ctx, &dto.UpdateInventoryInput{ID: rec.ID, ReservedStock: &reserved})
	require.NoError(t, err)
	assert.Equal(t, int64(70), updated.AvailableStock)

	over := int64(200)
	_, err = uc.Update(ctx, &dto.UpdateInventoryInput{ID: rec.ID, ReservedStock: &over})
	assert.True(t, apperr.IsValidation(err))
}

func TestUpdateExplicitDiscontinueSticks(t *testing.T) {
	uc, _, _ := newTestUseCase()
	ctx := context.Background()
	rec := createRecord(t, uc, "prod-1", 100, 20)

	discontinued := model.StockDiscontinued
	updated, err := uc.Update(ctx, &dto.UpdateInventoryInput{ID: rec.ID, Status: &discontinued})
	require.NoError(t, err)
	assert.Equal(t, model.StockDiscontinued, updated.Status)

	// Stock movement does not revive a discontinued record.
	updated, err = uc.Adjust(ctx, &dto.AdjustStockInput{InventoryID: rec.ID, Quantity: 10})
	require.NoError(t, err)
	assert.Equal(t, model.StockDiscontinued, updated.Status)
}

func TestDeleteRefusedWhileMovementsExist(t *testing.T) {
	uc, _, _ := newTestUseCase()
	ctx := context.Background()
	rec := createRecord(t, uc, "prod-1", 100, 20)

	_, err := uc.Adjust(ctx, &dto.AdjustStockInput{InventoryID: rec.ID, Quantity: -10})
	require.NoError(t, err)

	err = uc.Delete(ctx, rec.ID)
	assert.True(t, apperr.IsValidation(err))

	fresh := createRecord(t, uc, "prod-2", 5, 1)
	require.NoError(t, uc.Delete(ctx, fresh.ID))
	_, err = uc.GetByID(ctx, fresh.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestApplyCatalogProjectionShrinksReservation(t *testing.T) {
	uc, _, syncer := newTestUseCase()
	ctx := context.Background()

	rec, err := uc.Create(ctx, &dto.CreateInventoryInput{
		ProductID:     "prod-1",
		CurrentStock:  100,
		ReservedStock: 40,
		ReorderPoint:  10,
	})
	require.NoError(t, err)
	before := len(syncer.records)

	updated, err := uc.ApplyCatalogProjection(ctx, rec.ID, 25, 12, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(25), updated.CurrentStock)
	assert.Equal(t, int64(25), updated.ReservedStock)
	assert.Equal(t, int64(0), updated.AvailableStock)
	assert.Equal(t, 12.0, updated.SellingPrice)

	// Projections never notify the catalog back.
	assert.Len(t, syncer.records, before)

	_, err = uc.ApplyCatalogProjection(ctx, rec.ID, -1, 0, 0)
	assert.True(t, apperr.IsValidation(err))
}

func TestConcurrentAdjustmentsNeverOversell(t *testing.T) {
	uc, repo, _ := newTestUseCase()
	ctx := context.Background()
	rec := createRecord(t, uc, "prod-1", 100, 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Adjust(ctx, &dto.AdjustStockInput{
				InventoryID: rec.ID,
				Quantity:    -3,
				Type:        model.MovementSale,
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	after, err := uc.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, after.CurrentStock, int64(0))
	assert.Equal(t, int64(100)-int64(succeeded)*3, after.CurrentStock)
	assert.Len(t, repo.movements, succeeded)
}
