package stocksync

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altastore/stock-service/internal/apperr"
	invdto "github.com/altastore/stock-service/internal/inventory/dto"
	"github.com/altastore/stock-service/internal/model"
	"github.com/altastore/stock-service/pkg/logger"
)

type fakeInventory struct {
	records     []model.InventoryRecord
	findErr     error
	created     []*invdto.CreateInventoryInput
	projections []projection
	adjusts     []*invdto.AdjustStockInput
	adjustErr   error
}

type projection struct {
	id           string
	quantity     int64
	sellingPrice float64
	costPrice    float64
}

func (f *fakeInventory) FindByProduct(ctx context.Context, productID string) ([]model.InventoryRecord, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.records, nil
}

func (f *fakeInventory) Create(ctx context.Context, input *invdto.CreateInventoryInput) (*model.InventoryRecord, error) {
	f.created = append(f.created, input)
	return &model.InventoryRecord{ID: "new", ProductID: input.ProductID}, nil
}

func (f *fakeInventory) ApplyCatalogProjection(ctx context.Context, id string, quantity int64, sellingPrice, costPrice float64) (*model.InventoryRecord, error) {
	f.projections = append(f.projections, projection{id, quantity, sellingPrice, costPrice})
	return &model.InventoryRecord{ID: id}, nil
}

func (f *fakeInventory) Adjust(ctx context.Context, input *invdto.AdjustStockInput) (*model.InventoryRecord, error) {
	if f.adjustErr != nil {
		return nil, f.adjustErr
	}
	f.adjusts = append(f.adjusts, input)
	return &model.InventoryRecord{ID: input.InventoryID}, nil
}

type fakeCatalog struct {
	product *model.Product
	getErr  error
	syncs   []catalogSync
	syncErr error
}

type catalogSync struct {
	productID string
	quantity  int64
	status    model.ProductStockStatus
}

func (f *fakeCatalog) GetByID(ctx context.Context, id string) (*model.Product, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.product, nil
}

func (f *fakeCatalog) ApplyInventorySync(ctx context.Context, productID string, quantity int64, status model.ProductStockStatus, price, originalPrice *float64) error {
	if f.syncErr != nil {
		return f.syncErr
	}
	f.syncs = append(f.syncs, catalogSync{productID, quantity, status})
	return nil
}

type fakeProducer struct {
	events []FailureEvent
}

func (f *fakeProducer) Publish(ctx context.Context, key, value []byte) error {
	var event FailureEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return err
	}
	f.events = append(f.events, event)
	return nil
}

func newTestCoordinator(inv *fakeInventory, catalog *fakeCatalog) (*Coordinator, *fakeProducer) {
	producer := &fakeProducer{}
	c := NewCoordinator(logger.NewNop(), producer)
	c.Bind(inv, catalog)
	return c, producer
}

func TestInventoryChangedProjectsStatus(t *testing.T) {
	cases := []struct {
		inventoryStatus model.StockStatus
		want            model.ProductStockStatus
	}{
		{model.StockInStock, model.ProductInStock},
		{model.StockLowStock, model.ProductInStock},
		{model.StockOutOfStock, model.ProductOutOfStock},
		{model.StockDiscontinued, model.ProductOutOfStock},
	}

	for _, tc := range cases {
		t.Run(string(tc.inventoryStatus), func(t *testing.T) {
			catalog := &fakeCatalog{product: &model.Product{ManageStock: true}}
			c, _ := newTestCoordinator(&fakeInventory{}, catalog)

			c.InventoryChanged(context.Background(), &model.InventoryRecord{
				ProductID:    "prod-1",
				CurrentStock: 42,
				Status:       tc.inventoryStatus,
			})

			require.Len(t, catalog.syncs, 1)
			assert.Equal(t, tc.want, catalog.syncs[0].status)
			assert.Equal(t, int64(42), catalog.syncs[0].quantity)
		})
	}
}

func TestInventoryChangedSkipsUnmanagedProduct(t *testing.T) {
	catalog := &fakeCatalog{product: &model.Product{ManageStock: false}}
	c, producer := newTestCoordinator(&fakeInventory{}, catalog)

	c.InventoryChanged(context.Background(), &model.InventoryRecord{ProductID: "prod-1"})

	assert.Empty(t, catalog.syncs)
	assert.Empty(t, producer.events)
}

func TestInventoryChangedMissingProductIsSilent(t *testing.T) {
	catalog := &fakeCatalog{getErr: fmt.Errorf("product x: %w", apperr.ErrNotFound)}
	c, producer := newTestCoordinator(&fakeInventory{}, catalog)

	c.InventoryChanged(context.Background(), &model.InventoryRecord{ProductID: "prod-1"})

	assert.Empty(t, producer.events)
}

func TestInventoryChangedFailureIsSwallowedAndPublished(t *testing.T) {
	catalog := &fakeCatalog{
		product: &model.Product{ManageStock: true},
		syncErr: fmt.Errorf("catalog write failed"),
	}
	c, producer := newTestCoordinator(&fakeInventory{}, catalog)

	// Must not panic or propagate; only report.
	c.InventoryChanged(context.Background(), &model.InventoryRecord{ProductID: "prod-1"})

	require.Len(t, producer.events, 1)
	assert.Equal(t, "inventory_to_catalog", producer.events[0].Direction)
	assert.Equal(t, "prod-1", producer.events[0].ProductID)
	assert.Contains(t, producer.events[0].Reason, "catalog write failed")
}

func TestProductUpdatedCreatesRecordLazily(t *testing.T) {
	inv := &fakeInventory{}
	c, _ := newTestCoordinator(inv, &fakeCatalog{})

	c.ProductUpdated(context.Background(), &model.Product{
		BaseModel:     model.BaseModel{ID: "prod-1"},
		ManageStock:   true,
		StockQuantity: 500,
		Price:         20,
	})

	require.Len(t, inv.created, 1)
	created := inv.created[0]
	assert.Equal(t, "prod-1", created.ProductID)
	assert.Equal(t, model.DefaultWarehouse, created.Warehouse)
	assert.Equal(t, int64(500), created.CurrentStock)
	assert.Equal(t, int64(50), created.ReorderPoint)     // 10% of 500
	assert.Equal(t, int64(250), created.ReorderQuantity) // 50% of 500
	assert.Equal(t, 20.0, created.SellingPrice)
}

func TestProductUpdatedLazyCreateFloors(t *testing.T) {
	inv := &fakeInventory{}
	c, _ := newTestCoordinator(inv, &fakeCatalog{})

	c.ProductUpdated(context.Background(), &model.Product{
		BaseModel:     model.BaseModel{ID: "prod-1"},
		ManageStock:   true,
		StockQuantity: 8,
	})

	require.Len(t, inv.created, 1)
	assert.Equal(t, int64(10), inv.created[0].ReorderPoint)
	assert.Equal(t, int64(50), inv.created[0].ReorderQuantity)
}

func TestProductUpdatedProjectsOntoMainWarehouse(t *testing.T) {
	inv := &fakeInventory{records: []model.InventoryRecord{
		{ID: "east-rec", ProductID: "prod-1", Warehouse: "east"},
		{ID: "main-rec", ProductID: "prod-1", Warehouse: model.DefaultWarehouse},
	}}
	c, _ := newTestCoordinator(inv, &fakeCatalog{})

	c.ProductUpdated(context.Background(), &model.Product{
		BaseModel:     model.BaseModel{ID: "prod-1"},
		ManageStock:   true,
		StockQuantity: 77,
		Price:         15,
	})

	assert.Empty(t, inv.created)
	require.Len(t, inv.projections, 1)
	assert.Equal(t, "main-rec", inv.projections[0].id)
	assert.Equal(t, int64(77), inv.projections[0].quantity)
}

func TestProductUpdatedSkipsUnmanaged(t *testing.T) {
	inv := &fakeInventory{}
	c, _ := newTestCoordinator(inv, &fakeCatalog{})

	c.ProductUpdated(context.Background(), &model.Product{
		BaseModel:   model.BaseModel{ID: "prod-1"},
		ManageStock: false,
	})

	assert.Empty(t, inv.created)
	assert.Empty(t, inv.projections)
}

func TestProductStockAdjustedRoutesAsLedgeredMovement(t *testing.T) {
	inv := &fakeInventory{records: []model.InventoryRecord{
		{ID: "rec-1", ProductID: "prod-1", Warehouse: model.DefaultWarehouse},
	}}
	c, _ := newTestCoordinator(inv, &fakeCatalog{})

	c.ProductStockAdjusted(context.Background(), "prod-1", -3, "order-9")

	require.Len(t, inv.adjusts, 1)
	adj := inv.adjusts[0]
	assert.Equal(t, "rec-1", adj.InventoryID)
	assert.Equal(t, int64(-3), adj.Quantity)
	assert.Equal(t, model.MovementSale, adj.Type)
	assert.Equal(t, "order-9", adj.ReferenceID)
	assert.Equal(t, "order", adj.ReferenceType)
}

func TestProductStockAdjustedPositiveDeltaIsReturn(t *testing.T) {
	inv := &fakeInventory{records: []model.InventoryRecord{
		{ID: "rec-1", ProductID: "prod-1", Warehouse: model.DefaultWarehouse},
	}}
	c, _ := newTestCoordinator(inv, &fakeCatalog{})

	c.ProductStockAdjusted(context.Background(), "prod-1", 2, "order-9")

	require.Len(t, inv.adjusts, 1)
	assert.Equal(t, model.MovementReturn, inv.adjusts[0].Type)
}

func TestProductStockAdjustedWithoutRecordReportsFailure(t *testing.T) {
	inv := &fakeInventory{}
	c, producer := newTestCoordinator(inv, &fakeCatalog{})

	c.ProductStockAdjusted(context.Background(), "prod-1", -3, "order-9")

	assert.Empty(t, inv.adjusts)
	require.Len(t, producer.events, 1)
	assert.Equal(t, "catalog_to_inventory", producer.events[0].Direction)
}

func TestProductStockAdjustedInventoryRejectionIsSwallowed(t *testing.T) {
	inv := &fakeInventory{
		records:   []model.InventoryRecord{{ID: "rec-1", ProductID: "prod-1", Warehouse: model.DefaultWarehouse}},
		adjustErr: fmt.Errorf("record rec-1 has 1, requested 3: %w", apperr.ErrInsufficientStock),
	}
	c, producer := newTestCoordinator(inv, &fakeCatalog{})

	c.ProductStockAdjusted(context.Background(), "prod-1", -3, "order-9")

	require.Len(t, producer.events, 1)
	assert.Contains(t, producer.events[0].Reason, "insufficient")
}

func TestTargetRecordFallsBackToFirst(t *testing.T) {
	inv := &fakeInventory{records: []model.InventoryRecord{
		{ID: "east-rec", ProductID: "prod-1", Warehouse: "east"},
		{ID: "west-rec", ProductID: "prod-1", Warehouse: "west"},
	}}
	c, _ := newTestCoordinator(inv, &fakeCatalog{})

	rec, err := c.targetRecord(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Equal(t, "east-rec", rec.ID)
}
