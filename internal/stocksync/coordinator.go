// Package stocksync keeps the catalog stock mirror and the inventory store
// consistent. Projections are best-effort: a failure is logged and published
// as an event, never returned to the mutation that triggered it. Stock
// correctness on the triggering side always wins over display freshness.
package stocksync

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/altastore/stock-service/internal/apperr"
	invdto "github.com/altastore/stock-service/internal/inventory/dto"
	"github.com/altastore/stock-service/internal/model"
	"github.com/altastore/stock-service/pkg/logger"
)

// InventoryStore is the inventory-side surface the coordinator projects onto.
type InventoryStore interface {
	FindByProduct(ctx context.Context, productID string) ([]model.InventoryRecord, error)
	Create(ctx context.Context, input *invdto.CreateInventoryInput) (*model.InventoryRecord, error)
	ApplyCatalogProjection(ctx context.Context, id string, quantity int64, sellingPrice, costPrice float64) (*model.InventoryRecord, error)
	Adjust(ctx context.Context, input *invdto.AdjustStockInput) (*model.InventoryRecord, error)
}

// CatalogStore is the catalog-side surface the coordinator projects onto.
type CatalogStore interface {
	GetByID(ctx context.Context, id string) (*model.Product, error)
	ApplyInventorySync(ctx context.Context, productID string, quantity int64, status model.ProductStockStatus, price, originalPrice *float64) error
}

// FailureProducer publishes sync-failure events so mirror staleness is
// detectable without grepping logs.
type FailureProducer interface {
	Publish(ctx context.Context, key, value []byte) error
}

// FailureEvent is the payload published on every swallowed sync failure.
type FailureEvent struct {
	ID         string    `json:"id"`
	Direction  string    `json:"direction"`
	ProductID  string    `json:"product_id"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Coordinator struct {
	inventory InventoryStore
	catalog   CatalogStore
	producer  FailureProducer
	logger    logger.Logger
}

func NewCoordinator(log logger.Logger, producer FailureProducer) *Coordinator {
	return &Coordinator{
		producer: producer,
		logger:   log,
	}
}

// Bind attaches both stores. The coordinator sits between two use cases that
// each hold a reference to it, so it has to be wired after they exist.
func (c *Coordinator) Bind(inv InventoryStore, catalog CatalogStore) {
	c.inventory = inv
	c.catalog = catalog
}

// InventoryChanged projects an inventory mutation onto the catalog mirror.
func (c *Coordinator) InventoryChanged(ctx context.Context, rec *model.InventoryRecord) {
	p, err := c.catalog.GetByID(ctx, rec.ProductID)
	if err != nil {
		// A record without a catalog entry has nothing to mirror.
		if errors.Is(err, apperr.ErrNotFound) {
			return
		}
		c.reportFailure(ctx, "inventory_to_catalog", rec.ProductID, err)
		return
	}
	if !p.ManageStock {
		return
	}

	status := model.CatalogStatusFromInventory(rec.Status)
	price := rec.SellingPrice
	originalPrice := rec.CostPrice
	err = c.catalog.ApplyInventorySync(ctx, rec.ProductID, rec.CurrentStock, status, &price, &originalPrice)
	if err != nil {
		c.reportFailure(ctx, "inventory_to_catalog", rec.ProductID, err)
	}
}

// ProductUpdated projects a catalog-side stock/price edit onto the inventory
// store, creating the record lazily when the product has never been tracked.
func (c *Coordinator) ProductUpdated(ctx context.Context, p *model.Product) {
	if !p.ManageStock {
		return
	}

	rec, err := c.targetRecord(ctx, p.ID)
	if err != nil {
		c.reportFailure(ctx, "catalog_to_inventory", p.ID, err)
		return
	}

	if rec == nil {
		input := &invdto.CreateInventoryInput{
			ProductID:       p.ID,
			Warehouse:       model.DefaultWarehouse,
			CurrentStock:    p.StockQuantity,
			ReorderPoint:    defaultReorderPoint(p.StockQuantity),
			ReorderQuantity: defaultReorderQuantity(p.StockQuantity),
			SellingPrice:    p.Price,
			CostPrice:       originalOrPrice(p),
		}
		if _, err := c.inventory.Create(ctx, input); err != nil {
			c.reportFailure(ctx, "catalog_to_inventory", p.ID, err)
		}
		return
	}

	cost := rec.CostPrice
	if p.OriginalPrice != nil {
		cost = *p.OriginalPrice
	}
	if _, err := c.inventory.ApplyCatalogProjection(ctx, rec.ID, p.StockQuantity, p.Price, cost); err != nil {
		c.reportFailure(ctx, "catalog_to_inventory", p.ID, err)
	}
}

// ProductStockAdjusted routes an order-driven delta into the inventory store
// as a proper ledgered adjustment.
func (c *Coordinator) ProductStockAdjusted(ctx context.Context, productID string, delta int64, referenceID string) {
	rec, err := c.targetRecord(ctx, productID)
	if err != nil {
		c.reportFailure(ctx, "catalog_to_inventory", productID, err)
		return
	}
	if rec == nil {
		c.reportFailure(ctx, "catalog_to_inventory", productID,
			errNoInventoryRecord{productID: productID})
		return
	}

	mvType := model.MovementSale
	if delta > 0 {
		mvType = model.MovementReturn
	}
	_, err = c.inventory.Adjust(ctx, &invdto.AdjustStockInput{
		InventoryID:   rec.ID,
		Quantity:      delta,
		Type:          mvType,
		ReferenceID:   referenceID,
		ReferenceType: "order",
	})
	if err != nil {
		c.reportFailure(ctx, "catalog_to_inventory", productID, err)
	}
}

// targetRecord resolves the record the catalog mirror maps to: the default
// warehouse when present, otherwise the oldest record.
func (c *Coordinator) targetRecord(ctx context.Context, productID string) (*model.InventoryRecord, error) {
	recs, err := c.inventory.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	for i := range recs {
		if recs[i].Warehouse == model.DefaultWarehouse {
			return &recs[i], nil
		}
	}
	return &recs[0], nil
}

func (c *Coordinator) reportFailure(ctx context.Context, direction, productID string, cause error) {
	c.logger.Error("stock sync failed",
		zap.String("direction", direction),
		zap.String("product_id", productID),
		zap.Error(cause),
	)
	if c.producer == nil {
		return
	}

	event := FailureEvent{
		ID:         uuid.New().String(),
		Direction:  direction,
		ProductID:  productID,
		Reason:     cause.Error(),
		OccurredAt: time.Now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := c.producer.Publish(ctx, []byte(productID), payload); err != nil {
		c.logger.Error("failed to publish sync failure event", zap.Error(err))
	}
}

func defaultReorderPoint(stock int64) int64 {
	if p := stock / 10; p > 10 {
		return p
	}
	return 10
}

func defaultReorderQuantity(stock int64) int64 {
	if q := stock / 2; q > 50 {
		return q
	}
	return 50
}

func originalOrPrice(p *model.Product) float64 {
	if p.OriginalPrice != nil {
		return *p.OriginalPrice
	}
	return p.Price
}

type errNoInventoryRecord struct {
	productID string
}

func (e errNoInventoryRecord) Error() string {
	return "no inventory record for product " + e.productID
}
