package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/altastore/stock-service/internal/apperr"
	"github.com/altastore/stock-service/internal/model"
	"github.com/altastore/stock-service/internal/product"
	"github.com/altastore/stock-service/internal/product/dto"
	"github.com/altastore/stock-service/pkg/cache"
	"github.com/altastore/stock-service/pkg/logger"
	"github.com/altastore/stock-service/pkg/search"
)

const productsIndex = "products"

const productsMapping = `{
	"mappings": {
		"properties": {
			"sku": { "type": "keyword" },
			"name": { "type": "text" },
			"description": { "type": "text" },
			"price": { "type": "double" },
			"stock_status": { "type": "keyword" },
			"created_at": { "type": "date" }
		}
	}
}`

type ProductUseCase struct {
	repo   product.Repository
	cache  *cache.RedisClient
	es     *search.Client
	syncer product.InventorySyncer
	logger logger.Logger
}

func NewProductUseCase(repo product.Repository, cache *cache.RedisClient, es *search.Client, log logger.Logger) *ProductUseCase {
	return &ProductUseCase{
		repo:   repo,
		cache:  cache,
		es:     es,
		logger: log,
	}
}

// SetInventorySyncer wires the sync coordinator after construction.
func (uc *ProductUseCase) SetInventorySyncer(s product.InventorySyncer) {
	uc.syncer = s
}

func (uc *ProductUseCase) Create(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	if input.SKU == "" {
		return nil, apperr.Validation("sku", "is required")
	}
	if input.Name == "" {
		return nil, apperr.Validation("name", "is required")
	}
	if input.Price < 0 {
		return nil, apperr.Validation("price", "must be >= 0")
	}
	if input.StockQuantity < 0 {
		return nil, apperr.Validation("stock_quantity", "must be >= 0")
	}

	unique, err := uc.repo.IsSKUUnique(ctx, input.SKU, "")
	if err != nil {
		return nil, err
	}
	if !unique {
		return nil, apperr.Validation("sku", "already exists")
	}

	now := time.Now()
	p := &model.Product{
		BaseModel:       model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		SKU:             input.SKU,
		Name:            input.Name,
		Price:           input.Price,
		OriginalPrice:   input.OriginalPrice,
		StockQuantity:   input.StockQuantity,
		StockStatus:     model.ProductOutOfStock,
		ManageStock:     input.ManageStock,
		AllowBackorders: input.AllowBackorders,
		IsActive:        input.IsActive,
	}
	if input.Description != "" {
		p.Description = &input.Description
	}
	if input.ManageStock {
		p.StockStatus = model.DeriveProductStockStatus(input.StockQuantity, input.AllowBackorders)
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	go uc.invalidateListCache(context.Background())
	go uc.syncToElastic(context.Background(), p)

	if p.ManageStock {
		uc.notifyInventory(ctx, p)
	}
	return p, nil
}

func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("product %s: %w", id, apperr.ErrNotFound)
	}
	return p, nil
}

func (uc *ProductUseCase) List(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	cacheKey := uc.listCacheKey(f)
	if uc.cache != nil && cacheKey != "" {
		if val, err := uc.cache.Client.Get(ctx, cacheKey).Result(); err == nil {
			var cached struct {
				Products []model.Product
				Count    int
			}
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return cached.Products, cached.Count, nil
			}
		}
	}

	if f.SearchQuery != "" && uc.es != nil {
		products, count, err := uc.searchElastic(ctx, f)
		if err == nil {
			return products, count, nil
		}
		uc.logger.Error("product search failed, falling back to database", zap.Error(err))
	}

	products, count, err := uc.repo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	if uc.cache != nil && cacheKey != "" {
		payload := struct {
			Products []model.Product
			Count    int
		}{products, count}
		if data, err := json.Marshal(payload); err == nil {
			uc.cache.Client.Set(ctx, cacheKey, data, 5*time.Minute)
		}
	}
	return products, count, nil
}

func (uc *ProductUseCase) searchElastic(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"query_string": map[string]interface{}{
				"query":  fmt.Sprintf("*%s*", f.SearchQuery),
				"fields": []string{"name^3", "sku", "description"},
			},
		},
		"from": (f.Page - 1) * f.PageSize,
	}
	if f.PageSize > 0 {
		query["size"] = f.PageSize
	}

	res, err := uc.es.Search(ctx, productsIndex, query)
	if err != nil {
		return nil, 0, err
	}

	products := make([]model.Product, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var p model.Product
		if err := json.Unmarshal(hit.Source, &p); err == nil {
			products = append(products, p)
		}
	}
	return products, res.Hits.Total.Value, nil
}

func (uc *ProductUseCase) Update(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	p, err := uc.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	stockTouched := false

	if input.Name != nil {
		p.Name = *input.Name
	}
	if input.Description != nil {
		p.Description = input.Description
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, apperr.Validation("price", "must be >= 0")
		}
		p.Price = *input.Price
		stockTouched = true
	}
	if input.OriginalPrice != nil {
		if *input.OriginalPrice < 0 {
			return nil, apperr.Validation("original_price", "must be >= 0")
		}
		p.OriginalPrice = input.OriginalPrice
		stockTouched = true
	}
	if input.ManageStock != nil {
		p.ManageStock = *input.ManageStock
	}
	if input.AllowBackorders != nil {
		p.AllowBackorders = *input.AllowBackorders
	}
	if input.StockQuantity != nil {
		if *input.StockQuantity < 0 {
			return nil, apperr.Validation("stock_quantity", "must be >= 0")
		}
		p.StockQuantity = *input.StockQuantity
		if p.ManageStock {
			p.StockStatus = model.DeriveProductStockStatus(p.StockQuantity, p.AllowBackorders)
		}
		stockTouched = true
	}
	if input.StockStatus != nil {
		p.StockStatus = *input.StockStatus
		stockTouched = true
	}
	if input.IsActive != nil {
		p.IsActive = *input.IsActive
	}

	p.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	go uc.invalidateListCache(context.Background())
	go uc.syncToElastic(context.Background(), p)

	if stockTouched && p.ManageStock {
		uc.notifyInventory(ctx, p)
	}
	return p, nil
}

func (uc *ProductUseCase) Delete(ctx context.Context, id string) error {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return nil // already gone
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}

	go uc.invalidateListCache(context.Background())
	if uc.es != nil {
		go func() {
			if err := uc.es.Delete(context.Background(), productsIndex, id); err != nil {
				uc.logger.Error("failed to delete product from search index", zap.Error(err))
			}
		}()
	}
	return nil
}

func (uc *ProductUseCase) AdjustStock(ctx context.Context, id string, delta int64, referenceID string) (*model.Product, error) {
	if delta == 0 {
		return nil, apperr.Validation("quantity", "must not be zero")
	}

	p, err := uc.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.ManageStock {
		return nil, apperr.Validation("manage_stock", "stock management is not enabled for this product")
	}

	newQuantity := p.StockQuantity + delta
	p.StockStatus = model.DeriveProductStockStatus(newQuantity, p.AllowBackorders)
	// The mirror never shows a negative count; the inventory store is the
	// side that rejects over-decrements.
	p.StockQuantity = max(0, newQuantity)
	p.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	go uc.invalidateListCache(context.Background())

	if uc.syncer != nil {
		uc.syncer.ProductStockAdjusted(ctx, p.ID, delta, referenceID)
	}
	return p, nil
}

func (uc *ProductUseCase) ApplyInventorySync(ctx context.Context, productID string, quantity int64, status model.ProductStockStatus, price, originalPrice *float64) error {
	p, err := uc.repo.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("product %s: %w", productID, apperr.ErrNotFound)
	}
	if !p.ManageStock {
		return nil
	}

	if err := uc.repo.ApplyStockSync(ctx, productID, quantity, status, price, originalPrice); err != nil {
		return err
	}

	go uc.invalidateListCache(context.Background())
	return nil
}

func (uc *ProductUseCase) notifyInventory(ctx context.Context, p *model.Product) {
	if uc.syncer == nil {
		return
	}
	uc.syncer.ProductUpdated(ctx, p)
}

func (uc *ProductUseCase) listCacheKey(f *dto.ProductFilters) string {
	data, err := json.Marshal(f)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("products:list:%x", md5.Sum(data))
}

func (uc *ProductUseCase) invalidateListCache(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	keys, err := uc.cache.Client.Keys(ctx, "products:list:*").Result()
	if err == nil && len(keys) > 0 {
		uc.cache.Client.Del(ctx, keys...)
	}
}

func (uc *ProductUseCase) syncToElastic(ctx context.Context, p *model.Product) {
	if uc.es == nil {
		return
	}
	_ = uc.es.CreateIndex(ctx, productsIndex, productsMapping)
	if err := uc.es.Index(ctx, productsIndex, p.ID, p); err != nil {
		uc.logger.Error("failed to index product", zap.String("product_id", p.ID), zap.Error(err))
	}
}
