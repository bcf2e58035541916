package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/altastore/stock-service/internal/apperr"
	"github.com/altastore/stock-service/internal/inventory/dto"
	"github.com/altastore/stock-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const insertRecordQuery = `
    INSERT INTO inventory_records (
        id, product_id, variant_id, size, warehouse,
        current_stock, reserved_stock, available_stock,
        reorder_point, reorder_quantity, max_stock,
        cost_price, selling_price, status,
        last_restocked, last_sold, created_at, updated_at
    )
    VALUES (
        :id, :product_id, :variant_id, :size, :warehouse,
        :current_stock, :reserved_stock, :available_stock,
        :reorder_point, :reorder_quantity, :max_stock,
        :cost_price, :selling_price, :status,
        :last_restocked, :last_sold, :created_at, :updated_at
    )
`

const updateRecordQuery = `
    UPDATE inventory_records
    SET current_stock = :current_stock,
        reserved_stock = :reserved_stock,
        available_stock = :available_stock,
        reorder_point = :reorder_point,
        reorder_quantity = :reorder_quantity,
        max_stock = :max_stock,
        cost_price = :cost_price,
        selling_price = :selling_price,
        status = :status,
        last_restocked = :last_restocked,
        last_sold = :last_sold,
        updated_at = :updated_at
    WHERE id = :id
`

const insertMovementQuery = `
    INSERT INTO inventory_movements (
        id, inventory_id, product_id, movement_type, quantity,
        previous_stock, new_stock, reference_id, reference_type,
        unit_cost, from_warehouse, to_warehouse, notes, created_at
    )
    VALUES (
        :id, :inventory_id, :product_id, :movement_type, :quantity,
        :previous_stock, :new_stock, :reference_id, :reference_type,
        :unit_cost, :from_warehouse, :to_warehouse, :notes, :created_at
    )
`

func (r *PGRepository) Create(ctx context.Context, rec *model.InventoryRecord) error {
	_, err := r.DB.NamedExecContext(ctx, insertRecordQuery, rec)
	return err
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.InventoryRecord, error) {
	var rec model.InventoryRecord
	err := r.DB.GetContext(ctx, &rec, `SELECT * FROM inventory_records WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *PGRepository) Exists(ctx context.Context, productID string, variantID, size *string, warehouse string) (bool, error) {
	query := `SELECT count(*) FROM inventory_records WHERE product_id = $1 AND warehouse = $2`
	args := []interface{}{productID, warehouse}

	if variantID != nil {
		query += fmt.Sprintf(` AND variant_id = $%d`, len(args)+1)
		args = append(args, *variantID)
	} else {
		query += ` AND variant_id IS NULL`
	}
	if size != nil {
		query += fmt.Sprintf(` AND size = $%d`, len(args)+1)
		args = append(args, *size)
	} else {
		query += ` AND size IS NULL`
	}

	var count int
	if err := r.DB.GetContext(ctx, &count, query, args...); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PGRepository) FindByProduct(ctx context.Context, productID string) ([]model.InventoryRecord, error) {
	var recs []model.InventoryRecord
	err := r.DB.SelectContext(ctx, &recs,
		`SELECT * FROM inventory_records WHERE product_id = $1 ORDER BY created_at ASC`, productID)
	return recs, err
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.InventoryFilters) ([]model.InventoryRecord, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.Warehouse != "" {
		conditions = append(conditions, "warehouse = :warehouse")
		args["warehouse"] = f.Warehouse
	}
	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = string(f.Status)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	countQuery := "SELECT count(*) FROM inventory_records" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM inventory_records" + whereClause + " ORDER BY updated_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	var recs []model.InventoryRecord
	err = nstmt.SelectContext(ctx, &recs, args)
	return recs, count, err
}

func (r *PGRepository) FindLowStock(ctx context.Context) ([]model.InventoryRecord, error) {
	var recs []model.InventoryRecord
	err := r.DB.SelectContext(ctx, &recs,
		`SELECT * FROM inventory_records WHERE current_stock <= reorder_point AND reorder_point > 0 ORDER BY current_stock ASC`)
	return recs, err
}

func (r *PGRepository) FindOutOfStock(ctx context.Context) ([]model.InventoryRecord, error) {
	var recs []model.InventoryRecord
	err := r.DB.SelectContext(ctx, &recs,
		`SELECT * FROM inventory_records WHERE current_stock = 0 ORDER BY updated_at DESC`)
	return recs, err
}

func (r *PGRepository) Stats(ctx context.Context) (*dto.InventoryStats, error) {
	var stats dto.InventoryStats
	err := r.DB.GetContext(ctx, &stats, `
        SELECT
            count(*) AS total,
            count(*) FILTER (WHERE current_stock <= reorder_point AND reorder_point > 0) AS lowstock,
            count(*) FILTER (WHERE current_stock = 0) AS outofstock
        FROM inventory_records
    `)
	if err != nil {
		return nil, err
	}
	stats.InStock = stats.Total - stats.OutOfStock
	return &stats, nil
}

func (r *PGRepository) Update(ctx context.Context, rec *model.InventoryRecord) error {
	_, err := r.DB.NamedExecContext(ctx, updateRecordQuery, rec)
	return err
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM inventory_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(apperr.ErrNotFound, "inventory record %s", id)
	}
	return nil
}

func (r *PGRepository) HasMovements(ctx context.Context, inventoryID string) (bool, error) {
	var count int
	err := r.DB.GetContext(ctx, &count,
		`SELECT count(*) FROM inventory_movements WHERE inventory_id = $1`, inventoryID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// lockRecord reads a row under FOR UPDATE so concurrent adjustments serialize
// on the database instead of racing on a stale read.
func lockRecord(ctx context.Context, tx *sqlx.Tx, id string) (*model.InventoryRecord, error) {
	var rec model.InventoryRecord
	err := tx.GetContext(ctx, &rec, `SELECT * FROM inventory_records WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(apperr.ErrNotFound, "inventory record %s", id)
		}
		return nil, err
	}
	return &rec, nil
}

func applyDelta(rec *model.InventoryRecord, delta int64, mvType model.MovementType, now time.Time) error {
	newStock := rec.CurrentStock + delta
	if newStock < 0 {
		return errors.Wrapf(apperr.ErrInsufficientStock,
			"record %s has %d, requested %d", rec.ID, rec.CurrentStock, -delta)
	}

	rec.CurrentStock = newStock
	rec.AvailableStock = newStock - rec.ReservedStock
	rec.Status = model.DeriveStockStatus(rec.CurrentStock, rec.ReorderPoint, rec.Status)
	rec.UpdatedAt = now

	if delta > 0 {
		t := now
		rec.LastRestocked = &t
	}
	if mvType == model.MovementSale {
		t := now
		rec.LastSold = &t
	}
	return nil
}

func (r *PGRepository) AdjustWithMovement(ctx context.Context, id string, delta int64, movement *model.InventoryMovement) (*model.InventoryRecord, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rec, err := lockRecord(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	movement.InventoryID = rec.ID
	movement.ProductID = rec.ProductID
	movement.Quantity = delta
	movement.PreviousStock = rec.CurrentStock
	movement.CreatedAt = now

	if err := applyDelta(rec, delta, movement.Type, now); err != nil {
		return nil, err
	}
	movement.NewStock = rec.CurrentStock

	if _, err := tx.NamedExecContext(ctx, updateRecordQuery, rec); err != nil {
		return nil, errors.Wrap(err, "failed to update inventory record")
	}
	if _, err := tx.NamedExecContext(ctx, insertMovementQuery, movement); err != nil {
		return nil, errors.Wrap(err, "failed to append movement")
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *PGRepository) TransferWithMovements(ctx context.Context, sourceID, destID string, quantity int64, out, in *model.InventoryMovement) (*model.InventoryRecord, *model.InventoryRecord, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	// Lock in id order so two opposing transfers cannot deadlock.
	first, second := sourceID, destID
	if second < first {
		first, second = second, first
	}
	locked := map[string]*model.InventoryRecord{}
	for _, id := range []string{first, second} {
		rec, err := lockRecord(ctx, tx, id)
		if err != nil {
			return nil, nil, err
		}
		locked[id] = rec
	}
	source, dest := locked[sourceID], locked[destID]

	now := time.Now()

	out.InventoryID = source.ID
	out.ProductID = source.ProductID
	out.Quantity = -quantity
	out.PreviousStock = source.CurrentStock
	out.CreatedAt = now

	in.InventoryID = dest.ID
	in.ProductID = dest.ProductID
	in.Quantity = quantity
	in.PreviousStock = dest.CurrentStock
	in.CreatedAt = now

	if err := applyDelta(source, -quantity, model.MovementTransfer, now); err != nil {
		return nil, nil, err
	}
	if err := applyDelta(dest, quantity, model.MovementTransfer, now); err != nil {
		return nil, nil, err
	}
	out.NewStock = source.CurrentStock
	in.NewStock = dest.CurrentStock

	for _, rec := range []*model.InventoryRecord{source, dest} {
		if _, err := tx.NamedExecContext(ctx, updateRecordQuery, rec); err != nil {
			return nil, nil, errors.Wrap(err, "failed to update inventory record")
		}
	}
	for _, mv := range []*model.InventoryMovement{out, in} {
		if _, err := tx.NamedExecContext(ctx, insertMovementQuery, mv); err != nil {
			return nil, nil, errors.Wrap(err, "failed to append movement")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return source, dest, nil
}

func (r *PGRepository) ProjectCatalogStock(ctx context.Context, id string, quantity int64, sellingPrice, costPrice float64) (*model.InventoryRecord, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rec, err := lockRecord(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	rec.CurrentStock = quantity
	// The catalog count is authoritative here; shrink the reservation rather
	// than let available_stock go negative.
	if rec.ReservedStock > quantity {
		rec.ReservedStock = quantity
	}
	rec.AvailableStock = quantity - rec.ReservedStock
	rec.SellingPrice = sellingPrice
	rec.CostPrice = costPrice
	rec.Status = model.DeriveStockStatus(rec.CurrentStock, rec.ReorderPoint, rec.Status)
	rec.UpdatedAt = time.Now()

	if _, err := tx.NamedExecContext(ctx, updateRecordQuery, rec); err != nil {
		return nil, errors.Wrap(err, "failed to project catalog stock")
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.InventoryID != "" {
		conditions = append(conditions, "inventory_id = :inventory_id")
		args["inventory_id"] = f.InventoryID
	}
	if f.Type != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = string(f.Type)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	countQuery := "SELECT count(*) FROM inventory_movements" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM inventory_movements" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	var movements []model.InventoryMovement
	err = nstmt.SelectContext(ctx, &movements, args)
	return movements, count, err
}
