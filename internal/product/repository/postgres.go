package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/altastore/stock-service/internal/model"
	"github.com/altastore/stock-service/internal/product/dto"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (
            id, sku, name, description, price, original_price,
            stock_quantity, stock_status, manage_stock, allow_backorders,
            is_active, created_at, updated_at
        )
        VALUES (
            :id, :sku, :name, :description, :price, :original_price,
            :stock_quantity, :stock_status, :manage_stock, :allow_backorders,
            :is_active, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	err := r.DB.GetContext(ctx, &p, `SELECT * FROM products WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.IsActive != nil {
		conditions = append(conditions, "is_active = :is_active")
		args["is_active"] = *f.IsActive
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, "(name ILIKE :search OR sku ILIKE :search)")
		args["search"] = "%" + f.SearchQuery + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	countQuery := "SELECT count(*) FROM products" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	orderBy := "created_at DESC"
	if f.SortBy != "" {
		switch f.SortBy {
		case "name":
			orderBy = "name"
		case "price":
			orderBy = "price"
		case "created_at":
			orderBy = "created_at"
		}
		if strings.ToLower(f.SortOrder) == "asc" {
			orderBy += " ASC"
		} else {
			orderBy += " DESC"
		}
	}

	query := fmt.Sprintf("SELECT * FROM products%s ORDER BY %s", whereClause, orderBy)
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	var products []model.Product
	err = nstmt.SelectContext(ctx, &products, args)
	return products, count, err
}

func (r *PGRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET name = :name,
            description = :description,
            price = :price,
            original_price = :original_price,
            stock_quantity = :stock_quantity,
            stock_status = :stock_status,
            manage_stock = :manage_stock,
            allow_backorders = :allow_backorders,
            is_active = :is_active,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	return err
}

func (r *PGRepository) IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error) {
	query := `SELECT count(*) FROM products WHERE sku = $1`
	args := []interface{}{sku}
	if excludeID != "" {
		query += ` AND id != $2`
		args = append(args, excludeID)
	}

	var count int
	if err := r.DB.GetContext(ctx, &count, query, args...); err != nil {
		return false, err
	}
	return count == 0, nil
}

func (r *PGRepository) ApplyStockSync(ctx context.Context, id string, quantity int64, status model.ProductStockStatus, price, originalPrice *float64) error {
	query := `
        UPDATE products
        SET stock_quantity = $2,
            stock_status = $3,
            price = COALESCE($4, price),
            original_price = COALESCE($5, original_price),
            updated_at = $6
        WHERE id = $1
    `
	res, err := r.DB.ExecContext(ctx, query, id, quantity, string(status), price, originalPrice, time.Now())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Errorf("product %s not found", id)
	}
	return nil
}
