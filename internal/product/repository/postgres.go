package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/terra-footwear/terra-stock-service/internal/model"
	"github.com/terra-footwear/terra-stock-service/internal/product/dto"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO products (
            id, title, slug, collection, price, short_description,
            is_featured, is_new_arrival, created_at, updated_at
        )
        VALUES (
            :id, :title, :slug, :collection, :price, :short_description,
            :is_featured, :is_new_arrival, :created_at, :updated_at
        )
    `
	if _, err := tx.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	for i := range p.Sizes {
		if err := upsertVariantTx(ctx, tx, &p.Sizes[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	query := `SELECT * FROM products WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &p, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadSizes(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) FindBySlug(ctx context.Context, slug string) (*model.Product, error) {
	var p model.Product
	query := `SELECT * FROM products WHERE slug = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &p, query, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadSizes(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) loadSizes(ctx context.Context, p *model.Product) error {
	query := `SELECT * FROM product_sizes WHERE product_id = $1 ORDER BY size`
	return r.DB.SelectContext(ctx, &p.Sizes, query, p.ID)
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	var products []model.Product
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Collection != "" {
		conditions = append(conditions, "collection = :collection")
		args["collection"] = f.Collection
	}
	if f.IsFeatured != nil {
		conditions = append(conditions, "is_featured = :is_featured")
		args["is_featured"] = *f.IsFeatured
	}
	if f.IsNewArrival != nil {
		conditions = append(conditions, "is_new_arrival = :is_new_arrival")
		args["is_new_arrival"] = *f.IsNewArrival
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, "(title ILIKE :search OR short_description ILIKE :search)")
		args["search"] = "%" + f.SearchQuery + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM products" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM products" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	if err := nstmt.SelectContext(ctx, &products, args); err != nil {
		return nil, 0, err
	}

	for i := range products {
		if err := r.loadSizes(ctx, &products[i]); err != nil {
			return nil, 0, err
		}
	}

	return products, count, nil
}

func (r *PGRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products SET
            title = :title,
            slug = :slug,
            collection = :collection,
            price = :price,
            short_description = :short_description,
            is_featured = :is_featured,
            is_new_arrival = :is_new_arrival,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) GetVariant(ctx context.Context, productID, size string) (*model.SizeVariant, error) {
	var v model.SizeVariant
	query := `SELECT * FROM product_sizes WHERE product_id = $1 AND size = $2`
	err := r.DB.GetContext(ctx, &v, query, productID, size)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (r *PGRepository) UpsertVariant(ctx context.Context, v *model.SizeVariant) error {
	return upsertVariantTx(ctx, r.DB, v)
}

// upsertVariantTx works against both *sqlx.DB and *sqlx.Tx.
func upsertVariantTx(ctx context.Context, e sqlx.ExtContext, v *model.SizeVariant) error {
	query := `
        INSERT INTO product_sizes (
            product_id, size, stock, reserved_stock, available_stock,
            low_stock_threshold, is_low_stock, is_out_of_stock, updated_at
        )
        VALUES (
            :product_id, :size, :stock, :reserved_stock, :available_stock,
            :low_stock_threshold, :is_low_stock, :is_out_of_stock, :updated_at
        )
        ON CONFLICT (product_id, size)
        DO UPDATE SET
            stock = EXCLUDED.stock,
            reserved_stock = EXCLUDED.reserved_stock,
            available_stock = EXCLUDED.available_stock,
            low_stock_threshold = EXCLUDED.low_stock_threshold,
            is_low_stock = EXCLUDED.is_low_stock,
            is_out_of_stock = EXCLUDED.is_out_of_stock,
            updated_at = EXCLUDED.updated_at
    `
	_, err := sqlx.NamedExecContext(ctx, e, query, v)
	if err != nil {
		return fmt.Errorf("failed to upsert variant: %w", err)
	}
	return nil
}

func (r *PGRepository) ListHistory(ctx context.Context, productID string, limit int) ([]model.StockHistoryEntry, error) {
	entries := []model.StockHistoryEntry{}
	query := `SELECT * FROM product_stock_history WHERE product_id = $1 ORDER BY date DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	err := r.DB.SelectContext(ctx, &entries, query, productID)
	return entries, err
}
