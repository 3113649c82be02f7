package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/terra-footwear/terra-stock-service/internal/alert/dto"
	"github.com/terra-footwear/terra-stock-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, a *model.StockAlert) error {
	query := `
        INSERT INTO stock_alerts (
            id, reference, alert_type, priority, product_id, size,
            current_stock, threshold, suggested_quantity, message,
            is_resolved, resolved_at, resolved_by, resolution_notes,
            action_taken, created_at, updated_at
        )
        VALUES (
            :id, :reference, :alert_type, :priority, :product_id, :size,
            :current_stock, :threshold, :suggested_quantity, :message,
            :is_resolved, :resolved_at, :resolved_by, :resolution_notes,
            :action_taken, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, a)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.StockAlert, error) {
	var a model.StockAlert
	query := `SELECT * FROM stock_alerts WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &a, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *PGRepository) FindUnresolved(ctx context.Context, productID, size, alertType string) (*model.StockAlert, error) {
	var a model.StockAlert
	query := `
        SELECT * FROM stock_alerts
        WHERE product_id = $1 AND size = $2 AND alert_type = $3 AND is_resolved = false
        ORDER BY created_at DESC
        LIMIT 1
    `
	err := r.DB.GetContext(ctx, &a, query, productID, size, alertType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *PGRepository) ListUnresolved(ctx context.Context, productID, size string) ([]model.StockAlert, error) {
	alerts := []model.StockAlert{}
	query := `
        SELECT * FROM stock_alerts
        WHERE product_id = $1 AND size = $2 AND is_resolved = false
        ORDER BY created_at
    `
	err := r.DB.SelectContext(ctx, &alerts, query, productID, size)
	return alerts, err
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.AlertFilters) ([]model.StockAlert, int, error) {
	var alerts []model.StockAlert
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.Size != "" {
		conditions = append(conditions, "size = :size")
		args["size"] = f.Size
	}
	if f.AlertType != "" {
		conditions = append(conditions, "alert_type = :alert_type")
		args["alert_type"] = f.AlertType
	}
	if f.Priority != "" {
		conditions = append(conditions, "priority = :priority")
		args["priority"] = f.Priority
	}
	if f.Unresolved {
		conditions = append(conditions, "is_resolved = false")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM stock_alerts" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM stock_alerts" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &alerts, args)
	return alerts, count, err
}

func (r *PGRepository) Update(ctx context.Context, a *model.StockAlert) error {
	query := `
        UPDATE stock_alerts SET
            priority = :priority,
            current_stock = :current_stock,
            suggested_quantity = :suggested_quantity,
            message = :message,
            is_resolved = :is_resolved,
            resolved_at = :resolved_at,
            resolved_by = :resolved_by,
            resolution_notes = :resolution_notes,
            action_taken = :action_taken,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, a)
	return err
}
