package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/terra-footwear/terra-stock-service/internal/ledger/dto"
	"github.com/terra-footwear/terra-stock-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) AppendWithVariantUpdate(ctx context.Context, m *model.StockMovement, v *model.SizeVariant, expectedStock, expectedReserved int, h *model.StockHistoryEntry) (bool, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	// The variant row is the guarded write: if the counters moved since the
	// caller read them, no row matches and the whole transaction rolls back.
	variantQuery := `
        UPDATE product_sizes SET
            stock = :stock,
            reserved_stock = :reserved_stock,
            available_stock = :available_stock,
            is_low_stock = :is_low_stock,
            is_out_of_stock = :is_out_of_stock,
            updated_at = :updated_at
        WHERE product_id = :product_id
          AND size = :size
          AND stock = :expected_stock
          AND reserved_stock = :expected_reserved
    `
	res, err := tx.NamedExecContext(ctx, variantQuery, map[string]interface{}{
		"stock":             v.Stock,
		"reserved_stock":    v.ReservedStock,
		"available_stock":   v.AvailableStock,
		"is_low_stock":      v.IsLowStock,
		"is_out_of_stock":   v.IsOutOfStock,
		"updated_at":        v.UpdatedAt,
		"product_id":        v.ProductID,
		"size":              v.Size,
		"expected_stock":    expectedStock,
		"expected_reserved": expectedReserved,
	})
	if err != nil {
		return false, fmt.Errorf("failed to update variant: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	movementQuery := `
        INSERT INTO stock_movements (
            id, reference, date, type, product_id, size, quantity,
            stock_before, stock_after, reason, order_reference,
            supplier_reference, unit_cost, total_cost, user_id, notes,
            is_automated, created_at
        )
        VALUES (
            :id, :reference, :date, :type, :product_id, :size, :quantity,
            :stock_before, :stock_after, :reason, :order_reference,
            :supplier_reference, :unit_cost, :total_cost, :user_id, :notes,
            :is_automated, :created_at
        )
    `
	if _, err := tx.NamedExecContext(ctx, movementQuery, m); err != nil {
		return false, fmt.Errorf("failed to insert movement: %w", err)
	}

	historyQuery := `
        INSERT INTO product_stock_history (
            id, product_id, date, type, size, quantity, reason, reference
        )
        VALUES (
            :id, :product_id, :date, :type, :size, :quantity, :reason, :reference
        )
    `
	if _, err := tx.NamedExecContext(ctx, historyQuery, h); err != nil {
		return false, fmt.Errorf("failed to insert history entry: %w", err)
	}

	return true, tx.Commit()
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	var movements []model.StockMovement
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
	if f.Type != "" {
		conditions = append(conditions, "type = :type")
		args["type"] = f.Type
	}
	if f.Automated != nil {
		conditions = append(conditions, "is_automated = :is_automated")
		args["is_automated"] = *f.Automated
	}
	if f.StartDate != nil {
		conditions = append(conditions, "date >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "date <= :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM stock_movements" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM stock_movements" + whereClause + " ORDER BY date DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &movements, args)
	return movements, count, err
}

func (r *PGRepository) ListByProduct(ctx context.Context, productID string) ([]model.StockMovement, error) {
	movements := []model.StockMovement{}
	query := `SELECT * FROM stock_movements WHERE product_id = $1 ORDER BY date ASC`
	err := r.DB.SelectContext(ctx, &movements, query, productID)
	return movements, err
}

func (r *PGRepository) SumPhysical(ctx context.Context, productID, size string) (int, int, error) {
	var row struct {
		Sum int `db:"sum"`
		N   int `db:"n"`
	}
	query := `
        SELECT COALESCE(SUM(quantity), 0) AS sum, count(*) AS n
        FROM stock_movements
        WHERE product_id = $1 AND size = $2
          AND type NOT IN ('reservation', 'release')
    `
	err := r.DB.GetContext(ctx, &row, query, productID, size)
	return row.Sum, row.N, err
}

func (r *PGRepository) SalesSince(ctx context.Context, productID, size string, since time.Time) (int, error) {
	var sold int
	query := `
        SELECT COALESCE(ABS(SUM(quantity)), 0)
        FROM stock_movements
        WHERE product_id = $1 AND size = $2 AND type = 'sale' AND date >= $3
    `
	err := r.DB.GetContext(ctx, &sold, query, productID, size, since)
	return sold, err
}

func (r *PGRepository) ReplaceHistory(ctx context.Context, productID string, entries []model.StockHistoryEntry) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM product_stock_history WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	query := `
        INSERT INTO product_stock_history (
            id, product_id, date, type, size, quantity, reason, reference
        )
        VALUES (
            :id, :product_id, :date, :type, :size, :quantity, :reason, :reference
        )
    `
	for i := range entries {
		if _, err := tx.NamedExecContext(ctx, query, &entries[i]); err != nil {
			return fmt.Errorf("failed to insert history entry: %w", err)
		}
	}

	return tx.Commit()
}
