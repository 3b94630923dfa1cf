package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

type orderRepository struct {
	q querier
}

func (r *orderRepository) Create(ctx context.Context, order domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO orders (
			id, user_id, client_ref, total_items, total_minor,
			version, is_deleted, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		order.ID, order.UserID, order.ClientRef, order.TotalItems, order.TotalMinor,
		order.Version, order.IsDeleted, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrTxConflict
		}
		return fmt.Errorf("insert order: %w", err)
	}

	if err := r.insertLines(ctx, order.ID, order.Lines); err != nil {
		return err
	}

	return nil
}

func (r *orderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var order domain.Order
	err := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, client_ref, total_items, total_minor,
		       version, is_deleted, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id).Scan(
		&order.ID, &order.UserID, &order.ClientRef, &order.TotalItems, &order.TotalMinor,
		&order.Version, &order.IsDeleted, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	lines, err := r.loadLines(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Lines = lines

	return order, nil
}

func (r *orderRepository) List(ctx context.Context, query domain.ListQuery) (domain.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	where, args := buildListFilter(query)

	page := domain.Page{Offset: query.Offset, Limit: query.Limit}

	countQuery := "SELECT COUNT(*) FROM orders" + where
	if err := r.q.QueryRowContext(ctx, countQuery, args...).Scan(&page.Total); err != nil {
		return domain.Page{}, fmt.Errorf("count orders: %w", err)
	}

	selectQuery := `
		SELECT id, user_id, client_ref, total_items, total_minor,
		       version, is_deleted, created_at, updated_at
		FROM orders` + where + `
		ORDER BY created_at DESC, id DESC`
	if query.Limit > 0 {
		args = append(args, query.Limit)
		selectQuery += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if query.Offset > 0 {
		args = append(args, query.Offset)
		selectQuery += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q.QueryContext(ctx, selectQuery, args...)
	if err != nil {
		return domain.Page{}, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID, &order.UserID, &order.ClientRef, &order.TotalItems, &order.TotalMinor,
			&order.Version, &order.IsDeleted, &order.CreatedAt, &order.UpdatedAt,
		); err != nil {
			return domain.Page{}, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return domain.Page{}, fmt.Errorf("iterate order rows: %w", err)
	}

	for i := range orders {
		lines, err := r.loadLines(ctx, orders[i].ID)
		if err != nil {
			return domain.Page{}, err
		}
		orders[i].Lines = lines
	}

	page.Orders = orders
	return page, nil
}

func (r *orderRepository) Save(ctx context.Context, order domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `
		UPDATE orders
		SET user_id = $1,
		    client_ref = $2,
		    total_items = $3,
		    total_minor = $4,
		    version = version + 1,
		    is_deleted = $5,
		    updated_at = $6
		WHERE id = $7
		  AND version = $8
	`,
		order.UserID, order.ClientRef, order.TotalItems, order.TotalMinor,
		order.IsDeleted, order.UpdatedAt, order.ID, order.Version,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := r.orderExists(ctx, order.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.ErrTxConflict
	}

	if _, err := r.q.ExecContext(ctx, `DELETE FROM order_lines WHERE order_id = $1`, order.ID); err != nil {
		return fmt.Errorf("delete stale order lines: %w", err)
	}
	if err := r.insertLines(ctx, order.ID, order.Lines); err != nil {
		return err
	}

	return nil
}

func (r *orderRepository) Delete(ctx context.Context, order domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, order.ID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete order rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}

	return nil
}

func (r *orderRepository) insertLines(ctx context.Context, orderID string, lines []domain.OrderLine) error {
	for i, line := range lines {
		if _, err := r.q.ExecContext(ctx, `
			INSERT INTO order_lines (
				order_id, position, product_id, qty, unit_price_minor, total_minor
			) VALUES ($1,$2,$3,$4,$5,$6)
		`,
			orderID, i, line.ProductID, line.Qty, line.UnitPriceMinor, line.TotalMinor,
		); err != nil {
			return fmt.Errorf("insert order line %d: %w", i, err)
		}
	}
	return nil
}

func (r *orderRepository) loadLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT product_id, qty, unit_price_minor, total_minor
		FROM order_lines
		WHERE order_id = $1
		ORDER BY position ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order lines: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.OrderLine, 0)
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ProductID, &line.Qty, &line.UnitPriceMinor, &line.TotalMinor); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}

	return lines, nil
}

func (r *orderRepository) orderExists(ctx context.Context, orderID string) (bool, error) {
	var id string
	err := r.q.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1`, orderID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check order exists: %w", err)
}

// buildListFilter собирает WHERE-часть и аргументы выборки из критериев query.
func buildListFilter(query domain.ListQuery) (string, []any) {
	conditions := make([]string, 0, 2)
	args := make([]any, 0, 1)

	if userID, ok := query.ForUser(); ok {
		args = append(args, userID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if !query.WithDeleted() {
		conditions = append(conditions, "NOT is_deleted")
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

var _ domain.OrderStore = (*orderRepository)(nil)
