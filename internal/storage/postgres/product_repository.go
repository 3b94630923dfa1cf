package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

const opTimeout = 5 * time.Second

// querier покрывает общий интерфейс *sql.DB и *sql.Tx, чтобы один и тот же
// код репозитория работал в autocommit-режиме и внутри транзакции.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type productRepository struct {
	q querier
}

func (r *productRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var product domain.Product
	err := r.q.QueryRowContext(ctx, `
		SELECT id, price_minor, stock, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id).Scan(
		&product.ID, &product.PriceMinor, &product.Stock,
		&product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, &domain.ProductNotFoundError{ProductID: id}
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}

	return product, nil
}

func (r *productRepository) Save(ctx context.Context, product domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO products (id, price_minor, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET price_minor = EXCLUDED.price_minor,
		    stock = EXCLUDED.stock,
		    updated_at = EXCLUDED.updated_at
	`, product.ID, product.PriceMinor, product.Stock, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}

	return nil
}

// DecrementStock уменьшает остаток одним условным UPDATE: строка меняется
// только при stock >= qty, поэтому конкурентные списания не могут увести
// остаток в минус независимо от числа инстансов сервиса.
func (r *productRepository) DecrementStock(ctx context.Context, id string, qty int32) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $2,
		    updated_at = NOW()
		WHERE id = $1
		  AND stock >= $2
	`, id, qty)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement stock rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Условие не сработало: различаем отсутствующий товар и нехватку остатка.
	var stock int32
	err = r.q.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = $1`, id).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.ProductNotFoundError{ProductID: id}
		}
		return fmt.Errorf("check product stock: %w", err)
	}

	return &domain.InsufficientStockError{ProductID: id, Requested: qty, Available: stock}
}

func (r *productRepository) IncrementStock(ctx context.Context, id string, qty int32) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + $2,
		    updated_at = NOW()
		WHERE id = $1
	`, id, qty)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment stock rows affected: %w", err)
	}
	if affected == 0 {
		return &domain.ProductNotFoundError{ProductID: id}
	}

	return nil
}

var _ domain.ProductCatalog = (*productRepository)(nil)
