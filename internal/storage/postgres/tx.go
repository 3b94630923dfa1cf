package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

// Коды SQLSTATE, которые безопасно повторить новой транзакцией.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

type txManager struct {
	db *sql.DB
}

// unitOfWork отдаёт репозитории, привязанные к одному *sql.Tx.
// Все операции через них попадают в общий commit или rollback.
type unitOfWork struct {
	products *productRepository
	orders   *orderRepository
}

func (u *unitOfWork) Products() domain.ProductCatalog { return u.products }
func (u *unitOfWork) Orders() domain.OrderStore       { return u.orders }

// WithinTx выполняет fn внутри одной транзакции READ COMMITTED.
// Конфликты сериализации и дедлоки транслируются в ErrTxConflict,
// чтобы вызывающий слой мог повторить единицу работы целиком.
func (m *txManager) WithinTx(ctx context.Context, fn func(ctx context.Context, uow domain.UnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	uow := &unitOfWork{
		products: &productRepository{q: tx},
		orders:   &orderRepository{q: tx},
	}

	if err := fn(ctx, uow); err != nil {
		_ = tx.Rollback()
		return mapTxError(err)
	}

	if err := tx.Commit(); err != nil {
		return mapTxError(fmt.Errorf("commit tx: %w", err))
	}

	return nil
}

// mapTxError подменяет повторяемые ошибки PostgreSQL на ErrTxConflict,
// остальные возвращает как есть.
func mapTxError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgUniqueViolation:
			return fmt.Errorf("%w: %s", domain.ErrTxConflict, pgErr.Code)
		}
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

var _ domain.TxManager = (*txManager)(nil)
