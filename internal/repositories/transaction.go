package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "it-inventory/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type TxManagerInterface interface {
	RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type TxManager struct {
	db      DB
	timeout time.Duration
}

// NewTxManager: timeout ограничивает каждую транзакцию целиком, включая ожидание блокировок.
func NewTxManager(db DB, timeout time.Duration) TxManagerInterface {
	return &TxManager{db: db, timeout: timeout}
}

// RunInTransaction выполняет fn в одной транзакции: ошибка или паника откатывают её,
// иначе транзакция коммитится.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	return translateTxError(m.run(ctx, fn))
}

func (m *TxManager) run(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("не удалось начать транзакцию: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		} else if err != nil {
			// Ошибка отката не важнее исходной.
			_ = tx.Rollback(context.WithoutCancel(ctx))
		} else {
			err = tx.Commit(ctx)
			if err != nil {
				err = fmt.Errorf("ошибка при коммите транзакции: %w", err)
			}
		}
	}()

	err = fn(tx)
	return err
}

// Коды PostgreSQL, при которых операцию имеет смысл повторить.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgUniqueViolation      = "23505"
)

func translateTxError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return fmt.Errorf("%w: %v", apperrors.ErrConflict, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, apperrors.ErrConflict) {
		return fmt.Errorf("%w: %v", apperrors.ErrConflict, err)
	}
	return err
}

// uniqueViolation превращает нарушение уникального индекса в DuplicateError.
// fields сопоставляет имя ограничения с полем и значением.
func uniqueViolation(err error, fields map[string][2]string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return err
	}
	if f, ok := fields[pgErr.ConstraintName]; ok {
		return &apperrors.DuplicateError{Field: f[0], Value: f[1]}
	}
	return &apperrors.DuplicateError{Field: pgErr.ConstraintName}
}
