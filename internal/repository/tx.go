package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"homestay/internal/database"
	apperrors "homestay/internal/errors"
)

type txKey struct{}

// querier is satisfied by both *sql.DB and *sql.Tx so repository
// methods run inside a transaction when one is carried by the context.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func txFromContext(ctx context.Context) *sql.Tx {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return nil
}

func withTx(ctx context.Context, db *database.DB, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Postgres error classes this core reacts to. The exclusion constraint
// on bookings is the serialization point for the check-then-insert
// race; a lost race surfaces as ErrDateRangeUnavailable, same as a
// plain overlap.
const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
	pgCheckViolation     = "23514"
	pgInvalidText        = "22P02"
)

func mapInsertError(err error) error {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return err
	}
	switch pqErr.Code {
	case pgExclusionViolation:
		return apperrors.ErrDateRangeUnavailable
	case pgUniqueViolation:
		if pqErr.Constraint == "bookings_provider_payment_id_key" {
			return apperrors.ErrDuplicatePayment
		}
		return err
	case pgCheckViolation, pgInvalidText:
		return apperrors.ErrInvalidInput
	}
	return err
}
