// Package postgres implements the internal/store interfaces on top of a
// PostgreSQL database accessed through database/sql and the pgx/v5
// driver.
package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/catchouli/better-tactics/internal/store"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes this package maps to domain-meaningful errors.
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

// MapError maps a database error to the corresponding store sentinel
// error, wrapped with a generic message so internal schema details aren't
// leaked to callers; for mapped errors the original error is not kept in
// the chain. Errors it does not recognise are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: entity not found", store.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return fmt.Errorf("%w: entity already exists", store.ErrDuplicate)
		case foreignKeyViolationCode:
			return fmt.Errorf("%w: foreign key violation", store.ErrConstraintViolation)
		case checkViolationCode:
			return fmt.Errorf("%w: validation rule violation", store.ErrConstraintViolation)
		case notNullViolationCode:
			return fmt.Errorf("%w: not null violation", store.ErrConstraintViolation)
		default:
			return pgErr
		}
	}

	return err
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// IsForeignKeyViolation reports whether err is a PostgreSQL foreign key
// constraint violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode
}

// CheckRowsAffected returns store.ErrNotFound if result reflects zero
// affected rows, used after UPDATE/DELETE statements to detect a missing
// target row.
func CheckRowsAffected(result sql.Result, entityName string) error {
	if result == nil {
		return fmt.Errorf("%w: invalid result", store.ErrInternal)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: database operation error", store.ErrInternal)
	}

	if rowsAffected == 0 {
		if entityName == "" {
			return store.ErrNotFound
		}
		return fmt.Errorf("%w: %s not found", store.ErrNotFound, entityName)
	}

	return nil
}
