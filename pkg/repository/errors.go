package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// ErrorMap translates driver-level failures into a domain's sentinel errors.
// A nil field leaves the corresponding failure unmapped.
type ErrorMap struct {
	NotFound  error
	Duplicate error
	Reference error
}

// Map returns the domain error for err. sql.ErrNoRows maps to NotFound,
// a unique violation (23505) to Duplicate, and a foreign key violation
// (23503) to Reference. Anything else is returned unchanged.
func (m ErrorMap) Map(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) && m.NotFound != nil {
		return m.NotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation && m.Duplicate != nil:
			return m.Duplicate
		case pgErr.Code == pgForeignKeyViolation && m.Reference != nil:
			return m.Reference
		}
	}

	return err
}
