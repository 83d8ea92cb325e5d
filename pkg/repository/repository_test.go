package repository_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/cadence/pkg/repository"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
	errReference = errors.New("reference")
)

func TestErrorMap(t *testing.T) {
	m := repository.ErrorMap{
		NotFound:  errNotFound,
		Duplicate: errDuplicate,
		Reference: errReference,
	}
	other := errors.New("other")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, errNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), errNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, errDuplicate},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, errReference},
		{"other pg error", &pgconn.PgError{Code: "42P01"}, nil},
		{"unrelated", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Map(tt.err)

			if tt.name == "other pg error" {
				var pgErr *pgconn.PgError
				if !errors.As(got, &pgErr) {
					t.Errorf("Map: got %v, want original pg error", got)
				}
				return
			}

			if !errors.Is(got, tt.want) && got != tt.want {
				t.Errorf("Map: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorMapUnsetFields(t *testing.T) {
	m := repository.ErrorMap{NotFound: errNotFound}

	dup := &pgconn.PgError{Code: "23505"}
	if got := m.Map(dup); got != error(dup) {
		t.Errorf("Map: got %v, want unchanged pg error", got)
	}
}
