package rubrics_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/cadence/internal/rubrics"
	"github.com/JaimeStill/cadence/pkg/pagination"
)

// rowsDB answers rubric queries with fixed rows: criteria queries get
// criteria, everything else gets the rubric row.
type rowsDB struct {
	rubric   []driver.Value
	criteria [][]driver.Value
}

func (d *rowsDB) Connect(context.Context) (driver.Conn, error) { return &rowsConn{db: d}, nil }
func (d *rowsDB) Driver() driver.Driver                        { return nil }

type rowsConn struct{ db *rowsDB }

func (c *rowsConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (c *rowsConn) Close() error                        { return nil }
func (c *rowsConn) Begin() (driver.Tx, error)           { return nil, errors.New("not supported") }

func (c *rowsConn) CheckNamedValue(*driver.NamedValue) error { return nil }

func (c *rowsConn) QueryContext(_ context.Context, q string, _ []driver.NamedValue) (driver.Rows, error) {
	if strings.Contains(q, "rubric_criteria") {
		return &fixedRows{
			cols: []string{"id", "rubric_id", "name", "description", "max_score", "weight", "order_index"},
			data: c.db.criteria,
		}, nil
	}
	return &fixedRows{
		cols: []string{"id", "user_id", "name", "description", "rubric_type", "created_at"},
		data: [][]driver.Value{c.db.rubric},
	}, nil
}

type fixedRows struct {
	cols []string
	data [][]driver.Value
	pos  int
}

func (r *fixedRows) Columns() []string { return r.cols }
func (r *fixedRows) Close() error      { return nil }

func (r *fixedRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.pos])
	r.pos++
	return nil
}

func TestFindNullDescriptions(t *testing.T) {
	rubricID := uuid.New()
	criterionID := uuid.New()

	fixture := &rowsDB{
		rubric: []driver.Value{
			rubricID.String(), nil, "Lightning Talk", nil, rubrics.TypeCustom, time.Now(),
		},
		criteria: [][]driver.Value{
			{criterionID.String(), rubricID.String(), "Delivery", nil, int64(5), float64(2), int64(0)},
		},
	}

	db := sql.OpenDB(fixture)
	defer db.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sys := rubrics.New(db, logger, pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})

	r, err := sys.Find(context.Background(), rubricID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	if r.Description != "" {
		t.Errorf("description: got %q, want empty", r.Description)
	}
	if r.UserID != nil {
		t.Errorf("user_id: got %v, want nil", r.UserID)
	}
	if len(r.Criteria) != 1 {
		t.Fatalf("criteria: got %d, want 1", len(r.Criteria))
	}

	c := r.Criteria[0]
	if c.ID != criterionID || c.Description != "" || c.MaxScore != 5 || c.Weight != 2 {
		t.Errorf("criterion: got %+v", c)
	}
}
