package rubrics

import (
	"database/sql"
	"net/url"

	"github.com/google/uuid"

	"github.com/JaimeStill/cadence/pkg/query"
	"github.com/JaimeStill/cadence/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "rubrics", "r").
	Project("id", "ID").
	Project("user_id", "UserID").
	Project("name", "Name").
	Project("description", "Description").
	Project("rubric_type", "RubricType").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{Field: "Name"}

const criteriaColumns = `id, rubric_id, name, description, max_score, weight, order_index`

// Filters contains optional filtering criteria for rubric queries.
type Filters struct {
	UserID     *uuid.UUID `json:"user_id,omitempty"`
	RubricType *string    `json:"rubric_type,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("UserID", f.UserID).
		WhereEquals("RubricType", f.RubricType)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("user_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.UserID = &id
		}
	}

	if v := values.Get("rubric_type"); v == TypeBuiltIn || v == TypeCustom {
		f.RubricType = &v
	}

	return f
}

// Descriptions are nullable and read as empty text.
func scanRubric(s repository.Scanner) (Rubric, error) {
	var (
		r    Rubric
		desc sql.NullString
	)
	err := s.Scan(
		&r.ID,
		&r.UserID,
		&r.Name,
		&desc,
		&r.RubricType,
		&r.CreatedAt,
	)
	r.Description = desc.String
	r.Criteria = []Criterion{}
	return r, err
}

func scanCriterion(s repository.Scanner) (Criterion, error) {
	var (
		c    Criterion
		desc sql.NullString
	)
	err := s.Scan(
		&c.ID,
		&c.RubricID,
		&c.Name,
		&desc,
		&c.MaxScore,
		&c.Weight,
		&c.OrderIndex,
	)
	c.Description = desc.String
	return c, err
}
