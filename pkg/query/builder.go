package query

import (
	"fmt"
	"reflect"
	"strings"
)

type condition struct {
	clause string
	args   []any
}

// SortField represents a single column in an ORDER BY clause.
// Field is the logical field name (mapped via ProjectionMap).
type SortField struct {
	Field      string
	Descending bool
}

// Builder constructs SQL queries using a fluent API with automatic parameter
// numbering. Field names that are not projected are ignored, so caller-supplied
// filter and sort names never reach the generated SQL.
type Builder struct {
	projection        *ProjectionMap
	conditions        []condition
	orderByFields     []SortField
	defaultSortFields []SortField
}

// NewBuilder creates a Builder for the given projection with optional default sort fields.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:        projection,
		conditions:        make([]condition, 0),
		defaultSortFields: defaultSort,
	}
}

// ParseSortFields parses a comma-separated sort string into a SortField slice.
// Fields prefixed with "-" are descending, e.g. "status,-createdAt".
func ParseSortFields(s string) []SortField {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	fields := make([]SortField, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		after, desc := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: after, Descending: desc})
	}

	return fields
}

// BuildCount returns a COUNT(*) query with the current conditions.
func (b *Builder) BuildCount() (string, []any) {
	where, args := b.buildWhere()
	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", b.projection.From(), where)
	return sql, args
}

// BuildPage returns a paginated SELECT query with ordering, limit, and offset.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	where, args := b.buildWhere()
	offset := (page - 1) * pageSize

	sql := fmt.Sprintf(
		"SELECT %s FROM %s%s%s LIMIT %d OFFSET %d",
		b.projection.Columns(),
		b.projection.From(),
		where,
		b.buildOrderBy(),
		pageSize,
		offset,
	)

	return sql, args
}

// BuildSingle returns a SELECT query for a single record by ID.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	col, _ := b.projection.Column(idField)
	sql := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1",
		b.projection.Columns(),
		b.projection.From(),
		col,
	)
	return sql, []any{id}
}

// OrderByFields sets the sort order, overriding default sort fields.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.orderByFields = fields
	return b
}

// WhereEquals adds an equality condition. No-op for nil values.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	col, ok := b.projection.Column(field)
	if !ok || isNil(value) {
		return b
	}
	b.conditions = append(b.conditions, condition{
		clause: col + " = $%d",
		args:   []any{value},
	})
	return b
}

// WhereSearch adds an OR condition across multiple fields with ILIKE.
// No-op for nil or empty search.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" {
		return b
	}

	pattern := "%" + *search + "%"
	clauses := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))

	for _, field := range fields {
		col, ok := b.projection.Column(field)
		if !ok {
			continue
		}
		clauses = append(clauses, col+" ILIKE $%d")
		args = append(args, pattern)
	}

	if len(clauses) == 0 {
		return b
	}

	b.conditions = append(b.conditions, condition{
		clause: "(" + strings.Join(clauses, " OR ") + ")",
		args:   args,
	})
	return b
}

func (b *Builder) buildOrderBy() string {
	fields := b.orderByFields
	if len(fields) == 0 {
		fields = b.defaultSortFields
	}

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		col, ok := b.projection.Column(f.Field)
		if !ok {
			continue
		}
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}

	if len(parts) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (b *Builder) buildWhere() (string, []any) {
	if len(b.conditions) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(b.conditions))
	args := make([]any, 0)

	for _, cond := range b.conditions {
		clause := cond.clause
		for _, arg := range cond.args {
			args = append(args, arg)
			clause = strings.Replace(clause, "$%d", fmt.Sprintf("$%d", len(args)), 1)
		}
		clauses = append(clauses, clause)
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

func isNil(value any) bool {
	if value == nil {
		return true
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}

	return false
}
