package rubrics

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/cadence/pkg/pagination"
	"github.com/JaimeStill/cadence/pkg/query"
	"github.com/JaimeStill/cadence/pkg/repository"
)

var errorMap = repository.ErrorMap{NotFound: ErrNotFound}

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a rubric repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "rubrics"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Rubric], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "Description")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count rubrics: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRubric)
	if err != nil {
		return nil, fmt.Errorf("query rubrics: %w", err)
	}

	if err := r.attachCriteria(ctx, items); err != nil {
		return nil, err
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Rubric, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	rubric, err := repository.QueryOne(ctx, r.db, q, args, scanRubric)
	if err != nil {
		return nil, errorMap.Map(err)
	}

	criteria, err := repository.QueryMany(
		ctx, r.db,
		`SELECT `+criteriaColumns+`
		FROM rubric_criteria
		WHERE rubric_id = $1
		ORDER BY order_index, id`,
		[]any{id},
		scanCriterion,
	)
	if err != nil {
		return nil, fmt.Errorf("query criteria: %w", err)
	}

	rubric.Criteria = criteria
	return &rubric, nil
}

func (r *repo) attachCriteria(ctx context.Context, items []Rubric) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]string, len(items))
	index := make(map[uuid.UUID]int, len(items))
	for i, item := range items {
		ids[i] = item.ID.String()
		index[item.ID] = i
	}

	criteria, err := repository.QueryMany(
		ctx, r.db,
		`SELECT `+criteriaColumns+`
		FROM rubric_criteria
		WHERE rubric_id = ANY($1::uuid[])
		ORDER BY rubric_id, order_index, id`,
		[]any{ids},
		scanCriterion,
	)
	if err != nil {
		return fmt.Errorf("query criteria: %w", err)
	}

	for _, c := range criteria {
		if i, ok := index[c.RubricID]; ok {
			items[i].Criteria = append(items[i].Criteria, c)
		}
	}
	return nil
}
