package rubrics

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/cadence/pkg/pagination"
)

// System defines the read contract for rubrics. Every returned rubric carries
// its criteria ordered by order_index.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Rubric], error)

	Find(ctx context.Context, id uuid.UUID) (*Rubric, error)
}
