package transcripts

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/cadence/pkg/pagination"
)

// System defines the read contract for transcripts.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Transcript], error)

	Find(ctx context.Context, id uuid.UUID) (*Transcript, error)
}
