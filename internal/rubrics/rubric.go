// Package rubrics exposes read access to grading rubrics and their criteria.
package rubrics

import (
	"time"

	"github.com/google/uuid"
)

// Rubric types.
const (
	TypeBuiltIn = "built_in"
	TypeCustom  = "custom"
)

// Criterion is one scored rubric dimension. Score contributions are
// score × Weight, bounded by MaxScore × Weight.
type Criterion struct {
	ID          uuid.UUID `json:"id"`
	RubricID    uuid.UUID `json:"rubric_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	MaxScore    int       `json:"max_score"`
	Weight      float64   `json:"weight"`
	OrderIndex  int       `json:"order_index"`
}

// Rubric is a named collection of criteria, ordered by OrderIndex.
type Rubric struct {
	ID          uuid.UUID   `json:"id"`
	UserID      *uuid.UUID  `json:"user_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	RubricType  string      `json:"rubric_type"`
	Criteria    []Criterion `json:"criteria"`
	CreatedAt   time.Time   `json:"created_at"`
}

// MaxPossibleScore returns the weighted total of every criterion's max score.
func (r *Rubric) MaxPossibleScore() float64 {
	var total float64
	for _, c := range r.Criteria {
		total += float64(c.MaxScore) * c.Weight
	}
	return total
}

// Criterion returns the criterion with the given id.
func (r *Rubric) Criterion(id uuid.UUID) (Criterion, bool) {
	for _, c := range r.Criteria {
		if c.ID == id {
			return c, true
		}
	}
	return Criterion{}, false
}
