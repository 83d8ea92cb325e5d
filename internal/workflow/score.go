package workflow

import (
	"math"

	"github.com/JaimeStill/cadence/internal/analysis"
	"github.com/JaimeStill/cadence/internal/rubrics"
)

// Score computes the weighted overall score for content against rubric.
// The weighted total sums score × weight over scored criteria that belong to
// the rubric; the maximum sums max_score × weight over every criterion, so
// unscored criteria pull the percentage down rather than dropping out.
// A rubric with no weighted maximum scores 0.
func Score(content analysis.Content, rubric *rubrics.Rubric) (overall, maxPossible float64) {
	maxPossible = rubric.MaxPossibleScore()

	var total float64
	for _, s := range content.Scores {
		c, ok := rubric.Criterion(s.CriterionID)
		if !ok {
			continue
		}
		total += s.Score * c.Weight
	}

	if maxPossible <= 0 {
		return 0, maxPossible
	}

	return math.Round(total/maxPossible*100*10) / 10, maxPossible
}
