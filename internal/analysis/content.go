package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/cadence/internal/evaluator"
	"github.com/JaimeStill/cadence/internal/prompts"
	"github.com/JaimeStill/cadence/internal/rubrics"
	"github.com/JaimeStill/cadence/pkg/formatting"
)

// NoCriteriaFeedback is the overall feedback for a rubric without criteria.
const NoCriteriaFeedback = "No rubric criteria available for grading."

// Content status values recorded with detailed results.
const (
	ContentComplete = "complete"
	ContentPartial  = "partial"
	ContentUngraded = "ungraded"
)

// CriterionScore is a reconciled, clamped score for one criterion.
type CriterionScore struct {
	CriterionID   uuid.UUID `json:"criterion_id"`
	CriterionName string    `json:"criterion_name"`
	Score         float64   `json:"score"`
	MaxScore      int       `json:"max_score"`
	Weight        float64   `json:"weight"`
	Feedback      string    `json:"feedback"`
}

// Content is the outcome of rubric-based content grading.
type Content struct {
	Scores          []CriterionScore `json:"criterion_scores"`
	OverallFeedback string           `json:"overall_feedback"`
}

// Status reports how much of a rubric with total criteria was scored.
func (c Content) Status(total int) string {
	switch {
	case len(c.Scores) == 0:
		return ContentUngraded
	case len(c.Scores) < total:
		return ContentPartial
	default:
		return ContentComplete
	}
}

// ScoreEntry is one per-criterion score as returned by the completion service.
type ScoreEntry struct {
	CriterionID string  `json:"criterion_id"`
	Score       float64 `json:"score"`
	Feedback    string  `json:"feedback"`
}

type contentResponse struct {
	Scores          []ScoreEntry `json:"scores"`
	OverallFeedback string       `json:"overall_feedback"`
}

// ContentGrader scores a transcript against rubric criteria through the
// completion service. It never fails: errors become an empty score list
// with the error described in the overall feedback.
type ContentGrader struct {
	client      evaluator.Client
	prompts     prompts.Source
	temperature float64
	logger      *slog.Logger
}

// NewContentGrader creates a ContentGrader.
func NewContentGrader(
	client evaluator.Client,
	src prompts.Source,
	temperature float64,
	logger *slog.Logger,
) *ContentGrader {
	return &ContentGrader{
		client:      client,
		prompts:     src,
		temperature: temperature,
		logger:      logger.With("analyzer", "content"),
	}
}

// Grade evaluates text against the rubric's criteria in their stored order.
func (g *ContentGrader) Grade(ctx context.Context, text string, rubric *rubrics.Rubric) Content {
	if len(rubric.Criteria) == 0 {
		return Content{
			Scores:          []CriterionScore{},
			OverallFeedback: NoCriteriaFeedback,
		}
	}

	resp, err := g.request(ctx, text, rubric)
	if err != nil {
		g.logger.WarnContext(ctx, "content grading failed", "rubric_id", rubric.ID, "error", err)
		return Content{
			Scores:          []CriterionScore{},
			OverallFeedback: fmt.Sprintf("Error during grading: %v", err),
		}
	}

	return Content{
		Scores:          Reconcile(resp.Scores, rubric.Criteria),
		OverallFeedback: resp.OverallFeedback,
	}
}

func (g *ContentGrader) request(ctx context.Context, text string, rubric *rubrics.Rubric) (contentResponse, error) {
	system, err := prompts.Compose(ctx, g.prompts, prompts.StageContent)
	if err != nil {
		return contentResponse{}, fmt.Errorf("compose prompt: %w", err)
	}

	raw, err := g.client.Complete(ctx, evaluator.Request{
		Stage:       string(prompts.StageContent),
		Prompt:      system + "\n\n" + contentPrompt(text, rubric),
		Temperature: g.temperature,
		JSON:        true,
	})
	if err != nil {
		return contentResponse{}, err
	}

	return formatting.Parse[contentResponse](raw)
}

func contentPrompt(text string, rubric *rubrics.Rubric) string {
	var sb strings.Builder

	sb.WriteString("You are evaluating a presentation transcript based on this rubric.\n\n")
	fmt.Fprintf(&sb, "Rubric: %s\n%s\n\nCriteria:\n", rubric.Name, rubric.Description)

	for i, c := range rubric.Criteria {
		fmt.Fprintf(&sb, "%d. ID: %s\n", i+1, c.ID)
		fmt.Fprintf(&sb, "   Name: %s\n", c.Name)
		fmt.Fprintf(&sb, "   Max Score: %d points\n", c.MaxScore)
		fmt.Fprintf(&sb, "   Weight: %s\n", strconv.FormatFloat(c.Weight, 'g', -1, 64))
		fmt.Fprintf(&sb, "   Description: %s\n\n", c.Description)
	}

	sb.WriteString("Transcript:\n")
	sb.WriteString(text)
	sb.WriteString("\n\nFor each criterion listed above, provide a score (0 to max_score) and 2-3 sentence feedback explaining the score.\n")
	sb.WriteString("Use the exact criterion ID from the list above in your response.\n")
	sb.WriteString("Also provide overall feedback (3-4 sentences) on the presentation.\n\n")
	sb.WriteString(`IMPORTANT: Use the exact criterion IDs provided above (the UUID strings after "ID:").`)

	return sb.String()
}

// Reconcile maps returned score entries onto criteria. Each entry matches by
// identifier first and by position second; entries matching neither, or
// matching a criterion already recorded, are dropped. Scores are clamped to
// [0, max_score].
func Reconcile(entries []ScoreEntry, criteria []rubrics.Criterion) []CriterionScore {
	index := make(map[uuid.UUID]int, len(criteria))
	for i, c := range criteria {
		index[c.ID] = i
	}

	used := make([]bool, len(criteria))
	scores := make([]CriterionScore, 0, len(entries))

	for pos, e := range entries {
		i, ok := matchByID(e.CriterionID, index)
		if !ok || used[i] {
			if pos >= len(criteria) || used[pos] {
				continue
			}
			i = pos
		}
		used[i] = true

		c := criteria[i]
		scores = append(scores, CriterionScore{
			CriterionID:   c.ID,
			CriterionName: c.Name,
			Score:         clamp(e.Score, 0, float64(c.MaxScore)),
			MaxScore:      c.MaxScore,
			Weight:        c.Weight,
			Feedback:      e.Feedback,
		})
	}

	return scores
}

func matchByID(raw string, index map[uuid.UUID]int) (int, bool) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	i, ok := index[id]
	return i, ok
}
