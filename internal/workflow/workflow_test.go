package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/cadence/internal/analysis"
	"github.com/JaimeStill/cadence/internal/evaluator"
	"github.com/JaimeStill/cadence/internal/prompts"
	"github.com/JaimeStill/cadence/internal/rubrics"
	"github.com/JaimeStill/cadence/internal/transcripts"
	"github.com/JaimeStill/cadence/internal/workflow"
)

type transcriptStore map[uuid.UUID]*transcripts.Transcript

func (s transcriptStore) Find(_ context.Context, id uuid.UUID) (*transcripts.Transcript, error) {
	if t, ok := s[id]; ok {
		return t, nil
	}
	return nil, transcripts.ErrNotFound
}

type rubricStore map[uuid.UUID]*rubrics.Rubric

func (s rubricStore) Find(_ context.Context, id uuid.UUID) (*rubrics.Rubric, error) {
	if r, ok := s[id]; ok {
		return r, nil
	}
	return nil, rubrics.ErrNotFound
}

type fixture struct {
	transcript *transcripts.Transcript
	rubric     *rubrics.Rubric
	rt         *workflow.Runtime
}

// newFixture builds a 100 word transcript over exactly 60 seconds and a
// single-criterion rubric {max 5, weight 1}. The stubbed content grader
// scores that criterion 4.
func newFixture() *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	words := make([]transcripts.Word, 100)
	text := ""
	for i := range words {
		words[i] = transcripts.Word{
			Word:  "point",
			Start: float64(i) * 60 / 100,
			End:   float64(i+1) * 60 / 100,
		}
		text += "point "
	}

	t := &transcripts.Transcript{ID: uuid.New(), Text: text, Words: words}

	r := &rubrics.Rubric{ID: uuid.New(), Name: "Informative", RubricType: rubrics.TypeBuiltIn}
	r.Criteria = []rubrics.Criterion{{
		ID: uuid.New(), RubricID: r.ID, Name: "Organization", MaxScore: 5, Weight: 1,
	}}

	client := evaluator.ClientFunc(func(_ context.Context, req evaluator.Request) (string, error) {
		if req.Stage == string(prompts.StageClarity) {
			return `{"nonsensical_words": []}`, nil
		}
		return fmt.Sprintf(
			`{"scores":[{"criterion_id":%q,"score":4,"feedback":"Clear structure."}],"overall_feedback":"Well organized."}`,
			r.Criteria[0].ID,
		), nil
	})

	return &fixture{
		transcript: t,
		rubric:     r,
		rt: &workflow.Runtime{
			Transcripts: transcriptStore{t.ID: t},
			Rubrics:     rubricStore{r.ID: r},
			Clarity:     analysis.NewClarityAnalyzer(client, prompts.Defaults{}, 0.3, logger),
			Content:     analysis.NewContentGrader(client, prompts.Defaults{}, 0.5, logger),
			Logger:      logger,
		},
	}
}

func TestExecuteEndToEnd(t *testing.T) {
	f := newFixture()

	result, err := workflow.Execute(context.Background(), f.rt, f.transcript.ID, f.rubric.ID)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.OverallScore != 80 {
		t.Errorf("OverallScore = %v, want 80", result.OverallScore)
	}
	if result.MaxPossibleScore != 5 {
		t.Errorf("MaxPossibleScore = %v, want 5", result.MaxPossibleScore)
	}
	if result.Pacing.WPMAvg != 100 {
		t.Errorf("WPMAvg = %v, want 100", result.Pacing.WPMAvg)
	}
	if result.Pacing.Score != 94 {
		t.Errorf("pacing score = %v, want 94", result.Pacing.Score)
	}
	if result.ContentStatus != analysis.ContentComplete {
		t.Errorf("ContentStatus = %q, want complete", result.ContentStatus)
	}
	if result.Content.OverallFeedback != "Well organized." {
		t.Errorf("OverallFeedback = %q", result.Content.OverallFeedback)
	}
	if result.TranscriptID != f.transcript.ID || result.RubricID != f.rubric.ID {
		t.Error("result should carry the transcript and rubric ids")
	}
}

func TestExecuteDeterministic(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := workflow.Execute(ctx, f.rt, f.transcript.ID, f.rubric.ID)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	second, err := workflow.Execute(ctx, f.rt, f.transcript.ID, f.rubric.ID)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}

	if first.OverallScore != second.OverallScore ||
		first.Pacing.Score != second.Pacing.Score ||
		first.Clarity.Score != second.Clarity.Score {
		t.Errorf("runs differ: %+v vs %+v", first, second)
	}
}

func TestExecuteMissingReferences(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		name         string
		transcriptID uuid.UUID
		rubricID     uuid.UUID
		want         error
	}{
		{"missing transcript", uuid.New(), f.rubric.ID, workflow.ErrTranscriptNotFound},
		{"missing rubric", f.transcript.ID, uuid.New(), workflow.ErrRubricNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := workflow.Execute(ctx, f.rt, tt.transcriptID, tt.rubricID)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if result != nil {
				t.Errorf("result = %+v, want nil", result)
			}
		})
	}
}

func TestScore(t *testing.T) {
	r := &rubrics.Rubric{ID: uuid.New()}
	r.Criteria = []rubrics.Criterion{
		{ID: uuid.New(), MaxScore: 5, Weight: 2},
		{ID: uuid.New(), MaxScore: 10, Weight: 1},
		{ID: uuid.New(), MaxScore: 4, Weight: 0.5},
	}

	score := func(id uuid.UUID, v float64) analysis.CriterionScore {
		return analysis.CriterionScore{CriterionID: id, Score: v}
	}

	tests := []struct {
		name        string
		scores      []analysis.CriterionScore
		wantOverall float64
	}{
		{"no scores", nil, 0},
		{"partial", []analysis.CriterionScore{score(r.Criteria[0].ID, 5)}, 45.5},
		{"all", []analysis.CriterionScore{
			score(r.Criteria[0].ID, 5),
			score(r.Criteria[1].ID, 10),
			score(r.Criteria[2].ID, 4),
		}, 100},
		{"foreign criterion ignored", []analysis.CriterionScore{score(uuid.New(), 5)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overall, maxPossible := workflow.Score(analysis.Content{Scores: tt.scores}, r)
			if maxPossible != 22 {
				t.Errorf("maxPossible = %v, want 22", maxPossible)
			}
			if overall != tt.wantOverall {
				t.Errorf("overall = %v, want %v", overall, tt.wantOverall)
			}
		})
	}
}

func TestScoreEmptyRubric(t *testing.T) {
	overall, maxPossible := workflow.Score(analysis.Content{}, &rubrics.Rubric{})
	if overall != 0 || maxPossible != 0 {
		t.Errorf("Score = (%v, %v), want (0, 0)", overall, maxPossible)
	}
}
