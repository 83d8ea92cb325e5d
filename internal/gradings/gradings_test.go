package gradings_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/cadence/internal/analysis"
	"github.com/JaimeStill/cadence/internal/evaluator"
	"github.com/JaimeStill/cadence/internal/gradings"
	"github.com/JaimeStill/cadence/internal/jobs"
	"github.com/JaimeStill/cadence/internal/prompts"
	"github.com/JaimeStill/cadence/internal/rubrics"
	"github.com/JaimeStill/cadence/internal/transcripts"
	"github.com/JaimeStill/cadence/internal/workflow"
	"github.com/JaimeStill/cadence/pkg/lifecycle"
	"github.com/JaimeStill/cadence/pkg/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memoryStore applies the same attempt guard as the database store.
type memoryStore struct {
	mu       sync.Mutex
	gradings map[uuid.UUID]*gradings.Grading
}

func newMemoryStore(gs ...*gradings.Grading) *memoryStore {
	s := &memoryStore{gradings: make(map[uuid.UUID]*gradings.Grading)}
	for _, g := range gs {
		s.gradings[g.ID] = g
	}
	return s
}

func (s *memoryStore) claim(id uuid.UUID, attempt int) (*gradings.Grading, error) {
	g, ok := s.gradings[id]
	if !ok {
		return nil, gradings.ErrNotFound
	}
	if g.Attempt != attempt || g.Status != gradings.StatusProcessing {
		return nil, gradings.ErrStaleAttempt
	}
	return g, nil
}

func (s *memoryStore) Begin(_ context.Context, id uuid.UUID, attempt int) (*gradings.Grading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.claim(id, attempt)
	if err != nil {
		return nil, err
	}
	out := *g
	return &out, nil
}

func (s *memoryStore) Complete(_ context.Context, id uuid.UUID, attempt int, r *workflow.Result) (*gradings.Grading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.claim(id, attempt)
	if err != nil {
		return nil, err
	}
	g.Apply(r)
	out := *g
	return &out, nil
}

func (s *memoryStore) Fail(_ context.Context, id uuid.UUID, attempt int, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.claim(id, attempt)
	if err != nil {
		return err
	}
	g.Reset()
	g.Status = gradings.StatusFailed
	msg := cause.Error()
	g.Error = &msg
	return nil
}

// resubmit mirrors replace_existing: reset the grading and bump its attempt.
func (s *memoryStore) resubmit(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.gradings[id]
	g.Reset()
	g.Status = gradings.StatusProcessing
	g.Error = nil
	g.Attempt++
}

func (s *memoryStore) get(id uuid.UUID) gradings.Grading {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.gradings[id]
}

type blobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newBlobStore() *blobStore {
	return &blobStore{blobs: make(map[string][]byte)}
}

func (b *blobStore) Enabled() bool { return true }
func (b *blobStore) Start(*lifecycle.Coordinator) error { return nil }

func (b *blobStore) Upload(_ context.Context, key string, reader io.Reader, _ string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[key] = data
	return nil
}

func (b *blobStore) Download(_ context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *blobStore) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.blobs[key]; !ok {
		return storage.ErrNotFound
	}
	delete(b.blobs, key)
	return nil
}

type failingBlobs struct{ *blobStore }

func (failingBlobs) Upload(context.Context, string, io.Reader, string) error {
	return errors.New("container unavailable")
}

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
	transcripts transcriptStore
	rubric      *rubrics.Rubric
	transcript  *transcripts.Transcript
	rt          *workflow.Runtime
}

// newFixture builds a 100 word, 60 second transcript and a single criterion
// rubric that the stubbed evaluator scores 4 of 5.
func newFixture() *fixture {
	logger := discardLogger()

	words := make([]transcripts.Word, 100)
	var text strings.Builder
	for i := range words {
		words[i] = transcripts.Word{
			Word:  "point",
			Start: float64(i) * 60 / 100,
			End:   float64(i+1) * 60 / 100,
		}
		text.WriteString("point ")
	}

	t := &transcripts.Transcript{ID: uuid.New(), Text: text.String(), Words: words}

	r := &rubrics.Rubric{ID: uuid.New(), Name: "Persuasive", RubricType: rubrics.TypeBuiltIn}
	r.Criteria = []rubrics.Criterion{{
		ID: uuid.New(), RubricID: r.ID, Name: "Evidence", MaxScore: 5, Weight: 1,
	}}

	client := evaluator.ClientFunc(func(_ context.Context, req evaluator.Request) (string, error) {
		if req.Stage == string(prompts.StageClarity) {
			return `{"nonsensical_words": []}`, nil
		}
		return fmt.Sprintf(
			`{"scores":[{"criterion_id":%q,"score":4,"feedback":"Well sourced."}],"overall_feedback":"Convincing."}`,
			r.Criteria[0].ID,
		), nil
	})

	ts := transcriptStore{t.ID: t}
	return &fixture{
		transcripts: ts,
		rubric:      r,
		transcript:  t,
		rt: &workflow.Runtime{
			Transcripts: ts,
			Rubrics:     rubricStore{r.ID: r},
			Clarity:     analysis.NewClarityAnalyzer(client, prompts.Defaults{}, 0.3, logger),
			Content:     analysis.NewContentGrader(client, prompts.Defaults{}, 0.5, logger),
			Logger:      logger,
		},
	}
}

func (f *fixture) execute(ctx context.Context, transcriptID, rubricID uuid.UUID) (*workflow.Result, error) {
	return workflow.Execute(ctx, f.rt, transcriptID, rubricID)
}

func (f *fixture) processing() *gradings.Grading {
	return &gradings.Grading{
		ID:           uuid.New(),
		TranscriptID: &f.transcript.ID,
		RubricID:     &f.rubric.ID,
		SourceType:   gradings.SourceSelf,
		ContextType:  gradings.ContextPractice,
		Status:       gradings.StatusProcessing,
		Attempt:      1,
	}
}

func jobFor(g *gradings.Grading) jobs.Job {
	return jobs.Job{GradingID: g.ID, Attempt: g.Attempt}
}

func assertNoScores(t *testing.T, g gradings.Grading) {
	t.Helper()
	if g.OverallScore != nil || g.PacingScore != nil || g.ClarityScore != nil || g.DetailedResults != nil {
		t.Errorf("score fields should be null, got %+v", g)
	}
}

func TestRunCompletes(t *testing.T) {
	f := newFixture()
	g := f.processing()
	store := newMemoryStore(g)
	blobs := newBlobStore()

	runner := gradings.NewRunner(store, f.execute, blobs, discardLogger())
	if err := runner.Run(context.Background(), jobFor(g)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := store.get(g.ID)
	if got.Status != gradings.StatusCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}
	if got.OverallScore == nil || *got.OverallScore != 80 {
		t.Errorf("overall score = %v, want 80", got.OverallScore)
	}
	if got.MaxPossibleScore == nil || *got.MaxPossibleScore != 5 {
		t.Errorf("max possible = %v, want 5", got.MaxPossibleScore)
	}
	if got.PacingScore == nil || *got.PacingScore != 94 {
		t.Errorf("pacing score = %v, want 94", got.PacingScore)
	}
	if got.DetailedResults == nil {
		t.Fatal("detailed results missing")
	}
	if got.DetailedResults.AIFeedback["overall"] != "Convincing." {
		t.Errorf("overall feedback = %q", got.DetailedResults.AIFeedback["overall"])
	}
	if got.DetailedResults.ContentStatus != analysis.ContentComplete {
		t.Errorf("content status = %q, want complete", got.DetailedResults.ContentStatus)
	}

	data, ok := blobs.blobs[gradings.ReportKey(g.ID)]
	if !ok {
		t.Fatal("report was not archived")
	}

	var report gradings.Grading
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.ID != g.ID || report.Status != gradings.StatusCompleted {
		t.Errorf("report = %+v", report)
	}
}

func TestRunDiscardsUnknownJobs(t *testing.T) {
	f := newFixture()
	g := f.processing()
	g.Attempt = 2
	store := newMemoryStore(g)

	var calls int
	execute := func(ctx context.Context, tid, rid uuid.UUID) (*workflow.Result, error) {
		calls++
		return f.execute(ctx, tid, rid)
	}

	runner := gradings.NewRunner(store, execute, nil, discardLogger())

	tests := []struct {
		name string
		job  jobs.Job
	}{
		{"stale attempt", jobs.Job{GradingID: g.ID, Attempt: 1}},
		{"deleted grading", jobs.Job{GradingID: uuid.New(), Attempt: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := runner.Run(context.Background(), tt.job); err != nil {
				t.Errorf("Run: %v, want nil", err)
			}
		})
	}

	if calls != 0 {
		t.Errorf("workflow executed %d times, want 0", calls)
	}
	if got := store.get(g.ID); got.Status != gradings.StatusProcessing || got.Attempt != 2 {
		t.Errorf("grading changed: %+v", got)
	}
}

func TestResubmissionSupersedesInflightRun(t *testing.T) {
	f := newFixture()
	g := f.processing()
	store := newMemoryStore(g)

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	execute := func(ctx context.Context, tid, rid uuid.UUID) (*workflow.Result, error) {
		first := false
		once.Do(func() { first = true })
		if first {
			close(started)
			<-release
		}
		return f.execute(ctx, tid, rid)
	}

	runner := gradings.NewRunner(store, execute, nil, discardLogger())

	errc := make(chan error, 1)
	go func() { errc <- runner.Run(context.Background(), jobFor(g)) }()

	<-started
	store.resubmit(g.ID)
	close(release)

	if err := <-errc; err != nil {
		t.Fatalf("superseded Run: %v, want nil", err)
	}

	got := store.get(g.ID)
	if got.Status != gradings.StatusProcessing || got.Attempt != 2 {
		t.Fatalf("after superseded run: status %s attempt %d", got.Status, got.Attempt)
	}
	assertNoScores(t, got)

	if err := runner.Run(context.Background(), jobs.Job{GradingID: g.ID, Attempt: 2}); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	got = store.get(g.ID)
	if got.Status != gradings.StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.OverallScore == nil || *got.OverallScore != 80 {
		t.Errorf("overall score = %v, want 80", got.OverallScore)
	}
}

func TestRunFailsWithoutTranscript(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(f *fixture, g *gradings.Grading)
	}{
		{
			name:    "reference cleared",
			prepare: func(_ *fixture, g *gradings.Grading) { g.TranscriptID = nil },
		},
		{
			name: "transcript deleted",
			prepare: func(f *fixture, _ *gradings.Grading) {
				delete(f.transcripts, f.transcript.ID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			g := f.processing()
			tt.prepare(f, g)
			store := newMemoryStore(g)

			runner := gradings.NewRunner(store, f.execute, nil, discardLogger())
			err := runner.Run(context.Background(), jobFor(g))
			if !errors.Is(err, workflow.ErrTranscriptNotFound) {
				t.Fatalf("Run: got %v, want %v", err, workflow.ErrTranscriptNotFound)
			}

			got := store.get(g.ID)
			if got.Status != gradings.StatusFailed {
				t.Errorf("status = %s, want failed", got.Status)
			}
			if got.Error == nil || !strings.Contains(*got.Error, "transcript not found") {
				t.Errorf("error = %v", got.Error)
			}
			assertNoScores(t, got)
		})
	}
}

func TestRunRecoversPanic(t *testing.T) {
	f := newFixture()
	g := f.processing()
	store := newMemoryStore(g)

	execute := func(context.Context, uuid.UUID, uuid.UUID) (*workflow.Result, error) {
		panic("analyzer exploded")
	}

	runner := gradings.NewRunner(store, execute, nil, discardLogger())
	err := runner.Run(context.Background(), jobFor(g))
	if !errors.Is(err, gradings.ErrPanic) {
		t.Fatalf("Run: got %v, want %v", err, gradings.ErrPanic)
	}

	got := store.get(g.ID)
	if got.Status != gradings.StatusFailed {
		t.Errorf("status = %s, want failed", got.Status)
	}
	if got.Error == nil || !strings.Contains(*got.Error, "analyzer exploded") {
		t.Errorf("error = %v", got.Error)
	}
}

func TestRunKeepsOutcomeWhenArchiveFails(t *testing.T) {
	f := newFixture()
	g := f.processing()
	store := newMemoryStore(g)

	blobs := failingBlobs{newBlobStore()}

	runner := gradings.NewRunner(store, f.execute, blobs, discardLogger())
	if err := runner.Run(context.Background(), jobFor(g)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := store.get(g.ID); got.Status != gradings.StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
}

func TestCommandValidate(t *testing.T) {
	transcript, rubric, class := uuid.New(), uuid.New(), uuid.New()

	tests := []struct {
		name    string
		cmd     gradings.Command
		wantErr error
		source  string
		context string
	}{
		{
			name:    "defaults",
			cmd:     gradings.Command{TranscriptID: transcript, RubricID: rubric},
			source:  gradings.SourceSelf,
			context: gradings.ContextPractice,
		},
		{
			name: "official forces instructor class",
			cmd: gradings.Command{
				TranscriptID: transcript, RubricID: rubric,
				SourceType: "self", ContextID: &class, IsOfficial: true,
			},
			source:  gradings.SourceInstructor,
			context: gradings.ContextClass,
		},
		{
			name:    "case insensitive",
			cmd:     gradings.Command{TranscriptID: transcript, RubricID: rubric, SourceType: " Instructor "},
			source:  gradings.SourceInstructor,
			context: gradings.ContextPractice,
		},
		{
			name:    "missing transcript",
			cmd:     gradings.Command{RubricID: rubric},
			wantErr: gradings.ErrTranscriptRequired,
		},
		{
			name:    "missing rubric",
			cmd:     gradings.Command{TranscriptID: transcript},
			wantErr: gradings.ErrRubricRequired,
		},
		{
			name:    "unknown source",
			cmd:     gradings.Command{TranscriptID: transcript, RubricID: rubric, SourceType: "peer"},
			wantErr: gradings.ErrInvalidSourceType,
		},
		{
			name:    "unknown context",
			cmd:     gradings.Command{TranscriptID: transcript, RubricID: rubric, ContextType: "exam"},
			wantErr: gradings.ErrInvalidContextType,
		},
		{
			name:    "class without context id",
			cmd:     gradings.Command{TranscriptID: transcript, RubricID: rubric, ContextType: "class"},
			wantErr: gradings.ErrContextRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := tt.cmd
			cmd.Normalize()

			err := cmd.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate: got %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if cmd.SourceType != tt.source || cmd.ContextType != tt.context {
				t.Errorf("normalized to %s/%s, want %s/%s", cmd.SourceType, cmd.ContextType, tt.source, tt.context)
			}
		})
	}
}

func TestFiltersFromQuery(t *testing.T) {
	id := uuid.New()
	values := url.Values{
		"transcript_id": {id.String()},
		"rubric_id":     {"not-a-uuid"},
		"status":        {"Completed"},
		"source_type":   {"peer"},
		"context_type":  {"class"},
		"is_official":   {"true"},
	}

	f := gradings.FiltersFromQuery(values)

	if f.TranscriptID == nil || *f.TranscriptID != id {
		t.Errorf("TranscriptID = %v, want %s", f.TranscriptID, id)
	}
	if f.RubricID != nil {
		t.Error("malformed rubric_id should be ignored")
	}
	if f.Status == nil || *f.Status != gradings.StatusCompleted {
		t.Errorf("Status = %v, want completed", f.Status)
	}
	if f.SourceType != nil {
		t.Error("unknown source_type should be ignored")
	}
	if f.ContextType == nil || *f.ContextType != gradings.ContextClass {
		t.Errorf("ContextType = %v, want class", f.ContextType)
	}
	if f.IsOfficial == nil || !*f.IsOfficial {
		t.Errorf("IsOfficial = %v, want true", f.IsOfficial)
	}
}

func TestNewDetailedResults(t *testing.T) {
	result := &workflow.Result{
		ContentStatus: analysis.ContentPartial,
		Pacing: analysis.Pacing{
			PauseAvgDuration: 2.5,
			Timeline:         []analysis.Segment{{Start: 0, End: 30, WPM: 140}},
		},
		Clarity: analysis.Clarity{
			Fillers:          []analysis.FillerCount{{Word: "um", Count: 3}},
			NonsensicalWords: []string{"blorft"},
		},
		Content: analysis.Content{OverallFeedback: "Solid."},
	}

	d := gradings.NewDetailedResults(result)

	if d.AIFeedback["overall"] != "Solid." {
		t.Errorf("overall feedback = %q", d.AIFeedback["overall"])
	}
	if d.ContentStatus != analysis.ContentPartial {
		t.Errorf("content status = %q", d.ContentStatus)
	}
	if d.PauseAvgDuration != 2.5 || len(d.PacingTimeline) != 1 {
		t.Errorf("pacing details = %v / %v", d.PauseAvgDuration, d.PacingTimeline)
	}
	if len(d.FillerWords) != 1 || d.NonsensicalWords[0] != "blorft" {
		t.Errorf("clarity details = %v / %v", d.FillerWords, d.NonsensicalWords)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{gradings.ErrNotFound, http.StatusNotFound},
		{gradings.ErrTranscriptNotFound, http.StatusNotFound},
		{gradings.ErrRubricNotFound, http.StatusNotFound},
		{gradings.ErrReportNotFound, http.StatusNotFound},
		{gradings.ErrDuplicate, http.StatusConflict},
		{gradings.ErrInvalidSourceType, http.StatusBadRequest},
		{gradings.ErrContextRequired, http.StatusBadRequest},
		{fmt.Errorf("enqueue grading: %w", jobs.ErrQueueFull), http.StatusServiceUnavailable},
		{storage.ErrDisabled, http.StatusNotImplemented},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := gradings.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"processing", "COMPLETED", "failed"} {
		if _, err := gradings.ParseStatus(s); err != nil {
			t.Errorf("ParseStatus(%q): %v", s, err)
		}
	}
	if _, err := gradings.ParseStatus("queued"); !errors.Is(err, gradings.ErrInvalidStatus) {
		t.Errorf("ParseStatus(queued): got %v, want %v", err, gradings.ErrInvalidStatus)
	}
}
