package api

import (
	"github.com/JaimeStill/cadence/internal/analysis"
	"github.com/JaimeStill/cadence/internal/gradings"
	"github.com/JaimeStill/cadence/internal/prompts"
	"github.com/JaimeStill/cadence/internal/rubrics"
	"github.com/JaimeStill/cadence/internal/transcripts"
	"github.com/JaimeStill/cadence/internal/workflow"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Transcripts transcripts.System
	Rubrics     rubrics.System
	Prompts     prompts.System
	Gradings    gradings.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	transcriptsSystem := transcripts.New(db, runtime.Logger, runtime.Pagination)
	rubricsSystem := rubrics.New(db, runtime.Logger, runtime.Pagination)
	promptsSystem := prompts.New(db, runtime.Logger, runtime.Pagination)

	wf := &workflow.Runtime{
		Transcripts: transcriptsSystem,
		Rubrics:     rubricsSystem,
		Clarity: analysis.NewClarityAnalyzer(
			runtime.Evaluator,
			promptsSystem,
			runtime.Grading.ClarityTemperature,
			runtime.Logger,
		),
		Content: analysis.NewContentGrader(
			runtime.Evaluator,
			promptsSystem,
			runtime.Grading.ContentTemperature,
			runtime.Logger,
		),
		Logger: runtime.Logger.With("system", "workflow"),
	}

	gradingsSystem := gradings.New(
		db,
		runtime.Queue,
		wf,
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Transcripts: transcriptsSystem,
		Rubrics:     rubricsSystem,
		Prompts:     promptsSystem,
		Gradings:    gradingsSystem,
	}
}
