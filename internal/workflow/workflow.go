package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"
)

// Execute runs the grading workflow for one transcript and rubric pair. It
// builds the state graph (load → pacing → clarity → content → score),
// executes it, and extracts the Result from the final state. Phases run
// strictly in sequence because the score depends on all three analyses.
func Execute(ctx context.Context, rt *Runtime, transcriptID, rubricID uuid.UUID) (*Result, error) {
	ctx, span := tracer.Start(ctx, "workflow.execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("transcript.id", transcriptID.String()),
		attribute.String("rubric.id", rubricID.String()),
	)

	graph, err := buildGraph(rt)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	initialState := state.New(nil)
	initialState = initialState.Set(KeyTranscriptID, transcriptID)
	initialState = initialState.Set(KeyRubricID, rubricID)

	finalState, err := graph.Execute(ctx, initialState)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("execute graph: %w", err)
	}

	result, err := get[Result](finalState, KeyResult)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScoreFailed, err)
	}

	return &result, nil
}

func buildGraph(rt *Runtime) (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("cadence-grading")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	nodes := []struct {
		name string
		node state.StateNode
	}{
		{"load", LoadNode(rt)},
		{"pacing", PacingNode(rt)},
		{"clarity", ClarityNode(rt)},
		{"content", ContentNode(rt)},
		{"score", ScoreNode(rt)},
	}

	for _, n := range nodes {
		if err := graph.AddNode(n.name, n.node); err != nil {
			return nil, err
		}
	}

	for i := 1; i < len(nodes); i++ {
		if err := graph.AddEdge(nodes[i-1].name, nodes[i].name, nil); err != nil {
			return nil, err
		}
	}

	if err := graph.SetEntryPoint("load"); err != nil {
		return nil, err
	}

	if err := graph.SetExitPoint("score"); err != nil {
		return nil, err
	}

	return graph, nil
}
