// Package pipeline implements the question-answering state machine:
// guardrails -> generate_cypher -> validate_cypher (-> correct_cypher ->
// validate_cypher)* -> execute_cypher -> generate_final_answer.
//
// The machine is built as an eino graph with per-run local state; the only
// cycle is the validate/correct loop, bounded by a correction-attempt cap.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/shazaelmorsh/network-intelligent-platform/internal/cypher"
	"github.com/shazaelmorsh/network-intelligent-platform/internal/llm"
	"github.com/shazaelmorsh/network-intelligent-platform/internal/metric"
	"github.com/shazaelmorsh/network-intelligent-platform/internal/store"
)

const (
	defaultMaxCorrections = 3
	defaultFewShotCount   = 5

	// Upper bound on graph steps per run; generous headroom over the
	// longest path with the correction cap applied.
	maxRunSteps = 40
)

// GraphStore is the graph store collaborator consumed by pipeline runs.
// *store.Client satisfies it.
type GraphStore interface {
	// DryRun parses and plans the statement without touching data,
	// returning the store's rejection text when the statement is invalid.
	DryRun(ctx context.Context, statement string) (string, error)
	Query(ctx context.Context, statement string, params map[string]any) ([]map[string]any, error)
	HasPropertyValue(ctx context.Context, label, property, value string) (bool, error)
}

// Deps are the injected capabilities a Runner is built from.
type Deps struct {
	Model  llm.Client
	Store  GraphStore
	Schema *store.Schema

	// MaxCorrections bounds the validate/correct loop; zero selects the
	// default of 3. On exhaustion the run routes to answer synthesis with
	// a diagnostic payload instead of looping further.
	MaxCorrections int
	// FewShotCount is the exemplar prefix length used per run; zero
	// selects the default of 5.
	FewShotCount int
	// Examples overrides the built-in example bank when non-nil.
	Examples []FewShotExample
}

// Runner executes questions against a compiled pipeline graph. It is safe
// for concurrent use; every invocation gets its own pipeline state.
type Runner struct {
	runnable compose.Runnable[string, *Result]
}

// New compiles the pipeline graph.
func New(ctx context.Context, deps Deps) (*Runner, error) {
	if deps.Model == nil || deps.Store == nil || deps.Schema == nil {
		return nil, fmt.Errorf("pipeline requires a model, a store and a schema")
	}
	if deps.MaxCorrections == 0 {
		deps.MaxCorrections = defaultMaxCorrections
	}
	if deps.FewShotCount == 0 {
		deps.FewShotCount = defaultFewShotCount
	}
	examples := deps.Examples
	if examples == nil {
		examples = defaultExamples
	}

	relSchemas := make([]cypher.RelSchema, 0, len(deps.Schema.Relationships))
	for _, r := range deps.Schema.Relationships {
		relSchemas = append(relSchemas, cypher.RelSchema{Start: r.Start, Type: r.Type, End: r.End})
	}

	b := &builder{
		deps:       deps,
		corrector:  cypher.NewCorrector(relSchemas),
		schemaText: deps.Schema.Render(),
		fewshot:    renderExamples(examples, deps.FewShotCount),
	}

	g := compose.NewGraph[string, *Result](compose.WithGenLocalState(func(ctx context.Context) *pipelineState {
		return &pipelineState{}
	}))

	_ = g.AddLambdaNode(StageGuardrails, compose.InvokableLambda(b.guardrails),
		compose.WithStatePreHandler(func(_ context.Context, question string, s *pipelineState) (string, error) {
			s.Question = question
			return question, nil
		}))
	_ = g.AddLambdaNode(StageGenerateCypher, compose.InvokableLambda(b.generateCypher))
	_ = g.AddLambdaNode(StageValidateCypher, compose.InvokableLambda(b.validateCypher))
	_ = g.AddLambdaNode(StageCorrectCypher, compose.InvokableLambda(b.correctCypher))
	_ = g.AddLambdaNode(StageExecuteCypher, compose.InvokableLambda(b.executeCypher))
	_ = g.AddLambdaNode(StageFinalAnswer, compose.InvokableLambda(b.finalAnswer))

	_ = g.AddEdge(compose.START, StageGuardrails)
	_ = g.AddBranch(StageGuardrails, compose.NewGraphBranch(
		func(ctx context.Context, _ string) (string, error) {
			s, err := snapshot(ctx)
			if err != nil {
				return "", err
			}
			if s.NextAction == actionEnd {
				return StageFinalAnswer, nil
			}
			return StageGenerateCypher, nil
		},
		map[string]bool{
			StageGenerateCypher: true,
			StageFinalAnswer:    true,
		},
	))
	_ = g.AddEdge(StageGenerateCypher, StageValidateCypher)
	_ = g.AddBranch(StageValidateCypher, compose.NewGraphBranch(
		func(ctx context.Context, _ string) (string, error) {
			s, err := snapshot(ctx)
			if err != nil {
				return "", err
			}
			switch s.NextAction {
			case actionCorrectCypher:
				return StageCorrectCypher, nil
			case actionEnd:
				return StageFinalAnswer, nil
			default:
				return StageExecuteCypher, nil
			}
		},
		map[string]bool{
			StageCorrectCypher: true,
			StageExecuteCypher: true,
			StageFinalAnswer:   true,
		},
	))
	_ = g.AddEdge(StageCorrectCypher, StageValidateCypher)
	_ = g.AddEdge(StageExecuteCypher, StageFinalAnswer)
	_ = g.AddEdge(StageFinalAnswer, compose.END)

	runnable, err := g.Compile(ctx, compose.WithMaxRunSteps(maxRunSteps))
	if err != nil {
		return nil, fmt.Errorf("compile pipeline graph: %w", err)
	}
	return &Runner{runnable: runnable}, nil
}

// Run processes one question end to end.
func (r *Runner) Run(ctx context.Context, question string) (*Result, error) {
	start := time.Now()
	result, err := r.runnable.Invoke(ctx, question)
	if err != nil {
		metric.ObserveRun(metric.OutcomeFailed, start)
		return nil, err
	}
	outcome := metric.OutcomeAnswered
	if result.CypherStatement == "" {
		outcome = metric.OutcomeRefused
	}
	metric.ObserveRun(outcome, start)
	return result, nil
}
