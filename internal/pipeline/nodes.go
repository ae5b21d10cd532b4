package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"

	"github.com/shazaelmorsh/network-intelligent-platform/internal/cypher"
	"github.com/shazaelmorsh/network-intelligent-platform/internal/logs"
	"github.com/shazaelmorsh/network-intelligent-platform/internal/metric"
)

// builder holds the per-process collaborators and precomputed prompt
// material the graph nodes close over.
type builder struct {
	deps       Deps
	corrector  *cypher.Corrector
	schemaText string
	fewshot    string
}

type guardrailsOutput struct {
	Decision string `json:"decision"`
}

type propertyFilter struct {
	NodeLabel     string `json:"node_label"`
	PropertyKey   string `json:"property_key"`
	PropertyValue string `json:"property_value"`
}

type validateCypherOutput struct {
	Errors  []string         `json:"errors"`
	Filters []propertyFilter `json:"filters"`
}

// guardrails decides whether the question is about the network domain at
// all. A classification failure aborts the run; there is no silent default.
func (b *builder) guardrails(ctx context.Context, question string) (string, error) {
	if err := recordStep(ctx, StageGuardrails); err != nil {
		return "", err
	}

	messages, err := guardrailsPrompt().Format(ctx, map[string]any{"question": question})
	if err != nil {
		return "", fmt.Errorf("format guardrails prompt: %w", err)
	}
	var out guardrailsOutput
	if err := b.deps.Model.Structured(ctx, messages, &out); err != nil {
		return "", fmt.Errorf("guardrail classification failed: %w", err)
	}
	if out.Decision != actionNetwork && out.Decision != actionEnd {
		return "", fmt.Errorf("guardrail classification returned unexpected decision %q", out.Decision)
	}

	err = compose.ProcessState(ctx, func(_ context.Context, s *pipelineState) error {
		s.NextAction = out.Decision
		if out.Decision == actionEnd {
			s.Records = NoticeRecords(offTopicNotice)
		}
		return nil
	})
	return question, err
}

// generateCypher drafts a statement from the question, the schema text and
// the exemplar prefix. The model reply is used verbatim as the candidate.
func (b *builder) generateCypher(ctx context.Context, question string) (string, error) {
	if err := recordStep(ctx, StageGenerateCypher); err != nil {
		return "", err
	}

	messages, err := text2CypherPrompt().Format(ctx, map[string]any{
		"question":         question,
		"fewshot_examples": b.fewshot,
		"schema":           b.schemaText,
	})
	if err != nil {
		return "", fmt.Errorf("format generation prompt: %w", err)
	}
	statement, err := b.deps.Model.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("cypher generation failed: %w", err)
	}
	statement = sanitizeStatement(statement)

	err = compose.ProcessState(ctx, func(_ context.Context, s *pipelineState) error {
		s.CypherStatement = statement
		return nil
	})
	return question, err
}

// validateCypher runs the three independent checks and merges their
// verdicts into the routing decision. Syntax and semantic errors route to
// correction; value-mapping misses are advisory and never block execution.
func (b *builder) validateCypher(ctx context.Context, question string) (string, error) {
	if err := recordStep(ctx, StageValidateCypher); err != nil {
		return "", err
	}
	state, err := snapshot(ctx)
	if err != nil {
		return "", err
	}
	statement := state.CypherStatement
	var fatal []string

	// 1. Syntax: EXPLAIN dry run against the store.
	diagnostic, err := b.deps.Store.DryRun(ctx, statement)
	if err != nil {
		return "", fmt.Errorf("dry-run of statement failed: %w", err)
	}
	if diagnostic != "" {
		fatal = append(fatal, diagnostic)
	}

	// 2. Deterministic schema/direction conformance. A reversed direction
	// is repaired silently; a statement no direction can reconcile is a
	// fatal mismatch for this draft.
	corrected := b.corrector.Correct(statement)
	if corrected == "" {
		fatal = append(fatal, "The generated Cypher statement doesn't fit the graph schema")
	} else if corrected != statement {
		logs.Infof("relationship direction was corrected")
		statement = corrected
	}

	// 3. Semantic and value-mapping review by the model.
	messages, err := validateCypherPrompt().Format(ctx, map[string]any{
		"question": question,
		"schema":   b.schemaText,
		"cypher":   statement,
	})
	if err != nil {
		return "", fmt.Errorf("format validation prompt: %w", err)
	}
	var review validateCypherOutput
	if err := b.deps.Model.Structured(ctx, messages, &review); err != nil {
		return "", fmt.Errorf("semantic validation failed: %w", err)
	}
	fatal = append(fatal, review.Errors...)

	var advisory []string
	for _, filter := range review.Filters {
		// Existence probes only make sense for string-typed properties.
		propType, ok := b.deps.Schema.PropertyType(filter.NodeLabel, filter.PropertyKey)
		if !ok || propType != "STRING" {
			continue
		}
		found, err := b.deps.Store.HasPropertyValue(ctx, filter.NodeLabel, filter.PropertyKey, filter.PropertyValue)
		if err != nil {
			return "", fmt.Errorf("value mapping probe failed: %w", err)
		}
		if !found {
			missing := fmt.Sprintf("Missing value mapping for %s on property %s with value %s",
				filter.NodeLabel, filter.PropertyKey, filter.PropertyValue)
			logs.Warnf("%s", missing)
			advisory = append(advisory, missing)
		}
	}

	err = compose.ProcessState(ctx, func(_ context.Context, s *pipelineState) error {
		s.CypherStatement = statement
		s.CypherErrors = append([]string(nil), fatal...)
		switch {
		case len(fatal) > 0 && s.CorrectionAttempts >= b.deps.MaxCorrections:
			// Loop exhausted: hand the unresolved errors to answer
			// synthesis instead of regenerating again.
			s.NextAction = actionEnd
			s.Records = ErrorRecords("The query could not be corrected after repeated attempts. Unresolved errors: " +
				strings.Join(fatal, "; "))
		case len(fatal) > 0:
			s.NextAction = actionCorrectCypher
		default:
			s.NextAction = actionExecuteCypher
		}
		// Advisory diagnostics stay observable without influencing routing.
		s.CypherErrors = append(s.CypherErrors, advisory...)
		return nil
	})
	return question, err
}

// correctCypher regenerates the statement from the previous draft and the
// validator's error list, then loops back to validation.
func (b *builder) correctCypher(ctx context.Context, question string) (string, error) {
	if err := recordStep(ctx, StageCorrectCypher); err != nil {
		return "", err
	}
	state, err := snapshot(ctx)
	if err != nil {
		return "", err
	}

	messages, err := correctCypherPrompt().Format(ctx, map[string]any{
		"question": question,
		"schema":   b.schemaText,
		"cypher":   state.CypherStatement,
		"errors":   strings.Join(state.CypherErrors, "\n"),
	})
	if err != nil {
		return "", fmt.Errorf("format correction prompt: %w", err)
	}
	statement, err := b.deps.Model.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("cypher correction failed: %w", err)
	}
	statement = sanitizeStatement(statement)
	metric.ObserveCorrection()

	err = compose.ProcessState(ctx, func(_ context.Context, s *pipelineState) error {
		s.CypherStatement = statement
		s.NextAction = StageValidateCypher
		s.CorrectionAttempts++
		return nil
	})
	return question, err
}

// executeCypher runs the validated statement. Store-side failures are
// captured as the payload, never raised; zero rows become the fixed
// no-results notice so answer synthesis always has something to work with.
func (b *builder) executeCypher(ctx context.Context, question string) (string, error) {
	if err := recordStep(ctx, StageExecuteCypher); err != nil {
		return "", err
	}
	state, err := snapshot(ctx)
	if err != nil {
		return "", err
	}

	var records DatabaseRecords
	rows, err := b.deps.Store.Query(ctx, state.CypherStatement, nil)
	switch {
	case err != nil:
		logs.Warnf("query execution failed: %v", err)
		records = ErrorRecords("Error executing query: " + err.Error())
	case len(rows) == 0:
		records = NoticeRecords(noResultsNotice)
	default:
		records = RowsRecords(rows)
	}

	err = compose.ProcessState(ctx, func(_ context.Context, s *pipelineState) error {
		s.Records = records
		s.NextAction = actionEnd
		return nil
	})
	return question, err
}

// finalAnswer is the terminal stage: it renders the user-facing answer
// from the question and whatever payload the run produced.
func (b *builder) finalAnswer(ctx context.Context, question string) (*Result, error) {
	if err := recordStep(ctx, StageFinalAnswer); err != nil {
		return nil, err
	}
	state, err := snapshot(ctx)
	if err != nil {
		return nil, err
	}

	messages, err := finalAnswerPrompt().Format(ctx, map[string]any{
		"question": question,
		"results":  state.Records.Render(),
	})
	if err != nil {
		return nil, fmt.Errorf("format answer prompt: %w", err)
	}
	answer, err := b.deps.Model.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("answer synthesis failed: %w", err)
	}

	result := &Result{Answer: answer}
	err = compose.ProcessState(ctx, func(_ context.Context, s *pipelineState) error {
		result.Steps = append([]string(nil), s.Steps...)
		result.CypherStatement = s.CypherStatement
		return nil
	})
	return result, err
}

// sanitizeStatement strips the markdown wrapping models add despite being
// told not to.
func sanitizeStatement(statement string) string {
	statement = strings.TrimSpace(statement)
	statement = strings.TrimPrefix(statement, "```cypher")
	statement = strings.TrimPrefix(statement, "```")
	statement = strings.TrimSuffix(statement, "```")
	return strings.TrimSpace(statement)
}
