package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shazaelmorsh/network-intelligent-platform/internal/store"
)

// fakeLLM scripts the collaborator per call site. Complete calls are told
// apart by the prompt text, the same way the real prompts differ.
type fakeLLM struct {
	decision    string
	decisionErr error

	reviews   []validateCypherOutput
	reviewIdx int
	reviewErr error

	generated  string
	corrected  []string
	correctIdx int
	answer     string

	// captured inputs
	answerResults string
}

func (f *fakeLLM) Structured(_ context.Context, _ []*schema.Message, out any) error {
	switch v := out.(type) {
	case *guardrailsOutput:
		if f.decisionErr != nil {
			return f.decisionErr
		}
		v.Decision = f.decision
	case *validateCypherOutput:
		if f.reviewErr != nil {
			return f.reviewErr
		}
		review := validateCypherOutput{}
		if len(f.reviews) > 0 {
			idx := f.reviewIdx
			if idx >= len(f.reviews) {
				idx = len(f.reviews) - 1
			}
			review = f.reviews[idx]
		}
		f.reviewIdx++
		*v = review
	default:
		return fmt.Errorf("unexpected structured target %T", out)
	}
	return nil
}

func (f *fakeLLM) Complete(_ context.Context, messages []*schema.Message) (string, error) {
	text := messages[len(messages)-1].Content
	switch {
	case strings.Contains(text, "The errors are:"):
		if len(f.corrected) == 0 {
			return "", errors.New("no corrected statement scripted")
		}
		idx := f.correctIdx
		if idx >= len(f.corrected) {
			idx = len(f.corrected) - 1
		}
		f.correctIdx++
		return f.corrected[idx], nil
	case strings.Contains(text, "Results:"):
		if idx := strings.Index(text, "Results:"); idx >= 0 {
			f.answerResults = text[idx:]
		}
		return f.answer, nil
	default:
		return f.generated, nil
	}
}

// fakeStore scripts the graph store collaborator.
type fakeStore struct {
	dryRunDiags map[string]string
	rows        []map[string]any
	queryErr    error
	values      map[string]bool

	executed []string
}

func (f *fakeStore) DryRun(_ context.Context, statement string) (string, error) {
	return f.dryRunDiags[statement], nil
}

func (f *fakeStore) Query(_ context.Context, statement string, _ map[string]any) ([]map[string]any, error) {
	f.executed = append(f.executed, statement)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.rows, nil
}

func (f *fakeStore) HasPropertyValue(_ context.Context, label, property, value string) (bool, error) {
	return f.values[label+"/"+property+"/"+value], nil
}

func networkSchema() *store.Schema {
	return &store.Schema{
		Labels: []string{"Person", "Organization", "Event", "Thing"},
		Relationships: []store.RelPattern{
			{Start: "Person", Type: "WORKSFOR", End: "Organization"},
			{Start: "Person", Type: "KNOWS", End: "Person"},
			{Start: "Person", Type: "ATTENDEE", End: "Event"},
			{Start: "Person", Type: "KNOWSABOUT", End: "Thing"},
		},
		Properties: map[string][]store.Property{
			"Person":       {{Name: "id", Type: "STRING"}},
			"Organization": {{Name: "id", Type: "STRING"}},
		},
	}
}

func newTestRunner(t *testing.T, model *fakeLLM, st *fakeStore) *Runner {
	t.Helper()
	runner, err := New(context.Background(), Deps{
		Model:  model,
		Store:  st,
		Schema: networkSchema(),
	})
	require.NoError(t, err)
	return runner
}

func TestOffTopicQuestionShortCircuits(t *testing.T) {
	model := &fakeLLM{decision: "end", answer: "I only discuss professional networking."}
	st := &fakeStore{}
	runner := newTestRunner(t, model, st)

	result, err := runner.Run(context.Background(), "How do I bake bread?")
	require.NoError(t, err)

	assert.Equal(t, []string{StageGuardrails, StageFinalAnswer}, result.Steps)
	assert.Empty(t, result.CypherStatement)
	assert.Empty(t, st.executed)
	assert.Contains(t, model.answerResults, "not about people, organizations, or professional networking")
}

func TestCleanStatementExecutesFirstTry(t *testing.T) {
	stmt := "MATCH (p:Person {id: 'Michael Dell'}) RETURN p.id as name"
	model := &fakeLLM{decision: "network", generated: stmt, answer: "Michael Dell founded Dell."}
	st := &fakeStore{rows: []map[string]any{{"name": "Michael Dell"}}}
	runner := newTestRunner(t, model, st)

	result, err := runner.Run(context.Background(), "Tell me about Michael Dell")
	require.NoError(t, err)

	assert.Equal(t, []string{
		StageGuardrails, StageGenerateCypher, StageValidateCypher,
		StageExecuteCypher, StageFinalAnswer,
	}, result.Steps)
	assert.Equal(t, stmt, result.CypherStatement)
	require.Len(t, st.executed, 1)
	assert.Equal(t, stmt, st.executed[0])
	assert.Equal(t, "Michael Dell founded Dell.", result.Answer)
	assert.Contains(t, model.answerResults, "Michael Dell")
}

func TestReversedDirectionIsRepairedBeforeExecution(t *testing.T) {
	reversed := "MATCH (o:Organization {id: 'Dell Technologies'})-[:WORKSFOR]->(p:Person) RETURN p.id"
	repaired := "MATCH (o:Organization {id: 'Dell Technologies'})<-[:WORKSFOR]-(p:Person) RETURN p.id"
	model := &fakeLLM{decision: "network", generated: reversed, answer: "Several people work there."}
	st := &fakeStore{rows: []map[string]any{{"p.id": "Michael Dell"}}}
	runner := newTestRunner(t, model, st)

	result, err := runner.Run(context.Background(), "Who works for Dell Technologies?")
	require.NoError(t, err)

	assert.NotContains(t, result.Steps, StageCorrectCypher)
	require.Len(t, st.executed, 1)
	assert.Equal(t, repaired, st.executed[0])
	assert.Equal(t, repaired, result.CypherStatement)
}

func TestUnknownRelationshipRoutesToCorrection(t *testing.T) {
	bad := "MATCH (p:Person)-[:EMPLOYS]->(o:Organization) RETURN o.id"
	good := "MATCH (p:Person)-[:WORKSFOR]->(o:Organization) RETURN o.id"
	model := &fakeLLM{
		decision:  "network",
		generated: bad,
		corrected: []string{good},
		answer:    "done",
	}
	st := &fakeStore{rows: []map[string]any{{"o.id": "Dell Technologies"}}}
	runner := newTestRunner(t, model, st)

	result, err := runner.Run(context.Background(), "Which organizations employ people?")
	require.NoError(t, err)

	assert.Equal(t, []string{
		StageGuardrails, StageGenerateCypher, StageValidateCypher,
		StageCorrectCypher, StageValidateCypher,
		StageExecuteCypher, StageFinalAnswer,
	}, result.Steps)
	require.Len(t, st.executed, 1)
	assert.Equal(t, good, st.executed[0])
}

func TestSyntaxErrorRoutesToCorrection(t *testing.T) {
	bad := "MATCH (p:Person RETURN p"
	good := "MATCH (p:Person) RETURN p.id"
	model := &fakeLLM{
		decision:  "network",
		generated: bad,
		corrected: []string{good},
		answer:    "done",
	}
	st := &fakeStore{
		dryRunDiags: map[string]string{bad: "Invalid input 'RETURN'"},
		rows:        []map[string]any{{"p.id": "Michael Dell"}},
	}
	runner := newTestRunner(t, model, st)

	result, err := runner.Run(context.Background(), "List people")
	require.NoError(t, err)

	assert.Contains(t, result.Steps, StageCorrectCypher)
	require.Len(t, st.executed, 1)
	assert.Equal(t, good, st.executed[0])
}

func TestSemanticErrorRoutesToCorrection(t *testing.T) {
	bad := "MATCH (p:Person) RETURN q.id"
	good := "MATCH (p:Person) RETURN p.id"
	model := &fakeLLM{
		decision:  "network",
		generated: bad,
		reviews: []validateCypherOutput{
			{Errors: []string{"Variable q is not defined"}},
			{},
		},
		corrected: []string{good},
		answer:    "done",
	}
	st := &fakeStore{rows: []map[string]any{{"p.id": "Michael Dell"}}}
	runner := newTestRunner(t, model, st)

	result, err := runner.Run(context.Background(), "List people")
	require.NoError(t, err)

	assert.Contains(t, result.Steps, StageCorrectCypher)
	assert.Equal(t, good, result.CypherStatement)
}

func TestAdvisoryValueMappingDoesNotBlockExecution(t *testing.T) {
	stmt := "MATCH (p:Person {id: 'Jane Roe'}) RETURN p.id"
	model := &fakeLLM{
		decision:  "network",
		generated: stmt,
		reviews: []validateCypherOutput{
			{Filters: []propertyFilter{{NodeLabel: "Person", PropertyKey: "id", PropertyValue: "Jane Roe"}}},
		},
		answer: "No such person is recorded.",
	}
	// The probe misses: no Person has id "Jane Roe" in any casing.
	st := &fakeStore{values: map[string]bool{}}
	runner := newTestRunner(t, model, st)

	result, err := runner.Run(context.Background(), "Tell me about Jane Roe")
	require.NoError(t, err)

	assert.NotContains(t, result.Steps, StageCorrectCypher)
	assert.Contains(t, result.Steps, StageExecuteCypher)
	require.Len(t, st.executed, 1)
}

func TestZeroRowsYieldNoResultsNotice(t *testing.T) {
	stmt := "MATCH (p:Person {id: 'Nobody'}) RETURN p.id"
	model := &fakeLLM{decision: "network", generated: stmt, answer: "I found nothing."}
	st := &fakeStore{rows: nil}
	runner := newTestRunner(t, model, st)

	_, err := runner.Run(context.Background(), "Tell me about Nobody")
	require.NoError(t, err)

	assert.Contains(t, model.answerResults, noResultsNotice)
}

func TestExecutionFailureIsAbsorbedIntoAnswer(t *testing.T) {
	stmt := "MATCH (p:Person) RETURN p.id"
	model := &fakeLLM{decision: "network", generated: stmt, answer: "Something went wrong while querying."}
	st := &fakeStore{queryErr: errors.New("connection reset")}
	runner := newTestRunner(t, model, st)

	result, err := runner.Run(context.Background(), "List people")
	require.NoError(t, err)

	assert.Contains(t, result.Steps, StageExecuteCypher)
	assert.Contains(t, model.answerResults, "Error executing query: connection reset")
}

func TestCorrectionLoopIsBounded(t *testing.T) {
	bad := "MATCH (p:Person)-[:EMPLOYS]->(o:Organization) RETURN o.id"
	model := &fakeLLM{
		decision:  "network",
		generated: bad,
		// Every correction attempt produces the same broken statement.
		corrected: []string{bad},
		answer:    "I could not build a valid query for this question.",
	}
	st := &fakeStore{}
	runner := newTestRunner(t, model, st)

	result, err := runner.Run(context.Background(), "Which organizations employ people?")
	require.NoError(t, err)

	assert.Equal(t, []string{
		StageGuardrails, StageGenerateCypher, StageValidateCypher,
		StageCorrectCypher, StageValidateCypher,
		StageCorrectCypher, StageValidateCypher,
		StageCorrectCypher, StageValidateCypher,
		StageFinalAnswer,
	}, result.Steps)
	assert.Empty(t, st.executed)
	assert.Contains(t, model.answerResults, "could not be corrected")
}

func TestClassifierFailureAbortsRun(t *testing.T) {
	model := &fakeLLM{decisionErr: errors.New("model unreachable")}
	runner := newTestRunner(t, model, &fakeStore{})

	_, err := runner.Run(context.Background(), "Tell me about Michael Dell")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "guardrail classification failed")
}

func TestClassifierUnexpectedDecisionAbortsRun(t *testing.T) {
	model := &fakeLLM{decision: "maybe"}
	runner := newTestRunner(t, model, &fakeStore{})

	_, err := runner.Run(context.Background(), "Tell me about Michael Dell")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected decision")
}

func TestGeneratedFencesAreStripped(t *testing.T) {
	model := &fakeLLM{
		decision:  "network",
		generated: "```cypher\nMATCH (p:Person) RETURN p.id\n```",
		answer:    "done",
	}
	st := &fakeStore{rows: []map[string]any{{"p.id": "Michael Dell"}}}
	runner := newTestRunner(t, model, st)

	result, err := runner.Run(context.Background(), "List people")
	require.NoError(t, err)
	assert.Equal(t, "MATCH (p:Person) RETURN p.id", result.CypherStatement)
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(context.Background(), Deps{})
	require.Error(t, err)
}
