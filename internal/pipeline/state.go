package pipeline

import (
	"context"
	"encoding/json"

	"github.com/cloudwego/eino/compose"

	"github.com/shazaelmorsh/network-intelligent-platform/internal/metric"
)

// Stage names. These are both the graph node keys and the tokens recorded
// in the steps log, so the log reads as the exact execution path.
const (
	StageGuardrails     = "guardrails"
	StageGenerateCypher = "generate_cypher"
	StageValidateCypher = "validate_cypher"
	StageCorrectCypher  = "correct_cypher"
	StageExecuteCypher  = "execute_cypher"
	StageFinalAnswer    = "generate_final_answer"
)

// next-action tokens driving the conditional edges.
const (
	actionNetwork       = "network"
	actionEnd           = "end"
	actionCorrectCypher = "correct_cypher"
	actionExecuteCypher = "execute_cypher"
)

const (
	offTopicNotice = "This question is not about people, organizations, or professional networking. " +
		"Therefore I cannot answer this question."
	noResultsNotice = "I couldn't find any relevant information in the database"
)

// RecordsKind tags the three shapes an execution payload can take.
type RecordsKind int

const (
	RecordsNone RecordsKind = iota
	RecordsRows
	RecordsNotice
	RecordsError
)

// DatabaseRecords is the tagged execution payload handed to answer
// synthesis: result rows, a fixed notice, or an error description.
type DatabaseRecords struct {
	Kind    RecordsKind
	Rows    []map[string]any
	Message string
}

func RowsRecords(rows []map[string]any) DatabaseRecords {
	return DatabaseRecords{Kind: RecordsRows, Rows: rows}
}

func NoticeRecords(message string) DatabaseRecords {
	return DatabaseRecords{Kind: RecordsNotice, Message: message}
}

func ErrorRecords(message string) DatabaseRecords {
	return DatabaseRecords{Kind: RecordsError, Message: message}
}

// Render produces the text representation passed to the answer prompt.
func (r DatabaseRecords) Render() string {
	switch r.Kind {
	case RecordsRows:
		data, err := json.Marshal(r.Rows)
		if err != nil {
			return noResultsNotice
		}
		return string(data)
	case RecordsNotice, RecordsError:
		return r.Message
	default:
		return ""
	}
}

// Result is what a pipeline run hands back to front ends.
type Result struct {
	Answer          string   `json:"answer"`
	Steps           []string `json:"steps"`
	CypherStatement string   `json:"cypher_statement"`
}

// pipelineState is the mutable record threaded through one run. Each run
// owns its own instance; stages mutate it strictly one at a time.
type pipelineState struct {
	Question           string
	NextAction         string
	CypherStatement    string
	CypherErrors       []string
	Records            DatabaseRecords
	Steps              []string
	CorrectionAttempts int
}

// recordStep appends exactly one entry to the steps log for a visited
// stage, independent of how many correction loops have run.
func recordStep(ctx context.Context, stage string) error {
	metric.ObserveStage(stage)
	return compose.ProcessState(ctx, func(_ context.Context, s *pipelineState) error {
		s.Steps = append(s.Steps, stage)
		return nil
	})
}

// snapshot copies the fields a node needs out of the shared state.
func snapshot(ctx context.Context) (pipelineState, error) {
	var copied pipelineState
	err := compose.ProcessState(ctx, func(_ context.Context, s *pipelineState) error {
		copied = *s
		copied.Steps = append([]string(nil), s.Steps...)
		copied.CypherErrors = append([]string(nil), s.CypherErrors...)
		return nil
	})
	return copied, err
}
