package pipeline

import (
	"fmt"
	"strings"
)

// FewShotExample is one (question, query) exemplar steering generation.
type FewShotExample struct {
	Question string
	Query    string
}

// defaultExamples is the fixed, ordered example bank. Generation uses a
// prefix of it verbatim; there is no similarity ranking.
var defaultExamples = []FewShotExample{
	{
		Question: "Tell me about Michael Dell",
		Query:    "MATCH (p:Person {id: 'Michael Dell'}) RETURN p.id as name",
	},
	{
		Question: "What organizations does Michael Dell work for?",
		Query:    "MATCH (p:Person {id: 'Michael Dell'})-[:WORKSFOR]->(o:Organization) RETURN o.id as organization",
	},
	{
		Question: "Who does Michael Dell know?",
		Query:    "MATCH (p:Person {id: 'Michael Dell'})-[:KNOWS]->(other:Person) RETURN other.id as person",
	},
	{
		Question: "What events has Michael Dell attended?",
		Query:    "MATCH (p:Person {id: 'Michael Dell'})-[:ATTENDEE]->(e:Event) RETURN e.id as event",
	},
	{
		Question: "What is Michael Dell an alumnus of?",
		Query:    "MATCH (p:Person {id: 'Michael Dell'})-[:ALUMNIOF]->(o:Organization) RETURN o.id as organization",
	},
	{
		Question: "What topics does Michael Dell know about?",
		Query:    "MATCH (p:Person {id: 'Michael Dell'})-[:KNOWSABOUT]->(thing:Thing) RETURN p.id AS person, thing.id AS concept",
	},
	{
		Question: "Who works for Dell Technologies?",
		Query:    "MATCH (p:Person)-[:WORKSFOR]->(o:Organization {id: 'Dell Technologies'}) RETURN p.id as person",
	},
	{
		Question: "What organizations are in the database?",
		Query:    "MATCH (o:Organization) RETURN o.id as organization",
	},
	{
		Question: "What concepts does Michael Dell know about?",
		Query:    "MATCH (p:Person {id: 'Michael Dell'})-[:KNOWSABOUT]->(thing:Thing) RETURN thing.id AS concept",
	},
	{
		Question: "What are Michael Dell's professional connections?",
		Query:    "MATCH (p:Person {id: 'Michael Dell'})-[:KNOWS]->(other:Person) RETURN other.id as connection",
	},
}

// ExampleQuestions lists the bank's questions, used by the front ends as
// suggestions.
func ExampleQuestions() []string {
	questions := make([]string, 0, len(defaultExamples))
	for _, e := range defaultExamples {
		questions = append(questions, e.Question)
	}
	return questions
}

// renderExamples formats the first n exemplars as literal question/query
// blocks for the generation prompt.
func renderExamples(examples []FewShotExample, n int) string {
	if n > len(examples) {
		n = len(examples)
	}
	blocks := make([]string, 0, n)
	for _, e := range examples[:n] {
		blocks = append(blocks, fmt.Sprintf("Question: %s\nCypher:%s", e.Question, e.Query))
	}
	return strings.Join(blocks, "\n\n")
}
