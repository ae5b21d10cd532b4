package cypher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func networkSchemas() []RelSchema {
	return []RelSchema{
		{Start: "Person", Type: "WORKSFOR", End: "Organization"},
		{Start: "Person", Type: "KNOWS", End: "Person"},
		{Start: "Person", Type: "ATTENDEE", End: "Event"},
		{Start: "Person", Type: "ALUMNIOF", End: "Organization"},
		{Start: "Person", Type: "KNOWSABOUT", End: "Thing"},
	}
}

func TestCorrectKeepsValidStatement(t *testing.T) {
	c := NewCorrector(networkSchemas())
	stmt := "MATCH (p:Person {id: 'Michael Dell'})-[:WORKSFOR]->(o:Organization) RETURN o.id"
	assert.Equal(t, stmt, c.Correct(stmt))
}

func TestCorrectRewritesReversedDirection(t *testing.T) {
	c := NewCorrector(networkSchemas())
	stmt := "MATCH (o:Organization)-[:WORKSFOR]->(p:Person) RETURN p.id"
	want := "MATCH (o:Organization)<-[:WORKSFOR]-(p:Person) RETURN p.id"
	assert.Equal(t, want, c.Correct(stmt))
}

func TestCorrectRewritesReversedIncomingArrow(t *testing.T) {
	c := NewCorrector(networkSchemas())
	stmt := "MATCH (p:Person)<-[:WORKSFOR]-(o:Organization) RETURN o.id"
	want := "MATCH (p:Person)-[:WORKSFOR]->(o:Organization) RETURN o.id"
	assert.Equal(t, want, c.Correct(stmt))
}

func TestCorrectIsIdempotent(t *testing.T) {
	c := NewCorrector(networkSchemas())
	stmt := "MATCH (o:Organization)-[:WORKSFOR]->(p:Person) RETURN p.id"

	once := c.Correct(stmt)
	twice := c.Correct(once)
	assert.Equal(t, once, twice)
}

func TestCorrectRejectsUnknownRelationshipType(t *testing.T) {
	c := NewCorrector(networkSchemas())
	stmt := "MATCH (p:Person)-[:EMPLOYS]->(o:Organization) RETURN o.id"
	assert.Equal(t, "", c.Correct(stmt))
}

func TestCorrectRejectsImpossibleEndpoints(t *testing.T) {
	c := NewCorrector(networkSchemas())
	// WORKSFOR never connects two events in either direction.
	stmt := "MATCH (a:Event)-[:WORKSFOR]->(b:Event) RETURN a"
	assert.Equal(t, "", c.Correct(stmt))
}

func TestCorrectResolvesVariableLabels(t *testing.T) {
	c := NewCorrector(networkSchemas())
	stmt := "MATCH (p:Person), (o:Organization) MATCH (o)-[:WORKSFOR]->(p) RETURN p.id"
	want := "MATCH (p:Person), (o:Organization) MATCH (o)<-[:WORKSFOR]-(p) RETURN p.id"
	assert.Equal(t, want, c.Correct(stmt))
}

func TestCorrectHandlesChainedPattern(t *testing.T) {
	c := NewCorrector(networkSchemas())
	stmt := "MATCH (p:Person)-[:KNOWS]->(q:Person)-[:WORKSFOR]->(o:Organization) RETURN o.id"
	assert.Equal(t, stmt, c.Correct(stmt))
}

func TestCorrectRewritesOneSegmentOfChain(t *testing.T) {
	c := NewCorrector(networkSchemas())
	stmt := "MATCH (p:Person)-[:KNOWS]->(q:Person)<-[:WORKSFOR]-(o:Organization) RETURN o.id"
	want := "MATCH (p:Person)-[:KNOWS]->(q:Person)-[:WORKSFOR]->(o:Organization) RETURN o.id"
	assert.Equal(t, want, c.Correct(stmt))
}

func TestCorrectKeepsUndirectedWhenSomeOrientationFits(t *testing.T) {
	c := NewCorrector(networkSchemas())
	stmt := "MATCH (p:Person)-[:KNOWS]-(other:Person) RETURN other.id"
	assert.Equal(t, stmt, c.Correct(stmt))
}

func TestCorrectIgnoresUntypedRelationships(t *testing.T) {
	c := NewCorrector(networkSchemas())
	stmt := "MATCH (p:Person)-->(x) RETURN x"
	assert.Equal(t, stmt, c.Correct(stmt))
}

func TestCorrectUnboundNodesActAsWildcards(t *testing.T) {
	c := NewCorrector(networkSchemas())
	stmt := "MATCH (p)-[:WORKSFOR]->(o) RETURN o"
	assert.Equal(t, stmt, c.Correct(stmt))
}

func TestCorrectWithPropertiesAndVariable(t *testing.T) {
	c := NewCorrector(networkSchemas())
	stmt := "MATCH (p:Person {id: 'Michael Dell'})-[r:ATTENDEE]->(e:Event) RETURN e.id AS event"
	assert.Equal(t, stmt, c.Correct(stmt))

	reversed := "MATCH (e:Event)-[r:ATTENDEE]->(p:Person {id: 'Michael Dell'}) RETURN e.id AS event"
	want := "MATCH (e:Event)<-[r:ATTENDEE]-(p:Person {id: 'Michael Dell'}) RETURN e.id AS event"
	assert.Equal(t, want, c.Correct(reversed))
}

func TestCorrectAlternativeTypes(t *testing.T) {
	c := NewCorrector(networkSchemas())
	stmt := "MATCH (p:Person)-[:KNOWS|KNOWSABOUT]->(x) RETURN x"
	assert.Equal(t, stmt, c.Correct(stmt))

	unknown := "MATCH (p:Person)-[:KNOWS|EMPLOYS]->(x) RETURN x"
	assert.Equal(t, "", c.Correct(unknown))
}

func TestCorrectStatementWithoutRelationships(t *testing.T) {
	c := NewCorrector(networkSchemas())
	stmt := "MATCH (o:Organization) RETURN o.id AS organization"
	assert.Equal(t, stmt, c.Correct(stmt))
}

func TestRelTypes(t *testing.T) {
	assert.Equal(t, []string{"WORKSFOR"}, relTypes("r:WORKSFOR"))
	assert.Equal(t, []string{"KNOWS", "KNOWSABOUT"}, relTypes(":KNOWS|KNOWSABOUT"))
	assert.Equal(t, []string{"KNOWS"}, relTypes("r:KNOWS*1..3"))
	assert.Equal(t, []string{"WORKSFOR"}, relTypes(":`WORKSFOR` {since: 2020}"))
	assert.Nil(t, relTypes("r"))
	assert.Nil(t, relTypes(""))
}

func TestSplitNode(t *testing.T) {
	v, labels := splitNode("p:Person {id: 'X'}")
	assert.Equal(t, "p", v)
	assert.Equal(t, []string{"Person"}, labels)

	v, labels = splitNode("p:Person:Actor")
	assert.Equal(t, "p", v)
	assert.Equal(t, []string{"Person", "Actor"}, labels)

	v, labels = splitNode(":Organization")
	assert.Equal(t, "", v)
	assert.Equal(t, []string{"Organization"}, labels)

	v, labels = splitNode("p")
	assert.Equal(t, "p", v)
	assert.Nil(t, labels)

	v, labels = splitNode("")
	assert.Equal(t, "", v)
	assert.Nil(t, labels)
}
