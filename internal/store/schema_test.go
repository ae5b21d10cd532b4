package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testSchema() *Schema {
	return &Schema{
		Labels: []string{"Person", "Organization"},
		Relationships: []RelPattern{
			{Start: "Person", Type: "WORKSFOR", End: "Organization"},
			{Start: "Person", Type: "KNOWS", End: "Person"},
		},
		Properties: map[string][]Property{
			"Person":       {{Name: "id", Type: "STRING"}, {Name: "age", Type: "INTEGER"}},
			"Organization": {{Name: "id", Type: "STRING"}},
		},
	}
}

func TestSchemaRender(t *testing.T) {
	text := testSchema().Render()

	assert.Contains(t, text, "Person {id: STRING, age: INTEGER}")
	assert.Contains(t, text, "Organization {id: STRING}")
	assert.Contains(t, text, "(:Person)-[:WORKSFOR]->(:Organization)")
	assert.Contains(t, text, "(:Person)-[:KNOWS]->(:Person)")
}

func TestSchemaPropertyType(t *testing.T) {
	s := testSchema()

	typ, ok := s.PropertyType("Person", "id")
	assert.True(t, ok)
	assert.Equal(t, "STRING", typ)

	typ, ok = s.PropertyType("Person", "age")
	assert.True(t, ok)
	assert.Equal(t, "INTEGER", typ)

	_, ok = s.PropertyType("Person", "missing")
	assert.False(t, ok)

	_, ok = s.PropertyType("Event", "id")
	assert.False(t, ok)
}

func TestSchemaHasLabel(t *testing.T) {
	s := testSchema()
	assert.True(t, s.HasLabel("Person"))
	assert.False(t, s.HasLabel("Event"))
}

func TestPropertyTypeNormalization(t *testing.T) {
	assert.Equal(t, "STRING", propertyType([]any{"String"}))
	assert.Equal(t, "LONG", propertyType([]any{"LongArray"}))
	assert.Equal(t, "UNKNOWN", propertyType(nil))
	assert.Equal(t, "UNKNOWN", propertyType([]any{}))
}
