package store

import (
	"fmt"
	"sort"
	"strings"
)

// Property is a single property declared on a node label.
type Property struct {
	Name string
	Type string // normalized upper-case, e.g. STRING, INTEGER
}

// RelPattern is one declared (start-label, type, end-label) triple.
type RelPattern struct {
	Start string
	Type  string
	End   string
}

// Schema is a read-only snapshot of the store's graph schema, refreshed at
// startup and shared by all pipeline runs.
type Schema struct {
	Labels        []string
	Relationships []RelPattern
	// Properties maps a node label to its declared properties.
	Properties map[string][]Property
}

// PropertyType returns the declared type of a property on a label.
func (s *Schema) PropertyType(label, property string) (string, bool) {
	for _, p := range s.Properties[label] {
		if p.Name == property {
			return p.Type, true
		}
	}
	return "", false
}

// HasLabel reports whether the label is declared.
func (s *Schema) HasLabel(label string) bool {
	for _, l := range s.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Render formats the schema as prompt text: node labels with their typed
// properties followed by the relationship patterns.
func (s *Schema) Render() string {
	var b strings.Builder

	b.WriteString("Node properties:\n")
	labels := append([]string(nil), s.Labels...)
	sort.Strings(labels)
	for _, label := range labels {
		props := s.Properties[label]
		if len(props) == 0 {
			fmt.Fprintf(&b, "%s\n", label)
			continue
		}
		parts := make([]string, 0, len(props))
		for _, p := range props {
			parts = append(parts, fmt.Sprintf("%s: %s", p.Name, p.Type))
		}
		fmt.Fprintf(&b, "%s {%s}\n", label, strings.Join(parts, ", "))
	}

	b.WriteString("The relationships:\n")
	for _, r := range s.Relationships {
		fmt.Fprintf(&b, "(:%s)-[:%s]->(:%s)\n", r.Start, r.Type, r.End)
	}
	return b.String()
}
