// Package cypher provides deterministic schema conformance checking for
// generated Cypher statements. It verifies every relationship reference
// against the declared (start, type, end) patterns and silently rewrites
// reversed directions; no language model is involved.
package cypher

import (
	"regexp"
	"strings"
)

// RelSchema is one declared relationship pattern.
type RelSchema struct {
	Start string
	Type  string
	End   string
}

// Corrector validates relationship references in a statement against a
// relationship schema and repairs reversed directions in place.
type Corrector struct {
	schemas []RelSchema
}

func NewCorrector(schemas []RelSchema) *Corrector {
	return &Corrector{schemas: schemas}
}

type direction int

const (
	directionNone  direction = iota // (a)-[r]-(b)
	directionRight                  // (a)-[r]->(b)
	directionLeft                   // (a)<-[r]-(b)
)

// relSegment matches one (node)(arrow)(node) span. The trailing node is
// matched with a lookahead-style re-scan so chained patterns such as
// (a)-[:R]->(b)-[:S]->(c) yield two segments sharing (b).
var (
	relSegmentPattern = regexp.MustCompile(`\(([^()]*)\)(<?-(?:\[([^\]]*)\])?->?)(\(([^()]*)\))`)
	nodePattern       = regexp.MustCompile(`\(([^()]*)\)`)
	propsPattern      = regexp.MustCompile(`\{[^{}]*\}`)
)

type segment struct {
	midStart, midEnd int // byte offsets of the arrow part
	mid              string
	dir              direction
	types            []string
	leftLabels       []string
	rightLabels      []string
}

// Correct returns the statement with any schema-reversed relationship
// rewritten to the declared direction. It returns the empty string when a
// referenced relationship cannot be reconciled with the schema in either
// direction, including relationship types the schema does not declare.
// Statements without typed relationships pass through unchanged, as do
// undirected references that fit at least one declared orientation.
func (c *Corrector) Correct(statement string) string {
	vars := nodeVariables(statement)
	segments := c.extractSegments(statement, vars)

	type rewrite struct {
		start, end int
		text       string
	}
	var rewrites []rewrite

	for _, seg := range segments {
		if len(seg.types) == 0 {
			continue
		}
		for _, t := range seg.types {
			if !c.hasType(t) {
				return ""
			}
		}
		switch seg.dir {
		case directionRight:
			if c.matches(seg.leftLabels, seg.types, seg.rightLabels) {
				continue
			}
			if c.matches(seg.rightLabels, seg.types, seg.leftLabels) {
				rewrites = append(rewrites, rewrite{seg.midStart, seg.midEnd, flipArrow(seg.mid)})
				continue
			}
			return ""
		case directionLeft:
			if c.matches(seg.rightLabels, seg.types, seg.leftLabels) {
				continue
			}
			if c.matches(seg.leftLabels, seg.types, seg.rightLabels) {
				rewrites = append(rewrites, rewrite{seg.midStart, seg.midEnd, flipArrow(seg.mid)})
				continue
			}
			return ""
		default:
			if c.matches(seg.leftLabels, seg.types, seg.rightLabels) ||
				c.matches(seg.rightLabels, seg.types, seg.leftLabels) {
				continue
			}
			return ""
		}
	}

	if len(rewrites) == 0 {
		return statement
	}
	var b strings.Builder
	pos := 0
	for _, rw := range rewrites {
		b.WriteString(statement[pos:rw.start])
		b.WriteString(rw.text)
		pos = rw.end
	}
	b.WriteString(statement[pos:])
	return b.String()
}

// extractSegments walks the statement collecting relationship segments.
// Scanning restarts at each segment's right node so shared nodes in chained
// patterns are seen by both adjacent segments.
func (c *Corrector) extractSegments(statement string, vars map[string][]string) []segment {
	var segments []segment
	pos := 0
	for pos < len(statement) {
		loc := relSegmentPattern.FindStringSubmatchIndex(statement[pos:])
		if loc == nil {
			break
		}
		leftContent := statement[pos+loc[2] : pos+loc[3]]
		mid := statement[pos+loc[4] : pos+loc[5]]
		rightContent := statement[pos+loc[10] : pos+loc[11]]

		var relContent string
		if loc[6] >= 0 {
			relContent = statement[pos+loc[6] : pos+loc[7]]
		}

		seg := segment{
			midStart:    pos + loc[4],
			midEnd:      pos + loc[5],
			mid:         mid,
			dir:         arrowDirection(mid),
			types:       relTypes(relContent),
			leftLabels:  nodeLabels(leftContent, vars),
			rightLabels: nodeLabels(rightContent, vars),
		}
		segments = append(segments, seg)

		// Restart at the right node's opening paren.
		pos += loc[8]
	}
	return segments
}

func (c *Corrector) hasType(relType string) bool {
	for _, s := range c.schemas {
		if s.Type == relType {
			return true
		}
	}
	return false
}

// matches reports whether any declared pattern accepts one of the types
// going from a start label to an end label. Empty label sets act as
// wildcards, matching the behavior for unbound or bare variables.
func (c *Corrector) matches(startLabels, types, endLabels []string) bool {
	for _, s := range c.schemas {
		if !contains(types, s.Type) {
			continue
		}
		if !labelMatch(startLabels, s.Start) {
			continue
		}
		if labelMatch(endLabels, s.End) {
			return true
		}
	}
	return false
}

func labelMatch(labels []string, schemaLabel string) bool {
	if len(labels) == 0 || schemaLabel == "" {
		return true
	}
	return contains(labels, schemaLabel)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func arrowDirection(mid string) direction {
	if strings.HasPrefix(mid, "<") {
		return directionLeft
	}
	if strings.HasSuffix(mid, ">") {
		return directionRight
	}
	return directionNone
}

// flipArrow reverses the direction of an arrow span while keeping the
// bracketed relationship detail intact.
func flipArrow(mid string) string {
	if strings.HasPrefix(mid, "<") {
		return strings.TrimPrefix(mid, "<") + ">"
	}
	if strings.HasSuffix(mid, ">") {
		return "<" + strings.TrimSuffix(mid, ">")
	}
	return mid
}

// relTypes extracts the relationship type names from a bracket body such as
// "r:WORKSFOR", ":KNOWS|KNOWSABOUT {since: 2020}" or "r:TYPE*1..3".
func relTypes(relContent string) []string {
	relContent = propsPattern.ReplaceAllString(relContent, "")
	idx := strings.Index(relContent, ":")
	if idx < 0 {
		return nil
	}
	var types []string
	for _, t := range strings.Split(relContent[idx+1:], "|") {
		t = strings.TrimSpace(t)
		t = strings.TrimPrefix(t, ":")
		t = strings.TrimPrefix(t, "!")
		if star := strings.Index(t, "*"); star >= 0 {
			t = t[:star]
		}
		t = strings.Trim(t, "`")
		t = strings.TrimSpace(t)
		if t != "" {
			types = append(types, t)
		}
	}
	return types
}

// nodeLabels resolves a node pattern body to its labels, consulting the
// variable bindings when the pattern itself carries none.
func nodeLabels(content string, vars map[string][]string) []string {
	variable, labels := splitNode(content)
	if len(labels) > 0 {
		return labels
	}
	if variable != "" {
		return vars[variable]
	}
	return nil
}

// nodeVariables maps every labeled node variable in the statement to its
// labels, so later bare references like (p) resolve correctly.
func nodeVariables(statement string) map[string][]string {
	vars := map[string][]string{}
	for _, m := range nodePattern.FindAllStringSubmatch(statement, -1) {
		variable, labels := splitNode(m[1])
		if variable != "" && len(labels) > 0 {
			vars[variable] = labels
		}
	}
	return vars
}

func splitNode(content string) (string, []string) {
	content = propsPattern.ReplaceAllString(content, "")
	content = strings.TrimSpace(content)
	if content == "" {
		return "", nil
	}
	parts := strings.Split(content, ":")
	variable := strings.Trim(strings.TrimSpace(parts[0]), "`")
	var labels []string
	for _, l := range parts[1:] {
		l = strings.Trim(strings.TrimSpace(l), "`")
		if l != "" {
			labels = append(labels, l)
		}
	}
	return variable, labels
}
