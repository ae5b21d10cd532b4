// Package store wraps the Neo4j driver behind the narrow surface the
// pipeline consumes: schema refresh, EXPLAIN dry runs, query execution and
// the case-insensitive property value probe.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/shazaelmorsh/network-intelligent-platform/internal/logs"
)

// Client is a Neo4j-backed graph store collaborator. It is safe for
// concurrent use; the underlying driver manages its own connection pool.
type Client struct {
	driver neo4j.DriverWithContext
	schema *Schema
}

// New connects to the store and verifies connectivity.
func New(ctx context.Context, uri, username, password string) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("connect to neo4j at %s: %w", uri, err)
	}
	return &Client{driver: driver}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// Schema returns the last refreshed schema snapshot, or nil before the
// first refresh.
func (c *Client) Schema() *Schema {
	return c.schema
}

// RefreshSchema reloads node labels, relationship patterns and per-label
// properties from the store. Pipeline runs read the returned snapshot;
// the snapshot is never mutated afterwards.
func (c *Client) RefreshSchema(ctx context.Context) (*Schema, error) {
	schema := &Schema{Properties: map[string][]Property{}}

	rows, err := c.Query(ctx, "CALL db.labels() YIELD label RETURN label", nil)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	for _, row := range rows {
		if label, ok := row["label"].(string); ok {
			schema.Labels = append(schema.Labels, label)
		}
	}

	rows, err = c.Query(ctx,
		"MATCH (a)-[r]->(b) UNWIND labels(a) AS start UNWIND labels(b) AS end "+
			"RETURN DISTINCT start, type(r) AS relType, end", nil)
	if err != nil {
		return nil, fmt.Errorf("list relationship patterns: %w", err)
	}
	for _, row := range rows {
		start, _ := row["start"].(string)
		relType, _ := row["relType"].(string)
		end, _ := row["end"].(string)
		if relType == "" {
			continue
		}
		schema.Relationships = append(schema.Relationships, RelPattern{Start: start, Type: relType, End: end})
	}

	rows, err = c.Query(ctx,
		"CALL db.schema.nodeTypeProperties() YIELD nodeLabels, propertyName, propertyTypes "+
			"RETURN nodeLabels, propertyName, propertyTypes", nil)
	if err != nil {
		return nil, fmt.Errorf("list node properties: %w", err)
	}
	for _, row := range rows {
		name, _ := row["propertyName"].(string)
		if name == "" {
			continue
		}
		prop := Property{Name: name, Type: propertyType(row["propertyTypes"])}
		labels, _ := row["nodeLabels"].([]any)
		for _, l := range labels {
			if label, ok := l.(string); ok {
				schema.Properties[label] = append(schema.Properties[label], prop)
			}
		}
	}

	c.schema = schema
	logs.Infof("schema refreshed: %d labels, %d relationship patterns",
		len(schema.Labels), len(schema.Relationships))
	return schema, nil
}

// DryRun submits the statement under EXPLAIN so the store parses and plans
// it without touching data. A statement-level rejection is returned as the
// diagnostic text; transport or server failures are returned as the error.
func (c *Client) DryRun(ctx context.Context, statement string) (string, error) {
	_, err := c.Query(ctx, "EXPLAIN "+statement, nil)
	if err == nil {
		return "", nil
	}
	var neo4jErr *neo4j.Neo4jError
	if errors.As(err, &neo4jErr) && strings.HasPrefix(neo4jErr.Code, "Neo.ClientError.Statement") {
		return neo4jErr.Msg, nil
	}
	return "", err
}

// Query runs the statement in a managed read transaction and returns each
// record as a key/value map.
func (c *Client) Query(ctx context.Context, statement string, params map[string]any) ([]map[string]any, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, statement, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, 0, len(records))
		for _, record := range records {
			rows = append(rows, record.AsMap())
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]map[string]any), nil
}

// HasPropertyValue probes whether any node with the label has the property
// equal to the value, ignoring case.
func (c *Client) HasPropertyValue(ctx context.Context, label, property, value string) (bool, error) {
	statement := fmt.Sprintf(
		"MATCH (n:`%s`) WHERE toLower(n.`%s`) = toLower($value) RETURN 'yes' LIMIT 1",
		escapeIdent(label), escapeIdent(property))
	rows, err := c.Query(ctx, statement, map[string]any{"value": value})
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// escapeIdent keeps backtick-quoted identifiers well formed. Labels and
// property keys come from model output, not from the user, but they are
// still untrusted text.
func escapeIdent(ident string) string {
	return strings.ReplaceAll(ident, "`", "")
}

func propertyType(v any) string {
	types, _ := v.([]any)
	if len(types) == 0 {
		return "UNKNOWN"
	}
	t, _ := types[0].(string)
	return strings.ToUpper(strings.TrimSuffix(t, "Array"))
}
