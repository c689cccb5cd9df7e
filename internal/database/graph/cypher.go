package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Clauses that mutate the graph. The engine treats the knowledge graph as
// immutable, so the query surface rejects them outright.
var writeClauses = map[string]bool{
	"CREATE": true,
	"MERGE":  true,
	"DELETE": true,
	"DETACH": true,
	"SET":    true,
	"REMOVE": true,
	"DROP":   true,
	"CALL":   true,
}

// ExecuteCypher executes a read-only Cypher query and returns the results.
// Mutating clauses are rejected so the advisor surface can never write.
func (c *Neo4jClient) ExecuteCypher(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	if clause := firstWriteClause(query); clause != "" {
		return nil, fmt.Errorf("rejected cypher query: %s is not allowed on the read-only surface", clause)
	}
	return c.read(ctx, query, params)
}

// read runs one query in a fresh read session and flattens the records.
func (c *Neo4jClient) read(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.dbName,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}

		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		// Convert records to maps
		var rows []map[string]any
		for _, record := range records {
			rowMap := make(map[string]any)
			for i, key := range record.Keys {
				rowMap[key] = convertNeo4jValue(record.Values[i])
			}
			rows = append(rows, rowMap)
		}

		return rows, nil
	})
	if err != nil {
		if neo4j.IsConnectivityError(err) {
			return nil, unavailable(err)
		}
		return nil, fmt.Errorf("cypher execution failed: %w", err)
	}

	return result.([]map[string]any), nil
}

// firstWriteClause returns the first mutating keyword found in the query,
// or "" when the query is read-only.
func firstWriteClause(query string) string {
	for _, token := range strings.FieldsFunc(strings.ToUpper(query), func(r rune) bool {
		return (r < 'A' || r > 'Z') && r != '_'
	}) {
		if writeClauses[token] {
			return token
		}
	}
	return ""
}

// convertNeo4jValue converts Neo4j types to Go native types.
func convertNeo4jValue(val any) any {
	switch v := val.(type) {
	case neo4j.Node:
		return map[string]any{
			"labels":     v.Labels,
			"properties": v.Props,
			"id":         v.ElementId,
		}
	case neo4j.Relationship:
		return map[string]any{
			"type":       v.Type,
			"properties": v.Props,
			"startNode":  v.StartElementId,
			"endNode":    v.EndElementId,
		}
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = convertNeo4jValue(item)
		}
		return result
	case map[string]any:
		result := make(map[string]any)
		for k, item := range v {
			result[k] = convertNeo4jValue(item)
		}
		return result
	default:
		return v
	}
}
