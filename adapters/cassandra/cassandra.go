//
// nose - an automated schema and index advisor for wide-column stores
//
//  Copyright (c) 2026 The NoSE Authors. All rights reserved.
//

// Package cassandra is the backend collaborator that renders a chosen
// schema into wide-column DDL. No Cassandra driver (gocql or
// otherwise) appears anywhere in the retrieval pack, and spec.md's
// Non-goals exclude physical execution and network I/O, so this
// collaborator only generates CQL text — there is no live session, no
// dial, no query execution. A real deployment would hand this output
// to a driver; that wiring belongs outside the core by design.
package cassandra

import (
	"fmt"
	"strings"

	"github.com/nose-project/nose/entities/observability"
)

// TableName derives a stable table name from an index's key, short
// enough to read in DDL output and migration logs.
func TableName(indexKey string) string {
	if len(indexKey) > 12 {
		indexKey = indexKey[:12]
	}
	return "idx_" + indexKey
}

// CreateTableStatements renders one CREATE TABLE statement per chosen
// index: hash fields form the partition key, order fields the cluster
// key, and extra fields plain columns.
func CreateTableStatements(schema *observability.ChosenSchema) []string {
	out := make([]string, 0, len(schema.Indexes))
	for _, ix := range schema.Indexes {
		out = append(out, createTableStatement(ix))
	}
	return out
}

func createTableStatement(ix observability.IndexDescriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", TableName(ix.Key))

	columns := make([]string, 0, len(ix.Hash)+len(ix.Order)+len(ix.Extra))
	seen := make(map[string]bool)
	addColumn := func(name string) {
		col := columnName(name)
		if seen[col] {
			return
		}
		seen[col] = true
		columns = append(columns, col)
	}
	for _, f := range ix.Hash {
		addColumn(f)
	}
	for _, f := range ix.Order {
		addColumn(f)
	}
	for _, f := range ix.Extra {
		addColumn(f)
	}

	for _, col := range columns {
		fmt.Fprintf(&b, "  %s text,\n", col)
	}

	hashCols := make([]string, len(ix.Hash))
	for i, f := range ix.Hash {
		hashCols[i] = columnName(f)
	}
	orderCols := make([]string, len(ix.Order))
	for i, f := range ix.Order {
		orderCols[i] = columnName(f)
	}

	primaryKey := "(" + strings.Join(hashCols, ", ") + ")"
	if len(orderCols) > 0 {
		primaryKey += ", " + strings.Join(orderCols, ", ")
	}
	fmt.Fprintf(&b, "  PRIMARY KEY (%s)\n", primaryKey)
	b.WriteString(")")
	if len(orderCols) > 0 {
		b.WriteString(" WITH CLUSTERING ORDER BY (")
		clauses := make([]string, len(orderCols))
		for i, c := range orderCols {
			clauses[i] = c + " ASC"
		}
		b.WriteString(strings.Join(clauses, ", "))
		b.WriteString(")")
	}
	b.WriteString(";")
	return b.String()
}

// columnName turns an "entity.field" descriptor string into a CQL-safe
// column name.
func columnName(field string) string {
	return strings.ReplaceAll(field, ".", "_")
}

// DropTableStatements renders DROP TABLE statements for every index in
// schema, the counterpart backend operation for a schema being
// retired.
func DropTableStatements(schema *observability.ChosenSchema) []string {
	out := make([]string, 0, len(schema.Indexes))
	for _, ix := range schema.Indexes {
		out = append(out, fmt.Sprintf("DROP TABLE IF EXISTS %s;", TableName(ix.Key)))
	}
	return out
}
