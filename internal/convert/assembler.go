package convert

import (
	"context"
	"strings"
)

// Assemble builds the conversion script for one input file: a transaction
// open, the schema verbatim, one DML fragment per table in the given order,
// and a commit. Schema statements always precede row data, so an insert can
// never run before its table exists. A table with no rows contributes an
// empty fragment. An export failure aborts the assembly with that error.
func Assemble(ctx context.Context, schema string, tables []string, export func(context.Context, string) (string, error)) (string, error) {
	var b strings.Builder

	b.WriteString("BEGIN;\n")

	b.WriteString(schema)
	if !strings.HasSuffix(schema, "\n") {
		b.WriteString("\n")
	}

	for _, table := range tables {
		dml, err := export(ctx, table)
		if err != nil {
			return "", err
		}
		b.WriteString(dml)
		if dml != "" && !strings.HasSuffix(dml, "\n") {
			b.WriteString("\n")
		}
	}

	b.WriteString("COMMIT;\n")

	return b.String(), nil
}
