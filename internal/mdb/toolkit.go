// Package mdb adapts the external mdbtools toolkit. It exposes the three
// read-only operations the conversion pipeline needs against one legacy
// database file: table listing, schema dump, and per-table row export.
package mdb

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

const (
	toolTables = "mdb-tables"
	toolSchema = "mdb-schema"
	toolExport = "mdb-export"
)

// dialect is the SQL dialect requested from mdbtools. The converted output
// is a SQLite database, so schema and exports are asked for in SQLite form.
const dialect = "sqlite"

// RequiredTools lists the executables the toolkit needs on PATH.
var RequiredTools = []string{toolTables, toolSchema, toolExport}

// CheckTools verifies every required mdbtools executable is resolvable.
func CheckTools() error {
	for _, tool := range RequiredTools {
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("%s not found in PATH: %w", tool, err)
		}
	}
	return nil
}

// Toolkit runs mdbtools against one legacy database file. All operations are
// idempotent and read-only. The toolkit never retries; failure policy
// belongs to the caller.
type Toolkit struct {
	file       string
	dateFormat string
}

// NewToolkit binds a toolkit to one input file. dateFormat is the strftime
// format timestamps are exported in.
func NewToolkit(file, dateFormat string) *Toolkit {
	return &Toolkit{
		file:       file,
		dateFormat: dateFormat,
	}
}

// ListTables returns the file's table names, one per output line, in the
// order the tool reports them.
func (t *Toolkit) ListTables(ctx context.Context) ([]string, error) {
	out, err := t.run(ctx, toolTables, "-1", t.file)
	if err != nil {
		return nil, &ExtractionError{File: t.file, Err: err}
	}

	var tables []string
	for _, line := range strings.Split(out, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			tables = append(tables, name)
		}
	}
	return tables, nil
}

// DumpSchema returns DDL for all tables. DROP TABLE statements are included
// so re-applying the schema is safe.
func (t *Toolkit) DumpSchema(ctx context.Context) (string, error) {
	out, err := t.run(ctx, toolSchema, "--drop-table", "--no-relations", t.file, dialect)
	if err != nil {
		return "", &ExtractionError{File: t.file, Err: err}
	}
	return out, nil
}

// ExportTable returns INSERT statements for every row of one table. A table
// with no rows yields an empty fragment.
func (t *Toolkit) ExportTable(ctx context.Context, table string) (string, error) {
	out, err := t.run(ctx, toolExport, "-H", "-D", t.dateFormat, "-I", dialect, t.file, table)
	if err != nil {
		return "", &ExtractionError{File: t.file, Table: table, Err: err}
	}
	return out, nil
}

// run invokes one tool and captures stdout. Stderr is folded into the error
// on non-zero exit.
func (t *Toolkit) run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return "", fmt.Errorf("%s: %w", name, err)
	}

	return stdout.String(), nil
}
