package convert

import "context"

// Extractor provides read-only access to one legacy database file. The mdb
// toolkit is the production implementation.
type Extractor interface {
	// ListTables returns table names in a stable, tool-reported order.
	ListTables(ctx context.Context) ([]string, error)
	// DumpSchema returns DDL for all tables in the output store's dialect.
	DumpSchema(ctx context.Context) (string, error)
	// ExportTable returns DML for every row of one table; empty for a table
	// with no rows.
	ExportTable(ctx context.Context, table string) (string, error)
}

// ExtractorFactory binds an Extractor to one input file.
type ExtractorFactory func(file string) Extractor
