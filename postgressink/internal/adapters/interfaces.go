// Package adapters provides database abstraction implementations for the
// postgres sink, supporting pgx.Pool, database/sql and sqlx connections
// behind one small execution interface.
package adapters

import "context"

// DBAdapter defines the interface for database operations needed by the sink.
// Delivery only ever executes INSERT statements, so a single Exec method is
// enough.
type DBAdapter interface {
	Exec(ctx context.Context, query string) (DBResult, error)
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
