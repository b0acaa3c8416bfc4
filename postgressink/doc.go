// Package postgressink provides a ready-made sink that delivers drained
// event logs of instrumented value chains into a Postgres table.
//
// The sink satisfies both drain signatures of the instrumented package:
// pass s.Deliver to Run, or s.DeliverContext to RunAsync. Each drain call is
// written as one multi-row INSERT; all rows of a drain share a generated
// drain id so a complete trail can be queried back as a unit.
//
// Three database access layers are supported through constructors:
//   - NewSinkFromPGXPool: pgxpool.Pool (pgx/v5)
//   - NewSinkFromSQLDB: database/sql
//   - NewSinkFromSQLX: sqlx.DB
//
// Expected table shape:
//
//	CREATE TABLE pipeline_events (
//	    drain_id    uuid                     NOT NULL,
//	    position    integer                  NOT NULL,
//	    caller      text                     NOT NULL,
//	    input       jsonb                    NULL,
//	    value       jsonb                    NOT NULL,
//	    fields      jsonb                    NOT NULL,
//	    recorded_at timestamp with time zone NOT NULL,
//	    PRIMARY KEY (drain_id, position)
//	);
//
// There is no retry, batching, or buffering; a delivery failure is returned
// to the drain caller unhandled, per the sink contract.
package postgressink
