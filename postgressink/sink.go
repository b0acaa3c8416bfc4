package postgressink

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"github.com/trailware/instrumented-values-go/instrumented"
	"github.com/trailware/instrumented-values-go/postgressink/internal/adapters"
)

var (
	// ErrNilDatabaseConnection is returned when a sink is constructed from a
	// nil connection or pool.
	ErrNilDatabaseConnection = errors.New("nil database connection supplied")

	// ErrEmptyTableName is returned when WithTableName is given an empty name.
	ErrEmptyTableName = errors.New("empty table name supplied")

	// ErrBuildInsertQueryFailed is returned when the INSERT statement cannot
	// be built from the drained records.
	ErrBuildInsertQueryFailed = errors.New("building insert query failed")

	// ErrMarshalingFieldsFailed is returned when a record's free-form fields
	// cannot be serialized for storage.
	ErrMarshalingFieldsFailed = errors.New("marshaling record fields failed")

	// ErrDeliveryFailed is returned when the database rejects the insert.
	ErrDeliveryFailed = errors.New("delivering records failed")

	// ErrIncompleteDelivery is returned when the database reports fewer rows
	// written than records delivered.
	ErrIncompleteDelivery = errors.New("not all records were written")
)

const (
	defaultTableName = "pipeline_events"

	colDrainID    = "drain_id"
	colPosition   = "position"
	colCaller     = "caller"
	colInput      = "input"
	colValue      = "value"
	colFields     = "fields"
	colRecordedAt = "recorded_at"

	dialectPostgres = "postgres"
	castJsonb       = "?::jsonb"

	emptyFieldsJSON = "{}"

	logMsgBuildInsertQueryFailed = "failed to build insert query"
	logMsgDBExecFailed           = "database execution failed during record delivery"
	logMsgRowsAffectedFailed     = "failed to get rows affected count"
	logMsgRecordsDelivered       = "event records delivered"
	logMsgSQLExecuted            = "executed sql for record delivery"

	logAttrError       = "error"
	logAttrQuery       = "query"
	logAttrDrainID     = "drain_id"
	logAttrRecordCount = "record_count"
	logAttrDurationMS  = "duration_ms"
)

// Sink writes drained event logs into a Postgres table. Construct it with
// one of the NewSinkFrom* factories; the zero value is not usable.
type Sink struct {
	adapter   adapters.DBAdapter
	tableName string
	logger    instrumented.Logger
}

// Option defines a functional option for configuring the Sink.
type Option func(*Sink) error

// WithTableName sets the target table name. Defaults to "pipeline_events".
func WithTableName(tableName string) Option {
	return func(s *Sink) error {
		if tableName == "" {
			return ErrEmptyTableName
		}

		s.tableName = tableName

		return nil
	}
}

// WithLogger sets the logger for the Sink.
//
// Debug level: generated SQL (development use)
// Info level: record counts and delivery durations (production-safe)
// Error level: failed deliveries.
func WithLogger(logger instrumented.Logger) Option {
	return func(s *Sink) error {
		s.logger = logger
		return nil
	}
}

// NewSinkFromPGXPool creates a Sink backed by a pgx connection pool.
func NewSinkFromPGXPool(pool *pgxpool.Pool, opts ...Option) (*Sink, error) {
	if pool == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newSink(adapters.NewPGXAdapter(pool), opts...)
}

// NewSinkFromSQLDB creates a Sink backed by a database/sql connection pool.
func NewSinkFromSQLDB(db *sql.DB, opts ...Option) (*Sink, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newSink(adapters.NewSQLAdapter(db), opts...)
}

// NewSinkFromSQLX creates a Sink backed by an sqlx connection pool.
func NewSinkFromSQLX(db *sqlx.DB, opts ...Option) (*Sink, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newSink(adapters.NewSQLXAdapter(db), opts...)
}

func newSink(adapter adapters.DBAdapter, opts ...Option) (*Sink, error) {
	sink := &Sink{
		adapter:   adapter,
		tableName: defaultTableName,
	}

	for _, opt := range opts {
		if err := opt(sink); err != nil {
			return nil, err
		}
	}

	return sink, nil
}

// Deliver writes the full ordered event log of one drain as a single
// multi-row INSERT. It satisfies instrumented.Sink.
func (s *Sink) Deliver(records instrumented.EventRecords) error {
	return s.DeliverContext(context.Background(), records)
}

// DeliverContext is the context-aware variant of Deliver. It satisfies
// instrumented.AsyncSink.
func (s *Sink) DeliverContext(ctx context.Context, records instrumented.EventRecords) error {
	if len(records) == 0 {
		return nil
	}

	drainID := uuid.New()

	sqlQuery, err := s.buildInsertQuery(drainID, records)
	if err != nil {
		return err
	}

	start := time.Now()

	result, err := s.adapter.Exec(ctx, sqlQuery)
	if err != nil {
		s.logError(logMsgDBExecFailed, err)
		return errors.Join(ErrDeliveryFailed, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.logError(logMsgRowsAffectedFailed, err)
		return errors.Join(ErrDeliveryFailed, err)
	}

	if rowsAffected != int64(len(records)) {
		return ErrIncompleteDelivery
	}

	s.logDebug(logMsgSQLExecuted, logAttrQuery, sqlQuery)
	s.logInfo(logMsgRecordsDelivered,
		logAttrDrainID, drainID.String(),
		logAttrRecordCount, len(records),
		logAttrDurationMS, time.Since(start).Milliseconds())

	return nil
}

func (s *Sink) buildInsertQuery(drainID uuid.UUID, records instrumented.EventRecords) (string, error) {
	rows := make([][]interface{}, 0, len(records))

	for position, record := range records {
		fieldsJSON, err := marshalFields(record.Fields)
		if err != nil {
			return "", err
		}

		var input any // construction records carry no input snapshot
		if record.Input != nil {
			input = goqu.L(castJsonb, string(record.Input))
		}

		rows = append(rows, goqu.Vals{
			drainID.String(),
			position,
			record.Caller,
			input,
			goqu.L(castJsonb, string(record.Value)),
			goqu.L(castJsonb, fieldsJSON),
			record.RecordedAt,
		})
	}

	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(s.tableName).
		Cols(colDrainID, colPosition, colCaller, colInput, colValue, colFields, colRecordedAt).
		Vals(rows...)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildInsertQueryFailed, toSQLErr)
		return "", errors.Join(ErrBuildInsertQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func marshalFields(fields instrumented.Fields) (string, error) {
	if len(fields) == 0 {
		return emptyFieldsJSON, nil
	}

	data, err := jsoniter.ConfigFastest.Marshal(fields)
	if err != nil {
		return "", errors.Join(ErrMarshalingFieldsFailed, err)
	}

	return string(data), nil
}

func (s *Sink) logDebug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Sink) logInfo(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Sink) logError(msg string, err error) {
	if s.logger != nil {
		s.logger.Error(msg, logAttrError, err.Error())
	}
}
