// Package sqlstore implements transcript.Driver over an ent SQL driver.
// The sqlite and postgres packages supply the connection and schema; ent's
// dialect builders take care of quoting, placeholders and RETURNING.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/frantai/folio/pkg/transcript"
)

const exchangesTable = "exchanges"

var exchangeColumns = []string{
	"id", "session_id", "question", "answer", "response_time_ms", "failed", "created_at",
}

// Dialect describes one supported database.
type Dialect struct {
	// Name is an ent dialect name (dialect.SQLite, dialect.Postgres).
	Name string

	// Schema holds the statements run on open. They must be idempotent.
	Schema []string
}

// Store implements transcript.Driver on an ent SQL driver.
// Timestamps are stored as Unix nanoseconds so aggregates read back the
// same way on every database.
type Store struct {
	drv *entsql.Driver
	now func() time.Time
}

// New wraps db with ent's driver for the dialect, runs the schema and
// returns a Store using it.
func New(ctx context.Context, db *sql.DB, d Dialect) (*Store, error) {
	drv := entsql.OpenDB(d.Name, db)

	for _, stmt := range d.Schema {
		if err := drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			return nil, fmt.Errorf("failed to create %s schema: %w", d.Name, err)
		}
	}

	return &Store{
		drv: drv,
		now: time.Now,
	}, nil
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.drv.DB()
}

func (s *Store) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.drv.Dialect())
}

// Put stores an exchange and sets its ID.
func (s *Store) Put(ctx context.Context, ex *transcript.Exchange) error {
	if ex == nil {
		return errors.New("cannot store nil exchange")
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = s.now()
	}

	query, args := insertExchange(s.builder(), ex)

	var rows entsql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		return fmt.Errorf("inserting exchange: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("inserting exchange: %w", err)
		}
		return errors.New("inserting exchange: no id returned")
	}
	if err := rows.Scan(&ex.ID); err != nil {
		return fmt.Errorf("reading exchange id: %w", err)
	}

	return rows.Err()
}

// List returns a session's exchanges, oldest first.
func (s *Store) List(ctx context.Context, sessionID uuid.UUID) ([]*transcript.Exchange, error) {
	b := s.builder()
	query, args := b.Select(exchangeColumns...).
		From(b.Table(exchangesTable)).
		Where(entsql.EQ("session_id", sessionID.String())).
		OrderBy("created_at", "id").
		Query()

	var rows entsql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("listing exchanges: %w", err)
	}
	defer rows.Close()

	var result []*transcript.Exchange
	for rows.Next() {
		ex, err := scanExchange(&rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing exchanges: %w", err)
	}

	if len(result) == 0 {
		return nil, transcript.ErrNotFound{SessionID: sessionID}
	}

	return result, nil
}

// sessionsQuery has no parameters and reads the same on both dialects.
const sessionsQuery = `SELECT session_id, COUNT(*), MIN(created_at), MAX(created_at)
FROM exchanges
GROUP BY session_id
ORDER BY MAX(created_at) DESC, session_id`

// Sessions returns one summary per session, most recently active first.
func (s *Store) Sessions(ctx context.Context) ([]transcript.SessionSummary, error) {
	var rows entsql.Rows
	if err := s.drv.Query(ctx, sessionsQuery, []any{}, &rows); err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	result := []transcript.SessionSummary{}
	for rows.Next() {
		var (
			rawID         string
			count         int
			first, latest int64
		)
		if err := rows.Scan(&rawID, &count, &first, &latest); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}

		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("stored session id %q: %w", rawID, err)
		}

		result = append(result, transcript.SessionSummary{
			SessionID: id,
			Exchanges: count,
			FirstAt:   time.Unix(0, first),
			LastAt:    time.Unix(0, latest),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	return result, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.drv.Close()
}

// insertExchange builds the INSERT for ex, returning the new id.
func insertExchange(b *entsql.DialectBuilder, ex *transcript.Exchange) (string, []any) {
	var responseTime sql.NullInt64
	if ex.ResponseTime > 0 {
		responseTime = sql.NullInt64{Int64: ex.ResponseTime.Milliseconds(), Valid: true}
	}

	return b.Insert(exchangesTable).
		Columns("session_id", "question", "answer", "response_time_ms", "failed", "created_at").
		Values(ex.SessionID.String(), ex.Question, ex.Answer, responseTime, ex.Failed, ex.CreatedAt.UnixNano()).
		Returning("id").
		Query()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExchange(row scanner) (*transcript.Exchange, error) {
	var (
		ex           transcript.Exchange
		rawID        string
		responseTime sql.NullInt64
		createdAt    int64
	)
	if err := row.Scan(&ex.ID, &rawID, &ex.Question, &ex.Answer, &responseTime, &ex.Failed, &createdAt); err != nil {
		return nil, fmt.Errorf("scanning exchange: %w", err)
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored session id %q: %w", rawID, err)
	}
	ex.SessionID = id
	ex.CreatedAt = time.Unix(0, createdAt)
	if responseTime.Valid {
		ex.ResponseTime = time.Duration(responseTime.Int64) * time.Millisecond
	}

	return &ex, nil
}

var _ transcript.Driver = (*Store)(nil)
