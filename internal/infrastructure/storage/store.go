package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"IPOAlertBot/internal/domain"
	"IPOAlertBot/internal/ports"
)

const stateTable = "ipo_state"

const schema = `CREATE TABLE IF NOT EXISTS ipo_state (
    name          TEXT PRIMARY KEY,
    open_sent     BOOLEAN   NOT NULL DEFAULT FALSE,
    last_day_sent BOOLEAN   NOT NULL DEFAULT FALSE,
    interest      TEXT      NOT NULL DEFAULT 'unknown',
    created_at    TIMESTAMP NOT NULL,
    updated_at    TIMESTAMP NOT NULL
)`

// Store persists offering alert state in a SQL database. The same adapter
// serves sqlite3 (the default, a local file) and postgres; only the
// placeholder dialect differs.
type Store struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	now     func() time.Time
}

var _ ports.StateStore = (*Store)(nil)

// Open connects to the database, ensures the schema exists, and returns an
// owned handle; the caller closes it at shutdown.
func Open(driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == "sqlite3" {
		// One connection serializes writers and keeps :memory: databases
		// from resetting per pooled connection.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return newWithDB(db, driver), nil
}

func newWithDB(db *sql.DB, driver string) *Store {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Question)
	if driver == "postgres" {
		builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return &Store{db: db, builder: builder, now: time.Now}
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetOrCreate returns the row for name, inserting a default one first if the
// offering has never been seen. Safe to call repeatedly; name is the
// uniqueness constraint.
func (s *Store) GetOrCreate(ctx context.Context, name string) (domain.OfferingState, error) {
	now := s.now().UTC()

	query, args, err := s.builder.
		Insert(stateTable).
		Columns("name", "open_sent", "last_day_sent", "interest", "created_at", "updated_at").
		Values(name, false, false, domain.InterestUnknown, now, now).
		Suffix("ON CONFLICT (name) DO NOTHING").
		ToSql()
	if err != nil {
		return domain.OfferingState{}, fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return domain.OfferingState{}, fmt.Errorf("insert state %q: %w", name, err)
	}

	return s.get(ctx, name)
}

func (s *Store) get(ctx context.Context, name string) (domain.OfferingState, error) {
	query, args, err := s.builder.
		Select("name", "open_sent", "last_day_sent", "interest", "created_at", "updated_at").
		From(stateTable).
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return domain.OfferingState{}, fmt.Errorf("build select: %w", err)
	}

	var (
		state    domain.OfferingState
		interest string
	)
	row := s.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&state.Name, &state.OpenAlertSent, &state.LastDayAlertSent,
		&interest, &state.CreatedAt, &state.UpdatedAt); err != nil {
		return domain.OfferingState{}, fmt.Errorf("scan state %q: %w", name, err)
	}

	state.Interest = domain.Interest(interest)
	if !state.Interest.Valid() {
		state.Interest = domain.InterestUnknown
	}

	return state, nil
}

// MarkOpenAlertSent records that the open alert was delivered. Idempotent.
func (s *Store) MarkOpenAlertSent(ctx context.Context, name string) error {
	return s.setFlag(ctx, name, "open_sent")
}

// MarkLastDayAlertSent records that the last-day alert was delivered. Idempotent.
func (s *Store) MarkLastDayAlertSent(ctx context.Context, name string) error {
	return s.setFlag(ctx, name, "last_day_sent")
}

func (s *Store) setFlag(ctx context.Context, name, column string) error {
	query, args, err := s.builder.
		Update(stateTable).
		Set(column, true).
		Set("updated_at", s.now().UTC()).
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark %s for %q: %w", column, name, err)
	}

	return nil
}

// SetInterest overwrites the interest flag, creating the row first if an
// interest update raced the pass that would have created it.
func (s *Store) SetInterest(ctx context.Context, name string, interest domain.Interest) error {
	now := s.now().UTC()

	query, args, err := s.builder.
		Insert(stateTable).
		Columns("name", "open_sent", "last_day_sent", "interest", "created_at", "updated_at").
		Values(name, false, false, interest, now, now).
		Suffix("ON CONFLICT (name) DO UPDATE SET interest = EXCLUDED.interest, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set interest for %q: %w", name, err)
	}

	return nil
}
