package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresHistoryStore implements HistoryStore on a shared Postgres database.
type PostgresHistoryStore struct {
	pool *pgxpool.Pool
}

// NewPostgresHistoryStore connects to databaseURL and creates the table if missing.
func NewPostgresHistoryStore(ctx context.Context, databaseURL string) (*PostgresHistoryStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchemaV1); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresHistoryStore{pool: pool}, nil
}

// Save inserts rec.
func (s *PostgresHistoryStore) Save(ctx context.Context, rec Record) error {
	if err := validate(rec); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO wingman_analyses (id, created_at, subject_name, narrative, interpretation, percentile, severity, result)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.CreatedAt, rec.SubjectName, rec.Narrative,
		rec.Interpretation, rec.Percentile, rec.Severity, []byte(rec.Result),
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// Get returns the record with id or ErrNotFound.
func (s *PostgresHistoryStore) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, created_at, subject_name, narrative, interpretation, percentile, severity, result
		FROM wingman_analyses WHERE id = $1`, id)

	rec, err := scanPgRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	return rec, nil
}

// List returns matching records, newest first.
func (s *PostgresHistoryStore) List(ctx context.Context, opts ListOptions) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, created_at, subject_name, narrative, interpretation, percentile, severity, result
		FROM wingman_analyses
		WHERE $1 = '' OR lower(subject_name) = lower($1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, opts.SubjectName, opts.limit(), opts.offset())
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		rec, err := scanPgRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Close releases the pool.
func (s *PostgresHistoryStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPgRecord(row pgx.Row) (*Record, error) {
	var (
		rec    Record
		result []byte
	)
	if err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.SubjectName, &rec.Narrative,
		&rec.Interpretation, &rec.Percentile, &rec.Severity, &result); err != nil {
		return nil, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.Result = result
	return &rec, nil
}
