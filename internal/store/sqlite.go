package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// timeLayout has fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteHistoryStore implements HistoryStore on a local SQLite file.
type SQLiteHistoryStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteHistoryStore opens (creating if needed) the database at path.
// The special path ":memory:" opens a private in-memory database.
func NewSQLiteHistoryStore(path string) (*SQLiteHistoryStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &SQLiteHistoryStore{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *SQLiteHistoryStore) Path() string {
	return s.path
}

// Save inserts rec.
func (s *SQLiteHistoryStore) Save(ctx context.Context, rec Record) error {
	if err := validate(rec); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analyses (id, created_at, subject_name, narrative, interpretation, percentile, severity, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.CreatedAt.UTC().Format(timeLayout), rec.SubjectName, rec.Narrative,
		rec.Interpretation, rec.Percentile, rec.Severity, string(rec.Result),
	)
	if err != nil {
		return fmt.Errorf("inserting analysis %s: %w", rec.ID, err)
	}
	return nil
}

// Get returns the record with id or ErrNotFound.
func (s *SQLiteHistoryStore) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, subject_name, narrative, interpretation, percentile, severity, result
		FROM analyses WHERE id = ?`, id.String())

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting analysis %s: %w", id, err)
	}
	return rec, nil
}

// List returns matching records, newest first.
func (s *SQLiteHistoryStore) List(ctx context.Context, opts ListOptions) ([]Record, error) {
	query := `SELECT id, created_at, subject_name, narrative, interpretation, percentile, severity, result
		FROM analyses`
	args := []any{}
	if opts.SubjectName != "" {
		query += ` WHERE subject_name = ? COLLATE NOCASE`
		args = append(args, opts.SubjectName)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, opts.limit(), opts.offset())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning analysis: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteHistoryStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*Record, error) {
	var (
		rec       Record
		id        string
		createdAt string
		result    string
	)
	if err := sc.Scan(&id, &createdAt, &rec.SubjectName, &rec.Narrative,
		&rec.Interpretation, &rec.Percentile, &rec.Severity, &result); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parsing id %q: %w", id, err)
	}
	rec.ID = parsed

	rec.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	rec.Result = []byte(result)
	return &rec, nil
}
