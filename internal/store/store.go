// Package store persists analysis results so earlier advice can be listed
// and revisited. Records are append-only.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nvandessel/wingman/internal/models"
	"github.com/nvandessel/wingman/internal/sanitize"
)

// ErrNotFound is returned by Get when no record has the requested ID.
var ErrNotFound = errors.New("record not found")

// Record is one stored analysis.
type Record struct {
	ID             uuid.UUID       `json:"id"`
	CreatedAt      time.Time       `json:"created_at"`
	SubjectName    string          `json:"subject_name,omitempty"`
	Narrative      string          `json:"narrative"`
	Interpretation string          `json:"interpretation"`
	Percentile     int             `json:"percentile"`
	Severity       string          `json:"severity"`
	Result         json.RawMessage `json:"result,omitempty"`
}

// ListOptions filters List. Records come back newest first.
type ListOptions struct {
	// Limit caps the number of records; zero means DefaultListLimit.
	Limit int

	// SubjectName, when set, matches records for that subject only (case-insensitive).
	SubjectName string

	// Offset skips that many records, for paging through long histories.
	Offset int
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 200
)

// limit normalizes the requested limit.
func (o ListOptions) limit() int {
	switch {
	case o.Limit <= 0:
		return DefaultListLimit
	case o.Limit > MaxListLimit:
		return MaxListLimit
	default:
		return o.Limit
	}
}

func (o ListOptions) offset() int {
	if o.Offset < 0 {
		return 0
	}
	return o.Offset
}

// HistoryStore saves and retrieves analysis records.
type HistoryStore interface {
	Save(ctx context.Context, rec Record) error
	Get(ctx context.Context, id uuid.UUID) (*Record, error)
	List(ctx context.Context, opts ListOptions) ([]Record, error)
	Close() error
}

// NewRecord builds a record for a finished analysis. Failed analyses are
// stored too; their summary fields are left empty.
func NewRecord(in models.AnalysisInput, res models.AnalysisResult) (Record, error) {
	body, err := json.Marshal(res)
	if err != nil {
		return Record{}, fmt.Errorf("encoding result: %w", err)
	}

	rec := Record{
		ID:        uuid.New(),
		CreatedAt: res.Metadata.AnalyzedAt.UTC(),
		Narrative: sanitize.Narrative(in.Narrative),
		Result:    body,
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if in.Context != nil {
		rec.SubjectName = sanitize.Name(in.Context.Name)
	}
	if res.Signals != nil {
		rec.Interpretation = res.Signals.Interpretation
	}
	if res.Golden != nil {
		rec.Percentile = res.Golden.Score.Percentile
	}
	if res.RedFlags != nil {
		rec.Severity = res.RedFlags.Severity
	}
	return rec, nil
}

// Decode unmarshals the stored analysis result.
func (r Record) Decode() (models.AnalysisResult, error) {
	var res models.AnalysisResult
	if len(r.Result) == 0 {
		return res, fmt.Errorf("record %s has no result", r.ID)
	}
	if err := json.Unmarshal(r.Result, &res); err != nil {
		return res, fmt.Errorf("decoding result for %s: %w", r.ID, err)
	}
	return res, nil
}

func validate(rec Record) error {
	if rec.ID == uuid.Nil {
		return fmt.Errorf("record ID is required")
	}
	if rec.CreatedAt.IsZero() {
		return fmt.Errorf("record %s: created_at is required", rec.ID)
	}
	return nil
}

// Open returns the store for driver. The "none" driver returns a nil
// store and no error; callers skip persistence when the store is nil.
func Open(ctx context.Context, driver, dsn string) (HistoryStore, error) {
	switch driver {
	case "", "sqlite":
		s, err := NewSQLiteHistoryStore(dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := NewPostgresHistoryStore(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return NewMemoryHistoryStore(), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", driver)
	}
}
