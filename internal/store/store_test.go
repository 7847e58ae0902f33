package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nvandessel/wingman/internal/models"
)

var baseTime = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func testRecord(subject string, offset time.Duration) Record {
	return Record{
		ID:             uuid.New(),
		CreatedAt:      baseTime.Add(offset),
		SubjectName:    subject,
		Narrative:      "She texted me first",
		Interpretation: "positive",
		Percentile:     62,
		Severity:       models.SeverityNone,
		Result:         []byte(`{"success":true}`),
	}
}

// runStoreContract exercises the HistoryStore behavior every backend shares.
func runStoreContract(t *testing.T, s HistoryStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		if _, err := s.Get(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("save rejects nil id", func(t *testing.T) {
		rec := testRecord("x", 0)
		rec.ID = uuid.Nil
		if err := s.Save(ctx, rec); err == nil {
			t.Error("Save() error = nil, want error")
		}
	})

	first := testRecord("Sarah", 0)
	second := testRecord("sarah", time.Minute)
	third := testRecord("Mia", 2*time.Minute)
	for _, rec := range []Record{first, second, third} {
		if err := s.Save(ctx, rec); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	t.Run("get round trip", func(t *testing.T) {
		got, err := s.Get(ctx, first.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.ID != first.ID || !got.CreatedAt.Equal(first.CreatedAt) {
			t.Errorf("Get() = %v at %v, want %v at %v", got.ID, got.CreatedAt, first.ID, first.CreatedAt)
		}
		if got.SubjectName != "Sarah" || got.Percentile != 62 || got.Interpretation != "positive" {
			t.Errorf("Get() summary = %+v", got)
		}
		res, err := got.Decode()
		if err != nil || !res.Success {
			t.Errorf("Decode() = %+v, %v", res, err)
		}
	})

	t.Run("list newest first", func(t *testing.T) {
		got, err := s.List(ctx, ListOptions{})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("len(List()) = %d, want 3", len(got))
		}
		want := []uuid.UUID{third.ID, second.ID, first.ID}
		for i, id := range want {
			if got[i].ID != id {
				t.Errorf("List()[%d] = %v, want %v", i, got[i].ID, id)
			}
		}
	})

	t.Run("list by subject ignores case", func(t *testing.T) {
		got, err := s.List(ctx, ListOptions{SubjectName: "SARAH"})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 2 {
			t.Errorf("len(List(SARAH)) = %d, want 2", len(got))
		}
	})

	t.Run("list limit", func(t *testing.T) {
		got, err := s.List(ctx, ListOptions{Limit: 1})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != third.ID {
			t.Errorf("List(limit 1) = %v, want [%v]", got, third.ID)
		}
	})

	t.Run("list offset", func(t *testing.T) {
		tests := []struct {
			offset int
			want   []uuid.UUID
		}{
			{1, []uuid.UUID{second.ID}},
			{2, []uuid.UUID{first.ID}},
			{3, nil},
			{10, nil},
		}
		for _, tt := range tests {
			got, err := s.List(ctx, ListOptions{Limit: 1, Offset: tt.offset})
			if err != nil {
				t.Fatalf("List(offset %d) error = %v", tt.offset, err)
			}
			if len(got) != len(tt.want) {
				t.Errorf("len(List(offset %d)) = %d, want %d", tt.offset, len(got), len(tt.want))
				continue
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("List(offset %d)[%d] = %v, want %v", tt.offset, i, got[i].ID, id)
				}
			}
		}
	})
}

func TestMemoryHistoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryHistoryStore())
}

func TestSQLiteHistoryStore(t *testing.T) {
	s, err := NewSQLiteHistoryStore(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("NewSQLiteHistoryStore() error = %v", err)
	}
	defer s.Close()
	runStoreContract(t, s)
}

func TestSQLiteHistoryStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := NewSQLiteHistoryStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteHistoryStore() error = %v", err)
	}
	rec := testRecord("Ana", 0)
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	s.Close()

	s, err = NewSQLiteHistoryStore(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()
	if _, err := s.Get(ctx, rec.ID); err != nil {
		t.Errorf("Get() after reopen error = %v", err)
	}
	if s.Path() != path {
		t.Errorf("Path() = %q, want %q", s.Path(), path)
	}
}

func TestSQLiteHistoryStore_DuplicateID(t *testing.T) {
	s, err := NewSQLiteHistoryStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewSQLiteHistoryStore() error = %v", err)
	}
	defer s.Close()

	rec := testRecord("Ana", 0)
	ctx := context.Background()
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Save(ctx, rec); err == nil {
		t.Error("second Save() error = nil, want primary key violation")
	}
}

func TestNewSQLiteHistoryStore_EmptyPath(t *testing.T) {
	if _, err := NewSQLiteHistoryStore(""); err == nil {
		t.Error("NewSQLiteHistoryStore(\"\") error = nil, want error")
	}
}

func TestNewRecord(t *testing.T) {
	in := models.AnalysisInput{
		Narrative: "She <b>laughed</b> at my joke",
		Context:   &models.SubjectContext{Name: "Zoë!"},
	}
	res := models.AnalysisResult{
		Success:  true,
		Signals:  &models.SignalReport{Interpretation: "very_positive"},
		Golden:   &models.GoldenAnalysis{Score: models.ScoreResult{Percentile: 81}},
		RedFlags: &models.RedFlagReport{Severity: models.SeverityMedium},
		Metadata: models.Metadata{AnalyzedAt: baseTime},
	}

	rec, err := NewRecord(in, res)
	if err != nil {
		t.Fatalf("NewRecord() error = %v", err)
	}

	tests := []struct {
		field string
		got   any
		want  any
	}{
		{"SubjectName", rec.SubjectName, "Zoë"},
		{"Narrative", rec.Narrative, "She laughed at my joke"},
		{"Interpretation", rec.Interpretation, "very_positive"},
		{"Percentile", rec.Percentile, 81},
		{"Severity", rec.Severity, models.SeverityMedium},
		{"CreatedAt", rec.CreatedAt, baseTime},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.field, tt.got, tt.want)
		}
	}
	if rec.ID == uuid.Nil {
		t.Error("ID is nil")
	}

	decoded, err := rec.Decode()
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if decoded.Golden == nil || decoded.Golden.Score.Percentile != 81 {
		t.Errorf("decoded golden = %+v", decoded.Golden)
	}
}

func TestNewRecord_FailedAnalysis(t *testing.T) {
	rec, err := NewRecord(models.AnalysisInput{Narrative: "x"}, models.AnalysisResult{Error: "boom"})
	if err != nil {
		t.Fatalf("NewRecord() error = %v", err)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt should default to now")
	}
	if rec.Interpretation != "" || rec.Severity != "" {
		t.Errorf("summary fields = %q/%q, want empty", rec.Interpretation, rec.Severity)
	}
}

func TestRecord_DecodeEmpty(t *testing.T) {
	if _, err := (Record{}).Decode(); err == nil {
		t.Error("Decode() error = nil, want error for empty result")
	}
}

func TestListOptionsLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultListLimit},
		{-3, DefaultListLimit},
		{5, 5},
		{MaxListLimit + 1, MaxListLimit},
	}
	for _, tt := range tests {
		if got := (ListOptions{Limit: tt.in}).limit(); got != tt.want {
			t.Errorf("limit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		driver  string
		dsn     string
		wantNil bool
		wantErr bool
	}{
		{driver: "memory"},
		{driver: "sqlite", dsn: filepath.Join(t.TempDir(), "h.db")},
		{driver: "none", wantNil: true},
		{driver: "mongo", wantNil: true, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			s, err := Open(ctx, tt.driver, tt.dsn)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if (s == nil) != tt.wantNil {
				t.Errorf("Open() store = %v, wantNil %v", s, tt.wantNil)
			}
			if s != nil {
				s.Close()
			}
		})
	}
}
