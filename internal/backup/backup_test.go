package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nvandessel/wingman/internal/models"
	"github.com/nvandessel/wingman/internal/store"
)

var baseTime = time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)

func seedStore(t *testing.T, n int) *store.MemoryHistoryStore {
	t.Helper()
	hs := store.NewMemoryHistoryStore()
	for i := 0; i < n; i++ {
		rec := store.Record{
			ID:             uuid.New(),
			CreatedAt:      baseTime.Add(time.Duration(i) * time.Minute),
			SubjectName:    fmt.Sprintf("subject-%d", i%3),
			Narrative:      "we talked about hiking",
			Interpretation: "positive",
			Percentile:     40 + i%50,
			Severity:       models.SeverityNone,
			Result:         []byte(`{"success":true}`),
		}
		if err := hs.Save(context.Background(), rec); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
	return hs
}

func TestBackupRestore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	// More than one List page.
	src := seedStore(t, store.MaxListLimit+25)
	path := filepath.Join(t.TempDir(), "nested", "history.backup")

	header, err := Backup(ctx, src, path, map[string]string{"driver": "memory"})
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if header.RecordCount != store.MaxListLimit+25 {
		t.Errorf("RecordCount = %d, want %d", header.RecordCount, store.MaxListLimit+25)
	}
	if !strings.HasPrefix(header.Checksum, "sha256:") || !header.Compressed {
		t.Errorf("header = %+v", header)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat backup: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 600", perm)
	}

	dst := store.NewMemoryHistoryStore()
	result, err := Restore(ctx, dst, path)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if result.Restored != header.RecordCount || result.Skipped != 0 {
		t.Errorf("Restore() = %+v, want %d restored", result, header.RecordCount)
	}

	again, err := Restore(ctx, dst, path)
	if err != nil {
		t.Fatalf("second Restore() error = %v", err)
	}
	if again.Restored != 0 || again.Skipped != header.RecordCount {
		t.Errorf("second Restore() = %+v, want everything skipped", again)
	}

	got, err := dst.List(ctx, store.ListOptions{Limit: 1})
	if err != nil || len(got) != 1 {
		t.Fatalf("List() = %v, %v", got, err)
	}
	if want := baseTime.Add(time.Duration(store.MaxListLimit+24) * time.Minute); !got[0].CreatedAt.Equal(want) {
		t.Errorf("newest restored record at %v, want %v", got[0].CreatedAt, want)
	}
}

func TestBackup_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.backup")
	header, err := Backup(context.Background(), store.NewMemoryHistoryStore(), path, nil)
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if header.RecordCount != 0 {
		t.Errorf("RecordCount = %d, want 0", header.RecordCount)
	}
	if _, a, err := Read(path); err != nil || len(a.Records) != 0 {
		t.Errorf("Read() = %v, %v", a, err)
	}
}

func TestRead_Corruption(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.backup")
	if _, err := Backup(context.Background(), seedStore(t, 3), good, nil); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(good)
	if err != nil {
		t.Fatal(err)
	}

	tampered := append([]byte{}, data...)
	tampered[len(tampered)-5] ^= 0xff

	nl := strings.IndexByte(string(data), '\n')
	wrongVersion := strings.Replace(string(data[:nl]), `"version":1`, `"version":9`, 1) + string(data[nl:])

	tests := []struct {
		name    string
		content []byte
		want    string
	}{
		{"tampered payload", tampered, "checksum mismatch"},
		{"wrong version", []byte(wrongVersion), "unsupported backup version"},
		{"no header", []byte("not a backup"), "reading header line"},
		{"bad header", []byte("{nope\n"), "parsing header"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".backup")
			if err := os.WriteFile(path, tt.content, 0600); err != nil {
				t.Fatal(err)
			}
			if _, _, err := Read(path); err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Read() error = %v, want %q", err, tt.want)
			}
		})
	}

	if err := VerifyChecksum(good); err != nil {
		t.Errorf("VerifyChecksum(good) error = %v", err)
	}
	bad := filepath.Join(dir, "tampered payload.backup")
	if err := VerifyChecksum(bad); err == nil {
		t.Error("VerifyChecksum(tampered) = nil, want mismatch")
	}

	header, err := ReadHeader(good)
	if err != nil || header.RecordCount != 3 {
		t.Errorf("ReadHeader() = %+v, %v", header, err)
	}
}

func TestRotate(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 5; i++ {
		p := GeneratePath(dir, baseTime.Add(time.Duration(i)*time.Hour))
		if err := os.WriteFile(p, []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(other, []byte("keep me"), 0600); err != nil {
		t.Fatal(err)
	}

	removed, err := Rotate(dir, 2)
	if err != nil {
		t.Fatalf("Rotate() error = %v", err)
	}
	if len(removed) != 3 {
		t.Errorf("removed %d backups, want 3", len(removed))
	}
	for i, p := range paths {
		_, statErr := os.Stat(p)
		if kept := statErr == nil; kept != (i >= 3) {
			t.Errorf("%s kept = %v, want %v", filepath.Base(p), kept, i >= 3)
		}
	}
	if _, err := os.Stat(other); err != nil {
		t.Error("Rotate() removed a file that is not a backup")
	}

	if removed, err := Rotate(filepath.Join(dir, "missing"), 1); err != nil || removed != nil {
		t.Errorf("Rotate(missing dir) = %v, %v", removed, err)
	}
}

func TestGeneratePath(t *testing.T) {
	got := GeneratePath("/backups", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	want := filepath.Join("/backups", "wingman-history-20260102-030405.backup")
	if got != want {
		t.Errorf("GeneratePath() = %q, want %q", got, want)
	}
}
