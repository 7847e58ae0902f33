// Package backup exports analysis history to checksummed archives and
// restores it into any history store.
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nvandessel/wingman/internal/store"
)

const filePrefix = "wingman-history-"
const fileExt = ".backup"

// Backup writes every record in hs to path, newest first.
func Backup(ctx context.Context, hs store.HistoryStore, path string, metadata map[string]string) (*Header, error) {
	var records []store.Record
	for offset := 0; ; offset += store.MaxListLimit {
		page, err := hs.List(ctx, store.ListOptions{Limit: store.MaxListLimit, Offset: offset})
		if err != nil {
			return nil, fmt.Errorf("failed to list analyses: %w", err)
		}
		records = append(records, page...)
		if len(page) < store.MaxListLimit {
			break
		}
	}

	return Write(path, &Archive{
		CreatedAt: time.Now().UTC(),
		Records:   records,
	}, metadata)
}

// RestoreResult contains statistics about the restore operation.
type RestoreResult struct {
	Restored int `json:"restored"`
	Skipped  int `json:"skipped"`
}

// Restore imports records from a backup file. Records whose ID already
// exists in hs are skipped, so restoring the same file twice is harmless.
func Restore(ctx context.Context, hs store.HistoryStore, path string) (*RestoreResult, error) {
	_, archive, err := Read(path)
	if err != nil {
		return nil, err
	}

	result := &RestoreResult{}
	for _, rec := range archive.Records {
		_, err := hs.Get(ctx, rec.ID)
		switch {
		case err == nil:
			result.Skipped++
			continue
		case !errors.Is(err, store.ErrNotFound):
			return nil, fmt.Errorf("failed to check existing analysis %s: %w", rec.ID, err)
		}

		if err := hs.Save(ctx, rec); err != nil {
			return nil, fmt.Errorf("failed to restore analysis %s: %w", rec.ID, err)
		}
		result.Restored++
	}
	return result, nil
}

// GeneratePath creates a timestamped backup filename in dir.
func GeneratePath(dir string, now time.Time) string {
	return filepath.Join(dir, filePrefix+now.UTC().Format("20060102-150405")+fileExt)
}

// Rotate keeps only the keepN most recent backups in dir, deleting older
// ones. Files that are not wingman backups are left alone.
func Rotate(dir string, keepN int) (removed []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileExt) {
			backups = append(backups, name)
		}
	}

	// Newest first; the timestamp in the name sorts lexically.
	sort.Sort(sort.Reverse(sort.StringSlice(backups)))

	if keepN < 0 {
		keepN = 0
	}
	if len(backups) <= keepN {
		return nil, nil
	}
	for _, name := range backups[keepN:] {
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("failed to remove old backup %s: %w", name, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}
