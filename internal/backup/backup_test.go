package backup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

func newTestScheduler(t *testing.T, source string, retentionDays int) *Scheduler {
	t.Helper()
	return NewScheduler(config.BackupConfig{
		Dir:           t.TempDir(),
		Schedule:      "0 2 * * *",
		RetentionDays: retentionDays,
	}, source, zap.NewNop())
}

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "helpdesk.db")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func TestSnapshotCopiesStoreFile(t *testing.T) {
	t.Parallel()
	scheduler := newTestScheduler(t, writeSource(t, "sqlite payload"), 30)

	name, err := scheduler.snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".db") {
		t.Errorf("backup name = %q", name)
	}
	data, err := os.ReadFile(filepath.Join(scheduler.dir, name))
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(data) != "sqlite payload" {
		t.Errorf("backup content = %q", data)
	}
}

func TestSnapshotSkipsMissingSource(t *testing.T) {
	t.Parallel()
	scheduler := newTestScheduler(t, filepath.Join(t.TempDir(), "absent.db"), 30)

	name, err := scheduler.snapshot()
	if err != nil {
		t.Fatalf("missing source should not error, got %v", err)
	}
	if name != "" {
		t.Errorf("missing source produced backup %q", name)
	}
}

func TestSweepRemovesExpiredBackups(t *testing.T) {
	t.Parallel()
	scheduler := newTestScheduler(t, writeSource(t, "data"), 7)

	now := time.Now()
	old := filepath.Join(scheduler.dir, "backup_2024-01-01_02-00-00.db")
	fresh := filepath.Join(scheduler.dir, "backup_recent.db")
	unrelated := filepath.Join(scheduler.dir, "notes.txt")
	for _, path := range []string{old, fresh, unrelated} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	stale := now.Add(-8 * 24 * time.Hour)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatalf("age old backup: %v", err)
	}
	if err := os.Chtimes(unrelated, stale, stale); err != nil {
		t.Fatalf("age unrelated file: %v", err)
	}

	removed, err := scheduler.sweep(now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("expired backup still present")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh backup removed: %v", err)
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Errorf("non-backup file removed: %v", err)
	}
}

func TestRunOnceSnapshotsAndSweeps(t *testing.T) {
	t.Parallel()
	scheduler := newTestScheduler(t, writeSource(t, "data"), 7)
	if err := os.MkdirAll(scheduler.dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	scheduler.RunOnce()

	entries, err := os.ReadDir(scheduler.dir)
	if err != nil {
		t.Fatalf("read backup dir: %v", err)
	}
	count := 0
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), filePrefix) {
			count++
		}
	}
	if count != 1 {
		t.Errorf("backups after RunOnce = %d, want 1", count)
	}
}
