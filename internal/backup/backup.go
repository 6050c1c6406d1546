package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

const filePrefix = "backup_"

// Scheduler snapshots the store file on a cron schedule and prunes old
// copies. It never fails the process: every problem is logged and the next
// run proceeds as scheduled.
type Scheduler struct {
	sourcePath string
	dir        string
	schedule   string
	retention  time.Duration
	logger     *zap.Logger
	cron       *cron.Cron
}

// NewScheduler builds a scheduler for the given store file.
func NewScheduler(cfg config.BackupConfig, sourcePath string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		sourcePath: sourcePath,
		dir:        cfg.Dir,
		schedule:   cfg.Schedule,
		retention:  time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		logger:     logger,
	}
}

// Start runs one immediate snapshot and then schedules the recurring job.
func (s *Scheduler) Start() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	s.RunOnce()

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, s.RunOnce); err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("backup scheduler started",
		zap.String("schedule", s.schedule), zap.String("dir", s.dir))
	return nil
}

// Stop halts the schedule and waits for a running snapshot to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// RunOnce takes a snapshot and then sweeps expired copies.
func (s *Scheduler) RunOnce() {
	if name, err := s.snapshot(); err != nil {
		s.logger.Error("backup failed", zap.Error(err))
	} else if name != "" {
		s.logger.Info("backup created", zap.String("file", name))
	}
	if removed, err := s.sweep(time.Now()); err != nil {
		s.logger.Error("backup retention sweep failed", zap.Error(err))
	} else if removed > 0 {
		s.logger.Info("expired backups removed", zap.Int("count", removed))
	}
}

// snapshot copies the store file. A missing source is skipped, not an
// error, because a fresh deployment may not have a store yet.
func (s *Scheduler) snapshot() (string, error) {
	src, err := os.Open(s.sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("store file missing, skipping backup",
				zap.String("path", s.sourcePath))
			return "", nil
		}
		return "", err
	}
	defer src.Close()

	name := fmt.Sprintf("%s%s.db", filePrefix, time.Now().Format("2006-01-02_15-04-05"))
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return name, nil
}

// sweep deletes backups older than the retention window and reports how
// many it removed.
func (s *Scheduler) sweep(now time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	cutoff := now.Add(-s.retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), filePrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
				s.logger.Warn("could not remove expired backup",
					zap.String("file", entry.Name()), zap.Error(err))
				continue
			}
			removed++
		}
	}
	return removed, nil
}
