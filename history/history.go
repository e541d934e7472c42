// Package history records program runs in a sqlite database.
package history

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/zeebo/blake3"
	"gorm.io/gorm"
	"gorm.io/plugin/soft_delete"

	"github.com/gosuda/algofr/diag"
	aruntime "github.com/gosuda/algofr/runtime"
)

type Status string

const (
	StatusComplete Status = "complete"
	StatusStopped  Status = "stopped"
	StatusError    Status = "error"
)

type Run struct {
	ID           int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Program      string `json:"program" gorm:"index:idx_program"`
	SourceHash   string `json:"source_hash" gorm:"index:idx_source_hash"`
	Source       string `json:"source"`
	Output       string `json:"output"`
	Memory       string `json:"memory"`
	Status       Status `json:"status"`
	ErrorKind    string `json:"error_kind,omitempty"`
	ErrorLine    int    `json:"error_line,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	StartedAt    int64  `json:"started_at"`
	DurationMs   int64  `json:"duration_ms"`
	/* 0 false 1 true */
	Deleted soft_delete.DeletedAt `json:"-" gorm:"softDelete:flag;default:0"`
}

func (Run) TableName() string {
	return "run"
}

// Lines splits the stored output back into printed lines.
func (r *Run) Lines() []string {
	if r.Output == "" {
		return nil
	}
	return strings.Split(r.Output, "\n")
}

// Digest is the hex blake3 hash identifying a source text.
func Digest(src string) string {
	sum := blake3.Sum256([]byte(src))
	return hex.EncodeToString(sum[:])
}

type Store struct {
	db *gorm.DB
}

func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Run{}); err != nil {
		return nil, fmt.Errorf("history: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Entry describes a finished run before it is stored.
type Entry struct {
	Program  string
	Source   string
	Output   []string
	Memory   aruntime.Snapshot
	Err      error
	Started  time.Time
	Duration time.Duration
}

func (s *Store) Record(ctx context.Context, e Entry) (*Run, error) {
	mem, err := json.Marshal(e.Memory.Map())
	if err != nil {
		return nil, fmt.Errorf("history: encode memory: %w", err)
	}
	run := &Run{
		Program:    e.Program,
		SourceHash: Digest(e.Source),
		Source:     e.Source,
		Output:     strings.Join(e.Output, "\n"),
		Memory:     string(mem),
		Status:     StatusComplete,
		StartedAt:  e.Started.Unix(),
		DurationMs: e.Duration.Milliseconds(),
	}
	switch {
	case e.Err == nil:
	case errors.Is(e.Err, aruntime.ErrStopped):
		run.Status = StatusStopped
	default:
		run.Status = StatusError
		de := diag.Wrap(e.Err, 0)
		run.ErrorKind = string(de.Kind)
		run.ErrorLine = de.Line
		run.ErrorMessage = de.Message
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("history: save run: %w", err)
	}
	return run, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Run, error) {
	var runs []*Run
	q := s.db.WithContext(ctx).Model(&Run{}).Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	return runs, nil
}

// ForSource returns the runs of an identical source text, newest first.
func (s *Store) ForSource(ctx context.Context, src string) ([]*Run, error) {
	var runs []*Run
	if err := s.db.WithContext(ctx).Model(&Run{}).
		Where("`source_hash`=?", Digest(src)).
		Order("id desc").Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	return runs, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*Run, error) {
	var run Run
	if err := s.db.WithContext(ctx).First(&run, id).Error; err != nil {
		return nil, fmt.Errorf("history: run %d: %w", id, err)
	}
	return &run, nil
}

// Forget hides a run from every query. The row is kept with its flag set.
func (s *Store) Forget(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&Run{}, id)
	if res.Error != nil {
		return fmt.Errorf("history: forget run %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("history: run %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// Prune forgets every run started before the cutoff and reports how many
// were affected.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("`started_at` < ?", before.Unix()).Delete(&Run{})
	if res.Error != nil {
		return 0, fmt.Errorf("history: prune: %w", res.Error)
	}
	return res.RowsAffected, nil
}
