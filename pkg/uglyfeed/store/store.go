package store

import (
	"context"
	"time"
)

// Store is an append-only ledger of pipeline runs and the group files
// they wrote. The pipeline never reads it back to make dedup decisions.
type Store interface {
	Close() error

	// Runs
	RecordRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// Groups
	RecordGroup(ctx context.Context, g GroupRecord) error
	GroupsForRun(ctx context.Context, runID string) ([]GroupRecord, error)
}

// Run status values
const (
	StatusOK     = "ok"
	StatusEmpty  = "empty" // data error: nothing to group
	StatusFailed = "failed"
)

// Run summarises one pipeline invocation
type Run struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	ArticlesIn     int
	ArticlesUnique int
	GroupsFound    int
	FilesWritten   int
	Method         string
	Threshold      float64
	Status         string
	Message        string
}

// GroupRecord describes one written group file
type GroupRecord struct {
	RunID      string
	GroupID    string
	Path       string
	Label      string
	Size       int
	Similarity float64
	Links      []string
	CreatedAt  time.Time
}
