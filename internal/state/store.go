// Package state persists pipeline run history: one record per run plus
// per-stage row statistics. It backs the runs command and gives failed
// runs a durable diagnostic trail.
package state

import "time"

// RunStatus represents the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one pipeline execution.
type Run struct {
	ID          string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// StageStat records the row flow through one stage for one dataset.
type StageStat struct {
	RunID       string
	Dataset     string
	Stage       string
	RowsIn      int
	RowsOut     int
	Quarantined int
}

// Store is the persistence interface for run history.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	CreateRun() (*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string) error
	GetRun(id string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)

	RecordStage(stat *StageStat) error
	GetStageStats(runID string) ([]*StageStat, error)
}
