package state

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curator-io/curator/internal/testutil"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, s.Open(filepath.Join(t.TempDir(), "state.db")))
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.InitSchema())
	return s
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	s := newTestStore(t)

	run, err := s.CreateRun()
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.False(t, run.StartedAt.IsZero())

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, RunStatusRunning, got.Status)
	assert.Nil(t, got.CompletedAt)
	assert.Empty(t, got.Error)

	require.NoError(t, s.CompleteRun(run.ID, RunStatusCompleted, ""))
	got, err = s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Empty(t, got.Error)
}

func TestSQLiteStore_FailedRunKeepsError(t *testing.T) {
	s := newTestStore(t)

	run, err := s.CreateRun()
	require.NoError(t, err)
	require.NoError(t, s.CompleteRun(run.ID, RunStatusFailed, "orders dataset is empty"))

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, got.Status)
	assert.Equal(t, "orders dataset is empty", got.Error)
}

func TestSQLiteStore_CompleteUnknownRun(t *testing.T) {
	s := newTestStore(t)
	err := s.CompleteRun("missing", RunStatusCompleted, "")
	assert.Error(t, err)
}

func TestSQLiteStore_GetUnknownRun(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetRun("missing")
	assert.Error(t, err)
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		_, err := s.CreateRun()
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	runs, err = s.ListRuns(0)
	require.NoError(t, err)
	assert.Len(t, runs, 3, "non-positive limit falls back to the default")
}

func TestSQLiteStore_StageStats(t *testing.T) {
	s := newTestStore(t)
	run, err := s.CreateRun()
	require.NoError(t, err)

	stages := []*StageStat{
		{RunID: run.ID, Dataset: "orders", Stage: "load", RowsIn: 10, RowsOut: 10},
		{RunID: run.ID, Dataset: "orders", Stage: "validate", RowsIn: 10, RowsOut: 7, Quarantined: 3},
	}
	for _, st := range stages {
		require.NoError(t, s.RecordStage(st))
	}

	got, err := s.GetStageStats(run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "load", got[0].Stage)
	assert.Equal(t, "validate", got[1].Stage)
	assert.Equal(t, 3, got[1].Quarantined)

	none, err := s.GetStageStats("missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	s := NewSQLiteStore(nil)
	_, err := s.CreateRun()
	assert.Error(t, err)
	assert.Error(t, s.InitSchema())
}
