package orchestrator_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgaunet/auto-land/internal/logger"
	"github.com/sgaunet/auto-land/pkg/orchestrator"
	"github.com/sgaunet/auto-land/testing/mocks"
)

func newSyncLoop(ws *mocks.Workspace, pm *mocks.PackageManager, confirm *mocks.Confirmer, skipInstall bool) *orchestrator.SyncLoop {
	s := orchestrator.NewSyncLoop(ws, pm, confirm, logger.NoLogger(), time.Second, skipInstall)
	s.SetSleep(func(time.Duration) {})
	return s
}

func TestSyncOnceNoOp(t *testing.T) {
	ws := mocks.NewWorkspace()
	ws.MergeTrunkResults = []orchestrator.MergeResult{
		{Status: orchestrator.MergeNoOp},
	}

	s := newSyncLoop(ws, mocks.NewPackageManager(), mocks.NewConfirmer(), false)
	changed, err := s.SyncOnce(context.Background())

	require.NoError(t, err)
	assert.False(t, changed)
}

func TestSyncOnceApplied(t *testing.T) {
	ws := mocks.NewWorkspace()
	ws.MergeTrunkResults = []orchestrator.MergeResult{
		{Status: orchestrator.MergeApplied},
	}

	s := newSyncLoop(ws, mocks.NewPackageManager(), mocks.NewConfirmer(), false)
	changed, err := s.SyncOnce(context.Background())

	require.NoError(t, err)
	assert.True(t, changed)
}

func TestSyncOnceManifestConflictAutoResolved(t *testing.T) {
	ws := mocks.NewWorkspace()
	ws.MergeTrunkResults = []orchestrator.MergeResult{
		{Status: orchestrator.MergeConflict, Conflicts: []string{orchestrator.ManifestFile}},
	}

	s := newSyncLoop(ws, mocks.NewPackageManager(), mocks.NewConfirmer(), false)
	changed, err := s.SyncOnce(context.Background())

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, ws.GetCallCount("ResolveManifestConflict"))
}

func TestSyncOnceWiderConflictHalts(t *testing.T) {
	ws := mocks.NewWorkspace()
	ws.MergeTrunkResults = []orchestrator.MergeResult{
		{Status: orchestrator.MergeConflict, Conflicts: []string{orchestrator.ManifestFile, "src/index.js"}},
	}

	s := newSyncLoop(ws, mocks.NewPackageManager(), mocks.NewConfirmer(), false)
	_, err := s.SyncOnce(context.Background())

	require.ErrorIs(t, err, orchestrator.ErrUnresolvableConflict)
	assert.Equal(t, 0, ws.GetCallCount("ResolveManifestConflict"))
}

func TestRunConvergesImmediately(t *testing.T) {
	ws := mocks.NewWorkspace()
	pm := mocks.NewPackageManager()

	s := newSyncLoop(ws, pm, mocks.NewConfirmer(), false)
	err := s.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, pm.GetCallCount("Install"))
	assert.Equal(t, 0, ws.GetCallCount("Push"))
}

func TestRunSyncsUntilConverged(t *testing.T) {
	ws := mocks.NewWorkspace()
	ws.MergeTrunkResults = []orchestrator.MergeResult{
		{Status: orchestrator.MergeApplied},
		{Status: orchestrator.MergeNoOp},
	}
	pm := mocks.NewPackageManager()

	s := newSyncLoop(ws, pm, mocks.NewConfirmer(), false)
	err := s.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, ws.GetCallCount("MergeTrunk"))
	assert.Equal(t, 1, pm.GetCallCount("Install"))
	assert.Equal(t, 1, ws.GetCallCount("CommitAll"))
	assert.Equal(t, 1, ws.GetCallCount("Push"))
}

func TestRunSkipInstall(t *testing.T) {
	ws := mocks.NewWorkspace()
	ws.MergeTrunkResults = []orchestrator.MergeResult{
		{Status: orchestrator.MergeApplied},
		{Status: orchestrator.MergeNoOp},
	}
	pm := mocks.NewPackageManager()

	s := newSyncLoop(ws, pm, mocks.NewConfirmer(), true)
	err := s.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, pm.GetCallCount("Install"))
	assert.Equal(t, 0, ws.GetCallCount("CommitAll"))
	assert.Equal(t, 1, ws.GetCallCount("Push"))
}

func TestRunPushDeclinedAborts(t *testing.T) {
	ws := mocks.NewWorkspace()
	ws.MergeTrunkResults = []orchestrator.MergeResult{
		{Status: orchestrator.MergeApplied},
	}

	s := newSyncLoop(ws, mocks.NewPackageManager(), mocks.NewConfirmer(false), false)
	err := s.Run(context.Background())

	require.ErrorIs(t, err, orchestrator.ErrUserAbort)
	assert.Equal(t, 0, ws.GetCallCount("Push"))
}
