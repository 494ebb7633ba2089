package orchestrator_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgaunet/auto-land/internal/logger"
	"github.com/sgaunet/auto-land/pkg/orchestrator"
	"github.com/sgaunet/auto-land/testing/fixtures"
	"github.com/sgaunet/auto-land/testing/mocks"
)

func newOrchestrator(api *mocks.PlatformAPI, ws *mocks.Workspace, pm *mocks.PackageManager, confirm *mocks.Confirmer, maxRetries int) *orchestrator.Orchestrator {
	log := logger.NoLogger()
	noSleep := func(time.Duration) {}

	remediator := orchestrator.NewRemediator(api, mocks.NewArtifactStore(), confirm, log, maxRetries, time.Second)
	remediator.SetSleep(noSleep)
	poller := orchestrator.NewPoller(api, remediator, log, time.Second, 30)
	poller.SetSleep(noSleep)
	sync := orchestrator.NewSyncLoop(ws, pm, confirm, log, time.Second, false)
	sync.SetSleep(noSleep)

	return orchestrator.New(api, ws, pm, confirm, log, sync, poller, "patch", "squash", false)
}

func lastCall(t *testing.T, calls []mocks.MethodCall, method string) mocks.MethodCall {
	t.Helper()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Method == method {
			return calls[i]
		}
	}
	t.Fatalf("no call to %s recorded", method)
	return mocks.MethodCall{}
}

func TestRunBumpsAndLands(t *testing.T) {
	// Branch and trunk share the same version, so a bump is required
	// before the branch can land.
	api := mocks.NewPlatformAPI()
	api.PullRequestResponses = []*orchestrator.PullRequestSnapshot{fixtures.CleanSnapshot()}

	ws := mocks.NewWorkspace()
	ws.VersionFromTrunkResponse = "2.0.0"
	ws.VersionFromBranchResponse = "2.0.0"

	pm := mocks.NewPackageManager()
	pm.BumpResponse = "2.0.1"

	o := newOrchestrator(api, ws, pm, mocks.NewConfirmer(), 2)
	err := o.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, pm.GetCallCount("Bump"))
	assert.Equal(t, 1, ws.GetCallCount("Push"))
	assert.Equal(t, 1, api.GetCallCount("Merge"))

	merge := lastCall(t, api.GetCalls(), "Merge")
	assert.Equal(t, "feat: add widget pipeline", merge.Args["commitTitle"])
	assert.Equal(t, "squash", merge.Args["mergeMethod"])

	tag := lastCall(t, ws.GetCalls(), "PushTag")
	assert.Equal(t, "v2.0.1", tag.Args["tag"])
}

func TestRunSkipsBumpWhenBranchAhead(t *testing.T) {
	api := mocks.NewPlatformAPI()
	api.PullRequestResponses = []*orchestrator.PullRequestSnapshot{fixtures.CleanSnapshot()}

	ws := mocks.NewWorkspace()
	ws.VersionFromTrunkResponse = "2.0.0"
	ws.VersionFromBranchResponse = "2.1.0"

	pm := mocks.NewPackageManager()

	o := newOrchestrator(api, ws, pm, mocks.NewConfirmer(), 2)
	err := o.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, pm.GetCallCount("Bump"))
	assert.Equal(t, 1, api.GetCallCount("Merge"))

	// No bump happened during this run, so the tag offer reads the
	// version from the branch manifest.
	tag := lastCall(t, ws.GetCalls(), "PushTag")
	assert.Equal(t, "v2.1.0", tag.Args["tag"])
}

func TestRunAlreadyMergedShortCircuits(t *testing.T) {
	api := mocks.NewPlatformAPI()
	api.PullRequestResponses = []*orchestrator.PullRequestSnapshot{fixtures.MergedSnapshot()}

	ws := mocks.NewWorkspace()
	ws.VersionFromBranchResponse = "3.1.4"

	o := newOrchestrator(api, ws, mocks.NewPackageManager(), mocks.NewConfirmer(), 2)
	err := o.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, api.GetCallCount("Merge"))
	assert.Equal(t, 0, ws.GetCallCount("MergeTrunk"))

	tag := lastCall(t, ws.GetCalls(), "PushTag")
	assert.Equal(t, "v3.1.4", tag.Args["tag"])
}

func TestRunTagOfferDeclinedIsGraceful(t *testing.T) {
	api := mocks.NewPlatformAPI()
	api.PullRequestResponses = []*orchestrator.PullRequestSnapshot{fixtures.MergedSnapshot()}

	ws := mocks.NewWorkspace()
	ws.VersionFromBranchResponse = "3.1.4"

	o := newOrchestrator(api, ws, mocks.NewPackageManager(), mocks.NewConfirmer(false), 2)
	err := o.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, ws.GetCallCount("PushTag"))
}

func TestRunBumpDeclinedAborts(t *testing.T) {
	api := mocks.NewPlatformAPI()
	api.PullRequestResponses = []*orchestrator.PullRequestSnapshot{fixtures.CleanSnapshot()}

	ws := mocks.NewWorkspace()
	ws.VersionFromTrunkResponse = "2.0.0"
	ws.VersionFromBranchResponse = "2.0.0"

	pm := mocks.NewPackageManager()

	o := newOrchestrator(api, ws, pm, mocks.NewConfirmer(false), 2)
	err := o.Run(context.Background())

	require.ErrorIs(t, err, orchestrator.ErrUserAbort)
	assert.Equal(t, 0, pm.GetCallCount("Bump"))
	assert.Equal(t, 0, api.GetCallCount("Merge"))
	assert.Equal(t, 0, ws.GetCallCount("PushTag"))
}

func TestRunMergeDeclinedAborts(t *testing.T) {
	api := mocks.NewPlatformAPI()
	api.PullRequestResponses = []*orchestrator.PullRequestSnapshot{fixtures.CleanSnapshot()}

	ws := mocks.NewWorkspace()
	ws.VersionFromTrunkResponse = "2.0.0"
	ws.VersionFromBranchResponse = "2.1.0"

	o := newOrchestrator(api, ws, mocks.NewPackageManager(), mocks.NewConfirmer(false), 2)
	err := o.Run(context.Background())

	require.ErrorIs(t, err, orchestrator.ErrUserAbort)
	assert.Equal(t, 0, api.GetCallCount("Merge"))
	assert.Equal(t, 0, ws.GetCallCount("PushTag"))
}

func TestRunRemediationExhaustedNeverMerges(t *testing.T) {
	api := mocks.NewPlatformAPI()
	api.PullRequestResponses = []*orchestrator.PullRequestSnapshot{fixtures.BlockedSnapshot()}
	api.ListRunsResponses = [][]orchestrator.CheckRun{
		{fixtures.FailingRun(10, "test")},
	}

	ws := mocks.NewWorkspace()
	ws.VersionFromTrunkResponse = "2.0.0"
	ws.VersionFromBranchResponse = "2.1.0"

	o := newOrchestrator(api, ws, mocks.NewPackageManager(), mocks.NewConfirmer(), 2)
	err := o.Run(context.Background())

	require.ErrorIs(t, err, orchestrator.ErrRemediationExhausted)
	assert.Equal(t, 0, api.GetCallCount("Merge"))
	assert.Equal(t, 2, api.GetCallCount("RerunFailedJobs"))
	assert.Equal(t, 3, api.GetCallCount("ListRuns"))
}

func TestRunWiderConflictSurfaces(t *testing.T) {
	api := mocks.NewPlatformAPI()
	api.PullRequestResponses = []*orchestrator.PullRequestSnapshot{fixtures.CleanSnapshot()}

	ws := mocks.NewWorkspace()
	ws.VersionFromTrunkResponse = "2.0.0"
	ws.VersionFromBranchResponse = "2.1.0"
	ws.MergeTrunkResults = []orchestrator.MergeResult{
		{Status: orchestrator.MergeConflict, Conflicts: []string{"src/index.js"}},
	}

	o := newOrchestrator(api, ws, mocks.NewPackageManager(), mocks.NewConfirmer(), 2)
	err := o.Run(context.Background())

	require.ErrorIs(t, err, orchestrator.ErrUnresolvableConflict)
	assert.Equal(t, 0, api.GetCallCount("Merge"))
}
