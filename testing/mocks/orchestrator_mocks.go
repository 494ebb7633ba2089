// Package mocks provides hand-written test doubles for the orchestration
// capability interfaces, with call tracking.
package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/sgaunet/auto-land/pkg/orchestrator"
)

// MethodCall represents a tracked method call with its parameters.
type MethodCall struct {
	Method string
	Args   map[string]any
}

// callRecorder tracks method calls with thread-safe access.
type callRecorder struct {
	mu    sync.Mutex
	calls []MethodCall
}

func (r *callRecorder) trackCall(method string, args map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, MethodCall{Method: method, Args: args})
}

// GetCallCount returns the number of calls made to the given method.
func (r *callRecorder) GetCallCount(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, call := range r.calls {
		if call.Method == method {
			count++
		}
	}
	return count
}

// GetCalls returns all tracked calls in order.
func (r *callRecorder) GetCalls() []MethodCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]MethodCall(nil), r.calls...)
}

// PlatformAPI is a mock implementation of orchestrator.PlatformAPI.
// Sequenced response slices are consumed one per call; the last element
// repeats once the slice is exhausted.
type PlatformAPI struct {
	callRecorder

	DefaultBranchResponse string
	DefaultBranchError    error

	PullRequestResponses []*orchestrator.PullRequestSnapshot
	PullRequestError     error
	pullRequestIndex     int

	ListRunsResponses [][]orchestrator.CheckRun
	ListRunsError     error
	listRunsIndex     int

	RunLogsResponse  []byte
	RunLogsError     error
	RunLogsErrorByID map[int64]error

	RerunError     error
	RerunErrorByID map[int64]error

	MergeError error
}

// NewPlatformAPI creates a new mock platform client.
func NewPlatformAPI() *PlatformAPI {
	return &PlatformAPI{
		RunLogsResponse: []byte("archive"),
	}
}

// DefaultBranch implements orchestrator.PlatformAPI.
func (m *PlatformAPI) DefaultBranch(_ context.Context) (string, error) {
	m.trackCall("DefaultBranch", map[string]any{})
	return m.DefaultBranchResponse, m.DefaultBranchError
}

// PullRequest implements orchestrator.PlatformAPI.
func (m *PlatformAPI) PullRequest(_ context.Context) (*orchestrator.PullRequestSnapshot, error) {
	m.trackCall("PullRequest", map[string]any{})
	if m.PullRequestError != nil {
		return nil, m.PullRequestError
	}
	if len(m.PullRequestResponses) == 0 {
		return nil, fmt.Errorf("mock: no snapshots scripted")
	}
	snap := m.PullRequestResponses[m.pullRequestIndex]
	if m.pullRequestIndex < len(m.PullRequestResponses)-1 {
		m.pullRequestIndex++
	}
	return snap, nil
}

// ListRuns implements orchestrator.PlatformAPI.
func (m *PlatformAPI) ListRuns(_ context.Context, headSHA string) ([]orchestrator.CheckRun, error) {
	m.trackCall("ListRuns", map[string]any{"headSHA": headSHA})
	if m.ListRunsError != nil {
		return nil, m.ListRunsError
	}
	if len(m.ListRunsResponses) == 0 {
		return nil, nil
	}
	runs := m.ListRunsResponses[m.listRunsIndex]
	if m.listRunsIndex < len(m.ListRunsResponses)-1 {
		m.listRunsIndex++
	}
	return runs, nil
}

// RunLogs implements orchestrator.PlatformAPI.
func (m *PlatformAPI) RunLogs(_ context.Context, runID int64) ([]byte, error) {
	m.trackCall("RunLogs", map[string]any{"runID": runID})
	if err, ok := m.RunLogsErrorByID[runID]; ok {
		return nil, err
	}
	if m.RunLogsError != nil {
		return nil, m.RunLogsError
	}
	return m.RunLogsResponse, nil
}

// RerunFailedJobs implements orchestrator.PlatformAPI.
func (m *PlatformAPI) RerunFailedJobs(_ context.Context, runID int64) error {
	m.trackCall("RerunFailedJobs", map[string]any{"runID": runID})
	if err, ok := m.RerunErrorByID[runID]; ok {
		return err
	}
	return m.RerunError
}

// Merge implements orchestrator.PlatformAPI.
func (m *PlatformAPI) Merge(_ context.Context, commitTitle, mergeMethod string) error {
	m.trackCall("Merge", map[string]any{
		"commitTitle": commitTitle,
		"mergeMethod": mergeMethod,
	})
	return m.MergeError
}

// Workspace is a mock implementation of orchestrator.Workspace.
type Workspace struct {
	callRecorder

	VersionFromTrunkResponse  string
	VersionFromTrunkError     error
	VersionFromBranchResponse string
	VersionFromBranchError    error

	MergeTrunkResults []orchestrator.MergeResult
	MergeTrunkError   error
	mergeTrunkIndex   int

	ResolveManifestConflictError error
	CommitAllError               error
	PushError                    error
	PushTagError                 error
}

// NewWorkspace creates a new mock workspace.
func NewWorkspace() *Workspace {
	return &Workspace{}
}

// VersionFromTrunk implements orchestrator.Workspace.
func (m *Workspace) VersionFromTrunk(_ context.Context) (string, error) {
	m.trackCall("VersionFromTrunk", map[string]any{})
	return m.VersionFromTrunkResponse, m.VersionFromTrunkError
}

// VersionFromBranch implements orchestrator.Workspace.
func (m *Workspace) VersionFromBranch(_ context.Context) (string, error) {
	m.trackCall("VersionFromBranch", map[string]any{})
	return m.VersionFromBranchResponse, m.VersionFromBranchError
}

// MergeTrunk implements orchestrator.Workspace.
func (m *Workspace) MergeTrunk(_ context.Context) (orchestrator.MergeResult, error) {
	m.trackCall("MergeTrunk", map[string]any{})
	if m.MergeTrunkError != nil {
		return orchestrator.MergeResult{}, m.MergeTrunkError
	}
	if len(m.MergeTrunkResults) == 0 {
		return orchestrator.MergeResult{Status: orchestrator.MergeNoOp}, nil
	}
	result := m.MergeTrunkResults[m.mergeTrunkIndex]
	if m.mergeTrunkIndex < len(m.MergeTrunkResults)-1 {
		m.mergeTrunkIndex++
	}
	return result, nil
}

// ResolveManifestConflict implements orchestrator.Workspace.
func (m *Workspace) ResolveManifestConflict(_ context.Context) error {
	m.trackCall("ResolveManifestConflict", map[string]any{})
	return m.ResolveManifestConflictError
}

// CommitAll implements orchestrator.Workspace.
func (m *Workspace) CommitAll(_ context.Context, message string) error {
	m.trackCall("CommitAll", map[string]any{"message": message})
	return m.CommitAllError
}

// Push implements orchestrator.Workspace.
func (m *Workspace) Push(_ context.Context) error {
	m.trackCall("Push", map[string]any{})
	return m.PushError
}

// PushTag implements orchestrator.Workspace.
func (m *Workspace) PushTag(_ context.Context, tag string) error {
	m.trackCall("PushTag", map[string]any{"tag": tag})
	return m.PushTagError
}

// PackageManager is a mock implementation of orchestrator.PackageManager.
type PackageManager struct {
	callRecorder

	InstallError error
	BumpResponse string
	BumpError    error
}

// NewPackageManager creates a new mock package manager.
func NewPackageManager() *PackageManager {
	return &PackageManager{}
}

// Install implements orchestrator.PackageManager.
func (m *PackageManager) Install(_ context.Context) error {
	m.trackCall("Install", map[string]any{})
	return m.InstallError
}

// Bump implements orchestrator.PackageManager.
func (m *PackageManager) Bump(_ context.Context, bumpType string) (string, error) {
	m.trackCall("Bump", map[string]any{"bumpType": bumpType})
	return m.BumpResponse, m.BumpError
}

// Confirmer is a scripted mock implementation of orchestrator.Confirmer.
// Responses are consumed one per call; once exhausted every further call
// approves.
type Confirmer struct {
	callRecorder

	Responses []bool
	Error     error
	index     int
}

// NewConfirmer creates a confirmer that approves everything.
func NewConfirmer(responses ...bool) *Confirmer {
	return &Confirmer{Responses: responses}
}

// Confirm implements orchestrator.Confirmer.
func (m *Confirmer) Confirm(description string) (bool, error) {
	m.trackCall("Confirm", map[string]any{"description": description})
	if m.Error != nil {
		return false, m.Error
	}
	if m.index >= len(m.Responses) {
		return true, nil
	}
	response := m.Responses[m.index]
	m.index++
	return response, nil
}

// ArtifactStore is a mock implementation of orchestrator.ArtifactStore.
type ArtifactStore struct {
	callRecorder

	Root          string
	SaveLogsError error
}

// NewArtifactStore creates a new mock artifact store.
func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{Root: "/tmp/auto-land-test"}
}

// SaveRunLogs implements orchestrator.ArtifactStore.
func (m *ArtifactStore) SaveRunLogs(runID int64, archive []byte) (string, error) {
	m.trackCall("SaveRunLogs", map[string]any{"runID": runID, "size": len(archive)})
	if m.SaveLogsError != nil {
		return "", m.SaveLogsError
	}
	return fmt.Sprintf("%s/%d", m.Root, runID), nil
}

// Ensure the mocks implement the capability interfaces at compile time.
var (
	_ orchestrator.PlatformAPI    = (*PlatformAPI)(nil)
	_ orchestrator.Workspace      = (*Workspace)(nil)
	_ orchestrator.PackageManager = (*PackageManager)(nil)
	_ orchestrator.Confirmer      = (*Confirmer)(nil)
	_ orchestrator.ArtifactStore  = (*ArtifactStore)(nil)
)
