package promote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/promote/internal/execshell"
)

const (
	testRepositoryPathConstant = "/tmp/repo"
	testRemoteNameConstant     = "origin"
	testSourceBranchConstant   = "dev"
	testTargetBranchConstant   = "main"
	testStartingBranchConstant = "feature/topic"
)

type stubGitExecutor struct {
	failuresByPrefix map[string]error
	onCommand        func(arguments []string)
	recordedCommands []execshell.CommandDetails
}

func (executor *stubGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, details)
	if executor.onCommand != nil {
		executor.onCommand(details.Arguments)
	}
	joinedArguments := strings.Join(details.Arguments, " ")
	for argumentPrefix, failure := range executor.failuresByPrefix {
		if strings.HasPrefix(joinedArguments, argumentPrefix) {
			return execshell.ExecutionResult{}, failure
		}
	}
	return execshell.ExecutionResult{}, nil
}

func (executor *stubGitExecutor) recordedArguments() [][]string {
	arguments := make([][]string, 0, len(executor.recordedCommands))
	for _, recordedCommand := range executor.recordedCommands {
		arguments = append(arguments, recordedCommand.Arguments)
	}
	return arguments
}

type stubRepositoryManager struct {
	insideWorkTree     bool
	worktreeChanges    []string
	inspectionError    error
	currentBranches    []string
	currentBranchError error
	localBranches      map[string]bool
	remoteBranches     map[string]bool
	currentBranchCalls int
}

func (manager *stubRepositoryManager) IsRepositoryWorkTree(context.Context, string) (bool, error) {
	return manager.insideWorkTree, nil
}

func (manager *stubRepositoryManager) ListWorktreeChanges(context.Context, string) ([]string, error) {
	return manager.worktreeChanges, manager.inspectionError
}

func (manager *stubRepositoryManager) GetCurrentBranch(context.Context, string) (string, error) {
	if manager.currentBranchError != nil {
		return "", manager.currentBranchError
	}
	if len(manager.currentBranches) == 0 {
		return "", nil
	}
	branchIndex := manager.currentBranchCalls
	if branchIndex >= len(manager.currentBranches) {
		branchIndex = len(manager.currentBranches) - 1
	}
	manager.currentBranchCalls++
	return manager.currentBranches[branchIndex], nil
}

func (manager *stubRepositoryManager) LocalBranchExists(_ context.Context, _ string, branchName string) (bool, error) {
	return manager.localBranches[branchName], nil
}

func (manager *stubRepositoryManager) RemoteTrackingBranchExists(_ context.Context, _ string, _ string, branchName string) (bool, error) {
	return manager.remoteBranches[branchName], nil
}

type recordingReporter struct {
	informationLines []string
	errorLines       []string
}

func (reporter *recordingReporter) Info(message string) {
	reporter.informationLines = append(reporter.informationLines, message)
}

func (reporter *recordingReporter) Error(message string) {
	reporter.errorLines = append(reporter.errorLines, message)
}

func promotableRepositoryManager(startingBranch string, restorationBranch string) *stubRepositoryManager {
	return &stubRepositoryManager{
		insideWorkTree:  true,
		currentBranches: []string{startingBranch, restorationBranch},
		localBranches:   map[string]bool{testSourceBranchConstant: true, testTargetBranchConstant: true},
		remoteBranches:  map[string]bool{testSourceBranchConstant: true, testTargetBranchConstant: true},
	}
}

func defaultPromotionOptions() Options {
	return Options{
		RepositoryPath: testRepositoryPathConstant,
		RemoteName:     testRemoteNameConstant,
		SourceBranch:   testSourceBranchConstant,
		TargetBranch:   testTargetBranchConstant,
	}
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	testCases := []struct {
		name         string
		dependencies Dependencies
		expectedErr  error
	}{
		{
			name:         "MissingGitExecutor",
			dependencies: Dependencies{RepositoryManager: &stubRepositoryManager{}},
			expectedErr:  ErrGitExecutorNotConfigured,
		},
		{
			name:         "MissingRepositoryManager",
			dependencies: Dependencies{GitExecutor: &stubGitExecutor{}},
			expectedErr:  ErrRepositoryManagerNotConfigured,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			service, creationError := NewService(testCase.dependencies)
			require.ErrorIs(t, creationError, testCase.expectedErr)
			require.Nil(t, service)
		})
	}

	service, creationError := NewService(Dependencies{GitExecutor: &stubGitExecutor{}, RepositoryManager: &stubRepositoryManager{}})
	require.NoError(t, creationError)
	require.NotNil(t, service)
}

func TestPromoteValidatesOptions(t *testing.T) {
	testCases := []struct {
		name        string
		mutate      func(options *Options)
		expectedErr error
	}{
		{name: "MissingRepositoryPath", mutate: func(options *Options) { options.RepositoryPath = " " }, expectedErr: ErrRepositoryPathRequired},
		{name: "MissingRemoteName", mutate: func(options *Options) { options.RemoteName = "" }, expectedErr: ErrRemoteNameRequired},
		{name: "MissingSourceBranch", mutate: func(options *Options) { options.SourceBranch = "" }, expectedErr: ErrSourceBranchRequired},
		{name: "MissingTargetBranch", mutate: func(options *Options) { options.TargetBranch = "" }, expectedErr: ErrTargetBranchRequired},
		{name: "IdenticalBranches", mutate: func(options *Options) { options.SourceBranch = options.TargetBranch }, expectedErr: ErrIdenticalBranches},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			executor := &stubGitExecutor{}
			service, creationError := NewService(Dependencies{GitExecutor: executor, RepositoryManager: promotableRepositoryManager(testStartingBranchConstant, testTargetBranchConstant)})
			require.NoError(t, creationError)

			options := defaultPromotionOptions()
			testCase.mutate(&options)

			_, promotionError := service.Promote(context.Background(), options)
			require.ErrorIs(t, promotionError, testCase.expectedErr)
			require.Empty(t, executor.recordedCommands)
		})
	}
}

func TestPromoteFailsOutsideRepository(t *testing.T) {
	executor := &stubGitExecutor{}
	repositoryManager := &stubRepositoryManager{insideWorkTree: false}
	service, creationError := NewService(Dependencies{GitExecutor: executor, RepositoryManager: repositoryManager})
	require.NoError(t, creationError)

	_, promotionError := service.Promote(context.Background(), defaultPromotionOptions())
	require.ErrorIs(t, promotionError, ErrNotARepository)
	require.Empty(t, executor.recordedCommands)
}

func TestPromoteReportsDirtyWorktreeWithoutMutation(t *testing.T) {
	executor := &stubGitExecutor{}
	reporter := &recordingReporter{}
	repositoryManager := &stubRepositoryManager{
		insideWorkTree:  true,
		worktreeChanges: []string{"M internal/service.go", "?? notes.txt"},
	}
	service, creationError := NewService(Dependencies{GitExecutor: executor, RepositoryManager: repositoryManager, Reporter: reporter})
	require.NoError(t, creationError)

	_, promotionError := service.Promote(context.Background(), defaultPromotionOptions())

	dirtyError := DirtyWorktreeError{}
	require.ErrorAs(t, promotionError, &dirtyError)
	require.Equal(t, repositoryManager.worktreeChanges, dirtyError.Changes)
	require.Empty(t, executor.recordedCommands)
	require.Len(t, reporter.errorLines, 2)
	require.Contains(t, reporter.errorLines[0], "internal/service.go")
	require.Contains(t, reporter.errorLines[1], "notes.txt")
}

func TestPromoteExecutesStepsInOrderAndRestoresStartingBranch(t *testing.T) {
	executor := &stubGitExecutor{}
	repositoryManager := promotableRepositoryManager(testStartingBranchConstant, testTargetBranchConstant)
	service, creationError := NewService(Dependencies{GitExecutor: executor, RepositoryManager: repositoryManager})
	require.NoError(t, creationError)

	result, promotionError := service.Promote(context.Background(), defaultPromotionOptions())
	require.NoError(t, promotionError)
	require.Equal(t, testStartingBranchConstant, result.StartingBranch)
	require.True(t, result.StartingBranchRestored)

	expectedArguments := [][]string{
		{"fetch", "--prune", testRemoteNameConstant},
		{"checkout", testSourceBranchConstant},
		{"pull", "--ff-only", testRemoteNameConstant, testSourceBranchConstant},
		{"checkout", testTargetBranchConstant},
		{"pull", "--ff-only", testRemoteNameConstant, testTargetBranchConstant},
		{"merge", "--no-ff", "--no-edit", testSourceBranchConstant},
		{"push", testRemoteNameConstant, testTargetBranchConstant},
		{"checkout", testStartingBranchConstant},
	}
	require.Equal(t, expectedArguments, executor.recordedArguments())

	for _, recordedCommand := range executor.recordedCommands {
		require.Equal(t, testRepositoryPathConstant, recordedCommand.WorkingDirectory)
		require.Equal(t, "0", recordedCommand.EnvironmentVariables["GIT_TERMINAL_PROMPT"])
	}
}

func TestPromoteSkipsRestorationWhenStartingOnTargetBranch(t *testing.T) {
	executor := &stubGitExecutor{}
	repositoryManager := promotableRepositoryManager(testTargetBranchConstant, testTargetBranchConstant)
	service, creationError := NewService(Dependencies{GitExecutor: executor, RepositoryManager: repositoryManager})
	require.NoError(t, creationError)

	result, promotionError := service.Promote(context.Background(), defaultPromotionOptions())
	require.NoError(t, promotionError)
	require.False(t, result.StartingBranchRestored)

	recordedArguments := executor.recordedArguments()
	require.Equal(t, []string{"push", testRemoteNameConstant, testTargetBranchConstant}, recordedArguments[len(recordedArguments)-1])
}

func TestPromoteSkipsRestorationWhenStartingDetached(t *testing.T) {
	executor := &stubGitExecutor{}
	repositoryManager := promotableRepositoryManager("HEAD", testTargetBranchConstant)
	reporter := &recordingReporter{}
	service, creationError := NewService(Dependencies{GitExecutor: executor, RepositoryManager: repositoryManager, Reporter: reporter})
	require.NoError(t, creationError)

	result, promotionError := service.Promote(context.Background(), defaultPromotionOptions())
	require.NoError(t, promotionError)
	require.False(t, result.StartingBranchRestored)

	recordedArguments := executor.recordedArguments()
	require.Equal(t, []string{"push", testRemoteNameConstant, testTargetBranchConstant}, recordedArguments[len(recordedArguments)-1])
}

func TestPromoteReportsMissingBranchAfterFetch(t *testing.T) {
	executor := &stubGitExecutor{}
	repositoryManager := promotableRepositoryManager(testStartingBranchConstant, testStartingBranchConstant)
	repositoryManager.localBranches[testTargetBranchConstant] = false
	repositoryManager.remoteBranches[testTargetBranchConstant] = false
	service, creationError := NewService(Dependencies{GitExecutor: executor, RepositoryManager: repositoryManager})
	require.NoError(t, creationError)

	_, promotionError := service.Promote(context.Background(), defaultPromotionOptions())

	notFoundError := BranchNotFoundError{}
	require.ErrorAs(t, promotionError, &notFoundError)
	require.Equal(t, testTargetBranchConstant, notFoundError.BranchName)
	require.Equal(t, testRemoteNameConstant, notFoundError.RemoteName)

	require.Equal(t, [][]string{{"fetch", "--prune", testRemoteNameConstant}}, executor.recordedArguments())
}

func TestPromoteRestoresStartingBranchOnStepFailures(t *testing.T) {
	stepFailure := errors.New("step failed")

	testCases := []struct {
		name               string
		failurePrefix      string
		restorationBranch  string
		expectRestoration  bool
		expectedErrMessage string
	}{
		{
			name:               "FetchFailure",
			failurePrefix:      "fetch",
			restorationBranch:  testStartingBranchConstant,
			expectRestoration:  false,
			expectedErrMessage: "failed to fetch",
		},
		{
			name:               "SourceFastForwardFailure",
			failurePrefix:      "pull --ff-only origin dev",
			restorationBranch:  testSourceBranchConstant,
			expectRestoration:  true,
			expectedErrMessage: "failed to fast-forward",
		},
		{
			name:               "TargetFastForwardFailure",
			failurePrefix:      "pull --ff-only origin main",
			restorationBranch:  testTargetBranchConstant,
			expectRestoration:  true,
			expectedErrMessage: "failed to fast-forward",
		},
		{
			name:               "MergeConflict",
			failurePrefix:      "merge",
			restorationBranch:  testTargetBranchConstant,
			expectRestoration:  true,
			expectedErrMessage: "failed to merge",
		},
		{
			name:               "PushRejected",
			failurePrefix:      "push",
			restorationBranch:  testTargetBranchConstant,
			expectRestoration:  true,
			expectedErrMessage: "failed to push",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			executor := &stubGitExecutor{failuresByPrefix: map[string]error{testCase.failurePrefix: stepFailure}}
			repositoryManager := promotableRepositoryManager(testStartingBranchConstant, testCase.restorationBranch)
			service, creationError := NewService(Dependencies{GitExecutor: executor, RepositoryManager: repositoryManager})
			require.NoError(t, creationError)

			_, promotionError := service.Promote(context.Background(), defaultPromotionOptions())
			require.Error(t, promotionError)
			require.ErrorIs(t, promotionError, stepFailure)
			require.Contains(t, promotionError.Error(), testCase.expectedErrMessage)

			recordedArguments := executor.recordedArguments()
			lastArguments := recordedArguments[len(recordedArguments)-1]
			if testCase.expectRestoration {
				require.Equal(t, []string{"checkout", testStartingBranchConstant}, lastArguments)
			} else {
				require.NotEqual(t, []string{"checkout", testStartingBranchConstant}, lastArguments)
			}
		})
	}
}

func TestPromoteSwallowsRestorationFailures(t *testing.T) {
	stepFailure := errors.New("merge conflict")
	restorationFailure := errors.New("checkout refused")

	executor := &stubGitExecutor{failuresByPrefix: map[string]error{
		"merge": stepFailure,
		fmt.Sprintf("checkout %s", testStartingBranchConstant): restorationFailure,
	}}
	reporter := &recordingReporter{}
	repositoryManager := promotableRepositoryManager(testStartingBranchConstant, testTargetBranchConstant)
	service, creationError := NewService(Dependencies{GitExecutor: executor, RepositoryManager: repositoryManager, Reporter: reporter})
	require.NoError(t, creationError)

	_, promotionError := service.Promote(context.Background(), defaultPromotionOptions())
	require.ErrorIs(t, promotionError, stepFailure)
	require.NotErrorIs(t, promotionError, restorationFailure)

	restorationReported := false
	for _, errorLine := range reporter.errorLines {
		if strings.Contains(errorLine, "failed to restore") {
			restorationReported = true
		}
	}
	require.True(t, restorationReported)
}

func TestPromoteTranslatesCancellationIntoInterruption(t *testing.T) {
	cancellableContext, cancelWorkflow := context.WithCancel(context.Background())
	defer cancelWorkflow()

	executor := &stubGitExecutor{}
	executor.failuresByPrefix = map[string]error{"merge": context.Canceled}
	executor.onCommand = func(arguments []string) {
		if arguments[0] == "merge" {
			cancelWorkflow()
		}
	}

	repositoryManager := promotableRepositoryManager(testStartingBranchConstant, testTargetBranchConstant)
	service, creationError := NewService(Dependencies{GitExecutor: executor, RepositoryManager: repositoryManager})
	require.NoError(t, creationError)

	_, promotionError := service.Promote(cancellableContext, defaultPromotionOptions())
	require.ErrorIs(t, promotionError, ErrPromotionInterrupted)

	recordedArguments := executor.recordedArguments()
	require.Equal(t, []string{"checkout", testStartingBranchConstant}, recordedArguments[len(recordedArguments)-1])
}
