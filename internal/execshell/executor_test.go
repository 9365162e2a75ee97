package execshell

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubCommandRunner struct {
	result           ExecutionResult
	runError         error
	recordedCommands []ShellCommand
}

func (runner *stubCommandRunner) Run(_ context.Context, command ShellCommand) (ExecutionResult, error) {
	runner.recordedCommands = append(runner.recordedCommands, command)
	return runner.result, runner.runError
}

type recordingEventObserver struct {
	startedCommands   []ShellCommand
	completedCommands []ShellCommand
	failedCommands    []ShellCommand
}

func (observer *recordingEventObserver) CommandStarted(command ShellCommand) {
	observer.startedCommands = append(observer.startedCommands, command)
}

func (observer *recordingEventObserver) CommandCompleted(command ShellCommand, _ ExecutionResult) {
	observer.completedCommands = append(observer.completedCommands, command)
}

func (observer *recordingEventObserver) CommandExecutionFailed(command ShellCommand, _ error) {
	observer.failedCommands = append(observer.failedCommands, command)
}

func TestNewShellExecutorValidation(t *testing.T) {
	testCases := []struct {
		name          string
		logger        *zap.Logger
		commandRunner CommandRunner
		expectedErr   error
	}{
		{name: "MissingLogger", logger: nil, commandRunner: &stubCommandRunner{}, expectedErr: ErrLoggerNotConfigured},
		{name: "MissingRunner", logger: zap.NewNop(), commandRunner: nil, expectedErr: ErrCommandRunnerNotConfigured},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			executor, creationError := NewShellExecutor(testCase.logger, testCase.commandRunner)
			require.ErrorIs(t, creationError, testCase.expectedErr)
			require.Nil(t, executor)
		})
	}
}

func TestExecuteLogsTwoEntriesPerInvocation(t *testing.T) {
	testCases := []struct {
		name                string
		runner              *stubCommandRunner
		expectedSecondLevel zapcore.Level
		expectErr           bool
	}{
		{
			name:                "Success",
			runner:              &stubCommandRunner{result: ExecutionResult{ExitCode: 0}},
			expectedSecondLevel: zapcore.InfoLevel,
		},
		{
			name:                "NonZeroExit",
			runner:              &stubCommandRunner{result: ExecutionResult{ExitCode: 1, StandardError: "merge conflict"}},
			expectedSecondLevel: zapcore.WarnLevel,
			expectErr:           true,
		},
		{
			name:                "RunnerFailure",
			runner:              &stubCommandRunner{runError: errors.New("binary missing")},
			expectedSecondLevel: zapcore.ErrorLevel,
			expectErr:           true,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			observedCore, observedLogs := observer.New(zapcore.DebugLevel)
			executor, creationError := NewShellExecutor(zap.New(observedCore), testCase.runner)
			require.NoError(t, creationError)

			_, executionError := executor.ExecuteGit(context.Background(), CommandDetails{Arguments: []string{"merge", "--no-ff", "dev"}})
			if testCase.expectErr {
				require.Error(t, executionError)
			} else {
				require.NoError(t, executionError)
			}

			logEntries := observedLogs.All()
			require.Len(t, logEntries, 2)
			require.Equal(t, zapcore.InfoLevel, logEntries[0].Level)
			require.Equal(t, testCase.expectedSecondLevel, logEntries[1].Level)
		})
	}
}

func TestExecuteGitWrapsGitCommandName(t *testing.T) {
	runner := &stubCommandRunner{}
	executor, creationError := NewShellExecutor(zap.NewNop(), runner)
	require.NoError(t, creationError)

	details := CommandDetails{Arguments: []string{"fetch", "--prune", "origin"}, WorkingDirectory: "/tmp/repo"}
	_, executionError := executor.ExecuteGit(context.Background(), details)
	require.NoError(t, executionError)

	require.Len(t, runner.recordedCommands, 1)
	require.Equal(t, CommandGit, runner.recordedCommands[0].Name)
	require.Equal(t, details, runner.recordedCommands[0].Details)
}

func TestExecuteReturnsTypedErrors(t *testing.T) {
	t.Run("CommandFailedError", func(t *testing.T) {
		runner := &stubCommandRunner{result: ExecutionResult{ExitCode: 128, StandardError: "fatal: not a repository"}}
		executor, creationError := NewShellExecutor(zap.NewNop(), runner)
		require.NoError(t, creationError)

		_, executionError := executor.ExecuteGit(context.Background(), CommandDetails{Arguments: []string{"status", "--porcelain"}})

		failure := CommandFailedError{}
		require.ErrorAs(t, executionError, &failure)
		require.Equal(t, 128, failure.Result.ExitCode)
		require.Contains(t, failure.Error(), "exit code 128")
	})

	t.Run("CommandExecutionError", func(t *testing.T) {
		rootCause := errors.New("executable not found")
		runner := &stubCommandRunner{runError: rootCause}
		executor, creationError := NewShellExecutor(zap.NewNop(), runner)
		require.NoError(t, creationError)

		_, executionError := executor.ExecuteGit(context.Background(), CommandDetails{Arguments: []string{"status"}})

		executionFailure := CommandExecutionError{}
		require.ErrorAs(t, executionError, &executionFailure)
		require.ErrorIs(t, executionError, rootCause)
	})
}

func TestExecuteNotifiesEventObserver(t *testing.T) {
	t.Run("CompletionReported", func(t *testing.T) {
		runner := &stubCommandRunner{result: ExecutionResult{ExitCode: 0}}
		executor, creationError := NewShellExecutor(zap.NewNop(), runner)
		require.NoError(t, creationError)

		eventObserver := &recordingEventObserver{}
		executor.SetCommandEventObserver(eventObserver)

		_, executionError := executor.ExecuteGit(context.Background(), CommandDetails{Arguments: []string{"push", "origin", "main"}})
		require.NoError(t, executionError)
		require.Len(t, eventObserver.startedCommands, 1)
		require.Len(t, eventObserver.completedCommands, 1)
		require.Empty(t, eventObserver.failedCommands)
	})

	t.Run("ExecutionFailureReported", func(t *testing.T) {
		runner := &stubCommandRunner{runError: errors.New("binary missing")}
		executor, creationError := NewShellExecutor(zap.NewNop(), runner)
		require.NoError(t, creationError)

		eventObserver := &recordingEventObserver{}
		executor.SetCommandEventObserver(eventObserver)

		_, executionError := executor.ExecuteGit(context.Background(), CommandDetails{Arguments: []string{"push", "origin", "main"}})
		require.Error(t, executionError)
		require.Len(t, eventObserver.startedCommands, 1)
		require.Empty(t, eventObserver.completedCommands)
		require.Len(t, eventObserver.failedCommands, 1)
	})

	t.Run("NilObserverResetsToNoop", func(t *testing.T) {
		runner := &stubCommandRunner{}
		executor, creationError := NewShellExecutor(zap.NewNop(), runner)
		require.NoError(t, creationError)

		executor.SetCommandEventObserver(&recordingEventObserver{})
		executor.SetCommandEventObserver(nil)

		_, executionError := executor.ExecuteGit(context.Background(), CommandDetails{Arguments: []string{"status"}})
		require.NoError(t, executionError)
	})
}
