package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/promote/internal/execshell"
)

const (
	gitExecutorMissingMessageConstant       = "git executor not configured"
	repositoryPathRequiredMessageConstant   = "repository path must be provided"
	branchNameRequiredMessageConstant       = "branch name must be provided"
	remoteNameRequiredMessageConstant       = "remote name must be provided"
	gitRevParseSubcommandConstant           = "rev-parse"
	gitWorkTreeFlagConstant                 = "--is-inside-work-tree"
	gitAbbrevRefFlagConstant                = "--abbrev-ref"
	gitVerifyFlagConstant                   = "--verify"
	gitQuietFlagConstant                    = "--quiet"
	gitHeadReferenceConstant                = "HEAD"
	gitStatusSubcommandConstant             = "status"
	gitStatusPorcelainFlagConstant          = "--porcelain"
	localBranchReferenceTemplateConstant    = "refs/heads/%s"
	remoteTrackingReferenceTemplateConstant = "refs/remotes/%s/%s"
	workTreeConfirmationOutputConstant      = "true"
	statusOutputLineSeparatorConstant       = "\n"
)

// DetachedHeadIndicatorConstant is the sentinel git reports when no branch is checked out.
const DetachedHeadIndicatorConstant = gitHeadReferenceConstant

// ErrGitExecutorNotConfigured indicates the manager was constructed without an executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrRepositoryPathRequired indicates a repository path argument was empty.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrBranchNameRequired indicates a branch name argument was empty.
var ErrBranchNameRequired = errors.New(branchNameRequiredMessageConstant)

// ErrRemoteNameRequired indicates a remote name argument was empty.
var ErrRemoteNameRequired = errors.New(remoteNameRequiredMessageConstant)

// GitExecutor exposes the subset of shell execution used by repository queries.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager answers questions about a local Git repository through the injected executor.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager from the provided executor.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// IsRepositoryWorkTree reports whether the path lies inside a Git work tree.
func (manager *RepositoryManager) IsRepositoryWorkTree(executionContext context.Context, repositoryPath string) (bool, error) {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return false, ErrRepositoryPathRequired
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitWorkTreeFlagConstant},
		WorkingDirectory: trimmedRepositoryPath,
	})
	if executionError != nil {
		if isCommandFailure(executionError) {
			return false, nil
		}
		return false, executionError
	}

	return strings.TrimSpace(executionResult.StandardOutput) == workTreeConfirmationOutputConstant, nil
}

// ListWorktreeChanges returns porcelain status lines describing uncommitted changes.
func (manager *RepositoryManager) ListWorktreeChanges(executionContext context.Context, repositoryPath string) ([]string, error) {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return nil, ErrRepositoryPathRequired
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitStatusSubcommandConstant, gitStatusPorcelainFlagConstant},
		WorkingDirectory: trimmedRepositoryPath,
	})
	if executionError != nil {
		return nil, executionError
	}

	statusOutput := strings.TrimSpace(executionResult.StandardOutput)
	if len(statusOutput) == 0 {
		return nil, nil
	}

	statusLines := strings.Split(statusOutput, statusOutputLineSeparatorConstant)
	changes := make([]string, 0, len(statusLines))
	for _, statusLine := range statusLines {
		trimmedLine := strings.TrimSpace(statusLine)
		if len(trimmedLine) == 0 {
			continue
		}
		changes = append(changes, trimmedLine)
	}
	return changes, nil
}

// CheckCleanWorktree reports whether the repository has no uncommitted changes.
func (manager *RepositoryManager) CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error) {
	changes, changesError := manager.ListWorktreeChanges(executionContext, repositoryPath)
	if changesError != nil {
		return false, changesError
	}
	return len(changes) == 0, nil
}

// GetCurrentBranch resolves the checked-out branch name, returning the detached sentinel when no branch is active.
func (manager *RepositoryManager) GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return "", ErrRepositoryPathRequired
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitAbbrevRefFlagConstant, gitHeadReferenceConstant},
		WorkingDirectory: trimmedRepositoryPath,
	})
	if executionError != nil {
		return "", executionError
	}

	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// LocalBranchExists reports whether the branch resolves as a local head.
func (manager *RepositoryManager) LocalBranchExists(executionContext context.Context, repositoryPath string, branchName string) (bool, error) {
	return manager.referenceExists(executionContext, repositoryPath, branchName, fmt.Sprintf(localBranchReferenceTemplateConstant, strings.TrimSpace(branchName)))
}

// RemoteTrackingBranchExists reports whether the branch resolves as a remote-tracking reference for the remote.
func (manager *RepositoryManager) RemoteTrackingBranchExists(executionContext context.Context, repositoryPath string, remoteName string, branchName string) (bool, error) {
	trimmedRemoteName := strings.TrimSpace(remoteName)
	if len(trimmedRemoteName) == 0 {
		return false, ErrRemoteNameRequired
	}
	return manager.referenceExists(executionContext, repositoryPath, branchName, fmt.Sprintf(remoteTrackingReferenceTemplateConstant, trimmedRemoteName, strings.TrimSpace(branchName)))
}

func (manager *RepositoryManager) referenceExists(executionContext context.Context, repositoryPath string, branchName string, reference string) (bool, error) {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return false, ErrRepositoryPathRequired
	}
	if len(strings.TrimSpace(branchName)) == 0 {
		return false, ErrBranchNameRequired
	}

	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitVerifyFlagConstant, gitQuietFlagConstant, reference},
		WorkingDirectory: trimmedRepositoryPath,
	})
	if executionError != nil {
		if isCommandFailure(executionError) {
			return false, nil
		}
		return false, executionError
	}

	return true, nil
}

// isCommandFailure distinguishes a non-zero git exit from an inability to run git at all.
func isCommandFailure(executionError error) bool {
	commandFailure := execshell.CommandFailedError{}
	return errors.As(executionError, &commandFailure)
}
