package promote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/promote/internal/execshell"
	"github.com/temirov/promote/internal/gitrepo"
	"github.com/temirov/promote/internal/ui"
)

const (
	repositoryPathRequiredMessageConstant       = "repository path must be provided"
	remoteNameRequiredMessageConstant           = "remote name must be provided"
	sourceBranchRequiredMessageConstant         = "source branch must be provided"
	targetBranchRequiredMessageConstant         = "target branch must be provided"
	identicalBranchesMessageConstant            = "source and target branches must differ"
	gitExecutorMissingMessageConstant           = "git executor not configured"
	repositoryManagerMissingMessageConstant     = "repository manager not configured"
	notARepositoryMessageConstant               = "not inside a git repository work tree"
	promotionInterruptedMessageConstant         = "promotion interrupted"
	repositoryDetectionErrorTemplateConstant    = "failed to detect repository: %w"
	worktreeInspectionErrorTemplateConstant     = "failed to inspect worktree: %w"
	startingBranchErrorTemplateConstant         = "failed to identify starting branch: %w"
	gitFetchFailureTemplateConstant             = "failed to fetch from %q: %w"
	branchLookupErrorTemplateConstant           = "failed to resolve branch %q: %w"
	gitCheckoutFailureTemplateConstant          = "failed to checkout branch %q: %w"
	gitFastForwardFailureTemplateConstant       = "failed to fast-forward branch %q from %q: %w"
	gitMergeFailureTemplateConstant             = "failed to merge %q into %q: %w"
	gitPushFailureTemplateConstant              = "failed to push %q to %q: %w"
	interruptedErrorTemplateConstant            = "%w: %s"
	dirtyWorktreeErrorTemplateConstant          = "repository %s has uncommitted changes: %s"
	branchNotFoundErrorTemplateConstant         = "branch %q not found locally or on remote %q"
	dirtyWorktreeChangeSeparatorConstant        = ", "
	gitFetchSubcommandConstant                  = "fetch"
	gitFetchPruneFlagConstant                   = "--prune"
	gitCheckoutSubcommandConstant               = "checkout"
	gitPullSubcommandConstant                   = "pull"
	gitPullFastForwardFlagConstant              = "--ff-only"
	gitMergeSubcommandConstant                  = "merge"
	gitMergeNoFastForwardFlagConstant           = "--no-ff"
	gitMergeNoEditFlagConstant                  = "--no-edit"
	gitPushSubcommandConstant                   = "push"
	gitTerminalPromptEnvironmentNameConstant    = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptEnvironmentDisableConstant = "0"
)

const (
	promotionStartReportTemplateConstant      = "Promoting %s into %s in %s (remote %s)"
	fetchReportTemplateConstant               = "Fetching from %s with pruning"
	branchesValidatedReportTemplateConstant   = "Branches %s and %s resolved"
	fastForwardReportTemplateConstant         = "Fast-forwarding %s from %s"
	mergeReportTemplateConstant               = "Merging %s into %s with a merge commit"
	pushReportTemplateConstant                = "Pushing %s to %s"
	promotionCompleteReportTemplateConstant   = "Promotion of %s into %s complete"
	uncommittedChangeReportTemplateConstant   = "uncommitted change: %s"
	promotionFailedReportTemplateConstant     = "promotion failed: %s"
	restorationSuccessReportTemplateConstant  = "Restored starting branch %s"
	restorationFailureReportTemplateConstant  = "failed to restore starting branch %s: %s"
	detachedStartReportMessageConstant        = "started in a detached HEAD state; skipping branch restoration"
	restorationSkippedLogMessageConstant      = "branch restoration skipped"
	restorationFailedLogMessageConstant       = "branch restoration failed"
	logFieldRepositoryPathConstant            = "repository_path"
	logFieldStartingBranchConstant            = "starting_branch"
)

// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrRepositoryManagerNotConfigured indicates the repository manager dependency was missing.
var ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerMissingMessageConstant)

// ErrRepositoryPathRequired indicates the repository path option was empty.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrRemoteNameRequired indicates the remote name option was empty.
var ErrRemoteNameRequired = errors.New(remoteNameRequiredMessageConstant)

// ErrSourceBranchRequired indicates the source branch option was empty.
var ErrSourceBranchRequired = errors.New(sourceBranchRequiredMessageConstant)

// ErrTargetBranchRequired indicates the target branch option was empty.
var ErrTargetBranchRequired = errors.New(targetBranchRequiredMessageConstant)

// ErrIdenticalBranches indicates the source and target branch names matched.
var ErrIdenticalBranches = errors.New(identicalBranchesMessageConstant)

// ErrNotARepository indicates the configured path is not inside a git work tree.
var ErrNotARepository = errors.New(notARepositoryMessageConstant)

// ErrPromotionInterrupted indicates the workflow was cancelled mid-run.
var ErrPromotionInterrupted = errors.New(promotionInterruptedMessageConstant)

// DirtyWorktreeError reports uncommitted changes blocking a promotion.
type DirtyWorktreeError struct {
	RepositoryPath string
	Changes        []string
}

// Error lists the uncommitted changes.
func (dirtyError DirtyWorktreeError) Error() string {
	return fmt.Sprintf(dirtyWorktreeErrorTemplateConstant, dirtyError.RepositoryPath, strings.Join(dirtyError.Changes, dirtyWorktreeChangeSeparatorConstant))
}

// BranchNotFoundError reports a branch missing both locally and on the remote.
type BranchNotFoundError struct {
	BranchName string
	RemoteName string
}

// Error describes the missing branch.
func (notFoundError BranchNotFoundError) Error() string {
	return fmt.Sprintf(branchNotFoundErrorTemplateConstant, notFoundError.BranchName, notFoundError.RemoteName)
}

// GitExecutor exposes the subset of shell execution used by the promotion service.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager exposes the repository queries required by the promotion service.
type RepositoryManager interface {
	IsRepositoryWorkTree(executionContext context.Context, repositoryPath string) (bool, error)
	ListWorktreeChanges(executionContext context.Context, repositoryPath string) ([]string, error)
	GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	LocalBranchExists(executionContext context.Context, repositoryPath string, branchName string) (bool, error)
	RemoteTrackingBranchExists(executionContext context.Context, repositoryPath string, remoteName string, branchName string) (bool, error)
}

// Dependencies enumerates external collaborators required for promotions.
type Dependencies struct {
	GitExecutor       GitExecutor
	RepositoryManager RepositoryManager
	Reporter          ui.WorkflowReporter
	Logger            *zap.Logger
}

// Options configures a single branch promotion.
type Options struct {
	RepositoryPath string
	RemoteName     string
	SourceBranch   string
	TargetBranch   string
}

// Result captures the observable outcomes of a promotion.
type Result struct {
	RepositoryPath         string
	RemoteName             string
	SourceBranch           string
	TargetBranch           string
	StartingBranch         string
	StartingBranchRestored bool
}

// workflowState holds the context captured before any mutation, consumed by the restoration scope.
type workflowState struct {
	repositoryPath string
	startingBranch string
}

// Service orchestrates safe branch promotions through git.
type Service struct {
	executor          GitExecutor
	repositoryManager RepositoryManager
	reporter          ui.WorkflowReporter
	logger            *zap.Logger
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if dependencies.RepositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}

	reporter := dependencies.Reporter
	if reporter == nil {
		reporter = ui.NewNoopWorkflowReporter()
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		executor:          dependencies.GitExecutor,
		repositoryManager: dependencies.RepositoryManager,
		reporter:          reporter,
		logger:            logger,
	}, nil
}

// Promote merges the source branch into the target branch and pushes the result,
// restoring the starting branch on every exit path after it has been recorded.
func (service *Service) Promote(executionContext context.Context, options Options) (Result, error) {
	sanitizedOptions, validationError := sanitizeOptions(options)
	if validationError != nil {
		return Result{}, validationError
	}

	result := Result{
		RepositoryPath: sanitizedOptions.RepositoryPath,
		RemoteName:     sanitizedOptions.RemoteName,
		SourceBranch:   sanitizedOptions.SourceBranch,
		TargetBranch:   sanitizedOptions.TargetBranch,
	}

	insideWorkTree, detectionError := service.repositoryManager.IsRepositoryWorkTree(executionContext, sanitizedOptions.RepositoryPath)
	if detectionError != nil {
		return result, fmt.Errorf(repositoryDetectionErrorTemplateConstant, detectionError)
	}
	if !insideWorkTree {
		return result, ErrNotARepository
	}

	worktreeChanges, inspectionError := service.repositoryManager.ListWorktreeChanges(executionContext, sanitizedOptions.RepositoryPath)
	if inspectionError != nil {
		return result, fmt.Errorf(worktreeInspectionErrorTemplateConstant, inspectionError)
	}
	if len(worktreeChanges) > 0 {
		for _, worktreeChange := range worktreeChanges {
			service.reporter.Error(fmt.Sprintf(uncommittedChangeReportTemplateConstant, worktreeChange))
		}
		return result, DirtyWorktreeError{RepositoryPath: sanitizedOptions.RepositoryPath, Changes: worktreeChanges}
	}

	startingBranch, startingBranchError := service.repositoryManager.GetCurrentBranch(executionContext, sanitizedOptions.RepositoryPath)
	if startingBranchError != nil {
		return result, fmt.Errorf(startingBranchErrorTemplateConstant, startingBranchError)
	}
	result.StartingBranch = startingBranch

	service.reporter.Info(fmt.Sprintf(promotionStartReportTemplateConstant, sanitizedOptions.SourceBranch, sanitizedOptions.TargetBranch, sanitizedOptions.RepositoryPath, sanitizedOptions.RemoteName))

	state := workflowState{repositoryPath: sanitizedOptions.RepositoryPath, startingBranch: startingBranch}

	promotionError := service.runPromotionSteps(executionContext, sanitizedOptions)

	// Restoration runs on every exit path once the starting branch is known,
	// including cancellation, so it uses a context detached from the trigger.
	restorationContext := context.WithoutCancel(executionContext)
	if promotionError != nil {
		service.reporter.Error(fmt.Sprintf(promotionFailedReportTemplateConstant, promotionError))
		service.restoreStartingBranch(restorationContext, state)
		if executionContext.Err() != nil {
			return result, fmt.Errorf(interruptedErrorTemplateConstant, ErrPromotionInterrupted, promotionError)
		}
		return result, promotionError
	}

	result.StartingBranchRestored = service.restoreStartingBranch(restorationContext, state)
	service.reporter.Info(fmt.Sprintf(promotionCompleteReportTemplateConstant, sanitizedOptions.SourceBranch, sanitizedOptions.TargetBranch))
	return result, nil
}

func (service *Service) runPromotionSteps(executionContext context.Context, options Options) error {
	service.reporter.Info(fmt.Sprintf(fetchReportTemplateConstant, options.RemoteName))
	if fetchError := service.executeGit(executionContext, options.RepositoryPath, gitFetchSubcommandConstant, gitFetchPruneFlagConstant, options.RemoteName); fetchError != nil {
		return fmt.Errorf(gitFetchFailureTemplateConstant, options.RemoteName, fetchError)
	}

	for _, branchName := range []string{options.SourceBranch, options.TargetBranch} {
		branchAvailable, availabilityError := service.branchAvailable(executionContext, options, branchName)
		if availabilityError != nil {
			return fmt.Errorf(branchLookupErrorTemplateConstant, branchName, availabilityError)
		}
		if !branchAvailable {
			return BranchNotFoundError{BranchName: branchName, RemoteName: options.RemoteName}
		}
	}
	service.reporter.Info(fmt.Sprintf(branchesValidatedReportTemplateConstant, options.SourceBranch, options.TargetBranch))

	for _, branchName := range []string{options.SourceBranch, options.TargetBranch} {
		if checkoutError := service.executeGit(executionContext, options.RepositoryPath, gitCheckoutSubcommandConstant, branchName); checkoutError != nil {
			return fmt.Errorf(gitCheckoutFailureTemplateConstant, branchName, checkoutError)
		}
		service.reporter.Info(fmt.Sprintf(fastForwardReportTemplateConstant, branchName, options.RemoteName))
		if pullError := service.executeGit(executionContext, options.RepositoryPath, gitPullSubcommandConstant, gitPullFastForwardFlagConstant, options.RemoteName, branchName); pullError != nil {
			return fmt.Errorf(gitFastForwardFailureTemplateConstant, branchName, options.RemoteName, pullError)
		}
	}

	service.reporter.Info(fmt.Sprintf(mergeReportTemplateConstant, options.SourceBranch, options.TargetBranch))
	if mergeError := service.executeGit(executionContext, options.RepositoryPath, gitMergeSubcommandConstant, gitMergeNoFastForwardFlagConstant, gitMergeNoEditFlagConstant, options.SourceBranch); mergeError != nil {
		return fmt.Errorf(gitMergeFailureTemplateConstant, options.SourceBranch, options.TargetBranch, mergeError)
	}

	service.reporter.Info(fmt.Sprintf(pushReportTemplateConstant, options.TargetBranch, options.RemoteName))
	if pushError := service.executeGit(executionContext, options.RepositoryPath, gitPushSubcommandConstant, options.RemoteName, options.TargetBranch); pushError != nil {
		return fmt.Errorf(gitPushFailureTemplateConstant, options.TargetBranch, options.RemoteName, pushError)
	}

	return nil
}

// branchAvailable reports whether the branch resolves locally or as a remote-tracking reference.
func (service *Service) branchAvailable(executionContext context.Context, options Options, branchName string) (bool, error) {
	localExists, localError := service.repositoryManager.LocalBranchExists(executionContext, options.RepositoryPath, branchName)
	if localError != nil {
		return false, localError
	}
	if localExists {
		return true, nil
	}
	return service.repositoryManager.RemoteTrackingBranchExists(executionContext, options.RepositoryPath, options.RemoteName, branchName)
}

// restoreStartingBranch attempts to return the repository to the recorded branch.
// Failures are reported but never propagated so the primary error is not masked.
func (service *Service) restoreStartingBranch(executionContext context.Context, state workflowState) bool {
	if len(state.startingBranch) == 0 {
		return false
	}
	if state.startingBranch == gitrepo.DetachedHeadIndicatorConstant {
		service.reporter.Info(detachedStartReportMessageConstant)
		return false
	}

	currentBranch, currentBranchError := service.repositoryManager.GetCurrentBranch(executionContext, state.repositoryPath)
	if currentBranchError != nil {
		service.logger.Warn(
			restorationSkippedLogMessageConstant,
			zap.String(logFieldRepositoryPathConstant, state.repositoryPath),
			zap.String(logFieldStartingBranchConstant, state.startingBranch),
			zap.Error(currentBranchError),
		)
		return false
	}
	if currentBranch == state.startingBranch {
		return false
	}

	if checkoutError := service.executeGit(executionContext, state.repositoryPath, gitCheckoutSubcommandConstant, state.startingBranch); checkoutError != nil {
		service.reporter.Error(fmt.Sprintf(restorationFailureReportTemplateConstant, state.startingBranch, checkoutError))
		service.logger.Warn(
			restorationFailedLogMessageConstant,
			zap.String(logFieldRepositoryPathConstant, state.repositoryPath),
			zap.String(logFieldStartingBranchConstant, state.startingBranch),
			zap.Error(checkoutError),
		)
		return false
	}

	service.reporter.Info(fmt.Sprintf(restorationSuccessReportTemplateConstant, state.startingBranch))
	return true
}

func (service *Service) executeGit(executionContext context.Context, repositoryPath string, arguments ...string) error {
	_, executionError := service.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
		EnvironmentVariables: map[string]string{
			gitTerminalPromptEnvironmentNameConstant: gitTerminalPromptEnvironmentDisableConstant,
		},
	})
	return executionError
}

func sanitizeOptions(options Options) (Options, error) {
	sanitized := Options{
		RepositoryPath: strings.TrimSpace(options.RepositoryPath),
		RemoteName:     strings.TrimSpace(options.RemoteName),
		SourceBranch:   strings.TrimSpace(options.SourceBranch),
		TargetBranch:   strings.TrimSpace(options.TargetBranch),
	}

	if len(sanitized.RepositoryPath) == 0 {
		return Options{}, ErrRepositoryPathRequired
	}
	if len(sanitized.RemoteName) == 0 {
		return Options{}, ErrRemoteNameRequired
	}
	if len(sanitized.SourceBranch) == 0 {
		return Options{}, ErrSourceBranchRequired
	}
	if len(sanitized.TargetBranch) == 0 {
		return Options{}, ErrTargetBranchRequired
	}
	if sanitized.SourceBranch == sanitized.TargetBranch {
		return Options{}, ErrIdenticalBranches
	}

	return sanitized, nil
}
