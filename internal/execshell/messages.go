package execshell

import (
	"fmt"
	"strings"
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
)

const (
	gitRevParseSubcommandNameConstant = "rev-parse"
	gitWorkTreeFlagConstant           = "--is-inside-work-tree"
	gitAbbrevRefFlagConstant          = "--abbrev-ref"
	gitVerifyFlagConstant             = "--verify"
	gitStatusSubcommandNameConstant   = "status"
	gitStatusPorcelainFlagConstant    = "--porcelain"
	gitFetchSubcommandNameConstant    = "fetch"
	gitCheckoutSubcommandNameConstant = "checkout"
	gitPullSubcommandNameConstant     = "pull"
	gitMergeSubcommandNameConstant    = "merge"
	gitPushSubcommandNameConstant     = "push"
)

const (
	gitWorkTreeStartTemplateConstant           = "Analyzing repository at %s"
	gitWorkTreeSuccessTemplateConstant         = "%s is a Git repository"
	gitWorkTreeFailureTemplateConstant         = "Could not confirm %s is a Git repository (exit code %d%s)"
	gitWorkTreeExecutionFailureTemplateConstant = "Could not analyze %s: %s"

	gitCurrentBranchStartTemplateConstant            = "Identifying current branch in %s"
	gitCurrentBranchSuccessTemplateConstant          = "Identified current branch in %s"
	gitCurrentBranchFailureTemplateConstant          = "Failed to identify current branch in %s (exit code %d%s)"
	gitCurrentBranchExecutionFailureTemplateConstant = "Unable to identify current branch in %s: %s"

	gitRevisionStartTemplateConstant            = "Resolving %s in %s"
	gitRevisionSuccessTemplateConstant          = "Resolved %s in %s"
	gitRevisionFailureTemplateConstant          = "Failed to resolve %s in %s (exit code %d%s)"
	gitRevisionExecutionFailureTemplateConstant = "Unable to resolve %s in %s: %s"

	gitStatusStartTemplateConstant            = "Reviewing working tree status in %s"
	gitStatusSuccessTemplateConstant          = "Collected working tree status for %s"
	gitStatusFailureTemplateConstant          = "Failed to review working tree status in %s (exit code %d%s)"
	gitStatusExecutionFailureTemplateConstant = "Unable to review working tree status in %s: %s"

	gitFetchStartTemplateConstant            = "Fetching from %s in %s"
	gitFetchSuccessTemplateConstant          = "Fetched from %s in %s"
	gitFetchFailureTemplateConstant          = "Failed to fetch from %s in %s (exit code %d%s)"
	gitFetchExecutionFailureTemplateConstant = "Unable to fetch from %s in %s: %s"
	gitFetchAllRemotesLabelConstant          = "all remotes"

	gitCheckoutStartTemplateConstant            = "Switching %s to branch %s"
	gitCheckoutSuccessTemplateConstant          = "%s now on branch %s"
	gitCheckoutFailureTemplateConstant          = "Failed to switch %s to branch %s (exit code %d%s)"
	gitCheckoutExecutionFailureTemplateConstant = "Unable to switch %s to branch %s: %s"

	gitPullStartTemplateConstant            = "Fast-forwarding %s from %s"
	gitPullSuccessTemplateConstant          = "Fast-forwarded %s from %s"
	gitPullFailureTemplateConstant          = "Failed to fast-forward %s from %s (exit code %d%s)"
	gitPullExecutionFailureTemplateConstant = "Unable to fast-forward %s from %s: %s"
	gitPullConfiguredRemoteLabelConstant    = "configured remote"

	gitMergeStartTemplateConstant            = "Merging %s in %s"
	gitMergeSuccessTemplateConstant          = "Merged %s in %s"
	gitMergeFailureTemplateConstant          = "Failed to merge %s in %s (exit code %d%s)"
	gitMergeExecutionFailureTemplateConstant = "Unable to merge %s in %s: %s"

	gitPushStartTemplateConstant            = "Pushing %s to %s from %s"
	gitPushSuccessTemplateConstant          = "Pushed %s to %s from %s"
	gitPushFailureTemplateConstant          = "Failed to push %s to %s from %s (exit code %d%s)"
	gitPushExecutionFailureTemplateConstant = "Unable to push %s to %s from %s: %s"
	gitPushUpstreamLabelConstant            = "upstream"
)

type commandMessageBuilder struct {
	command ShellCommand
}

func newCommandMessageBuilder(command ShellCommand) commandMessageBuilder {
	return commandMessageBuilder{command: command}
}

func (builder commandMessageBuilder) startMessage() string {
	if classified, classifiedMessage := builder.classifiedMessage(classifiedStageStart, 0, emptyStringConstant); classified {
		return classifiedMessage
	}
	return fmt.Sprintf(genericStartTemplateConstant, builder.commandLabel())
}

func (builder commandMessageBuilder) successMessage() string {
	if classified, classifiedMessage := builder.classifiedMessage(classifiedStageSuccess, 0, emptyStringConstant); classified {
		return classifiedMessage
	}
	return fmt.Sprintf(genericSuccessTemplateConstant, builder.commandLabel())
}

func (builder commandMessageBuilder) failureMessage(result ExecutionResult) string {
	standardErrorSuffix := formatStandardErrorSuffix(result.StandardError)
	if classified, classifiedMessage := builder.classifiedMessage(classifiedStageFailure, result.ExitCode, standardErrorSuffix); classified {
		return classifiedMessage
	}
	return fmt.Sprintf(genericFailureTemplateConstant, builder.commandLabel(), result.ExitCode, standardErrorSuffix)
}

func (builder commandMessageBuilder) executionFailureMessage(failure error) string {
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	if classified, classifiedMessage := builder.classifiedMessage(classifiedStageExecutionFailure, 0, failureMessage); classified {
		return classifiedMessage
	}
	return fmt.Sprintf(genericExecutionFailureTemplateConstant, builder.commandLabel(), failureMessage)
}

type classifiedStage int

const (
	classifiedStageStart classifiedStage = iota
	classifiedStageSuccess
	classifiedStageFailure
	classifiedStageExecutionFailure
)

type classifiedTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

// classifiedMessage maps the git invocations used by promote to operation-specific phrasing.
func (builder commandMessageBuilder) classifiedMessage(stage classifiedStage, exitCode int, suffix string) (bool, string) {
	if builder.command.Name != CommandGit {
		return false, emptyStringConstant
	}

	arguments := builder.command.Details.Arguments
	if len(arguments) == 0 {
		return false, emptyStringConstant
	}

	workingDirectoryLabel := builder.workingDirectoryLabel()

	switch arguments[0] {
	case gitRevParseSubcommandNameConstant:
		return builder.revParseMessage(arguments, workingDirectoryLabel, stage, exitCode, suffix)
	case gitStatusSubcommandNameConstant:
		templates := classifiedTemplates{gitStatusStartTemplateConstant, gitStatusSuccessTemplateConstant, gitStatusFailureTemplateConstant, gitStatusExecutionFailureTemplateConstant}
		return true, renderClassified(templates, stage, exitCode, suffix, workingDirectoryLabel)
	case gitFetchSubcommandNameConstant:
		remoteLabel := firstPositionalArgument(arguments[1:], gitFetchAllRemotesLabelConstant)
		templates := classifiedTemplates{gitFetchStartTemplateConstant, gitFetchSuccessTemplateConstant, gitFetchFailureTemplateConstant, gitFetchExecutionFailureTemplateConstant}
		return true, renderClassified(templates, stage, exitCode, suffix, remoteLabel, workingDirectoryLabel)
	case gitCheckoutSubcommandNameConstant:
		branchLabel := firstPositionalArgument(arguments[1:], unknownFailureMessageConstant)
		templates := classifiedTemplates{gitCheckoutStartTemplateConstant, gitCheckoutSuccessTemplateConstant, gitCheckoutFailureTemplateConstant, gitCheckoutExecutionFailureTemplateConstant}
		return true, renderClassified(templates, stage, exitCode, suffix, workingDirectoryLabel, branchLabel)
	case gitPullSubcommandNameConstant:
		remoteLabel := firstPositionalArgument(arguments[1:], gitPullConfiguredRemoteLabelConstant)
		templates := classifiedTemplates{gitPullStartTemplateConstant, gitPullSuccessTemplateConstant, gitPullFailureTemplateConstant, gitPullExecutionFailureTemplateConstant}
		return true, renderClassified(templates, stage, exitCode, suffix, workingDirectoryLabel, remoteLabel)
	case gitMergeSubcommandNameConstant:
		branchLabel := firstPositionalArgument(arguments[1:], unknownFailureMessageConstant)
		templates := classifiedTemplates{gitMergeStartTemplateConstant, gitMergeSuccessTemplateConstant, gitMergeFailureTemplateConstant, gitMergeExecutionFailureTemplateConstant}
		return true, renderClassified(templates, stage, exitCode, suffix, branchLabel, workingDirectoryLabel)
	case gitPushSubcommandNameConstant:
		pushArguments := positionalArguments(arguments[1:])
		remoteLabel := gitPushUpstreamLabelConstant
		branchLabel := unknownFailureMessageConstant
		if len(pushArguments) > 0 {
			remoteLabel = pushArguments[0]
		}
		if len(pushArguments) > 1 {
			branchLabel = pushArguments[1]
		}
		templates := classifiedTemplates{gitPushStartTemplateConstant, gitPushSuccessTemplateConstant, gitPushFailureTemplateConstant, gitPushExecutionFailureTemplateConstant}
		return true, renderClassified(templates, stage, exitCode, suffix, branchLabel, remoteLabel, workingDirectoryLabel)
	}

	return false, emptyStringConstant
}

func (builder commandMessageBuilder) revParseMessage(arguments []string, workingDirectoryLabel string, stage classifiedStage, exitCode int, suffix string) (bool, string) {
	for _, argument := range arguments[1:] {
		switch argument {
		case gitWorkTreeFlagConstant:
			templates := classifiedTemplates{gitWorkTreeStartTemplateConstant, gitWorkTreeSuccessTemplateConstant, gitWorkTreeFailureTemplateConstant, gitWorkTreeExecutionFailureTemplateConstant}
			return true, renderClassified(templates, stage, exitCode, suffix, workingDirectoryLabel)
		case gitAbbrevRefFlagConstant:
			templates := classifiedTemplates{gitCurrentBranchStartTemplateConstant, gitCurrentBranchSuccessTemplateConstant, gitCurrentBranchFailureTemplateConstant, gitCurrentBranchExecutionFailureTemplateConstant}
			return true, renderClassified(templates, stage, exitCode, suffix, workingDirectoryLabel)
		case gitVerifyFlagConstant:
			referenceLabel := lastPositionalArgument(arguments[1:], unknownFailureMessageConstant)
			templates := classifiedTemplates{gitRevisionStartTemplateConstant, gitRevisionSuccessTemplateConstant, gitRevisionFailureTemplateConstant, gitRevisionExecutionFailureTemplateConstant}
			return true, renderClassified(templates, stage, exitCode, suffix, referenceLabel, workingDirectoryLabel)
		}
	}
	return false, emptyStringConstant
}

func renderClassified(templates classifiedTemplates, stage classifiedStage, exitCode int, suffix string, labels ...string) string {
	formatArguments := make([]any, 0, len(labels)+2)
	for _, label := range labels {
		formatArguments = append(formatArguments, label)
	}

	switch stage {
	case classifiedStageStart:
		return fmt.Sprintf(templates.start, formatArguments...)
	case classifiedStageSuccess:
		return fmt.Sprintf(templates.success, formatArguments...)
	case classifiedStageFailure:
		formatArguments = append(formatArguments, exitCode, suffix)
		return fmt.Sprintf(templates.failure, formatArguments...)
	default:
		formatArguments = append(formatArguments, suffix)
		return fmt.Sprintf(templates.executionFailure, formatArguments...)
	}
}

func (builder commandMessageBuilder) commandLabel() string {
	commandParts := []string{string(builder.command.Name)}
	if len(builder.command.Details.Arguments) > 0 {
		commandParts = append(commandParts, strings.Join(builder.command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	commandLabel := strings.Join(commandParts, commandArgumentsJoinSeparatorConstant)

	trimmedWorkingDirectory := strings.TrimSpace(builder.command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return commandLabel
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory))
}

func (builder commandMessageBuilder) workingDirectoryLabel() string {
	trimmedWorkingDirectory := strings.TrimSpace(builder.command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func positionalArguments(arguments []string) []string {
	collected := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		if strings.HasPrefix(argument, "-") {
			continue
		}
		collected = append(collected, argument)
	}
	return collected
}

func firstPositionalArgument(arguments []string, fallback string) string {
	collected := positionalArguments(arguments)
	if len(collected) == 0 {
		return fallback
	}
	return collected[0]
}

func lastPositionalArgument(arguments []string, fallback string) string {
	collected := positionalArguments(arguments)
	if len(collected) == 0 {
		return fallback
	}
	return collected[len(collected)-1]
}
