package promote

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/promote/internal/ui"
)

const (
	commandUseConstant               = "promote [remote]"
	commandShortDescriptionConstant  = "Merge a dev branch into a main branch and push the result"
	commandLongDescriptionConstant   = "promote fetches a repository's branches, fast-forwards the dev and main branches from the remote, merges dev into main with an explicit merge commit, pushes main, and restores the branch that was checked out when the run began."
	remoteFlagNameConstant           = "remote"
	remoteFlagDescriptionConstant    = "Remote to fetch from and push to"
	sourceFlagNameConstant           = "dev"
	sourceFlagDescriptionConstant    = "Branch promoted into the main branch"
	targetFlagNameConstant           = "main"
	targetFlagDescriptionConstant    = "Branch receiving the merge commit"
	rootsFlagNameConstant            = "roots"
	rootsFlagDescriptionConstant     = "Repository paths to promote"
	promotionSuccessTemplateConstant = "PROMOTED: %s (%s -> %s)\n"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the promote command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  GitExecutor
	RepositoryManager            RepositoryManager
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

// Build constructs the promote command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}

	command.Flags().String(remoteFlagNameConstant, "", remoteFlagDescriptionConstant)
	command.Flags().String(sourceFlagNameConstant, "", sourceFlagDescriptionConstant)
	command.Flags().String(targetFlagNameConstant, "", targetFlagDescriptionConstant)
	command.Flags().StringSlice(rootsFlagNameConstant, nil, rootsFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()

	remoteName, remoteError := resolveStringFlag(command, remoteFlagNameConstant, configuration.RemoteName)
	if remoteError != nil {
		return remoteError
	}
	if len(arguments) > 0 && len(strings.TrimSpace(arguments[0])) > 0 {
		remoteName = strings.TrimSpace(arguments[0])
	}

	sourceBranch, sourceError := resolveBranchSetting(command, sourceFlagNameConstant, SourceBranchEnvironmentVariableConstant, configuration.SourceBranch)
	if sourceError != nil {
		return sourceError
	}

	targetBranch, targetError := resolveBranchSetting(command, targetFlagNameConstant, TargetBranchEnvironmentVariableConstant, configuration.TargetBranch)
	if targetError != nil {
		return targetError
	}

	repositoryRoots, rootsError := resolveRepositoryRoots(command, configuration.RepositoryRoots)
	if rootsError != nil {
		return rootsError
	}

	service, serviceError := builder.buildService(command)
	if serviceError != nil {
		return serviceError
	}

	for _, repositoryRoot := range repositoryRoots {
		if _, promotionError := service.Promote(command.Context(), Options{
			RepositoryPath: repositoryRoot,
			RemoteName:     remoteName,
			SourceBranch:   sourceBranch,
			TargetBranch:   targetBranch,
		}); promotionError != nil {
			return promotionError
		}
		fmt.Fprintf(command.OutOrStdout(), promotionSuccessTemplateConstant, repositoryRoot, sourceBranch, targetBranch)
	}

	return nil
}

func (builder *CommandBuilder) buildService(command *cobra.Command) (*Service, error) {
	logger := builder.resolveLogger()

	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}

	gitExecutor, executorError := ResolveGitExecutor(builder.GitExecutor, logger, humanReadableLogging)
	if executorError != nil {
		return nil, executorError
	}

	repositoryManager, managerError := ResolveRepositoryManager(builder.RepositoryManager, gitExecutor)
	if managerError != nil {
		return nil, managerError
	}

	return NewService(Dependencies{
		GitExecutor:       gitExecutor,
		RepositoryManager: repositoryManager,
		Reporter:          ui.NewConsoleWorkflowReporter(command.OutOrStdout(), command.ErrOrStderr()),
		Logger:            logger,
	})
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// resolveBranchSetting prefers an explicit flag, then the environment override, then configuration.
func resolveBranchSetting(command *cobra.Command, flagName string, environmentVariableName string, configuredValue string) (string, error) {
	flagValue, flagError := resolveStringFlag(command, flagName, configuredValue)
	if flagError != nil {
		return "", flagError
	}
	if command != nil && command.Flags().Changed(flagName) {
		return flagValue, nil
	}
	if environmentValue, environmentValueSet := os.LookupEnv(environmentVariableName); environmentValueSet {
		trimmedEnvironmentValue := strings.TrimSpace(environmentValue)
		if len(trimmedEnvironmentValue) > 0 {
			return trimmedEnvironmentValue, nil
		}
	}
	return flagValue, nil
}

func resolveStringFlag(command *cobra.Command, flagName string, fallbackValue string) (string, error) {
	if command == nil {
		return fallbackValue, nil
	}
	flagValue, flagError := command.Flags().GetString(flagName)
	if flagError != nil {
		return "", flagError
	}
	trimmedFlagValue := strings.TrimSpace(flagValue)
	if len(trimmedFlagValue) == 0 {
		return fallbackValue, nil
	}
	return trimmedFlagValue, nil
}

func resolveRepositoryRoots(command *cobra.Command, configuredRoots []string) ([]string, error) {
	if command != nil {
		flagRoots, flagError := command.Flags().GetStringSlice(rootsFlagNameConstant)
		if flagError != nil {
			return nil, flagError
		}
		sanitizedFlagRoots := sanitizeRepositoryRoots(flagRoots)
		if len(sanitizedFlagRoots) > 0 {
			return sanitizedFlagRoots, nil
		}
	}

	if len(configuredRoots) > 0 {
		return configuredRoots, nil
	}

	return []string{defaultRepositoryRootConstant}, nil
}
