package promote

import "strings"

const (
	defaultRemoteNameConstant       = "origin"
	defaultSourceBranchNameConstant = "dev"
	defaultTargetBranchNameConstant = "main"
	defaultRepositoryRootConstant   = "."

	remoteConfigurationKeySuffixConstant = ".remote"
	sourceConfigurationKeySuffixConstant = ".dev"
	targetConfigurationKeySuffixConstant = ".main"
	rootsConfigurationKeySuffixConstant  = ".roots"
)

// SourceBranchEnvironmentVariableConstant overrides the source branch name when set.
const SourceBranchEnvironmentVariableConstant = "DEV_BRANCH"

// TargetBranchEnvironmentVariableConstant overrides the target branch name when set.
const TargetBranchEnvironmentVariableConstant = "MAIN_BRANCH"

// CommandConfiguration captures configuration values for the promote command.
type CommandConfiguration struct {
	RemoteName      string   `mapstructure:"remote"`
	SourceBranch    string   `mapstructure:"dev"`
	TargetBranch    string   `mapstructure:"main"`
	RepositoryRoots []string `mapstructure:"roots"`
}

// DefaultCommandConfiguration provides baseline configuration values for promotions.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		RemoteName:      defaultRemoteNameConstant,
		SourceBranch:    defaultSourceBranchNameConstant,
		TargetBranch:    defaultTargetBranchNameConstant,
		RepositoryRoots: nil,
	}
}

// DefaultConfigurationValues exposes viper defaults keyed beneath the provided prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		configurationKeyPrefix + remoteConfigurationKeySuffixConstant: defaults.RemoteName,
		configurationKeyPrefix + sourceConfigurationKeySuffixConstant: defaults.SourceBranch,
		configurationKeyPrefix + targetConfigurationKeySuffixConstant: defaults.TargetBranch,
	}
}

// Sanitize trims configuration values and applies defaults for empty entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := CommandConfiguration{
		RemoteName:      strings.TrimSpace(configuration.RemoteName),
		SourceBranch:    strings.TrimSpace(configuration.SourceBranch),
		TargetBranch:    strings.TrimSpace(configuration.TargetBranch),
		RepositoryRoots: sanitizeRepositoryRoots(configuration.RepositoryRoots),
	}

	if len(sanitized.RemoteName) == 0 {
		sanitized.RemoteName = defaults.RemoteName
	}
	if len(sanitized.SourceBranch) == 0 {
		sanitized.SourceBranch = defaults.SourceBranch
	}
	if len(sanitized.TargetBranch) == 0 {
		sanitized.TargetBranch = defaults.TargetBranch
	}

	return sanitized
}

func sanitizeRepositoryRoots(raw []string) []string {
	sanitized := make([]string, 0, len(raw))
	for _, candidate := range raw {
		trimmed := strings.TrimSpace(candidate)
		if len(trimmed) == 0 {
			continue
		}
		sanitized = append(sanitized, trimmed)
	}
	if len(sanitized) == 0 {
		return nil
	}
	return sanitized
}
