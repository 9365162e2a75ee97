package promote

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/promote/internal/utils"
)

const (
	planCommandUseConstant              = "plan [plan-file]"
	planCommandShortDescriptionConstant = "Run promotions defined in a plan file"
	planCommandLongDescriptionConstant  = "plan executes the branch promotions defined in a YAML or JSON plan file, stopping at the first failure after that step's branch restoration."
	planPathMissingMessageConstant      = "promotion plan path required; provide a positional argument or --config flag"
	planStepSuccessTemplateConstant     = "PROMOTED: %s (%s -> %s)\n"
)

// PlanCommandBuilder assembles the plan command.
type PlanCommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  GitExecutor
	RepositoryManager            RepositoryManager
	HumanReadableLoggingProvider func() bool
}

// Build constructs the plan command.
func (builder *PlanCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   planCommandUseConstant,
		Short: planCommandShortDescriptionConstant,
		Long:  planCommandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}

	return command, nil
}

func (builder *PlanCommandBuilder) run(command *cobra.Command, arguments []string) error {
	contextAccessor := utils.NewCommandContextAccessor()

	planPathCandidate := ""
	if len(arguments) > 0 {
		planPathCandidate = strings.TrimSpace(arguments[0])
	} else {
		planPathFromContext, planPathAvailable := contextAccessor.ConfigurationFilePath(command.Context())
		if planPathAvailable {
			planPathCandidate = strings.TrimSpace(planPathFromContext)
		}
	}

	if len(planPathCandidate) == 0 {
		if command != nil {
			_ = command.Help()
		}
		return errors.New(planPathMissingMessageConstant)
	}

	promotionPlan, planError := LoadPlan(planPathCandidate)
	if planError != nil {
		return planError
	}

	commandBuilder := CommandBuilder{
		LoggerProvider:               builder.LoggerProvider,
		GitExecutor:                  builder.GitExecutor,
		RepositoryManager:            builder.RepositoryManager,
		HumanReadableLoggingProvider: builder.HumanReadableLoggingProvider,
	}
	service, serviceError := commandBuilder.buildService(command)
	if serviceError != nil {
		return serviceError
	}

	for stepIndex := range promotionPlan.Steps {
		stepOptions := promotionPlan.StepOptions(stepIndex)
		if _, promotionError := service.Promote(command.Context(), stepOptions); promotionError != nil {
			return promotionError
		}
		fmt.Fprintf(command.OutOrStdout(), planStepSuccessTemplateConstant, stepOptions.RepositoryPath, stepOptions.SourceBranch, stepOptions.TargetBranch)
	}

	return nil
}
