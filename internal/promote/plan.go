package promote

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	planPathRequiredMessageConstant           = "promotion plan path must be provided"
	planLoadErrorTemplateConstant             = "failed to load promotion plan: %w"
	planParseErrorTemplateConstant            = "failed to parse promotion plan: %w"
	planEmptyStepsMessageConstant             = "promotion plan must define at least one step"
	planStepRepositoryMissingTemplateConstant = "promotion plan step %d missing repository path"
)

// ErrPlanPathRequired indicates the plan file path argument was empty.
var ErrPlanPathRequired = errors.New(planPathRequiredMessageConstant)

// ErrPlanStepsRequired indicates the plan defined no steps.
var ErrPlanStepsRequired = errors.New(planEmptyStepsMessageConstant)

// Plan describes an ordered set of repository promotions loaded from YAML or JSON.
type Plan struct {
	RemoteName   string     `yaml:"remote" json:"remote"`
	SourceBranch string     `yaml:"dev" json:"dev"`
	TargetBranch string     `yaml:"main" json:"main"`
	Steps        []PlanStep `yaml:"steps" json:"steps"`
}

// PlanStep describes one repository promotion, inheriting unset values from the plan.
type PlanStep struct {
	RepositoryPath string `yaml:"repository" json:"repository"`
	RemoteName     string `yaml:"remote" json:"remote"`
	SourceBranch   string `yaml:"dev" json:"dev"`
	TargetBranch   string `yaml:"main" json:"main"`
}

// LoadPlan reads the promotion plan from disk and performs basic validation.
func LoadPlan(filePath string) (Plan, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return Plan{}, ErrPlanPathRequired
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return Plan{}, fmt.Errorf(planLoadErrorTemplateConstant, readError)
	}

	var plan Plan
	if unmarshalError := yaml.Unmarshal(contentBytes, &plan); unmarshalError != nil {
		return Plan{}, fmt.Errorf(planParseErrorTemplateConstant, unmarshalError)
	}

	if len(plan.Steps) == 0 {
		var wrapper struct {
			Plan Plan `yaml:"plan" json:"plan"`
		}
		if nestedError := yaml.Unmarshal(contentBytes, &wrapper); nestedError == nil && len(wrapper.Plan.Steps) > 0 {
			plan = wrapper.Plan
		}
	}

	if len(plan.Steps) == 0 {
		return Plan{}, ErrPlanStepsRequired
	}

	for stepIndex, planStep := range plan.Steps {
		if len(strings.TrimSpace(planStep.RepositoryPath)) == 0 {
			return Plan{}, fmt.Errorf(planStepRepositoryMissingTemplateConstant, stepIndex)
		}
	}

	return plan, nil
}

// StepOptions resolves the effective promotion options for the indexed step,
// layering step values over plan values over the packaged defaults.
func (plan Plan) StepOptions(stepIndex int) Options {
	defaults := DefaultCommandConfiguration()
	planStep := plan.Steps[stepIndex]

	return Options{
		RepositoryPath: strings.TrimSpace(planStep.RepositoryPath),
		RemoteName:     firstNonEmptyValue(planStep.RemoteName, plan.RemoteName, defaults.RemoteName),
		SourceBranch:   firstNonEmptyValue(planStep.SourceBranch, plan.SourceBranch, defaults.SourceBranch),
		TargetBranch:   firstNonEmptyValue(planStep.TargetBranch, plan.TargetBranch, defaults.TargetBranch),
	}
}

func firstNonEmptyValue(candidates ...string) string {
	for _, candidate := range candidates {
		trimmedCandidate := strings.TrimSpace(candidate)
		if len(trimmedCandidate) > 0 {
			return trimmedCandidate
		}
	}
	return ""
}
