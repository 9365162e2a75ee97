package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/temirov/promote/internal/utils"
)

const (
	informationLinePrefixConstant = "[INFO]"
	errorLinePrefixConstant       = "[ERROR]"
	reportLineTemplateConstant    = "%s %s\n"
)

// WorkflowReporter emits workflow step output for the invoking console.
type WorkflowReporter interface {
	Info(message string)
	Error(message string)
}

// ConsoleWorkflowReporter writes prefixed step lines to separate output and error sinks.
type ConsoleWorkflowReporter struct {
	outputWriter io.Writer
	errorWriter  io.Writer
}

// NewConsoleWorkflowReporter constructs a reporter over the provided writers, defaulting to the process streams.
func NewConsoleWorkflowReporter(outputWriter io.Writer, errorWriter io.Writer) *ConsoleWorkflowReporter {
	if outputWriter == nil {
		outputWriter = os.Stdout
	}
	if errorWriter == nil {
		errorWriter = os.Stderr
	}
	return &ConsoleWorkflowReporter{
		outputWriter: utils.NewFlushingWriter(outputWriter),
		errorWriter:  utils.NewFlushingWriter(errorWriter),
	}
}

// Info writes an informational step line to the output sink.
func (reporter *ConsoleWorkflowReporter) Info(message string) {
	if reporter == nil || reporter.outputWriter == nil {
		return
	}
	fmt.Fprintf(reporter.outputWriter, reportLineTemplateConstant, informationLinePrefixConstant, message)
}

// Error writes an error step line to the error sink.
func (reporter *ConsoleWorkflowReporter) Error(message string) {
	if reporter == nil || reporter.errorWriter == nil {
		return
	}
	fmt.Fprintf(reporter.errorWriter, reportLineTemplateConstant, errorLinePrefixConstant, message)
}

// noopWorkflowReporter discards all workflow output.
type noopWorkflowReporter struct{}

// Info implements WorkflowReporter for the no-op reporter.
func (noopWorkflowReporter) Info(string) {}

// Error implements WorkflowReporter for the no-op reporter.
func (noopWorkflowReporter) Error(string) {}

// NewNoopWorkflowReporter constructs a reporter that discards all output.
func NewNoopWorkflowReporter() WorkflowReporter {
	return noopWorkflowReporter{}
}
