package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConsoleWorkflowReporterPrefixesLines(t *testing.T) {
	outputBuffer := &bytes.Buffer{}
	errorBuffer := &bytes.Buffer{}
	reporter := NewConsoleWorkflowReporter(outputBuffer, errorBuffer)

	reporter.Info("Fetching from origin with pruning")
	reporter.Info("Merging dev into main with a merge commit")
	reporter.Error("uncommitted change: M internal/service.go")

	require.Equal(t, "[INFO] Fetching from origin with pruning\n[INFO] Merging dev into main with a merge commit\n", outputBuffer.String())
	require.Equal(t, "[ERROR] uncommitted change: M internal/service.go\n", errorBuffer.String())
}

func TestConsoleWorkflowReporterSeparatesSinks(t *testing.T) {
	outputBuffer := &bytes.Buffer{}
	errorBuffer := &bytes.Buffer{}
	reporter := NewConsoleWorkflowReporter(outputBuffer, errorBuffer)

	reporter.Error("promotion failed: merge conflict")

	require.Empty(t, outputBuffer.String())
	require.Contains(t, errorBuffer.String(), "[ERROR] promotion failed: merge conflict")
}

func TestNoopWorkflowReporterDiscardsOutput(t *testing.T) {
	reporter := NewNoopWorkflowReporter()
	require.NotPanics(t, func() {
		reporter.Info("ignored")
		reporter.Error("ignored")
	})
}
