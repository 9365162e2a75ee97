// Package utils hosts shared infrastructure for the promote CLI.
//
// It provides the zap logger factory, the Viper-backed configuration loader
// with embedded-default merging, the command context accessor, and a flushing
// writer used for console reporting.
package utils
