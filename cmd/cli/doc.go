// Package cli assembles the promote command-line application.
//
// It wires the cobra root command, the Viper configuration loader with the
// embedded defaults, the zap logger, and the signal-aware execution context
// that lets an interrupt trigger the promotion rollback.
package cli
