// Package ui renders command lifecycle events and workflow step output for
// human consumption on the console.
package ui
