// Package promote implements the safe branch promotion workflow.
//
// A promotion fast-forwards the source and target branches from a remote,
// merges the source into the target with an explicit merge commit, pushes the
// target, and always attempts to restore the branch that was checked out when
// the run began. The package also ships the cobra commands and the YAML
// promotion-plan loader built on top of the service.
package promote
