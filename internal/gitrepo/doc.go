// Package gitrepo contains helpers for interrogating Git repositories.
//
// It exposes RepositoryManager for inspecting work trees, branches, and
// remote-tracking references, consumed by the promotion service.
package gitrepo
