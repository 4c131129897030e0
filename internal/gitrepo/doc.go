// Package gitrepo answers the git questions a freshness scan asks.
//
// RootInspector recognizes repository roots from their metadata on disk
// without invoking git. RepositoryManager runs git through a
// shared.GitExecutor to report commit presence, tracked and ignored paths,
// and the last commit time of a path.
package gitrepo
