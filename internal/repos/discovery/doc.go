// Package discovery finds git repositories beneath a base directory.
package discovery
