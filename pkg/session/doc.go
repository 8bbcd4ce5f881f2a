// Package session stores refresh-token lineages and answers revocation
// checks. The store is authoritative; the revocation cache in cache.go is a
// fail-open optimization in front of it.
package session
