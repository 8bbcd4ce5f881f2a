// Package audit appends an immutable trail of privileged mutations. Writes
// are fire-and-forget: they run detached from the request and their failures
// are logged, never surfaced.
package audit
