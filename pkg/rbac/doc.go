// Package rbac maps the historical role vocabulary onto a closed canonical
// role set and decides permission checks against static per-role permission
// tables.
package rbac
