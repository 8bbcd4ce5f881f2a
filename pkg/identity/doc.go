// Package identity manages user records: registration, password
// authentication and the soft-delete lifecycle.
package identity
