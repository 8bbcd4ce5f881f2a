// Package authflow ties the token issuer, session store, revocation cache and
// audit trail into the authentication lifecycle: register, login, single-use
// refresh rotation, logout and teardown on password change or deactivation.
package authflow
