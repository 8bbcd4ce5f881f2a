// Package org manages organizations and memberships and resolves which
// single organization a request operates against.
package org
