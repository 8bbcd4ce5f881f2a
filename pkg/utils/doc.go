// Package utils holds small string helpers shared across packages.
package utils
