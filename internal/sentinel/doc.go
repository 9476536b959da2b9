// Package sentinel provides a const-declarable error type for sentinel errors.
package sentinel
