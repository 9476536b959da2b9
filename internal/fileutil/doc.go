// Package fileutil provides small filesystem helpers shared across packages.
package fileutil
