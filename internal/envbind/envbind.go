package envbind

import (
	"errors"
	"fmt"
	"os"
	"sort"
)

// Binder records which environment variables it has set on the current
// process so that UnbindAll can revert exactly those.
//
// Binder is not safe for concurrent use. It is owned by a single controller
// that serializes its lifecycle operations.
type Binder struct {
	keys map[string]struct{}
}

// New returns an empty Binder.
func New() *Binder {
	return &Binder{keys: make(map[string]struct{})}
}

// Bind sets the environment variable key=value and records the key.
// Binding the same key twice records it once; the latest value wins.
func (b *Binder) Bind(key, value string) error {
	if key == "" {
		return errors.New("env var key must not be empty")
	}
	if err := os.Setenv(key, value); err != nil {
		return fmt.Errorf("set env var %s: %w", key, err)
	}
	b.keys[key] = struct{}{}
	return nil
}

// UnbindAll unsets every recorded key and clears the record. Calling it when
// nothing is bound is a no-op. The record is cleared even if some unsets
// fail, so repeated calls do not retry stale keys; failures are joined into
// the returned error.
func (b *Binder) UnbindAll() error {
	var errs []error
	for key := range b.keys {
		if err := os.Unsetenv(key); err != nil {
			errs = append(errs, fmt.Errorf("unset env var %s: %w", key, err))
		}
	}
	clear(b.keys)
	return errors.Join(errs...)
}

// Bound returns the recorded keys in sorted order. The slice is a copy.
func (b *Binder) Bound() []string {
	keys := make([]string, 0, len(b.keys))
	for key := range b.keys {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of recorded keys.
func (b *Binder) Len() int {
	return len(b.keys)
}
