package envbind

import (
	"os"
	"reflect"
	"testing"
)

// Tests in this file mutate the process environment and therefore must not
// run in parallel with each other.

func TestBindSetsAndRecords(t *testing.T) {
	const key = "DSEMU_TEST_BIND"
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	b := New()
	if err := b.Bind(key, "value-1"); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if got := os.Getenv(key); got != "value-1" {
		t.Errorf("env %s = %q, want %q", key, got, "value-1")
	}
	if got := b.Bound(); !reflect.DeepEqual(got, []string{key}) {
		t.Errorf("Bound() = %v, want [%s]", got, key)
	}
}

func TestBindSameKeyTwiceRecordsOnce(t *testing.T) {
	const key = "DSEMU_TEST_REBIND"
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	b := New()
	if err := b.Bind(key, "first"); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if err := b.Bind(key, "second"); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if b.Len() != 1 {
		t.Errorf("Len() = %d, want 1", b.Len())
	}
	if got := os.Getenv(key); got != "second" {
		t.Errorf("env %s = %q, want %q (latest value wins)", key, got, "second")
	}
}

func TestBindEmptyKeyFails(t *testing.T) {
	b := New()
	if err := b.Bind("", "value"); err == nil {
		t.Error("Bind(\"\") succeeded, want error")
	}
	if b.Len() != 0 {
		t.Errorf("Len() = %d after failed Bind, want 0", b.Len())
	}
}

func TestUnbindAllRemovesExactlyRecordedKeys(t *testing.T) {
	const (
		boundA   = "DSEMU_TEST_BOUND_A"
		boundB   = "DSEMU_TEST_BOUND_B"
		external = "DSEMU_TEST_EXTERNAL"
	)
	t.Setenv(external, "untouched")
	t.Cleanup(func() {
		_ = os.Unsetenv(boundA)
		_ = os.Unsetenv(boundB)
	})

	b := New()
	if err := b.Bind(boundA, "a"); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if err := b.Bind(boundB, "b"); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	if err := b.UnbindAll(); err != nil {
		t.Fatalf("UnbindAll() error = %v", err)
	}

	if _, ok := os.LookupEnv(boundA); ok {
		t.Errorf("env %s still set after UnbindAll", boundA)
	}
	if _, ok := os.LookupEnv(boundB); ok {
		t.Errorf("env %s still set after UnbindAll", boundB)
	}
	if got := os.Getenv(external); got != "untouched" {
		t.Errorf("env %s = %q, want %q (UnbindAll must not touch unrecorded keys)", external, got, "untouched")
	}
	if b.Len() != 0 {
		t.Errorf("Len() = %d after UnbindAll, want 0", b.Len())
	}
}

func TestUnbindAllOnEmptyBinderIsNoOp(t *testing.T) {
	b := New()
	if err := b.UnbindAll(); err != nil {
		t.Errorf("UnbindAll() on empty binder error = %v, want nil", err)
	}
	// Idempotent: a second call is also a no-op.
	if err := b.UnbindAll(); err != nil {
		t.Errorf("second UnbindAll() error = %v, want nil", err)
	}
}
