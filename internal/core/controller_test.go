package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/dsemu/internal/httpx"
)

// emulatorStub is an HTTP server standing in for a running emulator
// instance. It records every request and answers the healthcheck with a
// configurable status.
type emulatorStub struct {
	*httptest.Server

	mu           sync.Mutex
	requests     []string
	healthStatus int
	resetStatus  int
}

func newEmulatorStub(t *testing.T) *emulatorStub {
	t.Helper()
	s := &emulatorStub{healthStatus: http.StatusOK, resetStatus: http.StatusOK}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		s.mu.Unlock()

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/":
			w.WriteHeader(s.status(&s.healthStatus))
		case r.Method == http.MethodPost && r.URL.Path == "/reset":
			w.WriteHeader(s.status(&s.resetStatus))
		case r.Method == http.MethodPost && r.URL.Path == "/shutdown":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *emulatorStub) status(field *int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *field
}

func (s *emulatorStub) setHealthStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthStatus = code
}

func (s *emulatorStub) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *emulatorStub) count(req string) int {
	n := 0
	for _, r := range s.recorded() {
		if r == req {
			n++
		}
	}
	return n
}

// hostPort extracts the host:port component of the stub's URL.
func (s *emulatorStub) hostPort(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(s.URL)
	if err != nil {
		t.Fatalf("parse stub URL: %v", err)
	}
	return u.Host
}

// fakeBinary writes a script that ignores its arguments and sleeps, standing
// in for the gcloud binary. The stub server, not the child process, answers
// the healthchecks.
func fakeBinary(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-gcloud")
	if err := os.WriteFile(path, []byte("#!/bin/sh\nsleep 60\n"), 0o755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}
	return path
}

func testConfig(t *testing.T, host string) Config {
	t.Helper()
	return Config{
		Binary:       fakeBinary(t),
		Host:         host,
		ProjectID:    "test",
		DataDir:      t.TempDir(),
		ResetPath:    "/reset",
		ShutdownPath: "/shutdown",
		StartTimeout: 5 * time.Second,
		PollInterval: 5 * time.Millisecond,
		StopTimeout:  5 * time.Second,
	}
}

// clearDiscoveryEnv guarantees the reuse detector sees no advertised
// instance, regardless of the surrounding environment. t.Setenv also makes
// the test ineligible for t.Parallel, which these env-mutating tests must
// not use anyway.
func clearDiscoveryEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvHost, "")
	t.Setenv(EnvProjectID, "")
	t.Setenv(EnvEmulatorHost, "")
	_ = os.Unsetenv(EnvEmulatorHost)
}

func mustStop(t *testing.T, c *Controller) {
	t.Helper()
	if err := c.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestStart_ReusePath(t *testing.T) {
	stub := newEmulatorStub(t)
	t.Setenv(EnvHost, stub.URL)
	t.Setenv(EnvProjectID, "external-project")

	cfg := testConfig(t, "http://localhost:1") // spawn would fail; must not be taken
	cfg.Binary = "/nonexistent/no-such-binary"
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !c.Running() {
		t.Error("Running() = false after reuse Start")
	}
	if c.Owned() {
		t.Error("Owned() = true for a reused instance")
	}
	if host, _ := c.Host(); host != stub.URL {
		t.Errorf("Host() = %q, want %q", host, stub.URL)
	}
	if project, _ := c.ProjectID(); project != "external-project" {
		t.Errorf("ProjectID() = %q, want %q", project, "external-project")
	}
	if n := len(c.BoundEnvVars()); n != 0 {
		t.Errorf("BoundEnvVars() has %d entries on reuse path, want 0", n)
	}

	// Stop on an external instance clears local state without sending a
	// shutdown request.
	mustStop(t, c)
	if c.Running() {
		t.Error("Running() = true after Stop")
	}
	if n := stub.count("POST /shutdown"); n != 0 {
		t.Errorf("external instance received %d shutdown requests, want 0", n)
	}
}

func TestDetectRunning(t *testing.T) {
	tests := map[string]struct {
		setup  func(t *testing.T, stub *emulatorStub)
		wantOK bool
	}{
		"both vars present and healthy": {
			setup: func(t *testing.T, stub *emulatorStub) {
				t.Setenv(EnvHost, stub.URL)
				t.Setenv(EnvProjectID, "p")
			},
			wantOK: true,
		},
		"host var missing": {
			setup: func(t *testing.T, _ *emulatorStub) {
				t.Setenv(EnvHost, "")
				t.Setenv(EnvProjectID, "p")
			},
		},
		"project var missing": {
			setup: func(t *testing.T, stub *emulatorStub) {
				t.Setenv(EnvHost, stub.URL)
				t.Setenv(EnvProjectID, "")
			},
		},
		"advertised host unhealthy": {
			setup: func(t *testing.T, stub *emulatorStub) {
				stub.setHealthStatus(http.StatusInternalServerError)
				t.Setenv(EnvHost, stub.URL)
				t.Setenv(EnvProjectID, "p")
			},
		},
		"advertised host unreachable": {
			setup: func(t *testing.T, stub *emulatorStub) {
				t.Setenv(EnvHost, "http://127.0.0.1:1")
				t.Setenv(EnvProjectID, "p")
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			stub := newEmulatorStub(t)
			tc.setup(t, stub)

			c, err := New(testConfig(t, stub.URL))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			inst, ok := c.detectRunning(context.Background())
			if ok != tc.wantOK {
				t.Fatalf("detectRunning() ok = %v, want %v", ok, tc.wantOK)
			}
			if tc.wantOK && inst == nil {
				t.Fatal("detectRunning() returned ok with nil instance")
			}
		})
	}
}

func TestStart_SpawnPath(t *testing.T) {
	clearDiscoveryEnv(t)
	stub := newEmulatorStub(t)

	c, err := New(testConfig(t, stub.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !c.Owned() {
		t.Fatal("Owned() = false after spawn Start")
	}

	wantHostPort := stub.hostPort(t)
	if got := os.Getenv(EnvEmulatorHost); got != wantHostPort {
		t.Errorf("env %s = %q, want %q", EnvEmulatorHost, got, wantHostPort)
	}
	if got := os.Getenv(EnvProjectID); got != "test" {
		t.Errorf("env %s = %q, want %q", EnvProjectID, got, "test")
	}
	if got := c.BoundEnvVars(); len(got) != 2 {
		t.Errorf("BoundEnvVars() = %v, want exactly 2 entries", got)
	}

	mustStop(t, c)

	// Round-trip symmetry: the spawn-bound variables are gone again.
	if _, ok := os.LookupEnv(EnvEmulatorHost); ok {
		t.Errorf("env %s still set after Stop", EnvEmulatorHost)
	}
	if n := len(c.BoundEnvVars()); n != 0 {
		t.Errorf("BoundEnvVars() has %d entries after Stop, want 0", n)
	}
	if c.Running() {
		t.Error("Running() = true after Stop")
	}

	// The owned, healthy instance received exactly one shutdown request.
	if n := stub.count("POST /shutdown"); n != 1 {
		t.Errorf("owned instance received %d shutdown requests, want 1", n)
	}
}

func TestStart_Idempotent(t *testing.T) {
	clearDiscoveryEnv(t)
	stub := newEmulatorStub(t)

	c, err := New(testConfig(t, stub.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	defer mustStop(t, c)

	bound := len(c.BoundEnvVars())
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if got := len(c.BoundEnvVars()); got != bound {
		t.Errorf("BoundEnvVars() count changed from %d to %d on repeated Start", bound, got)
	}
	if !c.Owned() {
		t.Error("Owned() = false after repeated Start")
	}
}

func TestStart_StartupTimeout(t *testing.T) {
	clearDiscoveryEnv(t)
	stub := newEmulatorStub(t)
	stub.setHealthStatus(http.StatusServiceUnavailable)

	cfg := testConfig(t, stub.URL)
	cfg.StartTimeout = 100 * time.Millisecond
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = c.Start(context.Background())
	if !errors.Is(err, ErrStartupTimeout) {
		t.Fatalf("Start() error = %v, want ErrStartupTimeout", err)
	}
	if c.Running() {
		t.Error("Running() = true after failed Start")
	}
	// No bound environment variables survive a failed confirmation.
	if _, ok := os.LookupEnv(EnvEmulatorHost); ok {
		t.Errorf("env %s still set after startup timeout", EnvEmulatorHost)
	}
	if n := len(c.BoundEnvVars()); n != 0 {
		t.Errorf("BoundEnvVars() has %d entries after startup timeout, want 0", n)
	}
}

func TestStart_BinaryNotFound(t *testing.T) {
	clearDiscoveryEnv(t)

	cfg := testConfig(t, "http://localhost:8088")
	cfg.Binary = "definitely-not-on-path-dsemu-test"
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := c.Start(context.Background()); !errors.Is(err, ErrBinaryNotFound) {
		t.Fatalf("Start() error = %v, want ErrBinaryNotFound", err)
	}
	if c.Running() {
		t.Error("Running() = true after failed Start")
	}
}

func TestStop_WithoutStartIsNoOp(t *testing.T) {
	t.Parallel()

	c, err := New(testConfig(t, "http://localhost:8088"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop() without Start error = %v, want nil", err)
	}
}

func TestStartStopCycles(t *testing.T) {
	clearDiscoveryEnv(t)
	stub := newEmulatorStub(t)

	c, err := New(testConfig(t, stub.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for cycle := range 2 {
		if err := c.Start(context.Background()); err != nil {
			t.Fatalf("cycle %d: Start() error = %v", cycle, err)
		}
		if !c.Owned() {
			t.Fatalf("cycle %d: Owned() = false", cycle)
		}
		mustStop(t, c)
		if n := len(c.BoundEnvVars()); n != 0 {
			t.Fatalf("cycle %d: %d env vars leaked across cycle", cycle, n)
		}
	}
}

func TestReset(t *testing.T) {
	t.Run("not running", func(t *testing.T) {
		t.Parallel()
		c, err := New(testConfig(t, "http://localhost:8088"))
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if err := c.Reset(context.Background()); !errors.Is(err, ErrNotRunning) {
			t.Fatalf("Reset() error = %v, want ErrNotRunning", err)
		}
	})

	t.Run("running, success", func(t *testing.T) {
		stub := newEmulatorStub(t)
		t.Setenv(EnvHost, stub.URL)
		t.Setenv(EnvProjectID, "p")

		c, err := New(testConfig(t, stub.URL))
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if err := c.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		defer mustStop(t, c)

		if err := c.Reset(context.Background()); err != nil {
			t.Fatalf("Reset() error = %v", err)
		}
		if n := stub.count("POST /reset"); n != 1 {
			t.Errorf("reset endpoint received %d requests, want exactly 1", n)
		}
	})

	t.Run("running, non-200 surfaces RequestFailedError", func(t *testing.T) {
		stub := newEmulatorStub(t)
		stub.mu.Lock()
		stub.resetStatus = http.StatusInternalServerError
		stub.mu.Unlock()
		t.Setenv(EnvHost, stub.URL)
		t.Setenv(EnvProjectID, "p")

		c, err := New(testConfig(t, stub.URL))
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if err := c.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		defer mustStop(t, c)

		err = c.Reset(context.Background())
		var reqErr *httpx.RequestFailedError
		if !errors.As(err, &reqErr) {
			t.Fatalf("Reset() error = %v, want *httpx.RequestFailedError", err)
		}
		if reqErr.Endpoint != "reset" || reqErr.StatusCode != http.StatusInternalServerError {
			t.Errorf("RequestFailedError = %+v, want endpoint reset, status 500", reqErr)
		}
	})
}

func TestStop_ShutdownFailureStillUnbindsAndTerminates(t *testing.T) {
	clearDiscoveryEnv(t)

	// Healthcheck succeeds so Stop attempts the shutdown request, which
	// fails; env unbind and process termination must still happen.
	var mu sync.Mutex
	shutdownCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/shutdown" {
			mu.Lock()
			shutdownCalls++
			mu.Unlock()
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := New(testConfig(t, srv.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop() error = %v (shutdown failure is best-effort)", err)
	}

	mu.Lock()
	calls := shutdownCalls
	mu.Unlock()
	if calls != 1 {
		t.Errorf("shutdown endpoint received %d requests, want 1", calls)
	}
	if _, ok := os.LookupEnv(EnvEmulatorHost); ok {
		t.Errorf("env %s still set after Stop with failed shutdown request", EnvEmulatorHost)
	}
	if c.Running() {
		t.Error("Running() = true after Stop")
	}
}

func TestSpawn_EnvInitMode(t *testing.T) {
	clearDiscoveryEnv(t)
	stub := newEmulatorStub(t)

	// Fake gcloud that answers the env-init query with the stub's binding
	// and otherwise pretends to be a long-running emulator.
	script := fmt.Sprintf(`#!/bin/sh
if [ "$4" = "env-init" ]; then
  echo "export DATASTORE_EMULATOR_HOST=%s"
  echo "export DATASTORE_HOST=%s"
  echo "export DATASTORE_PROJECT_ID=envinit-project"
  exit 0
fi
sleep 60
`, stub.hostPort(t), stub.URL)
	binPath := filepath.Join(t.TempDir(), "fake-gcloud-envinit")
	if err := os.WriteFile(binPath, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}

	cfg := testConfig(t, "")
	cfg.Binary = binPath
	cfg.Host = ""
	cfg.ProjectID = ""
	cfg.UseEnvInit = true
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer mustStop(t, c)

	if host, _ := c.Host(); host != stub.URL {
		t.Errorf("Host() = %q, want %q", host, stub.URL)
	}
	if project, _ := c.ProjectID(); project != "envinit-project" {
		t.Errorf("ProjectID() = %q, want %q", project, "envinit-project")
	}
	if got := os.Getenv(EnvEmulatorHost); got != stub.hostPort(t) {
		t.Errorf("env %s = %q, want %q", EnvEmulatorHost, got, stub.hostPort(t))
	}
}

func TestSpawn_EnvInitMalformedOutput(t *testing.T) {
	clearDiscoveryEnv(t)

	script := `#!/bin/sh
if [ "$4" = "env-init" ]; then
  echo "garbage output"
  exit 0
fi
sleep 60
`
	binPath := filepath.Join(t.TempDir(), "fake-gcloud-bad")
	if err := os.WriteFile(binPath, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}

	cfg := testConfig(t, "")
	cfg.Binary = binPath
	cfg.Host = ""
	cfg.ProjectID = ""
	cfg.UseEnvInit = true
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := c.Start(context.Background()); err == nil {
		t.Fatal("Start() with malformed env-init output succeeded, want error")
	}
	if _, ok := os.LookupEnv(EnvEmulatorHost); ok {
		t.Errorf("env %s set after failed env-init spawn", EnvEmulatorHost)
	}
	if c.Running() {
		t.Error("Running() = true after failed Start")
	}
}

func TestResolveBinding_PortZeroAllocatesFreePort(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "http://127.0.0.1:0")
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	bnd, err := c.resolveBinding()
	if err != nil {
		t.Fatalf("resolveBinding() error = %v", err)
	}
	u, err := url.Parse(bnd.host)
	if err != nil {
		t.Fatalf("parse binding host %q: %v", bnd.host, err)
	}
	if u.Port() == "0" || u.Port() == "" {
		t.Errorf("binding host %q still has port %q, want an allocated port", bnd.host, u.Port())
	}
	if bnd.emulatorHost != u.Host {
		t.Errorf("emulatorHost = %q, want %q", bnd.emulatorHost, u.Host)
	}
	if bnd.projectID != "test" {
		t.Errorf("projectID = %q, want %q", bnd.projectID, "test")
	}
}
