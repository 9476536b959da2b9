package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// requestTimeout is the per-request timeout for emulator endpoint calls.
// Requests go to a local process, so anything slower than this indicates a
// wedged instance rather than a slow network.
const requestTimeout = 5 * time.Second

// RequestFailedError reports a non-200 response from one of the emulator's
// control endpoints. Endpoint is the endpoint name ("healthcheck", "reset",
// "shutdown"), not the raw path.
type RequestFailedError struct {
	Endpoint   string
	StatusCode int
}

// Error implements the error interface.
func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("emulator %s request failed with status code %d", e.Endpoint, e.StatusCode)
}

// NewClient returns an http.Client configured for emulator control requests.
// Keep-alives are disabled so rapid healthcheck polling does not accumulate
// idle connections to a process that is about to go away.
func NewClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DisableKeepAlives: true,
		},
		Timeout: requestTimeout,
	}
}

// Do issues a single request of the given method to host+path and checks for
// a 200 response. The response body is drained and closed. A non-200 status
// returns *RequestFailedError; transport-level failures return the underlying
// error wrapped with the endpoint name.
func Do(ctx context.Context, client *http.Client, method, host, path string) error {
	req, err := http.NewRequestWithContext(ctx, method, host+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create %s request: %w", EndpointName(path), err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("emulator %s request: %w", EndpointName(path), err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body) // best-effort drain
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return &RequestFailedError{Endpoint: EndpointName(path), StatusCode: resp.StatusCode}
	}
	return nil
}

// EndpointName converts an endpoint path to the name used in error messages.
// The empty path is the root healthcheck.
func EndpointName(path string) string {
	if path == "" {
		return "healthcheck"
	}
	return strings.ReplaceAll(path, "/", "")
}
