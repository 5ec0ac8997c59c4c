package docker

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/docker/docker/client"

	"github.com/shinji-kodama/mljob/internal/model"
)

// pingTimeout bounds the daemon ping during the preflight check. Five
// seconds covers Docker Desktop's slower VM-backed responses.
const pingTimeout = 5 * time.Second

// Client wraps the Docker Engine SDK client. Wrapping rather than
// embedding keeps the exposed surface down to what the image lifecycle
// needs: ping, image queries, close.
type Client struct {
	inner *client.Client
}

// NewClient creates a Docker client with automatic socket detection.
//
// DOCKER_HOST, when set, is used as-is and the SDK parses the connection
// string. Otherwise the platform's known socket paths are probed:
// /var/run/docker.sock on Linux, plus ~/.docker/run/docker.sock on
// macOS where newer Docker Desktop releases stopped creating the
// /var/run symlink.
func NewClient() (*Client, error) {
	host := os.Getenv("DOCKER_HOST")
	if host == "" {
		detected, err := detectSocket()
		if err != nil {
			return nil, model.WrapCLIError(model.ExitDockerNotRunning, "Docker socket not found", err)
		}
		host = detected
	}

	// API version negotiation keeps the client compatible with whatever
	// daemon version is installed, instead of pinning one.
	inner, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to create Docker client for host %q", host),
			err,
		)
	}
	return &Client{inner: inner}, nil
}

// detectSocket probes the platform's candidate socket paths and returns
// the host URI for the first that exists. Existence is checked with
// os.Stat rather than a dial: it is cheap, and Ping verifies actual
// daemon connectivity afterwards.
func detectSocket() (string, error) {
	candidates := []string{"/var/run/docker.sock"}
	if runtime.GOOS == "darwin" {
		if home, err := os.UserHomeDir(); err == nil {
			candidates = append(candidates, home+"/.docker/run/docker.sock")
		}
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return "unix://" + path, nil
		}
	}
	return "", fmt.Errorf("no Docker socket at any of %v — is Docker running?", candidates)
}

// Ping verifies the daemon is reachable before any image operation is
// attempted, so a stopped Docker Desktop fails fast with a clear message
// instead of mid-build.
func (c *Client) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.inner.Ping(pingCtx); err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			"Docker daemon is not responding — is Docker running?",
			err,
		)
	}
	return nil
}

// Close releases the client's resources. Safe to call more than once.
func (c *Client) Close() error {
	if c.inner != nil {
		return c.inner.Close()
	}
	return nil
}

// Inner exposes the underlying SDK client for operations not wrapped
// here. Prefer the Client methods where one exists.
func (c *Client) Inner() *client.Client {
	return c.inner
}
