// Where: internal/devnet/docker.go
// What: Docker daemon reachability check for the local proving environment.
// Why: The devnet profile proves against containers; fail early when the
//      daemon is not there.
package devnet

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
)

// DockerClient is the subset of the Docker SDK the devnet check needs.
type DockerClient interface {
	Ping(ctx context.Context) (types.Ping, error)
}

// NewDockerClient constructs a Docker SDK client using environment defaults.
func NewDockerClient() (DockerClient, error) {
	return client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
}

// PingDaemon verifies the daemon answers. The error names the fix because
// this check only runs for profiles that cannot work without Docker.
func PingDaemon(ctx context.Context, dockerClient DockerClient) error {
	if dockerClient == nil {
		return fmt.Errorf("docker client is nil")
	}
	if _, err := dockerClient.Ping(ctx); err != nil {
		return fmt.Errorf("docker daemon unreachable (is it running?): %w", err)
	}
	return nil
}
