package engine

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

type containerInspector interface {
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
}

// DockerResolver finds the network namespace of running containers
type DockerResolver struct {
	api    containerInspector
	closer func() error
}

// NewDockerResolver connects to the daemon configured in the environment
// (DOCKER_HOST and friends).
func NewDockerResolver() (*DockerResolver, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	return &DockerResolver{api: cli, closer: cli.Close}, nil
}

// NamespacePath returns /proc/<pid>/ns/net of the container's init process
func (r *DockerResolver) NamespacePath(ctx context.Context, containerID string) (string, error) {
	info, err := r.api.ContainerInspect(ctx, containerID)
	if err != nil {
		return "", fmt.Errorf("inspect container %s: %w", containerID, err)
	}
	if info.ContainerJSONBase == nil || info.State == nil || !info.State.Running || info.State.Pid == 0 {
		return "", fmt.Errorf("container %s is not running", containerID)
	}
	return fmt.Sprintf("/proc/%d/ns/net", info.State.Pid), nil
}

func (r *DockerResolver) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}
