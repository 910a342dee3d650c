package autoscaler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
)

// dockerRuntime runs workers as containers on the local Docker Engine.
type dockerRuntime struct {
	cli *client.Client
	now func() time.Time
}

func (d *dockerRuntime) List(ctx context.Context, namePrefix string) ([]WorkerProcess, error) {
	containers, err := d.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("name", namePrefix)),
	})
	if err != nil {
		return nil, fmt.Errorf("DockerRuntime.List: %w", err)
	}

	// the name filter matches substrings, so the prefix is checked again here
	var processes []WorkerProcess
	for _, c := range containers {
		if len(c.Names) == 0 {
			continue
		}
		name := strings.TrimPrefix(c.Names[0], "/")
		if !strings.HasPrefix(name, namePrefix) {
			continue
		}
		processes = append(processes, WorkerProcess{
			ID:        c.ID,
			Name:      name,
			CreatedAt: time.Unix(c.Created, 0),
			State:     c.State,
		})
	}
	return processes, nil
}

func (d *dockerRuntime) Run(ctx context.Context, spec ProcessSpec) (WorkerProcess, error) {
	env := make([]string, 0, len(spec.Env))
	for k, v := range spec.Env {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)

	created, err := d.cli.ContainerCreate(ctx,
		&container.Config{
			Image:  spec.Image,
			Cmd:    spec.Command,
			Env:    env,
			Labels: spec.Labels,
		},
		&container.HostConfig{
			NetworkMode:   container.NetworkMode(spec.Network),
			RestartPolicy: container.RestartPolicy{Name: container.RestartPolicyUnlessStopped},
		},
		nil, nil, spec.Name)
	if errdefs.IsConflict(err) {
		return WorkerProcess{}, fmt.Errorf("DockerRuntime.Run %s: %w", spec.Name, ErrProcessExists)
	}
	if err != nil {
		return WorkerProcess{}, fmt.Errorf("DockerRuntime.Run: %w", err)
	}

	if err = d.cli.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return WorkerProcess{}, fmt.Errorf("DockerRuntime.Run: %w", err)
	}
	return WorkerProcess{
		ID:        created.ID,
		Name:      spec.Name,
		CreatedAt: d.now(),
		State:     ProcessStateRunning,
	}, nil
}

func (d *dockerRuntime) Remove(ctx context.Context, id string) error {
	err := d.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true})
	if errdefs.IsNotFound(err) {
		return fmt.Errorf("DockerRuntime.Remove %s: %w", id, ErrProcessNotFound)
	}
	if err != nil {
		return fmt.Errorf("DockerRuntime.Remove: %w", err)
	}
	return nil
}

// NewDockerRuntime connects to the Docker daemon through its unix socket.
func NewDockerRuntime(socketPath string) (ProcessRuntime, error) {
	cli, err := client.NewClientWithOpts(
		client.WithHost("unix://"+socketPath),
		client.WithAPIVersionNegotiation(),
		client.WithTimeout(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("NewDockerRuntime: %w", err)
	}
	return newDockerRuntime(cli), nil
}

func newDockerRuntime(cli *client.Client) *dockerRuntime {
	return &dockerRuntime{
		cli: cli,
		now: time.Now,
	}
}
