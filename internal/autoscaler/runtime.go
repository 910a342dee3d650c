package autoscaler

import (
	"context"
	"errors"
	"time"
)

const ProcessStateRunning = "running"

var (
	ErrProcessExists   = errors.New("process already exists")
	ErrProcessNotFound = errors.New("process not found")
)

type WorkerProcess struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	State     string    `json:"state"`
}

func (p WorkerProcess) Running() bool {
	return p.State == ProcessStateRunning
}

// ProcessSpec describes a worker process to start. Name is filled per process by the autoscaler.
type ProcessSpec struct {
	Name    string
	Image   string
	Command []string
	Env     map[string]string
	Network string
	Labels  map[string]string
}

type ProcessRuntime interface {
	// List returns every process, in any state, whose name starts with namePrefix.
	List(ctx context.Context, namePrefix string) ([]WorkerProcess, error)
	// Run creates and starts a process. It returns ErrProcessExists when the name is taken.
	Run(ctx context.Context, spec ProcessSpec) (WorkerProcess, error)
	// Remove force-removes a process. It returns ErrProcessNotFound when the id is unknown.
	Remove(ctx context.Context, id string) error
}
