package autoscaler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// fakeRuntime is an in-memory ProcessRuntime. Errors can be injected per operation and name/id.
type fakeRuntime struct {
	mu        sync.Mutex
	processes map[string]WorkerProcess
	nextID    int
	now       func() time.Time

	runErr    map[string]error
	removeErr map[string]error
	listErr   error

	runCalls    []string
	removeCalls []string
}

func newFakeRuntime(now func() time.Time) *fakeRuntime {
	return &fakeRuntime{
		processes: make(map[string]WorkerProcess),
		now:       now,
		runErr:    make(map[string]error),
		removeErr: make(map[string]error),
	}
}

func (f *fakeRuntime) add(name, state string, createdAt time.Time) WorkerProcess {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p := WorkerProcess{ID: fmt.Sprintf("c%d", f.nextID), Name: name, State: state, CreatedAt: createdAt}
	f.processes[p.ID] = p
	return p
}

func (f *fakeRuntime) List(_ context.Context, namePrefix string) ([]WorkerProcess, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []WorkerProcess
	for _, p := range f.processes {
		if strings.HasPrefix(p.Name, namePrefix) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRuntime) Run(_ context.Context, spec ProcessSpec) (WorkerProcess, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runCalls = append(f.runCalls, spec.Name)
	if err, ok := f.runErr[spec.Name]; ok {
		return WorkerProcess{}, err
	}
	for _, p := range f.processes {
		if p.Name == spec.Name {
			return WorkerProcess{}, fmt.Errorf("fakeRuntime.Run: %w", ErrProcessExists)
		}
	}
	f.nextID++
	p := WorkerProcess{ID: fmt.Sprintf("c%d", f.nextID), Name: spec.Name, State: ProcessStateRunning, CreatedAt: f.now()}
	f.processes[p.ID] = p
	return p, nil
}

func (f *fakeRuntime) Remove(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeCalls = append(f.removeCalls, id)
	if err, ok := f.removeErr[id]; ok {
		return err
	}
	if _, ok := f.processes[id]; !ok {
		return fmt.Errorf("fakeRuntime.Remove: %w", ErrProcessNotFound)
	}
	delete(f.processes, id)
	return nil
}

func (f *fakeRuntime) runningNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for _, p := range f.processes {
		if p.Running() {
			names = append(names, p.Name)
		}
	}
	sort.Strings(names)
	return names
}
