package autoscaler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"uptime_pinger/pkg/queue"

	"go.uber.org/zap"
)

// Decision is the outcome of one control-loop tick.
type Decision struct {
	Skipped        bool      `json:"skipped"`
	PendingJobs    int64     `json:"pending_jobs"`
	DesiredWorkers int       `json:"desired_workers"`
	RunningWorkers int       `json:"running_workers"`
	Started        []string  `json:"started,omitempty"`
	Stopped        []string  `json:"stopped,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

type Status struct {
	LastDecision      *Decision
	LastError         error
	LastScaleAction   time.Time
	CooldownRemaining time.Duration
}

//go:generate mockgen -source=autoscaler.go -destination=mock_autoscaler.go -package=autoscaler

type Autoscaler interface {
	// Tick runs one control-loop iteration. Starts and stops are issued sequentially.
	Tick(ctx context.Context) (Decision, error)
	Status() Status
	Start()
	Stop()
}

type Options struct {
	Interval      time.Duration
	TickTimeout   time.Duration
	Cooldown      time.Duration
	MinWorkers    int
	MaxWorkers    int
	JobsPerWorker int
	// WorkerSpec is the template for new processes; Name is set to NamePrefix plus an index.
	NamePrefix string
	WorkerSpec ProcessSpec
}

type autoscaler struct {
	queue   queue.Queue
	runtime ProcessRuntime
	logger  *zap.Logger
	opts    Options
	now     func() time.Time

	mu              sync.Mutex
	lastScaleAction time.Time
	lastDecision    *Decision
	lastErr         error

	stopChan chan struct{}
	done     chan struct{}
}

// DesiredWorkers is ceil(pendingJobs / jobsPerWorker) clamped to [minWorkers, maxWorkers].
func DesiredWorkers(pendingJobs int64, jobsPerWorker, minWorkers, maxWorkers int) int {
	if jobsPerWorker < 1 {
		jobsPerWorker = 1
	}
	desired := 0
	if pendingJobs > 0 {
		desired = int((pendingJobs + int64(jobsPerWorker) - 1) / int64(jobsPerWorker))
	}
	if desired < minWorkers {
		desired = minWorkers
	}
	if desired > maxWorkers {
		desired = maxWorkers
	}
	return desired
}

func (a *autoscaler) Tick(ctx context.Context) (Decision, error) {
	now := a.now()
	decision := Decision{Timestamp: now}

	a.mu.Lock()
	last := a.lastScaleAction
	a.mu.Unlock()
	if !last.IsZero() && now.Sub(last) < a.opts.Cooldown {
		decision.Skipped = true
		a.record(decision, nil)
		return decision, nil
	}

	counts, err := a.queue.GetJobCounts(ctx)
	if err != nil {
		err = fmt.Errorf("autoscaler.Tick: %w", err)
		a.record(decision, err)
		return decision, err
	}
	decision.PendingJobs = counts.Pending()
	decision.DesiredWorkers = DesiredWorkers(decision.PendingJobs, a.opts.JobsPerWorker, a.opts.MinWorkers, a.opts.MaxWorkers)

	processes, err := a.runtime.List(ctx, a.opts.NamePrefix)
	if err != nil {
		err = fmt.Errorf("autoscaler.Tick: %w", err)
		a.record(decision, err)
		return decision, err
	}
	var running []WorkerProcess
	for _, p := range processes {
		if p.Running() {
			running = append(running, p)
		}
	}
	decision.RunningWorkers = len(running)

	switch {
	case decision.DesiredWorkers > len(running):
		err = a.scaleUp(ctx, processes, running, decision.DesiredWorkers-len(running), &decision)
	case decision.DesiredWorkers < len(running):
		err = a.scaleDown(ctx, running, len(running)-decision.DesiredWorkers, &decision)
	}

	if len(decision.Started) > 0 || len(decision.Stopped) > 0 {
		a.mu.Lock()
		a.lastScaleAction = now
		a.mu.Unlock()
	}
	if err != nil {
		err = fmt.Errorf("autoscaler.Tick: %w", err)
	}
	a.record(decision, err)
	return decision, err
}

func (a *autoscaler) scaleUp(ctx context.Context, all []WorkerProcess, running []WorkerProcess, count int, decision *Decision) error {
	maxIndex := 0
	for _, p := range running {
		if idx, ok := a.workerIndex(p.Name); ok && idx > maxIndex {
			maxIndex = idx
		}
	}
	stale := make(map[string][]WorkerProcess)
	for _, p := range all {
		if !p.Running() {
			stale[p.Name] = append(stale[p.Name], p)
		}
	}

	for k := 1; k <= count; k++ {
		name := a.opts.NamePrefix + strconv.Itoa(maxIndex+k)
		for _, p := range stale[name] {
			if err := a.runtime.Remove(ctx, p.ID); err != nil && !errors.Is(err, ErrProcessNotFound) {
				return err
			}
			a.logger.Info("removed stopped worker with colliding name", zap.String("name", name), zap.String("id", p.ID))
		}

		spec := a.opts.WorkerSpec
		spec.Name = name
		if _, err := a.runtime.Run(ctx, spec); err != nil {
			if errors.Is(err, ErrProcessExists) {
				a.logger.Warn("worker already exists, skipping", zap.String("name", name))
				continue
			}
			return err
		}
		decision.Started = append(decision.Started, name)
		a.logger.Info("started worker", zap.String("name", name))
	}
	return nil
}

func (a *autoscaler) scaleDown(ctx context.Context, running []WorkerProcess, count int, decision *Decision) error {
	oldest := make([]WorkerProcess, len(running))
	copy(oldest, running)
	sort.SliceStable(oldest, func(i, j int) bool {
		return oldest[i].CreatedAt.Before(oldest[j].CreatedAt)
	})

	for _, p := range oldest[:count] {
		if err := a.runtime.Remove(ctx, p.ID); err != nil {
			if errors.Is(err, ErrProcessNotFound) {
				a.logger.Warn("worker already gone", zap.String("name", p.Name), zap.String("id", p.ID))
				continue
			}
			return err
		}
		decision.Stopped = append(decision.Stopped, p.Name)
		a.logger.Info("stopped worker", zap.String("name", p.Name), zap.String("id", p.ID))
	}
	return nil
}

func (a *autoscaler) workerIndex(name string) (int, bool) {
	if !strings.HasPrefix(name, a.opts.NamePrefix) {
		return 0, false
	}
	idx, err := strconv.Atoi(strings.TrimPrefix(name, a.opts.NamePrefix))
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

func (a *autoscaler) record(decision Decision, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastDecision = &decision
	a.lastErr = err
}

func (a *autoscaler) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := Status{
		LastError:       a.lastErr,
		LastScaleAction: a.lastScaleAction,
	}
	if a.lastDecision != nil {
		d := *a.lastDecision
		s.LastDecision = &d
	}
	if !a.lastScaleAction.IsZero() {
		if remaining := a.opts.Cooldown - a.now().Sub(a.lastScaleAction); remaining > 0 {
			s.CooldownRemaining = remaining
		}
	}
	return s
}

func (a *autoscaler) onTick() {
	ctx, cancel := context.WithTimeout(context.Background(), a.opts.TickTimeout)
	defer cancel()
	decision, err := a.Tick(ctx)
	if err != nil {
		a.logger.Error("autoscaler tick failed", zap.Error(err), zap.Int("started", len(decision.Started)), zap.Int("stopped", len(decision.Stopped)))
		return
	}
	if decision.Skipped {
		a.logger.Debug("in cooldown, skipping tick")
		return
	}
	a.logger.Info("autoscaler tick",
		zap.Int64("pending_jobs", decision.PendingJobs),
		zap.Int("desired", decision.DesiredWorkers),
		zap.Int("running", decision.RunningWorkers),
		zap.Strings("started", decision.Started),
		zap.Strings("stopped", decision.Stopped),
	)
}

func (a *autoscaler) Start() {
	go func() {
		defer close(a.done)
		ticker := time.NewTicker(a.opts.Interval)
		defer ticker.Stop()
		a.onTick()
		for {
			select {
			case <-ticker.C:
				a.onTick()
			case <-a.stopChan:
				return
			}
		}
	}()
}

// Stop waits for the running tick to finish.
func (a *autoscaler) Stop() {
	close(a.stopChan)
	<-a.done
}

func NewAutoscaler(q queue.Queue, runtime ProcessRuntime, logger *zap.Logger, opts Options) Autoscaler {
	if opts.Interval <= 0 {
		opts.Interval = 15 * time.Second
	}
	if opts.TickTimeout <= 0 {
		opts.TickTimeout = opts.Interval
	}
	if opts.JobsPerWorker < 1 {
		opts.JobsPerWorker = 1
	}
	return &autoscaler{
		queue:    q,
		runtime:  runtime,
		logger:   logger,
		opts:     opts,
		now:      time.Now,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}
