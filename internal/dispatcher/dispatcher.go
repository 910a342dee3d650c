package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"uptime_pinger/internal/monitor/model"
	"uptime_pinger/internal/monitor/repository"
	"uptime_pinger/pkg/logger"
	"uptime_pinger/pkg/queue"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CycleResult summarizes one dispatch cycle.
type CycleResult struct {
	Due        int
	Enqueued   int
	Duplicates int
	Failed     int
	Skipped    bool
}

type Dispatcher interface {
	// RunDispatchCycle enqueues one ping job per due server. It never writes server state.
	RunDispatchCycle(ctx context.Context) (CycleResult, error)
	Start() error
	Stop()
}

type Options struct {
	Interval time.Duration
	Timeout  time.Duration
	JobOpts  queue.JobOptions
}

type dispatcher struct {
	logger     *zap.Logger
	serverRepo repository.ServerRepository
	queue      queue.Queue
	opts       Options
	cron       *cron.Cron
	running    atomic.Bool
	wg         sync.WaitGroup
	now        func() time.Time
}

func (d *dispatcher) RunDispatchCycle(ctx context.Context) (CycleResult, error) {
	if !d.running.CompareAndSwap(false, true) {
		return CycleResult{Skipped: true}, nil
	}
	defer d.running.Store(false)

	servers, err := d.serverRepo.GetDueServers(ctx, d.now())
	if err != nil {
		return CycleResult{}, fmt.Errorf("dispatcher.RunDispatchCycle: %w", err)
	}

	result := CycleResult{Due: len(servers)}
	for _, server := range servers {
		b, e := json.Marshal(model.PingJob{
			ServerID: server.ID,
			URL:      server.URL,
			OwnerID:  server.OwnerID,
		})
		if e != nil {
			result.Failed++
			d.logger.Error("failed to marshal ping job", zap.String("server_id", server.ID), zap.Error(e))
			continue
		}
		added, e := d.queue.Add(ctx, server.ID, b, d.opts.JobOpts)
		if e != nil {
			result.Failed++
			d.logger.Error("failed to enqueue ping job", zap.String("server_id", server.ID), zap.Error(fmt.Errorf("dispatcher.RunDispatchCycle: %w", e)))
			continue
		}
		if added {
			result.Enqueued++
		} else {
			result.Duplicates++
			d.logger.Debug("ping job already queued", zap.String("server_id", server.ID))
		}
	}
	return result, nil
}

func (d *dispatcher) onTick() {
	ctx, cancel := context.WithTimeout(context.Background(), d.opts.Timeout)
	defer cancel()
	result, err := d.RunDispatchCycle(ctx)
	if err != nil {
		d.logger.Error("dispatch cycle failed", zap.Error(err))
		return
	}
	if result.Skipped {
		d.logger.Warn("previous dispatch cycle still running, skipping")
		return
	}
	d.logger.Info("dispatch cycle finished",
		zap.Int("due", result.Due),
		zap.Int("enqueued", result.Enqueued),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("failed", result.Failed),
	)
}

// Start schedules a cycle every Interval and runs the first one right away.
func (d *dispatcher) Start() error {
	if _, err := d.cron.AddFunc(fmt.Sprintf("@every %s", d.opts.Interval), d.onTick); err != nil {
		return fmt.Errorf("dispatcher.Start: %w", err)
	}
	d.cron.Start()
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.onTick()
	}()
	return nil
}

// Stop stops scheduling and waits for a running cycle.
func (d *dispatcher) Stop() {
	<-d.cron.Stop().Done()
	d.wg.Wait()
}

func NewDispatcher(l *zap.Logger, serverRepo repository.ServerRepository, q queue.Queue, opts Options) Dispatcher {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	cronLogger := logger.NewCronLogger(l)
	return &dispatcher{
		logger:     l,
		serverRepo: serverRepo,
		queue:      q,
		opts:       opts,
		cron:       cron.New(cron.WithLogger(cronLogger), cron.WithChain(cron.Recover(cronLogger))),
		now:        time.Now,
	}
}
