package ping_worker

import (
	"context"
	"errors"
	"uptime_pinger/pkg/queue"

	"go.uber.org/zap"
)

type Worker interface {
	Start()
	// Stop stops pulling new jobs and blocks until in-flight jobs are finished.
	Stop()
}

type worker struct {
	queue       queue.Queue
	processor   Processor
	concurrency int
	logger      *zap.Logger
	cancel      context.CancelFunc
	done        chan struct{}
}

func (w *worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	go func() {
		defer close(w.done)
		w.logger.Info("worker started", zap.Int("concurrency", w.concurrency))
		err := w.queue.Process(ctx, w.concurrency, w.processor.HandleJob)
		if err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("queue processing stopped", zap.Error(err))
		}
	}()
}

func (w *worker) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
}

func NewWorker(q queue.Queue, processor Processor, concurrency int, logger *zap.Logger) Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &worker{
		queue:       q,
		processor:   processor,
		concurrency: concurrency,
		logger:      logger,
		done:        make(chan struct{}),
	}
}
