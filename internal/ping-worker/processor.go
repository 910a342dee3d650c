package ping_worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	apperrors "uptime_pinger/internal/monitor/errors"
	"uptime_pinger/internal/monitor/model"
	"uptime_pinger/internal/monitor/repository"
	"uptime_pinger/pkg/queue"

	"go.uber.org/zap"
)

type Processor interface {
	// HandleJob runs one ping job. A nil result acknowledges the job; only transient store errors
	// are returned so the queue retries them with backoff.
	HandleJob(ctx context.Context, job queue.Job) error
}

type processor struct {
	serverRepo          repository.ServerRepository
	pingClient          PingClient
	publisher           EventPublisher
	logger              *zap.Logger
	alertRepeatInterval time.Duration
}

func (p *processor) HandleJob(ctx context.Context, job queue.Job) error {
	var pingJob model.PingJob
	if err := json.Unmarshal(job.Data, &pingJob); err != nil || pingJob.ServerID == "" {
		p.logger.Error("discarding malformed ping job", zap.String("job_id", job.ID), zap.Error(err))
		return nil
	}

	server, err := p.serverRepo.GetServerById(ctx, pingJob.ServerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrServerNotFound) {
			p.logger.Warn("server no longer exists, discarding job", zap.String("server_id", pingJob.ServerID))
			return nil
		}
		return fmt.Errorf("processor.HandleJob: %w", err)
	}

	res := p.pingClient.Ping(ctx, server.URL)
	history := model.PingHistory{
		ResponseTime: res.ResponseTime.Milliseconds(),
		StatusCode:   res.StatusCode,
		Timestamp:    res.Timestamp,
	}

	var outcome repository.PingOutcome
	if res.Success {
		if res.Memory != nil {
			totalRss := res.Memory.Rss + res.Memory.External
			history.HeapUsage = &res.Memory.HeapUsed
			history.TotalHeap = &res.Memory.HeapTotal
			history.RssMemory = &res.Memory.Rss
			history.TotalRss = &totalRss
		}
		outcome, err = p.serverRepo.RecordPingSuccess(ctx, server.ID, history)
	} else {
		p.logger.Debug("ping failed", zap.String("server_id", server.ID), zap.Error(res.Error))
		outcome, err = p.serverRepo.RecordPingFailure(ctx, server.ID, history, p.alertRepeatInterval)
	}
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrServerNotFound):
			p.logger.Warn("server deleted during ping, discarding job", zap.String("server_id", server.ID))
			return nil
		case errors.Is(err, apperrors.ErrDataIntegrity):
			p.logger.Error("discarding ping job with invalid data", zap.String("server_id", server.ID), zap.Error(err))
			return nil
		}
		return fmt.Errorf("processor.HandleJob: %w", err)
	}

	if outcome.AlertCreated {
		p.logger.Warn("server is down, alert created",
			zap.String("server_id", server.ID),
			zap.String("owner_id", server.OwnerID),
			zap.Int("consecutive_failures", outcome.Server.ConsecutiveFailures),
		)
	}
	if outcome.AlertCleared {
		p.logger.Info("server recovered, alert cleared", zap.String("server_id", server.ID))
	}

	err = p.publisher.Publish(ctx, PingEvent{
		ServerID:            server.ID,
		Success:             res.Success,
		StatusCode:          res.StatusCode,
		ResponseTimeMs:      history.ResponseTime,
		ConsecutiveFailures: outcome.Server.ConsecutiveFailures,
		AlertCreated:        outcome.AlertCreated,
		AlertCleared:        outcome.AlertCleared,
		Timestamp:           res.Timestamp,
	})
	if err != nil {
		p.logger.Error("failed to publish ping event", zap.String("server_id", server.ID), zap.Error(err))
	}
	return nil
}

func NewProcessor(serverRepo repository.ServerRepository, pingClient PingClient, publisher EventPublisher, logger *zap.Logger, alertRepeatInterval time.Duration) Processor {
	return &processor{
		serverRepo:          serverRepo,
		pingClient:          pingClient,
		publisher:           publisher,
		logger:              logger,
		alertRepeatInterval: alertRepeatInterval,
	}
}
