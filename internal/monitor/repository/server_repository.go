package repository

import (
	"context"
	"errors"
	"fmt"
	"time"
	apperrors "uptime_pinger/internal/monitor/errors"
	"uptime_pinger/internal/monitor/model"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=server_repository.go -destination=../mock/repository/server_repository.go -package=mockrepository

// PingOutcome is the server state committed by a Record* call.
type PingOutcome struct {
	Server       model.Server
	AlertCreated bool
	AlertCleared bool
}

type ServerRepository interface {
	GetDueServers(ctx context.Context, now time.Time) ([]model.Server, error)
	GetServerById(ctx context.Context, serverId string) (model.Server, error)
	// RecordPingSuccess resets the failure counter, appends the history row and clears any alert
	// for the server, all in one transaction.
	RecordPingSuccess(ctx context.Context, serverId string, history model.PingHistory) (PingOutcome, error)
	// RecordPingFailure increments the failure counter and appends the history row. The alert row is
	// created only by the failure that crosses the threshold and only if none exists yet.
	RecordPingFailure(ctx context.Context, serverId string, history model.PingHistory, alertRepeatInterval time.Duration) (PingOutcome, error)
}

type serverRepository struct {
	db *gorm.DB
}

func (s *serverRepository) GetDueServers(ctx context.Context, now time.Time) ([]model.Server, error) {
	var servers []model.Server
	result := s.db.WithContext(ctx).Where("next_ping_at <= ?", now).Find(&servers)
	if result.Error != nil {
		return servers, fmt.Errorf("ServerRepository.GetDueServers: %w", result.Error)
	}
	return servers, nil
}

func (s *serverRepository) GetServerById(ctx context.Context, serverId string) (model.Server, error) {
	var server model.Server
	result := s.db.WithContext(ctx).Where("id = ?", serverId).First(&server)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return server, fmt.Errorf("ServerRepository.GetServerById: %w", apperrors.ErrServerNotFound)
		}
		return server, fmt.Errorf("ServerRepository.GetServerById: %w", result.Error)
	}
	return server, nil
}

func (s *serverRepository) RecordPingSuccess(ctx context.Context, serverId string, history model.PingHistory) (PingOutcome, error) {
	var outcome PingOutcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		server, err := lockServer(tx, serverId)
		if err != nil {
			return err
		}
		server.ApplySuccess(history.Timestamp)
		if err = saveServerState(tx, server); err != nil {
			return err
		}
		if err = insertHistory(tx, serverId, true, history); err != nil {
			return err
		}
		result := tx.Where("server_id = ?", serverId).Delete(&model.Alert{})
		if result.Error != nil {
			return result.Error
		}
		outcome = PingOutcome{Server: server, AlertCleared: result.RowsAffected > 0}
		return nil
	})
	if err != nil {
		return PingOutcome{}, fmt.Errorf("ServerRepository.RecordPingSuccess: %w", classifyError(err))
	}
	return outcome, nil
}

func (s *serverRepository) RecordPingFailure(ctx context.Context, serverId string, history model.PingHistory, alertRepeatInterval time.Duration) (PingOutcome, error) {
	var outcome PingOutcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		server, err := lockServer(tx, serverId)
		if err != nil {
			return err
		}
		crossed := server.ApplyFailure(history.Timestamp)
		if err = saveServerState(tx, server); err != nil {
			return err
		}
		if err = insertHistory(tx, serverId, false, history); err != nil {
			return err
		}
		outcome = PingOutcome{Server: server}
		if !crossed {
			return nil
		}

		var alertCnt int64
		if err = tx.Model(&model.Alert{}).Where("server_id = ?", serverId).Count(&alertCnt).Error; err != nil {
			return err
		}
		if alertCnt > 0 {
			return nil
		}
		alert := model.Alert{
			ID:          uuid.NewString(),
			ServerID:    serverId,
			OwnerID:     server.OwnerID,
			LastAlertAt: history.Timestamp,
			NextAlertAt: history.Timestamp.Add(alertRepeatInterval),
		}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&alert)
		if result.Error != nil {
			return result.Error
		}
		outcome.AlertCreated = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return PingOutcome{}, fmt.Errorf("ServerRepository.RecordPingFailure: %w", classifyError(err))
	}
	return outcome, nil
}

func lockServer(tx *gorm.DB, serverId string) (model.Server, error) {
	var server model.Server
	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", serverId).First(&server)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return server, apperrors.ErrServerNotFound
		}
		return server, result.Error
	}
	return server, nil
}

func saveServerState(tx *gorm.DB, server model.Server) error {
	return tx.Model(&model.Server{}).Where("id = ?", server.ID).Updates(map[string]interface{}{
		"is_active":            server.IsActive,
		"consecutive_failures": server.ConsecutiveFailures,
		"last_pinged_at":       server.LastPingedAt,
		"next_ping_at":         server.NextPingAt,
	}).Error
}

func insertHistory(tx *gorm.DB, serverId string, status bool, history model.PingHistory) error {
	if history.ID == "" {
		history.ID = uuid.NewString()
	}
	history.ServerID = serverId
	history.Status = status
	return tx.Create(&history).Error
}

// classifyError marks constraint and data errors as non-retryable.
func classifyError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) || pgerrcode.IsDataException(pgErr.Code)) {
		return fmt.Errorf("%w: %w", apperrors.ErrDataIntegrity, err)
	}
	return err
}

func NewServerRepository(db *gorm.DB) ServerRepository {
	return &serverRepository{db: db}
}
