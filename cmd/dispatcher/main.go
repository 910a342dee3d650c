package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"uptime_pinger/internal/dispatcher"
	"uptime_pinger/internal/monitor/repository"
	"uptime_pinger/pkg/infra"
	"uptime_pinger/pkg/logger"
	"uptime_pinger/pkg/queue"

	"go.uber.org/zap"
)

func main() {
	appConfig, err := dispatcher.LoadConfig("./.env")
	if err != nil {
		log.Fatal(fmt.Sprintf("load config error: %v", err))
	}

	// set up logger
	zapLogger, fileSyncer, err := logger.New(logger.Config{
		Level:       appConfig.Server.LogLevel,
		FilePath:    appConfig.Server.LogFile,
		ServiceName: "dispatcher",
	})
	if err != nil {
		log.Fatal(fmt.Sprintf("create logger error: %v", err))
	}
	defer fileSyncer.Close()
	defer zapLogger.Sync()
	stopReload := logger.ReloadOnSIGHUP(zapLogger, fileSyncer)
	defer stopReload()

	//set up database
	db, err := infra.NewPostgresConnection(infra.PostgresConfig{
		Host:     appConfig.Postgres.Host,
		Port:     appConfig.Postgres.Port,
		User:     appConfig.Postgres.User,
		Password: appConfig.Postgres.Password,
		DBName:   appConfig.Postgres.DBName,
	})
	if err != nil {
		zapLogger.Fatal("failed to connect to postgres", zap.Error(err))
	} else {
		zapLogger.Info("connected to postgres successfully")
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLogger.Fatal("failed to get sql.DB from gorm:", zap.Error(err))
	}
	defer sqlDB.Close()

	// set up redis
	redisClient, err := infra.NewRedisConnection(infra.RedisConfig{
		Host:     appConfig.Redis.Host,
		Port:     appConfig.Redis.Port,
		Password: appConfig.Redis.Password,
		DB:       appConfig.Redis.DB,
	})
	if err != nil {
		zapLogger.Fatal("failed to connect to redis", zap.Error(err))
	} else {
		zapLogger.Info("connected to redis successfully")
	}
	q := queue.NewRedisQueue(redisClient, appConfig.Queue.Name, queue.Options{Logger: zapLogger})
	defer q.Close()

	serverRepo := repository.NewServerRepository(db)
	d := dispatcher.NewDispatcher(zapLogger, serverRepo, q, dispatcher.Options{
		Interval: appConfig.Server.DispatchInterval,
		Timeout:  appConfig.Server.DispatchTimeout,
		JobOpts: queue.JobOptions{
			Attempts: appConfig.Queue.JobAttempts,
			Backoff: queue.Backoff{
				Type:       queue.BackoffExponential,
				Delay:      appConfig.Queue.BackoffDelay,
				Multiplier: appConfig.Queue.BackoffMultiplier,
			},
		},
	})
	if err = d.Start(); err != nil {
		zapLogger.Fatal("failed to start dispatcher", zap.Error(err))
	}
	zapLogger.Info("dispatcher started", zap.Duration("interval", appConfig.Server.DispatchInterval))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("shutting down dispatcher...")
	d.Stop()
	zapLogger.Info("dispatcher exiting")
}
