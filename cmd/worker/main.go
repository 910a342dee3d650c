package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"uptime_pinger/internal/monitor/repository"
	pingworker "uptime_pinger/internal/ping-worker"
	"uptime_pinger/pkg/infra"
	"uptime_pinger/pkg/logger"
	"uptime_pinger/pkg/queue"

	"go.uber.org/zap"
)

func main() {
	appConfig, err := pingworker.LoadConfig("./.env")
	if err != nil {
		log.Fatal(fmt.Sprintf("load config error: %v", err))
	}

	// set up logger
	hostname, _ := os.Hostname()
	zapLogger, fileSyncer, err := logger.New(logger.Config{
		Level:       appConfig.Server.LogLevel,
		FilePath:    appConfig.Server.LogFile,
		ServiceName: "worker",
	})
	if err != nil {
		log.Fatal(fmt.Sprintf("create logger error: %v", err))
	}
	zapLogger = zapLogger.With(zap.String("host.name", hostname))
	defer fileSyncer.Close()
	defer zapLogger.Sync()
	stopReload := logger.ReloadOnSIGHUP(zapLogger, fileSyncer)
	defer stopReload()

	//set up database
	db, err := infra.NewPostgresConnection(infra.PostgresConfig{
		Host:         appConfig.Postgres.Host,
		Port:         appConfig.Postgres.Port,
		User:         appConfig.Postgres.User,
		Password:     appConfig.Postgres.Password,
		DBName:       appConfig.Postgres.DBName,
		MaxOpenConns: appConfig.Postgres.MaxOpenConns,
		MaxIdleConns: appConfig.Server.Concurrency,
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
	q := queue.NewRedisQueue(redisClient, appConfig.Queue.Name, queue.Options{
		LockDuration: appConfig.Queue.LockDuration,
		Logger:       zapLogger,
	})
	defer q.Close()

	// set up ping event stream
	var publisher pingworker.EventPublisher
	if len(appConfig.Kafka.Brokers) > 0 {
		publisher = pingworker.NewKafkaEventPublisher(infra.NewKafkaWriter(appConfig.Kafka.Brokers, appConfig.Kafka.Topic))
		zapLogger.Info("publishing ping events", zap.String("topic", appConfig.Kafka.Topic))
	} else {
		publisher = pingworker.NewNoopEventPublisher()
	}
	defer publisher.Close()

	serverRepo := repository.NewServerRepository(db)
	processor := pingworker.NewProcessor(serverRepo, pingworker.NewPingClient(appConfig.Server.PingTimeout), publisher, zapLogger, appConfig.Server.AlertRepeatInterval)
	w := pingworker.NewWorker(q, processor, appConfig.Server.Concurrency, zapLogger)
	w.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("shutting down worker, waiting for in-flight jobs...")
	w.Stop()
	zapLogger.Info("worker exiting")
}
