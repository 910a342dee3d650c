package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"uptime_pinger/internal/autoscaler"
	"uptime_pinger/internal/autoscaler/api"
	"uptime_pinger/pkg/infra"
	"uptime_pinger/pkg/logger"
	"uptime_pinger/pkg/queue"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	appConfig, err := autoscaler.LoadConfig("./.env")
	if err != nil {
		log.Fatal(fmt.Sprintf("load config error: %v", err))
	}

	// set up logger
	zapLogger, fileSyncer, err := logger.New(logger.Config{
		Level:       appConfig.Server.LogLevel,
		FilePath:    appConfig.Server.LogFile,
		ServiceName: "autoscaler",
	})
	if err != nil {
		log.Fatal(fmt.Sprintf("create logger error: %v", err))
	}
	defer fileSyncer.Close()
	defer zapLogger.Sync()
	stopReload := logger.ReloadOnSIGHUP(zapLogger, fileSyncer)
	defer stopReload()

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

	runtime, err := autoscaler.NewDockerRuntime(appConfig.Docker.Socket)
	if err != nil {
		zapLogger.Fatal("failed to create docker client", zap.Error(err))
	}

	a := autoscaler.NewAutoscaler(q, runtime, zapLogger, autoscaler.Options{
		Interval:      appConfig.Autoscaler.Interval,
		Cooldown:      appConfig.Autoscaler.Cooldown,
		MinWorkers:    appConfig.Autoscaler.MinWorkers,
		MaxWorkers:    appConfig.Autoscaler.MaxWorkers,
		JobsPerWorker: appConfig.Autoscaler.JobsPerWorker,
		NamePrefix:    appConfig.Worker.NamePrefix,
		WorkerSpec: autoscaler.ProcessSpec{
			Image:   appConfig.Worker.Image,
			Command: appConfig.Worker.Command,
			Env:     appConfig.Worker.Env,
			Network: appConfig.Worker.Network,
			Labels:  map[string]string{"managed-by": "uptime-autoscaler"},
		},
	})
	a.Start()

	// Set up status server
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	api.AddStatusRoutes(r, api.NewStatusHandler(a))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", appConfig.Server.StatusPort),
		Handler: r,
	}
	go func() {
		zapLogger.Info(fmt.Sprintf("starting status server on %s", srv.Addr))
		if e := srv.ListenAndServe(); e != nil && !errors.Is(e, http.ErrServerClosed) {
			zapLogger.Fatal("failed to start status server", zap.Error(e))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("shutting down autoscaler...")
	a.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = srv.Shutdown(ctx); err != nil {
		zapLogger.Error("status server forced to shutdown:", zap.Error(err))
	}
	zapLogger.Info("autoscaler exiting")
}
