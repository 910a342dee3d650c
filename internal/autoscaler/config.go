package autoscaler

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type AppConfig struct {
	Server     ServerConfig
	Redis      RedisConfig
	Queue      QueueConfig
	Autoscaler ScalingConfig
	Worker     WorkerConfig
	Docker     DockerConfig
}

type ServerConfig struct {
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile    string `envconfig:"LOG_FILE" default:"./log/autoscaler.log"`
	StatusPort string `envconfig:"STATUS_PORT" default:"8090"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" required:"true"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type QueueConfig struct {
	Name string `envconfig:"QUEUE_NAME" default:"ping-jobs" validate:"required"`
}

type ScalingConfig struct {
	Interval      time.Duration `envconfig:"AUTOSCALER_INTERVAL" default:"15s" validate:"gt=0"`
	Cooldown      time.Duration `envconfig:"SCALE_COOLDOWN" default:"60s" validate:"gte=0"`
	MinWorkers    int           `envconfig:"MIN_WORKERS" default:"1" validate:"gte=0"`
	MaxWorkers    int           `envconfig:"MAX_WORKERS" default:"10" validate:"gte=1,gtefield=MinWorkers"`
	JobsPerWorker int           `envconfig:"JOBS_PER_WORKER" default:"100" validate:"gte=1"`
}

type WorkerConfig struct {
	NamePrefix string            `envconfig:"WORKER_NAME_PREFIX" default:"ping-worker-" validate:"required"`
	Image      string            `envconfig:"WORKER_IMAGE" required:"true" validate:"required"`
	Command    []string          `envconfig:"WORKER_COMMAND"`
	Env        map[string]string `envconfig:"WORKER_ENV"`
	Network    string            `envconfig:"WORKER_NETWORK"`
}

type DockerConfig struct {
	Socket string `envconfig:"DOCKER_SOCKET" default:"/var/run/docker.sock" validate:"required"`
}

func (c AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("AppConfig.Validate: %w", err)
	}
	return nil
}

func LoadConfig(path string) (AppConfig, error) {
	_ = godotenv.Load(path)

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}
