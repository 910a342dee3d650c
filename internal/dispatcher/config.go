package dispatcher

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type AppConfig struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Queue    QueueConfig
}

type ServerConfig struct {
	LogLevel         string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFile          string        `envconfig:"LOG_FILE" default:"./log/dispatcher.log"`
	DispatchInterval time.Duration `envconfig:"DISPATCH_INTERVAL" default:"30s"`
	DispatchTimeout  time.Duration `envconfig:"DISPATCH_TIMEOUT" default:"20s"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" required:"true"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	DBName   string `envconfig:"POSTGRES_DB" required:"true"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" required:"true"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type QueueConfig struct {
	Name              string        `envconfig:"QUEUE_NAME" default:"ping-jobs"`
	JobAttempts       int           `envconfig:"JOB_ATTEMPTS" default:"3"`
	BackoffDelay      time.Duration `envconfig:"JOB_BACKOFF_DELAY" default:"1s"`
	BackoffMultiplier float64       `envconfig:"JOB_BACKOFF_MULTIPLIER" default:"2"`
}

func LoadConfig(path string) (AppConfig, error) {
	_ = godotenv.Load(path)

	var cfg AppConfig
	err := envconfig.Process("", &cfg)
	return cfg, err
}
