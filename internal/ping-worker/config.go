package ping_worker

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
	Kafka    KafkaConfig
}

type ServerConfig struct {
	LogLevel            string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFile             string        `envconfig:"LOG_FILE" default:"./log/worker.log"`
	Concurrency         int           `envconfig:"WORKER_CONCURRENCY" default:"3"`
	PingTimeout         time.Duration `envconfig:"PING_TIMEOUT" default:"5s"`
	AlertRepeatInterval time.Duration `envconfig:"ALERT_REPEAT_INTERVAL" default:"1h"`
}

type PostgresConfig struct {
	Host         string `envconfig:"POSTGRES_HOST" required:"true"`
	Port         int    `envconfig:"POSTGRES_PORT" required:"true"`
	User         string `envconfig:"POSTGRES_USER" required:"true"`
	Password     string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	DBName       string `envconfig:"POSTGRES_DB" required:"true"`
	MaxOpenConns int    `envconfig:"POSTGRES_MAX_OPEN_CONNS" default:"10"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" required:"true"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type QueueConfig struct {
	Name         string        `envconfig:"QUEUE_NAME" default:"ping-jobs"`
	LockDuration time.Duration `envconfig:"LOCK_DURATION" default:"30s"`
}

// KafkaConfig is optional; without brokers ping events are not published.
type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
	Topic   string   `envconfig:"PING_EVENTS_TOPIC" default:"ping-events"`
}

func LoadConfig(path string) (AppConfig, error) {
	_ = godotenv.Load(path)

	var cfg AppConfig
	err := envconfig.Process("", &cfg)
	return cfg, err
}
