package logger

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type cronLogger struct {
	l *zap.SugaredLogger
}

// NewCronLogger adapts a zap logger to cron.Logger so scheduler events land in the service log.
func NewCronLogger(l *zap.Logger) cron.Logger {
	return &cronLogger{l: l.Sugar()}
}

func (c *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
