package logger

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level       string
	FilePath    string
	ServiceName string
}

// New builds the JSON logger shared by all binaries. Output goes to stderr and to the
// reopenable file, which is returned so the caller can close it on exit.
func New(cfg Config) (*zap.Logger, *ReopenableWriteSyncer, error) {
	fileSyncer, err := NewReopenableWriteSyncer(cfg.FilePath)
	if err != nil {
		return nil, nil, err
	}
	l := NewLogger(cfg.Level, fileSyncer)
	if cfg.ServiceName != "" {
		l = l.With(zap.String("service.name", cfg.ServiceName))
	}
	return l, fileSyncer, nil
}

func NewLogger(logLevel string, ws zapcore.WriteSyncer) *zap.Logger {
	encodeConfig := zap.NewProductionEncoderConfig()
	encodeConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encodeConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encodeConfig.EncodeCaller = zapcore.ShortCallerEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encodeConfig), zapcore.NewMultiWriteSyncer(ws, os.Stderr), parseLevel(logLevel))
	return zap.New(core, zap.AddCaller())
}

func parseLevel(logLevel string) zapcore.Level {
	switch logLevel {
	case "debug":
		return zap.DebugLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	case "fatal":
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}

// ReloadOnSIGHUP reopens the log file every time the process receives SIGHUP (logrotate).
// The returned func stops listening.
func ReloadOnSIGHUP(l *zap.Logger, ws *ReopenableWriteSyncer) (stop func()) {
	c := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(c, syscall.SIGHUP)
	go func() {
		for {
			select {
			case <-c:
				l.Info("receive logrotate SIGHUP, reloading log file")
				if e := ws.Reload(); e != nil {
					l.Error("failed to reload log file", zap.Error(e))
				} else {
					l.Info("successfully reloaded log file")
				}
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(c)
		close(done)
	}
}
