package logging

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
)

var Logger = newLogger("", logrus.InfoLevel)

func newLogger(service string, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(os.Stdout)
	l.SetLevel(level)
	l.AddHook(TraceHook{})
	if service != "" {
		l.AddHook(serviceHook{service: service})
	}
	return l
}

// InitLogger replaces the package logger. An unparsable level falls back to info.
func InitLogger(service, level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Logger = newLogger(service, lvl)
}

func LogInfo(message string, fields logrus.Fields) {
	Logger.WithFields(fields).Info(message)
}

func LogWarn(message string, err error, fields logrus.Fields) {
	Logger.WithFields(withError(fields, err)).Warn(message)
}

func LogError(message string, err error, fields logrus.Fields) {
	Logger.WithFields(withError(fields, err)).Error(message)
}

func LogDebug(message string, fields logrus.Fields) {
	Logger.WithFields(fields).Debug(message)
}

func LogInfoCtx(ctx context.Context, message string, fields logrus.Fields) {
	Logger.WithContext(ctx).WithFields(fields).Info(message)
}

func LogWarnCtx(ctx context.Context, message string, err error, fields logrus.Fields) {
	Logger.WithContext(ctx).WithFields(withError(fields, err)).Warn(message)
}

func LogErrorCtx(ctx context.Context, message string, err error, fields logrus.Fields) {
	Logger.WithContext(ctx).WithFields(withError(fields, err)).Error(message)
}

func LogDebugCtx(ctx context.Context, message string, fields logrus.Fields) {
	Logger.WithContext(ctx).WithFields(fields).Debug(message)
}

// LogCtx logs at an explicit level, for call sites that pick the level at runtime.
func LogCtx(ctx context.Context, level logrus.Level, message string, fields logrus.Fields) {
	Logger.WithContext(ctx).WithFields(fields).Log(level, message)
}

func withError(fields logrus.Fields, err error) logrus.Fields {
	out := make(logrus.Fields, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	if err != nil {
		out["error"] = err.Error()
	}
	return out
}

type serviceHook struct {
	service string
}

func (h serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h serviceHook) Fire(e *logrus.Entry) error {
	if _, ok := e.Data["service"]; !ok {
		e.Data["service"] = h.service
	}
	return nil
}
