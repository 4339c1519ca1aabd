package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

type Logger struct {
	logger *logrus.Logger
}

// NewFileLogger writes JSON lines to filename, creating its directory if needed.
// The dashboard owns the terminal, so this is the logger used in TUI mode.
func NewFileLogger(filename, level string) (*Logger, error) {
	l := logrus.New()
	if err := setLevel(l, level); err != nil {
		return nil, err
	}

	dirname := filepath.Dir(filename)
	if _, err := os.Stat(dirname); err != nil {
		if err := os.MkdirAll(dirname, 0755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(file)
	return &Logger{logger: l}, nil
}

// New returns a text logger writing to w.
func New(w io.Writer, level string) (*Logger, error) {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetOutput(w)
	if err := setLevel(l, level); err != nil {
		return nil, err
	}
	return &Logger{logger: l}, nil
}

// Discard returns a logger that drops everything. Used by tests and one-shot commands.
func Discard() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{logger: l}
}

func setLevel(l *logrus.Logger, level string) error {
	if level == "" {
		return nil
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	l.SetLevel(lvl)
	return nil
}

// [k1, v1, k2, v2, ...]

func convertToFields(values []any) (fields logrus.Fields) {
	fields = make(logrus.Fields)
	for i := 0; i <= len(values)-2; i += 2 {
		key, ok := values[i].(string)
		if !ok {
			continue
		}
		fields[key] = values[i+1]
	}
	return
}

func (l *Logger) LogError(err error, msg string, extras ...any) {
	if len(extras) > 0 && len(extras)%2 == 0 {
		extras = append(extras, "message", msg)
		l.logger.WithFields(convertToFields(extras)).Errorln(err)
		return
	}
	l.logger.WithFields(logrus.Fields{
		"message": msg,
	}).Errorln(err)
}

func (l *Logger) LogWarning(err error, msg string, extras ...any) {
	if len(extras) > 0 && len(extras)%2 == 0 {
		extras = append(extras, "message", msg)
		l.logger.WithFields(convertToFields(extras)).Warnln(err)
		return
	}
	l.logger.WithFields(logrus.Fields{
		"message": msg,
	}).Warnln(err)
}

func (l *Logger) LogInfo(msg string, extras ...any) {
	if len(extras) > 0 && len(extras)%2 == 0 {
		l.logger.WithFields(convertToFields(extras)).Infoln(msg)
		return
	}
	l.logger.Infoln(msg)
}

func (l *Logger) LogDebug(msg string, extras ...any) {
	if len(extras) > 0 && len(extras)%2 == 0 {
		l.logger.WithFields(convertToFields(extras)).Debugln(msg)
		return
	}
	l.logger.Debugln(msg)
}
