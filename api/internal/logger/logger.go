package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	levelVar   slog.LevelVar
	loggerMu   sync.RWMutex
	baseLogger *slog.Logger
)

func init() {
	levelVar.Set(slog.LevelInfo)
	baseLogger = newLogger(os.Stdout)
}

func newLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: &levelVar}))
}

func SetOutput(w io.Writer) {
	loggerMu.Lock()
	baseLogger = newLogger(w)
	loggerMu.Unlock()
}

func SetLevel(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "warn", "warning":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}
}

// L returns the process-wide logger.
func L() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return baseLogger
}

func Debugf(format string, v ...any) { L().Debug(fmt.Sprintf(format, v...)) }
func Infof(format string, v ...any)  { L().Info(fmt.Sprintf(format, v...)) }
func Warnf(format string, v ...any)  { L().Warn(fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...any) { L().Error(fmt.Sprintf(format, v...)) }
