package scheduler

import (
	"fmt"

	"go.uber.org/zap"
)

// LogLevel grades a run log entry
type LogLevel string

const (
	LevelInfo LogLevel = "info"
	LevelWarn LogLevel = "warn"
)

// LogEntry is one human-readable line of the run log
type LogEntry struct {
	Level   LogLevel `json:"level"`
	Phase   string   `json:"phase"`
	Message string   `json:"message"`
}

func (e LogEntry) String() string {
	return fmt.Sprintf("[%s] %s: %s", e.Level, e.Phase, e.Message)
}

// runLog collects entries for the caller and mirrors them to zap
type runLog struct {
	logger  *zap.Logger
	phase   string
	entries []LogEntry
}

func newRunLog(logger *zap.Logger) *runLog {
	return &runLog{logger: logger, phase: "setup"}
}

func (l *runLog) infof(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.entries = append(l.entries, LogEntry{Level: LevelInfo, Phase: l.phase, Message: msg})
	l.logger.Debug(msg, zap.String("phase", l.phase))
}

func (l *runLog) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.entries = append(l.entries, LogEntry{Level: LevelWarn, Phase: l.phase, Message: msg})
	l.logger.Warn(msg, zap.String("phase", l.phase))
}
