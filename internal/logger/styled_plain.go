package logger

import (
	"fmt"
	"log/slog"
)

// PlainStyledLogger implements StyledLogger without terminal styling —
// used for JSON/non-TTY output.
type PlainStyledLogger struct {
	logger *slog.Logger
}

func NewPlainStyledLogger(logger *slog.Logger) *PlainStyledLogger {
	return &PlainStyledLogger{logger: logger}
}

func (sl *PlainStyledLogger) Debug(msg string, args ...any) { sl.logger.Debug(msg, args...) }
func (sl *PlainStyledLogger) Info(msg string, args ...any)  { sl.logger.Info(msg, args...) }
func (sl *PlainStyledLogger) Warn(msg string, args ...any)  { sl.logger.Warn(msg, args...) }
func (sl *PlainStyledLogger) Error(msg string, args ...any) { sl.logger.Error(msg, args...) }

func (sl *PlainStyledLogger) InfoWithAgent(msg string, agent string, args ...any) {
	sl.logger.Info(fmt.Sprintf("%s %s", msg, agent), args...)
}

func (sl *PlainStyledLogger) WarnWithAgent(msg string, agent string, args ...any) {
	sl.logger.Warn(fmt.Sprintf("%s %s", msg, agent), args...)
}

func (sl *PlainStyledLogger) ErrorWithAgent(msg string, agent string, args ...any) {
	sl.logger.Error(fmt.Sprintf("%s %s", msg, agent), args...)
}

func (sl *PlainStyledLogger) InfoWithCount(msg string, count int, args ...any) {
	sl.logger.Info(fmt.Sprintf("%s (%d)", msg, count), args...)
}

func (sl *PlainStyledLogger) GetUnderlying() *slog.Logger { return sl.logger }

func (sl *PlainStyledLogger) With(args ...any) StyledLogger {
	return &PlainStyledLogger{logger: sl.logger.With(args...)}
}

func (sl *PlainStyledLogger) WithAttrs(attrs ...slog.Attr) StyledLogger {
	args := make([]any, 0, len(attrs)*2)
	for _, attr := range attrs {
		args = append(args, attr.Key, attr.Value)
	}
	return &PlainStyledLogger{logger: sl.logger.With(args...)}
}
