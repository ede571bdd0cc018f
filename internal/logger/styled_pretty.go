package logger

import (
	"fmt"
	"log/slog"

	"github.com/auroraswarm/swarm/theme"
)

// PrettyStyledLogger implements StyledLogger with pterm-styled agent
// addresses and counts — used on a TTY.
type PrettyStyledLogger struct {
	logger *slog.Logger
	theme  *theme.Theme
}

func NewPrettyStyledLogger(logger *slog.Logger, t *theme.Theme) *PrettyStyledLogger {
	return &PrettyStyledLogger{logger: logger, theme: t}
}

func (sl *PrettyStyledLogger) Debug(msg string, args ...any) { sl.logger.Debug(msg, args...) }
func (sl *PrettyStyledLogger) Info(msg string, args ...any)  { sl.logger.Info(msg, args...) }
func (sl *PrettyStyledLogger) Warn(msg string, args ...any)  { sl.logger.Warn(msg, args...) }
func (sl *PrettyStyledLogger) Error(msg string, args ...any) { sl.logger.Error(msg, args...) }

func (sl *PrettyStyledLogger) InfoWithAgent(msg string, agent string, args ...any) {
	sl.logger.Info(fmt.Sprintf("%s %s", msg, sl.theme.Agent.Sprint(agent)), args...)
}

func (sl *PrettyStyledLogger) WarnWithAgent(msg string, agent string, args ...any) {
	sl.logger.Warn(fmt.Sprintf("%s %s", msg, sl.theme.Agent.Sprint(agent)), args...)
}

func (sl *PrettyStyledLogger) ErrorWithAgent(msg string, agent string, args ...any) {
	sl.logger.Error(fmt.Sprintf("%s %s", msg, sl.theme.Agent.Sprint(agent)), args...)
}

func (sl *PrettyStyledLogger) InfoWithCount(msg string, count int, args ...any) {
	sl.logger.Info(fmt.Sprintf("%s %s", msg, sl.theme.Numbers.Sprint(fmt.Sprintf("(%d)", count))), args...)
}

func (sl *PrettyStyledLogger) GetUnderlying() *slog.Logger { return sl.logger }

func (sl *PrettyStyledLogger) With(args ...any) StyledLogger {
	return &PrettyStyledLogger{logger: sl.logger.With(args...), theme: sl.theme}
}

func (sl *PrettyStyledLogger) WithAttrs(attrs ...slog.Attr) StyledLogger {
	args := make([]any, 0, len(attrs)*2)
	for _, attr := range attrs {
		args = append(args, attr.Key, attr.Value)
	}
	return &PrettyStyledLogger{logger: sl.logger.With(args...), theme: sl.theme}
}
