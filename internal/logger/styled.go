package logger

import (
	"log/slog"

	"github.com/auroraswarm/swarm/theme"
)

// StyledLogger adds swarm-domain-aware formatting over a plain
// slog.Logger: agent addresses and response counts get picked out
// with colour in a terminal, and pass through unstyled in the JSON/
// plain variant. Callers should depend on this interface, not a
// concrete implementation.
type StyledLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	InfoWithAgent(msg string, agent string, args ...any)
	WarnWithAgent(msg string, agent string, args ...any)
	ErrorWithAgent(msg string, agent string, args ...any)
	InfoWithCount(msg string, count int, args ...any)

	With(args ...any) StyledLogger
	WithAttrs(attrs ...slog.Attr) StyledLogger
	GetUnderlying() *slog.Logger
}

// NewStyledLogger builds both the base slog.Logger and a StyledLogger
// facade over it, picking the pretty (pterm-styled) or plain
// implementation per cfg.PrettyLogs.
func NewStyledLogger(cfg *Config) (*slog.Logger, StyledLogger, func(), error) {
	base, cleanup, err := New(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	var styled StyledLogger
	if cfg.PrettyLogs {
		styled = NewPrettyStyledLogger(base, theme.GetTheme(cfg.Theme))
	} else {
		styled = NewPlainStyledLogger(base)
	}

	return base, styled, cleanup, nil
}
