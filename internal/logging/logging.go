package logging

import (
	"context"
	"log/slog"
)

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler     { return h }
func (h discardHandler) WithGroup(string) slog.Handler          { return h }

var discard = slog.New(discardHandler{})

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return discard
}

// OrDiscard returns logger, or the discard logger when logger is nil.
func OrDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return discard
	}
	return logger
}
