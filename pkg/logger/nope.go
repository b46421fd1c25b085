package logger

import "log/slog"

// NewNope returns a logger that drops every record. Library packages use it
// until WithLogger is given.
func NewNope() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
