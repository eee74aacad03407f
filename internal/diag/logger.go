// Package diag holds the ambient observability and process-lifecycle
// surface: structured logging with rotation, a pid file, and a tiny chi
// admin server exposing pool introspection. Grounded on the teacher's
// cmd.ProvideLogger (slog constructed once and handed through fx.Provide)
// and its otelslog bridge dependency.
package diag

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/chatrelay/chat-relay/config"
)

// NewLogger builds a *slog.Logger writing to cfg.Logger.LogFile through a
// lumberjack.v2 rotating writer, falling back to stderr when LogFile is
// empty (e.g. running in the foreground, not daemonized).
func NewLogger(cfg config.Logger) *slog.Logger {
	var w io.Writer = os.Stderr
	if cfg.LogFile != "" {
		w = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    maxSizeMB(cfg.MaxFileSize),
			MaxBackups: cfg.MaxFileCount,
		}
	}
	return slog.New(slog.NewJSONHandler(w, nil))
}

// maxSizeMB converts spec.md §6's byte-denominated max_file_size into the
// megabyte unit lumberjack.Logger.MaxSize expects, rounding up so a
// nonzero byte count never truncates to 0 (which lumberjack treats as
// "no limit").
func maxSizeMB(bytes int) int {
	if bytes <= 0 {
		return 0
	}
	const mb = 1 << 20
	return (bytes + mb - 1) / mb
}
