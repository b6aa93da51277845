package monitoring

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger wraps slog with domain-specific helpers.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a JSON logger at the given level ("debug", "info",
// "warn", "error").
func NewLogger(level string) *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{Logger: slog.New(handler)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RequestLogger logs one HTTP request.
func (l *Logger) RequestLogger(method, path, ip string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// ScoreLogger logs one completed guild scoring.
func (l *Logger) ScoreLogger(guildSize int, tier string, overall float64, veto bool, duration time.Duration) {
	l.Info("Guild Scored",
		"guild_size", guildSize,
		"tier", tier,
		"overall_score", overall,
		"veto", veto,
		"duration_ms", duration.Milliseconds(),
	)
}

// SystemLogger logs lifecycle events.
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

var startTime = time.Now()
