package platform

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nats-io/nats-server/v2/server"
)

// LogConfig selects the level, format and destination of the default logger.
type LogConfig struct {
	Level  string    // debug, info, warn or error
	Format string    // json or text
	Output io.Writer // defaults to stdout
}

// InitLogger installs the default slog logger. The bridge logs JSON to stdout;
// msgtopic logs text to stderr so that echoed messages own stdout.
func InitLogger(cfg LogConfig) {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		opts.AddSource = true
		handler = slog.NewJSONHandler(out, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// envelopeAttr groups the identifying fields of a bus message.
func envelopeAttr(env Envelope) slog.Attr {
	return slog.Group("msg",
		slog.String("id", env.ID),
		slog.String("type", env.Type),
		slog.String("topic", env.Topic),
	)
}

// natsLogger routes nats-server logs into slog under component=nats.
// Notices are startup chatter and go to Debug.
type natsLogger struct {
	logger *slog.Logger
}

// NewNATSServerLogger adapts logger to the nats-server Logger interface.
func NewNATSServerLogger(logger *slog.Logger) server.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &natsLogger{logger: logger.With("component", "nats")}
}

func (l *natsLogger) logf(level slog.Level, format string, v ...any) {
	if !l.logger.Enabled(context.Background(), level) {
		return
	}
	l.logger.Log(context.Background(), level, fmt.Sprintf(format, v...))
}

func (l *natsLogger) Noticef(format string, v ...any) { l.logf(slog.LevelDebug, format, v...) }
func (l *natsLogger) Warnf(format string, v ...any)   { l.logf(slog.LevelWarn, format, v...) }
func (l *natsLogger) Errorf(format string, v ...any)  { l.logf(slog.LevelError, format, v...) }
func (l *natsLogger) Fatalf(format string, v ...any)  { l.logf(slog.LevelError, "fatal: "+format, v...) }
func (l *natsLogger) Debugf(format string, v ...any)  { l.logf(slog.LevelDebug, format, v...) }
func (l *natsLogger) Tracef(format string, v ...any)  { l.logf(slog.LevelDebug-4, format, v...) }
