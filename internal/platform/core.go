package platform

import (
	"context"
	"log/slog"
)

// Run prepares the bus for the bridge and blocks until ctx is done.
func Run(ctx context.Context, b *Bridge) error {
	if err := b.EnsureStream(ctx); err != nil {
		return err
	}
	slog.Info("stream ready", "stream", b.cfg.Stream, "subjects", b.cfg.SubjectPrefix+".>")

	<-ctx.Done()
	slog.Info("Run: shutdown requested")
	return nil
}
