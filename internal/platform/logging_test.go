package platform

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitLoggerText(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var out bytes.Buffer
	InitLogger(LogConfig{Level: "warn", Format: "text", Output: &out})
	slog.Info("hidden")
	slog.Warn("dropping message", envelopeAttr(Envelope{ID: "abc", Type: "std_msgs/msg/Bool", Topic: "/flag"}))

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "msg.id=abc msg.type=std_msgs/msg/Bool msg.topic=/flag")
}

func TestNATSServerLoggerLevels(t *testing.T) {
	var out bytes.Buffer
	l := NewNATSServerLogger(slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelInfo})))

	l.Noticef("listening on %d", 4222)
	l.Warnf("slow consumer %s", "c1")
	l.Fatalf("store %s", "broken")

	assert.NotContains(t, out.String(), "listening")
	assert.Contains(t, out.String(), `level=WARN msg="slow consumer c1" component=nats`)
	assert.Contains(t, out.String(), `msg="fatal: store broken"`)
}
