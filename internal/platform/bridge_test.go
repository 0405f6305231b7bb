package platform

import (
	"context"
	"math"
	"testing"
	"time"

	"msgbridge/internal/idl"
	"msgbridge/internal/messages"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBridge(t *testing.T) (context.Context, *Bridge) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	t.Cleanup(cancel)

	bus, _, err := RunEmbeddedServer(ctx, EmbeddedServerConfig{
		ServerName: "bridge-test",
		InProcess:  true,
		JetStream:  true,
		StoreDir:   t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(bus.Close)

	ms := messages.NewMarshaler(messages.NewRegistry(idl.Builtins()))
	b := NewBridge(bus.JS, ms, BridgeConfig{Stream: "MSG", SubjectPrefix: "msg", MemoryStorage: true})
	require.NoError(t, b.EnsureStream(ctx))
	return ctx, b
}

type delivery struct {
	topic string
	value map[string]any
}

func TestBridgePublishSubscribe(t *testing.T) {
	ctx, b := newTestBridge(t)

	got := make(chan delivery, 4)
	cc, err := b.Subscribe(ctx, "sensor_msgs/msg/JointState", "/robot/joint_states", func(_ context.Context, topic string, v map[string]any) {
		got <- delivery{topic: topic, value: v}
	})
	require.NoError(t, err)
	defer cc.Stop()

	id, err := b.Publish(ctx, "sensor_msgs/msg/JointState", "/robot/joint_states", map[string]any{
		"header":   map[string]any{"frame_id": "base"},
		"name":     []any{"j0", "j1"},
		"position": []any{0.5, -0.25},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	select {
	case d := <-got:
		assert.Equal(t, "/robot/joint_states", d.topic)
		assert.Equal(t, []string{"j0", "j1"}, d.value["name"])
		assert.Equal(t, []float64{0.5, -0.25}, d.value["position"])
		assert.Equal(t, "base", d.value["header"].(map[string]any)["frame_id"])
	case <-time.After(5 * time.Second):
		t.Fatal("no message delivered")
	}
}

func TestBridgeDropsOtherTypes(t *testing.T) {
	ctx, b := newTestBridge(t)

	got := make(chan delivery, 4)
	cc, err := b.Subscribe(ctx, "std_msgs/msg/Float64MultiArray", "/samples", func(_ context.Context, topic string, v map[string]any) {
		got <- delivery{topic: topic, value: v}
	})
	require.NoError(t, err)
	defer cc.Stop()

	_, err = b.Publish(ctx, "std_msgs/msg/Bool", "/samples", true)
	require.NoError(t, err)
	_, err = b.Publish(ctx, "std_msgs/msg/Float64MultiArray", "/samples", []float64{1, 2, 3})
	require.NoError(t, err)

	select {
	case d := <-got:
		assert.Equal(t, []float64{1, 2, 3}, d.value["data"])
	case <-time.After(5 * time.Second):
		t.Fatal("no message delivered")
	}
	select {
	case d := <-got:
		t.Fatalf("unexpected delivery %v", d.value)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestBridgeSubscribeMessages(t *testing.T) {
	ctx, b := newTestBridge(t)

	got := make(chan *messages.Instance, 1)
	cc, err := b.SubscribeMessages(ctx, "std_msgs/msg/Float64", "/level", func(_ context.Context, _ string, m *messages.Instance) {
		got <- m
	})
	require.NoError(t, err)
	defer cc.Stop()

	_, err = b.Publish(ctx, "std_msgs/msg/Float64", "/level", math.NaN())
	require.NoError(t, err)

	select {
	case m := <-got:
		assert.Equal(t, "std_msgs/msg/Float64", m.Type().Name())
		v, _ := m.Get("data")
		assert.True(t, math.IsNaN(v.(float64)))
	case <-time.After(5 * time.Second):
		t.Fatal("no message delivered")
	}
}

func TestEmbeddedServerOptions(t *testing.T) {
	opts, err := serverOptions(EmbeddedServerConfig{JetStream: true, MaxPayload: 8 << 20, LeafNodeURL: "nats-leaf://hub:7422"})
	require.NoError(t, err)
	assert.Equal(t, "msgbridge", opts.ServerName)
	assert.Equal(t, int32(8<<20), opts.MaxPayload)
	require.Len(t, opts.LeafNode.Remotes, 1)
	assert.Equal(t, "hub:7422", opts.LeafNode.Remotes[0].URLs[0].Host)

	_, err = serverOptions(EmbeddedServerConfig{LeafNodeURL: "://bad"})
	assert.Error(t, err)
}

func TestBridgePublishValidates(t *testing.T) {
	ctx, b := newTestBridge(t)

	var rangeErr *messages.FieldRangeError
	_, err := b.Publish(ctx, "std_msgs/msg/UInt8MultiArray", "/bytes", []any{1, -1})
	assert.ErrorAs(t, err, &rangeErr)

	_, err = b.Publish(ctx, "std_msgs/msg/Nope", "/bytes", 1)
	assert.ErrorIs(t, err, messages.ErrUnknownType)

	_, err = b.Publish(ctx, "std_msgs/msg/Bool", "", true)
	assert.Error(t, err)

	_, err = b.Subscribe(ctx, "std_msgs/msg/Nope", "/bytes", func(context.Context, string, map[string]any) {})
	assert.ErrorIs(t, err, messages.ErrUnknownType)

	info, err := b.js.Stream(ctx, "MSG")
	require.NoError(t, err)
	st, err := info.Info(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.State.Msgs)
}
