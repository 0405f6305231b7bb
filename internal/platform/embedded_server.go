package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EmbeddedServerConfig holds options for running the embedded server.
type EmbeddedServerConfig struct {
	ServerName      string
	InProcess       bool
	EnableLogging   bool
	JetStream       bool
	JetStreamDomain string
	LeafNodeURL     string // empty disables leaf node
	LeafNodeCreds   string // optional, only used if LeafNodeURL is set
	StoreDir        string // optional, for JetStream file storage
	// MaxPayload caps a single envelope in bytes; large multi-array messages
	// need more than the NATS default of 1MB. Zero keeps the default.
	MaxPayload int32
	// JetStream resource limits in bytes; zero lets the server decide.
	JetStreamMaxMemory int64
	JetStreamMaxStore  int64
}

// Bus is a client connection to the message bus with its JetStream context.
// Server is set only when the bus runs in this process.
type Bus struct {
	Conn   *nats.Conn
	JS     jetstream.JetStream
	Server *server.Server
}

// Close closes the connection and stops an embedded server.
func (b *Bus) Close() {
	b.Conn.Close()
	if b.Server != nil {
		b.Server.Shutdown()
	}
}

// RunEmbeddedServer starts an embedded NATS server with the given config and
// connects to it. The returned channel reports when ctx ends.
func RunEmbeddedServer(ctx context.Context, cfg EmbeddedServerConfig) (*Bus, <-chan error, error) {
	opts, err := serverOptions(cfg)
	if err != nil {
		return nil, nil, err
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, nil, err
	}
	if cfg.EnableLogging {
		ns.SetLogger(NewNATSServerLogger(slog.Default()), false, false)
	}
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return nil, nil, errors.New("NATS Server timeout")
	}

	clientOpts := []nats.Option{nats.Name(opts.ServerName + "-client")}
	if cfg.InProcess {
		clientOpts = append(clientOpts, nats.InProcessServer(ns))
	}
	bus, err := connect(ns.ClientURL(), clientOpts...)
	if err != nil {
		ns.Shutdown()
		return nil, nil, err
	}
	bus.Server = ns
	slog.Info("embedded bus ready", "server", opts.ServerName, "jetstream", cfg.JetStream, "in_process", cfg.InProcess)

	errCh := make(chan error, 1)
	go func() {
		<-ctx.Done()
		// Shutdown is left to Bus.Close; shutting the server down twice
		// panics inside nats-server.
		errCh <- ctx.Err()
	}()

	return bus, errCh, nil
}

// ConnectBus connects to a bus served by another process, such as a running
// msgbridge.
func ConnectBus(serverURL, name string) (*Bus, error) {
	return connect(serverURL,
		nats.Name(name),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("bus disconnected", "err", err)
			}
		}),
	)
}

func connect(serverURL string, opts ...nats.Option) (*Bus, error) {
	nc, err := nats.Connect(serverURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", serverURL, err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Bus{Conn: nc, JS: js}, nil
}

func serverOptions(cfg EmbeddedServerConfig) (*server.Options, error) {
	name := cfg.ServerName
	if name == "" {
		name = "msgbridge"
	}
	opts := &server.Options{
		ServerName:         name,
		DontListen:         cfg.InProcess,
		JetStream:          cfg.JetStream,
		JetStreamDomain:    cfg.JetStreamDomain,
		JetStreamMaxMemory: cfg.JetStreamMaxMemory,
		JetStreamMaxStore:  cfg.JetStreamMaxStore,
		StoreDir:           cfg.StoreDir,
		MaxPayload:         cfg.MaxPayload,
	}
	if cfg.LeafNodeURL != "" {
		leafURL, err := url.Parse(cfg.LeafNodeURL)
		if err != nil {
			return nil, fmt.Errorf("leaf node url: %w", err)
		}
		opts.LeafNode = server.LeafNodeOpts{Remotes: []*server.RemoteLeafOpts{{
			URLs:        []*url.URL{leafURL},
			Credentials: cfg.LeafNodeCreds,
		}}}
	}
	return opts, nil
}
