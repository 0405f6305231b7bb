package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"msgbridge/internal/idl"
	"msgbridge/internal/messages"
	"msgbridge/internal/platform"
)

func main() {
	platform.InitMetrics()

	appCfg := platform.LoadAppConfig()
	platform.InitLogger(platform.LogConfig{Level: appCfg.Flags.LogLevel, Format: appCfg.Flags.LogFormat})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	catalog := idl.Builtins()
	if appCfg.DescriptorFile != "" {
		n, err := catalog.LoadDescriptorFile(appCfg.DescriptorFile)
		if err != nil {
			slog.Error("Failed to load descriptors", "file", appCfg.DescriptorFile, "err", err)
			os.Exit(1)
		}
		slog.Info("loaded descriptors", "file", appCfg.DescriptorFile, "types", n)
	}
	reg := messages.NewRegistry(catalog)
	ms := messages.NewMarshaler(reg)

	// --- Run embedded NATS server ---
	bus, natErrCh, err := platform.RunEmbeddedServer(ctx, *appCfg.NatsCfg)
	if err != nil {
		slog.Error("Failed to start embedded server", "err", err)
		os.Exit(1)
	}
	defer bus.Close()

	bridge := platform.NewBridge(bus.JS, ms, *appCfg.BridgeCfg)

	var httpErrCh <-chan error
	if !appCfg.Flags.Headless {
		httpErrCh = platform.RunHTTPServer(ctx, platform.NewRouter(reg, bridge), *appCfg.HTTPSrvCfg)
	} else {
		// Create a dummy channel that never sends
		httpErrCh = make(chan error)
	}

	go func() {
		select {
		case err := <-natErrCh:
			slog.Error("Embedded server error", "err", err)
			cancel()
		case err := <-httpErrCh:
			slog.Error("HTTP server error", "err", err)
			cancel()
		}
	}()

	if err := platform.Run(ctx, bridge); err != nil {
		slog.Error("Bridge error", "err", err)
		os.Exit(1)
	}
}
