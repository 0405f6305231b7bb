package platform

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// FlagsConfig holds all boolean or string flags for the app.
type FlagsConfig struct {
	// Headless disables the HTTP server when true.
	Headless bool
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// LogFormat is json or text.
	LogFormat string
}

// AppConfig contains the configuration for the app.
type AppConfig struct {
	Flags      *FlagsConfig
	NatsCfg    *EmbeddedServerConfig
	HTTPSrvCfg *HTTPServerConfig
	BridgeCfg  *BridgeConfig
	// DescriptorFile is an optional JSON descriptor document loaded on top of
	// the built-in interface definitions.
	DescriptorFile string
}

// LoadAppConfig loads a .env file if present, then builds the configuration
// from defaults overridden by MSGBRIDGE_* environment variables.
func LoadAppConfig() *AppConfig {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env", "err", err)
	}

	cfg := &AppConfig{
		Flags:      defaultFlagsCfg(),
		NatsCfg:    defaultNatsCfg(),
		HTTPSrvCfg: defaultHTTPServerCfg(),
		BridgeCfg:  defaultBridgeCfg(),
	}

	cfg.Flags.Headless = envBool("MSGBRIDGE_HEADLESS", cfg.Flags.Headless)
	cfg.Flags.LogLevel = envString("MSGBRIDGE_LOG_LEVEL", cfg.Flags.LogLevel)
	cfg.Flags.LogFormat = envString("MSGBRIDGE_LOG_FORMAT", cfg.Flags.LogFormat)
	cfg.NatsCfg.InProcess = envBool("MSGBRIDGE_NATS_IN_PROCESS", cfg.NatsCfg.InProcess)
	cfg.NatsCfg.StoreDir = envString("MSGBRIDGE_STORE_DIR", cfg.NatsCfg.StoreDir)
	cfg.NatsCfg.MaxPayload = int32(envInt("MSGBRIDGE_MAX_PAYLOAD", int(cfg.NatsCfg.MaxPayload)))
	cfg.NatsCfg.LeafNodeURL = envString("MSGBRIDGE_LEAF_URL", cfg.NatsCfg.LeafNodeURL)
	cfg.NatsCfg.LeafNodeCreds = envString("MSGBRIDGE_LEAF_CREDS", cfg.NatsCfg.LeafNodeCreds)
	cfg.HTTPSrvCfg.Port = envInt("MSGBRIDGE_HTTP_PORT", cfg.HTTPSrvCfg.Port)
	cfg.HTTPSrvCfg.EnableTLS = envBool("MSGBRIDGE_HTTP_TLS", cfg.HTTPSrvCfg.EnableTLS)
	cfg.BridgeCfg.Stream = envString("MSGBRIDGE_STREAM", cfg.BridgeCfg.Stream)
	cfg.BridgeCfg.SubjectPrefix = envString("MSGBRIDGE_SUBJECT_PREFIX", cfg.BridgeCfg.SubjectPrefix)
	cfg.DescriptorFile = envString("MSGBRIDGE_DESCRIPTORS", "")
	return cfg
}

// defaultFlagsCfg returns the default FlagsConfig.
func defaultFlagsCfg() *FlagsConfig {
	return &FlagsConfig{
		Headless:  false,
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// defaultHTTPServerCfg returns sane defaults for the HTTP server.
func defaultHTTPServerCfg() *HTTPServerConfig {
	return &HTTPServerConfig{
		Port:         8080,
		ReadTimeout:  -1,
		WriteTimeout: -1,
		IdleTimeout:  -1,
		EnableTLS:    false,
		CertFile:     "./local_certs/localhost+2.pem",
		KeyFile:      "./local_certs/localhost+2-key.pem",
	}
}

// defaultNatsCfg returns the default EmbeddedServerConfig.
func defaultNatsCfg() *EmbeddedServerConfig {
	return &EmbeddedServerConfig{
		ServerName:      "msgbridge",
		InProcess:       false,
		EnableLogging:   true,
		JetStream:       true,
		JetStreamDomain: "",
		StoreDir:        "./store/js",
		MaxPayload:      8 << 20,
	}
}

// defaultBridgeCfg returns the default BridgeConfig.
func defaultBridgeCfg() *BridgeConfig {
	return &BridgeConfig{
		Stream:        "MSG",
		SubjectPrefix: "msg",
	}
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	slog.Warn("ignoring malformed boolean", "key", key, "value", v)
	return def
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("ignoring malformed integer", "key", key, "value", v)
		return def
	}
	return n
}
