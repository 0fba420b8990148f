package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	mdwerror "github.com/msto63/lox/foundation/core/error"
)

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"seconds", "30s", 30 * time.Second, false},
		{"minutes", "5m", 5 * time.Minute, false},
		{"complex", "1h30m", 90 * time.Minute, false},
		{"milliseconds", "100ms", 100 * time.Millisecond, false},
		{"invalid", "invalid", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))

			if (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalText() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && d.Duration != tt.expected {
				t.Errorf("UnmarshalText() = %v, want %v", d.Duration, tt.expected)
			}
		})
	}
}

func TestDuration_MarshalText(t *testing.T) {
	d := Duration{5 * time.Minute}
	result, err := d.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText() error = %v", err)
	}
	if string(result) != "5m0s" {
		t.Errorf("MarshalText() = %v, want 5m0s", string(result))
	}
}

func TestConfig_applyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.General.Name != "lox" {
		t.Errorf("General.Name = %v, want lox", cfg.General.Name)
	}
	if cfg.General.LogLevel != "info" {
		t.Errorf("General.LogLevel = %v, want info", cfg.General.LogLevel)
	}
	if cfg.Frontend.MaxSourceBytes != 1<<20 {
		t.Errorf("Frontend.MaxSourceBytes = %v, want 1MiB", cfg.Frontend.MaxSourceBytes)
	}
	if cfg.Frontend.MaxDepth != 256 {
		t.Errorf("Frontend.MaxDepth = %v, want 256", cfg.Frontend.MaxDepth)
	}
	if cfg.Server.Port != 9310 || cfg.Server.HTTPPort != 8310 {
		t.Errorf("Server ports = %d/%d, want 9310/8310", cfg.Server.Port, cfg.Server.HTTPPort)
	}
	if cfg.Server.ShutdownTimeout.Duration != 10*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 10s", cfg.Server.ShutdownTimeout.Duration)
	}
	if cfg.Store.Path != filepath.Join("./data", "lox-history.db") {
		t.Errorf("Store.Path = %v", cfg.Store.Path)
	}
	if cfg.REPL.Prompt != "> " {
		t.Errorf("REPL.Prompt = %q, want '> '", cfg.REPL.Prompt)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got %v", err)
	}
}

func TestLoad_TOML(t *testing.T) {
	content := `
[general]
log_level = "debug"
data_dir = "/var/lib/lox"

[frontend]
max_depth = 64

[server]
port = 7000
http_port = 7001
enable_reflection = true
shutdown_timeout = "3s"

[store]
enabled = true
`
	path := filepath.Join(t.TempDir(), "lox.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.General.LogLevel != "debug" {
		t.Errorf("General.LogLevel = %v, want debug", cfg.General.LogLevel)
	}
	if cfg.Frontend.MaxDepth != 64 {
		t.Errorf("Frontend.MaxDepth = %v, want 64", cfg.Frontend.MaxDepth)
	}
	if cfg.Server.Port != 7000 || !cfg.Server.EnableReflection {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Server.ShutdownTimeout.Duration != 3*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 3s", cfg.Server.ShutdownTimeout.Duration)
	}
	if cfg.Store.Path != filepath.Join("/var/lib/lox", "lox-history.db") {
		t.Errorf("Store.Path = %v, expected under data_dir", cfg.Store.Path)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %v, want default", cfg.Server.Host)
	}
}

func TestLoad_YAML(t *testing.T) {
	content := `
general:
  log_format: json
server:
  http_port: 9090
  read_timeout: 2m
repl:
  prompt: "lox> "
`
	path := filepath.Join(t.TempDir(), "lox.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.General.LogFormat != "json" {
		t.Errorf("General.LogFormat = %v, want json", cfg.General.LogFormat)
	}
	if cfg.Server.HTTPPort != 9090 {
		t.Errorf("Server.HTTPPort = %v, want 9090", cfg.Server.HTTPPort)
	}
	if cfg.Server.ReadTimeout.Duration != 2*time.Minute {
		t.Errorf("Server.ReadTimeout = %v, want 2m", cfg.Server.ReadTimeout.Duration)
	}
	if cfg.REPL.Prompt != "lox> " {
		t.Errorf("REPL.Prompt = %q", cfg.REPL.Prompt)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.toml"))
	if !mdwerror.HasCode(err, mdwerror.CodeNotFound) {
		t.Errorf("Expected NOT_FOUND for missing file, got %v", err)
	}

	ini := filepath.Join(dir, "lox.ini")
	os.WriteFile(ini, []byte("x=1"), 0o644)
	if _, err := Load(ini); !mdwerror.HasCode(err, mdwerror.CodeConfigError) {
		t.Errorf("Expected CONFIG_ERROR for unknown extension, got %v", err)
	}

	broken := filepath.Join(dir, "broken.toml")
	os.WriteFile(broken, []byte("[server\nport = "), 0o644)
	if _, err := Load(broken); !mdwerror.HasCode(err, mdwerror.CodeConfigError) {
		t.Errorf("Expected CONFIG_ERROR for invalid TOML, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"LOX_LOG_LEVEL":     "warn",
		"LOX_PORT":          "6000",
		"LOX_STORE_ENABLED": "true",
		"LOX_STORE_PATH":    "/tmp/h.db",
	}
	cfg := Default()
	if err := cfg.applyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("applyEnv() error = %v", err)
	}

	if cfg.General.LogLevel != "warn" || cfg.Server.Port != 6000 {
		t.Errorf("Overrides not applied: %+v %+v", cfg.General, cfg.Server)
	}
	if !cfg.Store.Enabled || cfg.Store.Path != "/tmp/h.db" {
		t.Errorf("Store overrides not applied: %+v", cfg.Store)
	}

	bad := map[string]string{"LOX_HTTP_PORT": "eighty"}
	err := Default().applyEnv(func(k string) string { return bad[k] })
	if !mdwerror.HasCode(err, mdwerror.CodeConfigError) {
		t.Errorf("Expected CONFIG_ERROR for bad integer, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		problem string
	}{
		{"bad level", func(c *Config) { c.General.LogLevel = "loud" }, "invalid level: loud"},
		{"bad format", func(c *Config) { c.General.LogFormat = "xml" }, "invalid format: xml"},
		{"port range", func(c *Config) { c.Server.Port = 70000 }, "server.port out of range"},
		{"same ports", func(c *Config) { c.Server.HTTPPort = c.Server.Port }, "must differ"},
		{"store path", func(c *Config) { c.Store.Enabled = true; c.Store.Path = "" }, "store.path is required"},
		{"negative depth", func(c *Config) { c.Frontend.MaxDepth = -1 }, "max_depth must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.problem) {
				t.Errorf("Expected %q in %q", tt.problem, err.Error())
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	for _, format := range []string{"toml", "yaml"} {
		t.Run(format, func(t *testing.T) {
			cfg := Default()
			cfg.Server.Port = 7777

			var buf bytes.Buffer
			if err := cfg.Encode(&buf, format); err != nil {
				t.Fatalf("Encode() error = %v", err)
			}

			path := filepath.Join(t.TempDir(), "out."+format)
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v\n%s", err, buf.String())
			}
			if loaded.Server.Port != 7777 || loaded.Server.ShutdownTimeout != cfg.Server.ShutdownTimeout {
				t.Errorf("Round trip lost values: %+v", loaded.Server)
			}
		})
	}

	if err := Default().Encode(&bytes.Buffer{}, "ini"); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestAddresses(t *testing.T) {
	cfg := Default()
	if cfg.GRPCAddress() != "127.0.0.1:9310" {
		t.Errorf("GRPCAddress() = %v", cfg.GRPCAddress())
	}
	if cfg.HTTPAddress() != "127.0.0.1:8310" {
		t.Errorf("HTTPAddress() = %v", cfg.HTTPAddress())
	}
}
