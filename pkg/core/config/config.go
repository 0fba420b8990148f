// Package config loads the lox toolchain configuration from TOML or YAML
// files with defaults and LOX_* environment overrides.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	mdwerror "github.com/msto63/lox/foundation/core/error"
	mdwlog "github.com/msto63/lox/foundation/core/log"
)

// EnvConfigPath names the environment variable holding the config file path
const EnvConfigPath = "LOX_CONFIG"

// Config holds the complete application configuration
type Config struct {
	General  GeneralConfig  `toml:"general" yaml:"general"`
	Frontend FrontendConfig `toml:"frontend" yaml:"frontend"`
	Server   ServerConfig   `toml:"server" yaml:"server"`
	Store    StoreConfig    `toml:"store" yaml:"store"`
	REPL     REPLConfig     `toml:"repl" yaml:"repl"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name        string `toml:"name" yaml:"name"`
	Environment string `toml:"environment" yaml:"environment"`
	DataDir     string `toml:"data_dir" yaml:"data_dir"`
	LogLevel    string `toml:"log_level" yaml:"log_level"`
	LogFormat   string `toml:"log_format" yaml:"log_format"`
}

// FrontendConfig limits what the scanner and parser accept
type FrontendConfig struct {
	MaxSourceBytes int `toml:"max_source_bytes" yaml:"max_source_bytes"`
	MaxDepth       int `toml:"max_depth" yaml:"max_depth"`
}

// ServerConfig holds the gRPC and HTTP listener settings
type ServerConfig struct {
	Host             string   `toml:"host" yaml:"host"`
	Port             int      `toml:"port" yaml:"port"`
	HTTPPort         int      `toml:"http_port" yaml:"http_port"`
	EnableReflection bool     `toml:"enable_reflection" yaml:"enable_reflection"`
	MaxMessageSize   int      `toml:"max_message_size" yaml:"max_message_size"`
	ReadTimeout      Duration `toml:"read_timeout" yaml:"read_timeout"`
	ShutdownTimeout  Duration `toml:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// StoreConfig holds the run history database settings
type StoreConfig struct {
	Enabled       bool   `toml:"enabled" yaml:"enabled"`
	Path          string `toml:"path" yaml:"path"`
	RetentionDays int    `toml:"retention_days" yaml:"retention_days"`
}

// REPLConfig holds interactive shell settings
type REPLConfig struct {
	Prompt      string `toml:"prompt" yaml:"prompt"`
	HistorySize int    `toml:"history_size" yaml:"history_size"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML parses a duration scalar
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// MarshalYAML formats the duration as a string
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML (.toml) or YAML (.yaml, .yml) file,
// then applies defaults and environment overrides
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		code := mdwerror.CodeConfigError
		if os.IsNotExist(err) {
			code = mdwerror.CodeNotFound
		}
		return nil, mdwerror.Wrap(err, "failed to read config").WithCode(code).WithDetail("path", path)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return nil, mdwerror.Newf("unsupported config format %q", ext).
			WithCode(mdwerror.CodeConfigError).
			WithDetail("path", path)
	}
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to parse config").
			WithCode(mdwerror.CodeConfigError).
			WithDetail("path", path)
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadDefault loads the file named by LOX_CONFIG or the first file found in
// the default locations. Without any file it returns Default() with
// environment overrides applied.
func LoadDefault() (*Config, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return Load(path)
	}

	home, _ := os.UserHomeDir()
	candidates := []string{
		"./configs/lox.toml",
		"./lox.toml",
		"./lox.yaml",
		filepath.Join(home, ".config", "lox", "config.toml"),
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
	}

	cfg := Default()
	cfg.expandEnvVars()
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "lox"
	}
	if c.General.Environment == "" {
		c.General.Environment = "development"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "./data"
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "text"
	}

	// Frontend
	if c.Frontend.MaxSourceBytes == 0 {
		c.Frontend.MaxSourceBytes = 1 << 20
	}
	if c.Frontend.MaxDepth == 0 {
		c.Frontend.MaxDepth = 256
	}

	// Server
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 9310
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8310
	}
	if c.Server.MaxMessageSize == 0 {
		c.Server.MaxMessageSize = 4 << 20
	}
	if c.Server.ReadTimeout.Duration == 0 {
		c.Server.ReadTimeout.Duration = 30 * time.Second
	}
	if c.Server.ShutdownTimeout.Duration == 0 {
		c.Server.ShutdownTimeout.Duration = 10 * time.Second
	}

	// Store
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(c.General.DataDir, "lox-history.db")
	}
	if c.Store.RetentionDays == 0 {
		c.Store.RetentionDays = 30
	}

	// REPL
	if c.REPL.Prompt == "" {
		c.REPL.Prompt = "> "
	}
	if c.REPL.HistorySize == 0 {
		c.REPL.HistorySize = 100
	}
}

// expandEnvVars expands environment variables in path values
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.Store.Path = os.ExpandEnv(c.Store.Path)
}

// applyEnv applies LOX_* overrides read through getenv
func (c *Config) applyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"LOX_LOG_LEVEL":  &c.General.LogLevel,
		"LOX_LOG_FORMAT": &c.General.LogFormat,
		"LOX_HOST":       &c.Server.Host,
		"LOX_STORE_PATH": &c.Store.Path,
	}
	for key, dst := range strs {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"LOX_PORT":             &c.Server.Port,
		"LOX_HTTP_PORT":        &c.Server.HTTPPort,
		"LOX_MAX_SOURCE_BYTES": &c.Frontend.MaxSourceBytes,
		"LOX_MAX_DEPTH":        &c.Frontend.MaxDepth,
	}
	for key, dst := range ints {
		v := getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return mdwerror.Wrap(err, "invalid integer in "+key).WithCode(mdwerror.CodeConfigError)
		}
		*dst = n
	}

	if v := getenv("LOX_STORE_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return mdwerror.Wrap(err, "invalid boolean in LOX_STORE_ENABLED").WithCode(mdwerror.CodeConfigError)
		}
		c.Store.Enabled = b
	}

	return nil
}

// Validate checks value ranges and cross-field constraints
func (c *Config) Validate() error {
	var problems []string

	if _, err := mdwlog.ParseLevel(c.General.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := mdwlog.ParseFormat(c.General.LogFormat); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Frontend.MaxSourceBytes < 0 {
		problems = append(problems, "frontend.max_source_bytes must not be negative")
	}
	if c.Frontend.MaxDepth < 0 {
		problems = append(problems, "frontend.max_depth must not be negative")
	}
	for name, port := range map[string]int{"server.port": c.Server.Port, "server.http_port": c.Server.HTTPPort} {
		if port < 1 || port > 65535 {
			problems = append(problems, fmt.Sprintf("%s out of range: %d", name, port))
		}
	}
	if c.Server.Port == c.Server.HTTPPort {
		problems = append(problems, "server.port and server.http_port must differ")
	}
	if c.Store.Enabled && c.Store.Path == "" {
		problems = append(problems, "store.path is required when the store is enabled")
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return mdwerror.New("invalid configuration: " + strings.Join(problems, "; ")).
		WithCode(mdwerror.CodeConfigError).
		WithDetail("problems", len(problems))
}

// GRPCAddress returns host:port for the gRPC listener
func (c *Config) GRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// HTTPAddress returns host:port for the HTTP listener
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}

// Encode writes the configuration as "toml" or "yaml"
func (c *Config) Encode(w io.Writer, format string) error {
	switch strings.ToLower(format) {
	case "toml", "":
		return toml.NewEncoder(w).Encode(c)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return err
		}
		return enc.Close()
	default:
		return mdwerror.Newf("unsupported config format %q", format).WithCode(mdwerror.CodeInvalidInput)
	}
}
