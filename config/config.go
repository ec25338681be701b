package config

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/livereload-universal/relay/log"
	"github.com/livereload-universal/relay/pathres"
	"gopkg.in/yaml.v3"
)

const DefaultReloadPort = 35729

const (
	VerbositySilent  = "silent"
	VerbosityStartup = "startup"
	VerbosityDebug   = "debug"
)

var allowedLogLevels = map[string]log.Level{
	"debug": log.Debug,
	"info":  log.Info,
	"warn":  log.Warn,
	"error": log.Error,
}

var allowedVerbosities = map[string]struct{}{
	VerbositySilent:  {},
	VerbosityStartup: {},
	VerbosityDebug:   {},
}

var allowedTlsVersions = map[float64]uint16{
	1.0: tls.VersionTLS10,
	1.1: tls.VersionTLS11,
	1.2: tls.VersionTLS12,
	1.3: tls.VersionTLS13,
}

type Config struct {
	Log     LogConfig
	Reload  ReloadConfig
	Push    PushConfig
	Trigger TriggerConfig
	Diag    DiagConfig
	Tls     TlsConfig
}

type ReloadConfig struct {
	Watch       pathres.Spec `yaml:"watch"`
	Port        int          `yaml:"port"`
	ClientUrl   string       `yaml:"client_url"`
	Verbosity   string       `yaml:"verbosity"`
	OutputDirs  []string     `yaml:"output_dirs"`
	WatchConfig bool         `yaml:"watch_config"`
}

type PushConfig struct {
	Headers           map[string]string `yaml:"headers"`
	HeartBeatInterval int               `yaml:"heart_beat_interval"`
	CORS              CORSConfig        `yaml:"cors"`
	Sse               SseConfig
	Log               LogConfig
}

type SseConfig struct {
	Enabled bool `yaml:"enabled"`
}

type CORSConfig struct {
	Enabled        bool     `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type TriggerConfig struct {
	Enabled           bool              `yaml:"enabled"`
	Port              int               `yaml:"port"`
	Auth              BasicAuthConfig   `yaml:"auth"`
	AuthHeaders       map[string]string `yaml:"auth_headers"`
	SigningKey        string            `yaml:"signing_key"`
	SignatureValidFor int               `yaml:"signature_valid_for"`
	Log               LogConfig
}

type BasicAuthConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type DiagConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
	Status  StatusConfig
	Metrics MetricsConfig
}

type StatusConfig struct {
	Enabled bool `yaml:"enabled"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type CertConfig struct {
	Key  string `yaml:"key"`
	Cert string `yaml:"cert"`
}

type TlsConfig struct {
	Enabled      bool    `yaml:"enabled"`
	MinVersion   float64 `yaml:"min_version"`
	Certificates []CertConfig
}

func LoadConfigFromFileAndEnvironment(filePath string) (Config, error) {
	var config Config
	config.setDefaults()

	if filePath != "" {
		_, err := os.Stat(filePath)
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config file %s does not exist: %s", filePath, err)
		}
		realPath, err := filepath.EvalSymlinks(filePath)
		if err != nil {
			return Config{}, fmt.Errorf("failed to eval symlink for %s: %s", realPath, err)
		}
		data, err := os.ReadFile(realPath)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %s", realPath, err)
		}

		err = yaml.Unmarshal(data, &config)
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse YAML from config file %s: %s", realPath, err)
		}
	}

	config.loadEnv()
	if config.Log.GetLevel() == log.None {
		config.Log.Level = "warn"
	}
	if config.Reload.Verbosity == VerbosityDebug {
		config.Log.Level = "debug"
	}
	config.fixupLogLevels(config.Log.Level)
	return config, nil
}

func (l *LogConfig) GetLevel() log.Level {
	if lvl, ok := allowedLogLevels[l.Level]; ok {
		return lvl
	}
	return log.None
}

func (t *TlsConfig) GetVersion() uint16 {
	if ver, ok := allowedTlsVersions[t.MinVersion]; ok {
		return ver
	}
	return tls.VersionTLS12
}

// GetPort returns the port clients connect to. Zero and negative values
// fall back to the LiveReload default.
func (r *ReloadConfig) GetPort() int {
	if r.Port > 0 {
		return r.Port
	}
	return DefaultReloadPort
}

func (r *ReloadConfig) GetVerbosity() string {
	if _, ok := allowedVerbosities[r.Verbosity]; ok {
		return r.Verbosity
	}
	return VerbosityStartup
}

func (c *Config) setDefaults() {
	c.Reload.Port = DefaultReloadPort
	c.Reload.Verbosity = VerbosityStartup

	c.Push.Sse.Enabled = true
	c.Push.CORS.Enabled = true
	c.Push.HeartBeatInterval = 30

	c.Trigger.Enabled = true
	c.Trigger.Port = 35730
	c.Trigger.SignatureValidFor = 300

	c.Diag.Enabled = true
	c.Diag.Port = 35731
	c.Diag.Status.Enabled = true
	c.Diag.Metrics.Enabled = true

	c.Tls.MinVersion = 1.2
}

func (c *Config) fixupLogLevels(defLevel string) {
	if c.Push.Log.GetLevel() == log.None {
		c.Push.Log.Level = defLevel
	}
	if c.Trigger.Log.GetLevel() == log.None {
		c.Trigger.Log.Level = defLevel
	}
}
