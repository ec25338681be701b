package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/livereload-universal/relay/pathres"
)

var envPrefix = "LIVERELOAD"

var toInt = func(s string) (int, error) { return strconv.Atoi(s) }
var toBool = func(s string) (bool, error) { return strconv.ParseBool(s) }
var toFloat = func(s string) (float64, error) { return strconv.ParseFloat(s, 64) }
var toStringSlice = func(s string) ([]string, error) {
	var r []string
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return nil, err
	}
	return r, nil
}
var toSpec = func(s string) (pathres.Spec, error) {
	if strings.HasPrefix(strings.TrimSpace(s), "[") {
		r, err := toStringSlice(s)
		return r, err
	}
	return pathres.Spec{s}, nil
}
var toCertConfigSlice = func(s string) ([]CertConfig, error) {
	var r []CertConfig
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return nil, err
	}
	return r, nil
}
var toStringMap = func(s string) (map[string]string, error) {
	var r map[string]string
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return nil, err
	}
	return r, nil
}

func (c *Config) loadEnv() {
	c.Log.loadEnv(envPrefix)
	c.Reload.loadEnv(envPrefix)
	c.Push.loadEnv(envPrefix)
	c.Trigger.loadEnv(envPrefix)
	c.Diag.loadEnv(envPrefix)
	c.Tls.loadEnv(envPrefix)
}

func (r *ReloadConfig) loadEnv(prefix string) {
	prefix = concatPrefix(prefix, "RELOAD")
	readEnv(prefix, "WATCH", &r.Watch, toSpec)
	readEnv(prefix, "PORT", &r.Port, toInt)
	readEnvString(prefix, "CLIENT_URL", &r.ClientUrl)
	readEnvString(prefix, "VERBOSITY", &r.Verbosity)
	readEnv(prefix, "OUTPUT_DIRS", &r.OutputDirs, toStringSlice)
	readEnv(prefix, "WATCH_CONFIG", &r.WatchConfig, toBool)
}

func (p *PushConfig) loadEnv(prefix string) {
	prefix = concatPrefix(prefix, "PUSH")
	readEnv(prefix, "HEADERS", &p.Headers, toStringMap)
	readEnv(prefix, "HEART_BEAT_INTERVAL", &p.HeartBeatInterval, toInt)
	p.CORS.loadEnv(prefix)
	p.Sse.loadEnv(prefix)
	p.Log.loadEnv(prefix)
}

func (s *SseConfig) loadEnv(prefix string) {
	prefix = concatPrefix(prefix, "SSE")
	readEnv(prefix, "ENABLED", &s.Enabled, toBool)
}

func (c *CORSConfig) loadEnv(prefix string) {
	prefix = concatPrefix(prefix, "CORS")
	readEnv(prefix, "ENABLED", &c.Enabled, toBool)
	readEnv(prefix, "ALLOWED_ORIGINS", &c.AllowedOrigins, toStringSlice)
}

func (t *TriggerConfig) loadEnv(prefix string) {
	prefix = concatPrefix(prefix, "TRIGGER")
	readEnv(prefix, "ENABLED", &t.Enabled, toBool)
	readEnv(prefix, "PORT", &t.Port, toInt)
	readEnv(prefix, "AUTH_HEADERS", &t.AuthHeaders, toStringMap)
	readEnvString(prefix, "SIGNING_KEY", &t.SigningKey)
	readEnv(prefix, "SIGNATURE_VALID_FOR", &t.SignatureValidFor, toInt)
	t.Auth.loadEnv(prefix)
	t.Log.loadEnv(prefix)
}

func (a *BasicAuthConfig) loadEnv(prefix string) {
	prefix = concatPrefix(prefix, "AUTH")
	readEnvString(prefix, "USER", &a.User)
	readEnvString(prefix, "PASSWORD", &a.Password)
}

func (d *DiagConfig) loadEnv(prefix string) {
	prefix = concatPrefix(prefix, "DIAG")
	readEnv(prefix, "ENABLED", &d.Enabled, toBool)
	readEnv(prefix, "PORT", &d.Port, toInt)
	d.Status.loadEnv(prefix)
	d.Metrics.loadEnv(prefix)
}

func (s *StatusConfig) loadEnv(prefix string) {
	prefix = concatPrefix(prefix, "STATUS")
	readEnv(prefix, "ENABLED", &s.Enabled, toBool)
}

func (m *MetricsConfig) loadEnv(prefix string) {
	prefix = concatPrefix(prefix, "METRICS")
	readEnv(prefix, "ENABLED", &m.Enabled, toBool)
}

func (t *TlsConfig) loadEnv(prefix string) {
	prefix = concatPrefix(prefix, "TLS")
	readEnv(prefix, "MIN_VERSION", &t.MinVersion, toFloat)
	readEnv(prefix, "ENABLED", &t.Enabled, toBool)
	readEnv(prefix, "CERTIFICATES", &t.Certificates, toCertConfigSlice)
}

func (l *LogConfig) loadEnv(prefix string) {
	prefix = concatPrefix(prefix, "LOG")
	readEnvString(prefix, "LEVEL", &l.Level)
}

func readEnv[T any](prefix string, key string, in *T, conv func(string) (T, error)) {
	if env := os.Getenv(prefix + "_" + key); env != "" {
		if r, err := conv(env); err == nil {
			*in = r
		}
	}
}

func readEnvString(prefix string, key string, in *string) {
	if env := os.Getenv(prefix + "_" + key); env != "" {
		*in = env
	}
}

func concatPrefix(p1 string, p2 string) string {
	return p1 + "_" + p2
}
