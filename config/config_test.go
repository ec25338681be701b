package config

import (
	"crypto/tls"
	"github.com/livereload-universal/relay/internal/testutils"
	"github.com/livereload-universal/relay/log"
	"github.com/livereload-universal/relay/pathres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestConfig_Defaults(t *testing.T) {
	conf, err := LoadConfigFromFileAndEnvironment("")
	require.NoError(t, err)

	assert.Equal(t, 35729, conf.Reload.Port)
	assert.Equal(t, VerbosityStartup, conf.Reload.Verbosity)
	assert.True(t, conf.Reload.Watch.IsEmpty())
	assert.Empty(t, conf.Reload.ClientUrl)
	assert.False(t, conf.Reload.WatchConfig)

	assert.True(t, conf.Push.Sse.Enabled)
	assert.True(t, conf.Push.CORS.Enabled)
	assert.Equal(t, 30, conf.Push.HeartBeatInterval)

	assert.True(t, conf.Trigger.Enabled)
	assert.Equal(t, 35730, conf.Trigger.Port)
	assert.Equal(t, 300, conf.Trigger.SignatureValidFor)

	assert.True(t, conf.Diag.Enabled)
	assert.Equal(t, 35731, conf.Diag.Port)
	assert.True(t, conf.Diag.Metrics.Enabled)
	assert.True(t, conf.Diag.Status.Enabled)

	assert.Equal(t, 1.2, conf.Tls.MinVersion)
	assert.Equal(t, uint16(tls.VersionTLS12), conf.Tls.GetVersion())

	assert.Equal(t, log.Warn, conf.Log.GetLevel())
	assert.Equal(t, log.Warn, conf.Push.Log.GetLevel())
	assert.Equal(t, log.Warn, conf.Trigger.Log.GetLevel())
}

func TestConfig_YAML(t *testing.T) {
	testutils.UseTempFile(`
log:
  level: "info"
reload:
  watch: pass
  port: 35777
  client_url: "https://example.com/livereload.js"
  verbosity: silent
  output_dirs:
    - /out
    - /dist
  watch_config: true
push:
  headers:
    h1: v1
  heart_beat_interval: 10
  cors:
    enabled: false
    allowed_origins:
      - https://example.com
  sse:
    enabled: false
  log:
    level: "debug"
trigger:
  enabled: false
  port: 9000
  auth_headers:
    X-Token: secret
diag:
  enabled: false
  port: 9001
  metrics:
    enabled: false
tls:
  enabled: true
  min_version: 1.3
  certificates:
    - key: "./key"
      cert: "./cert"
`, func(file string) {
		conf, err := LoadConfigFromFileAndEnvironment(file)
		require.NoError(t, err)

		assert.Equal(t, log.Info, conf.Log.GetLevel())
		assert.Equal(t, pathres.Spec{"pass"}, conf.Reload.Watch)
		assert.Equal(t, 35777, conf.Reload.Port)
		assert.Equal(t, "https://example.com/livereload.js", conf.Reload.ClientUrl)
		assert.Equal(t, VerbositySilent, conf.Reload.GetVerbosity())
		assert.Equal(t, []string{"/out", "/dist"}, conf.Reload.OutputDirs)
		assert.True(t, conf.Reload.WatchConfig)

		assert.Equal(t, "v1", conf.Push.Headers["h1"])
		assert.Equal(t, 10, conf.Push.HeartBeatInterval)
		assert.False(t, conf.Push.CORS.Enabled)
		assert.Equal(t, []string{"https://example.com"}, conf.Push.CORS.AllowedOrigins)
		assert.False(t, conf.Push.Sse.Enabled)
		assert.Equal(t, log.Debug, conf.Push.Log.GetLevel())

		assert.False(t, conf.Trigger.Enabled)
		assert.Equal(t, 9000, conf.Trigger.Port)
		assert.Equal(t, "secret", conf.Trigger.AuthHeaders["X-Token"])
		assert.Equal(t, log.Info, conf.Trigger.Log.GetLevel())

		assert.False(t, conf.Diag.Enabled)
		assert.Equal(t, 9001, conf.Diag.Port)
		assert.False(t, conf.Diag.Metrics.Enabled)

		assert.True(t, conf.Tls.Enabled)
		assert.Equal(t, uint16(tls.VersionTLS13), conf.Tls.GetVersion())
		assert.Equal(t, "./key", conf.Tls.Certificates[0].Key)
		assert.Equal(t, "./cert", conf.Tls.Certificates[0].Cert)
	})
}

func TestConfig_WatchList(t *testing.T) {
	testutils.UseTempFile(`
reload:
  watch:
    - pass
    - /abs/file.js
`, func(file string) {
		conf, err := LoadConfigFromFileAndEnvironment(file)
		require.NoError(t, err)

		assert.Equal(t, pathres.Spec{"pass", "/abs/file.js"}, conf.Reload.Watch)
	})
}

func TestConfig_LogLevelFixup(t *testing.T) {
	t.Run("invalid base level", func(t *testing.T) {
		testutils.UseTempFile(`
log:
  level: "invalid"
`, func(file string) {
			conf, err := LoadConfigFromFileAndEnvironment(file)
			require.NoError(t, err)

			assert.Equal(t, log.Warn, conf.Log.GetLevel())
			assert.Equal(t, log.Warn, conf.Push.Log.GetLevel())
			assert.Equal(t, log.Warn, conf.Trigger.Log.GetLevel())
		})
	})
	t.Run("debug verbosity raises level", func(t *testing.T) {
		testutils.UseTempFile(`
log:
  level: "error"
reload:
  verbosity: debug
`, func(file string) {
			conf, err := LoadConfigFromFileAndEnvironment(file)
			require.NoError(t, err)

			assert.Equal(t, log.Debug, conf.Log.GetLevel())
			assert.Equal(t, log.Debug, conf.Push.Log.GetLevel())
		})
	})
}

func TestConfig_Invalid(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfigFromFileAndEnvironment("/tmp/non-existing.yml")
		assert.ErrorContains(t, err, "does not exist")
	})
	t.Run("invalid yaml", func(t *testing.T) {
		testutils.UseTempFile(`reload: [`, func(file string) {
			_, err := LoadConfigFromFileAndEnvironment(file)
			assert.ErrorContains(t, err, "failed to parse YAML")
		})
	})
}

func TestReloadConfig_GetPort(t *testing.T) {
	tests := []struct {
		port     int
		expected int
	}{
		{0, 35729},
		{-5, 35729},
		{8080, 8080},
	}
	for _, test := range tests {
		conf := ReloadConfig{Port: test.port}
		assert.Equal(t, test.expected, conf.GetPort())
	}
}

func TestReloadConfig_GetVerbosity(t *testing.T) {
	assert.Equal(t, VerbosityStartup, (&ReloadConfig{}).GetVerbosity())
	assert.Equal(t, VerbosityStartup, (&ReloadConfig{Verbosity: "loud"}).GetVerbosity())
	assert.Equal(t, VerbosityDebug, (&ReloadConfig{Verbosity: "debug"}).GetVerbosity())
}
