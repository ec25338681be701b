package config

import (
	"github.com/livereload-universal/relay/log"
	"github.com/livereload-universal/relay/pathres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestReloadConfig_ENV(t *testing.T) {
	t.Setenv("LIVERELOAD_RELOAD_WATCH", `["pass", "/abs"]`)
	t.Setenv("LIVERELOAD_RELOAD_PORT", "35777")
	t.Setenv("LIVERELOAD_RELOAD_CLIENT_URL", "https://example.com/lr.js")
	t.Setenv("LIVERELOAD_RELOAD_VERBOSITY", "silent")
	t.Setenv("LIVERELOAD_RELOAD_OUTPUT_DIRS", `["/out"]`)
	t.Setenv("LIVERELOAD_RELOAD_WATCH_CONFIG", "true")

	conf, err := LoadConfigFromFileAndEnvironment("")
	require.NoError(t, err)

	assert.Equal(t, pathres.Spec{"pass", "/abs"}, conf.Reload.Watch)
	assert.Equal(t, 35777, conf.Reload.Port)
	assert.Equal(t, "https://example.com/lr.js", conf.Reload.ClientUrl)
	assert.Equal(t, VerbositySilent, conf.Reload.Verbosity)
	assert.Equal(t, []string{"/out"}, conf.Reload.OutputDirs)
	assert.True(t, conf.Reload.WatchConfig)
}

func TestReloadConfig_ENV_SingleWatch(t *testing.T) {
	t.Setenv("LIVERELOAD_RELOAD_WATCH", "pass")

	conf, err := LoadConfigFromFileAndEnvironment("")
	require.NoError(t, err)

	assert.Equal(t, pathres.Spec{"pass"}, conf.Reload.Watch)
}

func TestReloadConfig_ENV_InvalidPort(t *testing.T) {
	t.Setenv("LIVERELOAD_RELOAD_PORT", "not-a-number")

	conf, err := LoadConfigFromFileAndEnvironment("")
	require.NoError(t, err)

	assert.Equal(t, 35729, conf.Reload.Port)
}

func TestPushConfig_ENV(t *testing.T) {
	t.Setenv("LIVERELOAD_PUSH_HEADERS", `{"h1":"v1"}`)
	t.Setenv("LIVERELOAD_PUSH_HEART_BEAT_INTERVAL", "5")
	t.Setenv("LIVERELOAD_PUSH_CORS_ENABLED", "false")
	t.Setenv("LIVERELOAD_PUSH_CORS_ALLOWED_ORIGINS", `["https://a.com"]`)
	t.Setenv("LIVERELOAD_PUSH_SSE_ENABLED", "false")
	t.Setenv("LIVERELOAD_PUSH_LOG_LEVEL", "error")

	conf, err := LoadConfigFromFileAndEnvironment("")
	require.NoError(t, err)

	assert.Equal(t, "v1", conf.Push.Headers["h1"])
	assert.Equal(t, 5, conf.Push.HeartBeatInterval)
	assert.False(t, conf.Push.CORS.Enabled)
	assert.Equal(t, []string{"https://a.com"}, conf.Push.CORS.AllowedOrigins)
	assert.False(t, conf.Push.Sse.Enabled)
	assert.Equal(t, log.Error, conf.Push.Log.GetLevel())
}

func TestTriggerConfig_ENV(t *testing.T) {
	t.Setenv("LIVERELOAD_TRIGGER_ENABLED", "false")
	t.Setenv("LIVERELOAD_TRIGGER_PORT", "9000")
	t.Setenv("LIVERELOAD_TRIGGER_AUTH_HEADERS", `{"X-Token":"secret"}`)
	t.Setenv("LIVERELOAD_TRIGGER_LOG_LEVEL", "info")
	t.Setenv("LIVERELOAD_TRIGGER_AUTH_USER", "user")
	t.Setenv("LIVERELOAD_TRIGGER_AUTH_PASSWORD", "pass")
	t.Setenv("LIVERELOAD_TRIGGER_SIGNING_KEY", "key")
	t.Setenv("LIVERELOAD_TRIGGER_SIGNATURE_VALID_FOR", "60")

	conf, err := LoadConfigFromFileAndEnvironment("")
	require.NoError(t, err)

	assert.False(t, conf.Trigger.Enabled)
	assert.Equal(t, 9000, conf.Trigger.Port)
	assert.Equal(t, "secret", conf.Trigger.AuthHeaders["X-Token"])
	assert.Equal(t, "user", conf.Trigger.Auth.User)
	assert.Equal(t, "pass", conf.Trigger.Auth.Password)
	assert.Equal(t, "key", conf.Trigger.SigningKey)
	assert.Equal(t, 60, conf.Trigger.SignatureValidFor)
	assert.Equal(t, log.Info, conf.Trigger.Log.GetLevel())
}

func TestDiagConfig_ENV(t *testing.T) {
	t.Setenv("LIVERELOAD_DIAG_ENABLED", "false")
	t.Setenv("LIVERELOAD_DIAG_PORT", "9001")
	t.Setenv("LIVERELOAD_DIAG_METRICS_ENABLED", "false")
	t.Setenv("LIVERELOAD_DIAG_STATUS_ENABLED", "false")

	conf, err := LoadConfigFromFileAndEnvironment("")
	require.NoError(t, err)

	assert.False(t, conf.Diag.Enabled)
	assert.Equal(t, 9001, conf.Diag.Port)
	assert.False(t, conf.Diag.Status.Enabled)
	assert.False(t, conf.Diag.Metrics.Enabled)
}

func TestTlsConfig_ENV(t *testing.T) {
	t.Setenv("LIVERELOAD_TLS_ENABLED", "true")
	t.Setenv("LIVERELOAD_TLS_MIN_VERSION", "1.1")
	t.Setenv("LIVERELOAD_TLS_CERTIFICATES", `[{"key":"./key","cert":"./cert"}]`)

	conf, err := LoadConfigFromFileAndEnvironment("")
	require.NoError(t, err)

	assert.True(t, conf.Tls.Enabled)
	assert.Equal(t, 1.1, conf.Tls.MinVersion)
	assert.Equal(t, "./key", conf.Tls.Certificates[0].Key)
}

func TestLogConfig_ENV(t *testing.T) {
	t.Setenv("LIVERELOAD_LOG_LEVEL", "debug")

	conf, err := LoadConfigFromFileAndEnvironment("")
	require.NoError(t, err)

	assert.Equal(t, log.Debug, conf.Log.GetLevel())
	assert.Equal(t, log.Debug, conf.Trigger.Log.GetLevel())
}
