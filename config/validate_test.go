package config

import (
	"github.com/stretchr/testify/require"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		conf, err := LoadConfigFromFileAndEnvironment("")
		require.NoError(t, err)
		require.NoError(t, conf.Validate())
	})
	t.Run("empty", func(t *testing.T) {
		conf := Config{}
		require.NoError(t, conf.Validate())
	})
	t.Run("invalid reload port", func(t *testing.T) {
		conf := Config{Reload: ReloadConfig{Port: 70000}}
		require.ErrorContains(t, conf.Validate(), "reload: invalid port 70000")
	})
	t.Run("invalid verbosity", func(t *testing.T) {
		conf := Config{Reload: ReloadConfig{Verbosity: "loud"}}
		require.ErrorContains(t, conf.Validate(), "reload: invalid verbosity 'loud'")
	})
	t.Run("invalid trigger port", func(t *testing.T) {
		conf := Config{Trigger: TriggerConfig{Enabled: true, Port: 0}}
		require.ErrorContains(t, conf.Validate(), "trigger: invalid port 0")
	})
	t.Run("trigger port conflicts with reload", func(t *testing.T) {
		conf := Config{Trigger: TriggerConfig{Enabled: true, Port: 35729}}
		require.ErrorContains(t, conf.Validate(), "trigger: port 35729 is already used by the reload server")
	})
	t.Run("trigger basic auth incomplete", func(t *testing.T) {
		conf := Config{Trigger: TriggerConfig{Enabled: true, Port: 8000, Auth: BasicAuthConfig{User: "user"}}}
		require.ErrorContains(t, conf.Validate(), "trigger: both basic auth user and password required")
	})
	t.Run("trigger signature validity", func(t *testing.T) {
		conf := Config{Trigger: TriggerConfig{Enabled: true, Port: 8000, SigningKey: "key"}}
		require.ErrorContains(t, conf.Validate(), "trigger: signature validity period must be greater than 0")
	})
	t.Run("diag port conflicts with reload", func(t *testing.T) {
		conf := Config{Reload: ReloadConfig{Port: 8000}, Diag: DiagConfig{Enabled: true, Port: 8000}}
		require.ErrorContains(t, conf.Validate(), "diag: port 8000 is already used by the reload server")
	})
	t.Run("diag port conflicts with trigger", func(t *testing.T) {
		conf := Config{Trigger: TriggerConfig{Enabled: true, Port: 8000}, Diag: DiagConfig{Enabled: true, Port: 8000}}
		require.ErrorContains(t, conf.Validate(), "diag: port 8000 is already used by the trigger server")
	})
	t.Run("tls missing key", func(t *testing.T) {
		conf := Config{Tls: TlsConfig{Enabled: true, Certificates: []CertConfig{{Cert: "cert"}}}}
		require.ErrorContains(t, conf.Validate(), "tls: both TLS cert and key file required")
	})
	t.Run("tls missing cert", func(t *testing.T) {
		conf := Config{Tls: TlsConfig{Enabled: true, Certificates: []CertConfig{{Key: "key"}}}}
		require.ErrorContains(t, conf.Validate(), "tls: both TLS cert and key file required")
	})
}
