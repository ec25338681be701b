package config

import (
	"fmt"
)

func (c *Config) Validate() error {
	if err := c.Reload.validate(); err != nil {
		return err
	}
	if err := c.Trigger.validate(c.Reload.GetPort()); err != nil {
		return err
	}
	if err := c.Diag.validate(c.Reload.GetPort(), &c.Trigger); err != nil {
		return err
	}
	if err := c.Tls.validate(); err != nil {
		return err
	}
	return nil
}

func (r *ReloadConfig) validate() error {
	if r.Port < 0 || r.Port > 65535 {
		return fmt.Errorf("reload: invalid port %d", r.Port)
	}
	if r.Verbosity != "" {
		if _, ok := allowedVerbosities[r.Verbosity]; !ok {
			return fmt.Errorf("reload: invalid verbosity '%s', it must be 'silent', 'startup' or 'debug'", r.Verbosity)
		}
	}
	return nil
}

func (t *TriggerConfig) validate(reloadPort int) error {
	if !t.Enabled {
		return nil
	}
	if t.Port < 1 || t.Port > 65535 {
		return fmt.Errorf("trigger: invalid port %d", t.Port)
	}
	if t.Port == reloadPort {
		return fmt.Errorf("trigger: port %d is already used by the reload server", t.Port)
	}
	if (t.Auth.User == "") != (t.Auth.Password == "") {
		return fmt.Errorf("trigger: both basic auth user and password required")
	}
	if t.SigningKey != "" && t.SignatureValidFor < 1 {
		return fmt.Errorf("trigger: signature validity period must be greater than 0")
	}
	return nil
}

func (d *DiagConfig) validate(reloadPort int, trigger *TriggerConfig) error {
	if !d.Enabled {
		return nil
	}
	if d.Port < 1 || d.Port > 65535 {
		return fmt.Errorf("diag: invalid port %d", d.Port)
	}
	if d.Port == reloadPort {
		return fmt.Errorf("diag: port %d is already used by the reload server", d.Port)
	}
	if trigger.Enabled && d.Port == trigger.Port {
		return fmt.Errorf("diag: port %d is already used by the trigger server", d.Port)
	}
	return nil
}

func (t *TlsConfig) validate() error {
	if !t.Enabled {
		return nil
	}
	for _, cert := range t.Certificates {
		if (cert.Cert != "" && cert.Key == "") || (cert.Key != "" && cert.Cert == "") {
			return fmt.Errorf("tls: both TLS cert and key file required")
		}
	}
	return nil
}
