package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (CAMPOPS_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: CAMPOPS_PORT -> port,
	// CAMPOPS_MAIL_SMTP_HOST -> mail.smtp_host, etc.
	if err := k.Load(env.Provider("CAMPOPS_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "CAMPOPS_"))
		for _, prefix := range []string{"sla_", "mail_"} {
			if strings.HasPrefix(key, prefix) {
				return strings.TrimSuffix(prefix, "_") + "." + strings.TrimPrefix(key, prefix)
			}
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validMailModes is the set of recognized mail mode values.
var validMailModes = map[MailMode]bool{
	MailOff:     true,
	MailSMTP:    true,
	MailWebhook: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.SLA.CheckIntervalMinutes < 0 {
		return fmt.Errorf("sla.check_interval_minutes must be non-negative")
	}
	if c.SLA.SendTimeoutSeconds <= 0 {
		return fmt.Errorf("sla.send_timeout_seconds must be positive")
	}

	if c.Mail.Mode == "" {
		c.Mail.Mode = MailOff
	}
	if !validMailModes[c.Mail.Mode] {
		return fmt.Errorf("invalid mail mode %q: must be one of off, smtp, webhook", c.Mail.Mode)
	}

	switch c.Mail.Mode {
	case MailSMTP:
		if c.Mail.SMTPHost == "" {
			return fmt.Errorf("mail.smtp_host is required when mail mode is smtp")
		}
		if c.Mail.SMTPPort <= 0 || c.Mail.SMTPPort > 65535 {
			return fmt.Errorf("mail.smtp_port must be between 1 and 65535")
		}
		if c.Mail.From == "" {
			return fmt.Errorf("mail.from is required when mail mode is smtp")
		}
	case MailWebhook:
		if c.Mail.WebhookURL == "" {
			return fmt.Errorf("mail.webhook_url is required when mail mode is webhook")
		}
	}

	return nil
}
