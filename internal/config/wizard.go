package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .campops.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to campops! Let's configure your deployment.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. API port.
	portPrompt := promptui.Prompt{
		Label:   "API port",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	// 2. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory (SQLite database location)",
		Default: cfg.DataDir,
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	cfg.DataDir = dataDir

	// 3. SLA check interval.
	intervalPrompt := promptui.Prompt{
		Label:   "SLA check interval in minutes (0 to disable the scheduler)",
		Default: strconv.Itoa(cfg.SLA.CheckIntervalMinutes),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				return fmt.Errorf("enter a non-negative number")
			}
			return nil
		},
	}
	intervalStr, err := intervalPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("check interval: %w", err)
	}
	cfg.SLA.CheckIntervalMinutes, _ = strconv.Atoi(intervalStr)

	// 4. Mail delivery mode.
	modePrompt := promptui.Select{
		Label: "Escalation notification delivery",
		Items: []string{
			"off     — log escalations only, send nothing",
			"smtp    — send emails via an SMTP relay",
			"webhook — POST notifications to a webhook URL",
		},
	}
	modeIdx, _, err := modePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("mail mode: %w", err)
	}
	modes := []MailMode{MailOff, MailSMTP, MailWebhook}
	cfg.Mail.Mode = modes[modeIdx]

	switch cfg.Mail.Mode {
	case MailSMTP:
		hostPrompt := promptui.Prompt{Label: "SMTP host"}
		host, err := hostPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("smtp host: %w", err)
		}
		cfg.Mail.SMTPHost = host

		fromPrompt := promptui.Prompt{
			Label:   "From address",
			Default: cfg.Mail.From,
		}
		from, err := fromPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("from address: %w", err)
		}
		cfg.Mail.From = from

	case MailWebhook:
		urlPrompt := promptui.Prompt{Label: "Webhook URL"}
		url, err := urlPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("webhook url: %w", err)
		}
		cfg.Mail.WebhookURL = url
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	// Save to .campops.yml.
	configPath := ".campops.yml"
	if err := cfg.Save(configPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	return cfg, nil
}
