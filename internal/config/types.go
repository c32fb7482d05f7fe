package config

// MailMode selects how escalation notifications are delivered.
type MailMode string

const (
	MailOff     MailMode = "off"
	MailSMTP    MailMode = "smtp"
	MailWebhook MailMode = "webhook"
)

// Config is the top-level campops configuration, corresponding to .campops.yml.
type Config struct {
	Port            int        `yaml:"port" koanf:"port"`
	DataDir         string     `yaml:"data_dir" koanf:"data_dir"`
	AllowAllOrigins bool       `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	SLA             SLAConfig  `yaml:"sla" koanf:"sla"`
	Mail            MailConfig `yaml:"mail" koanf:"mail"`
}

// SLAConfig holds SLA check scheduling settings.
type SLAConfig struct {
	// CheckIntervalMinutes is how often the background SLA check runs.
	// Zero disables the scheduler; checks can still be triggered via the API.
	CheckIntervalMinutes int `yaml:"check_interval_minutes" koanf:"check_interval_minutes"`
	// SendTimeoutSeconds bounds each notification send so one slow
	// recipient does not stall the batch.
	SendTimeoutSeconds int `yaml:"send_timeout_seconds" koanf:"send_timeout_seconds"`
}

// MailConfig holds notification delivery settings.
type MailConfig struct {
	Mode       MailMode `yaml:"mode" koanf:"mode"`
	SMTPHost   string   `yaml:"smtp_host" koanf:"smtp_host"`
	SMTPPort   int      `yaml:"smtp_port" koanf:"smtp_port"`
	SMTPUser   string   `yaml:"smtp_user" koanf:"smtp_user"`
	SMTPPass   string   `yaml:"smtp_pass" koanf:"smtp_pass"`
	From       string   `yaml:"from" koanf:"from"`
	WebhookURL string   `yaml:"webhook_url" koanf:"webhook_url"`
}
