package config

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:            8080,
		DataDir:         "data",
		AllowAllOrigins: false,
		SLA: SLAConfig{
			CheckIntervalMinutes: 30,
			SendTimeoutSeconds:   15,
		},
		Mail: MailConfig{
			Mode:     MailOff,
			SMTPPort: 587,
			From:     "campops@localhost",
		},
	}
}
