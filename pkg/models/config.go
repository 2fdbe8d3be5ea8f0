package models

// NotifyConfig holds notification transport settings. Email, webhook, and
// command targets are independent; any may be empty.
type NotifyConfig struct {
	Enabled      bool     `yaml:"enabled" mapstructure:"enabled"`
	Emails       []string `yaml:"emails,omitempty" mapstructure:"emails"`
	SMTPHost     string   `yaml:"smtp_host,omitempty" mapstructure:"smtp_host"`
	SMTPPort     int      `yaml:"smtp_port,omitempty" mapstructure:"smtp_port"`
	SMTPFrom     string   `yaml:"smtp_from,omitempty" mapstructure:"smtp_from"`
	SMTPUsername string   `yaml:"smtp_username,omitempty" mapstructure:"smtp_username"`
	SMTPPassword string   `yaml:"smtp_password,omitempty" mapstructure:"smtp_password"`
	WebhookURL   string   `yaml:"webhook_url,omitempty" mapstructure:"webhook_url"`
	Command      string   `yaml:"command,omitempty" mapstructure:"command"`
	MinSeverity  Severity `yaml:"min_severity,omitempty" mapstructure:"min_severity"`
}

// Config holds system-wide settings read from .sheetconfig via Viper.
type Config struct {
	StorageDriver        string       `yaml:"storage_driver" mapstructure:"storage_driver"`
	StoragePath          string       `yaml:"storage_path,omitempty" mapstructure:"storage_path"`
	StorageDSN           string       `yaml:"storage_dsn,omitempty" mapstructure:"storage_dsn"`
	CheckIntervalMinutes int          `yaml:"check_interval_minutes" mapstructure:"check_interval_minutes"`
	ListenAddr           string       `yaml:"listen_addr" mapstructure:"listen_addr"`
	Notify               NotifyConfig `yaml:"notify,omitempty" mapstructure:"notify"`
}
