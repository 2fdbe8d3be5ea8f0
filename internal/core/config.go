// Package core contains the monitoring engine: threshold evaluation and
// severity classification, source and metric lifecycle management, the
// registry and event log contracts, and configuration handling.
package core

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

// AllowedIntervals lists the supported check intervals in minutes. The
// scheduler refuses to run with anything else.
var AllowedIntervals = []int{5, 15, 30}

// ValidateInterval checks minutes against AllowedIntervals.
func ValidateInterval(minutes int) error {
	for _, allowed := range AllowedIntervals {
		if minutes == allowed {
			return nil
		}
	}
	return fmt.Errorf("check interval %d minutes is not supported, must be one of: 5, 15, 30", minutes)
}

// ConfigManager defines the interface for loading and validating the
// monitor configuration from a .sheetconfig file.
type ConfigManager interface {
	LoadConfig() (*models.Config, error)
	ValidateConfig(cfg *models.Config) error
}

// viperConfigManager implements ConfigManager using Viper for reading the
// YAML configuration file.
type viperConfigManager struct {
	// basePath is the directory where .sheetconfig resides.
	basePath string
}

// NewConfigManager creates a ConfigManager that reads the configuration
// file from basePath.
func NewConfigManager(basePath string) ConfigManager {
	return &viperConfigManager{basePath: basePath}
}

// defaultConfig returns a Config populated with sensible defaults: the CSV
// backend under data/, a 15 minute check interval, notifications off.
func defaultConfig() *models.Config {
	return &models.Config{
		StorageDriver:        "csv",
		StoragePath:          "data",
		CheckIntervalMinutes: 15,
		ListenAddr:           ":8080",
		Notify: models.NotifyConfig{
			SMTPPort:    587,
			MinSeverity: models.SeverityLow,
		},
	}
}

// LoadConfig reads the .sheetconfig file from the base path using Viper.
// If the file does not exist, defaults are returned.
func (cm *viperConfigManager) LoadConfig() (*models.Config, error) {
	cfg := defaultConfig()

	v := viper.New()
	v.SetConfigName(".sheetconfig")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	// Set Viper defaults so missing keys fall back gracefully.
	v.SetDefault("storage.driver", cfg.StorageDriver)
	v.SetDefault("storage.path", cfg.StoragePath)
	v.SetDefault("storage.dsn", cfg.StorageDSN)
	v.SetDefault("check.interval_minutes", cfg.CheckIntervalMinutes)
	v.SetDefault("http.addr", cfg.ListenAddr)
	v.SetDefault("notifications.enabled", cfg.Notify.Enabled)
	v.SetDefault("notifications.email.port", cfg.Notify.SMTPPort)
	v.SetDefault("notifications.min_severity", string(cfg.Notify.MinSeverity))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .sheetconfig: %w", err)
	}

	// Map nested YAML keys to the flat Config fields.
	cfg.StorageDriver = v.GetString("storage.driver")
	cfg.StoragePath = v.GetString("storage.path")
	cfg.StorageDSN = v.GetString("storage.dsn")
	cfg.CheckIntervalMinutes = v.GetInt("check.interval_minutes")
	cfg.ListenAddr = v.GetString("http.addr")
	cfg.Notify.Enabled = v.GetBool("notifications.enabled")
	cfg.Notify.Emails = v.GetStringSlice("notifications.email.to")
	cfg.Notify.SMTPHost = v.GetString("notifications.email.host")
	cfg.Notify.SMTPPort = v.GetInt("notifications.email.port")
	cfg.Notify.SMTPFrom = v.GetString("notifications.email.from")
	cfg.Notify.SMTPUsername = v.GetString("notifications.email.username")
	cfg.Notify.SMTPPassword = v.GetString("notifications.email.password")
	cfg.Notify.WebhookURL = v.GetString("notifications.webhook.url")
	cfg.Notify.Command = v.GetString("notifications.command")
	cfg.Notify.MinSeverity = models.Severity(v.GetString("notifications.min_severity"))

	return cfg, nil
}

// validDrivers is the set of storage backends the app can wire.
var validDrivers = map[string]bool{
	"csv":      true,
	"sqlite":   true,
	"postgres": true,
}

// validSeverities is the set of allowed Severity values.
var validSeverities = map[models.Severity]bool{
	models.SeverityCritical: true,
	models.SeverityHigh:     true,
	models.SeverityMedium:   true,
	models.SeverityLow:      true,
}

// ValidateConfig checks the provided configuration for invalid values and
// returns a clear error message identifying each problem.
func (cm *viperConfigManager) ValidateConfig(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var problems []string

	if !validDrivers[cfg.StorageDriver] {
		problems = append(problems, fmt.Sprintf(
			"storage.driver %q is invalid, must be one of: csv, sqlite, postgres",
			cfg.StorageDriver,
		))
	}

	if cfg.StorageDriver == "csv" && cfg.StoragePath == "" {
		problems = append(problems, "storage.path must not be empty for the csv driver")
	}

	if (cfg.StorageDriver == "sqlite" || cfg.StorageDriver == "postgres") && cfg.StorageDSN == "" {
		problems = append(problems, fmt.Sprintf(
			"storage.dsn must not be empty for the %s driver",
			cfg.StorageDriver,
		))
	}

	if err := ValidateInterval(cfg.CheckIntervalMinutes); err != nil {
		problems = append(problems, err.Error())
	}

	if cfg.Notify.Enabled && len(cfg.Notify.Emails) == 0 && cfg.Notify.WebhookURL == "" && cfg.Notify.Command == "" {
		problems = append(problems, "notifications.enabled requires notifications.email.to, notifications.webhook.url, or notifications.command")
	}

	if len(cfg.Notify.Emails) > 0 && cfg.Notify.SMTPHost == "" {
		problems = append(problems, "notifications.email.host must not be empty when recipients are set")
	}

	if cfg.Notify.MinSeverity != "" && !validSeverities[cfg.Notify.MinSeverity] {
		problems = append(problems, fmt.Sprintf(
			"notifications.min_severity %q is invalid, must be one of: CRITICAL, HIGH, MEDIUM, LOW",
			cfg.Notify.MinSeverity,
		))
	}

	if len(problems) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}

	return nil
}
