// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderCloudinary = "cloudinary"
	ProviderDrive      = "drive"
	ProviderNone       = "none"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// Enable ENV override like NOTION_TOKEN -> notion.token
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	// 1. base config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// 2. environment overlay
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // ignore error if not found

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	// A bool that defaults to true cannot be told apart from an explicit false after Unmarshal.
	v.SetDefault("storage.drive.public_links", true)
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Load .env from multiple possible locations
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// Direct override if config values are still empty after expansion.
// The variable names are the ones the form deployment has always used.
func overrideEmptyConfig(cfg *Config) {
	setString(&cfg.Notion.Token, "NOTION_TOKEN")
	setString(&cfg.Notion.DatabaseID, "NOTION_DATABASE_ID")
	setString(&cfg.Storage.Cloudinary.URL, "CLOUDINARY_URL")
	setString(&cfg.Google.CredentialsPath, "GOOGLE_DRIVE_CREDENTIALS_PATH")
	setString(&cfg.Google.CredentialsJSON, "GOOGLE_DRIVE_CREDENTIALS")
	setString(&cfg.Storage.Drive.FolderID, "GOOGLE_DRIVE_FOLDER_ID")
	setString(&cfg.Sheets.SpreadsheetID, "GOOGLE_SHEETS_SPREADSHEET_ID")
	setString(&cfg.Notifications.AWS.Region, "AWS_REGION")

	if !cfg.Storage.Drive.SharedDrive {
		cfg.Storage.Drive.SharedDrive = os.Getenv("GOOGLE_DRIVE_IS_SHARED_DRIVE") == "true"
	}

	if val := os.Getenv("PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = port
		}
	}
}

func setString(dst *string, envKey string) {
	if *dst != "" {
		return
	}
	if val := os.Getenv(envKey); val != "" {
		*dst = val
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "invoice-intake"
	}

	// Server defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.MaxFileBytes == 0 {
		cfg.Server.MaxFileBytes = 10 << 20
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 64 << 20
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60000
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}

	// Intake defaults
	if cfg.Intake.DefaultBrand == "" {
		cfg.Intake.DefaultBrand = "dr-dent"
	}
	if cfg.Intake.InvoiceFileField == "" {
		cfg.Intake.InvoiceFileField = "invoiceFileInput"
	}
	if cfg.Intake.UploadConcurrency == 0 {
		cfg.Intake.UploadConcurrency = 3
	}

	if cfg.Storage.Provider == "" {
		cfg.Storage.Provider = ProviderCloudinary
	}
	if cfg.Storage.Cloudinary.Folder == "" {
		cfg.Storage.Cloudinary.Folder = "tmmb-invoices"
	}

	if cfg.Sheets.SheetName == "" {
		cfg.Sheets.SheetName = "Responses"
	}
	if cfg.Notion.Status == "" {
		cfg.Notion.Status = "Pending"
	}
	if cfg.Redis.TTL == 0 {
		cfg.Redis.TTL = 86400
	}
	if cfg.Notifications.AWS.Region == "" {
		cfg.Notifications.AWS.Region = "eu-west-2"
	}

	// Camunda defaults
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 60000
		}
		cfg.Workers[key] = worker
	}

	// Per-call timeouts
	if cfg.Timeouts.Upload == 0 {
		cfg.Timeouts.Upload = 30000
	}
	if cfg.Timeouts.Sheets == 0 {
		cfg.Timeouts.Sheets = 15000
	}
	if cfg.Timeouts.Record == 0 {
		cfg.Timeouts.Record = 15000
	}
	if cfg.Timeouts.Notify == 0 {
		cfg.Timeouts.Notify = 5000
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Notion.Token == "" {
		return fmt.Errorf("notion.token is required")
	}
	if cfg.Notion.DatabaseID == "" {
		return fmt.Errorf("notion.database_id is required")
	}

	switch cfg.Storage.Provider {
	case ProviderCloudinary:
		if cfg.Storage.Cloudinary.URL == "" && cfg.Storage.Cloudinary.CloudName == "" {
			return fmt.Errorf("storage.cloudinary.url or storage.cloudinary.cloud_name is required")
		}
	case ProviderDrive:
		if cfg.Storage.Drive.FolderID == "" {
			return fmt.Errorf("storage.drive.folder_id is required")
		}
	case ProviderNone:
	default:
		return fmt.Errorf("storage.provider must be one of cloudinary, drive, none (got %q)", cfg.Storage.Provider)
	}

	if cfg.Sheets.Enabled && cfg.Sheets.SpreadsheetID == "" && cfg.Storage.Drive.FolderID == "" {
		return fmt.Errorf("sheets.spreadsheet_id or storage.drive.folder_id is required when sheets are enabled")
	}

	if cfg.Notifications.SNS.Enabled && cfg.Notifications.SNS.TopicARN == "" {
		return fmt.Errorf("notifications.sns.topic_arn is required when sns is enabled")
	}
	if cfg.Notifications.SES.Enabled && cfg.Notifications.SES.FromEmail == "" {
		return fmt.Errorf("notifications.ses.from_email is required when ses is enabled")
	}

	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}

	if cfg.Intake.UploadConcurrency < 1 {
		return fmt.Errorf("intake.upload_concurrency must be positive")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       60000,
	}
}
