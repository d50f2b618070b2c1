// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Server        ServerConfig            `mapstructure:"server"`
	Intake        IntakeConfig            `mapstructure:"intake"`
	Storage       StorageConfig           `mapstructure:"storage"`
	Google        GoogleConfig            `mapstructure:"google"`
	Sheets        SheetsConfig            `mapstructure:"sheets"`
	Notion        NotionConfig            `mapstructure:"notion"`
	Redis         RedisConfig             `mapstructure:"redis"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Timeouts      TimeoutConfig           `mapstructure:"timeouts"`
	Logging       LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	MaxBodyBytes   int64    `mapstructure:"max_body_bytes"`
	MaxFileBytes   int64    `mapstructure:"max_file_bytes"`
	RequestTimeout int      `mapstructure:"request_timeout"` // milliseconds
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// IntakeConfig holds settings for the submission pipeline itself.
type IntakeConfig struct {
	DefaultBrand      string `mapstructure:"default_brand"`
	InvoiceFileField  string `mapstructure:"invoice_file_field"`
	UploadConcurrency int    `mapstructure:"upload_concurrency"`
	CatalogPath       string `mapstructure:"catalog_path"`
}

// --- External Sinks ---

// StorageConfig selects and configures the attachment upload provider.
type StorageConfig struct {
	Provider   string           `mapstructure:"provider"` // cloudinary | drive | none
	Cloudinary CloudinaryConfig `mapstructure:"cloudinary"`
	Drive      DriveConfig      `mapstructure:"drive"`
}

type CloudinaryConfig struct {
	URL       string `mapstructure:"url"`
	CloudName string `mapstructure:"cloud_name"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	Folder    string `mapstructure:"folder"`
}

type DriveConfig struct {
	FolderID    string `mapstructure:"folder_id"`
	SharedDrive bool   `mapstructure:"shared_drive"`
	PublicLinks bool   `mapstructure:"public_links"`
}

type GoogleConfig struct {
	CredentialsPath string `mapstructure:"credentials_path"`
	CredentialsJSON string `mapstructure:"credentials_json"`
}

// HasCredentials reports whether explicit service-account credentials were configured.
func (g GoogleConfig) HasCredentials() bool {
	return g.CredentialsPath != "" || g.CredentialsJSON != ""
}

type SheetsConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	SpreadsheetID string `mapstructure:"spreadsheet_id"`
	SheetName     string `mapstructure:"sheet_name"`
}

type NotionConfig struct {
	Token      string `mapstructure:"token"`
	DatabaseID string `mapstructure:"database_id"`
	Status     string `mapstructure:"status"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      int    `mapstructure:"ttl"` // seconds
}

// NotificationConfig holds settings for the receipt email and ops alert.
type NotificationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	SES struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"ses"`
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// WorkerConfig holds the core settings applicable to every job worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
}

// TimeoutConfig bounds each external call, in milliseconds.
type TimeoutConfig struct {
	Upload int `mapstructure:"upload"`
	Sheets int `mapstructure:"sheets"`
	Record int `mapstructure:"record"`
	Notify int `mapstructure:"notify"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
