package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Watermark sources accepted by sync.watermark_source.
const (
	WatermarkFromTable = "table"
	WatermarkFromCSV   = "csv"
	WatermarkNone      = "none"
)

// Config represents the sales sync configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Bsale      BsaleConfig      `mapstructure:"bsale"`
	Shopify    ShopifyConfig    `mapstructure:"shopify"`
	Sync       SyncConfig       `mapstructure:"sync"`
	Output     OutputConfig     `mapstructure:"output"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings for the health and metrics endpoints
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"gte=0,lte=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode" validate:"oneof=disable require verify-full"`
}

// BsaleConfig contains the vendor API settings
type BsaleConfig struct {
	BaseURL           string        `mapstructure:"base_url" validate:"required,url"`
	AccessToken       string        `mapstructure:"access_token"`
	PageSize          int           `mapstructure:"page_size" validate:"gt=0,lte=50"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond int           `mapstructure:"requests_per_second" validate:"gte=0"`
}

// ShopifyConfig contains the storefront order API settings
type ShopifyConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Store       string        `mapstructure:"store"`
	AccessToken string        `mapstructure:"access_token"`
	APIVersion  string        `mapstructure:"api_version"`
	PageSize    int           `mapstructure:"page_size" validate:"gt=0,lte=250"`
	Timezone    string        `mapstructure:"timezone"`
	Lookback    time.Duration `mapstructure:"lookback"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// SyncConfig controls which entities run and how their fetch window is derived
type SyncConfig struct {
	Entities        []string      `mapstructure:"entities"`
	Lookback        time.Duration `mapstructure:"lookback" validate:"gt=0"`
	DayBoundary     string        `mapstructure:"day_boundary"`
	WatermarkSource string        `mapstructure:"watermark_source" validate:"oneof=table csv none"`
	PersistPartial  bool          `mapstructure:"persist_partial"`
	Schedule        string        `mapstructure:"schedule"`
	MappingFile     string        `mapstructure:"mapping_file"`
	RunTimeout      time.Duration `mapstructure:"run_timeout"`
}

// OutputConfig selects the sinks a ResultSet is handed to
type OutputConfig struct {
	CSV         CSVOutputConfig   `mapstructure:"csv"`
	ObjectStore ObjectStoreConfig `mapstructure:"object_store"`
	Table       TableOutputConfig `mapstructure:"table"`
}

// CSVOutputConfig configures the local CSV sink
type CSVOutputConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Dir          string `mapstructure:"dir"`
	AppendGlobal bool   `mapstructure:"append_global"`
}

// ObjectStoreConfig configures the S3 compatible CSV upload
type ObjectStoreConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Bucket         string `mapstructure:"bucket"`
	Prefix         string `mapstructure:"prefix"`
	Region         string `mapstructure:"region"`
	Endpoint       string `mapstructure:"endpoint"`
	ForcePathStyle bool   `mapstructure:"force_path_style"`
}

// TableOutputConfig configures the relational sink
type TableOutputConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// MonitoringConfig contains monitoring and metrics settings
type MonitoringConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format" validate:"oneof=json console"`
	OutputPath string `mapstructure:"output_path"`
}

// envAliases keeps the variable names the deployed jobs already export.
var envAliases = map[string][]string{
	"bsale.access_token":   {"BSALE_ACCESS_TOKEN"},
	"shopify.store":        {"SHOPIFY_STORE"},
	"shopify.access_token": {"SHOPIFY_ACCESS_TOKEN"},
	"database.host":        {"DATABASE_HOST", "POSTGRES_HOST"},
	"database.port":        {"DATABASE_PORT", "POSTGRES_PORT"},
	"database.user":        {"DATABASE_USER", "POSTGRES_USER"},
	"database.password":    {"DATABASE_PASSWORD", "POSTGRES_PASSWORD"},
	"database.database":    {"DATABASE_DATABASE", "POSTGRES_DB"},
	"output.object_store.bucket": {
		"OUTPUT_OBJECT_STORE_BUCKET", "BLOB_CONTAINER_NAME",
	},
}

// Load loads configuration from file and environment variables.
// An empty path loads defaults and environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "15s")

	// Database defaults
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "sales")
	v.SetDefault("database.ssl_mode", "require")

	// Bsale defaults
	v.SetDefault("bsale.base_url", "https://api.bsale.cl/v1")
	v.SetDefault("bsale.access_token", "")
	v.SetDefault("bsale.page_size", 50)
	v.SetDefault("bsale.timeout", "30s")
	v.SetDefault("bsale.requests_per_second", 0)

	// Shopify defaults
	v.SetDefault("shopify.enabled", false)
	v.SetDefault("shopify.store", "")
	v.SetDefault("shopify.access_token", "")
	v.SetDefault("shopify.api_version", "2024-01")
	v.SetDefault("shopify.page_size", 100)
	v.SetDefault("shopify.timezone", "America/Santiago")
	v.SetDefault("shopify.lookback", "2160h")
	v.SetDefault("shopify.timeout", "30s")

	// Sync defaults
	v.SetDefault("sync.entities", []string{"documents", "payments"})
	v.SetDefault("sync.lookback", "2160h")
	v.SetDefault("sync.day_boundary", "UTC")
	v.SetDefault("sync.watermark_source", WatermarkFromTable)
	v.SetDefault("sync.persist_partial", false)
	v.SetDefault("sync.schedule", "0 0 6 * * *")
	v.SetDefault("sync.mapping_file", "")
	v.SetDefault("sync.run_timeout", "30m")

	// Output defaults
	v.SetDefault("output.csv.enabled", true)
	v.SetDefault("output.csv.dir", "data")
	v.SetDefault("output.csv.append_global", false)
	v.SetDefault("output.object_store.enabled", false)
	v.SetDefault("output.object_store.bucket", "")
	v.SetDefault("output.object_store.prefix", "")
	v.SetDefault("output.object_store.region", "")
	v.SetDefault("output.object_store.endpoint", "")
	v.SetDefault("output.object_store.force_path_style", false)
	v.SetDefault("output.table.enabled", true)

	// Monitoring defaults
	v.SetDefault("monitoring.enabled", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_path", "stdout")
}

func validate(config *Config) error {
	if err := validator.New().Struct(config); err != nil {
		return err
	}
	if config.NeedsDatabase() && config.Database.Host == "" {
		return errors.New("database.host is required when output.table or the table watermark is used")
	}
	if config.NeedsBsale() && config.Bsale.AccessToken == "" {
		return errors.New("bsale.access_token is required")
	}
	if config.Shopify.Enabled {
		if config.Shopify.Store == "" {
			return errors.New("shopify.store is required when shopify is enabled")
		}
		if config.Shopify.AccessToken == "" {
			return errors.New("shopify.access_token is required when shopify is enabled")
		}
		if _, err := time.LoadLocation(config.Shopify.Timezone); err != nil {
			return fmt.Errorf("shopify.timezone: %w", err)
		}
	}
	if config.Output.ObjectStore.Enabled && config.Output.ObjectStore.Bucket == "" {
		return errors.New("output.object_store.bucket is required when the object store is enabled")
	}
	if config.Sync.WatermarkSource == WatermarkFromCSV && !config.Output.CSV.AppendGlobal {
		return errors.New("sync.watermark_source=csv requires output.csv.append_global")
	}
	if _, err := time.LoadLocation(config.Sync.DayBoundary); err != nil {
		return fmt.Errorf("sync.day_boundary: %w", err)
	}
	return nil
}

// NeedsDatabase reports whether any configured component talks to PostgreSQL.
func (c *Config) NeedsDatabase() bool {
	return c.Output.Table.Enabled || c.Sync.WatermarkSource == WatermarkFromTable
}

// NeedsBsale reports whether any Bsale entity is scheduled.
func (c *Config) NeedsBsale() bool {
	return len(c.Sync.Entities) > 0
}

// DayBoundaryLocation returns the zone used to floor fetch windows to whole days.
func (c *SyncConfig) DayBoundaryLocation() *time.Location {
	loc, err := time.LoadLocation(c.DayBoundary)
	if err != nil {
		return time.UTC
	}
	return loc
}
