package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config application configuration structure
type Config struct {
	// Network configuration
	Port           string
	SwaggerBaseUrl string // Swagger API base URL (e.g., "example.com:7290")

	// Database configuration
	Database DatabaseConfig

	// Storage configuration
	Storage StorageConfig

	// Redis configuration
	Redis RedisConfig

	// Import pipeline configuration
	Import ImportConfig

	// Reconciliation configuration
	Reconcile ReconcileConfig

	// Shipping quote configuration
	Shipping ShippingConfig

	// Log configuration
	Log LogConfig
}

// DatabaseConfig database configuration
type DatabaseConfig struct {
	Type         string // Database type: mysql, postgres, sqlite, pebble
	Dsn          string // SQL DSN (file path for sqlite)
	MaxOpenConns int    // SQL max open connections
	MaxIdleConns int    // SQL max idle connections
	DataDir      string // PebbleDB data directory
	LogLevel     string // gorm log level: silent, error, warn, info
}

// StorageConfig raw file archive configuration
type StorageConfig struct {
	Type  string
	Local LocalStorageConfig
	OSS   OSSStorageConfig
	S3    S3StorageConfig
	MinIO MinIOStorageConfig
}

// LocalStorageConfig local storage configuration
type LocalStorageConfig struct {
	BasePath string
}

// OSSStorageConfig OSS storage configuration
type OSSStorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

// S3StorageConfig AWS S3 storage configuration
type S3StorageConfig struct {
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Endpoint  string // Optional custom endpoint
}

// MinIOStorageConfig MinIO storage configuration
type MinIOStorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

// RedisConfig redis configuration
type RedisConfig struct {
	Enabled  bool   // Enable Redis cache
	Host     string // Redis host
	Port     int    // Redis port
	Password string // Redis password (optional)
	DB       int    // Redis database number
	CacheTTL int    // Cache TTL in seconds (default: 300)
}

// ImportConfig import pipeline configuration
type ImportConfig struct {
	ChunkSize             int           // Rows per chunk session
	BatchSize             int           // Rows per batch inside a chunk
	MaxFileSize           int64         // Bytes (configured in MB)
	AutoReconcile         bool          // Reconcile accepted rows while importing
	Locations             []string      // Stocking locations recognized in headers
	ProgressCacheTTL      time.Duration // Progress snapshot cache TTL
	ArchiveRetentionHours int           // Keep raw files of completed runs this long
	RecoveryInterval      time.Duration // Recovery processor poll interval
	StalledAfter          time.Duration // Processing sessions idle this long are resumed
}

// ReconcileConfig reconciliation configuration
type ReconcileConfig struct {
	Timeout     time.Duration // Per-row upsert timeout
	LockBackend string        // local or redis
	LockTTL     time.Duration // Redis lock TTL
}

// ShippingConfig shipping quote collaborator configuration
type ShippingConfig struct {
	Cooldown time.Duration // One forwarded request per window
	QuoteUrl string        // Carrier quote endpoint
	RatePath string        // gjson path of the rate in the carrier response
	Timeout  time.Duration
}

// LogConfig log configuration
type LogConfig struct {
	Level string
}

// Cfg global configuration instance
var Cfg *Config

// InitConfig initialize configuration
func InitConfig() error {
	// .env is optional, real environment variables win
	if err := godotenv.Load(); err == nil {
		Log.Info("Loaded .env file")
	}

	viper.SetConfigFile(GetYaml())
	viper.SetEnvPrefix("IMPORTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("Fatal error config file: %s", err)
	}

	// Create configuration instance
	Cfg = &Config{
		Port:           viper.GetString("port"),
		SwaggerBaseUrl: viper.GetString("swagger_base_url"),

		Database: DatabaseConfig{
			Type:         viper.GetString("database.type"),
			Dsn:          viper.GetString("database.dsn"),
			MaxOpenConns: viper.GetInt("database.max_open_conns"),
			MaxIdleConns: viper.GetInt("database.max_idle_conns"),
			DataDir:      viper.GetString("database.data_dir"),
			LogLevel:     viper.GetString("database.log_level"),
		},

		Storage: StorageConfig{
			Type: viper.GetString("storage.type"),
			Local: LocalStorageConfig{
				BasePath: viper.GetString("storage.local.base_path"),
			},
			OSS: OSSStorageConfig{
				Endpoint:  viper.GetString("storage.oss.endpoint"),
				AccessKey: viper.GetString("storage.oss.access_key"),
				SecretKey: viper.GetString("storage.oss.secret_key"),
				Bucket:    viper.GetString("storage.oss.bucket"),
			},
			S3: S3StorageConfig{
				Region:    viper.GetString("storage.s3.region"),
				AccessKey: viper.GetString("storage.s3.access_key"),
				SecretKey: viper.GetString("storage.s3.secret_key"),
				Bucket:    viper.GetString("storage.s3.bucket"),
				Endpoint:  viper.GetString("storage.s3.endpoint"),
			},
			MinIO: MinIOStorageConfig{
				Endpoint:  viper.GetString("storage.minio.endpoint"),
				AccessKey: viper.GetString("storage.minio.access_key"),
				SecretKey: viper.GetString("storage.minio.secret_key"),
				Bucket:    viper.GetString("storage.minio.bucket"),
			},
		},

		Redis: RedisConfig{
			Enabled:  viper.GetBool("redis.enabled"),
			Host:     viper.GetString("redis.host"),
			Port:     viper.GetInt("redis.port"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
			CacheTTL: viper.GetInt("redis.cache_ttl"),
		},

		Import: ImportConfig{
			ChunkSize:             viper.GetInt("import.chunk_size"),
			BatchSize:             viper.GetInt("import.batch_size"),
			MaxFileSize:           viper.GetInt64("import.max_file_size") * 1024 * 1024, // MB to bytes
			AutoReconcile:         true,
			Locations:             viper.GetStringSlice("import.locations"),
			ProgressCacheTTL:      viper.GetDuration("import.progress_cache_ttl"),
			ArchiveRetentionHours: viper.GetInt("import.archive_retention_hours"),
			RecoveryInterval:      viper.GetDuration("import.recovery_interval"),
			StalledAfter:          viper.GetDuration("import.stalled_after"),
		},

		Reconcile: ReconcileConfig{
			Timeout:     viper.GetDuration("reconcile.timeout"),
			LockBackend: viper.GetString("reconcile.lock_backend"),
			LockTTL:     viper.GetDuration("reconcile.lock_ttl"),
		},

		Shipping: ShippingConfig{
			Cooldown: viper.GetDuration("shipping.cooldown"),
			QuoteUrl: viper.GetString("shipping.quote_url"),
			RatePath: viper.GetString("shipping.rate_path"),
			Timeout:  viper.GetDuration("shipping.timeout"),
		},

		Log: LogConfig{
			Level: viper.GetString("log.level"),
		},
	}
	if viper.IsSet("import.auto_reconcile") {
		Cfg.Import.AutoReconcile = viper.GetBool("import.auto_reconcile")
	}

	applyDefaults(Cfg)
	SetLogLevel(Cfg.Log.Level)
	return nil
}

// applyDefaults fills unset values
func applyDefaults(c *Config) {
	if c.Port == "" {
		c.Port = "7290"
	}
	if c.SwaggerBaseUrl == "" {
		c.SwaggerBaseUrl = "localhost:" + c.Port
	}
	if c.Database.Type == "" {
		c.Database.Type = "pebble"
	}
	if c.Database.DataDir == "" {
		c.Database.DataDir = "./data/db"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 100
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 10
	}
	if c.Database.LogLevel == "" {
		c.Database.LogLevel = "warn"
	}
	if c.Storage.Type == "" {
		c.Storage.Type = "local"
	}
	if c.Storage.Local.BasePath == "" {
		c.Storage.Local.BasePath = "./data/files"
	}
	if c.Redis.CacheTTL == 0 {
		c.Redis.CacheTTL = 300
	}
	if c.Import.ChunkSize <= 0 {
		c.Import.ChunkSize = 5000
	}
	if c.Import.BatchSize <= 0 {
		c.Import.BatchSize = 50
	}
	if c.Import.MaxFileSize == 0 {
		c.Import.MaxFileSize = 50 * 1024 * 1024
	}
	if c.Import.ProgressCacheTTL == 0 {
		c.Import.ProgressCacheTTL = 2 * time.Second
	}
	if c.Import.ArchiveRetentionHours == 0 {
		c.Import.ArchiveRetentionHours = 7 * 24
	}
	if c.Import.RecoveryInterval == 0 {
		c.Import.RecoveryInterval = 30 * time.Second
	}
	if c.Import.StalledAfter == 0 {
		c.Import.StalledAfter = 5 * time.Minute
	}
	if c.Reconcile.Timeout == 0 {
		c.Reconcile.Timeout = 10 * time.Second
	}
	if c.Reconcile.LockBackend == "" {
		c.Reconcile.LockBackend = "local"
	}
	if c.Reconcile.LockTTL == 0 {
		c.Reconcile.LockTTL = 30 * time.Second
	}
	if c.Shipping.Cooldown == 0 {
		c.Shipping.Cooldown = 5 * time.Minute
	}
	if c.Shipping.RatePath == "" {
		c.Shipping.RatePath = "rate"
	}
	if c.Shipping.Timeout == 0 {
		c.Shipping.Timeout = 15 * time.Second
	}
}
