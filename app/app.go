// Package app wires configuration into databases, storage and services for the binaries
package app

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"vendor-inventory-import/conf"
	"vendor-inventory-import/controller"
	"vendor-inventory-import/database"
	"vendor-inventory-import/service/common_service/fieldmap"
	"vendor-inventory-import/service/common_service/validation"
	"vendor-inventory-import/service/import_service"
	"vendor-inventory-import/service/shipping_service"
	"vendor-inventory-import/storage"
)

// InitDatabase initialize database based on configuration
func InitDatabase() error {
	dbType := database.DBType(conf.Cfg.Database.Type)

	switch dbType {
	case database.DBTypeMySQL, database.DBTypePostgres, database.DBTypeSQLite:
		return database.InitDatabase(dbType, &database.GormConfig{
			Dialect:      dbType,
			DSN:          conf.Cfg.Database.Dsn,
			MaxOpenConns: conf.Cfg.Database.MaxOpenConns,
			MaxIdleConns: conf.Cfg.Database.MaxIdleConns,
			LogLevel:     conf.Cfg.Database.LogLevel,
		})

	case database.DBTypePebble, "":
		if dbType == "" {
			conf.Log.Warn("Database type not specified, defaulting to pebble")
		}
		return database.InitDatabase(database.DBTypePebble, &database.PebbleConfig{
			DataDir: conf.Cfg.Database.DataDir,
		})

	default:
		return database.ErrUnsupportedDBType
	}
}

// Options knobs that differ between the API server and the CLI
type Options struct {
	OnBatch func(import_service.BatchReport)
}

// NewServices builds every service over the initialized database and storage
func NewServices(db database.Database, store storage.Storage, opts Options) *controller.Services {
	cfg := conf.Cfg
	normalizer := fieldmap.NewNormalizer(cfg.Import.Locations)

	locker := import_service.NewKeyLocker(cfg.Reconcile.LockBackend, database.RedisClient, cfg.Reconcile.LockTTL)
	reconciler := import_service.NewReconcileService(db, locker, cfg.Reconcile.Timeout)
	scheduler := import_service.NewChunkScheduler(db, store, normalizer, validation.NewValidator(), reconciler,
		import_service.SchedulerOptions{
			BatchSize:     cfg.Import.BatchSize,
			AutoReconcile: cfg.Import.AutoReconcile,
			OnBatch:       opts.OnBatch,
		})
	progress := import_service.NewProgressService(db, scheduler, cfg.Import.ProgressCacheTTL)

	var gate shipping_service.Cooldown
	if database.IsRedisEnabled() {
		gate = shipping_service.NewRedisCooldown(database.RedisClient, cfg.Shipping.Cooldown)
	} else {
		gate = shipping_service.NewLocalCooldown(cfg.Shipping.Cooldown)
	}

	conf.Log.WithFields(logrus.Fields{
		"locations":     normalizer.Locations(),
		"chunkSize":     cfg.Import.ChunkSize,
		"batchSize":     cfg.Import.BatchSize,
		"autoReconcile": cfg.Import.AutoReconcile,
		"lockBackend":   cfg.Reconcile.LockBackend,
	}).Info("Import services initialized")

	return &controller.Services{
		Normalizer: normalizer,
		Imports: import_service.NewImportService(db, store, normalizer, scheduler, progress, import_service.ImportOptions{
			ChunkSize:   cfg.Import.ChunkSize,
			MaxFileSize: cfg.Import.MaxFileSize,
		}),
		Scheduler:  scheduler,
		Progress:   progress,
		Staging:    import_service.NewStagingService(db),
		Reconciler: reconciler,
		Mass:       import_service.NewMassCorrectionService(db),
		Exporter:   import_service.NewExportService(db, normalizer),
		Quotes: shipping_service.NewQuoteService(gate, shipping_service.QuoteOptions{
			Url:      cfg.Shipping.QuoteUrl,
			RatePath: cfg.Shipping.RatePath,
			Timeout:  cfg.Shipping.Timeout,
		}),
		MaxBytes: cfg.Import.MaxFileSize,
	}
}

// ArchiveRetention retention of raw files of completed runs
func ArchiveRetention() time.Duration {
	return time.Duration(conf.Cfg.Import.ArchiveRetentionHours) * time.Hour
}

// Bootstrap loads configuration and opens the database, Redis and storage.
// The returned cleanup closes what was opened.
func Bootstrap(env, configPath string) (storage.Storage, func(), error) {
	conf.SystemEnvironmentEnum = conf.ParseEnvironment(env)
	conf.ConfigPath = configPath

	if err := conf.InitConfig(); err != nil {
		return nil, nil, errors.Wrap(err, "failed to initialize config")
	}
	conf.Log.WithFields(logrus.Fields{
		"env":      conf.SystemEnvironmentEnum.String(),
		"port":     conf.Cfg.Port,
		"database": conf.Cfg.Database.Type,
	}).Info("Configuration loaded")

	if err := InitDatabase(); err != nil {
		return nil, nil, errors.Wrap(err, "failed to initialize database")
	}

	// Redis is optional; quotes and key locks fall back to in-process state
	if err := database.InitRedis(); err != nil {
		conf.Log.WithError(err).Warn("Redis initialization failed, continuing without it")
		_ = database.CloseRedis()
		database.RedisClient = nil
	}

	store, err := storage.NewStorage()
	if err != nil {
		closeAll()
		return nil, nil, errors.Wrap(err, "failed to initialize storage")
	}
	conf.Log.WithField("type", conf.Cfg.Storage.Type).Info("Storage initialized")

	return store, closeAll, nil
}

func closeAll() {
	if database.DB != nil {
		if err := database.DB.Close(); err != nil {
			conf.Log.WithError(err).Error("Failed to close database")
		}
	}
	if err := database.CloseRedis(); err != nil {
		conf.Log.WithError(err).Error("Failed to close Redis")
	}
}
