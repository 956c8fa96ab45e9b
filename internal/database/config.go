package database

import (
	"fmt"
	"time"

	"matchamap/internal/logger"
	"matchamap/internal/models"
	"matchamap/internal/utils"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var DB *gorm.DB

// Options tunes the connection. Zero values fall back to the defaults.
type Options struct {
	MaxRetries int
	RetryDelay time.Duration
	LogSQL     bool
}

// zapWriter adapts a zap logger to the gorm logger writer interface
type zapWriter struct {
	log *zap.SugaredLogger
}

func (w zapWriter) Printf(format string, args ...interface{}) {
	w.log.Infof(format, args...)
}

// InitDB opens the postgres connection, tunes the pool, registers the metrics plugin and
// migrates the place tables.
func InitDB(dsn string, opts Options) error {
	log := logger.GetLogger("database")

	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 5 * time.Second
	}

	logLevel := gormlogger.Warn
	if opts.LogSQL {
		logLevel = gormlogger.Info
	}
	baseLogger := gormlogger.New(
		zapWriter{log: log},
		gormlogger.Config{
			SlowThreshold:             time.Second, // Log queries slower than 1 second
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true, // Cache misses are expected
			Colorful:                  false,
		},
	)

	// Janitor sweeps run every few minutes and are noise in the SQL log
	customLogger := utils.NewCustomGormLogger(
		baseLogger,
		`DELETE FROM "place_search_cache" WHERE created_at <`,
	)

	gormConfig := &gorm.Config{
		Logger: customLogger,
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
		PrepareStmt:            true,
		SkipDefaultTransaction: true, // Single-statement upserts need no wrapping transaction
	}

	var db *gorm.DB
	var err error
	for i := 0; i < opts.MaxRetries; i++ {
		db, err = gorm.Open(postgres.Open(dsn), gormConfig)
		if err == nil {
			break
		}
		log.Warnw("database connection attempt failed", "attempt", i+1, "error", err)
		if i < opts.MaxRetries-1 {
			log.Infof("Retrying in %v...", opts.RetryDelay)
			time.Sleep(opts.RetryDelay)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database after %d attempts: %w", opts.MaxRetries, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.Use(&MetricsPlugin{}); err != nil {
		return fmt.Errorf("failed to register metrics plugin: %w", err)
	}

	if err := Migrate(db); err != nil {
		return err
	}

	DB = db
	log.Info("Database connection established and migrations completed")
	return nil
}

// Migrate creates or updates the place tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.PlaceCache{},
		&models.PlaceSearchCache{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// Close closes the underlying connection pool
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
