package database

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/medicast/triage/pkg/common/config"
	"github.com/medicast/triage/pkg/common/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	db     *gorm.DB
	dbOnce sync.Once
	dbErr  error
)

// GetPostgres opens the shared pool on first call. Patient, hospital and
// alert repositories all hang off the same *gorm.DB.
func GetPostgres(cfg *config.Config) (*gorm.DB, error) {
	dbOnce.Do(func() {
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.PostgresHost,
			cfg.PostgresUser,
			cfg.PostgresPassword,
			cfg.PostgresDB,
			cfg.PostgresPort,
			cfg.PostgresSSLMode,
		)

		db, dbErr = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if dbErr != nil {
			logger.Log.WithError(dbErr).Error("Failed to connect to PostgreSQL")
			return
		}

		sqlDB, err := db.DB()
		if err != nil {
			dbErr = err
			return
		}
		sqlDB.SetMaxOpenConns(cfg.PostgresMaxOpen)
		sqlDB.SetMaxIdleConns(cfg.PostgresMaxIdle)
		sqlDB.SetConnMaxLifetime(cfg.PostgresConnTTL)

		logger.Log.WithFields(map[string]interface{}{
			"host":      cfg.PostgresHost,
			"db":        cfg.PostgresDB,
			"max_conns": cfg.PostgresMaxOpen,
		}).Info("Connected to PostgreSQL")
	})

	return db, dbErr
}

// Ping backs the readiness probe.
func Ping(ctx context.Context, conn *gorm.DB) error {
	if conn == nil {
		return errors.New("postgres not initialised")
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func ClosePostgres() error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
