package database

import (
	"context"
	"fmt"
	"time"

	"client-reports/internal/config"
	"client-reports/internal/logging"
	"client-reports/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Options struct {
	Driver string
	DSN    string
	Logger logging.Logger

	MaxAttempts int
	RetryDelay  time.Duration
}

// Open подключается к базе с повторными попытками (postgres в docker поднимается не сразу)
// и прогоняет миграции.
func Open(ctx context.Context, opts Options) (*gorm.DB, error) {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 10
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	gcfg := &gorm.Config{
		Logger:         NewGormLogger(opts.Logger),
		TranslateError: true,
	}

	var (
		db  *gorm.DB
		err error
	)
	for i := 1; i <= opts.MaxAttempts; i++ {
		opts.Logger.Info(ctx, "connecting to database", "driver", opts.Driver, "attempt", i, "max_attempts", opts.MaxAttempts)

		db, err = gorm.Open(dialector(opts.Driver, opts.DSN), gcfg)
		if err == nil {
			break
		}

		opts.Logger.Warn(ctx, "failed to connect to database", "err", err)
		if i == opts.MaxAttempts {
			return nil, fmt.Errorf("connect to db after %d attempts: %w", opts.MaxAttempts, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.RetryDelay):
		}
	}

	if opts.Driver == config.DriverSQLite {
		if err := enableSQLiteForeignKeys(db); err != nil {
			return nil, err
		}
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	opts.Logger.Info(ctx, "connected to database", "driver", opts.Driver)
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Client{},
		&models.Report{},
		&models.ReportFile{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func dialector(driver, dsn string) gorm.Dialector {
	if driver == config.DriverSQLite {
		return sqliteDialector(dsn)
	}
	return postgres.Open(dsn)
}

// PRAGMA действует на одно соединение, поэтому пул ограничен одним соединением.
func enableSQLiteForeignKeys(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return fmt.Errorf("enable sqlite foreign keys: %w", err)
	}
	return nil
}
