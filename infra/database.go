package infra

import (
	"errors"
	"strings"
	"time"

	infrarepo "github.com/yieldvault/ledger/infra/repository"
	"github.com/yieldvault/ledger/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDBConnection opens the database named by cnf.Url. PostgreSQL URLs are
// used as-is; "sqlite:" URLs open a local SQLite file and create the schema
// from the models, which is only meant for development.
func NewDBConnection(cnf *config.DB, appEnv string) (*gorm.DB, error) {
	if cnf == nil || cnf.Url == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	databaseUrl := cnf.Url

	var logMode logger.LogLevel
	if appEnv == "development" {
		logMode = logger.Info
	} else {
		logMode = logger.Silent
	}
	gormCfg := &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}

	if path, ok := strings.CutPrefix(databaseUrl, "sqlite:"); ok {
		connection, err := gorm.Open(sqlite.Open(path), gormCfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := connection.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		if err := infrarepo.AutoMigrate(connection); err != nil {
			return nil, err
		}
		return connection, nil
	}

	connection, err := gorm.Open(postgres.Open(databaseUrl), gormCfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := connection.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	return connection, nil
}
