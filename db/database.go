package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/agnosto/dm-archiver/db/models"
	"github.com/agnosto/dm-archiver/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	// registers the "sqlite" driver used for the raw legacy schema check
	_ "modernc.org/sqlite"
)

// Database represents the database connection
type Database struct {
	DB     *gorm.DB
	Driver string
}

// NewDatabase opens the database behind connector, imports a legacy schema
// if one is found and migrates the tables.
func NewDatabase(connector string) (*Database, error) {
	conn, err := ParseConnector(connector)
	if err != nil {
		return nil, err
	}

	needsImport := false
	if path := conn.filePath(); path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		needsImport, err = checkLegacySchema(path)
		if err != nil {
			return nil, fmt.Errorf("failed to check database schema: %w", err)
		}
	}

	logConfig := gormlogger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	}

	db, err := gorm.Open(conn.Dialector(), &gorm.Config{
		Logger:         gormlogger.New(logger.GormWriter{}, logConfig),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if needsImport {
		logger.Logger.Info().Str("path", conn.filePath()).Msg("importing legacy database")
		if err := importLegacySchema(db); err != nil {
			closeQuietly(db)
			return nil, fmt.Errorf("failed to import legacy schema: %w", err)
		}
	} else if err := db.AutoMigrate(models.All()...); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Database{DB: db, Driver: conn.Driver}, nil
}

// checkLegacySchema reports whether the sqlite file at path still holds the
// tables of the earlier bot.
func checkLegacySchema(path string) (bool, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return false, nil
	}
	defer sqlDB.Close()

	var count int
	err = sqlDB.QueryRow(`SELECT COUNT(*) FROM sqlite_master
                         WHERE type='table' AND name='twitterUser'`).Scan(&count)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// Healthy reports whether the database answers a ping.
func (d *Database) Healthy(ctx context.Context) bool {
	sqlDB, err := d.DB.DB()
	if err != nil {
		logger.Logger.Error().Err(err).Msg("database handle unavailable")
		return false
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("database ping failed")
		return false
	}
	return true
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func closeQuietly(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
