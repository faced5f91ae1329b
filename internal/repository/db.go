package repository

import (
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenSQLite открывает базу SQLite и включает внешние ключи.
// SQLite допускает одного писателя, поэтому пул ограничен одним соединением
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true, // SQLite ограничения
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	// Включаем поддержку внешних ключей (требуется для SQLite)
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logrus.Warnf("failed to enable foreign keys: %v", err)
	}
	if !strings.Contains(dsn, ":memory:") {
		if _, err := sqlDB.Exec("PRAGMA journal_mode = WAL"); err != nil {
			logrus.Warnf("failed to enable WAL: %v", err)
		}
	}

	return db, nil
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return logger
}
