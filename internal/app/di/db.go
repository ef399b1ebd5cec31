package di

import (
	"gorm.io/gorm"

	authadapters "auth_backend/internal/feature/auth/adapters"
	"auth_backend/internal/platform/config"
	"auth_backend/internal/platform/db"
)

// DBConfig maps the DB_* settings onto connection parameters.
func DBConfig(cfg *config.Config) db.Config {
	return db.Config{
		Host:         cfg.DBHost,
		Port:         cfg.DBPort,
		User:         cfg.DBUser,
		Password:     cfg.DBPassword,
		Name:         cfg.DBName,
		SSLMode:      cfg.DBSSLMode,
		InstanceName: cfg.DBInstanceName,
	}
}

// OpenDB connects to PostgreSQL, retrying for DB_CONNECT_TIMEOUT.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	return db.OpenDB(DBConfig(cfg), cfg.DBConnectTimeout)
}

// Migrate creates or updates the auth tables.
func Migrate(gdb *gorm.DB) error {
	return db.Migrate(gdb, authadapters.Models()...)
}
