package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ArtistStudio/config"
	"ArtistStudio/logger"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	var err error
	DB, err = sql.Open("mysql", cfg.MySQLDSN())
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = DB.PingContext(ctx); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	DB.SetMaxOpenConns(50)
	DB.SetConnMaxLifetime(time.Hour)

	logger.Info("Successfully connected to the database.")
	return nil
}

// CloseDB closes the raw SQL pool.
func CloseDB() error {
	if DB == nil {
		return nil
	}
	return DB.Close()
}

// InitDB initializes the database schema, creating tables if they don't exist.
// upload_records is owned by GORM, see AutoMigrateModels.
func InitDB(ctx context.Context) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	return createUsersTable(ctx, DB)
}

func createUsersTable(ctx context.Context, conn *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(100) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(16) NOT NULL DEFAULT 'user',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);
	`
	if _, err := conn.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	logger.Info("Users table initialized successfully (or already exists).")
	return nil
}
