package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/benvon/sneaker-inventory/internal/models"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB owns the pooled connection shared by every repository.
type DB struct {
	conn  *gorm.DB
	sqlDB *sql.DB
}

// PoolOptions tunes the underlying *sql.DB pool. Zero values keep driver defaults.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// New connects to Postgres through lib/pq and layers gorm on top of the same pool
func New(databaseURL string, pool PoolOptions) (*DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	applyPoolOptions(sqlDB, pool)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db, err := Open(postgres.New(postgres.Config{Conn: sqlDB}))
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Open wraps an arbitrary gorm dialector. Tests use it with sqlite.
func Open(dialector gorm.Dialector) (*DB, error) {
	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm connection: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}

	return &DB{conn: conn, sqlDB: sqlDB}, nil
}

func applyPoolOptions(sqlDB *sql.DB, pool PoolOptions) {
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
}

// Gorm returns the gorm handle for repositories that run outside a transaction.
func (db *DB) Gorm() *gorm.DB {
	return db.conn
}

// SQL returns the raw pool, used by migrations and pool tuning.
func (db *DB) SQL() *sql.DB {
	return db.sqlDB
}

// PingContext satisfies the health checker.
func (db *DB) PingContext(ctx context.Context) error {
	return db.sqlDB.PingContext(ctx)
}

// Close releases every pooled connection.
func (db *DB) Close() error {
	return db.sqlDB.Close()
}

// WithTx runs fn inside a single transaction. The transaction commits when fn
// returns nil and rolls back on error or panic.
func (db *DB) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return db.conn.WithContext(ctx).Transaction(fn)
}

// AutoMigrate creates the schema straight from the model tags.
// Production schema comes from the goose migrations; this is for throwaway databases.
func (db *DB) AutoMigrate() error {
	if err := db.conn.AutoMigrate(&models.User{}, &models.InventoryItem{}); err != nil {
		return fmt.Errorf("failed to auto-migrate schema: %w", err)
	}
	return nil
}
