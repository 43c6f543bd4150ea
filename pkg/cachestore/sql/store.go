// Package sql provides a cache store backed by SQLite or PostgreSQL via GORM.
package sql

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/marmos91/feedpager/internal/logger"
	"github.com/marmos91/feedpager/pkg/cachestore"
)

// DatabaseType defines the supported database backends.
type DatabaseType string

const (
	// DatabaseTypeSQLite uses a local SQLite file (default).
	DatabaseTypeSQLite DatabaseType = "sqlite"

	// DatabaseTypePostgres uses PostgreSQL, shared by several processes.
	DatabaseTypePostgres DatabaseType = "postgres"
)

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the path to the SQLite database file.
	// Default: $XDG_CACHE_HOME/feedpager/cache.db
	Path string `mapstructure:"path" yaml:"path"`
}

// PostgresConfig contains PostgreSQL-specific configuration.
type PostgresConfig struct {
	Host         string `mapstructure:"host" yaml:"host"`
	Port         int    `mapstructure:"port" yaml:"port"`
	Database     string `mapstructure:"database" yaml:"database"`
	User         string `mapstructure:"user" yaml:"user"`
	Password     string `mapstructure:"password" yaml:"password"`
	SSLMode      string `mapstructure:"sslmode" yaml:"sslmode"` // disable, require, verify-ca, verify-full
	MaxOpenConns int    `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
}

// DSN returns the PostgreSQL connection string.
func (c *PostgresConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		c.Host, c.Port, c.User, c.Password, c.Database)
	if c.SSLMode != "" {
		dsn += fmt.Sprintf(" sslmode=%s", c.SSLMode)
	}
	return dsn
}

// URL returns the connection string in URL form.
func (c *PostgresConfig) URL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	if c.SSLMode != "" {
		u.RawQuery = "sslmode=" + url.QueryEscape(c.SSLMode)
	}
	return u.String()
}

// Config contains database configuration.
type Config struct {
	Type     DatabaseType   `mapstructure:"type" yaml:"type"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite" yaml:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
}

// ApplyDefaults fills in missing configuration with default values.
func (c *Config) ApplyDefaults() {
	if c.Type == "" {
		c.Type = DatabaseTypeSQLite
	}

	if c.Type == DatabaseTypeSQLite && c.SQLite.Path == "" {
		cacheDir := os.Getenv("XDG_CACHE_HOME")
		if cacheDir == "" {
			homeDir, _ := os.UserHomeDir()
			cacheDir = filepath.Join(homeDir, ".cache")
		}
		c.SQLite.Path = filepath.Join(cacheDir, "feedpager", "cache.db")
	}

	if c.Type == DatabaseTypePostgres {
		if c.Postgres.Port == 0 {
			c.Postgres.Port = 5432
		}
		if c.Postgres.SSLMode == "" {
			c.Postgres.SSLMode = "disable"
		}
		if c.Postgres.MaxOpenConns == 0 {
			c.Postgres.MaxOpenConns = 10
		}
		if c.Postgres.MaxIdleConns == 0 {
			c.Postgres.MaxIdleConns = 2
		}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Type {
	case DatabaseTypeSQLite:
		if c.SQLite.Path == "" {
			return errors.New("sqlite path is required")
		}
	case DatabaseTypePostgres:
		if c.Postgres.Host == "" {
			return errors.New("postgres host is required")
		}
		if c.Postgres.Database == "" {
			return errors.New("postgres database is required")
		}
		if c.Postgres.User == "" {
			return errors.New("postgres user is required")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Type)
	}
	return nil
}

// CacheEntry is the row model for one cached page.
type CacheEntry struct {
	CacheKey  string    `gorm:"primaryKey;size:1024"`
	Value     []byte    `gorm:"not null"`
	Size      int64     `gorm:"not null"`
	UpdatedAt time.Time `gorm:"index;autoUpdateTime:false"`
}

// TableName overrides the GORM table name.
func (CacheEntry) TableName() string {
	return "cache_entries"
}

// Store is a cachestore.Store backed by GORM.
type Store struct {
	db     *gorm.DB
	config *Config
	closed atomic.Bool
	now    func() time.Time
}

// New opens the database described by config and migrates the schema.
func New(config *Config) (*Store, error) {
	if config == nil {
		config = &Config{}
	}
	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cache database configuration: %w", err)
	}

	var dialector gorm.Dialector
	switch config.Type {
	case DatabaseTypeSQLite:
		if err := os.MkdirAll(filepath.Dir(config.SQLite.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		// WAL lets page reads proceed while a write-back is committing.
		dsn := config.SQLite.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		dialector = sqlite.Open(dsn)

	case DatabaseTypePostgres:
		dialector = postgres.Open(config.Postgres.DSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if config.Type == DatabaseTypePostgres {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying database: %w", err)
		}
		sqlDB.SetMaxOpenConns(config.Postgres.MaxOpenConns)
		sqlDB.SetMaxIdleConns(config.Postgres.MaxIdleConns)
	}

	if err := migrateSchema(db, config); err != nil {
		return nil, err
	}

	logger.Debug("SQL cache store opened", logger.StoreType(string(config.Type)))

	return &Store{db: db, config: config, now: time.Now}, nil
}

// migrateSchema creates the cache table. PostgreSQL uses versioned
// migrations; SQLite files are private to one process and use AutoMigrate.
func migrateSchema(db *gorm.DB, config *Config) error {
	if config.Type == DatabaseTypePostgres {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return runMigrations(ctx, config.Postgres.URL())
	}

	if err := db.AutoMigrate(&CacheEntry{}); err != nil {
		return fmt.Errorf("failed to run database migration: %w", err)
	}
	return nil
}

// Get returns the entry for key.
func (s *Store) Get(ctx context.Context, key string) (cachestore.Entry, bool, error) {
	if s.closed.Load() {
		return cachestore.Entry{}, false, cachestore.ErrStoreClosed
	}

	var row CacheEntry
	err := s.db.WithContext(ctx).Where("cache_key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cachestore.Entry{}, false, nil
	}
	if err != nil {
		return cachestore.Entry{}, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	return cachestore.Entry{Key: row.CacheKey, Value: row.Value, UpdatedAt: row.UpdatedAt}, true, nil
}

// Set upserts value under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := cachestore.ValidateKey(key); err != nil {
		return err
	}
	if s.closed.Load() {
		return cachestore.ErrStoreClosed
	}
	if value == nil {
		value = []byte{}
	}

	row := CacheEntry{
		CacheKey:  key,
		Value:     value,
		Size:      int64(len(value)),
		UpdatedAt: s.now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "size", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if s.closed.Load() {
		return cachestore.ErrStoreClosed
	}
	if err := s.db.WithContext(ctx).Where("cache_key = ?", key).Delete(&CacheEntry{}).Error; err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// DeleteByPrefix removes all entries with the given prefix.
func (s *Store) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	if s.closed.Load() {
		return 0, cachestore.ErrStoreClosed
	}
	result := s.db.WithContext(ctx).Where(`cache_key LIKE ? ESCAPE '\'`, likePrefix(prefix)).Delete(&CacheEntry{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete cache entries: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}

// List describes all entries with the given prefix, in key order.
func (s *Store) List(ctx context.Context, prefix string) ([]cachestore.EntryInfo, error) {
	if s.closed.Load() {
		return nil, cachestore.ErrStoreClosed
	}

	var rows []CacheEntry
	err := s.db.WithContext(ctx).
		Select("cache_key", "size", "updated_at").
		Where(`cache_key LIKE ? ESCAPE '\'`, likePrefix(prefix)).
		Order("cache_key").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cache entries: %w", err)
	}

	infos := make([]cachestore.EntryInfo, 0, len(rows))
	for _, row := range rows {
		infos = append(infos, cachestore.EntryInfo{
			Key:       row.CacheKey,
			Size:      row.Size,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return infos, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// HealthCheck pings the database.
func (s *Store) HealthCheck(ctx context.Context) error {
	if s.closed.Load() {
		return cachestore.ErrStoreClosed
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

// likePrefix turns prefix into a LIKE pattern matching keys that start with it.
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}

var _ cachestore.Store = (*Store)(nil)
