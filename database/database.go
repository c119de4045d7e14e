package database

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"spreport/logging"

	_ "modernc.org/sqlite"
)

// Config holds database configuration
type Config struct {
	Path              string        `env:"DB_PATH" default:"./spreport.db"`
	MaxOpenConns      int           `env:"DB_MAX_OPEN_CONNS" default:"4"`
	MaxIdleConns      int           `env:"DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime   time.Duration `env:"DB_CONN_MAX_LIFETIME" default:"1h"`
	BusyTimeoutMs     int           `env:"DB_BUSY_TIMEOUT_MS" default:"5000"`
	EnableForeignKeys bool          `env:"DB_ENABLE_FOREIGN_KEYS" default:"true"`
	EnableWAL         bool          `env:"DB_ENABLE_WAL" default:"true"`
}

// Database wraps the SQL connection and provides managed access to the
// run-history store.
type Database struct {
	db     *sql.DB
	config Config
	logger *logging.Logger
}

// New opens the run-history database, configuring the connection and running
// migrations.
func New(config Config, logger *logging.Logger) (*Database, error) {
	dsn := buildDSN(config)

	dbExists := checkDatabaseExists(config.Path)
	logger.Database("Opening database connection",
		"path", config.Path,
		"exists", dbExists,
		"max_open_conns", config.MaxOpenConns)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	database := &Database{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := database.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := database.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	logger.Database("Database initialized successfully",
		"path", config.Path,
		"existed", dbExists,
		"wal_mode", config.EnableWAL)

	return database, nil
}

// buildDSN constructs the SQLite Data Source Name with proper parameters
func buildDSN(config Config) string {
	dsn := fmt.Sprintf("file:%s?", config.Path)
	dsn += fmt.Sprintf("_busy_timeout=%d", config.BusyTimeoutMs)

	if config.EnableWAL {
		dsn += "&_journal_mode=WAL"
	}
	if config.EnableForeignKeys {
		dsn += "&_foreign_keys=on"
	}
	dsn += "&_synchronous=normal"

	return dsn
}

// checkDatabaseExists reports whether the database file already exists on disk
func checkDatabaseExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// initialize configures the connection after creation
func (d *Database) initialize() error {
	if err := d.db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := d.db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", d.config.BusyTimeoutMs)); err != nil {
		return fmt.Errorf("failed to set busy_timeout: %w", err)
	}

	if d.config.EnableWAL {
		var journalMode string
		if err := d.db.QueryRow("PRAGMA journal_mode=WAL").Scan(&journalMode); err != nil {
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
		if journalMode != "wal" {
			d.logger.Warn("WAL mode not enabled", "journal_mode", journalMode)
		}
	}

	return nil
}

// DB returns the underlying database connection
func (d *Database) DB() *sql.DB {
	return d.db
}

// Close checkpoints the WAL and closes the connection
func (d *Database) Close() error {
	d.logger.Database("Closing database connection")

	if d.config.EnableWAL {
		if _, err := d.db.Exec("PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
			d.logger.Warn("failed to checkpoint WAL", "error", err)
		}
	}

	return d.db.Close()
}

// WithTx executes a function within a database transaction
func (d *Database) WithTx(fn func(*sql.Tx) error) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			d.logger.Error("Failed to rollback transaction", "error", rollbackErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
