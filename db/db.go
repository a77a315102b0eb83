package db

import (
	"database/sql"
	"fmt"
	"os"
	"regexp"

	"github.com/charmbracelet/log"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var placeholderRegex = regexp.MustCompile(`\$[0-9]+`)

// DB wraps the database connection
type DB struct {
	conn   *sql.DB
	driver string
}

// NewDB opens a database connection. For postgres an empty connStr is built
// from the DATABASE_URL or DB_* environment variables; for sqlite it
// defaults to result.db.
func NewDB(driver, connStr string) (*DB, error) {
	switch driver {
	case DriverPostgres:
		if connStr == "" {
			connStr = postgresConnStr()
		}
	case DriverSQLite:
		if connStr == "" {
			connStr = "result.db"
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	conn, err := sql.Open(driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// a single writer avoids SQLITE_BUSY on the final save
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn, driver: driver}

	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

func postgresConnStr() string {
	if connStr := os.Getenv("DATABASE_URL"); connStr != "" {
		return connStr
	}

	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "phone_scraper")
	password := getEnvOrDefault("DB_PASSWORD", "")
	dbname := getEnvOrDefault("DB_NAME", "phone_scraper")
	sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// GetConn returns the underlying database connection
func (db *DB) GetConn() *sql.DB {
	return db.conn
}

// rebind rewrites $N placeholders for drivers that only take "?".
// Every query in this package uses each placeholder once and in order.
func (db *DB) rebind(query string) string {
	if db.driver == DriverPostgres {
		return query
	}
	return placeholderRegex.ReplaceAllString(query, "?")
}

// initSchema creates the necessary tables if they don't exist
func (db *DB) initSchema() error {
	idColumn := "BIGSERIAL PRIMARY KEY"
	if db.driver == DriverSQLite {
		idColumn = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	_, err := db.conn.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS phone_rows (
			id %s,
			dataset TEXT NOT NULL,
			url TEXT NOT NULL,
			phone TEXT NOT NULL,
			error TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, idColumn))
	if err != nil {
		return fmt.Errorf("failed to create phone_rows table: %w", err)
	}

	_, err = db.conn.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS page_results (
			id %s,
			dataset TEXT NOT NULL,
			run_id TEXT NOT NULL,
			url TEXT NOT NULL,
			phones TEXT NOT NULL,
			error TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, idColumn))
	if err != nil {
		return fmt.Errorf("failed to create page_results table: %w", err)
	}

	_, err = db.conn.Exec(`CREATE INDEX IF NOT EXISTS idx_phone_rows_dataset_url ON phone_rows(dataset, url)`)
	if err != nil {
		log.Warnf("Failed to create index on phone_rows(dataset, url): %v", err)
	}

	_, err = db.conn.Exec(`CREATE INDEX IF NOT EXISTS idx_page_results_dataset ON page_results(dataset)`)
	if err != nil {
		log.Warnf("Failed to create index on page_results.dataset: %v", err)
	}

	return nil
}
