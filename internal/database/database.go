package database

import (
	"database/sql"
	"embed"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Local connections take the write lock at BEGIN so concurrent writers queue
// behind each other instead of failing on upgrade.
const localParams = "_txlock=immediate&_busy_timeout=5000&_foreign_keys=on"

// InitDB opens the database and migrates it to the latest schema. The returned
// teardown closes the connection pool.
func InitDB(dbPath string, primaryUrl string, authToken string) (*sql.DB, func(), error) {
	var db *sql.DB
	var err error
	if primaryUrl == "" {
		db, err = openLocal(dbPath)
		if err != nil {
			return nil, nil, err
		}
	} else {
		log.Info("Initializing Turso database", "url", primaryUrl)
		db, err = sql.Open("libsql", primaryUrl+"?authToken="+authToken)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open db %s: %s", primaryUrl, err)
			return nil, nil, fmt.Errorf("failed to open db %s: %w", primaryUrl, err)
		}
		// Foreign key support is not enabled by default in SQLite
		if _, err = db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
			log.Error("Error enabling foreign keys:", "error", err)
			db.Close()
			return nil, nil, err
		}
	}

	if err = migrate(db); err != nil {
		db.Close() // Close on error
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	teardown := func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", "error", err)
		}
	}
	return db, teardown, nil
}

func openLocal(dbPath string) (*sql.DB, error) {
	log.Info("Initializing local-only SQLite database", "path", dbPath)
	if dbPath == ":memory:" {
		db, err := sql.Open("sqlite3", "file::memory:?"+localParams)
		if err != nil {
			return nil, fmt.Errorf("failed to open local database: %w", err)
		}
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
		return db, nil
	}
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?"+localParams+"&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return err
	}
	log.Info("Database initialized successfully")
	return nil
}
