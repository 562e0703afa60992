package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
)

// migrationsDir is the directory (relative to this binary's working
// directory) holding goose's SQL migration files.
const migrationsDir = "internal/platform/postgres/migrations"

// slogGooseLogger adapts slog to goose's logger interface so migration
// output folds into the application's structured logs.
type slogGooseLogger struct{}

func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	slog.Info(fmt.Sprintf(format, v...))
}

func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error(fmt.Sprintf(format, v...))
}

// runMigrations applies the requested goose command (up, down, status,
// create) against db. name is only used by "create".
func runMigrations(db *sql.DB, command, name string) error {
	goose.SetLogger(&slogGooseLogger{})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	switch command {
	case "up":
		return goose.Up(db, migrationsDir)
	case "down":
		return goose.Down(db, migrationsDir)
	case "status":
		return goose.Status(db, migrationsDir)
	case "create":
		if name == "" {
			return fmt.Errorf("migration name is required for 'create'")
		}
		return goose.Create(db, migrationsDir, name, "sql")
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
}
