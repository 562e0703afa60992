package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/catchouli/better-tactics/internal/domain"
	"github.com/catchouli/better-tactics/internal/store"
)

var _ store.AppDataStore = (*AppDataStore)(nil)

// AppDataStore implements store.AppDataStore against PostgreSQL.
type AppDataStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewAppDataStore constructs an AppDataStore. db may be a *sql.DB or a *sql.Tx.
func NewAppDataStore(db store.DBTX, log *slog.Logger) *AppDataStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &AppDataStore{db: db, logger: log.With(slog.String("component", "app_data_store"))}
}

func (s *AppDataStore) Get(ctx context.Context, environment string) (*domain.AppData, error) {
	const q = `SELECT environment, lichess_db_imported, last_backup_date FROM app_data WHERE environment = $1`

	var a domain.AppData
	var lastBackup sql.NullTime
	err := s.db.QueryRowContext(ctx, q, environment).Scan(&a.Environment, &a.LichessDBImported, &lastBackup)
	if err == nil {
		if lastBackup.Valid {
			a.LastBackupDate = &lastBackup.Time
		}
		return &a, nil
	}
	if !IsNotFoundErr(err) {
		return nil, MapError(err)
	}

	const insert = `
		INSERT INTO app_data (environment, lichess_db_imported)
		VALUES ($1, false)
		ON CONFLICT (environment) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, insert, environment); err != nil {
		return nil, fmt.Errorf("failed to initialize app data: %w", MapError(err))
	}
	return &domain.AppData{Environment: environment}, nil
}

func (s *AppDataStore) SetLichessDBImported(ctx context.Context, environment string, imported bool) error {
	const q = `
		INSERT INTO app_data (environment, lichess_db_imported)
		VALUES ($1, $2)
		ON CONFLICT (environment) DO UPDATE SET lichess_db_imported = excluded.lichess_db_imported`

	_, err := s.db.ExecContext(ctx, q, environment, imported)
	if err != nil {
		return fmt.Errorf("failed to update lichess_db_imported: %w", MapError(err))
	}
	return nil
}

func (s *AppDataStore) SetLastBackupDate(ctx context.Context, environment string, when time.Time) error {
	const q = `
		INSERT INTO app_data (environment, lichess_db_imported, last_backup_date)
		VALUES ($1, false, $2)
		ON CONFLICT (environment) DO UPDATE SET last_backup_date = excluded.last_backup_date`

	_, err := s.db.ExecContext(ctx, q, environment, when)
	if err != nil {
		return fmt.Errorf("failed to update last_backup_date: %w", MapError(err))
	}
	return nil
}

func (s *AppDataStore) WithTx(tx *sql.Tx) store.AppDataStore {
	return &AppDataStore{db: tx, logger: s.logger}
}

// IsNotFoundErr reports whether err represents a "row does not exist"
// result from a QueryRowContext.Scan call.
func IsNotFoundErr(err error) bool {
	return err == sql.ErrNoRows
}
