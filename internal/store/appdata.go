package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/catchouli/better-tactics/internal/domain"
)

// AppDataStore defines the interface for the environment-keyed singleton
// tracking whether the puzzle corpus has been imported and when the
// database was last backed up.
type AppDataStore interface {
	// Get retrieves the AppData row for environment, creating a
	// zero-value row (LichessDBImported false, no backup date) the first
	// time it is requested.
	Get(ctx context.Context, environment string) (*domain.AppData, error)

	// SetLichessDBImported updates the imported flag.
	SetLichessDBImported(ctx context.Context, environment string, imported bool) error

	// SetLastBackupDate records when the most recent backup completed.
	SetLastBackupDate(ctx context.Context, environment string, when time.Time) error

	// WithTx returns an AppDataStore bound to tx.
	WithTx(tx *sql.Tx) AppDataStore
}
