// Package importer defines the interface the bulk puzzle-corpus importer
// implements. The importer's body — parsing the Lichess puzzle CSV
// export, decompressing it, and batch-inserting rows — is an external
// collaborator outside this repository's core scope (see SPEC_FULL.md);
// this package only defines the seam the core depends on and a minimal
// implementation sufficient to exercise internal/store.PuzzleStore and
// internal/store.AppDataStore end to end.
package importer

import (
	"context"
	"log/slog"

	"github.com/catchouli/better-tactics/internal/domain"
	"github.com/catchouli/better-tactics/internal/platform/logger"
	"github.com/catchouli/better-tactics/internal/store"
)

// Importer bulk-loads puzzles into the corpus and records that the
// import has happened.
type Importer interface {
	// Import loads puzzles into the store, skipping any whose ID
	// already exists, then marks the given environment's AppData as
	// imported.
	Import(ctx context.Context, environment string, puzzles []*domain.Puzzle) error
}

type importer struct {
	puzzleStore  store.PuzzleStore
	appDataStore store.AppDataStore
	logger       *slog.Logger
}

// New constructs an Importer.
func New(puzzleStore store.PuzzleStore, appDataStore store.AppDataStore, log *slog.Logger) Importer {
	if log == nil {
		log = slog.Default()
	}
	return &importer{
		puzzleStore:  puzzleStore,
		appDataStore: appDataStore,
		logger:       log.With(slog.String("component", "importer")),
	}
}

func (i *importer) Import(ctx context.Context, environment string, puzzles []*domain.Puzzle) error {
	log := logger.FromContextOrDefault(ctx, i.logger)
	log.Info("importing puzzles", slog.Int("count", len(puzzles)))

	if err := i.puzzleStore.CreateMultiple(ctx, puzzles); err != nil {
		return err
	}
	return i.appDataStore.SetLichessDBImported(ctx, environment, true)
}
