// Package main implements the entry point for the chess tactics trainer
// server: a spaced-repetition scheduler and Glicko-2 rating tracker over
// a corpus of tactical puzzles.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/catchouli/better-tactics/internal/api"
	"github.com/catchouli/better-tactics/internal/config"
	"github.com/catchouli/better-tactics/internal/domain"
	"github.com/catchouli/better-tactics/internal/domain/srs"
	"github.com/catchouli/better-tactics/internal/platform/clock"
	"github.com/catchouli/better-tactics/internal/platform/logger"
	"github.com/catchouli/better-tactics/internal/platform/postgres"
	"github.com/catchouli/better-tactics/internal/service/tactics"
	"github.com/catchouli/better-tactics/internal/store"
)

// singleUserID is the fixed identity the trainer operates as; see
// internal/api.singleUserID. Bootstrapped here so the store layer always
// has a user row to attach cards, reviews, and ratings to.
const singleUserID domain.UserID = "default"

func main() {
	migrateCmd := flag.String("migrate", "", "Run database migrations (up|down|create|status)")
	migrationName := flag.String("name", "", "Name for new migration file (used with -migrate=create)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if _, err := logger.Setup(cfg.Server); err != nil {
		slog.Error("failed to set up logger", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if *migrateCmd != "" {
		if err := runMigrations(db, *migrateCmd, *migrationName); err != nil {
			slog.Error("migration failed", slog.String("command", *migrateCmd), slog.String("error", err.Error()))
			os.Exit(1)
		}
		slog.Info("migration completed successfully", slog.String("command", *migrateCmd))
		return
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		slog.Error("failed to ping database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("database connection established")

	srv := buildServer(db, cfg)
	runServer(srv, cfg)
}

// buildServer wires the store, scheduling, rating, and service layers
// into an *http.Server ready to run.
func buildServer(db *sql.DB, cfg *config.Config) *http.Server {
	log := slog.Default()

	cardStore := postgres.NewCardStore(db, log)
	puzzleStore := postgres.NewPuzzleStore(db, log)
	userStore := postgres.NewUserStore(db, log)
	reviewStore := postgres.NewReviewStore(db, log)

	if err := bootstrapDefaultUser(context.Background(), userStore, log); err != nil {
		log.Error("failed to bootstrap default user", slog.String("error", err.Error()))
		os.Exit(1)
	}

	reviewOrder := srs.ReviewOrderDueTime
	switch cfg.Scheduler.ReviewOrder {
	case "puzzle_rating":
		reviewOrder = srs.ReviewOrderPuzzleRating
	case "random":
		reviewOrder = srs.ReviewOrderRandom
	}
	params := srs.NewParamsConfig().
		WithDayEndHour(cfg.Scheduler.DayEndHour).
		WithReviewOrder(reviewOrder).
		Build()

	clk := clock.New()
	srsService := srs.NewService(clk, params)

	svc, err := tactics.NewService(db, cardStore, puzzleStore, userStore, reviewStore, srsService, clk, log,
		cfg.Puzzle.RatingVariationUp, cfg.Puzzle.RatingVariationDown)
	if err != nil {
		slog.Error("failed to construct tactics service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	router := api.NewRouter(svc, cfg.Admin.PasswordHash, log)

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}
}

// bootstrapDefaultUser ensures the single learner's user row exists,
// creating it with the default rating triple on first run.
func bootstrapDefaultUser(ctx context.Context, userStore store.UserStore, log *slog.Logger) error {
	_, err := userStore.GetByID(ctx, singleUserID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	log.Info("creating default user", slog.String("user_id", string(singleUserID)))
	return userStore.Create(ctx, &domain.User{
		ID:     singleUserID,
		Rating: domain.NewDefaultUserRating(),
	})
}

// runServer starts srv and blocks until SIGINT/SIGTERM, then shuts down
// gracefully.
func runServer(srv *http.Server, cfg *config.Config) {
	go func() {
		slog.Info("starting server", slog.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", slog.String("error", err.Error()))
	}
	slog.Info("server shutdown completed")
}
