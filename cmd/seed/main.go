// Команда seed применяет миграции и создаёт учётные записи по умолчанию,
// при флаге -activities также примеры активностей за последние дни.
package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/config"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/migrations"
	seedservice "github.com/magabrotheeeer/qa-activity-tracker/internal/services/seed"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/storage/repository"
)

func main() {
	withActivities := flag.Bool("activities", false, "also create sample activities for every account")
	flag.Parse()

	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("err", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		logger.Error("failed to apply migrations", slog.Any("err", err))
		os.Exit(1)
	}

	svc := seedservice.NewSeedService(logger, db, rand.New(rand.NewSource(time.Now().UnixNano())), time.Now)
	users, err := svc.Run(ctx, *withActivities)
	if err != nil {
		logger.Error("seeding failed", slog.Any("err", err))
		os.Exit(1)
	}

	for _, u := range users {
		logger.Info("account ready", slog.String("email", u.Email), slog.String("role", string(u.Role)))
	}
}
