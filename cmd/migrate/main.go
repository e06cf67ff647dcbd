package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"leave-system/internal/migrate"
	"leave-system/pkg/config"
	"leave-system/pkg/database/postgresql"
	"leave-system/pkg/logger"
)

func main() {
	command := flag.String("command", "up", "команда миграции (up|status|down)")
	timeout := flag.Duration("timeout", time.Minute, "таймаут команды")
	target := flag.Int64("target", 0, "версия для отката down (необязательно)")
	flag.Parse()

	cfg := config.New()
	log := logger.NewLogger(cfg.Log)
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN, log)
	if err != nil {
		log.Error("Не удалось подключиться к БД", zap.Error(err))
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.Postgres.DSN, cfg.Postgres.MigrationsDir, log)
	if err != nil {
		log.Error("Не удалось настроить миграции", zap.Error(err))
		os.Exit(1)
	}
	defer runner.Close()

	switch *command {
	case "up":
		err = runner.Ensure(ctx)
	case "status":
		err = runner.Status(ctx)
	case "down":
		err = runner.Down(ctx, *target)
	default:
		log.Error("Неизвестная команда", zap.String("command", *command))
		os.Exit(1)
	}
	if err != nil {
		log.Error("Команда миграции завершилась ошибкой", zap.String("command", *command), zap.Error(err))
		os.Exit(1)
	}

	log.Info("Команда миграции выполнена", zap.String("command", *command))
}
