package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Runner применяет миграции goose к базе.
type Runner struct {
	pool          *pgxpool.Pool
	dsn           string
	migrationsDir string
	logger        *zap.Logger
}

func New(pool *pgxpool.Pool, dsn, migrationsDir string, logger *zap.Logger) (Runner, error) {
	if pool == nil {
		return Runner{}, errors.New("не передан пул соединений")
	}
	if dsn == "" {
		return Runner{}, errors.New("пустая строка подключения к БД")
	}
	if migrationsDir == "" {
		return Runner{}, errors.New("не указан каталог миграций")
	}
	if _, err := os.Stat(migrationsDir); err != nil {
		return Runner{}, fmt.Errorf("каталог миграций не найден: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return Runner{pool: pool, dsn: dsn, migrationsDir: migrationsDir, logger: logger}, nil
}

// Ensure применяет все новые миграции.
func (r Runner) Ensure(ctx context.Context) error {
	return r.withDB(func(db *sql.DB) error {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		r.logger.Info("Применение миграций", zap.String("dir", r.migrationsDir))
		if err := goose.UpContext(runCtx, db, r.migrationsDir); err != nil {
			return fmt.Errorf("ошибка применения миграций: %w", err)
		}
		r.logger.Info("Миграции применены")
		return nil
	})
}

func (r Runner) Status(ctx context.Context) error {
	return r.withDB(func(db *sql.DB) error {
		r.logger.Info("Статус миграций", zap.String("dir", r.migrationsDir))
		if err := goose.StatusContext(ctx, db, r.migrationsDir); err != nil {
			return fmt.Errorf("ошибка получения статуса миграций: %w", err)
		}
		return nil
	})
}

// Down откатывает последнюю миграцию либо все миграции до targetVersion.
func (r Runner) Down(ctx context.Context, targetVersion int64) error {
	return r.withDB(func(db *sql.DB) error {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		if targetVersion > 0 {
			r.logger.Info("Откат миграций до версии", zap.Int64("target", targetVersion))
			if err := goose.DownToContext(runCtx, db, r.migrationsDir, targetVersion); err != nil {
				return fmt.Errorf("ошибка отката до версии %d: %w", targetVersion, err)
			}
		} else {
			r.logger.Info("Откат последней миграции")
			if err := goose.DownContext(runCtx, db, r.migrationsDir); err != nil {
				return fmt.Errorf("ошибка отката последней миграции: %w", err)
			}
		}
		return nil
	})
}

func (r Runner) Close() {
	r.pool.Close()
}

func (r Runner) withDB(fn func(*sql.DB) error) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("ошибка настройки goose: %w", err)
	}

	db, err := sql.Open("pgx", r.dsn)
	if err != nil {
		return fmt.Errorf("ошибка открытия sql-соединения: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("БД недоступна: %w", err)
	}
	return fn(db)
}
