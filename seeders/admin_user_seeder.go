package seeders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leave-system/pkg/config"
	"leave-system/pkg/constants"
	"leave-system/pkg/utils"
)

func seedAdminUser(ctx context.Context, db *pgxpool.Pool, seed config.SeedConfig, policy config.LeavePolicyConfig) error {
	email := strings.ToLower(strings.TrimSpace(seed.AdminEmail))
	if email == "" || seed.AdminPassword == "" {
		return errors.New("не заданы SEED_ADMIN_EMAIL и SEED_ADMIN_PASSWORD")
	}

	var existingID uint64
	err := db.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&existingID)
	if err == nil {
		log.Printf("  - Пользователь %s уже существует (id=%d). Пропускаем.", email, existingID)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("ошибка при проверке существования пользователя: %w", err)
	}

	hashedPassword, err := utils.HashPassword(seed.AdminPassword)
	if err != nil {
		return err
	}

	var userID uint64
	err = db.QueryRow(ctx, `
		INSERT INTO users (first_name, last_name, email, password, role, leave_days, external_activities_limit)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (email) DO NOTHING
		RETURNING id`,
		"Системный", "Администратор", email, hashedPassword, string(constants.RoleAdmin),
		policy.AnnualLeaveDays, policy.ExternalActivitiesLimit,
	).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		// параллельный запуск сидера уже создал запись
		return nil
	}
	if err != nil {
		return fmt.Errorf("не удалось создать администратора: %w", err)
	}

	log.Printf("  - Администратор %s создан (id=%d)", email, userID)
	return nil
}
