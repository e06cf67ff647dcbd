package seeders

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leave-system/pkg/config"
	"leave-system/pkg/utils"
)

func seedDemoStructure(ctx context.Context, db *pgxpool.Pool, policy config.LeavePolicyConfig) error {
	hashedPassword, err := utils.HashPassword(demoPassword)
	if err != nil {
		return err
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	upsertUser := func(u demoUser) (uint64, error) {
		var id uint64
		err := tx.QueryRow(ctx, `
			INSERT INTO users (first_name, last_name, email, gender, password, role, leave_days, external_activities_limit)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (email) DO UPDATE SET updated_at = NOW()
			RETURNING id`,
			u.FirstName, u.LastName, u.Email, u.Gender, hashedPassword, string(u.Role),
			policy.AnnualLeaveDays, policy.ExternalActivitiesLimit,
		).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("пользователь %s: %w", u.Email, err)
		}
		return id, nil
	}

	unitHeadID, err := upsertUser(demoUnitHead)
	if err != nil {
		return err
	}
	teamLeadID, err := upsertUser(demoTeamLead)
	if err != nil {
		return err
	}

	var unitID uint64
	err = tx.QueryRow(ctx, `
		INSERT INTO organizational_units (name, manager_id) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET manager_id = EXCLUDED.manager_id
		RETURNING id`, demoUnitName, unitHeadID).Scan(&unitID)
	if err != nil {
		return fmt.Errorf("подразделение: %w", err)
	}

	var teamID uint64
	err = tx.QueryRow(ctx, `
		INSERT INTO teams (name, description, manager_id, organizational_unit_id) VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET manager_id = EXCLUDED.manager_id, organizational_unit_id = EXCLUDED.organizational_unit_id
		RETURNING id`, demoTeamName, "Серверная разработка", teamLeadID, unitID).Scan(&teamID)
	if err != nil {
		return fmt.Errorf("команда: %w", err)
	}

	batch := &pgx.Batch{}
	batch.Queue("UPDATE users SET organizational_unit_id = $1 WHERE id = $2", unitID, unitHeadID)
	batch.Queue("UPDATE users SET team_id = $1, organizational_unit_id = $2 WHERE id = $3", teamID, unitID, teamLeadID)
	for _, u := range demoEmployees {
		id, err := upsertUser(u)
		if err != nil {
			return err
		}
		batch.Queue("UPDATE users SET team_id = $1, organizational_unit_id = $2 WHERE id = $3", teamID, unitID, id)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("привязка сотрудников: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	log.Printf("  - Подразделение %q, команда %q, сотрудников: %d", demoUnitName, demoTeamName, len(demoEmployees)+2)
	return nil
}
