package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"leave-system/internal/entities"
	"leave-system/internal/repositories"
	apperrors "leave-system/pkg/errors"
	"leave-system/pkg/utils"
)

const timeLayout = time.RFC3339

// currentUser загружает из справочника пользователя, выполняющего запрос.
func currentUser(ctx context.Context, userRepo repositories.UserRepositoryInterface) (*entities.User, error) {
	actor, err := utils.GetActorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	return userRepo.FindByEmail(ctx, nil, actor.Email)
}

// directory - поиск команд и руководителей для маршрутизации уведомлений.
// Отсутствие руководителя не ошибка: метод возвращает nil и пишет предупреждение.
type directory struct {
	userRepo repositories.UserRepositoryInterface
	teamRepo repositories.TeamRepositoryInterface
	unitRepo repositories.OrganizationalUnitRepositoryInterface
	logger   *zap.Logger
}

func (d directory) teamOf(ctx context.Context, user *entities.User) *entities.Team {
	if user == nil || user.TeamID == nil {
		return nil
	}
	team, err := d.teamRepo.FindByID(ctx, nil, *user.TeamID)
	if err != nil {
		d.logger.Warn("Не удалось загрузить команду пользователя", zap.Uint64("userID", user.ID), zap.Error(err))
		return nil
	}
	return team
}

func (d directory) teamManager(ctx context.Context, team *entities.Team) *entities.User {
	if team == nil || team.ManagerID == nil {
		return nil
	}
	return d.userByID(ctx, *team.ManagerID)
}

func (d directory) unitManager(ctx context.Context, unitID *uint64) *entities.User {
	if unitID == nil {
		return nil
	}
	unit, err := d.unitRepo.FindByID(ctx, nil, *unitID)
	if err != nil {
		d.logger.Warn("Не удалось загрузить подразделение", zap.Uint64("unitID", *unitID), zap.Error(err))
		return nil
	}
	if unit.ManagerID == nil {
		return nil
	}
	return d.userByID(ctx, *unit.ManagerID)
}

func (d directory) unit(ctx context.Context, unitID *uint64) *entities.OrganizationalUnit {
	if unitID == nil {
		return nil
	}
	unit, err := d.unitRepo.FindByID(ctx, nil, *unitID)
	if err != nil {
		return nil
	}
	return unit
}

func (d directory) userByID(ctx context.Context, id uint64) *entities.User {
	user, err := d.userRepo.FindByID(ctx, nil, id)
	if err != nil {
		d.logger.Warn("Не удалось загрузить руководителя", zap.Uint64("userID", id), zap.Error(err))
		return nil
	}
	return user
}

// managedTeamIDs - команды, которыми руководит пользователь с данным email.
func (d directory) managedTeamIDs(ctx context.Context, managerEmail string) ([]uint64, error) {
	manager, err := d.userRepo.FindByEmail(ctx, nil, managerEmail)
	if err != nil {
		return nil, err
	}
	teams, err := d.teamRepo.FindByManagerID(ctx, nil, manager.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(teams))
	for _, t := range teams {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// reasonPtr очищает текст от HTML; пустая строка хранится как NULL.
func reasonPtr(raw string) *string {
	clean := strings.TrimSpace(utils.SanitizeText(raw))
	if clean == "" {
		return nil
	}
	return &clean
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}

func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}
