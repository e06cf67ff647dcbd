package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"leave-system/internal/authz"
	"leave-system/internal/dto"
	"leave-system/internal/entities"
	"leave-system/internal/repositories"
	"leave-system/pkg/constants"
	apperrors "leave-system/pkg/errors"
	"leave-system/pkg/metrics"
	"leave-system/pkg/types"
	"leave-system/pkg/utils"
)

const teamExitPermissionKind = "team_exit_permission"

type TeamExitPermissionServiceInterface interface {
	Create(ctx context.Context, payload dto.CreateTeamExitPermissionDTO) (*dto.TeamExitPermissionDTO, error)
	Treat(ctx context.Context, payload dto.TreatRequestDTO) (*dto.TeamExitPermissionDTO, error)
	Update(ctx context.Context, id uint64, payload dto.UpdateTeamExitPermissionDTO) (*dto.TeamExitPermissionDTO, error)
	Delete(ctx context.Context, id uint64) error
	GetByID(ctx context.Context, id uint64) (*dto.TeamExitPermissionDTO, error)
	GetAll(ctx context.Context, filter types.Filter) ([]dto.TeamExitPermissionDTO, uint64, error)
	GetByTeamName(ctx context.Context, teamName string) ([]dto.TeamExitPermissionDTO, error)
	GetByManagerEmail(ctx context.Context, managerEmail string) ([]dto.TeamExitPermissionDTO, error)
	// GetForCurrentUser - разрешения команды, в которой состоит текущий пользователь.
	GetForCurrentUser(ctx context.Context) ([]dto.TeamExitPermissionDTO, error)
}

type TeamExitPermissionService struct {
	txManager repositories.TxManagerInterface
	permRepo  repositories.TeamExitPermissionRepositoryInterface
	userRepo  repositories.UserRepositoryInterface
	teamRepo  repositories.TeamRepositoryInterface
	dir       directory
	notifier  NotifierInterface
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewTeamExitPermissionService(
	txManager repositories.TxManagerInterface,
	permRepo repositories.TeamExitPermissionRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	teamRepo repositories.TeamRepositoryInterface,
	unitRepo repositories.OrganizationalUnitRepositoryInterface,
	notifier NotifierInterface,
	m *metrics.Metrics,
	logger *zap.Logger,
) *TeamExitPermissionService {
	return &TeamExitPermissionService{
		txManager: txManager,
		permRepo:  permRepo,
		userRepo:  userRepo,
		teamRepo:  teamRepo,
		dir:       directory{userRepo: userRepo, teamRepo: teamRepo, unitRepo: unitRepo, logger: logger},
		notifier:  notifier,
		metrics:   m,
		logger:    logger,
	}
}

func (s *TeamExitPermissionService) Create(ctx context.Context, payload dto.CreateTeamExitPermissionDTO) (*dto.TeamExitPermissionDTO, error) {
	if payload.Date == nil {
		return nil, apperrors.NewInvalidInputError("не указана дата выхода")
	}
	duration := constants.LeaveDuration(payload.LeaveDuration)
	if !duration.IsValid() {
		return nil, apperrors.NewInvalidInputError("неизвестная продолжительность: %s", payload.LeaveDuration)
	}

	actor, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return nil, err
	}
	team, err := s.teamRepo.FindByName(ctx, nil, payload.TeamName)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.ActionCreateForTeam, authz.NewContext(actor).WithTeam(team)) {
		return nil, apperrors.ErrUnauthorizedAction
	}

	perm := &entities.TeamExitPermission{
		TeamID:        team.ID,
		LeaveDuration: duration,
		StartDate:     *payload.Date,
		EndDate:       payload.Date.Add(duration.Duration()),
		Status:        constants.StatusPending,
		Reason:        reasonPtr(payload.Reason),
	}
	id, err := s.permRepo.Create(ctx, nil, perm)
	if err != nil {
		s.logger.Error("Ошибка создания разрешения на выход команды", zap.String("team", team.Name), zap.Error(err))
		return nil, err
	}
	perm.ID = id
	perm.CreatedAt = time.Now()
	s.metrics.RequestCreated(teamExitPermissionKind, string(perm.Status))

	s.notifyManagers(ctx, team, perm, "Запрос на выход команды создан",
		fmt.Sprintf("Запрос на выход команды %s создан.", team.Name),
		fmt.Sprintf("%s создал запрос на выход для команды %s.", actor.FullName(), team.Name))

	s.logger.Info("Запрос на выход команды создан", zap.Uint64("id", id), zap.String("team", team.Name))
	return toTeamExitPermissionDTO(perm), nil
}

func (s *TeamExitPermissionService) Treat(ctx context.Context, payload dto.TreatRequestDTO) (*dto.TeamExitPermissionDTO, error) {
	perm, err := s.permRepo.FindByID(ctx, nil, payload.ID)
	if err != nil {
		return nil, err
	}
	actor, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return nil, err
	}
	team, err := s.teamRepo.FindByID(ctx, nil, perm.TeamID)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.ActionTreatAsTeamManager, authz.NewContext(actor).WithTeam(team)) {
		return nil, apperrors.ErrUnauthorizedAction
	}
	decision, ok := constants.ParseDecision(payload.Status)
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidStatus, payload.Status)
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.teamRepo.FindByIDForUpdate(ctx, tx, team.ID); err != nil {
			return err
		}
		var err error
		perm, err = s.permRepo.FindByIDForUpdate(ctx, tx, payload.ID)
		if err != nil {
			return err
		}
		if perm.Status != constants.StatusPending {
			return apperrors.ErrInvalidStateTransition
		}
		if decision == constants.StatusAccepted {
			if _, err := s.permRepo.DeleteOtherPending(ctx, tx, team.ID, perm.ID); err != nil {
				return err
			}
		}
		if err := s.permRepo.SetStatus(ctx, tx, perm.ID, decision); err != nil {
			return err
		}
		perm.Status = decision
		return nil
	})
	if err != nil {
		s.logger.Error("Ошибка при рассмотрении запроса на выход команды", zap.Uint64("id", payload.ID), zap.Error(err))
		return nil, err
	}

	s.metrics.RequestTreated(teamExitPermissionKind, string(perm.Status))
	if manager := s.dir.teamManager(ctx, team); manager != nil {
		s.notifier.Notify(ctx, manager.Email, "Запрос на выход команды рассмотрен",
			fmt.Sprintf("Запрос на выход команды %s №%d %s.", team.Name, perm.ID, statusText(perm.Status)),
			teamExitPermissionLink(perm.ID))
	}
	s.logger.Info("Запрос на выход команды рассмотрен",
		zap.Uint64("id", perm.ID), zap.String("status", string(perm.Status)), zap.String("actor", actor.Email))
	return toTeamExitPermissionDTO(perm), nil
}

func (s *TeamExitPermissionService) Update(ctx context.Context, id uint64, payload dto.UpdateTeamExitPermissionDTO) (*dto.TeamExitPermissionDTO, error) {
	actor, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return nil, err
	}

	var (
		perm *entities.TeamExitPermission
		team *entities.Team
	)
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		perm, err = s.permRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if perm.Status != constants.StatusPending {
			return apperrors.ErrRequestAlreadyProcessed
		}
		team, err = s.teamRepo.FindByID(ctx, tx, perm.TeamID)
		if err != nil {
			return err
		}
		if !authz.CanDo(authz.ActionCreateForTeam, authz.NewContext(actor).WithTeam(team)) {
			return apperrors.ErrUnauthorizedAction
		}

		if payload.LeaveDuration.Valid {
			perm.LeaveDuration = constants.LeaveDuration(payload.LeaveDuration.String)
			if !perm.LeaveDuration.IsValid() {
				return apperrors.NewInvalidInputError("неизвестная продолжительность: %s", payload.LeaveDuration.String)
			}
		}
		if payload.Date.Valid {
			perm.StartDate = payload.Date.Time
		}
		if payload.Reason.Valid {
			perm.Reason = reasonPtr(payload.Reason.String)
		}
		perm.EndDate = perm.StartDate.Add(perm.LeaveDuration.Duration())
		return s.permRepo.Update(ctx, tx, perm)
	})
	if err != nil {
		return nil, err
	}

	s.notifyManagers(ctx, team, perm, "Запрос на выход команды изменён",
		fmt.Sprintf("Запрос на выход команды %s изменён.", team.Name),
		fmt.Sprintf("%s изменил запрос на выход для команды %s.", actor.FullName(), team.Name))
	return toTeamExitPermissionDTO(perm), nil
}

func (s *TeamExitPermissionService) Delete(ctx context.Context, id uint64) error {
	actor, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		perm, err := s.permRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if perm.Status != constants.StatusPending {
			return apperrors.ErrRequestAlreadyProcessed
		}
		team, err := s.teamRepo.FindByID(ctx, tx, perm.TeamID)
		if err != nil {
			return err
		}
		if !authz.CanDo(authz.ActionCreateForTeam, authz.NewContext(actor).WithTeam(team)) {
			return apperrors.ErrUnauthorizedAction
		}
		return s.permRepo.Delete(ctx, tx, id)
	})
}

func (s *TeamExitPermissionService) GetByID(ctx context.Context, id uint64) (*dto.TeamExitPermissionDTO, error) {
	perm, err := s.permRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return toTeamExitPermissionDTO(perm), nil
}

func (s *TeamExitPermissionService) GetAll(ctx context.Context, filter types.Filter) ([]dto.TeamExitPermissionDTO, uint64, error) {
	items, total, err := s.permRepo.GetAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return toTeamExitPermissionDTOs(items), total, nil
}

func (s *TeamExitPermissionService) GetByTeamName(ctx context.Context, teamName string) ([]dto.TeamExitPermissionDTO, error) {
	team, err := s.teamRepo.FindByName(ctx, nil, teamName)
	if err != nil {
		return nil, err
	}
	items, err := s.permRepo.ListByTeamID(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	return toTeamExitPermissionDTOs(items), nil
}

func (s *TeamExitPermissionService) GetByManagerEmail(ctx context.Context, managerEmail string) ([]dto.TeamExitPermissionDTO, error) {
	teamIDs, err := s.dir.managedTeamIDs(ctx, managerEmail)
	if err != nil {
		return nil, err
	}
	if len(teamIDs) == 0 {
		return []dto.TeamExitPermissionDTO{}, nil
	}
	items, err := s.permRepo.ListByTeamIDs(ctx, teamIDs)
	if err != nil {
		return nil, err
	}
	return toTeamExitPermissionDTOs(items), nil
}

func (s *TeamExitPermissionService) GetForCurrentUser(ctx context.Context) ([]dto.TeamExitPermissionDTO, error) {
	actor, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return nil, err
	}
	if actor.TeamID == nil {
		return []dto.TeamExitPermissionDTO{}, nil
	}
	items, err := s.permRepo.ListByTeamID(ctx, *actor.TeamID)
	if err != nil {
		return nil, err
	}
	return toTeamExitPermissionDTOs(items), nil
}

func (s *TeamExitPermissionService) notifyManagers(ctx context.Context, team *entities.Team, perm *entities.TeamExitPermission, subject, managerBody, unitBody string) {
	link := teamExitPermissionLink(perm.ID)
	when := fmt.Sprintf(" Дата: %s %s, %s.", utils.FormatDate(perm.StartDate), perm.StartDate.Format("15:04"), utils.FormatMinutes(perm.LeaveDuration.Minutes()))

	if manager := s.dir.teamManager(ctx, team); manager != nil {
		s.notifier.Notify(ctx, manager.Email, subject, managerBody+when, link)
	} else {
		s.logger.Warn("У команды нет руководителя", zap.String("team", team.Name))
	}
	if unitManager := s.dir.unitManager(ctx, team.OrganizationalUnitID); unitManager != nil {
		s.notifier.Notify(ctx, unitManager.Email, subject, unitBody+when, link)
	} else {
		s.logger.Warn("Не найден руководитель подразделения команды", zap.String("team", team.Name))
	}
}

func teamExitPermissionLink(id uint64) string {
	return fmt.Sprintf("/team-exit-permission/%d", id)
}

func toTeamExitPermissionDTO(p *entities.TeamExitPermission) *dto.TeamExitPermissionDTO {
	return &dto.TeamExitPermissionDTO{
		ID:            p.ID,
		TeamID:        p.TeamID,
		LeaveDuration: string(p.LeaveDuration),
		StartDate:     formatTime(p.StartDate),
		EndDate:       formatTime(p.EndDate),
		Status:        string(p.Status),
		Reason:        p.Reason,
		CreatedAt:     formatTime(p.CreatedAt),
	}
}

func toTeamExitPermissionDTOs(items []entities.TeamExitPermission) []dto.TeamExitPermissionDTO {
	result := make([]dto.TeamExitPermissionDTO, 0, len(items))
	for i := range items {
		result = append(result, *toTeamExitPermissionDTO(&items[i]))
	}
	return result
}
