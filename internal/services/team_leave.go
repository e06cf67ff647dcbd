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

const teamLeaveKind = "team_leave"

type TeamLeaveServiceInterface interface {
	Create(ctx context.Context, payload dto.CreateTeamLeaveDTO) (*dto.TeamLeaveDTO, error)
	Treat(ctx context.Context, payload dto.TreatRequestDTO) (*dto.TeamLeaveDTO, error)
	Update(ctx context.Context, id uint64, payload dto.UpdateTeamLeaveDTO) (*dto.TeamLeaveDTO, error)
	Delete(ctx context.Context, id uint64) error
	GetByID(ctx context.Context, id uint64) (*dto.TeamLeaveDTO, error)
	GetAll(ctx context.Context, filter types.Filter) ([]dto.TeamLeaveDTO, uint64, error)
	GetByTeamID(ctx context.Context, teamID uint64) ([]dto.TeamLeaveDTO, error)
}

type TeamLeaveService struct {
	txManager repositories.TxManagerInterface
	leaveRepo repositories.TeamLeaveRepositoryInterface
	userRepo  repositories.UserRepositoryInterface
	teamRepo  repositories.TeamRepositoryInterface
	dir       directory
	notifier  NotifierInterface
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewTeamLeaveService(
	txManager repositories.TxManagerInterface,
	leaveRepo repositories.TeamLeaveRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	teamRepo repositories.TeamRepositoryInterface,
	unitRepo repositories.OrganizationalUnitRepositoryInterface,
	notifier NotifierInterface,
	m *metrics.Metrics,
	logger *zap.Logger,
) *TeamLeaveService {
	return &TeamLeaveService{
		txManager: txManager,
		leaveRepo: leaveRepo,
		userRepo:  userRepo,
		teamRepo:  teamRepo,
		dir:       directory{userRepo: userRepo, teamRepo: teamRepo, unitRepo: unitRepo, logger: logger},
		notifier:  notifier,
		metrics:   m,
		logger:    logger,
	}
}

func (s *TeamLeaveService) Create(ctx context.Context, payload dto.CreateTeamLeaveDTO) (*dto.TeamLeaveDTO, error) {
	team, err := s.teamRepo.FindByName(ctx, nil, payload.TeamName)
	if err != nil {
		return nil, err
	}
	actor, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.ActionCreateTeamLeave, authz.NewContext(actor).WithTeam(team)) {
		return nil, apperrors.ErrUnauthorizedAction
	}
	if payload.StartDate == nil || payload.EndDate == nil {
		return nil, apperrors.NewInvalidInputError("дата начала и дата окончания обязательны")
	}
	if payload.EndDate.Before(*payload.StartDate) {
		return nil, apperrors.NewInvalidInputError("дата окончания раньше даты начала")
	}

	leave := &entities.TeamLeave{
		TeamID:    team.ID,
		StartDate: *payload.StartDate,
		EndDate:   *payload.EndDate,
		Status:    constants.StatusPending,
		Reason:    reasonPtr(payload.Reason),
	}
	id, err := s.leaveRepo.Create(ctx, nil, leave)
	if err != nil {
		s.logger.Error("Ошибка создания отпуска команды", zap.String("team", team.Name), zap.Error(err))
		return nil, err
	}
	leave.ID = id
	leave.CreatedAt = time.Now()
	s.metrics.RequestCreated(teamLeaveKind, string(leave.Status))

	period := teamLeavePeriod(leave)
	s.notifyBoth(ctx, team, leave, "Заявка на отпуск команды",
		fmt.Sprintf("Вы запросили отпуск для команды %s на период %s.", team.Name, period),
		fmt.Sprintf("Запрошен отпуск для команды %s на период %s. Рассмотрите заявку.", team.Name, period))

	s.logger.Info("Отпуск команды создан", zap.Uint64("id", id), zap.String("team", team.Name))
	return toTeamLeaveDTO(leave), nil
}

func (s *TeamLeaveService) Treat(ctx context.Context, payload dto.TreatRequestDTO) (*dto.TeamLeaveDTO, error) {
	leave, err := s.leaveRepo.FindByID(ctx, nil, payload.ID)
	if err != nil {
		return nil, err
	}
	actor, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.ActionTreat, authz.NewContext(actor)) {
		return nil, apperrors.ErrUnauthorizedAction
	}
	decision, ok := constants.ParseDecision(payload.Status)
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidStatus, payload.Status)
	}

	var team *entities.Team
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		team, err = s.teamRepo.FindByIDForUpdate(ctx, tx, leave.TeamID)
		if err != nil {
			return err
		}
		leave, err = s.leaveRepo.FindByIDForUpdate(ctx, tx, payload.ID)
		if err != nil {
			return err
		}
		if leave.Status != constants.StatusPending {
			return apperrors.ErrInvalidStateTransition
		}
		if decision == constants.StatusAccepted {
			if _, err := s.leaveRepo.DeleteOtherPending(ctx, tx, team.ID, leave.ID); err != nil {
				return err
			}
		}
		if err := s.leaveRepo.SetStatus(ctx, tx, leave.ID, decision); err != nil {
			return err
		}
		leave.Status = decision
		return nil
	})
	if err != nil {
		s.logger.Error("Ошибка при рассмотрении отпуска команды", zap.Uint64("id", payload.ID), zap.Error(err))
		return nil, err
	}

	s.metrics.RequestTreated(teamLeaveKind, string(leave.Status))
	period := teamLeavePeriod(leave)
	s.notifyBoth(ctx, team, leave, "Заявка на отпуск команды рассмотрена",
		fmt.Sprintf("Заявка на отпуск вашей команды %s на период %s %s.", team.Name, period, statusText(leave.Status)),
		fmt.Sprintf("Заявка на отпуск команды %s на период %s %s.", team.Name, period, statusText(leave.Status)))

	s.logger.Info("Отпуск команды рассмотрен",
		zap.Uint64("id", leave.ID), zap.String("status", string(leave.Status)), zap.String("actor", actor.Email))
	return toTeamLeaveDTO(leave), nil
}

func (s *TeamLeaveService) Update(ctx context.Context, id uint64, payload dto.UpdateTeamLeaveDTO) (*dto.TeamLeaveDTO, error) {
	actor, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.ActionCreateTeamLeave, authz.NewContext(actor)) {
		return nil, apperrors.ErrUnauthorizedAction
	}

	var leave *entities.TeamLeave
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		leave, err = s.leaveRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if leave.Status != constants.StatusPending {
			return apperrors.ErrRequestAlreadyProcessed
		}
		if payload.StartDate.Valid {
			leave.StartDate = payload.StartDate.Time
		}
		if payload.EndDate.Valid {
			leave.EndDate = payload.EndDate.Time
		}
		if payload.Reason.Valid {
			leave.Reason = reasonPtr(payload.Reason.String)
		}
		if leave.EndDate.Before(leave.StartDate) {
			return apperrors.NewInvalidInputError("дата окончания раньше даты начала")
		}
		return s.leaveRepo.Update(ctx, tx, leave)
	})
	if err != nil {
		return nil, err
	}

	team, err := s.teamRepo.FindByID(ctx, nil, leave.TeamID)
	if err == nil {
		if manager := s.dir.teamManager(ctx, team); manager != nil {
			s.notifier.Notify(ctx, manager.Email, "Заявка на отпуск команды изменена",
				fmt.Sprintf("Заявка на отпуск команды %s изменена, новый период %s.", team.Name, teamLeavePeriod(leave)),
				teamLeaveLink(leave.ID))
		}
	}
	return toTeamLeaveDTO(leave), nil
}

func (s *TeamLeaveService) Delete(ctx context.Context, id uint64) error {
	actor, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return err
	}
	if !authz.CanDo(authz.ActionCreateTeamLeave, authz.NewContext(actor)) {
		return apperrors.ErrUnauthorizedAction
	}
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		leave, err := s.leaveRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if leave.Status != constants.StatusPending {
			return apperrors.ErrRequestAlreadyProcessed
		}
		return s.leaveRepo.Delete(ctx, tx, id)
	})
}

func (s *TeamLeaveService) GetByID(ctx context.Context, id uint64) (*dto.TeamLeaveDTO, error) {
	leave, err := s.leaveRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return toTeamLeaveDTO(leave), nil
}

func (s *TeamLeaveService) GetAll(ctx context.Context, filter types.Filter) ([]dto.TeamLeaveDTO, uint64, error) {
	items, total, err := s.leaveRepo.GetAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return toTeamLeaveDTOs(items), total, nil
}

func (s *TeamLeaveService) GetByTeamID(ctx context.Context, teamID uint64) ([]dto.TeamLeaveDTO, error) {
	items, err := s.leaveRepo.ListByTeamID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return toTeamLeaveDTOs(items), nil
}

func (s *TeamLeaveService) notifyBoth(ctx context.Context, team *entities.Team, leave *entities.TeamLeave, subject, managerBody, unitBody string) {
	link := teamLeaveLink(leave.ID)
	if unitManager := s.dir.unitManager(ctx, team.OrganizationalUnitID); unitManager != nil {
		s.notifier.Notify(ctx, unitManager.Email, subject, unitBody, link)
	} else {
		s.logger.Warn("Не найден руководитель подразделения команды", zap.String("team", team.Name))
	}
	if manager := s.dir.teamManager(ctx, team); manager != nil {
		s.notifier.Notify(ctx, manager.Email, subject, managerBody, link)
	} else {
		s.logger.Warn("У команды нет руководителя", zap.String("team", team.Name))
	}
}

func teamLeavePeriod(l *entities.TeamLeave) string {
	return fmt.Sprintf("%s - %s", utils.FormatDate(l.StartDate), utils.FormatDate(l.EndDate))
}

func teamLeaveLink(id uint64) string {
	return fmt.Sprintf("/team-leave/%d", id)
}

func toTeamLeaveDTO(l *entities.TeamLeave) *dto.TeamLeaveDTO {
	return &dto.TeamLeaveDTO{
		ID:        l.ID,
		TeamID:    l.TeamID,
		StartDate: formatTime(l.StartDate),
		EndDate:   formatTime(l.EndDate),
		Status:    string(l.Status),
		Reason:    l.Reason,
		CreatedAt: formatTime(l.CreatedAt),
	}
}

func toTeamLeaveDTOs(items []entities.TeamLeave) []dto.TeamLeaveDTO {
	result := make([]dto.TeamLeaveDTO, 0, len(items))
	for i := range items {
		result = append(result, *toTeamLeaveDTO(&items[i]))
	}
	return result
}
