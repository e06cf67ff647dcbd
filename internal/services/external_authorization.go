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

const externalAuthorizationKind = "external_authorization"

type ExternalAuthorizationServiceInterface interface {
	Create(ctx context.Context, payload dto.CreateExternalAuthorizationDTO) (*dto.ExternalAuthorizationDTO, error)
	Treat(ctx context.Context, payload dto.TreatRequestDTO) (*dto.ExternalAuthorizationDTO, error)
	Update(ctx context.Context, id uint64, payload dto.UpdateExternalAuthorizationDTO) (*dto.ExternalAuthorizationDTO, error)
	Delete(ctx context.Context, id uint64) error
	GetByID(ctx context.Context, id uint64) (*dto.ExternalAuthorizationDTO, error)
	GetAll(ctx context.Context, filter types.Filter) ([]dto.ExternalAuthorizationDTO, uint64, error)
	GetByUserEmail(ctx context.Context, email string) ([]dto.ExternalAuthorizationDTO, error)
	GetByManagerEmail(ctx context.Context, managerEmail string) ([]dto.ExternalAuthorizationDTO, error)
}

type ExternalAuthorizationService struct {
	txManager repositories.TxManagerInterface
	authRepo  repositories.ExternalAuthorizationRepositoryInterface
	userRepo  repositories.UserRepositoryInterface
	dir       directory
	notifier  NotifierInterface
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewExternalAuthorizationService(
	txManager repositories.TxManagerInterface,
	authRepo repositories.ExternalAuthorizationRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	teamRepo repositories.TeamRepositoryInterface,
	unitRepo repositories.OrganizationalUnitRepositoryInterface,
	notifier NotifierInterface,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ExternalAuthorizationService {
	return &ExternalAuthorizationService{
		txManager: txManager,
		authRepo:  authRepo,
		userRepo:  userRepo,
		dir:       directory{userRepo: userRepo, teamRepo: teamRepo, unitRepo: unitRepo, logger: logger},
		notifier:  notifier,
		metrics:   m,
		logger:    logger,
	}
}

func (s *ExternalAuthorizationService) Create(ctx context.Context, payload dto.CreateExternalAuthorizationDTO) (*dto.ExternalAuthorizationDTO, error) {
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
	target, err := s.userRepo.FindByEmail(ctx, nil, payload.UserEmail)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.ActionCreateForUser, authz.NewContext(actor).WithOwner(target.ID)) {
		return nil, apperrors.ErrUnauthorizedAction
	}
	if target.ExternalActivitiesLimit <= 0 {
		return nil, apperrors.ErrExternalQuotaExhausted
	}

	auth := &entities.ExternalAuthorization{
		UserID:        target.ID,
		LeaveDuration: duration,
		StartDate:     *payload.Date,
		EndDate:       payload.Date.Add(duration.Duration()),
		Status:        constants.StatusPending,
		Reason:        reasonPtr(payload.Reason),
	}
	id, err := s.authRepo.Create(ctx, nil, auth)
	if err != nil {
		s.logger.Error("Ошибка создания разрешения на выход", zap.String("user", target.Email), zap.Error(err))
		return nil, err
	}
	auth.ID = id
	auth.CreatedAt = time.Now()
	s.metrics.RequestCreated(externalAuthorizationKind, string(auth.Status))

	link := externalAuthorizationLink(id)
	when := fmt.Sprintf("%s %s, %s", utils.FormatDate(auth.StartDate), auth.StartDate.Format("15:04"), utils.FormatMinutes(duration.Minutes()))
	s.notifier.Notify(ctx, target.Email, "Запрос на выход создан",
		fmt.Sprintf("Ваш запрос на выход (%s) зарегистрирован.", when), link)
	if manager := s.dir.teamManager(ctx, s.dir.teamOf(ctx, target)); manager != nil {
		s.notifier.Notify(ctx, manager.Email, "Запрос на выход создан",
			fmt.Sprintf("Сотрудник вашей команды %s запросил выход (%s).", target.FullName(), when), link)
	}

	s.logger.Info("Запрос на выход создан", zap.Uint64("id", id), zap.String("user", target.Email))
	return toExternalAuthorizationDTO(auth), nil
}

func (s *ExternalAuthorizationService) Treat(ctx context.Context, payload dto.TreatRequestDTO) (*dto.ExternalAuthorizationDTO, error) {
	auth, err := s.authRepo.FindByID(ctx, nil, payload.ID)
	if err != nil {
		return nil, err
	}
	actor, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return nil, err
	}
	owner, err := s.userRepo.FindByID(ctx, nil, auth.UserID)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.ActionTreatAsTeamManager, authz.NewContext(actor).WithTeam(s.dir.teamOf(ctx, owner))) {
		return nil, apperrors.ErrUnauthorizedAction
	}
	decision, ok := constants.ParseDecision(payload.Status)
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidStatus, payload.Status)
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		owner, err = s.userRepo.FindByIDForUpdate(ctx, tx, auth.UserID)
		if err != nil {
			return err
		}
		auth, err = s.authRepo.FindByIDForUpdate(ctx, tx, payload.ID)
		if err != nil {
			return err
		}
		if auth.Status != constants.StatusPending {
			return apperrors.ErrInvalidStateTransition
		}

		if decision == constants.StatusAccepted {
			if owner.ExternalActivitiesLimit <= 0 {
				return apperrors.ErrExternalQuotaExhausted
			}
			if _, err := s.authRepo.DeleteOtherPending(ctx, tx, owner.ID, auth.ID); err != nil {
				return err
			}
			owner.ExternalActivitiesLimit--
			if err := s.userRepo.Update(ctx, tx, owner); err != nil {
				return err
			}
		}
		if err := s.authRepo.SetStatus(ctx, tx, auth.ID, decision); err != nil {
			return err
		}
		auth.Status = decision
		return nil
	})
	if err != nil {
		s.logger.Error("Ошибка при рассмотрении запроса на выход", zap.Uint64("id", payload.ID), zap.Error(err))
		return nil, err
	}

	s.metrics.RequestTreated(externalAuthorizationKind, string(auth.Status))
	s.notifier.Notify(ctx, owner.Email, "Запрос на выход рассмотрен",
		fmt.Sprintf("Ваш запрос на выход №%d %s.", auth.ID, statusText(auth.Status)),
		externalAuthorizationLink(auth.ID))

	s.logger.Info("Запрос на выход рассмотрен",
		zap.Uint64("id", auth.ID), zap.String("status", string(auth.Status)), zap.String("actor", actor.Email))
	return toExternalAuthorizationDTO(auth), nil
}

func (s *ExternalAuthorizationService) Update(ctx context.Context, id uint64, payload dto.UpdateExternalAuthorizationDTO) (*dto.ExternalAuthorizationDTO, error) {
	actor, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return nil, err
	}

	var auth *entities.ExternalAuthorization
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		auth, err = s.authRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if auth.Status != constants.StatusPending {
			return apperrors.ErrRequestAlreadyProcessed
		}
		if !authz.CanDo(authz.ActionModifyRequest, authz.NewContext(actor).WithOwner(auth.UserID)) {
			return apperrors.ErrUnauthorizedAction
		}

		if payload.LeaveDuration.Valid {
			auth.LeaveDuration = constants.LeaveDuration(payload.LeaveDuration.String)
			if !auth.LeaveDuration.IsValid() {
				return apperrors.NewInvalidInputError("неизвестная продолжительность: %s", payload.LeaveDuration.String)
			}
		}
		if payload.Date.Valid {
			auth.StartDate = payload.Date.Time
		}
		if payload.Reason.Valid {
			auth.Reason = reasonPtr(payload.Reason.String)
		}
		auth.EndDate = auth.StartDate.Add(auth.LeaveDuration.Duration())
		return s.authRepo.Update(ctx, tx, auth)
	})
	if err != nil {
		return nil, err
	}

	if owner := s.dir.userByID(ctx, auth.UserID); owner != nil {
		s.notifier.Notify(ctx, owner.Email, "Запрос на выход изменён",
			fmt.Sprintf("Ваш запрос на выход №%d изменён.", auth.ID), externalAuthorizationLink(auth.ID))
	}
	return toExternalAuthorizationDTO(auth), nil
}

func (s *ExternalAuthorizationService) Delete(ctx context.Context, id uint64) error {
	actor, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		auth, err := s.authRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if auth.Status != constants.StatusPending {
			return apperrors.ErrRequestAlreadyProcessed
		}
		if !authz.CanDo(authz.ActionModifyRequest, authz.NewContext(actor).WithOwner(auth.UserID)) {
			return apperrors.ErrUnauthorizedAction
		}
		return s.authRepo.Delete(ctx, tx, id)
	})
}

func (s *ExternalAuthorizationService) GetByID(ctx context.Context, id uint64) (*dto.ExternalAuthorizationDTO, error) {
	auth, err := s.authRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return toExternalAuthorizationDTO(auth), nil
}

func (s *ExternalAuthorizationService) GetAll(ctx context.Context, filter types.Filter) ([]dto.ExternalAuthorizationDTO, uint64, error) {
	items, total, err := s.authRepo.GetAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return toExternalAuthorizationDTOs(items), total, nil
}

func (s *ExternalAuthorizationService) GetByUserEmail(ctx context.Context, email string) ([]dto.ExternalAuthorizationDTO, error) {
	user, err := s.userRepo.FindByEmail(ctx, nil, email)
	if err != nil {
		return nil, err
	}
	items, err := s.authRepo.ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return toExternalAuthorizationDTOs(items), nil
}

func (s *ExternalAuthorizationService) GetByManagerEmail(ctx context.Context, managerEmail string) ([]dto.ExternalAuthorizationDTO, error) {
	teamIDs, err := s.dir.managedTeamIDs(ctx, managerEmail)
	if err != nil {
		return nil, err
	}
	result := make([]dto.ExternalAuthorizationDTO, 0)
	for _, teamID := range teamIDs {
		items, err := s.authRepo.ListByTeamID(ctx, teamID)
		if err != nil {
			return nil, err
		}
		result = append(result, toExternalAuthorizationDTOs(items)...)
	}
	return result, nil
}

func externalAuthorizationLink(id uint64) string {
	return fmt.Sprintf("/external-authorization/%d", id)
}

func toExternalAuthorizationDTO(a *entities.ExternalAuthorization) *dto.ExternalAuthorizationDTO {
	return &dto.ExternalAuthorizationDTO{
		ID:            a.ID,
		UserID:        a.UserID,
		LeaveDuration: string(a.LeaveDuration),
		StartDate:     formatTime(a.StartDate),
		EndDate:       formatTime(a.EndDate),
		Status:        string(a.Status),
		Reason:        a.Reason,
		CreatedAt:     formatTime(a.CreatedAt),
	}
}

func toExternalAuthorizationDTOs(items []entities.ExternalAuthorization) []dto.ExternalAuthorizationDTO {
	result := make([]dto.ExternalAuthorizationDTO, 0, len(items))
	for i := range items {
		result = append(result, *toExternalAuthorizationDTO(&items[i]))
	}
	return result
}
