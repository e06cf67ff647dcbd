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

const employeeLeaveKind = "employee_leave"

type EmployeeLeaveServiceInterface interface {
	Create(ctx context.Context, payload dto.CreateEmployeeLeaveDTO) (*dto.EmployeeLeaveDTO, error)
	Treat(ctx context.Context, payload dto.TreatRequestDTO) (*dto.EmployeeLeaveDTO, error)
	// Update - правка собственной заявки.
	Update(ctx context.Context, id uint64, payload dto.UpdateEmployeeLeaveDTO) (*dto.EmployeeLeaveDTO, error)
	// UpdateAsManagement - правка любой заявки руководителем.
	UpdateAsManagement(ctx context.Context, id uint64, payload dto.UpdateEmployeeLeaveDTO) (*dto.EmployeeLeaveDTO, error)
	Delete(ctx context.Context, id uint64) error
	GetByID(ctx context.Context, id uint64) (*dto.EmployeeLeaveDTO, error)
	GetAll(ctx context.Context, filter types.Filter) ([]dto.EmployeeLeaveDTO, uint64, error)
	GetByUserID(ctx context.Context, userID uint64) ([]dto.EmployeeLeaveDTO, error)
	GetByManagerEmail(ctx context.Context, managerEmail string) ([]dto.EmployeeLeaveDTO, error)
}

type EmployeeLeaveService struct {
	txManager repositories.TxManagerInterface
	leaveRepo repositories.EmployeeLeaveRepositoryInterface
	userRepo  repositories.UserRepositoryInterface
	dir       directory
	notifier  NotifierInterface
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewEmployeeLeaveService(
	txManager repositories.TxManagerInterface,
	leaveRepo repositories.EmployeeLeaveRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	teamRepo repositories.TeamRepositoryInterface,
	unitRepo repositories.OrganizationalUnitRepositoryInterface,
	notifier NotifierInterface,
	m *metrics.Metrics,
	logger *zap.Logger,
) *EmployeeLeaveService {
	return &EmployeeLeaveService{
		txManager: txManager,
		leaveRepo: leaveRepo,
		userRepo:  userRepo,
		dir:       directory{userRepo: userRepo, teamRepo: teamRepo, unitRepo: unitRepo, logger: logger},
		notifier:  notifier,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *EmployeeLeaveService) Create(ctx context.Context, payload dto.CreateEmployeeLeaveDTO) (*dto.EmployeeLeaveDTO, error) {
	if err := validateLeaveRequest(payload); err != nil {
		return nil, err
	}

	actor, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return nil, err
	}
	target, err := s.userRepo.FindByEmail(ctx, nil, payload.UserEmail)
	if err != nil {
		return nil, err
	}

	authCtx := authz.NewContext(actor).WithOwner(target.ID)
	if !authz.CanDo(authz.ActionCreateForUser, authCtx) {
		s.logger.Warn("Попытка создать заявку на отпуск за другого сотрудника",
			zap.String("actor", actor.Email), zap.String("target", target.Email))
		return nil, apperrors.ErrUnauthorizedAction
	}

	leave := &entities.EmployeeLeave{
		UserID:               target.ID,
		LeaveType:            constants.LeaveType(payload.LeaveType),
		ExceptionalLeaveType: constants.ExceptionalLeaveType(payload.ExceptionalLeaveType),
		TimeOfDay:            constants.TimeOfDayInapplicable,
		StartDate:            *payload.StartDate,
		Status:               constants.StatusPending,
		Reason:               reasonPtr(payload.Reason),
	}
	if payload.TimeOfDay != "" {
		leave.TimeOfDay = constants.TimeOfDay(payload.TimeOfDay)
	}

	if err := checkLeaveType(leave.LeaveType, target, authCtx); err != nil {
		return nil, err
	}

	if err := computeLeaveEnd(leave, *payload.EndDate); err != nil {
		return nil, err
	}

	if authz.CanDo(authz.ActionBypassApproval, authCtx) {
		leave.Status = constants.StatusAccepted
	}

	id, err := s.leaveRepo.Create(ctx, nil, leave)
	if err != nil {
		s.logger.Error("Ошибка создания заявки на отпуск", zap.String("user", target.Email), zap.Error(err))
		return nil, err
	}
	leave.ID = id
	leave.CreatedAt = s.now()
	s.metrics.RequestCreated(employeeLeaveKind, string(leave.Status))

	s.logger.Info("Заявка на отпуск создана",
		zap.Uint64("leaveID", id), zap.String("user", target.Email), zap.String("status", string(leave.Status)))

	s.notifyCreated(ctx, actor, target, leave, "Заявка на отпуск создана")
	return toEmployeeLeaveDTO(leave), nil
}

func (s *EmployeeLeaveService) Treat(ctx context.Context, payload dto.TreatRequestDTO) (*dto.EmployeeLeaveDTO, error) {
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

	var (
		owner              *entities.User
		rejectedForBalance bool
	)
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		// Сначала строка владельца, потом строка заявки: параллельные решения по заявкам
		// одного сотрудника выполняются строго по очереди.
		var err error
		owner, err = s.userRepo.FindByIDForUpdate(ctx, tx, leave.UserID)
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

		if leave.LeaveType == constants.LeaveTypePersonal && leave.RequestedDays() > owner.LeaveDays {
			if err := s.leaveRepo.SetStatus(ctx, tx, leave.ID, constants.StatusRejected); err != nil {
				return err
			}
			leave.Status = constants.StatusRejected
			rejectedForBalance = true
			return nil
		}

		if decision == constants.StatusAccepted {
			removed, err := s.leaveRepo.DeleteOtherPending(ctx, tx, owner.ID, leave.ID)
			if err != nil {
				return err
			}
			if removed > 0 {
				s.logger.Info("Удалены другие ожидающие заявки сотрудника",
					zap.Uint64("userID", owner.ID), zap.Int64("count", removed))
			}
			if err := s.leaveRepo.SetStatus(ctx, tx, leave.ID, constants.StatusAccepted); err != nil {
				return err
			}
			if leave.Covers(s.now()) {
				owner.OnLeave = true
			}
			returnDate := leave.EndDate
			owner.ReturnDate = &returnDate
			owner.LeaveDays -= leave.DeductedDays()
			if err := s.userRepo.Update(ctx, tx, owner); err != nil {
				return err
			}
		} else {
			if err := s.leaveRepo.SetStatus(ctx, tx, leave.ID, constants.StatusRejected); err != nil {
				return err
			}
		}
		leave.Status = decision
		return nil
	})
	if err != nil {
		s.logger.Error("Ошибка при рассмотрении заявки на отпуск", zap.Uint64("leaveID", payload.ID), zap.Error(err))
		return nil, err
	}

	s.metrics.RequestTreated(employeeLeaveKind, string(leave.Status))
	s.notifier.Notify(ctx, owner.Email, "Заявка на отпуск рассмотрена",
		fmt.Sprintf("Ваша заявка на отпуск №%d %s.", leave.ID, statusText(leave.Status)),
		employeeLeaveLink(leave.ID))

	if rejectedForBalance {
		s.logger.Warn("Заявка отклонена: недостаточно дней отпуска",
			zap.Uint64("leaveID", leave.ID), zap.Float64("balance", owner.LeaveDays), zap.Float64("requested", leave.RequestedDays()))
		return nil, apperrors.ErrInsufficientLeaveBalance
	}

	s.logger.Info("Заявка на отпуск рассмотрена",
		zap.Uint64("leaveID", leave.ID), zap.String("status", string(leave.Status)), zap.String("actor", actor.Email))
	return toEmployeeLeaveDTO(leave), nil
}

func (s *EmployeeLeaveService) Update(ctx context.Context, id uint64, payload dto.UpdateEmployeeLeaveDTO) (*dto.EmployeeLeaveDTO, error) {
	return s.update(ctx, id, payload, false)
}

// checkLeaveType проверяет ограничения типа заявки: баланс владельца и право на больничный.
func checkLeaveType(leaveType constants.LeaveType, owner *entities.User, authCtx authz.Context) error {
	switch leaveType {
	case constants.LeaveTypePersonal, constants.LeaveTypeHalfDay:
		if owner.LeaveDays <= 0 {
			return apperrors.ErrInsufficientLeaveBalance
		}
	case constants.LeaveTypeSick:
		if !authz.CanDo(authz.ActionCreateSickLeave, authCtx) {
			return apperrors.ErrUnauthorizedAction
		}
	}
	return nil
}

func (s *EmployeeLeaveService) UpdateAsManagement(ctx context.Context, id uint64, payload dto.UpdateEmployeeLeaveDTO) (*dto.EmployeeLeaveDTO, error) {
	return s.update(ctx, id, payload, true)
}

func (s *EmployeeLeaveService) update(ctx context.Context, id uint64, payload dto.UpdateEmployeeLeaveDTO, managerial bool) (*dto.EmployeeLeaveDTO, error) {
	actor, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return nil, err
	}

	var leave *entities.EmployeeLeave
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		leave, err = s.leaveRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if leave.Status != constants.StatusPending {
			return apperrors.ErrRequestAlreadyProcessed
		}

		allowed := leave.UserID == actor.ID
		if managerial {
			allowed = authz.CanDo(authz.ActionTreat, authz.NewContext(actor))
		}
		if !allowed {
			return apperrors.ErrUnauthorizedAction
		}

		requestedEnd := leave.EndDate
		if payload.LeaveType.Valid && constants.LeaveType(payload.LeaveType.String) != leave.LeaveType {
			owner, err := s.userRepo.FindByID(ctx, tx, leave.UserID)
			if err != nil {
				return err
			}
			leave.LeaveType = constants.LeaveType(payload.LeaveType.String)
			if err := checkLeaveType(leave.LeaveType, owner, authz.NewContext(actor).WithOwner(owner.ID)); err != nil {
				return err
			}
		}
		if payload.ExceptionalLeaveType.Valid {
			leave.ExceptionalLeaveType = constants.ExceptionalLeaveType(payload.ExceptionalLeaveType.String)
		}
		if payload.TimeOfDay.Valid {
			leave.TimeOfDay = constants.TimeOfDay(payload.TimeOfDay.String)
		}
		if payload.StartDate.Valid {
			leave.StartDate = payload.StartDate.Time
		}
		if payload.EndDate.Valid {
			requestedEnd = payload.EndDate.Time
		}
		if payload.Reason.Valid {
			leave.Reason = reasonPtr(payload.Reason.String)
		}
		if err := computeLeaveEnd(leave, requestedEnd); err != nil {
			return err
		}
		return s.leaveRepo.Update(ctx, tx, leave)
	})
	if err != nil {
		return nil, err
	}

	owner, err := s.userRepo.FindByID(ctx, nil, leave.UserID)
	if err != nil {
		s.logger.Warn("Владелец заявки не найден, уведомления не отправлены", zap.Uint64("leaveID", id), zap.Error(err))
	} else {
		s.notifyCreated(ctx, owner, owner, leave, "Заявка на отпуск обновлена")
	}

	s.logger.Info("Заявка на отпуск обновлена", zap.Uint64("leaveID", id), zap.String("actor", actor.Email))
	return toEmployeeLeaveDTO(leave), nil
}

func (s *EmployeeLeaveService) Delete(ctx context.Context, id uint64) error {
	actor, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return err
	}
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		leave, err := s.leaveRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if leave.Status != constants.StatusPending {
			return apperrors.ErrRequestAlreadyProcessed
		}
		if !authz.CanDo(authz.ActionModifyRequest, authz.NewContext(actor).WithOwner(leave.UserID)) {
			return apperrors.ErrUnauthorizedAction
		}
		return s.leaveRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("Заявка на отпуск удалена", zap.Uint64("leaveID", id), zap.String("actor", actor.Email))
	return nil
}

func (s *EmployeeLeaveService) GetByID(ctx context.Context, id uint64) (*dto.EmployeeLeaveDTO, error) {
	leave, err := s.leaveRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return toEmployeeLeaveDTO(leave), nil
}

func (s *EmployeeLeaveService) GetAll(ctx context.Context, filter types.Filter) ([]dto.EmployeeLeaveDTO, uint64, error) {
	leaves, total, err := s.leaveRepo.GetAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return toEmployeeLeaveDTOs(leaves), total, nil
}

func (s *EmployeeLeaveService) GetByUserID(ctx context.Context, userID uint64) ([]dto.EmployeeLeaveDTO, error) {
	leaves, err := s.leaveRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toEmployeeLeaveDTOs(leaves), nil
}

func (s *EmployeeLeaveService) GetByManagerEmail(ctx context.Context, managerEmail string) ([]dto.EmployeeLeaveDTO, error) {
	teamIDs, err := s.dir.managedTeamIDs(ctx, managerEmail)
	if err != nil {
		return nil, err
	}
	result := make([]dto.EmployeeLeaveDTO, 0)
	for _, teamID := range teamIDs {
		leaves, err := s.leaveRepo.ListByTeamID(ctx, teamID)
		if err != nil {
			return nil, err
		}
		result = append(result, toEmployeeLeaveDTOs(leaves)...)
	}
	return result, nil
}

// notifyCreated уведомляет сотрудника и согласующего. Если руководитель сам подаёт
// заявку на себя, согласует руководитель подразделения его команды.
func (s *EmployeeLeaveService) notifyCreated(ctx context.Context, actor, target *entities.User, leave *entities.EmployeeLeave, subject string) {
	link := employeeLeaveLink(leave.ID)
	period := fmt.Sprintf("%s - %s", utils.FormatDate(leave.StartDate), utils.FormatDate(leave.EndDate))

	s.notifier.Notify(ctx, target.Email, subject,
		fmt.Sprintf("Ваша заявка на отпуск №%d на период %s зарегистрирована.", leave.ID, period), link)

	team := s.dir.teamOf(ctx, target)
	var approver *entities.User
	if actor.ID == target.ID && actor.Role == constants.RoleManager {
		if team != nil {
			approver = s.dir.unitManager(ctx, team.OrganizationalUnitID)
		}
	} else {
		approver = s.dir.teamManager(ctx, team)
	}
	if approver == nil {
		s.logger.Warn("Не найден согласующий для заявки на отпуск",
			zap.Uint64("leaveID", leave.ID), zap.String("user", target.Email))
		return
	}
	s.notifier.Notify(ctx, approver.Email, subject,
		fmt.Sprintf("Сотрудник %s (%s) подал заявку на отпуск на период %s.", target.FullName(), target.Email, period), link)
}

func validateLeaveRequest(payload dto.CreateEmployeeLeaveDTO) error {
	switch {
	case payload.UserEmail == "":
		return apperrors.NewInvalidInputError("не указан email сотрудника")
	case payload.LeaveType == "":
		return apperrors.NewInvalidInputError("не указан тип отпуска")
	case payload.StartDate == nil:
		return apperrors.NewInvalidInputError("не указана дата начала")
	case payload.EndDate == nil:
		return apperrors.NewInvalidInputError("не указана дата окончания")
	}
	if !constants.LeaveType(payload.LeaveType).IsValid() {
		return apperrors.NewInvalidInputError("неизвестный тип отпуска: %s", payload.LeaveType)
	}
	return nil
}

// computeLeaveEnd выставляет подтип и дату окончания по типу отпуска.
// Для исключительного отпуска и полудня дата окончания вычисляется от даты начала.
func computeLeaveEnd(leave *entities.EmployeeLeave, requestedEnd time.Time) error {
	switch leave.LeaveType {
	case constants.LeaveTypePersonal, constants.LeaveTypeSick:
		leave.ExceptionalLeaveType = constants.ExceptionalNone
		if requestedEnd.Before(leave.StartDate) {
			return apperrors.NewInvalidInputError("дата окончания раньше даты начала")
		}
		leave.EndDate = requestedEnd
	case constants.LeaveTypeExceptional:
		if leave.ExceptionalLeaveType == "" {
			leave.ExceptionalLeaveType = constants.ExceptionalNone
		}
		if !leave.ExceptionalLeaveType.IsValid() {
			return apperrors.NewInvalidInputError("неизвестный подтип исключительного отпуска: %s", leave.ExceptionalLeaveType)
		}
		leave.EndDate = leave.StartDate.AddDate(0, 0, leave.ExceptionalLeaveType.Days())
	case constants.LeaveTypeHalfDay:
		leave.ExceptionalLeaveType = constants.ExceptionalNone
		leave.EndDate = leave.StartDate.AddDate(0, 0, 1)
	default:
		return apperrors.NewInvalidInputError("неизвестный тип отпуска: %s", leave.LeaveType)
	}
	if leave.TimeOfDay == "" {
		leave.TimeOfDay = constants.TimeOfDayInapplicable
	}
	return nil
}

func statusText(status constants.Status) string {
	switch status {
	case constants.StatusAccepted:
		return "одобрена"
	case constants.StatusRejected:
		return "отклонена"
	}
	return "ожидает рассмотрения"
}

func employeeLeaveLink(id uint64) string {
	return fmt.Sprintf("/employee-leave/%d", id)
}

func toEmployeeLeaveDTO(l *entities.EmployeeLeave) *dto.EmployeeLeaveDTO {
	return &dto.EmployeeLeaveDTO{
		ID:                   l.ID,
		UserID:               l.UserID,
		LeaveType:            string(l.LeaveType),
		ExceptionalLeaveType: string(l.ExceptionalLeaveType),
		TimeOfDay:            string(l.TimeOfDay),
		StartDate:            formatTime(l.StartDate),
		EndDate:              formatTime(l.EndDate),
		Status:               string(l.Status),
		Reason:               l.Reason,
		CreatedAt:            formatTime(l.CreatedAt),
	}
}

func toEmployeeLeaveDTOs(leaves []entities.EmployeeLeave) []dto.EmployeeLeaveDTO {
	result := make([]dto.EmployeeLeaveDTO, 0, len(leaves))
	for i := range leaves {
		result = append(result, *toEmployeeLeaveDTO(&leaves[i]))
	}
	return result
}
