package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"leave-system/internal/entities"
	"leave-system/internal/repositories"
	"leave-system/pkg/config"
	"leave-system/pkg/utils"
)

type ReconciliationServiceInterface interface {
	ReconcileLeaves(ctx context.Context) error
	ReturnToWorkSweep(ctx context.Context) error
	ResetExternalQuota(ctx context.Context) error
	ResetAnnualLeave(ctx context.Context) error
}

// ReconciliationService - периодические задачи над состоянием сотрудников.
// Все методы идемпотентны: повторный запуск за тот же период ничего не меняет.
type ReconciliationService struct {
	txManager repositories.TxManagerInterface
	leaveRepo repositories.EmployeeLeaveRepositoryInterface
	userRepo  repositories.UserRepositoryInterface
	notifier  NotifierInterface
	policy    config.LeavePolicyConfig
	logger    *zap.Logger
	now       func() time.Time
}

func NewReconciliationService(
	txManager repositories.TxManagerInterface,
	leaveRepo repositories.EmployeeLeaveRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	notifier NotifierInterface,
	policy config.LeavePolicyConfig,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		txManager: txManager,
		leaveRepo: leaveRepo,
		userRepo:  userRepo,
		notifier:  notifier,
		policy:    policy,
		logger:    logger,
		now:       time.Now,
	}
}

// leaveState - целевое состояние сотрудника по его одобренным отпускам.
type leaveState struct {
	onLeave    bool
	returnDate *time.Time
}

// ReconcileLeaves приводит флаг "в отпуске" в соответствие с одобренными отпусками.
// Закончившийся отпуск снимает флаг, текущий ставит его с датой возврата, будущий не трогается.
func (s *ReconciliationService) ReconcileLeaves(ctx context.Context) error {
	leaves, err := s.leaveRepo.ListAccepted(ctx, nil)
	if err != nil {
		return err
	}
	now := s.now()

	targets := make(map[uint64]leaveState)
	order := make([]uint64, 0)
	for i := range leaves {
		leave := &leaves[i]
		var state leaveState
		switch {
		case !leave.EndDate.After(now):
			state = leaveState{onLeave: false}
		case !leave.StartDate.After(now):
			state = leaveState{onLeave: true, returnDate: utils.TimePtr(leave.EndDate)}
		default:
			continue
		}

		prev, seen := targets[leave.UserID]
		if !seen {
			order = append(order, leave.UserID)
		}
		// Текущий отпуск важнее закончившегося; из двух текущих берём более поздний возврат.
		if !seen || (state.onLeave && (!prev.onLeave || state.returnDate.After(*prev.returnDate))) {
			targets[leave.UserID] = state
		}
	}

	changed := 0
	for _, userID := range order {
		state := targets[userID]
		updated, err := s.applyLeaveState(ctx, userID, state)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			s.logger.Error("Ошибка сверки отпуска", zap.Uint64("userID", userID), zap.Error(err))
			return err
		}
		if updated {
			changed++
		}
	}
	s.logger.Info("Сверка отпусков завершена", zap.Int("leaves", len(leaves)), zap.Int("changed", changed))
	return nil
}

func (s *ReconciliationService) applyLeaveState(ctx context.Context, userID uint64, state leaveState) (bool, error) {
	updated := false
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		user, err := s.userRepo.FindByIDForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if sameLeaveState(user, state) {
			return nil
		}
		updated = true
		return s.userRepo.UpdateLeaveState(ctx, tx, userID, state.onLeave, state.returnDate)
	})
	return updated, err
}

func sameLeaveState(user *entities.User, state leaveState) bool {
	if user.OnLeave != state.onLeave {
		return false
	}
	if user.ReturnDate == nil || state.returnDate == nil {
		return user.ReturnDate == nil && state.returnDate == nil
	}
	return user.ReturnDate.Equal(*state.returnDate)
}

// ReturnToWorkSweep снимает флаг отпуска у сотрудников, чья дата возврата наступила.
func (s *ReconciliationService) ReturnToWorkSweep(ctx context.Context) error {
	due, err := s.userRepo.FindReturnDue(ctx, nil, s.now())
	if err != nil {
		return err
	}

	for i := range due {
		user := &due[i]
		if err := s.userRepo.UpdateLeaveState(ctx, nil, user.ID, false, nil); err != nil {
			s.logger.Error("Ошибка возврата из отпуска", zap.Uint64("userID", user.ID), zap.Error(err))
			return err
		}
		s.notifier.Notify(ctx, user.Email, "С возвращением!",
			fmt.Sprintf("%s, ваш отпуск завершён. С возвращением на работу!", user.FirstName), "")
	}
	if len(due) > 0 {
		s.logger.Info("Сотрудники вернулись из отпуска", zap.Int("count", len(due)))
	}
	return nil
}

// ResetExternalQuota восстанавливает месячный лимит разрешений на выход.
func (s *ReconciliationService) ResetExternalQuota(ctx context.Context) error {
	var users []entities.User
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		users, err = s.userRepo.ResetExternalActivities(ctx, tx, s.policy.ExternalActivitiesLimit)
		return err
	})
	if err != nil {
		s.logger.Error("Ошибка сброса лимита разрешений на выход", zap.Error(err))
		return err
	}

	for _, u := range users {
		s.notifier.Notify(ctx, u.Email, "Лимит разрешений на выход обновлён",
			fmt.Sprintf("Ваш лимит разрешений на выход в этом месяце: %d.", s.policy.ExternalActivitiesLimit), "")
	}
	s.logger.Info("Лимит разрешений на выход сброшен", zap.Int("users", len(users)))
	return nil
}

// ResetAnnualLeave восстанавливает годовой баланс отпуска.
func (s *ReconciliationService) ResetAnnualLeave(ctx context.Context) error {
	var users []entities.User
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		users, err = s.userRepo.ResetLeaveDays(ctx, tx, s.policy.AnnualLeaveDays)
		return err
	})
	if err != nil {
		s.logger.Error("Ошибка сброса годового баланса отпуска", zap.Error(err))
		return err
	}

	for _, u := range users {
		s.notifier.Notify(ctx, u.Email, "Баланс отпуска обновлён",
			fmt.Sprintf("Ваш баланс отпуска на новый год: %s дн.", utils.FormatDays(s.policy.AnnualLeaveDays)), "")
	}
	s.logger.Info("Годовой баланс отпуска сброшен", zap.Int("users", len(users)))
	return nil
}
