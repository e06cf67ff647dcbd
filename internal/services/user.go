package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"leave-system/internal/authz"
	"leave-system/internal/dto"
	"leave-system/internal/entities"
	"leave-system/internal/repositories"
	"leave-system/pkg/config"
	"leave-system/pkg/constants"
	apperrors "leave-system/pkg/errors"
	"leave-system/pkg/types"
	"leave-system/pkg/utils"
)

type UserServiceInterface interface {
	AddUser(ctx context.Context, payload dto.CreateUserDTO) (*dto.UserDTO, error)
	GetByEmail(ctx context.Context, email string) (*dto.UserDTO, error)
	GetByID(ctx context.Context, id uint64) (*dto.UserDTO, error)
	GetAll(ctx context.Context, filter types.Filter) ([]dto.UserDTO, uint64, error)
	// GetByManager - участники команд, которыми руководит пользователь.
	GetByManager(ctx context.Context, managerEmail string) ([]dto.UserDTO, error)
	Update(ctx context.Context, payload dto.UpdateUserDTO) (*dto.UserDTO, error)
	DeleteByEmail(ctx context.Context, email string) error
	DeleteByID(ctx context.Context, id uint64) error
	ResetPassword(ctx context.Context, payload dto.ResetPasswordDTO) error
	AffectToTeam(ctx context.Context, payload dto.AffectUserToTeamDTO) error
	RemoveFromTeam(ctx context.Context, payload dto.RemoveUserFromTeamDTO) error
}

type UserService struct {
	txManager repositories.TxManagerInterface
	userRepo  repositories.UserRepositoryInterface
	teamRepo  repositories.TeamRepositoryInterface
	unitRepo  repositories.OrganizationalUnitRepositoryInterface
	dir       directory
	notifier  NotifierInterface
	policy    config.LeavePolicyConfig
	logger    *zap.Logger
}

func NewUserService(
	txManager repositories.TxManagerInterface,
	userRepo repositories.UserRepositoryInterface,
	teamRepo repositories.TeamRepositoryInterface,
	unitRepo repositories.OrganizationalUnitRepositoryInterface,
	notifier NotifierInterface,
	policy config.LeavePolicyConfig,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		txManager: txManager,
		userRepo:  userRepo,
		teamRepo:  teamRepo,
		unitRepo:  unitRepo,
		dir:       directory{userRepo: userRepo, teamRepo: teamRepo, unitRepo: unitRepo, logger: logger},
		notifier:  notifier,
		policy:    policy,
		logger:    logger,
	}
}

func (s *UserService) AddUser(ctx context.Context, payload dto.CreateUserDTO) (*dto.UserDTO, error) {
	actor, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return nil, err
	}
	if !authz.RoleHas(actor.Role, authz.AdminCreate) {
		return nil, apperrors.ErrUnauthorizedAction
	}

	hash, err := utils.HashPassword(payload.Password)
	if err != nil {
		return nil, fmt.Errorf("ошибка хэширования пароля: %w", err)
	}

	user := &entities.User{
		FirstName:               utils.SanitizeText(payload.FirstName),
		LastName:                utils.SanitizeText(payload.LastName),
		Email:                   strings.ToLower(strings.TrimSpace(payload.Email)),
		Password:                hash,
		Role:                    constants.Role(payload.Role),
		LeaveDays:               s.policy.AnnualLeaveDays,
		ExternalActivitiesLimit: s.policy.ExternalActivitiesLimit,
	}
	if payload.Phone != "" {
		user.Phone = utils.StringPtr(payload.Phone)
	}
	if payload.Gender != "" {
		user.Gender = utils.StringPtr(payload.Gender)
	}

	id, err := s.userRepo.Create(ctx, nil, user)
	if err != nil {
		return nil, err
	}
	user.ID = id

	s.notifier.Notify(ctx, user.Email, "Учётная запись создана",
		fmt.Sprintf("Для вас создана учётная запись.\nЛогин: %s\nПароль: %s\nРекомендуем сменить пароль после первого входа.", user.Email, payload.Password),
		"/login")
	s.logger.Info("Пользователь создан", zap.Uint64("userID", id), zap.String("email", user.Email), zap.String("actor", actor.Email))
	return ToUserDTO(user), nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*dto.UserDTO, error) {
	user, err := s.userRepo.FindByEmail(ctx, nil, email)
	if err != nil {
		return nil, err
	}
	return ToUserDTO(user), nil
}

func (s *UserService) GetByID(ctx context.Context, id uint64) (*dto.UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return ToUserDTO(user), nil
}

func (s *UserService) GetAll(ctx context.Context, filter types.Filter) ([]dto.UserDTO, uint64, error) {
	users, total, err := s.userRepo.GetAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return toUserDTOs(users), total, nil
}

func (s *UserService) GetByManager(ctx context.Context, managerEmail string) ([]dto.UserDTO, error) {
	teamIDs, err := s.dir.managedTeamIDs(ctx, managerEmail)
	if err != nil {
		return nil, err
	}
	result := make([]dto.UserDTO, 0)
	for _, teamID := range teamIDs {
		members, err := s.userRepo.FindByTeamID(ctx, nil, teamID)
		if err != nil {
			return nil, err
		}
		result = append(result, toUserDTOs(members)...)
	}
	return result, nil
}

func (s *UserService) Update(ctx context.Context, payload dto.UpdateUserDTO) (*dto.UserDTO, error) {
	actor, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return nil, err
	}
	target, err := s.userRepo.FindByEmail(ctx, nil, payload.Email)
	if err != nil {
		return nil, err
	}

	authCtx := authz.NewContext(actor).
		WithOwner(target.ID).
		WithTeam(s.dir.teamOf(ctx, target)).
		WithUnit(s.dir.unit(ctx, target.OrganizationalUnitID))
	if !authz.CanDo(authz.ActionUpdateUser, authCtx) {
		return nil, apperrors.ErrUnauthorizedAction
	}
	// Роль и лимиты меняет только администратор.
	adminOnly := payload.Role.Valid || payload.LeaveDays.Valid || payload.ExternalActivitiesLimit.Valid
	if adminOnly && !authCtx.HasPermission(authz.AdminUpdate) {
		return nil, apperrors.ErrUnauthorizedAction
	}

	if payload.FirstName.Valid {
		target.FirstName = utils.SanitizeText(payload.FirstName.String)
	}
	if payload.LastName.Valid {
		target.LastName = utils.SanitizeText(payload.LastName.String)
	}
	if payload.Phone.Valid {
		target.Phone = utils.StringPtr(payload.Phone.String)
	}
	if payload.Gender.Valid {
		target.Gender = utils.StringPtr(payload.Gender.String)
	}
	if payload.Role.Valid {
		target.Role = constants.Role(payload.Role.String)
	}
	if payload.LeaveDays.Valid {
		target.LeaveDays = payload.LeaveDays.Float64
	}
	if payload.ExternalActivitiesLimit.Valid {
		target.ExternalActivitiesLimit = payload.ExternalActivitiesLimit.Int
	}
	if payload.TelegramChatID.Valid {
		target.TelegramChatID = sql.NullInt64{Int64: payload.TelegramChatID.Int64, Valid: true}
	}

	if err := s.userRepo.Update(ctx, nil, target); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, target.Email, "Учётная запись изменена",
		"Данные вашей учётной записи изменены. Если это были не вы, обратитесь к администратору.", "/profile")
	s.logger.Info("Пользователь обновлён", zap.String("email", target.Email), zap.String("actor", actor.Email))
	return ToUserDTO(target), nil
}

func (s *UserService) DeleteByEmail(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, nil, email)
	if err != nil {
		return err
	}
	return s.delete(ctx, user)
}

func (s *UserService) DeleteByID(ctx context.Context, id uint64) error {
	user, err := s.userRepo.FindByID(ctx, nil, id)
	if err != nil {
		return err
	}
	return s.delete(ctx, user)
}

// delete снимает пользователя с руководства подразделением и командами, затем удаляет.
func (s *UserService) delete(ctx context.Context, user *entities.User) error {
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.unitRepo.ClearManager(ctx, tx, user.ID); err != nil {
			return err
		}
		if err := s.teamRepo.ClearManager(ctx, tx, user.ID); err != nil {
			return err
		}
		return s.userRepo.Delete(ctx, tx, user.ID)
	})
	if err != nil {
		s.logger.Error("Ошибка удаления пользователя", zap.String("email", user.Email), zap.Error(err))
		return err
	}

	s.notifier.Notify(ctx, user.Email, "Учётная запись удалена",
		"Ваша учётная запись удалена. Если это ошибка, обратитесь к администратору.", "")
	s.logger.Info("Пользователь удалён", zap.Uint64("userID", user.ID), zap.String("email", user.Email))
	return nil
}

func (s *UserService) ResetPassword(ctx context.Context, payload dto.ResetPasswordDTO) error {
	user, err := currentUser(ctx, s.userRepo)
	if err != nil {
		return err
	}
	if err := utils.ComparePasswords(user.Password, payload.OldPassword); err != nil {
		return apperrors.NewInvalidInputError("неверный текущий пароль")
	}
	hash, err := utils.HashPassword(payload.NewPassword)
	if err != nil {
		return fmt.Errorf("ошибка хэширования пароля: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, nil, user.ID, hash); err != nil {
		return err
	}
	s.notifier.Notify(ctx, user.Email, "Пароль изменён",
		"Ваш пароль изменён. Если это были не вы, обратитесь к администратору.", "")
	s.logger.Info("Пароль пользователя изменён", zap.Uint64("userID", user.ID))
	return nil
}

func (s *UserService) AffectToTeam(ctx context.Context, payload dto.AffectUserToTeamDTO) error {
	user, err := s.userRepo.FindByEmail(ctx, nil, payload.UserEmail)
	if err != nil {
		return err
	}
	team, err := s.teamRepo.FindByName(ctx, nil, payload.TeamName)
	if err != nil {
		return err
	}
	if err := s.userRepo.SetTeam(ctx, nil, user.ID, &team.ID); err != nil {
		return err
	}

	body := fmt.Sprintf("Вы добавлены в команду %s.", team.Name)
	if manager := s.dir.teamManager(ctx, team); manager != nil {
		body += fmt.Sprintf(" Ваш руководитель: %s.", manager.FullName())
	}
	s.notifier.Notify(ctx, user.Email, "Назначение в команду", body, "/teams")
	s.logger.Info("Пользователь добавлен в команду", zap.String("email", user.Email), zap.String("team", team.Name))
	return nil
}

func (s *UserService) RemoveFromTeam(ctx context.Context, payload dto.RemoveUserFromTeamDTO) error {
	user, err := s.userRepo.FindByEmail(ctx, nil, payload.UserEmail)
	if err != nil {
		return err
	}
	if user.TeamID == nil {
		return apperrors.NewInvalidInputError("пользователь %s не состоит в команде", user.Email)
	}
	team := s.dir.teamOf(ctx, user)
	if err := s.userRepo.SetTeam(ctx, nil, user.ID, nil); err != nil {
		return err
	}

	body := "Вы исключены из команды."
	if team != nil {
		body = fmt.Sprintf("Вы исключены из команды %s.", team.Name)
	}
	s.notifier.Notify(ctx, user.Email, "Исключение из команды", body, "")
	s.logger.Info("Пользователь исключён из команды", zap.String("email", user.Email))
	return nil
}

func ToUserDTO(u *entities.User) *dto.UserDTO {
	result := &dto.UserDTO{
		ID:                      u.ID,
		FirstName:               u.FirstName,
		LastName:                u.LastName,
		Email:                   u.Email,
		Phone:                   u.Phone,
		Gender:                  u.Gender,
		Role:                    string(u.Role),
		LeaveDays:               u.LeaveDays,
		ExternalActivitiesLimit: u.ExternalActivitiesLimit,
		OnLeave:                 u.OnLeave,
		TeamID:                  u.TeamID,
		OrganizationalUnitID:    u.OrganizationalUnitID,
	}
	if u.ReturnDate != nil {
		rd := formatTime(*u.ReturnDate)
		result.ReturnDate = &rd
	}
	if u.CreatedAt != nil {
		result.CreatedAt = formatTime(*u.CreatedAt)
	}
	return result
}

func toUserDTOs(users []entities.User) []dto.UserDTO {
	result := make([]dto.UserDTO, 0, len(users))
	for i := range users {
		result = append(result, *ToUserDTO(&users[i]))
	}
	return result
}

func toShortUserDTOs(users []entities.User) []dto.ShortUserDTO {
	result := make([]dto.ShortUserDTO, 0, len(users))
	for i := range users {
		result = append(result, dto.ShortUserDTO{ID: users[i].ID, FullName: users[i].FullName(), Email: users[i].Email})
	}
	return result
}
