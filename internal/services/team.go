package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"leave-system/internal/dto"
	"leave-system/internal/entities"
	"leave-system/internal/repositories"
	"leave-system/pkg/constants"
	apperrors "leave-system/pkg/errors"
	"leave-system/pkg/types"
	"leave-system/pkg/utils"
)

type TeamServiceInterface interface {
	Create(ctx context.Context, payload dto.CreateTeamDTO) (*dto.TeamDTO, error)
	Update(ctx context.Context, id uint64, payload dto.UpdateTeamDTO) (*dto.TeamDTO, error)
	DeleteByID(ctx context.Context, id uint64) error
	DeleteByName(ctx context.Context, name string) error
	GetByID(ctx context.Context, id uint64) (*dto.TeamDTO, error)
	GetByName(ctx context.Context, name string) (*dto.TeamDTO, error)
	GetAll(ctx context.Context, filter types.Filter) ([]dto.TeamDTO, uint64, error)
	GetMembers(ctx context.Context, id uint64) ([]dto.UserDTO, error)
	GetByUnitID(ctx context.Context, unitID uint64) ([]dto.TeamDTO, error)
	GetByManagerEmail(ctx context.Context, managerEmail string) ([]dto.TeamDTO, error)
}

type TeamService struct {
	txManager repositories.TxManagerInterface
	teamRepo  repositories.TeamRepositoryInterface
	userRepo  repositories.UserRepositoryInterface
	unitRepo  repositories.OrganizationalUnitRepositoryInterface
	notifier  NotifierInterface
	logger    *zap.Logger
}

func NewTeamService(
	txManager repositories.TxManagerInterface,
	teamRepo repositories.TeamRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	unitRepo repositories.OrganizationalUnitRepositoryInterface,
	notifier NotifierInterface,
	logger *zap.Logger,
) *TeamService {
	return &TeamService{
		txManager: txManager,
		teamRepo:  teamRepo,
		userRepo:  userRepo,
		unitRepo:  unitRepo,
		notifier:  notifier,
		logger:    logger,
	}
}

func (s *TeamService) Create(ctx context.Context, payload dto.CreateTeamDTO) (*dto.TeamDTO, error) {
	if payload.Name == "" {
		return nil, apperrors.NewInvalidInputError("название команды обязательно")
	}
	if payload.OrgUnitName == "" {
		return nil, apperrors.NewInvalidInputError("подразделение обязательно")
	}
	if payload.TeamLeadEmail == "" {
		return nil, apperrors.NewInvalidInputError("email руководителя команды обязателен")
	}

	manager, err := s.managerByEmail(ctx, payload.TeamLeadEmail)
	if err != nil {
		return nil, err
	}
	unit, err := s.unitRepo.FindByName(ctx, nil, payload.OrgUnitName)
	if err != nil {
		return nil, err
	}

	team := &entities.Team{
		Name:                 utils.SanitizeText(payload.Name),
		Description:          reasonPtr(payload.Description),
		MinimumAttendance:    constants.DefaultMinimumAttendance,
		ManagerID:            &manager.ID,
		OrganizationalUnitID: &unit.ID,
	}
	if payload.MinimumAttendance != nil {
		team.MinimumAttendance = *payload.MinimumAttendance
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		id, err := s.teamRepo.Create(ctx, tx, team)
		if err != nil {
			return err
		}
		team.ID = id
		if err := s.userRepo.SetTeam(ctx, tx, manager.ID, &team.ID); err != nil {
			return err
		}
		for _, email := range payload.MemberEmails {
			member, err := s.userRepo.FindByEmail(ctx, tx, email)
			if err != nil {
				if isNotFound(err) {
					s.logger.Warn("Участник команды не найден, пропущен", zap.String("email", email))
					continue
				}
				return err
			}
			if err := s.userRepo.SetTeam(ctx, tx, member.ID, &team.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Ошибка создания команды", zap.String("team", payload.Name), zap.Error(err))
		return nil, err
	}

	s.notifier.Notify(ctx, manager.Email, "Команда создана",
		fmt.Sprintf("Вы назначены руководителем команды %s.", team.Name), teamLink(team.ID))
	s.logger.Info("Команда создана", zap.Uint64("teamID", team.ID), zap.String("team", team.Name))
	return toTeamDTO(team, nil), nil
}

func (s *TeamService) Update(ctx context.Context, id uint64, payload dto.UpdateTeamDTO) (*dto.TeamDTO, error) {
	team, err := s.teamRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	var manager *entities.User
	if payload.TeamLeadEmail.Valid {
		manager, err = s.managerByEmail(ctx, payload.TeamLeadEmail.String)
		if err != nil {
			return nil, err
		}
		team.ManagerID = &manager.ID
	}
	if payload.Name.Valid {
		team.Name = utils.SanitizeText(payload.Name.String)
	}
	if payload.Description.Valid {
		team.Description = reasonPtr(payload.Description.String)
	}
	if payload.MinimumAttendance.Valid {
		team.MinimumAttendance = payload.MinimumAttendance.Int
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.teamRepo.Update(ctx, tx, team); err != nil {
			return err
		}
		if manager != nil {
			return s.userRepo.SetTeam(ctx, tx, manager.ID, &team.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if manager == nil && team.ManagerID != nil {
		manager, _ = s.userRepo.FindByID(ctx, nil, *team.ManagerID)
	}
	if manager != nil {
		s.notifier.Notify(ctx, manager.Email, "Команда изменена",
			fmt.Sprintf("Данные команды %s изменены. Вы её руководитель.", team.Name), teamLink(team.ID))
	}
	return toTeamDTO(team, nil), nil
}

func (s *TeamService) DeleteByID(ctx context.Context, id uint64) error {
	team, err := s.teamRepo.FindByID(ctx, nil, id)
	if err != nil {
		return err
	}
	return s.delete(ctx, team)
}

func (s *TeamService) DeleteByName(ctx context.Context, name string) error {
	team, err := s.teamRepo.FindByName(ctx, nil, name)
	if err != nil {
		return err
	}
	return s.delete(ctx, team)
}

// delete удаляет команду; участники остаются без команды (ON DELETE SET NULL).
func (s *TeamService) delete(ctx context.Context, team *entities.Team) error {
	if err := s.teamRepo.Delete(ctx, nil, team.ID); err != nil {
		s.logger.Error("Ошибка удаления команды", zap.String("team", team.Name), zap.Error(err))
		return err
	}
	if team.ManagerID != nil {
		if manager, err := s.userRepo.FindByID(ctx, nil, *team.ManagerID); err == nil {
			s.notifier.Notify(ctx, manager.Email, "Команда удалена",
				fmt.Sprintf("Команда %s удалена. Вы больше не её руководитель.", team.Name), "")
		}
	}
	s.logger.Info("Команда удалена", zap.Uint64("teamID", team.ID), zap.String("team", team.Name))
	return nil
}

func (s *TeamService) GetByID(ctx context.Context, id uint64) (*dto.TeamDTO, error) {
	team, err := s.teamRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return s.withMembers(ctx, team)
}

func (s *TeamService) GetByName(ctx context.Context, name string) (*dto.TeamDTO, error) {
	team, err := s.teamRepo.FindByName(ctx, nil, name)
	if err != nil {
		return nil, err
	}
	return s.withMembers(ctx, team)
}

func (s *TeamService) GetAll(ctx context.Context, filter types.Filter) ([]dto.TeamDTO, uint64, error) {
	teams, total, err := s.teamRepo.GetAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return toTeamDTOs(teams), total, nil
}

func (s *TeamService) GetMembers(ctx context.Context, id uint64) ([]dto.UserDTO, error) {
	if _, err := s.teamRepo.FindByID(ctx, nil, id); err != nil {
		return nil, err
	}
	members, err := s.userRepo.FindByTeamID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return toUserDTOs(members), nil
}

func (s *TeamService) GetByUnitID(ctx context.Context, unitID uint64) ([]dto.TeamDTO, error) {
	if _, err := s.unitRepo.FindByID(ctx, nil, unitID); err != nil {
		return nil, err
	}
	teams, err := s.teamRepo.FindByUnitID(ctx, nil, unitID)
	if err != nil {
		return nil, err
	}
	return toTeamDTOs(teams), nil
}

func (s *TeamService) GetByManagerEmail(ctx context.Context, managerEmail string) ([]dto.TeamDTO, error) {
	manager, err := s.userRepo.FindByEmail(ctx, nil, managerEmail)
	if err != nil {
		return nil, err
	}
	teams, err := s.teamRepo.FindByManagerID(ctx, nil, manager.ID)
	if err != nil {
		return nil, err
	}
	return toTeamDTOs(teams), nil
}

func (s *TeamService) managerByEmail(ctx context.Context, email string) (*entities.User, error) {
	manager, err := s.userRepo.FindByEmail(ctx, nil, email)
	if err != nil {
		return nil, err
	}
	if !manager.CanManage() {
		return nil, apperrors.NewInvalidInputError("пользователь %s не является руководителем или администратором", email)
	}
	return manager, nil
}

func (s *TeamService) withMembers(ctx context.Context, team *entities.Team) (*dto.TeamDTO, error) {
	members, err := s.userRepo.FindByTeamID(ctx, nil, team.ID)
	if err != nil {
		return nil, err
	}
	return toTeamDTO(team, members), nil
}

func teamLink(id uint64) string {
	return fmt.Sprintf("/teams/%d", id)
}

func toTeamDTO(t *entities.Team, members []entities.User) *dto.TeamDTO {
	result := &dto.TeamDTO{
		ID:                   t.ID,
		Name:                 t.Name,
		Description:          t.Description,
		MinimumAttendance:    t.MinimumAttendance,
		ManagerID:            t.ManagerID,
		OrganizationalUnitID: t.OrganizationalUnitID,
		CreatedAt:            formatTime(t.CreatedAt),
	}
	if members != nil {
		result.Members = toShortUserDTOs(members)
	}
	return result
}

func toTeamDTOs(teams []entities.Team) []dto.TeamDTO {
	result := make([]dto.TeamDTO, 0, len(teams))
	for i := range teams {
		result = append(result, *toTeamDTO(&teams[i], nil))
	}
	return result
}
