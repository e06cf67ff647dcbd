package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"leave-system/internal/dto"
	"leave-system/internal/entities"
	"leave-system/internal/repositories"
	apperrors "leave-system/pkg/errors"
	"leave-system/pkg/types"
	"leave-system/pkg/utils"
)

type OrganizationalUnitServiceInterface interface {
	Create(ctx context.Context, payload dto.CreateOrganizationalUnitDTO) (*dto.OrganizationalUnitDTO, error)
	Update(ctx context.Context, id uint64, payload dto.UpdateOrganizationalUnitDTO) (*dto.OrganizationalUnitDTO, error)
	DeleteByID(ctx context.Context, id uint64) error
	DeleteByName(ctx context.Context, name string) error
	GetByID(ctx context.Context, id uint64) (*dto.OrganizationalUnitDTO, error)
	GetAll(ctx context.Context, filter types.Filter) ([]dto.OrganizationalUnitDTO, uint64, error)
	GetTeams(ctx context.Context, id uint64) ([]dto.TeamDTO, error)

	AffectTeam(ctx context.Context, payload dto.UnitTeamDTO) error
	RemoveTeam(ctx context.Context, payload dto.UnitTeamDTO) error
	AffectManager(ctx context.Context, payload dto.UnitManagerDTO) error
	AffectMember(ctx context.Context, payload dto.UnitMemberDTO) error
	RemoveMember(ctx context.Context, payload dto.UnitMemberDTO) error
}

type OrganizationalUnitService struct {
	txManager repositories.TxManagerInterface
	unitRepo  repositories.OrganizationalUnitRepositoryInterface
	teamRepo  repositories.TeamRepositoryInterface
	userRepo  repositories.UserRepositoryInterface
	notifier  NotifierInterface
	logger    *zap.Logger
}

func NewOrganizationalUnitService(
	txManager repositories.TxManagerInterface,
	unitRepo repositories.OrganizationalUnitRepositoryInterface,
	teamRepo repositories.TeamRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	notifier NotifierInterface,
	logger *zap.Logger,
) *OrganizationalUnitService {
	return &OrganizationalUnitService{
		txManager: txManager,
		unitRepo:  unitRepo,
		teamRepo:  teamRepo,
		userRepo:  userRepo,
		notifier:  notifier,
		logger:    logger,
	}
}

func (s *OrganizationalUnitService) Create(ctx context.Context, payload dto.CreateOrganizationalUnitDTO) (*dto.OrganizationalUnitDTO, error) {
	if payload.Name == "" {
		return nil, apperrors.NewInvalidInputError("название подразделения обязательно")
	}
	manager, err := s.managerByEmail(ctx, payload.ManagerEmail)
	if err != nil {
		return nil, err
	}

	// Команды только привязываются: создание команд идёт через отдельный эндпоинт.
	teams := make([]*entities.Team, 0, len(payload.TeamNames))
	for _, name := range payload.TeamNames {
		team, err := s.teamRepo.FindByName(ctx, nil, name)
		if err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}

	unit := &entities.OrganizationalUnit{
		Name:      utils.SanitizeText(payload.Name),
		ManagerID: &manager.ID,
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		id, err := s.unitRepo.Create(ctx, tx, unit)
		if err != nil {
			return err
		}
		unit.ID = id
		if err := s.userRepo.SetUnit(ctx, tx, manager.ID, &unit.ID); err != nil {
			return err
		}
		for _, team := range teams {
			if err := s.teamRepo.SetUnit(ctx, tx, team.ID, &unit.ID); err != nil {
				return err
			}
			if _, err := s.userRepo.MoveTeamMembersToUnit(ctx, tx, team.ID, unit.ID); err != nil {
				return err
			}
		}
		for _, email := range payload.MemberEmails {
			member, err := s.userRepo.FindByEmail(ctx, tx, email)
			if err != nil {
				if isNotFound(err) {
					s.logger.Warn("Сотрудник не найден, пропущен", zap.String("email", email))
					continue
				}
				return err
			}
			if err := s.userRepo.SetUnit(ctx, tx, member.ID, &unit.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Ошибка создания подразделения", zap.String("unit", payload.Name), zap.Error(err))
		return nil, err
	}

	s.notifier.Notify(ctx, manager.Email, "Подразделение создано",
		fmt.Sprintf("Вы назначены руководителем подразделения %s.", unit.Name), unitLink(unit.ID))
	s.logger.Info("Подразделение создано", zap.Uint64("unitID", unit.ID), zap.String("unit", unit.Name))
	return toUnitDTO(unit, nil), nil
}

func (s *OrganizationalUnitService) Update(ctx context.Context, id uint64, payload dto.UpdateOrganizationalUnitDTO) (*dto.OrganizationalUnitDTO, error) {
	unit, err := s.unitRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	var manager *entities.User
	if payload.ManagerEmail.Valid {
		manager, err = s.managerByEmail(ctx, payload.ManagerEmail.String)
		if err != nil {
			return nil, err
		}
		unit.ManagerID = &manager.ID
	}
	if payload.Name.Valid {
		unit.Name = utils.SanitizeText(payload.Name.String)
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.unitRepo.Update(ctx, tx, unit); err != nil {
			return err
		}
		if manager != nil {
			return s.userRepo.SetUnit(ctx, tx, manager.ID, &unit.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if manager != nil {
		s.notifier.Notify(ctx, manager.Email, "Подразделение изменено",
			fmt.Sprintf("Вы назначены руководителем подразделения %s.", unit.Name), unitLink(unit.ID))
	}
	return toUnitDTO(unit, nil), nil
}

func (s *OrganizationalUnitService) DeleteByID(ctx context.Context, id uint64) error {
	unit, err := s.unitRepo.FindByID(ctx, nil, id)
	if err != nil {
		return err
	}
	return s.delete(ctx, unit)
}

func (s *OrganizationalUnitService) DeleteByName(ctx context.Context, name string) error {
	unit, err := s.unitRepo.FindByName(ctx, nil, name)
	if err != nil {
		return err
	}
	return s.delete(ctx, unit)
}

func (s *OrganizationalUnitService) delete(ctx context.Context, unit *entities.OrganizationalUnit) error {
	if err := s.unitRepo.Delete(ctx, nil, unit.ID); err != nil {
		s.logger.Error("Ошибка удаления подразделения", zap.String("unit", unit.Name), zap.Error(err))
		return err
	}
	if manager := s.manager(ctx, unit); manager != nil {
		s.notifier.Notify(ctx, manager.Email, "Подразделение удалено",
			fmt.Sprintf("Подразделение %s удалено.", unit.Name), "")
	}
	s.logger.Info("Подразделение удалено", zap.Uint64("unitID", unit.ID))
	return nil
}

func (s *OrganizationalUnitService) GetByID(ctx context.Context, id uint64) (*dto.OrganizationalUnitDTO, error) {
	unit, err := s.unitRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	members, err := s.userRepo.FindByUnitID(ctx, nil, unit.ID)
	if err != nil {
		return nil, err
	}
	return toUnitDTO(unit, members), nil
}

func (s *OrganizationalUnitService) GetAll(ctx context.Context, filter types.Filter) ([]dto.OrganizationalUnitDTO, uint64, error) {
	units, total, err := s.unitRepo.GetAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	result := make([]dto.OrganizationalUnitDTO, 0, len(units))
	for i := range units {
		result = append(result, *toUnitDTO(&units[i], nil))
	}
	return result, total, nil
}

func (s *OrganizationalUnitService) GetTeams(ctx context.Context, id uint64) ([]dto.TeamDTO, error) {
	if _, err := s.unitRepo.FindByID(ctx, nil, id); err != nil {
		return nil, err
	}
	teams, err := s.teamRepo.FindByUnitID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return toTeamDTOs(teams), nil
}

// AffectTeam привязывает команду к подразделению вместе со всеми её участниками.
func (s *OrganizationalUnitService) AffectTeam(ctx context.Context, payload dto.UnitTeamDTO) error {
	unit, err := s.unitRepo.FindByID(ctx, nil, payload.UnitID)
	if err != nil {
		return err
	}
	team, err := s.teamRepo.FindByName(ctx, nil, payload.TeamName)
	if err != nil {
		return err
	}

	var moved []entities.User
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.teamRepo.SetUnit(ctx, tx, team.ID, &unit.ID); err != nil {
			return err
		}
		members, err := s.userRepo.FindByTeamID(ctx, tx, team.ID)
		if err != nil {
			return err
		}
		if _, err := s.userRepo.MoveTeamMembersToUnit(ctx, tx, team.ID, unit.ID); err != nil {
			return err
		}
		for _, m := range members {
			if m.OrganizationalUnitID == nil || *m.OrganizationalUnitID != unit.ID {
				moved = append(moved, m)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Ошибка привязки команды к подразделению",
			zap.Uint64("unitID", unit.ID), zap.String("team", team.Name), zap.Error(err))
		return err
	}

	for _, m := range moved {
		s.notifier.Notify(ctx, m.Email, "Перевод в подразделение",
			fmt.Sprintf("Ваша команда %s переведена в подразделение %s.", team.Name, unit.Name), unitLink(unit.ID))
	}
	if manager := s.manager(ctx, unit); manager != nil {
		s.notifier.Notify(ctx, manager.Email, "Новая команда в подразделении",
			fmt.Sprintf("Команда %s присоединена к подразделению %s.", team.Name, unit.Name), teamLink(team.ID))
	}
	return nil
}

func (s *OrganizationalUnitService) RemoveTeam(ctx context.Context, payload dto.UnitTeamDTO) error {
	unit, err := s.unitRepo.FindByID(ctx, nil, payload.UnitID)
	if err != nil {
		return err
	}
	team, err := s.teamRepo.FindByName(ctx, nil, payload.TeamName)
	if err != nil {
		return err
	}
	if team.OrganizationalUnitID == nil || *team.OrganizationalUnitID != unit.ID {
		return apperrors.NewInvalidInputError("команда %s не входит в подразделение %s", team.Name, unit.Name)
	}

	var members []entities.User
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.teamRepo.SetUnit(ctx, tx, team.ID, nil); err != nil {
			return err
		}
		members, err = s.userRepo.FindByTeamID(ctx, tx, team.ID)
		if err != nil {
			return err
		}
		for _, m := range members {
			if err := s.userRepo.SetUnit(ctx, tx, m.ID, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, m := range members {
		s.notifier.Notify(ctx, m.Email, "Изменение подразделения",
			fmt.Sprintf("Ваша команда %s исключена из подразделения %s.", team.Name, unit.Name), "")
	}
	if manager := s.manager(ctx, unit); manager != nil {
		s.notifier.Notify(ctx, manager.Email, "Команда исключена",
			fmt.Sprintf("Команда %s исключена из подразделения %s.", team.Name, unit.Name), unitLink(unit.ID))
	}
	return nil
}

func (s *OrganizationalUnitService) AffectManager(ctx context.Context, payload dto.UnitManagerDTO) error {
	unit, err := s.unitRepo.FindByID(ctx, nil, payload.UnitID)
	if err != nil {
		return err
	}
	manager, err := s.managerByEmail(ctx, payload.ManagerEmail)
	if err != nil {
		return err
	}
	unit.ManagerID = &manager.ID

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.unitRepo.Update(ctx, tx, unit); err != nil {
			return err
		}
		return s.userRepo.SetUnit(ctx, tx, manager.ID, &unit.ID)
	})
	if err != nil {
		return err
	}

	s.notifier.Notify(ctx, manager.Email, "Назначение руководителем",
		fmt.Sprintf("Вы назначены руководителем подразделения %s.", unit.Name), unitLink(unit.ID))
	return nil
}

func (s *OrganizationalUnitService) AffectMember(ctx context.Context, payload dto.UnitMemberDTO) error {
	unit, err := s.unitRepo.FindByID(ctx, nil, payload.UnitID)
	if err != nil {
		return err
	}
	user, err := s.userRepo.FindByEmail(ctx, nil, payload.UserEmail)
	if err != nil {
		return err
	}
	if err := s.userRepo.SetUnit(ctx, nil, user.ID, &unit.ID); err != nil {
		return err
	}
	s.notifier.Notify(ctx, user.Email, "Перевод в подразделение",
		fmt.Sprintf("Вы добавлены в подразделение %s.", unit.Name), unitLink(unit.ID))
	return nil
}

func (s *OrganizationalUnitService) RemoveMember(ctx context.Context, payload dto.UnitMemberDTO) error {
	unit, err := s.unitRepo.FindByID(ctx, nil, payload.UnitID)
	if err != nil {
		return err
	}
	user, err := s.userRepo.FindByEmail(ctx, nil, payload.UserEmail)
	if err != nil {
		return err
	}
	if user.OrganizationalUnitID == nil || *user.OrganizationalUnitID != unit.ID {
		return apperrors.NewInvalidInputError("сотрудник %s не входит в подразделение %s", user.Email, unit.Name)
	}
	if err := s.userRepo.SetUnit(ctx, nil, user.ID, nil); err != nil {
		return err
	}
	s.notifier.Notify(ctx, user.Email, "Изменение подразделения",
		fmt.Sprintf("Вы исключены из подразделения %s.", unit.Name), "")
	return nil
}

func (s *OrganizationalUnitService) managerByEmail(ctx context.Context, email string) (*entities.User, error) {
	if email == "" {
		return nil, apperrors.NewInvalidInputError("email руководителя подразделения обязателен")
	}
	manager, err := s.userRepo.FindByEmail(ctx, nil, email)
	if err != nil {
		return nil, err
	}
	if !manager.CanManage() {
		return nil, apperrors.NewInvalidInputError("пользователь %s не является руководителем или администратором", email)
	}
	return manager, nil
}

func (s *OrganizationalUnitService) manager(ctx context.Context, unit *entities.OrganizationalUnit) *entities.User {
	if unit.ManagerID == nil {
		return nil
	}
	manager, err := s.userRepo.FindByID(ctx, nil, *unit.ManagerID)
	if err != nil {
		s.logger.Warn("Руководитель подразделения не найден", zap.Uint64("unitID", unit.ID), zap.Error(err))
		return nil
	}
	return manager
}

func unitLink(id uint64) string {
	return fmt.Sprintf("/organizational-units/%d", id)
}

func toUnitDTO(u *entities.OrganizationalUnit, members []entities.User) *dto.OrganizationalUnitDTO {
	result := &dto.OrganizationalUnitDTO{
		ID:        u.ID,
		Name:      u.Name,
		ManagerID: u.ManagerID,
		CreatedAt: formatTime(u.CreatedAt),
	}
	if members != nil {
		result.Members = toShortUserDTOs(members)
	}
	return result
}
