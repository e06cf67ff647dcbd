package authz

import (
	"leave-system/internal/entities"
)

// Action - действие над заявкой или справочником, которое проверяется с учётом владельца.
type Action string

const (
	// Создание заявки на другого пользователя.
	ActionCreateForUser Action = "create_for_user"
	// Создание заявки от имени команды.
	ActionCreateForTeam Action = "create_for_team"
	// Создание больничного.
	ActionCreateSickLeave Action = "create_sick_leave"
	// Создание отпуска команды.
	ActionCreateTeamLeave Action = "create_team_leave"
	// Заявка сразу принимается без согласования.
	ActionBypassApproval Action = "bypass_approval"
	// Рассмотрение заявки любым руководителем.
	ActionTreat Action = "treat"
	// Рассмотрение заявки: администратор или руководитель команды владельца.
	ActionTreatAsTeamManager Action = "treat_as_team_manager"
	// Изменение и удаление заявки.
	ActionModifyRequest Action = "modify_request"
	// Изменение карточки сотрудника.
	ActionUpdateUser Action = "update_user"
)

type Context struct {
	Actor       *entities.User
	Permissions map[string]bool
	// OwnerID - владелец заявки или целевой пользователь.
	OwnerID uint64
	// Team - команда владельца либо команда, к которой относится заявка.
	Team *entities.Team
	Unit *entities.OrganizationalUnit
}

// NewContext собирает контекст проверки с правами роли актора.
func NewContext(actor *entities.User) Context {
	return Context{Actor: actor, Permissions: PermissionsFor(actor.Role)}
}

func (c Context) WithOwner(ownerID uint64) Context {
	c.OwnerID = ownerID
	return c
}

func (c Context) WithTeam(team *entities.Team) Context {
	c.Team = team
	return c
}

func (c Context) WithUnit(unit *entities.OrganizationalUnit) Context {
	c.Unit = unit
	return c
}

func (c *Context) HasPermission(permission string) bool {
	if c.Permissions == nil {
		return false
	}
	return c.Permissions[permission]
}

func (c *Context) isOwner() bool {
	return c.OwnerID != 0 && c.Actor.ID == c.OwnerID
}

func (c *Context) managesTeam() bool {
	return c.Team != nil && c.Team.IsManagedBy(c.Actor.ID)
}

func (c *Context) managesUnit() bool {
	return c.Unit != nil && c.Unit.ManagerID != nil && *c.Unit.ManagerID == c.Actor.ID
}

func CanDo(action Action, ctx Context) bool {
	if ctx.Actor == nil {
		return false
	}

	switch action {
	case ActionCreateForUser:
		return ctx.isOwner() || ctx.HasPermission(ManagerCreate)

	case ActionCreateForTeam:
		return ctx.managesTeam() || ctx.HasPermission(ManagerCreate)

	case ActionCreateSickLeave:
		return ctx.HasPermission(AdminCreate)

	case ActionCreateTeamLeave:
		return ctx.HasPermission(ManagerCreate)

	case ActionBypassApproval:
		return ctx.HasPermission(AdminUpdate)

	case ActionTreat:
		return ctx.HasPermission(ManagerUpdate)

	case ActionTreatAsTeamManager:
		// Администратор рассматривает любые заявки, даже не связанные с ним
		if ctx.HasPermission(AdminUpdate) {
			return true
		}
		return ctx.managesTeam()

	case ActionModifyRequest:
		return ctx.isOwner() || ctx.HasPermission(ManagerUpdate)

	case ActionUpdateUser:
		if ctx.HasPermission(AdminUpdate) {
			return true
		}
		return ctx.managesTeam() || ctx.managesUnit()
	}

	return false
}
