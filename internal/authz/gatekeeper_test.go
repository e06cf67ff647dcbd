package authz

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"leave-system/internal/entities"
	"leave-system/pkg/constants"
)

func TestRolePermissionTable(t *testing.T) {
	assert.Empty(t, PermissionsFor(constants.RoleUser))
	assert.Len(t, PermissionsFor(constants.RoleManager), 4)
	assert.Len(t, PermissionsFor(constants.RoleAdmin), 8)

	assert.True(t, RoleHas(constants.RoleAdmin, ManagerDelete))
	assert.False(t, RoleHas(constants.RoleManager, AdminRead))
	assert.False(t, RoleHas(constants.Role("GUEST"), ManagerRead))
}

func TestPermissionsFor_ReturnsCopy(t *testing.T) {
	perms := PermissionsFor(constants.RoleManager)
	perms[AdminDelete] = true

	assert.False(t, RoleHas(constants.RoleManager, AdminDelete))
}

func TestGatekeeper_AllowPath(t *testing.T) {
	g := NewGatekeeper()

	cases := []struct {
		name   string
		role   string
		method string
		path   string
		want   bool
	}{
		{"admin на /admin/", "ADMIN", http.MethodPost, "/api/v1/users/admin/add-user", true},
		{"manager на /admin/", "MANAGER", http.MethodGet, "/api/v1/organizational-unit/admin/all", false},
		{"user на /admin/", "USER", http.MethodDelete, "/api/v1/users/admin/a@b.c", false},
		{"manager на /management/", "MANAGER", http.MethodPut, "/api/v1/teams/management/update/1", true},
		{"admin на /management/", "ADMIN", http.MethodGet, "/api/v1/users/management/get-users", true},
		{"user на /management/", "USER", http.MethodGet, "/api/v1/team-leave/management/all", false},
		{"user на общий путь", "USER", http.MethodPost, "/api/v1/employee-leave/user/create", true},
		{"роль в нижнем регистре", "admin", http.MethodGet, "/api/v1/users/admin/all", true},
		{"неизвестная роль", "GUEST", http.MethodGet, "/api/v1/employee-leave/all", false},
		{"похожий сегмент не считается", "USER", http.MethodGet, "/api/v1/users/administrator", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, g.AllowPath(tc.role, tc.method, tc.path))
		})
	}
}

func TestCanDo(t *testing.T) {
	managerID := uint64(10)
	user := &entities.User{ID: 1, Role: constants.RoleUser}
	other := &entities.User{ID: 2, Role: constants.RoleUser}
	manager := &entities.User{ID: managerID, Role: constants.RoleManager}
	admin := &entities.User{ID: 99, Role: constants.RoleAdmin}
	team := &entities.Team{ID: 5, ManagerID: &managerID}
	foreignManager := &entities.User{ID: 11, Role: constants.RoleManager}

	t.Run("владелец может менять свою заявку", func(t *testing.T) {
		assert.True(t, CanDo(ActionModifyRequest, NewContext(user).WithOwner(1)))
	})
	t.Run("чужой пользователь не может менять заявку", func(t *testing.T) {
		assert.False(t, CanDo(ActionModifyRequest, NewContext(other).WithOwner(1)))
	})
	t.Run("руководитель может менять любую заявку", func(t *testing.T) {
		assert.True(t, CanDo(ActionModifyRequest, NewContext(manager).WithOwner(1)))
	})
	t.Run("больничный создаёт только администратор", func(t *testing.T) {
		assert.False(t, CanDo(ActionCreateSickLeave, NewContext(manager)))
		assert.True(t, CanDo(ActionCreateSickLeave, NewContext(admin)))
	})
	t.Run("рассмотрение: руководитель своей команды", func(t *testing.T) {
		assert.True(t, CanDo(ActionTreatAsTeamManager, NewContext(manager).WithTeam(team)))
		assert.False(t, CanDo(ActionTreatAsTeamManager, NewContext(foreignManager).WithTeam(team)))
		assert.False(t, CanDo(ActionTreatAsTeamManager, NewContext(manager)))
	})
	t.Run("рассмотрение: администратор без связи с командой", func(t *testing.T) {
		assert.True(t, CanDo(ActionTreatAsTeamManager, NewContext(admin)))
	})
	t.Run("обычный пользователь не рассматривает заявки", func(t *testing.T) {
		assert.False(t, CanDo(ActionTreat, NewContext(user)))
		assert.True(t, CanDo(ActionTreat, NewContext(manager)))
	})
	t.Run("заявка от имени команды", func(t *testing.T) {
		assert.False(t, CanDo(ActionCreateForTeam, NewContext(user).WithTeam(team)))
		assert.True(t, CanDo(ActionCreateForTeam, NewContext(manager).WithTeam(team)))
	})
	t.Run("изменение сотрудника руководителем подразделения", func(t *testing.T) {
		unit := &entities.OrganizationalUnit{ID: 3, ManagerID: &foreignManager.ID}
		assert.True(t, CanDo(ActionUpdateUser, NewContext(foreignManager).WithUnit(unit)))
		assert.False(t, CanDo(ActionUpdateUser, NewContext(other).WithUnit(unit)))
	})
	t.Run("без актора запрещено всё", func(t *testing.T) {
		assert.False(t, CanDo(ActionTreat, Context{}))
	})
}
