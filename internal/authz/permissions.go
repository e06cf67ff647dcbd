// internal/authz/permissions.go
package authz

import "leave-system/pkg/constants"

// --- СПИСОК ВСЕХ ПЕРМИШЕНОВ В СИСТЕМЕ ---

const (
	// Администрирование
	AdminRead   = "admin:read"
	AdminCreate = "admin:create"
	AdminUpdate = "admin:update"
	AdminDelete = "admin:delete"

	// Руководство командами и заявками
	ManagerRead   = "manager:read"
	ManagerCreate = "manager:create"
	ManagerUpdate = "manager:update"
	ManagerDelete = "manager:delete"
)

var managerPermissions = []string{ManagerRead, ManagerCreate, ManagerUpdate, ManagerDelete}

var adminPermissions = []string{AdminRead, AdminCreate, AdminUpdate, AdminDelete}

// rolePermissions - статическая таблица "роль -> набор прав".
var rolePermissions = map[constants.Role]map[string]bool{
	constants.RoleUser:    setOf(),
	constants.RoleManager: setOf(managerPermissions...),
	constants.RoleAdmin:   setOf(append(append([]string{}, adminPermissions...), managerPermissions...)...),
}

func setOf(perms ...string) map[string]bool {
	set := make(map[string]bool, len(perms))
	for _, p := range perms {
		set[p] = true
	}
	return set
}

// PermissionsFor возвращает копию набора прав роли. Неизвестная роль прав не имеет.
func PermissionsFor(role constants.Role) map[string]bool {
	src := rolePermissions[role]
	out := make(map[string]bool, len(src))
	for p := range src {
		out[p] = true
	}
	return out
}

// RoleHas - есть ли у роли указанное право.
func RoleHas(role constants.Role, permission string) bool {
	return rolePermissions[role][permission]
}
