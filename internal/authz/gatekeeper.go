package authz

import (
	"net/http"
	"strings"

	"leave-system/pkg/constants"
)

// Gatekeeper проверяет доступ к маршрутам по сегментам пути.
type Gatekeeper struct{}

func NewGatekeeper() *Gatekeeper {
	return &Gatekeeper{}
}

// Can - проверка права роли без учёта цели.
func (g *Gatekeeper) Can(role constants.Role, permission string) bool {
	return RoleHas(role, permission)
}

// AllowPath решает, пускать ли роль на маршрут.
// Сегмент /admin/ требует admin:<действие>, сегмент /management/ требует manager:<действие>.
// Остальные маршруты доступны любому аутентифицированному пользователю.
func (g *Gatekeeper) AllowPath(role, method, path string) bool {
	r := constants.Role(strings.ToUpper(role))
	if !r.IsValid() {
		return false
	}

	action := actionForMethod(method)
	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		switch segment {
		case "admin":
			if !RoleHas(r, "admin:"+action) {
				return false
			}
		case "management":
			if !RoleHas(r, "manager:"+action) {
				return false
			}
		}
	}
	return true
}

func actionForMethod(method string) string {
	switch strings.ToUpper(method) {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}
