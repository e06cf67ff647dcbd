package seeders

import "leave-system/pkg/constants"

type demoUser struct {
	FirstName string
	LastName  string
	Email     string
	Gender    string
	Role      constants.Role
}

const (
	demoUnitName = "Департамент разработки"
	demoTeamName = "Backend"
	// demoPassword - общий пароль демонстрационных учёток, только для локальных стендов.
	demoPassword = "password123"
)

var (
	demoUnitHead = demoUser{"Ольга", "Смирнова", "o.smirnova@leave-system.local", "FEMALE", constants.RoleManager}
	demoTeamLead = demoUser{"Игорь", "Петров", "i.petrov@leave-system.local", "MALE", constants.RoleManager}

	demoEmployees = []demoUser{
		{"Анна", "Иванова", "a.ivanova@leave-system.local", "FEMALE", constants.RoleUser},
		{"Дмитрий", "Кузнецов", "d.kuznetsov@leave-system.local", "MALE", constants.RoleUser},
		{"Мария", "Соколова", "m.sokolova@leave-system.local", "FEMALE", constants.RoleUser},
	}
)
