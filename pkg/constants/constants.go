// pkg/constants/constants.go
package constants

//============== ROLES ==============

type Role string

const (
	RoleUser    Role = "USER"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleManager, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

//============== GENDER ==============

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

//============== DEFAULTS ==============

const (
	DefaultLeaveDays               float64 = 26
	DefaultExternalActivitiesLimit int     = 2
	DefaultMinimumAttendance       int     = 10
)

//============== CACHE KEYS ==============

// Префиксы для ключей в Redis.
const (
	// Ключ, указывающий, что вход для email заблокирован из-за неудачных попыток.
	// Формат: lockout:<email> -> "locked"
	CacheKeyLockout = "lockout:%s"

	// Ключ для подсчета неудачных попыток входа.
	// Формат: login_attempts:<email> -> count
	CacheKeyLoginAttempts = "login_attempts:%s"

	// Отметка о том, что задача планировщика уже выполнена за период.
	// Формат: scheduler:claim:<job>:<period> -> instance
	CacheKeySchedulerClaim = "scheduler:claim:%s:%s"

	// Блокировка от параллельного запуска одной задачи.
	// Формат: scheduler:lock:<job> -> instance
	CacheKeySchedulerLock = "scheduler:lock:%s"
)
