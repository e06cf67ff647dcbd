package contextkeys

type contextKey string

const (
	UserIDKey    contextKey = "UserID"
	UserEmailKey contextKey = "UserEmail"
	UserRoleKey  contextKey = "UserRole"
)
