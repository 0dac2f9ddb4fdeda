package globals

// Context keys
type ContextKey string

const (
	RoleKey      ContextKey = "role"
	UserIDKey    ContextKey = "userId"
	EmailKey     ContextKey = "email"
	RequestIDKey ContextKey = "requestId"
)
