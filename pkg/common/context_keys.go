package common

type contextKey string

const (
	TraceIdKey          contextKey = "trace_id"
	ClientIPContextKey  contextKey = "client_ip"
	RequestContextKey   contextKey = "request_context"
	ActorIdContextKey   contextKey = "actor_id"
	ActorRoleContextKey contextKey = "actor_role"
	UserAgentContextKey contextKey = "user_agent"
	DefenseStateKey     contextKey = "defense_state"
)
