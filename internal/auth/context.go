package auth

import "context"

type ctxKey string

const (
	userIDKey ctxKey = "auth_user_id"
	roleIDKey ctxKey = "auth_role_id"
)

// ContextWithSubject stores the authenticated identity in the context.
func ContextWithSubject(ctx context.Context, userID, roleID int64) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, roleIDKey, roleID)
}

// SubjectFromContext extracts the authenticated user id from context.
func SubjectFromContext(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(userIDKey).(int64)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// RoleFromContext returns the role id asserted by the access token.
func RoleFromContext(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(roleIDKey).(int64)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}
