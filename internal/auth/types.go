package auth

import "time"

// Entity types the permission model gates. They mirror the persisted
// entity_type discriminator, not Go types.
const (
	EntityFolder   = "Folder"
	EntityDocument = "Document"
	EntityPipeline = "Pipeline"
)

// User is an account identity. The password hash never leaves the
// process boundary in serialized form.
type User struct {
	ID           int64     `json:"user_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	RoleID       int64     `json:"role_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Role is a named grant bundle users belong to.
type Role struct {
	ID          int64  `json:"role_id"`
	Name        string `json:"role_name"`
	Description string `json:"description,omitempty"`
}

// Action is a capability descriptor, unique per (name, entity type).
type Action struct {
	ID         int64  `json:"action_id"`
	Name       string `json:"action_name"`
	EntityType string `json:"entity_type"`
}

// RoleAction grants an action to every member of a role.
type RoleAction struct {
	ID       int64 `json:"role_action_id"`
	RoleID   int64 `json:"role_id"`
	ActionID int64 `json:"action_id"`
}

// IndividualPermission is an explicit allow/deny override for one user
// on one entity. It beats any role-level grant.
type IndividualPermission struct {
	ID          int64  `json:"permission_id"`
	UserID      int64  `json:"user_id"`
	ActionID    int64  `json:"action_id"`
	EntityID    int64  `json:"entity_id"`
	EntityType  string `json:"entity_type"`
	IsAllowed   bool   `json:"is_allowed"`
	IsInherited bool   `json:"is_inherited"`
}

// AuditEntry is an append-only record of a security-relevant event.
// UserID and EntityID are nil when the event has no acting user or
// affected entity.
type AuditEntry struct {
	ID         int64     `json:"log_id"`
	Timestamp  time.Time `json:"log_timestamp"`
	ActionType string    `json:"action_type"`
	UserID     *int64    `json:"user_id,omitempty"`
	EntityID   *int64    `json:"entity_id,omitempty"`
	Details    string    `json:"details,omitempty"`
}

// TokenPair carries both session credentials issued by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}
