package auth

import "context"

// Store describes the persistence operations the auth core requires.
// Implementations must report unique-constraint violations as
// ErrConflict and absent rows as ErrNotFound so the services can map
// them into the caller-facing taxonomy.
type Store interface {
	Users() UserStore
	Roles() RoleStore
	Permissions() PermissionStore
	Audit() AuditStore
}

// UserStore manages user accounts.
type UserStore interface {
	// Create persists a new user and fills in the assigned id and
	// creation timestamp. Returns ErrConflict when the email or
	// username unique constraint fires.
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// RoleStore reads roles and the action catalog.
type RoleStore interface {
	Find(ctx context.Context, id int64) (*Role, error)
	FindActionByName(ctx context.Context, name, entityType string) (*Action, error)
	HasRoleAction(ctx context.Context, roleID, actionID int64) (bool, error)
}

// PermissionStore manages per-resource overrides.
type PermissionStore interface {
	FindIndividual(ctx context.Context, userID, actionID, entityID int64, entityType string) (*IndividualPermission, error)
	Grant(ctx context.Context, p *IndividualPermission) error
	Revoke(ctx context.Context, permissionID int64) error
}

// AuditStore appends immutable entries. There is no update or delete.
type AuditStore interface {
	Append(ctx context.Context, entry *AuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]AuditEntry, error)
}

// AuditSink records security-relevant events. Implementations live in
// internal/audit; a nil sink disables recording.
type AuditSink interface {
	Record(ctx context.Context, entry *AuditEntry) error
}
