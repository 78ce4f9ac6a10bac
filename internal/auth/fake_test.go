package auth

import (
	"context"
	"sync"
)

// fakeStore is an in-memory Store for exercising the services without a
// database. Not safe for parallel subtests that share one instance.
type fakeStore struct {
	mu          sync.Mutex
	nextUserID  int64
	users       map[int64]*User
	actions     []*Action
	roles       map[int64]*Role
	roleActions map[[2]int64]bool
	overrides   []*IndividualPermission
	entries     []*AuditEntry

	createErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextUserID:  1,
		users:       make(map[int64]*User),
		roles:       make(map[int64]*Role),
		roleActions: make(map[[2]int64]bool),
	}
}

func (f *fakeStore) Users() UserStore             { return (*fakeUsers)(f) }
func (f *fakeStore) Roles() RoleStore             { return (*fakeRoles)(f) }
func (f *fakeStore) Permissions() PermissionStore { return (*fakePerms)(f) }
func (f *fakeStore) Audit() AuditStore            { return (*fakeAudit)(f) }

func (f *fakeStore) addUser(u *User) *User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = f.nextUserID
	f.nextUserID++
	f.users[u.ID] = u
	return u
}

func (f *fakeStore) addAction(a *Action) *Action {
	f.actions = append(f.actions, a)
	return a
}

func (f *fakeStore) grantRole(roleID, actionID int64) {
	f.roleActions[[2]int64{roleID, actionID}] = true
}

type fakeUsers fakeStore

func (f *fakeUsers) Create(ctx context.Context, u *User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return ErrConflict
		}
	}
	u.ID = f.nextUserID
	f.nextUserID++
	f.users[u.ID] = u
	return nil
}

func (f *fakeUsers) FindByID(ctx context.Context, id int64) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := f.FindByEmail(ctx, email)
	if err == ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (f *fakeUsers) UsernameExists(ctx context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

type fakeRoles fakeStore

func (f *fakeRoles) Find(ctx context.Context, id int64) (*Role, error) {
	if r, ok := f.roles[id]; ok {
		return r, nil
	}
	return nil, ErrNotFound
}

func (f *fakeRoles) FindActionByName(ctx context.Context, name, entityType string) (*Action, error) {
	for _, a := range f.actions {
		if a.Name == name && a.EntityType == entityType {
			return a, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRoles) HasRoleAction(ctx context.Context, roleID, actionID int64) (bool, error) {
	return f.roleActions[[2]int64{roleID, actionID}], nil
}

type fakePerms fakeStore

func (f *fakePerms) FindIndividual(ctx context.Context, userID, actionID, entityID int64, entityType string) (*IndividualPermission, error) {
	for _, p := range f.overrides {
		if p.UserID == userID && p.ActionID == actionID && p.EntityID == entityID && p.EntityType == entityType {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakePerms) Grant(ctx context.Context, p *IndividualPermission) error {
	p.ID = int64(len(f.overrides) + 1)
	f.overrides = append(f.overrides, p)
	return nil
}

func (f *fakePerms) Revoke(ctx context.Context, permissionID int64) error {
	for i, p := range f.overrides {
		if p.ID == permissionID {
			f.overrides = append(f.overrides[:i], f.overrides[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

type fakeAudit fakeStore

func (f *fakeAudit) Append(ctx context.Context, entry *AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAudit) ListRecent(ctx context.Context, limit int) ([]AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]AuditEntry, 0, limit)
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *f.entries[i])
	}
	return out, nil
}

// recordingSink captures audit events emitted by the service under test.
type recordingSink struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (s *recordingSink) Record(ctx context.Context, entry *AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *recordingSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.ActionType
	}
	return out
}
